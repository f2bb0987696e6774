package gitcore

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // Git's index checksum is defined in terms of SHA-1
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Git index file constants.
const (
	// indexMagic is the 4-byte signature that begins every .git/index file.
	indexMagic = "DIRC"

	// indexVersion is the only index format version this engine reads or
	// writes. Versions 3 and 4 add extensions (skip-worktree, path-prefix
	// compression) that change the wire layout and are out of scope.
	indexVersion = 2

	// indexFixedEntrySize is the number of bytes occupied by the fixed-size
	// fields of each index entry (ctime through flags, inclusive), before the
	// variable-length null-terminated path begins.
	//
	// Breakdown:
	//   ctime_sec   4
	//   ctime_nsec  4
	//   mtime_sec   4
	//   mtime_nsec  4
	//   device      4
	//   inode       4
	//   mode        4
	//   uid         4
	//   gid         4
	//   file_size   4
	//   sha1       20
	//   flags       2
	//   total      62
	indexFixedEntrySize = 62

	// indexEntryAlignment is the boundary to which each entry's total length
	// (fixed fields + path + NUL + padding) must be a multiple of.
	indexEntryAlignment = 8

	// indexChecksumSize is the trailing SHA-1 over every preceding byte of
	// the index file.
	indexChecksumSize = 20
)

// Sentinel errors describing why an on-disk index could not be trusted.
var (
	// ErrInvalidIndex means the index file's header or structure is malformed.
	ErrInvalidIndex = errors.New("gitcore: invalid index file")
	// ErrChecksumMismatch means the index file's trailing SHA-1 does not match
	// its content, indicating corruption.
	ErrChecksumMismatch = errors.New("gitcore: index checksum mismatch")
	// ErrShortRead means the index file ended before a fixed-size field could
	// be fully read.
	ErrShortRead = errors.New("gitcore: unexpected end of index file")
)

// IndexEntry represents a single entry in the Git index (staging area).
// The index stores the cached stat information and blob hash for each tracked
// file so that Git can quickly detect which files have changed on disk.
type IndexEntry struct {
	CtimeSec  uint32
	CtimeNsec uint32
	MtimeSec  uint32
	MtimeNsec uint32
	Device    uint32
	Inode     uint32
	// Mode encodes the file type and permissions, e.g. 0100644 (regular),
	// 0100755 (executable).
	Mode     uint32
	UID      uint32
	GID      uint32
	FileSize uint32
	// Hash is the SHA-1 of the blob object that the index records for this path.
	Hash  Hash
	Flags uint16
	// Path is the file's path, relative to the repo root, slash-separated.
	Path string
}

// Index represents the parsed .git/index file (the staging area / cache).
type Index struct {
	Version uint32
	ByPath  map[string]*IndexEntry

	// childrenByParent maps every ancestor directory path of every entry to
	// the set of full entry paths nested beneath it. It exists purely to
	// make conflict discarding fast: when a new entry is added at a path
	// that some existing entries currently treat as a directory prefix,
	// this lets us find and evict exactly those entries without a full scan.
	childrenByParent map[string]map[string]struct{}

	// lock is non-nil when the index was loaded via LoadIndexForUpdate and
	// the on-disk index.lock is still held. changed tracks whether any Add
	// happened since loading; WriteUpdates rolls the lock back without
	// touching the index file when nothing changed.
	lock    *Lockfile
	changed bool
}

// newIndex returns an empty, fully initialized Index.
func newIndex() *Index {
	return &Index{
		Version:          indexVersion,
		ByPath:           make(map[string]*IndexEntry),
		childrenByParent: make(map[string]map[string]struct{}),
	}
}

// Entries returns every entry in the index, sorted by path — the order Git
// always stores and iterates index entries in.
func (idx *Index) Entries() []IndexEntry {
	paths := make([]string, 0, len(idx.ByPath))
	for p := range idx.ByPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	entries := make([]IndexEntry, len(paths))
	for i, p := range paths {
		entries[i] = *idx.ByPath[p]
	}
	return entries
}

// Add records entry in the index, first discarding any existing entries that
// would violate the invariant that no path is both a file and an ancestor
// directory of another entry.
func (idx *Index) Add(entry IndexEntry) {
	idx.discardConflicts(entry.Path)
	idx.storeEntry(entry)
	idx.changed = true
}

// discardConflicts evicts every existing entry that would cohabit illegally
// with a new entry at path:
//   - any entry recorded exactly at one of path's ancestor directories (that
//     entry treated the directory as a file; path now needs to treat it as a
//     directory, which is a conflict) — "file replaced by directory".
//   - any existing entry nested under path (path now needs to be a file,
//     but entries exist that treat it as a directory) — "directory replaced
//     by file".
func (idx *Index) discardConflicts(path string) {
	for _, ancestor := range ancestorsOf(path) {
		if _, exists := idx.ByPath[ancestor]; exists {
			idx.removeEntry(ancestor)
		}
	}

	if children, ok := idx.childrenByParent[path]; ok {
		// Copy the child-path set before mutating it: removeEntry below
		// deletes from childrenByParent[path] as it runs.
		toRemove := make([]string, 0, len(children))
		for child := range children {
			toRemove = append(toRemove, child)
		}
		for _, child := range toRemove {
			idx.removeEntry(child)
		}
	}
}

// removeEntry deletes the entry at path and scrubs path itself out of every
// one of path's ancestor directories in childrenByParent.
//
// This scrubs the ancestors of the entry actually being removed (path), not
// the ancestors of whatever other entry triggered the removal — when
// discardConflicts above evicts a batch of descendants, each must be
// unregistered from its own parent chain, not the new entry's parent chain.
func (idx *Index) removeEntry(path string) {
	delete(idx.ByPath, path)
	for _, ancestor := range ancestorsOf(path) {
		set, ok := idx.childrenByParent[ancestor]
		if !ok {
			continue
		}
		delete(set, path)
		if len(set) == 0 {
			delete(idx.childrenByParent, ancestor)
		}
	}
}

// storeEntry inserts entry into ByPath and registers it under every one of
// its ancestor directories in childrenByParent.
func (idx *Index) storeEntry(entry IndexEntry) {
	e := entry
	idx.ByPath[entry.Path] = &e
	for _, ancestor := range ancestorsOf(entry.Path) {
		set, ok := idx.childrenByParent[ancestor]
		if !ok {
			set = make(map[string]struct{})
			idx.childrenByParent[ancestor] = set
		}
		set[entry.Path] = struct{}{}
	}
}

// ancestorsOf returns every proper ancestor directory path of path, outermost
// first — i.e. for "a/b/c" it returns ["a", "a/b"].
func ancestorsOf(path string) []string {
	parts := strings.Split(path, "/")
	if len(parts) <= 1 {
		return nil
	}
	ancestors := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		ancestors = append(ancestors, strings.Join(parts[:i], "/"))
	}
	return ancestors
}

// ReadIndex parses the .git/index file inside gitDir and returns a structured
// Index. Only version 2 of the index format is fully supported; versions 3 and
// 4 return an error because they introduce extensions that alter the wire layout.
//
// If the index file does not exist (e.g., a freshly initialized repository that
// has never had anything staged), ReadIndex returns an empty Index with no error.
func ReadIndex(gitDir string) (*Index, error) {
	indexPath := filepath.Join(gitDir, "index")

	//nolint:gosec // G304: index path is derived from the git directory, which is caller-controlled
	data, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return newIndex(), nil
		}
		return nil, fmt.Errorf("ReadIndex: reading index file: %w", err)
	}

	idx, err := parseIndex(data)
	if err != nil {
		return nil, fmt.Errorf("ReadIndex: %w", err)
	}
	return idx, nil
}

// parseIndex decodes the raw bytes of a .git/index file into an Index.
// All multi-byte integers are big-endian as per the Git index specification.
// The trailing 20-byte checksum is verified against a fresh SHA-1 of every
// preceding byte before any entries are trusted.
func parseIndex(data []byte) (*Index, error) {
	const headerSize = 12
	if len(data) < headerSize+indexChecksumSize {
		return nil, fmt.Errorf("%w: file too short to contain a valid header and checksum (%d bytes)", ErrShortRead, len(data))
	}

	if string(data[:4]) != indexMagic {
		return nil, fmt.Errorf("%w: invalid magic signature: expected %q, got %q", ErrInvalidIndex, indexMagic, string(data[:4]))
	}

	version := binary.BigEndian.Uint32(data[4:8])
	if version != indexVersion {
		return nil, fmt.Errorf("%w: unsupported index version %d (only version %d is supported)", ErrInvalidIndex, version, indexVersion)
	}

	body := data[:len(data)-indexChecksumSize]
	wantSum := data[len(data)-indexChecksumSize:]
	gotSum := sha1.Sum(body) //nolint:gosec // Git's index checksum is defined in terms of SHA-1
	if !bytes.Equal(gotSum[:], wantSum) {
		return nil, fmt.Errorf("%w: index checksum mismatch", ErrChecksumMismatch)
	}

	numEntries := binary.BigEndian.Uint32(data[8:12])

	idx := newIndex()
	idx.Version = version

	offset := headerSize
	for i := uint32(0); i < numEntries; i++ {
		entry, bytesConsumed, err := parseIndexEntry(body, offset)
		if err != nil {
			return nil, fmt.Errorf("entry %d at offset %d: %w", i, offset, err)
		}
		idx.storeEntry(entry)
		offset += bytesConsumed
	}

	return idx, nil
}

// parseIndexEntry decodes one index entry from data starting at startOffset.
// It returns the entry and the total number of bytes consumed (fixed fields +
// path + NUL terminator + alignment padding).
func parseIndexEntry(data []byte, startOffset int) (IndexEntry, int, error) {
	if startOffset+indexFixedEntrySize > len(data) {
		return IndexEntry{}, 0, fmt.Errorf(
			"%w: not enough data for fixed entry fields: need %d bytes, have %d",
			ErrShortRead, indexFixedEntrySize, len(data)-startOffset,
		)
	}

	p := data[startOffset:]

	var entry IndexEntry

	entry.CtimeSec = binary.BigEndian.Uint32(p[0:4])
	entry.CtimeNsec = binary.BigEndian.Uint32(p[4:8])
	entry.MtimeSec = binary.BigEndian.Uint32(p[8:12])
	entry.MtimeNsec = binary.BigEndian.Uint32(p[12:16])
	entry.Device = binary.BigEndian.Uint32(p[16:20])
	entry.Inode = binary.BigEndian.Uint32(p[20:24])
	entry.Mode = binary.BigEndian.Uint32(p[24:28])
	entry.UID = binary.BigEndian.Uint32(p[28:32])
	entry.GID = binary.BigEndian.Uint32(p[32:36])
	entry.FileSize = binary.BigEndian.Uint32(p[36:40])

	hashHex := hex.EncodeToString(p[40:60])
	hash, err := NewHash(hashHex)
	if err != nil {
		return IndexEntry{}, 0, fmt.Errorf("invalid blob hash: %w", err)
	}
	entry.Hash = hash

	entry.Flags = binary.BigEndian.Uint16(p[60:62])

	pathStart := startOffset + indexFixedEntrySize
	nullIdx := -1
	for i := pathStart; i < len(data); i++ {
		if data[i] == 0 {
			nullIdx = i
			break
		}
	}
	if nullIdx == -1 {
		return IndexEntry{}, 0, fmt.Errorf("null terminator not found for path starting at offset %d", pathStart)
	}

	entry.Path = string(data[pathStart:nullIdx])

	pathLen := nullIdx - pathStart
	rawLen := indexFixedEntrySize + pathLen + 1
	paddedLen := (rawLen + indexEntryAlignment - 1) &^ (indexEntryAlignment - 1)

	if startOffset+paddedLen > len(data) {
		return IndexEntry{}, 0, fmt.Errorf(
			"entry extends beyond end of data: offset %d + paddedLen %d > fileLen %d",
			startOffset, paddedLen, len(data),
		)
	}

	return entry, paddedLen, nil
}

// LoadIndexForUpdate acquires gitDir/index.lock and then loads the committed
// index the same way ReadIndex does. The returned Index holds the lock until
// WriteUpdates publishes or rolls back; a caller that exits without calling
// WriteUpdates leaves index.lock on disk, which is the recovery signal for
// an interrupted update. A second updater sees an error wrapping ErrLockBusy.
func LoadIndexForUpdate(gitDir string) (*Index, error) {
	lock := NewLockfile(filepath.Join(gitDir, "index"))
	if err := lock.Hold(); err != nil {
		return nil, fmt.Errorf("LoadIndexForUpdate: %w", err)
	}

	idx, err := ReadIndex(gitDir)
	if err != nil {
		_ = lock.Rollback()
		return nil, fmt.Errorf("LoadIndexForUpdate: %w", err)
	}
	idx.lock = lock
	return idx, nil
}

// WriteUpdates publishes the in-memory state through the lock acquired by
// LoadIndexForUpdate: header, entries in ascending path order, and the
// trailing SHA-1, renamed over gitDir/index. If nothing changed since
// loading, the lock is rolled back and the committed index file is left
// exactly as it was.
func (idx *Index) WriteUpdates() error {
	if idx.lock == nil {
		return fmt.Errorf("WriteUpdates: %w", ErrStaleLock)
	}
	lock := idx.lock
	idx.lock = nil

	if !idx.changed {
		if err := lock.Rollback(); err != nil {
			return fmt.Errorf("WriteUpdates: %w", err)
		}
		return nil
	}

	if err := lock.Write(idx.serialize()); err != nil {
		_ = lock.Rollback()
		return fmt.Errorf("WriteUpdates: %w", err)
	}
	if err := lock.Commit(); err != nil {
		return fmt.Errorf("WriteUpdates: %w", err)
	}
	idx.changed = false
	return nil
}

// serialize renders the full on-disk form of the index: 12-byte header,
// entries sorted by path, and the trailing SHA-1 over everything preceding it.
func (idx *Index) serialize() []byte {
	entries := idx.Entries()

	var body bytes.Buffer

	header := make([]byte, 12)
	copy(header[0:4], indexMagic)
	binary.BigEndian.PutUint32(header[4:8], indexVersion)
	binary.BigEndian.PutUint32(header[8:12], uint32(len(entries))) //nolint:gosec // entry counts fit in uint32
	body.Write(header)

	for _, e := range entries {
		writeIndexEntry(&body, e)
	}

	sum := sha1.Sum(body.Bytes()) //nolint:gosec // Git's index checksum is defined in terms of SHA-1
	body.Write(sum[:])
	return body.Bytes()
}

// writeIndexEntry appends the binary encoding of e to buf: the 62-byte fixed
// fields, the path, a NUL terminator, and NUL padding out to the next
// 8-byte boundary.
func writeIndexEntry(buf *bytes.Buffer, e IndexEntry) {
	var fixed [indexFixedEntrySize]byte
	binary.BigEndian.PutUint32(fixed[0:4], e.CtimeSec)
	binary.BigEndian.PutUint32(fixed[4:8], e.CtimeNsec)
	binary.BigEndian.PutUint32(fixed[8:12], e.MtimeSec)
	binary.BigEndian.PutUint32(fixed[12:16], e.MtimeNsec)
	binary.BigEndian.PutUint32(fixed[16:20], e.Device)
	binary.BigEndian.PutUint32(fixed[20:24], e.Inode)
	binary.BigEndian.PutUint32(fixed[24:28], e.Mode)
	binary.BigEndian.PutUint32(fixed[28:32], e.UID)
	binary.BigEndian.PutUint32(fixed[32:36], e.GID)
	binary.BigEndian.PutUint32(fixed[36:40], e.FileSize)

	rawHash, _ := hex.DecodeString(string(e.Hash)) // e.Hash is always a validated 40-char Hash
	copy(fixed[40:60], rawHash)

	flags := e.Flags
	pathLen := len(e.Path)
	if pathLen < 0xfff {
		flags = (flags &^ 0xfff) | uint16(pathLen) //nolint:gosec // pathLen checked < 0xfff above
	} else {
		flags |= 0xfff
	}
	binary.BigEndian.PutUint16(fixed[60:62], flags)

	buf.Write(fixed[:])
	buf.WriteString(e.Path)

	rawLen := indexFixedEntrySize + pathLen + 1
	paddedLen := (rawLen + indexEntryAlignment - 1) &^ (indexEntryAlignment - 1)
	padding := paddedLen - (indexFixedEntrySize + pathLen)
	buf.Write(make([]byte, padding))
}
