package gitcore

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1" //nolint:gosec // Git object identity is defined in terms of SHA-1
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// Database is the content-addressed object store under gitDir/objects.
// It is the write side of the loose-object reading done by readLooseObjectRaw;
// the two are kept in the same package because they share the on-disk layout
// (two hex fan-out characters, then the remaining 38).
type Database struct {
	objectsDir string
}

// NewDatabase returns a Database rooted at gitDir/objects.
func NewDatabase(gitDir string) *Database {
	return &Database{objectsDir: filepath.Join(gitDir, "objects")}
}

// hashObject computes the object id for a framed object: "<type> <len>\0<content>".
func hashObject(objType string, content []byte) Hash {
	header := fmt.Sprintf("%s %d\x00", objType, len(content))
	h := sha1.New() //nolint:gosec // Git object identity is defined in terms of SHA-1
	h.Write([]byte(header))
	h.Write(content)
	sum := h.Sum(nil)
	var arr [20]byte
	copy(arr[:], sum)
	id, _ := NewHashFromBytes(arr) // sha1.Sum always yields a valid 20-byte hash
	return id
}

// Store frames, hashes, and persists an object, returning its id. If an
// object with the same id already exists on disk, Store is a no-op beyond
// computing the hash — objects are immutable and content-addressed, so a
// second write of identical content would produce byte-identical output.
func (db *Database) Store(objType string, content []byte) (Hash, error) {
	id := hashObject(objType, content)

	objectPath := db.objectPath(id)
	if _, err := os.Stat(objectPath); err == nil {
		return id, nil
	}

	header := fmt.Sprintf("%s %d\x00", objType, len(content))
	var compressed bytes.Buffer
	zw, err := zlib.NewWriterLevel(&compressed, zlib.BestSpeed)
	if err != nil {
		return "", fmt.Errorf("Database.Store: new zlib writer: %w", err)
	}
	if _, err := zw.Write([]byte(header)); err != nil {
		return "", fmt.Errorf("Database.Store: compress header: %w", err)
	}
	if _, err := zw.Write(content); err != nil {
		return "", fmt.Errorf("Database.Store: compress content: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("Database.Store: close zlib writer: %w", err)
	}

	if err := db.writeObjectFile(objectPath, compressed.Bytes()); err != nil {
		return "", fmt.Errorf("Database.Store: %w", err)
	}

	return id, nil
}

// writeObjectFile writes data to a randomly named temporary file beside
// path, then renames it into place. The rename is atomic on the same
// filesystem, so concurrent readers never observe a partially written
// object. If path's parent (the fan-out directory) does not yet exist, it
// is created once and the write is retried.
func (db *Database) writeObjectFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tempPath := filepath.Join(dir, generateTempName())

	//nolint:gosec // G304: tempPath is derived from the object database directory
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o444)
	if os.IsNotExist(err) {
		if mkErr := ensureParentDir(tempPath); mkErr != nil {
			return mkErr
		}
		f, err = os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o444) //nolint:gosec
	}
	if err != nil {
		return fmt.Errorf("open temp object file %s: %w", tempPath, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("write temp object file %s: %w", tempPath, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("close temp object file %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("rename %s -> %s: %w", tempPath, path, err)
	}
	return nil
}

// generateTempName produces a name of the form "tmp_obj_XXXXXX" with six
// random alphanumeric characters, matching the naming scheme Git itself uses
// for in-progress loose object writes.
func generateTempName() string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	buf := make([]byte, 6)
	for i := range buf {
		buf[i] = chars[rand.Intn(len(chars))]
	}
	return "tmp_obj_" + string(buf)
}

// objectPath returns the on-disk path for id: the first two hex characters
// name a fan-out directory, the remaining 38 name the file within it.
func (db *Database) objectPath(id Hash) string {
	s := string(id)
	return filepath.Join(db.objectsDir, s[:2], s[2:])
}

// readRaw reads a loose object from disk and returns its header
// ("<type> <len>") and content, decompressing it and splitting on the NUL
// that separates them.
func (db *Database) readRaw(id Hash) (header string, content []byte, err error) {
	objectPath := db.objectPath(id)

	//nolint:gosec // G304: object paths are derived from a validated Hash
	file, err := os.Open(objectPath)
	if err != nil {
		return "", nil, fmt.Errorf("open object %s: %w", id, err)
	}
	defer file.Close() //nolint:errcheck

	data, err := readCompressedData(file)
	if err != nil {
		return "", nil, fmt.Errorf("invalid compressed data for object %s: %w", id, err)
	}

	nullIdx := bytes.IndexByte(data, 0)
	if nullIdx == -1 {
		return "", nil, fmt.Errorf("invalid object format for %s", id)
	}

	return string(data[:nullIdx]), data[nullIdx+1:], nil
}

// ReadCommit reads and parses a commit object.
func (db *Database) ReadCommit(id Hash) (*Commit, error) {
	header, content, err := db.readRaw(id)
	if err != nil {
		return nil, err
	}
	if !hasObjectType(header, objectTypeCommit) {
		return nil, fmt.Errorf("object %s is not a commit (%s)", id, header)
	}
	return parseCommitBody(content, id)
}

// ReadTree reads and parses a tree object.
func (db *Database) ReadTree(id Hash) (*Tree, error) {
	header, content, err := db.readRaw(id)
	if err != nil {
		return nil, err
	}
	if !hasObjectType(header, objectTypeTree) {
		return nil, fmt.Errorf("object %s is not a tree (%s)", id, header)
	}
	return parseTreeBody(content, id)
}

// ReadBlob reads a blob object.
func (db *Database) ReadBlob(id Hash) (*Blob, error) {
	header, content, err := db.readRaw(id)
	if err != nil {
		return nil, err
	}
	if !hasObjectType(header, objectTypeBlob) {
		return nil, fmt.Errorf("object %s is not a blob (%s)", id, header)
	}
	return &Blob{ID: id, Data: content}, nil
}

// ObjectInfo returns the type name and size in bytes of any object, without
// requiring the caller to know its kind in advance.
func (db *Database) ObjectInfo(id Hash) (typeName string, size int, err error) {
	header, content, err := db.readRaw(id)
	if err != nil {
		return "", 0, err
	}
	typeName, err = objectTypeFromHeader(header)
	if err != nil {
		return "", 0, err
	}
	return typeName, len(content), nil
}

// ResolvePrefix finds the single loose object whose id starts with prefix
// (at least 4 hex characters), scanning the fan-out directory structure
// directly since no packed object index exists to query. Returns an error if
// no object matches, or if more than one does (an ambiguous short hash).
func (db *Database) ResolvePrefix(prefix string) (Hash, error) {
	if len(prefix) < 4 {
		return "", fmt.Errorf("ambiguous argument %q: too short to be a valid object name prefix", prefix)
	}

	fanOut := prefix[:2]
	rest := prefix[2:]

	entries, err := os.ReadDir(filepath.Join(db.objectsDir, fanOut))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no object matches prefix %q", prefix)
		}
		return "", fmt.Errorf("ResolvePrefix: %w", err)
	}

	var match Hash
	count := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), rest) {
			id, err := NewHash(fanOut + e.Name())
			if err != nil {
				continue
			}
			match = id
			count++
		}
	}

	switch count {
	case 0:
		return "", fmt.Errorf("no object matches prefix %q", prefix)
	case 1:
		return match, nil
	default:
		return "", fmt.Errorf("short object id %q is ambiguous", prefix)
	}
}

// hasObjectType reports whether header (of the form "<type> <len>") names
// the given object type.
func hasObjectType(header, want string) bool {
	return len(header) >= len(want) && header[:len(want)] == want &&
		(len(header) == len(want) || header[len(want)] == ' ')
}
