package gitcore

import (
	"os"
	"syscall"
)

// NewIndexEntryFromStat builds an IndexEntry for path (relative, slash
// separated) whose content has already been stored as blob oid, recording
// the filesystem metadata needed to later detect changes without rehashing:
// ctime/mtime (down to nanoseconds), device, inode, uid, gid, and size.
func NewIndexEntryFromStat(path string, oid Hash, info os.FileInfo) IndexEntry {
	mode := uint32(regularFileMode)
	if info.Mode()&0o100 != 0 {
		mode = uint32(executableFileMode)
	}

	entry := IndexEntry{
		Mode:     mode,
		FileSize: uint32(info.Size()), //nolint:gosec // file sizes tracked by this engine fit in uint32
		Hash:     oid,
		Path:     path,
	}

	if sys, ok := info.Sys().(*syscall.Stat_t); ok {
		entry.CtimeSec = uint32(sys.Ctim.Sec)   //nolint:gosec,unconvert
		entry.CtimeNsec = uint32(sys.Ctim.Nsec) //nolint:gosec,unconvert
		entry.MtimeSec = uint32(sys.Mtim.Sec)   //nolint:gosec,unconvert
		entry.MtimeNsec = uint32(sys.Mtim.Nsec) //nolint:gosec,unconvert
		entry.Device = uint32(sys.Dev)          //nolint:gosec,unconvert
		entry.Inode = uint32(sys.Ino)           //nolint:gosec,unconvert
		entry.UID = sys.Uid
		entry.GID = sys.Gid
	}

	return entry
}

// Raw octal mode values a tree entry or index entry can carry.
const (
	regularFileMode    = 0o100644
	executableFileMode = 0o100755
)
