package gitcore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Lockfile implements Git's lock-then-rename protocol for safely publishing
// a file (the index, or a ref) without ever leaving readers to observe a
// partially written version.
//
// A Lockfile is held by exclusively creating path+".lock". Callers write the
// new content into that temporary file, then either Commit (rename the lock
// file over the target) or Rollback (remove the lock file, discarding the
// write). A Lockfile that is never committed or rolled back leaves its
// ".lock" file on disk — this is intentional: the stale lock is itself the
// signal that a previous process was interrupted mid-update, exactly as in
// upstream Git.
type Lockfile struct {
	path     string
	lockPath string
	file     *os.File
	held     bool
}

// Sentinel errors describing why a lock could not be acquired.
var (
	// ErrLockBusy means another process already holds the lock.
	ErrLockBusy = errors.New("gitcore: lock file already exists")
	// ErrLockMissingParent means the lock file's parent directory does not exist.
	ErrLockMissingParent = errors.New("gitcore: lock file parent directory does not exist")
	// ErrLockDenied means the process lacks permission to create the lock file.
	ErrLockDenied = errors.New("gitcore: permission denied creating lock file")
	// ErrStaleLock is returned by Commit/Rollback when called on a Lockfile
	// that is not currently held.
	ErrStaleLock = errors.New("gitcore: lock is not held")
)

// NewLockfile returns a Lockfile for path. path itself is never touched until
// Commit; the lock lives at path+".lock".
func NewLockfile(path string) *Lockfile {
	return &Lockfile{path: path, lockPath: path + ".lock"}
}

// Hold exclusively creates the lock file, failing if it already exists. The
// returned error wraps one of the sentinel Err* values above.
func (l *Lockfile) Hold() error {
	//nolint:gosec // G304: lock path is derived from a caller-controlled path
	f, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		switch {
		case os.IsExist(err):
			return fmt.Errorf("%s: %w", l.lockPath, ErrLockBusy)
		case errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("%s: %w", l.lockPath, ErrLockMissingParent)
		case os.IsPermission(err):
			return fmt.Errorf("%s: %w", l.lockPath, ErrLockDenied)
		default:
			return fmt.Errorf("hold lock %s: %w", l.lockPath, err)
		}
	}
	l.file = f
	l.held = true
	return nil
}

// Write appends data to the held lock file.
func (l *Lockfile) Write(data []byte) error {
	if !l.held {
		return ErrStaleLock
	}
	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("write lock %s: %w", l.lockPath, err)
	}
	return nil
}

// Commit closes the lock file and atomically renames it over the target
// path, publishing its content.
func (l *Lockfile) Commit() error {
	if !l.held {
		return ErrStaleLock
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close lock %s: %w", l.lockPath, err)
	}
	if err := os.Rename(l.lockPath, l.path); err != nil {
		return fmt.Errorf("commit lock %s -> %s: %w", l.lockPath, l.path, err)
	}
	l.held = false
	return nil
}

// Rollback closes and removes the lock file without publishing anything.
func (l *Lockfile) Rollback() error {
	if !l.held {
		return ErrStaleLock
	}
	_ = l.file.Close()
	if err := os.Remove(l.lockPath); err != nil {
		return fmt.Errorf("rollback lock %s: %w", l.lockPath, err)
	}
	l.held = false
	return nil
}

// Path returns the path of the file this lock ultimately publishes to.
func (l *Lockfile) Path() string { return l.path }

// ensureParentDir creates dir (and its parents) so that a subsequent Hold
// does not fail with ErrLockMissingParent. Used by callers that are creating
// a brand-new repository layout (e.g. the object database's fan-out dirs).
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
