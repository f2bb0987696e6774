package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Refs manages the single symbolic reference this engine understands: HEAD,
// which names the tip commit of the current line of history. There are no
// branches, tags, or packed refs — HEAD always holds either an object id or
// is absent (a fresh repository with no commits yet).
type Refs struct {
	gitDir string
}

// NewRefs returns a Refs rooted at gitDir.
func NewRefs(gitDir string) *Refs {
	return &Refs{gitDir: gitDir}
}

func (r *Refs) headPath() string { return filepath.Join(r.gitDir, "HEAD") }

// ReadHead returns the commit id HEAD currently points at, or "" if HEAD
// does not exist yet (no commits have been made).
func (r *Refs) ReadHead() (Hash, error) {
	//nolint:gosec // G304: HEAD path is derived from the git directory
	content, err := os.ReadFile(r.headPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("ReadHead: %w", err)
	}

	line := strings.TrimSpace(string(content))
	if line == "" {
		return "", nil
	}

	hash, err := NewHash(line)
	if err != nil {
		return "", fmt.Errorf("ReadHead: invalid HEAD content: %w", err)
	}
	return hash, nil
}

// UpdateHead atomically rewrites HEAD to point at oid, via the lockfile
// protocol: acquire HEAD.lock, write the new oid, rename over HEAD. This is
// the only place a HEAD lock is taken for the whole commit flow — unlike
// the original reference implementation, which also constructed (and left
// unused) a second lock in its caller.
func (r *Refs) UpdateHead(oid Hash) error {
	lock := NewLockfile(r.headPath())
	if err := lock.Hold(); err != nil {
		return fmt.Errorf("UpdateHead: %w", err)
	}

	if err := lock.Write([]byte(string(oid) + "\n")); err != nil {
		_ = lock.Rollback()
		return fmt.Errorf("UpdateHead: %w", err)
	}

	if err := lock.Commit(); err != nil {
		return fmt.Errorf("UpdateHead: %w", err)
	}
	return nil
}
