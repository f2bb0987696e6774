package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Repository ties together the three pieces that make up a working checkout:
// the object database, the staging index's location, and HEAD. It holds no
// cached state of its own — every read goes straight to disk, since this
// engine never needs to serve more than one command invocation at a time.
type Repository struct {
	gitDir  string
	workDir string

	Database *Database
	Refs     *Refs
}

// InitRepository creates a new Git directory layout at path/.git (objects/
// and refs/ directories; HEAD is left absent until the first commit) and
// returns a Repository for it. If path/.git already exists, InitRepository
// reuses it rather than failing, matching `git init`'s re-run behavior.
func InitRepository(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("InitRepository: %w", err)
	}

	gitDir := filepath.Join(absPath, ".git")
	for _, dir := range []string{"objects", "refs"} {
		if err := os.MkdirAll(filepath.Join(gitDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("InitRepository: creating %s: %w", dir, err)
		}
	}

	return &Repository{
		gitDir:   gitDir,
		workDir:  absPath,
		Database: NewDatabase(gitDir),
		Refs:     NewRefs(gitDir),
	}, nil
}

// OpenRepository opens an existing Git repository starting from path, which
// can be the working directory or any directory beneath it.
func OpenRepository(path string) (*Repository, error) {
	gitDir, workDir, err := findGitDirectory(path)
	if err != nil {
		return nil, err
	}
	if err := validateGitDirectory(gitDir); err != nil {
		return nil, err
	}

	return &Repository{
		gitDir:   gitDir,
		workDir:  workDir,
		Database: NewDatabase(gitDir),
		Refs:     NewRefs(gitDir),
	}, nil
}

// Name returns the base name of the repository's working directory.
func (r *Repository) Name() string { return filepath.Base(r.workDir) }

// GitDir returns the path to the repository's .git directory.
func (r *Repository) GitDir() string { return r.gitDir }

// WorkDir returns the path to the repository's working directory.
func (r *Repository) WorkDir() string { return r.workDir }

// GetTree retrieves a Tree object by its hash.
func (r *Repository) GetTree(treeHash Hash) (*Tree, error) {
	return r.Database.ReadTree(treeHash)
}

// GetBlob retrieves raw blob data by its hash.
func (r *Repository) GetBlob(blobHash Hash) ([]byte, error) {
	blob, err := r.Database.ReadBlob(blobHash)
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

// GetCommit looks up a single commit by hash.
func (r *Repository) GetCommit(hash Hash) (*Commit, error) {
	return r.Database.ReadCommit(hash)
}

// GetObjectInfo returns the object type name and size in bytes for any object.
func (r *Repository) GetObjectInfo(hash Hash) (string, int, error) {
	return r.Database.ObjectInfo(hash)
}

// resolveTreeAtPath walks from rootTreeHash through a slash-separated dirPath
// (e.g., "internal/gitcore") and returns the tree at that location.
// Empty dirPath returns the root tree itself.
func (r *Repository) resolveTreeAtPath(rootTreeHash Hash, dirPath string) (*Tree, error) {
	if dirPath == "" || dirPath == "/" {
		return r.GetTree(rootTreeHash)
	}

	components := strings.Split(strings.Trim(dirPath, "/"), "/")
	currentTreeHash := rootTreeHash

	for _, component := range components {
		tree, err := r.GetTree(currentTreeHash)
		if err != nil {
			return nil, fmt.Errorf("failed to read tree %s: %w", currentTreeHash, err)
		}

		found := false
		for _, entry := range tree.Entries {
			if entry.Name == component {
				if entry.Mode != "040000" && entry.Type != "tree" {
					return nil, fmt.Errorf("path component %q is not a directory", component)
				}
				currentTreeHash = entry.ID
				found = true
				break
			}
		}

		if !found {
			return nil, fmt.Errorf("path component %q not found", component)
		}
	}

	return r.GetTree(currentTreeHash)
}

// findGitDirectory locates the repository's .git directory. startPath may be
// the .git directory itself (how GIT_DIR reaches us), the working directory,
// or any directory beneath it; the search walks up toward the filesystem
// root. Bare repositories and "gitdir:" pointer files are not recognized —
// this engine only ever creates and opens a plain .git directory.
func findGitDirectory(startPath string) (gitDir string, workDir string, err error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if filepath.Base(absPath) == ".git" {
		if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
			return absPath, filepath.Dir(absPath), nil
		}
	}

	currentPath := absPath
	for {
		gitPath := filepath.Join(currentPath, ".git")
		if info, statErr := os.Stat(gitPath); statErr == nil && info.IsDir() {
			return gitPath, currentPath, nil
		}

		parentPath := filepath.Dir(currentPath)
		if parentPath == currentPath {
			return "", "", fmt.Errorf("not a git repository (or any parent up to mount point): %s", startPath)
		}
		currentPath = parentPath
	}
}

// validateGitDirectory checks that gitDir exists, is a directory, and contains
// the expected Git internals (objects, refs).
func validateGitDirectory(gitDir string) error {
	info, err := os.Stat(gitDir)
	if err != nil {
		return fmt.Errorf("git directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("git path is not a directory: %s", gitDir)
	}

	requiredPaths := []string{"objects", "refs"}
	for _, required := range requiredPaths {
		path := filepath.Join(gitDir, required)
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("invalid git repository, missing: %s", required)
		}
	}

	return nil
}
