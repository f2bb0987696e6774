package gitcore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Workspace enumerates and reads the files under a repository's working
// directory that `add` and `status` operate on, honoring .gitignore and
// .git/info/exclude the same way the untracked-file scan in status.go does.
type Workspace struct {
	root   string
	ignore *ignoreRules
}

// NewWorkspace returns a Workspace rooted at workDir, scoped by gitDir's
// ignore rules.
func NewWorkspace(workDir, gitDir string) *Workspace {
	return &Workspace{root: workDir, ignore: loadIgnoreRules(workDir, gitDir)}
}

// ListFiles expands path (a file or a directory, given relative to the
// working directory root or as an absolute path beneath it) into the sorted
// list of tracked-candidate file paths it names, relative to the working
// directory root and slash-separated. Directories are walked recursively;
// ignored paths (.git, .gitignore rules) are excluded.
func (w *Workspace) ListFiles(path string) ([]string, error) {
	absPath := path
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(w.root, path)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("Workspace.ListFiles: %w", err)
	}

	var files []string
	if info.IsDir() {
		rel, err := w.relPath(absPath)
		if err != nil {
			return nil, err
		}
		if rel != "." {
			// The walk below starts inside the target, so .gitignore files
			// between the root and the target have to be loaded here.
			prefix := ""
			for _, part := range strings.Split(rel, "/") {
				prefix += part + "/"
				w.ignore.addDir(w.root, prefix)
			}
		}
		if err := w.walkDir(absPath, &files); err != nil {
			return nil, fmt.Errorf("Workspace.ListFiles: %w", err)
		}
	} else {
		rel, err := w.relPath(absPath)
		if err != nil {
			return nil, err
		}
		if !w.ignore.ignores(rel, false) {
			files = append(files, rel)
		}
	}

	sort.Strings(files)
	return files, nil
}

// walkDir appends every non-ignored regular file beneath dir to files.
func (w *Workspace) walkDir(dir string, files *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		fullPath := filepath.Join(dir, entry.Name())

		rel, err := w.relPath(fullPath)
		if err != nil {
			return err
		}

		if w.ignore.ignores(rel, entry.IsDir()) {
			continue
		}

		if entry.IsDir() {
			// A nested .gitignore scopes its rules to this directory.
			w.ignore.addDir(w.root, rel+"/")
			if err := w.walkDir(fullPath, files); err != nil {
				return err
			}
			continue
		}

		*files = append(*files, rel)
	}
	return nil
}

// relPath converts an absolute path beneath the working directory into a
// slash-separated path relative to its root.
func (w *Workspace) relPath(absPath string) (string, error) {
	rel, err := filepath.Rel(w.root, absPath)
	if err != nil {
		return "", fmt.Errorf("relativizing %s: %w", absPath, err)
	}
	return filepath.ToSlash(rel), nil
}

// ReadFile reads the content of the file at relPath (relative to the
// working directory root).
func (w *Workspace) ReadFile(relPath string) ([]byte, error) {
	//nolint:gosec // G304: relPath is produced by ListFiles, scoped to the working directory
	data, err := os.ReadFile(filepath.Join(w.root, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, fmt.Errorf("Workspace.ReadFile: %w", err)
	}
	return data, nil
}

// StatFile returns the filesystem metadata for the file at relPath.
func (w *Workspace) StatFile(relPath string) (os.FileInfo, error) {
	info, err := os.Stat(filepath.Join(w.root, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, fmt.Errorf("Workspace.StatFile: %w", err)
	}
	return info, nil
}
