package gitcore

import "fmt"

// CreateCommit builds a tree from the index's current entries, stores it and
// a new commit object pointing at HEAD's current commit (if any) as its
// parent, and advances HEAD to the new commit. author is used as both the
// commit's author and committer, matching this engine's single-identity
// commit model.
//
// It returns the new commit and whether it is the repository's first commit
// (HEAD was previously empty) — callers use this to print "(root-commit)".
func CreateCommit(repo *Repository, idx *Index, message string, author Signature) (*Commit, bool, error) {
	root, err := BuildTree(idx.Entries())
	if err != nil {
		return nil, false, fmt.Errorf("CreateCommit: %w", err)
	}

	treeOid, err := WriteTree(root, repo.Database)
	if err != nil {
		return nil, false, fmt.Errorf("CreateCommit: writing tree: %w", err)
	}

	parent, err := repo.Refs.ReadHead()
	if err != nil {
		return nil, false, fmt.Errorf("CreateCommit: %w", err)
	}

	commit := &Commit{
		Tree:      treeOid,
		Author:    author,
		Committer: author,
		Message:   message,
	}
	if parent != "" {
		commit.Parents = []Hash{parent}
	}

	oid, err := repo.Database.Store(objectTypeCommit, commit.Bytes())
	if err != nil {
		return nil, false, fmt.Errorf("CreateCommit: storing commit: %w", err)
	}
	commit.ID = oid

	if err := repo.Refs.UpdateHead(oid); err != nil {
		return nil, false, fmt.Errorf("CreateCommit: %w", err)
	}

	return commit, parent == "", nil
}
