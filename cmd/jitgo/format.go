package main

import (
	"fmt"

	"github.com/lussier/jitgo/internal/gitcore"
)

// normalizeMode pads a tree-entry mode out to the six digits `git cat-file -p`
// prints. Tree objects store directory modes as "40000" without the leading
// zero; everything else is already six digits.
func normalizeMode(mode string) string {
	if len(mode) == 5 {
		return "0" + mode
	}
	return mode
}

// resolveHash resolves a revision string to a full object id.
// Supports "HEAD", a full 40-character hash, or a short prefix (>=4 chars) —
// there are no branches or tags to resolve against in this engine's refs model.
func resolveHash(repo *gitcore.Repository, rev string) (gitcore.Hash, error) {
	if rev == "HEAD" {
		h, err := repo.Refs.ReadHead()
		if err != nil {
			return "", err
		}
		if h == "" {
			return "", fmt.Errorf("HEAD is not set")
		}
		return h, nil
	}

	if len(rev) == 40 {
		if hash, err := gitcore.NewHash(rev); err == nil {
			return hash, nil
		}
	}

	return repo.Database.ResolvePrefix(rev)
}
