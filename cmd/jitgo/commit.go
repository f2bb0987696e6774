package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lussier/jitgo/internal/gitcore"
)

func runCommit(repo *gitcore.Repository, args []string) int {
	name := os.Getenv("GIT_AUTHOR_NAME")
	email := os.Getenv("GIT_AUTHOR_EMAIL")
	if name == "" || email == "" {
		fmt.Fprintln(os.Stderr, "fatal: GIT_AUTHOR_NAME and GIT_AUTHOR_EMAIL must be set")
		return 128
	}

	messageBytes, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: reading commit message: %v\n", err)
		return 128
	}
	message := string(messageBytes)
	if strings.TrimSpace(message) == "" {
		fmt.Fprintln(os.Stderr, "Aborting commit due to empty commit message.")
		return 1
	}

	idx, err := gitcore.ReadIndex(repo.GitDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	author := gitcore.Signature{Name: name, Email: email, When: time.Now()}
	if err := gitcore.CanonicalizeAuthor(repo.WorkDir(), &author); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	commit, isRoot, err := gitcore.CreateCommit(repo, idx, message, author)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	rootLabel := ""
	if isRoot {
		rootLabel = "(root-commit) "
	}
	firstLine, _, _ := strings.Cut(message, "\n")
	fmt.Printf("[%s%s] %s\n", rootLabel, commit.ID, firstLine)

	return 0
}
