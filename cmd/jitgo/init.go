package main

import (
	"fmt"
	"os"

	"github.com/lussier/jitgo/internal/gitcore"
)

func runInit(args []string) int {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	repo, err := gitcore.InitRepository(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	fmt.Printf("Initialized empty jitgo repository in %s\n", repo.GitDir())
	return 0
}
