package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lussier/jitgo/internal/gitcore"
	"github.com/lussier/jitgo/internal/progress"
)

func runAdd(repo *gitcore.Repository, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: jitgo add <path>...")
		return 1
	}

	workspace := gitcore.NewWorkspace(repo.WorkDir(), repo.GitDir())

	idx, err := gitcore.LoadIndexForUpdate(repo.GitDir())
	if err != nil {
		if errors.Is(err, gitcore.ErrLockBusy) {
			fmt.Fprintf(os.Stderr, "fatal: unable to create %s: another process seems to be running in this repository.\nIf it crashed earlier, remove the lock file manually and retry.\n",
				filepath.Join(repo.GitDir(), "index.lock"))
			return 128
		}
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	spinner := progress.New("scanning working tree")
	spinner.Start()
	var files []string
	for _, path := range args {
		matched, err := workspace.ListFiles(path)
		if err != nil {
			spinner.Stop()
			fmt.Fprintf(os.Stderr, "fatal: pathspec %q did not match any files: %v\n", path, err)
			return 128
		}
		files = append(files, matched...)
	}
	spinner.Stop()

	for _, relPath := range files {
		if err := stageFile(repo, workspace, idx, relPath); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			return 128
		}
	}

	if err := idx.WriteUpdates(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}

	return 0
}

func stageFile(repo *gitcore.Repository, workspace *gitcore.Workspace, idx *gitcore.Index, relPath string) error {
	data, err := workspace.ReadFile(relPath)
	if err != nil {
		return err
	}

	oid, err := repo.Database.Store("blob", data)
	if err != nil {
		return fmt.Errorf("storing blob for %s: %w", relPath, err)
	}

	info, err := workspace.StatFile(relPath)
	if err != nil {
		return err
	}

	idx.Add(gitcore.NewIndexEntryFromStat(relPath, oid, info))
	return nil
}
