package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lussier/jitgo/internal/gitcore"
	"github.com/lussier/jitgo/internal/watch"
)

func runWatch(repo *gitcore.Repository, args []string) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := watch.Run(ctx, repo, logger, func(status *gitcore.WorkingTreeStatus) {
		if len(status.Files) == 0 {
			fmt.Println("clean")
			return
		}
		for _, f := range status.Files {
			fmt.Printf("%s\n", f.Path)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		return 128
	}
	return 0
}
