package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/milam/VodParser/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vodscan: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode separates "another scan owns this directory" and lost output
// from ordinary failures so wrapper scripts can retry the right cases.
func exitCode(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrLocked):
		return 3
	case errors.Is(err, pipeline.ErrPersistence):
		return 4
	default:
		return 1
	}
}
