// Command etl imports restaurant spreadsheets from the command line.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/restaurant-etl/internal/core"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// printError reports a command failure. Per-file failures were already
// printed by the command itself.
func printError(w io.Writer, err error) {
	if errors.Is(err, errRunFailed) {
		return
	}
	if core.IsUserFacing(err) {
		errStyle.Fprintln(w, core.FormatUserError(err))
		return
	}
	errStyle.Fprintf(w, "error: %v\n", err)
}
