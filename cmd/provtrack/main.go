// Command provtrack searches and inspects recorded runs.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/roach88/provtrack/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		cli.ReportError(os.Stderr, err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
