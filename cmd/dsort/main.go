package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/exascience/dsort/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cli.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error running dsort:", err)
		stop()
		os.Exit(1)
	}
}
