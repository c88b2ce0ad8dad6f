package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fr0stylo/ingestq/internal/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ingestctl:", err)
		os.Exit(1)
	}
}
