// Package main runs table operations against a local sqlite store.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	entrypoint "github.com/louisbranch/darkforge/internal/platform/cmd"
	"github.com/louisbranch/darkforge/internal/platform/config"

	tablecmd "github.com/louisbranch/darkforge/internal/cmd/table"
)

func main() {
	cfg, err := tablecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %s", entrypoint.ErrorMessage(err, ""))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tablecmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %s", entrypoint.ErrorMessage(err, cfg.Locale))
	}
}
