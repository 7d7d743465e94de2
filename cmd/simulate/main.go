// Package main prints simulated and exact action roll odds.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	entrypoint "github.com/louisbranch/darkforge/internal/platform/cmd"
	"github.com/louisbranch/darkforge/internal/platform/config"

	simulatecmd "github.com/louisbranch/darkforge/internal/cmd/simulate"
)

func main() {
	cfg, err := simulatecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %s", entrypoint.ErrorMessage(err, ""))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := simulatecmd.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("Error: %s", entrypoint.ErrorMessage(err, cfg.Locale))
	}
}
