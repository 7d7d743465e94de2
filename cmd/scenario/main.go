// Package main runs Lua scenario scripts against the rules core.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	entrypoint "github.com/louisbranch/darkforge/internal/platform/cmd"
	"github.com/louisbranch/darkforge/internal/platform/config"

	scenariocmd "github.com/louisbranch/darkforge/internal/cmd/scenario"
)

func main() {
	cfg, err := scenariocmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %s", entrypoint.ErrorMessage(err, ""))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scenariocmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %s", entrypoint.ErrorMessage(err, cfg.Locale))
	}
}
