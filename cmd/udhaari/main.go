// Command udhaari is the terminal client: sign in, manage groups and
// expenses, settle up and browse your spending.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/xNORAGAMIx/udhaari/internal/app"
	"github.com/xNORAGAMIx/udhaari/internal/config"
	"github.com/xNORAGAMIx/udhaari/pkg/logging"
)

func main() {
	registry := newRegistry()

	// Global flags come before the command name.
	fs := flag.NewFlagSet("udhaari", flag.ExitOnError)
	fs.Usage = func() {
		registry.PrintHelp(os.Stderr)
		fmt.Fprintln(os.Stderr, "\nGLOBAL FLAGS:")
		fs.PrintDefaults()
	}
	cfg, args, err := config.LoadWithFlags(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if len(args) == 0 {
		registry.PrintHelp(os.Stdout)
		os.Exit(2)
	}
	// Command output owns stdout, and info logs would only repeat it.
	level := logging.ParseLevel(cfg.LogLevel)
	if level == slog.LevelInfo {
		level = slog.LevelWarn
	}
	logging.SetupWithLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.Open(ctx, cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	c := newCLI(a, registry, os.Stdout, os.Stderr, bufio.NewReader(os.Stdin))
	err = registry.Execute(ctx, c, args)
	c.close()
	if cerr := a.Close(); cerr != nil {
		slog.Warn("Failed to close state", "error", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
