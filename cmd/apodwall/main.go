package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/apodwall/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (optional, defaults to ~/.config/apodwall/config.toml)")
	once := flag.Bool("once", false, "run a single cycle and exit")
	tui := flag.Bool("tui", false, "show the terminal status view")
	flag.Parse()

	if *once && *tui {
		fmt.Fprintln(os.Stderr, "apodwall: -once and -tui cannot be combined")
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		Once:       *once,
		TUI:        *tui,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "apodwall: %v\n", err)
		return 1
	}
	return 0
}
