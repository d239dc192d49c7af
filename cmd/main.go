package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var errMaskingIncomplete = errors.New("masking incomplete")

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Trap interrupts so an in-flight fetch can close the browser.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Optional .env for local runs; real environment variables win.
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errMaskingIncomplete) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "page-stealth",
		Short:         "Mask automation fingerprints in browser pages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "./config.yaml", "config file (optional)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "json", "log encoding: json or console")

	root.AddCommand(
		newScriptCmd(),
		newFetchCmd(opts),
		newCheckCmd(opts),
	)
	return root
}
