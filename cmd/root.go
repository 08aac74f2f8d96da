// Package cmd defines the CLI commands for the rssdigest executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/app"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rssdigest",
		Short: "Fetches, classifies, and publishes a daily RSS digest.",
		Long: `rssdigest polls a configurable set of RSS and Atom feeds, enriches
new entries with full page text, classifies and summarizes them through a
chat-completions model, and publishes the result as HTML and Markdown
digests with an optional WeCom push notification.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (settable via RSSDIGEST_* environment variables)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildApp loads the application from the --config flag.
func buildApp() (*app.App, error) {
	a, err := app.New(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("initialize application: %w", err)
	}
	return a, nil
}
