package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/watch"
)

// newWatchCmd creates the 'watch' subcommand, the long-running poll loop.
func newWatchCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Polls the feeds on a schedule until interrupted",
		Long: `Runs the digest pipeline on the configured interval, or once per day at
a fixed local time when --at is given. Each round is independent: a failed
round is logged and the loop continues. Stop the loop with SIGINT or
SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatchCommand(cmd, at)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "run once daily at this local time (HH:MM) instead of the interval")
	return cmd
}

func runWatchCommand(cmd *cobra.Command, at string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var w *watch.Watcher
	if at != "" {
		hour, minute, err := watch.ParseClock(at)
		if err != nil {
			return err
		}
		w = watch.NewDaily(a.BuildPipeline(), a.BuildNotifier(), hour, minute, a.Logger)
	} else {
		w = watch.New(a.BuildPipeline(), a.BuildNotifier(), a.Cfg.WatchInterval(), a.Logger)
	}

	if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
