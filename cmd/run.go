package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newRunCmd creates the 'run' subcommand, which executes a single digest
// pass and exits.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Runs one digest pass and exits",
		Long: `Fetches every configured feed once, filters out already-sent entries,
enriches and classifies the remainder, writes the digest pages, and sends
the webhook notification if one is configured.`,
		RunE: runRunCommand,
	}
}

func runRunCommand(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	published, err := a.BuildPipeline().RunOnce(cmd.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	a.Logger.Info("run finished", zap.Int("published", published))
	return nil
}
