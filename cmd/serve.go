package cmd

import (
	"github.com/spf13/cobra"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/server"
)

// newServeCmd creates the 'serve' subcommand, hosting the generated digest
// pages with health and metrics endpoints.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serves the generated digest pages over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(a.Cfg.Server.Port, a.Cfg.Output.DocsDir, a.Logger)
			return srv.Run(cmd.Context())
		},
	}
}
