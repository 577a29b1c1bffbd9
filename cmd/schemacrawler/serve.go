package main

import (
	"os"

	"github.com/spf13/cobra"

	"schemacrawler/internal/logging"
	"schemacrawler/internal/server"
)

func newServeCommand(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run crawls as HTTP tasks, streaming progress over a websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger(opts.logLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			progress := logging.NewProgress(cmd.ErrOrStderr(), opts.quiet)
			progress.Step("🚀", "schemacrawler server listening on %s", addr)
			return server.New(cmd.Context(), logger).ListenAndServe(cmd.Context(), addr)
		},
	}

	defaultAddr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		defaultAddr = ":" + port
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	return cmd
}
