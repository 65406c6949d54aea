package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harunnryd/kabu/internal/config"
	"github.com/harunnryd/kabu/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stock tools over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		components, err := buildRuntime(cfg)
		if err != nil {
			return err
		}

		srv, err := server.New(cfg.Server, components.registry, components.dispatch, components.summarizer)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("server.port", config.DefaultServerPort, "HTTP listen port")
}
