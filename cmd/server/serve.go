package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"collabforge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the REST API and the realtime chat endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := server.Init(cfg)
		if err != nil {
			return err
		}
		return s.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
