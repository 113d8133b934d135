package main

import (
	"context"

	"github.com/spf13/cobra"

	"regintel/internal/app"
	"regintel/internal/config"
	"regintel/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP trigger server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg := config.Load()
		logger := logging.New(cfg.Logging.Level)

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Serve(ctx)
	},
}
