package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"regintel/internal/app"
	"regintel/internal/config"
	"regintel/internal/logging"
	"regintel/internal/usecase"
)

var (
	pollState    string
	pollFullScan bool
)

var pollCmd = &cobra.Command{
	Use:   "poll <domain>",
	Short: "Run one poller invocation from the CLI",
	Long: "Runs the same pipeline the HTTP trigger runs, once, and prints the\n" +
		"run summary as JSON. Domains: cannabis_hemp, kratom, kava, caselaw.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg := config.Load()
		logger := logging.New(cfg.Logging.Level)

		if cfg.Database.Role != config.ServiceRole {
			return fmt.Errorf("service-role database credential required (configured role: %q)", cfg.Database.Role)
		}

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		summary, err := application.RunOnce(ctx, args[0], usecase.RunRequest{
			StateCode: pollState,
			FullScan:  pollFullScan,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	pollCmd.Flags().StringVar(&pollState, "state", "", "narrow the run to one jurisdiction code")
	pollCmd.Flags().BoolVar(&pollFullScan, "full-scan", false, "re-classify and re-write previously seen items")
}
