package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "regintel",
	Short: "Regulatory-intelligence ingestion service",
	Long: "regintel aggregates cannabis, hemp, kratom, kava, and caselaw regulatory\n" +
		"content from state and federal sources into a shared instrument table.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the regintel version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, pollCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
