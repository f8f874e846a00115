// Package main is the entry point of the job digest service.
//
// The service searches job boards for every configured profile, normalizes,
// deduplicates, scores and ranks the postings, writes CSV and HTML reports,
// and sends the most recent new jobs to Telegram.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:     "digest-service",
	Short:   "Job digest service",
	Long:    "Collects job postings for saved search profiles, ranks them by relevance and freshness, and publishes a daily digest.",
	Version: version,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
