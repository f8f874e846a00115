package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jobmate/digest-service/internal/config"
	"jobmate/digest-service/internal/report"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the digest once and print the ranked jobs",
	Long:  "Runs the full digest cycle once for one profile, or for every profile when --profile is not given, then prints a summary table.",
	RunE:  runOnce,
}

var (
	runProfile string
	runShow    int
)

func init() {
	runCommand.Flags().StringVarP(&runProfile, "profile", "p", "", "Profile id to run (default: every profile)")
	runCommand.Flags().IntVarP(&runShow, "show", "n", 20, "Rows to print per profile (0 prints all)")
	rootCmd.AddCommand(runCommand)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	profiles := a.profiles
	if runProfile != "" {
		p, ok := config.FindProfile(a.profiles, runProfile)
		if !ok {
			return fmt.Errorf("unknown profile %q", runProfile)
		}
		profiles = []config.Profile{p}
	}

	out := cmd.OutOrStdout()
	for _, p := range profiles {
		d, err := a.worker.Run(ctx, p)
		if err != nil {
			return fmt.Errorf("profile %s: %w", p.ID, err)
		}

		fmt.Fprintf(out, "\n%s: %d collected, %d accepted, %d notified\n",
			p.Name, d.Stats.Collected, d.Stats.Accepted, d.Stats.Notified)
		if err := report.WriteTable(out, d.Jobs, runShow); err != nil {
			return err
		}
		if d.HTMLPath != "" {
			fmt.Fprintf(out, "CSV:  %s\nHTML: %s\n", d.CSVPath, d.HTMLPath)
		}
	}
	return nil
}

var validateCommand = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a search profile file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := os.Getenv("SEARCH_CONFIG")
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			path = "configs/search.yaml"
		}

		profiles, err := config.LoadProfiles(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range profiles {
			fmt.Fprintf(out, "ok  %-24s %d job types × %d locations, %d feeds, top %d\n",
				p.ID, len(p.JobTypes), len(p.Locations), len(p.Feeds), p.Criteria.TopN)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCommand)
}
