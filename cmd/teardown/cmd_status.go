package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sundownlabs/teardown/config"
	"github.com/sundownlabs/teardown/journal"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the journal of the current decommission",
	Long: `Project the journal into per-type and per-region counts: what has
been deleted, what was preserved, and what a re-run would still attempt.`,
	Example: `  teardown status
  teardown status --json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Emit the summary as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	jnl, err := journal.Open(cfg.JournalDir)
	if err != nil {
		return err
	}
	defer func() { _ = jnl.Close() }()

	summary := jnl.Summary(cfg.AccountID)

	if statusJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	}

	printSummary(summary)

	if len(summary.ByType) > 0 {
		fmt.Println("\nBy type:")
		for typ, counts := range summary.ByType {
			fmt.Printf("  %-24s deleted=%d preserved=%d failed=%d timed_out=%d\n",
				typ, counts.Deleted+counts.Simulated, counts.Preserved, counts.Failed, counts.TimedOut)
		}
	}
	return nil
}
