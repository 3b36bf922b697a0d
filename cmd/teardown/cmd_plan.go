package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sundownlabs/teardown/plan"
	"github.com/sundownlabs/teardown/types"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a run would destroy and what it would preserve",
	Long: `Snapshot the account, classify every resource, and print the
phase-ordered destruction plan without touching anything.`,
	Example: `  teardown plan                        # Plan with ./teardown.yaml
  teardown plan -c accounts/legacy.yaml`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, provider, classifier, err := loadRuntime(ctx)
	if err != nil {
		return err
	}

	account := types.Account{ID: cfg.AccountID, Profile: cfg.Profile}
	if cfg.Restricted(cfg.Profile) {
		fmt.Printf("Account %s is policy-restricted; nothing would run.\n", cfg.AccountID)
		return nil
	}

	snapshot, err := provider.Snapshot(ctx, account)
	if err != nil {
		return fmt.Errorf("inventory failed: %w", err)
	}

	decisions := classifier.ClassifyAll(ctx, snapshot, provider)
	preserved, deletable := types.SplitDecisions(decisions)

	fmt.Printf("Account %s: %d resources, %d preserved, %d to destroy\n\n",
		cfg.AccountID, len(snapshot), len(preserved), len(deletable))

	fmt.Println("PRESERVED")
	for _, d := range preserved {
		fmt.Printf("  %-22s %-40s %s\n", d.Resource.Type, d.Resource.DisplayName(), d.Reason)
	}

	deleteSet := make([]types.ResourceRecord, 0, len(deletable))
	for _, d := range deletable {
		deleteSet = append(deleteSet, d.Resource)
	}

	p, err := plan.NewPlanner(cfg.Execution.BarrierDelay).Plan(deleteSet)
	if err != nil {
		return err
	}

	for _, phase := range p.Phases {
		fmt.Printf("\nPHASE %d (%d resources)\n", phase.Index, len(phase.Resources))
		for _, r := range phase.Resources {
			region := r.Region
			if region == "" {
				region = "global"
			}
			fmt.Printf("  %-22s %-14s %s\n", r.Type, region, r.DisplayName())
		}
	}

	return nil
}
