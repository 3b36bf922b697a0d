package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sundownlabs/teardown/types"
	"github.com/sundownlabs/teardown/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Recount the account and report deletable residue",
	Long: `Take a fresh snapshot, reclassify it with the same preservation
rules, and report what a destroy run should have removed but did not.
Residue is informational; re-running destroy converges on it.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, provider, classifier, err := loadRuntime(ctx)
	if err != nil {
		return err
	}

	verifier := verify.New(provider, provider, classifier)
	residue, err := verifier.Verify(ctx, types.Account{ID: cfg.AccountID, Profile: cfg.Profile})
	if err != nil {
		return err
	}

	total := 0
	for _, count := range residue {
		total += count
	}
	if total == 0 {
		fmt.Printf("Account %s is clean: no deletable residue.\n", cfg.AccountID)
		return nil
	}

	fmt.Printf("Account %s still holds %d deletable resources:\n", cfg.AccountID, total)
	for typ, count := range residue {
		fmt.Printf("  %-24s %d\n", typ, count)
	}
	return nil
}
