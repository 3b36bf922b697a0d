package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sundownlabs/teardown/classify"
	"github.com/sundownlabs/teardown/config"
	"github.com/sundownlabs/teardown/providers"
	_ "github.com/sundownlabs/teardown/providers/aws" // registers the aws factory
	"github.com/sundownlabs/teardown/types"
)

var (
	version    = "0.1.0"
	configPath string

	rootCmd = &cobra.Command{
		Use:   "teardown",
		Short: "Cloud account decommissioning engine",
		Long: `Teardown - Cloud Account Decommissioning Engine

Teardown empties a cloud account that is being retired: it snapshots
every resource, decides what must survive (landing zone scaffolding,
IAM, DNS, anything tagged for preservation), and destroys the rest in
dependency order. Every attempt is journaled, so an interrupted run
resumes where it stopped.`,
		Version: version,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Teardown {{.Version}} - Cloud Account Decommissioning Engine
`)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "teardown.yaml", "Path to decommission config")
}

// loadRuntime builds the shared collaborators every command needs:
// validated config, provider, and classifier with the optional policy
// overlay attached.
func loadRuntime(ctx context.Context) (*config.Config, providers.Provider, *classify.Classifier, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	account := types.Account{ID: cfg.AccountID, Profile: cfg.Profile}
	provider, err := providers.Get(ctx, "aws", account, cfg.Regions)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build provider: %w", err)
	}

	classifier := classify.New(cfg.Preserve.TagKey, cfg.Preserve.TagValue, cfg.Preserve.Patterns)
	if cfg.PolicyFile != "" {
		source, err := os.ReadFile(cfg.PolicyFile) // #nosec G304 -- path comes from the operator's config
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to read policy file: %w", err)
		}
		overlay, err := classify.NewOverlay(ctx, cfg.PolicyFile, string(source))
		if err != nil {
			return nil, nil, nil, err
		}
		classifier = classifier.WithOverlay(overlay)
	}

	return cfg, provider, classifier, nil
}
