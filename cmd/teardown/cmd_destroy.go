package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sundownlabs/teardown/destroy"
	"github.com/sundownlabs/teardown/journal"
	"github.com/sundownlabs/teardown/scheduler"
	"github.com/sundownlabs/teardown/telemetry"
	"github.com/sundownlabs/teardown/types"
	"github.com/sundownlabs/teardown/verify"
)

var (
	destroyYes          bool
	destroyDryRun       bool
	destroyMetricsAddr  string
	destroyOTELEndpoint string
)

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Execute the decommission run",
	Long: `Run the full decommission: snapshot, classify, destroy in
dependency-ordered phases, and verify the residue.

Every attempt lands in the journal before the next resource starts, so
the run can be interrupted and resumed at any point. Re-running after
failures retries only what did not settle.`,
	Example: `  teardown destroy --dry-run    # Simulate, journal what would happen
  teardown destroy --yes        # The real thing`,
	RunE: runDestroy,
}

func init() {
	rootCmd.AddCommand(destroyCmd)

	destroyCmd.Flags().BoolVar(&destroyYes, "yes", false, "Confirm destructive execution")
	destroyCmd.Flags().BoolVar(&destroyDryRun, "dry-run", false, "Simulate every delete, overriding the config")
	destroyCmd.Flags().StringVar(&destroyMetricsAddr, "metrics", ":2112", "Metrics HTTP server address")
	destroyCmd.Flags().StringVar(&destroyOTELEndpoint, "otel-endpoint", "", "OTLP gRPC endpoint for traces and metrics")
}

func runDestroy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, provider, classifier, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	if destroyDryRun {
		cfg.DryRun = true
	}
	if !cfg.DryRun && !destroyYes {
		return fmt.Errorf("refusing to destroy account %s without --yes (or use --dry-run)", cfg.AccountID)
	}

	shutdown, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:    "teardown",
		ServiceVersion: version,
		OTELEndpoint:   destroyOTELEndpoint,
		Insecure:       destroyOTELEndpoint != "",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	jnl, err := journal.Open(cfg.JournalDir)
	if err != nil {
		return err
	}
	defer func() { _ = jnl.Close() }()

	unit := destroy.NewUnit(provider,
		destroy.WithDryRun(cfg.DryRun),
		destroy.WithMaxAttempts(cfg.Execution.MaxAttempts),
		destroy.WithCallTimeout(cfg.Execution.CallTimeout),
	)
	verifier := verify.New(provider, provider, classifier)
	sched := scheduler.New(cfg, provider, classifier, unit, jnl,
		scheduler.WithVerifier(verifier),
	)

	account := types.Account{ID: cfg.AccountID, Profile: cfg.Profile}

	var (
		g       run.Group
		summary types.RunSummary
	)

	runCtx, cancelRun := context.WithCancel(ctx)
	g.Add(func() error {
		var err error
		summary, err = sched.Run(runCtx, account)
		return err
	}, func(error) {
		cancelRun()
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(telemetry.PrometheusRegistry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: destroyMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	g.Add(func() error {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	})

	g.Add(run.SignalHandler(ctx, interruptSignals()...))

	if err := g.Run(); err != nil {
		var signalErr run.SignalError
		if !errors.As(err, &signalErr) {
			return err
		}
		fmt.Println("\nInterrupted; the journal holds all settled work. Re-run to resume.")
	}

	printSummary(summary)
	if !summary.Clean() {
		return fmt.Errorf("run finished with unresolved resources; re-run to converge")
	}
	return nil
}

func interruptSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

func printSummary(s types.RunSummary) {
	fmt.Printf("\nRun summary for account %s\n", s.AccountID)
	fmt.Printf("  deleted:   %d\n", s.Totals.Deleted)
	fmt.Printf("  simulated: %d\n", s.Totals.Simulated)
	fmt.Printf("  preserved: %d\n", s.Totals.Preserved)
	fmt.Printf("  failed:    %d\n", s.Totals.Failed)
	fmt.Printf("  timed out: %d\n", s.Totals.TimedOut)
	fmt.Printf("  pending:   %d\n", s.Totals.Pending)

	if len(s.ByRegion) > 0 {
		fmt.Println("\nBy region:")
		for region, counts := range s.ByRegion {
			fmt.Printf("  %-16s deleted=%d preserved=%d failed=%d\n",
				region, counts.Deleted+counts.Simulated, counts.Preserved, counts.Failed+counts.TimedOut)
		}
	}
}
