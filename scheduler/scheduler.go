// Package scheduler drives a decommission run end to end: snapshot,
// classification, phase planning, fanout execution with barriers, and the
// final residue check. All state lives in the journal; the scheduler can
// be killed at any point and re-run.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/sundownlabs/teardown/classify"
	"github.com/sundownlabs/teardown/config"
	"github.com/sundownlabs/teardown/fanout"
	"github.com/sundownlabs/teardown/journal"
	"github.com/sundownlabs/teardown/plan"
	"github.com/sundownlabs/teardown/providers"
	"github.com/sundownlabs/teardown/telemetry"
	"github.com/sundownlabs/teardown/types"
)

// PlanningError is fatal: the run must not proceed to destruction when the
// snapshot or the plan itself cannot be trusted.
type PlanningError struct {
	Stage string
	Err   error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning failed during %s: %v", e.Stage, e.Err)
}

func (e *PlanningError) Unwrap() error { return e.Err }

// Verifier recounts what the run should have removed. Attached optionally;
// verification failures warn, they never fail the run.
type Verifier interface {
	Verify(ctx context.Context, account types.Account) (map[types.ResourceType]int, error)
}

// Scheduler owns the run state machine. One scheduler per run.
type Scheduler struct {
	cfg        *config.Config
	provider   providers.Provider
	classifier *classify.Classifier
	planner    *plan.Planner
	pool       *fanout.Pool
	journal    *journal.Journal
	verifier   Verifier
	logger     *telemetry.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithVerifier attaches the post-run residue check.
func WithVerifier(v Verifier) Option {
	return func(s *Scheduler) { s.verifier = v }
}

// WithSleep replaces the barrier sleep. Tests use this to skip real delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scheduler) { s.sleep = fn }
}

// New wires a scheduler from its collaborators.
func New(cfg *config.Config, provider providers.Provider, classifier *classify.Classifier,
	executor fanout.Executor, jnl *journal.Journal, opts ...Option) *Scheduler {

	s := &Scheduler{
		cfg:        cfg,
		provider:   provider,
		classifier: classifier,
		planner:    plan.NewPlanner(cfg.Execution.BarrierDelay),
		pool:       fanout.NewPool(cfg.Execution.Concurrency, executor, jnl),
		journal:    jnl,
		logger:     telemetry.NewLogger("scheduler"),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the full decommission for one account and returns the
// journal-derived summary. Planning errors abort before any deletion;
// execution errors are absorbed into attempt records.
func (s *Scheduler) Run(ctx context.Context, account types.Account) (types.RunSummary, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "scheduler.run")
	defer span.End()

	log := s.logger.WithContext(ctx)

	if account.Restricted || s.cfg.Restricted(account.Profile) {
		log.Warn().
			Str("account_id", account.ID).
			Str("profile", account.Profile).
			Msg("account is policy-restricted, skipping run")
		_ = s.journal.Note(journal.EntryRunSkipped, account.ID, map[string]string{
			"profile": account.Profile,
			"reason":  "service control policy restriction",
		})
		return s.journal.Summary(account.ID), nil
	}

	snapshot, err := s.provider.Snapshot(ctx, account)
	if err != nil {
		return types.RunSummary{}, &PlanningError{Stage: "inventory", Err: err}
	}
	log.Info().Int("resources", len(snapshot)).Msg("inventory snapshot complete")

	decisions := s.classifier.ClassifyAll(ctx, snapshot, s.provider)
	preserved, deletable := types.SplitDecisions(decisions)

	for _, d := range decisions {
		_ = s.journal.Note(journal.EntryClassified, d.Resource.ID, d)
	}

	// Preserved resources settle immediately as Skipped so the journal
	// carries the complete account picture, not just the delete-set.
	now := time.Now()
	for _, d := range preserved {
		if err := s.journal.Append(types.Attempt{
			Resource:  d.Resource,
			Phase:     0,
			Status:    types.StatusSkipped,
			Reason:    d.Reason,
			StartedAt: now,
			EndedAt:   now,
		}); err != nil {
			return types.RunSummary{}, fmt.Errorf("failed to record preservation: %w", err)
		}
	}

	deleteSet := make([]types.ResourceRecord, 0, len(deletable))
	for _, d := range deletable {
		deleteSet = append(deleteSet, d.Resource)
	}

	p, err := s.planner.Plan(deleteSet)
	if err != nil {
		return types.RunSummary{}, &PlanningError{Stage: "phase planning", Err: err}
	}

	for _, phase := range p.Phases {
		if err := s.runPhase(ctx, phase); err != nil {
			return s.journal.Summary(account.ID), err
		}
	}

	s.verify(ctx, account)

	return s.journal.Summary(account.ID), nil
}

// runPhase executes one phase: prune settled work, fan out the rest, then
// hold at the barrier for remote state to converge.
func (s *Scheduler) runPhase(ctx context.Context, phase plan.Phase) error {
	pending := s.prune(phase)
	s.logger.LogPhaseStart(ctx, phase.Index, len(pending))
	_ = s.journal.Note(journal.EntryPhaseStarted, "", map[string]int{
		"phase":     phase.Index,
		"resources": len(pending),
		"settled":   len(phase.Resources) - len(pending),
	})

	if len(pending) > 0 {
		phaseCtx, cancel := context.WithTimeout(ctx, s.cfg.Execution.PhaseTimeout)
		started := time.Now()

		attempts, err := s.pool.Run(phaseCtx, phase.Index, pending)
		cancel()

		counts := types.Summarize("", attempts).Totals
		s.logger.LogPhaseDone(ctx, phase.Index, counts)
		telemetry.RecordPhaseDuration(ctx, phase.Index, time.Since(started).Seconds())
		_ = s.journal.Note(journal.EntryPhaseComplete, "", counts)

		if err != nil {
			return fmt.Errorf("phase %d interrupted: %w", phase.Index, err)
		}
	}

	if phase.Barrier > 0 {
		s.logger.LogBarrier(ctx, phase.Index, phase.Barrier.String())
		_ = s.journal.Note(journal.EntryBarrier, "", map[string]string{
			"after_phase": fmt.Sprintf("%d", phase.Index),
			"delay":       phase.Barrier.String(),
		})
		if err := s.sleep(ctx, phase.Barrier); err != nil {
			return fmt.Errorf("barrier after phase %d interrupted: %w", phase.Index, err)
		}
	}

	return nil
}

// prune drops resources a prior run already settled in this phase.
func (s *Scheduler) prune(phase plan.Phase) []types.ResourceRecord {
	pending := make([]types.ResourceRecord, 0, len(phase.Resources))
	for _, r := range phase.Resources {
		if s.journal.Settled(r, phase.Index) {
			continue
		}
		pending = append(pending, r)
	}
	return pending
}

// verify recounts residue after the final phase. Residue is reported, not
// retried: the next run picks it up.
func (s *Scheduler) verify(ctx context.Context, account types.Account) {
	if s.verifier == nil {
		return
	}

	residue, err := s.verifier.Verify(ctx, account)
	if err != nil {
		s.logger.WithContext(ctx).Warn().Err(err).Msg("residue verification failed")
		_ = s.journal.NoteError(journal.EntryVerified, account.ID, nil, err)
		return
	}

	total := 0
	for typ, count := range residue {
		total += count
		telemetry.RecordResidue(ctx, string(typ), count)
	}
	if total > 0 {
		s.logger.WithContext(ctx).Warn().
			Interface("residue", residue).
			Msg("resources remain after run, re-run to converge")
	}
	_ = s.journal.Note(journal.EntryVerified, account.ID, residue)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
