// Package destroy owns the single-resource destruction attempt: existence
// pre-check, blocker clearing, the delete call with bounded retry, and the
// terminal Attempt record.
package destroy

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/sundownlabs/teardown/providers"
	"github.com/sundownlabs/teardown/telemetry"
	"github.com/sundownlabs/teardown/types"
)

// Unit destroys one resource at a time. Units hold no per-resource state;
// a single Unit is shared across the fanout workers.
type Unit struct {
	catalogue   providers.Catalogue
	dryRun      bool
	maxAttempts uint
	callTimeout time.Duration
	interval    time.Duration
	logger      *telemetry.Logger
	now         func() time.Time
}

// Option configures a Unit.
type Option func(*Unit)

// WithDryRun makes every attempt a simulation: no primitive is invoked.
func WithDryRun(on bool) Option {
	return func(u *Unit) { u.dryRun = on }
}

// WithMaxAttempts bounds delete retries for transient failures.
func WithMaxAttempts(n int) Option {
	return func(u *Unit) {
		if n > 0 {
			u.maxAttempts = uint(n)
		}
	}
}

// WithCallTimeout bounds each individual provider call.
func WithCallTimeout(d time.Duration) Option {
	return func(u *Unit) {
		if d > 0 {
			u.callTimeout = d
		}
	}
}

// WithRetryInterval sets the initial backoff interval between retries.
func WithRetryInterval(d time.Duration) Option {
	return func(u *Unit) {
		if d > 0 {
			u.interval = d
		}
	}
}

// NewUnit creates a destroyer unit over the provider's delete catalogue.
func NewUnit(catalogue providers.Catalogue, opts ...Option) *Unit {
	u := &Unit{
		catalogue:   catalogue,
		maxAttempts: 5,
		callTimeout: 2 * time.Minute,
		interval:    500 * time.Millisecond,
		logger:      telemetry.NewLogger("destroy"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Destroy runs the full attempt lifecycle for one resource in one phase
// and returns the terminal Attempt. It never panics the worker: every
// failure mode maps to a status.
func (u *Unit) Destroy(ctx context.Context, r types.ResourceRecord, phase int) types.Attempt {
	a := types.Attempt{
		Resource:  r,
		Phase:     phase,
		Status:    types.StatusPending,
		StartedAt: u.now(),
	}

	prim, ok := u.catalogue.Primitive(r.Type)
	if !ok {
		return u.finish(ctx, a, types.StatusFailed, "no delete primitive", nil)
	}

	if u.dryRun {
		a.Simulated = true
		return u.finish(ctx, a, types.StatusSucceeded, "simulated", nil)
	}

	exists, err := u.exists(ctx, prim, r)
	if err == nil && !exists {
		return u.finish(ctx, a, types.StatusSucceeded, "already absent", nil)
	}
	// An errored pre-check proceeds to the delete path; the delete call
	// re-classifies the condition.

	if err := u.clearBlocking(ctx, prim, r); err != nil {
		u.logger.WithContext(ctx).Warn().
			Err(err).
			Str("resource_id", r.ID).
			Str("resource_type", string(r.Type)).
			Msg("failed to clear deletion blockers, attempting delete anyway")
	}

	attempts, err := u.deleteWithRetry(ctx, prim, r)
	a.AttemptNumber = attempts

	switch {
	case err == nil:
		return u.finish(ctx, a, types.StatusSucceeded, "deleted", nil)
	case providers.IsNotFound(err):
		return u.finish(ctx, a, types.StatusSucceeded, "already absent", nil)
	case errors.Is(err, context.Canceled):
		// Run interrupted; leave the attempt resumable.
		a.Status = types.StatusPending
		a.Reason = "run interrupted"
		a.EndedAt = u.now()
		return a
	case errors.Is(err, context.DeadlineExceeded):
		return u.finish(ctx, a, types.StatusTimedOut, "call timeout exceeded", err)
	default:
		if term, ok := providers.AsTerminal(err); ok {
			return u.finish(ctx, a, types.StatusFailed, string(term.Kind), err)
		}
		// Transient failures that survived every retry.
		return u.finish(ctx, a, types.StatusTimedOut, "retries exhausted", err)
	}
}

func (u *Unit) exists(ctx context.Context, prim providers.DeletePrimitive, r types.ResourceRecord) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, u.callTimeout)
	defer cancel()

	exists, err := prim.Exists(callCtx, r)
	if providers.IsNotFound(err) {
		return false, nil
	}
	return exists, err
}

func (u *Unit) clearBlocking(ctx context.Context, prim providers.DeletePrimitive, r types.ResourceRecord) error {
	callCtx, cancel := context.WithTimeout(ctx, u.callTimeout)
	defer cancel()

	err := prim.ClearBlocking(callCtx, r)
	if providers.IsNotFound(err) {
		return nil
	}
	return err
}

// deleteWithRetry issues the delete with exponential backoff. Transient
// errors retry up to the attempt ceiling; terminal errors and not-found
// stop immediately. Returns how many delete calls were made.
func (u *Unit) deleteWithRetry(ctx context.Context, prim providers.DeletePrimitive, r types.ResourceRecord) (int, error) {
	attempts := 0

	operation := func() (struct{}, error) {
		attempts++

		callCtx, cancel := context.WithTimeout(ctx, u.callTimeout)
		defer cancel()

		err := prim.Delete(callCtx, r)
		switch {
		case err == nil:
			return struct{}{}, nil
		case providers.IsNotFound(err):
			return struct{}{}, backoff.Permanent(err)
		case providers.IsTransient(err):
			return struct{}{}, err
		default:
			// Terminal and unclassified errors are not worth retrying.
			return struct{}{}, backoff.Permanent(err)
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = u.interval

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(u.maxAttempts),
	)
	return attempts, err
}

func (u *Unit) finish(ctx context.Context, a types.Attempt, status types.AttemptStatus, reason string, err error) types.Attempt {
	a.Status = status
	a.Reason = reason
	if err != nil {
		a.Error = err.Error()
	}
	a.EndedAt = u.now()

	u.logger.LogAttempt(ctx, a)
	telemetry.RecordAttempt(ctx, string(status), string(a.Resource.Type), a.Resource.Region)
	return a
}
