// Package fanout runs one destruction phase across bounded workers.
// Work is partitioned by (region, type); partitions run concurrently,
// resources within a partition run sequentially and in plan order.
package fanout

import (
	"context"
	"sync"

	"github.com/sundownlabs/teardown/telemetry"
	"github.com/sundownlabs/teardown/types"
)

// Executor destroys one resource. destroy.Unit satisfies this.
type Executor interface {
	Destroy(ctx context.Context, r types.ResourceRecord, phase int) types.Attempt
}

// Recorder persists attempts as they complete. journal.Journal satisfies
// this. Each attempt is recorded by the worker that owns its partition, so
// the recorder sees at most one writer per resource.
type Recorder interface {
	Append(a types.Attempt) error
}

// Partition is the unit of parallelism: every resource sharing a region
// and type, in plan order.
type Partition struct {
	Region    string
	Type      types.ResourceType
	Resources []types.ResourceRecord
}

// Partitions groups resources by (region, type), preserving the order in
// which partitions first appear and the order of resources within each.
func Partitions(resources []types.ResourceRecord) []Partition {
	type key struct {
		region string
		typ    types.ResourceType
	}

	index := make(map[key]int)
	var parts []Partition

	for _, r := range resources {
		k := key{region: r.Region, typ: r.Type}
		i, seen := index[k]
		if !seen {
			i = len(parts)
			index[k] = i
			parts = append(parts, Partition{Region: r.Region, Type: r.Type})
		}
		parts[i].Resources = append(parts[i].Resources, r)
	}

	return parts
}

// Pool executes phase partitions with a fixed worker ceiling.
type Pool struct {
	workers  int
	executor Executor
	recorder Recorder
	logger   *telemetry.Logger
}

// NewPool creates a pool. Workers below 1 are clamped to 1.
func NewPool(workers int, executor Executor, recorder Recorder) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers:  workers,
		executor: executor,
		recorder: recorder,
		logger:   telemetry.NewLogger("fanout"),
	}
}

// Run destroys every resource of one phase and returns all attempts.
// A failing resource never stops its partition, and a failing partition
// never stops its siblings. Run returns early state plus ctx.Err() when
// the context is cancelled mid-phase.
func (p *Pool) Run(ctx context.Context, phase int, resources []types.ResourceRecord) ([]types.Attempt, error) {
	parts := Partitions(resources)

	var (
		mu       sync.Mutex
		attempts []types.Attempt
		wg       sync.WaitGroup
		slots    = make(chan struct{}, p.workers)
	)

	for _, part := range parts {
		wg.Add(1)
		go func(part Partition) {
			defer wg.Done()

			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-slots }()

			done := p.runPartition(ctx, phase, part)

			mu.Lock()
			attempts = append(attempts, done...)
			mu.Unlock()
		}(part)
	}

	wg.Wait()
	return attempts, ctx.Err()
}

// runPartition walks one partition sequentially. Cancellation stops
// between resources; the in-flight destroy observes it through its ctx.
func (p *Pool) runPartition(ctx context.Context, phase int, part Partition) []types.Attempt {
	attempts := make([]types.Attempt, 0, len(part.Resources))

	for _, r := range part.Resources {
		if ctx.Err() != nil {
			return attempts
		}

		a := p.executor.Destroy(ctx, r, phase)
		attempts = append(attempts, a)

		if err := p.recorder.Append(a); err != nil {
			p.logger.WithContext(ctx).Error().
				Err(err).
				Str("attempt_key", a.Key()).
				Msg("failed to record attempt")
		}
	}

	return attempts
}
