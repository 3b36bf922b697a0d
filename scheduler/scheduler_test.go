package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sundownlabs/teardown/classify"
	"github.com/sundownlabs/teardown/config"
	"github.com/sundownlabs/teardown/destroy"
	"github.com/sundownlabs/teardown/journal"
	"github.com/sundownlabs/teardown/providers"
	"github.com/sundownlabs/teardown/types"
)

// fakeProvider scripts the cloud for a run: a fixed snapshot and a delete
// surface that records every call.
type fakeProvider struct {
	mu          sync.Mutex
	snapshot    []types.ResourceRecord
	snapshotErr error
	deleted     []string // resource IDs in delete-call order
	snapshots   int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Snapshot(_ context.Context, _ types.Account) ([]types.ResourceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots++
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	return f.snapshot, nil
}

func (f *fakeProvider) Lookup(_ context.Context, r types.ResourceRecord) (map[string]string, error) {
	return r.Tags, nil
}

func (f *fakeProvider) Primitive(_ types.ResourceType) (providers.DeletePrimitive, bool) {
	return &fakeDeleter{provider: f}, true
}

func (f *fakeProvider) record(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
}

func (f *fakeProvider) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type fakeDeleter struct {
	provider *fakeProvider
}

func (d *fakeDeleter) Exists(_ context.Context, _ types.ResourceRecord) (bool, error) {
	return true, nil
}

func (d *fakeDeleter) ClearBlocking(_ context.Context, _ types.ResourceRecord) error {
	return nil
}

func (d *fakeDeleter) Delete(_ context.Context, r types.ResourceRecord) error {
	d.provider.record(r.ID)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Version:    "1",
		AccountID:  "111111111111",
		Profile:    "decom-target",
		JournalDir: t.TempDir(),
	}
	cfg.ApplyDefaults()
	return cfg
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func newTestScheduler(t *testing.T, cfg *config.Config, provider *fakeProvider) (*Scheduler, *journal.Journal) {
	t.Helper()

	jnl, err := journal.Open(cfg.JournalDir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = jnl.Close() })

	classifier := classify.New(cfg.Preserve.TagKey, cfg.Preserve.TagValue, cfg.Preserve.Patterns)
	unit := destroy.NewUnit(provider,
		destroy.WithDryRun(cfg.DryRun),
		destroy.WithMaxAttempts(cfg.Execution.MaxAttempts),
		destroy.WithCallTimeout(time.Second),
		destroy.WithRetryInterval(time.Millisecond),
	)

	return New(cfg, provider, classifier, unit, jnl, WithSleep(noSleep)), jnl
}

func account(cfg *config.Config) types.Account {
	return types.Account{ID: cfg.AccountID, Profile: cfg.Profile}
}

func TestPreserveTagSurvivesRun(t *testing.T) {
	cfg := testConfig(t)
	provider := &fakeProvider{snapshot: []types.ResourceRecord{
		{Type: types.TypeS3Bucket, ID: "keep-me", Tags: map[string]string{"decom:preserve": "true"}},
		{Type: types.TypeS3Bucket, ID: "delete-me"},
	}}
	s, _ := newTestScheduler(t, cfg, provider)

	summary, err := s.Run(context.Background(), account(cfg))
	if err != nil {
		t.Fatal(err)
	}

	if summary.Totals.Preserved != 1 || summary.Totals.Deleted != 1 {
		t.Errorf("totals = %+v, want 1 preserved / 1 deleted", summary.Totals)
	}
	for _, id := range provider.deletedIDs() {
		if id == "keep-me" {
			t.Fatal("delete primitive invoked for a preserved resource")
		}
	}
}

func TestRerunSkipsSettledWork(t *testing.T) {
	cfg := testConfig(t)
	snapshot := []types.ResourceRecord{
		{Type: types.TypeS3Bucket, ID: "bucket-1"},
		{Type: types.TypeSQSQueue, ID: "queue-1", Region: "us-east-1"},
	}

	provider := &fakeProvider{snapshot: snapshot}
	s, jnl := newTestScheduler(t, cfg, provider)
	if _, err := s.Run(context.Background(), account(cfg)); err != nil {
		t.Fatal(err)
	}
	if got := len(provider.deletedIDs()); got != 2 {
		t.Fatalf("first run deleted %d resources, want 2", got)
	}
	_ = jnl.Close()

	// Second run over the same journal: the first run's snapshot still
	// reports the resources, the journal says they are settled.
	provider2 := &fakeProvider{snapshot: snapshot}
	s2, _ := newTestScheduler(t, cfg, provider2)
	summary, err := s2.Run(context.Background(), account(cfg))
	if err != nil {
		t.Fatal(err)
	}

	if got := len(provider2.deletedIDs()); got != 0 {
		t.Errorf("re-run issued %d delete calls for settled resources", got)
	}
	if summary.Totals.Deleted != 2 {
		t.Errorf("re-run summary lost settled attempts: %+v", summary.Totals)
	}
}

func TestDryRunNeverDeletes(t *testing.T) {
	cfg := testConfig(t)
	cfg.DryRun = true
	provider := &fakeProvider{snapshot: []types.ResourceRecord{
		{Type: types.TypeEC2Instance, ID: "i-1", Region: "us-east-1"},
		{Type: types.TypeVPC, ID: "vpc-1", Region: "us-east-1"},
	}}
	s, _ := newTestScheduler(t, cfg, provider)

	summary, err := s.Run(context.Background(), account(cfg))
	if err != nil {
		t.Fatal(err)
	}

	if got := len(provider.deletedIDs()); got != 0 {
		t.Errorf("dry run issued %d delete calls", got)
	}
	if summary.Totals.Simulated != 2 || summary.Totals.Deleted != 0 {
		t.Errorf("totals = %+v, want 2 simulated", summary.Totals)
	}
}

func TestRestrictedAccountIsSkipped(t *testing.T) {
	cfg := testConfig(t)
	cfg.RestrictedAccounts = []string{cfg.Profile}
	provider := &fakeProvider{snapshot: []types.ResourceRecord{
		{Type: types.TypeS3Bucket, ID: "bucket-1"},
	}}
	s, _ := newTestScheduler(t, cfg, provider)

	summary, err := s.Run(context.Background(), account(cfg))
	if err != nil {
		t.Fatal(err)
	}

	if provider.snapshots != 0 {
		t.Error("restricted account was inventoried")
	}
	if summary.Totals != (types.StatusCounts{}) {
		t.Errorf("restricted account produced attempts: %+v", summary.Totals)
	}
}

func TestInventoryFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	provider := &fakeProvider{snapshotErr: errors.New("ListBuckets throttled")}
	s, _ := newTestScheduler(t, cfg, provider)

	_, err := s.Run(context.Background(), account(cfg))

	var pe *PlanningError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PlanningError", err)
	}
	if got := len(provider.deletedIDs()); got != 0 {
		t.Errorf("deletion proceeded on a failed snapshot: %d calls", got)
	}
}

func TestPhaseOrderAcrossNetworking(t *testing.T) {
	cfg := testConfig(t)
	provider := &fakeProvider{snapshot: []types.ResourceRecord{
		{Type: types.TypeVPC, ID: "vpc-1", Region: "us-east-1"},
		{Type: types.TypeSecurityGroup, ID: "sg-1", Region: "us-east-1"},
		{Type: types.TypeEC2Instance, ID: "i-1", Region: "us-east-1"},
	}}
	s, _ := newTestScheduler(t, cfg, provider)

	if _, err := s.Run(context.Background(), account(cfg)); err != nil {
		t.Fatal(err)
	}

	order := provider.deletedIDs()
	want := []string{"i-1", "sg-1", "vpc-1"}
	if len(order) != len(want) {
		t.Fatalf("delete calls = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("delete order = %v, want %v", order, want)
		}
	}
}

func TestVerifierResidueIsWarningOnly(t *testing.T) {
	cfg := testConfig(t)
	provider := &fakeProvider{snapshot: []types.ResourceRecord{
		{Type: types.TypeS3Bucket, ID: "bucket-1"},
	}}

	jnl, err := journal.Open(cfg.JournalDir)
	if err != nil {
		t.Fatal(err)
	}
	defer jnl.Close()

	classifier := classify.New(cfg.Preserve.TagKey, cfg.Preserve.TagValue, cfg.Preserve.Patterns)
	unit := destroy.NewUnit(provider, destroy.WithRetryInterval(time.Millisecond))
	s := New(cfg, provider, classifier, unit, jnl,
		WithSleep(noSleep),
		WithVerifier(verifierFunc(func(_ context.Context, _ types.Account) (map[types.ResourceType]int, error) {
			return map[types.ResourceType]int{types.TypeS3Bucket: 1}, nil
		})),
	)

	summary, err := s.Run(context.Background(), account(cfg))
	if err != nil {
		t.Fatalf("residue failed the run: %v", err)
	}
	if summary.Totals.Deleted != 1 {
		t.Errorf("totals = %+v", summary.Totals)
	}
}

type verifierFunc func(ctx context.Context, account types.Account) (map[types.ResourceType]int, error)

func (f verifierFunc) Verify(ctx context.Context, account types.Account) (map[types.ResourceType]int, error) {
	return f(ctx, account)
}
