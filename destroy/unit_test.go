package destroy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sundownlabs/teardown/providers"
	"github.com/sundownlabs/teardown/types"
)

// mockPrimitive scripts the provider surface for one resource type.
type mockPrimitive struct {
	exists       bool
	existsErr    error
	clearErr     error
	deleteErrs   []error // consumed one per Delete call, then nil
	deleteCalls  int
	clearCalls   int
	existsCalls  int
	deleteResult error
}

func (m *mockPrimitive) Exists(_ context.Context, _ types.ResourceRecord) (bool, error) {
	m.existsCalls++
	return m.exists, m.existsErr
}

func (m *mockPrimitive) ClearBlocking(_ context.Context, _ types.ResourceRecord) error {
	m.clearCalls++
	return m.clearErr
}

func (m *mockPrimitive) Delete(_ context.Context, _ types.ResourceRecord) error {
	m.deleteCalls++
	if len(m.deleteErrs) > 0 {
		err := m.deleteErrs[0]
		m.deleteErrs = m.deleteErrs[1:]
		return err
	}
	return m.deleteResult
}

func catalogueWith(typ types.ResourceType, prim *mockPrimitive) providers.CatalogueMap {
	return providers.CatalogueMap{typ: prim}
}

func testResource() types.ResourceRecord {
	return types.ResourceRecord{
		Type:   types.TypeS3Bucket,
		ID:     "decom-target",
		Region: "us-east-1",
	}
}

func fastUnit(cat providers.Catalogue, opts ...Option) *Unit {
	base := []Option{
		WithRetryInterval(time.Millisecond),
		WithCallTimeout(time.Second),
	}
	return NewUnit(cat, append(base, opts...)...)
}

func TestAlreadyAbsentSkipsDelete(t *testing.T) {
	prim := &mockPrimitive{exists: false}
	u := fastUnit(catalogueWith(types.TypeS3Bucket, prim))

	a := u.Destroy(context.Background(), testResource(), 1)

	if a.Status != types.StatusSucceeded || a.Reason != "already absent" {
		t.Errorf("attempt = %s/%q, want succeeded/already absent", a.Status, a.Reason)
	}
	if prim.deleteCalls != 0 {
		t.Errorf("delete primitive invoked %d times for an absent resource", prim.deleteCalls)
	}
	if prim.clearCalls != 0 {
		t.Errorf("clear invoked %d times for an absent resource", prim.clearCalls)
	}
}

func TestTransientErrorsRetryThenSucceed(t *testing.T) {
	prim := &mockPrimitive{
		exists: true,
		deleteErrs: []error{
			providers.Transient(errors.New("RequestLimitExceeded")),
			providers.Transient(errors.New("RequestLimitExceeded")),
		},
	}
	u := fastUnit(catalogueWith(types.TypeS3Bucket, prim))

	a := u.Destroy(context.Background(), testResource(), 1)

	if a.Status != types.StatusSucceeded {
		t.Fatalf("status = %s, want succeeded: %s", a.Status, a.Error)
	}
	if a.AttemptNumber != 3 {
		t.Errorf("attempt_number = %d, want 3", a.AttemptNumber)
	}
	if prim.deleteCalls != 3 {
		t.Errorf("delete calls = %d, want 3", prim.deleteCalls)
	}
}

func TestTransientExhaustionTimesOut(t *testing.T) {
	prim := &mockPrimitive{
		exists:       true,
		deleteResult: providers.Transient(errors.New("Throttling")),
	}
	u := fastUnit(catalogueWith(types.TypeS3Bucket, prim), WithMaxAttempts(3))

	a := u.Destroy(context.Background(), testResource(), 1)

	if a.Status != types.StatusTimedOut {
		t.Fatalf("status = %s, want timed_out", a.Status)
	}
	if prim.deleteCalls != 3 {
		t.Errorf("delete calls = %d, want retry ceiling of 3", prim.deleteCalls)
	}
}

func TestTerminalErrorFailsWithoutRetry(t *testing.T) {
	prim := &mockPrimitive{
		exists:       true,
		deleteResult: providers.Terminal(providers.KindAccessDenied, errors.New("AccessDenied")),
	}
	u := fastUnit(catalogueWith(types.TypeS3Bucket, prim))

	a := u.Destroy(context.Background(), testResource(), 1)

	if a.Status != types.StatusFailed {
		t.Fatalf("status = %s, want failed", a.Status)
	}
	if a.Reason != string(providers.KindAccessDenied) {
		t.Errorf("reason = %q, want access_denied", a.Reason)
	}
	if prim.deleteCalls != 1 {
		t.Errorf("terminal error retried: %d delete calls", prim.deleteCalls)
	}
}

func TestNotFoundDuringDeleteIsSuccess(t *testing.T) {
	prim := &mockPrimitive{exists: true, deleteResult: providers.ErrNotFound}
	u := fastUnit(catalogueWith(types.TypeS3Bucket, prim))

	a := u.Destroy(context.Background(), testResource(), 1)

	if a.Status != types.StatusSucceeded || a.Reason != "already absent" {
		t.Errorf("attempt = %s/%q, want succeeded/already absent", a.Status, a.Reason)
	}
}

func TestDryRunNeverTouchesProvider(t *testing.T) {
	prim := &mockPrimitive{exists: true}
	u := fastUnit(catalogueWith(types.TypeS3Bucket, prim), WithDryRun(true))

	a := u.Destroy(context.Background(), testResource(), 1)

	if a.Status != types.StatusSucceeded || !a.Simulated || a.Reason != "simulated" {
		t.Errorf("dry-run attempt = %+v", a)
	}
	if prim.existsCalls+prim.clearCalls+prim.deleteCalls != 0 {
		t.Error("dry-run invoked the provider")
	}
}

func TestClearBlockingFailureStillDeletes(t *testing.T) {
	prim := &mockPrimitive{exists: true, clearErr: errors.New("detach failed")}
	u := fastUnit(catalogueWith(types.TypeS3Bucket, prim))

	a := u.Destroy(context.Background(), testResource(), 1)

	if a.Status != types.StatusSucceeded {
		t.Errorf("status = %s, want succeeded despite clear failure", a.Status)
	}
	if prim.deleteCalls != 1 {
		t.Errorf("delete calls = %d, want 1", prim.deleteCalls)
	}
}

func TestMissingPrimitiveFails(t *testing.T) {
	u := fastUnit(providers.CatalogueMap{})

	a := u.Destroy(context.Background(), testResource(), 1)

	if a.Status != types.StatusFailed || a.Reason != "no delete primitive" {
		t.Errorf("attempt = %s/%q", a.Status, a.Reason)
	}
}

func TestCancellationLeavesAttemptResumable(t *testing.T) {
	prim := &mockPrimitive{
		exists:       true,
		deleteResult: providers.Transient(errors.New("Throttling")),
	}
	u := fastUnit(catalogueWith(types.TypeS3Bucket, prim))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := u.Destroy(ctx, testResource(), 1)

	if !a.Status.Resumable() {
		t.Errorf("status %s after cancellation is not resumable", a.Status)
	}
}
