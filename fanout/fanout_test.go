package fanout

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sundownlabs/teardown/types"
)

type recordingExecutor struct {
	mu       sync.Mutex
	order    map[string][]string // partition key -> resource IDs in call order
	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	statuses map[string]types.AttemptStatus
}

func newRecordingExecutor(delay time.Duration) *recordingExecutor {
	return &recordingExecutor{
		order:    make(map[string][]string),
		delay:    delay,
		statuses: make(map[string]types.AttemptStatus),
	}
}

func (e *recordingExecutor) Destroy(_ context.Context, r types.ResourceRecord, phase int) types.Attempt {
	cur := e.inflight.Add(1)
	for {
		peak := e.peak.Load()
		if cur <= peak || e.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	e.inflight.Add(-1)

	e.mu.Lock()
	key := r.Region + "/" + string(r.Type)
	e.order[key] = append(e.order[key], r.ID)
	e.mu.Unlock()

	status := types.StatusSucceeded
	if s, ok := e.statuses[r.ID]; ok {
		status = s
	}
	return types.Attempt{Resource: r, Phase: phase, Status: status, AttemptNumber: 1}
}

type memRecorder struct {
	mu       sync.Mutex
	attempts []types.Attempt
}

func (m *memRecorder) Append(a types.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, a)
	return nil
}

func TestPartitionsGroupByRegionAndType(t *testing.T) {
	parts := Partitions([]types.ResourceRecord{
		{Type: types.TypeEC2Instance, ID: "i-1", Region: "us-east-1"},
		{Type: types.TypeEC2Instance, ID: "i-2", Region: "eu-west-1"},
		{Type: types.TypeEC2Instance, ID: "i-3", Region: "us-east-1"},
		{Type: types.TypeSQSQueue, ID: "q-1", Region: "us-east-1"},
	})

	if len(parts) != 3 {
		t.Fatalf("partitions = %d, want 3", len(parts))
	}
	if parts[0].Region != "us-east-1" || len(parts[0].Resources) != 2 {
		t.Errorf("first partition = %+v", parts[0])
	}
	if parts[0].Resources[0].ID != "i-1" || parts[0].Resources[1].ID != "i-3" {
		t.Error("partition did not preserve plan order")
	}
}

func TestSequentialWithinPartition(t *testing.T) {
	exec := newRecordingExecutor(time.Millisecond)
	pool := NewPool(4, exec, &memRecorder{})

	resources := []types.ResourceRecord{
		{Type: types.TypeRDSInstance, ID: "db-a", Region: "us-east-1"},
		{Type: types.TypeRDSInstance, ID: "db-b", Region: "us-east-1"},
		{Type: types.TypeRDSInstance, ID: "db-c", Region: "us-east-1"},
	}

	if _, err := pool.Run(context.Background(), 1, resources); err != nil {
		t.Fatal(err)
	}

	got := exec.order["us-east-1/rds_instance"]
	want := []string{"db-a", "db-b", "db-c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("partition order = %v, want %v", got, want)
		}
	}
}

func TestWorkerCeilingIsHonored(t *testing.T) {
	exec := newRecordingExecutor(10 * time.Millisecond)
	pool := NewPool(2, exec, &memRecorder{})

	var resources []types.ResourceRecord
	regions := []string{"us-east-1", "us-west-2", "eu-west-1", "eu-central-1", "ap-south-1"}
	for _, region := range regions {
		resources = append(resources, types.ResourceRecord{
			Type: types.TypeSQSQueue, ID: "q-" + region, Region: region,
		})
	}

	if _, err := pool.Run(context.Background(), 1, resources); err != nil {
		t.Fatal(err)
	}

	if peak := exec.peak.Load(); peak > 2 {
		t.Errorf("observed %d concurrent destroys, ceiling is 2", peak)
	}
}

func TestFailureDoesNotStopSiblings(t *testing.T) {
	exec := newRecordingExecutor(0)
	exec.statuses["i-bad"] = types.StatusFailed
	rec := &memRecorder{}
	pool := NewPool(3, exec, rec)

	attempts, err := pool.Run(context.Background(), 1, []types.ResourceRecord{
		{Type: types.TypeEC2Instance, ID: "i-bad", Region: "us-east-1"},
		{Type: types.TypeEC2Instance, ID: "i-after", Region: "us-east-1"},
		{Type: types.TypeSQSQueue, ID: "q-1", Region: "eu-west-1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(attempts) != 3 {
		t.Fatalf("attempts = %d, want all 3", len(attempts))
	}
	if len(rec.attempts) != 3 {
		t.Fatalf("recorded = %d, want all 3", len(rec.attempts))
	}

	byID := make(map[string]types.AttemptStatus)
	for _, a := range attempts {
		byID[a.Resource.ID] = a.Status
	}
	if byID["i-bad"] != types.StatusFailed {
		t.Error("failed resource not reported failed")
	}
	if byID["i-after"] != types.StatusSucceeded || byID["q-1"] != types.StatusSucceeded {
		t.Error("sibling resources affected by one failure")
	}
}

func TestEveryAttemptIsRecorded(t *testing.T) {
	exec := newRecordingExecutor(0)
	rec := &memRecorder{}
	pool := NewPool(5, exec, rec)

	var resources []types.ResourceRecord
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		resources = append(resources, types.ResourceRecord{
			Type: types.TypeLogGroup, ID: id, Region: "us-east-1",
		})
	}

	attempts, err := pool.Run(context.Background(), 1, resources)
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != len(resources) || len(rec.attempts) != len(resources) {
		t.Errorf("attempts=%d recorded=%d, want %d", len(attempts), len(rec.attempts), len(resources))
	}
}

func TestCancellationStopsBetweenResources(t *testing.T) {
	exec := newRecordingExecutor(5 * time.Millisecond)
	pool := NewPool(1, exec, &memRecorder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts, err := pool.Run(ctx, 1, []types.ResourceRecord{
		{Type: types.TypeEC2Instance, ID: "i-1", Region: "us-east-1"},
		{Type: types.TypeEC2Instance, ID: "i-2", Region: "us-east-1"},
	})

	if err == nil {
		t.Error("cancelled run reported no error")
	}
	if len(attempts) != 0 {
		t.Errorf("cancelled run still destroyed %d resources", len(attempts))
	}
}
