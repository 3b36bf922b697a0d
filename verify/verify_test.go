package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/sundownlabs/teardown/classify"
	"github.com/sundownlabs/teardown/config"
	"github.com/sundownlabs/teardown/types"
)

type staticSource struct {
	snapshot []types.ResourceRecord
	err      error
}

func (s *staticSource) Snapshot(_ context.Context, _ types.Account) ([]types.ResourceRecord, error) {
	return s.snapshot, s.err
}

func testClassifier() *classify.Classifier {
	return classify.New("decom:preserve", "true", config.DefaultPatterns())
}

func TestCleanAccountHasNoResidue(t *testing.T) {
	source := &staticSource{snapshot: []types.ResourceRecord{
		{Type: types.TypeIAMRole, ID: "OrganizationAccountAccessRole"},
		{Type: types.TypeS3Bucket, ID: "kept", Tags: map[string]string{"decom:preserve": "true"}},
	}}
	v := New(source, nil, testClassifier())

	residue, err := v.Verify(context.Background(), types.Account{ID: "111111111111"})
	if err != nil {
		t.Fatal(err)
	}
	if Residue(residue).Total() != 0 {
		t.Errorf("preserved survivors counted as residue: %v", residue)
	}
}

func TestDeletableSurvivorsAreResidue(t *testing.T) {
	source := &staticSource{snapshot: []types.ResourceRecord{
		{Type: types.TypeS3Bucket, ID: "leftover-1"},
		{Type: types.TypeS3Bucket, ID: "leftover-2"},
		{Type: types.TypeEC2Instance, ID: "i-1", Region: "us-east-1"},
		{Type: types.TypeIAMRole, ID: "deploy"}, // protected, not residue
	}}
	v := New(source, nil, testClassifier())

	residue, err := v.Verify(context.Background(), types.Account{ID: "111111111111"})
	if err != nil {
		t.Fatal(err)
	}

	if residue[types.TypeS3Bucket] != 2 || residue[types.TypeEC2Instance] != 1 {
		t.Errorf("residue = %v, want 2 buckets and 1 instance", residue)
	}
	if _, counted := residue[types.TypeIAMRole]; counted {
		t.Error("protected category counted as residue")
	}
}

func TestSnapshotFailurePropagates(t *testing.T) {
	source := &staticSource{err: errors.New("DescribeInstances denied")}
	v := New(source, nil, testClassifier())

	if _, err := v.Verify(context.Background(), types.Account{}); err == nil {
		t.Error("snapshot failure swallowed")
	}
}
