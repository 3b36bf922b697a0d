package plan

import (
	"testing"
	"time"

	"github.com/sundownlabs/teardown/types"
)

func TestSecurityGroupsBeforeVPC(t *testing.T) {
	planner := NewPlanner(30 * time.Second)

	p, err := planner.Plan([]types.ResourceRecord{
		{Type: types.TypeVPC, ID: "vpc-1", Region: "us-east-1"},
		{Type: types.TypeSecurityGroup, ID: "sg-1", Region: "us-east-1"},
		{Type: types.TypeSecurityGroup, ID: "sg-2", Region: "us-east-1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(p.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(p.Phases))
	}
	if p.Phases[0].Resources[0].Type != types.TypeSecurityGroup {
		t.Error("security groups must precede the VPC")
	}
	if p.Phases[1].Resources[0].Type != types.TypeVPC {
		t.Error("VPC must be last")
	}
	if PhaseOf(types.TypeSecurityGroup) >= PhaseOf(types.TypeVPC) {
		t.Error("table places security groups at or after the VPC phase")
	}
}

func TestNetworkingLayerOrder(t *testing.T) {
	order := []types.ResourceType{
		types.TypeNATGateway,
		types.TypeInternetGateway,
		types.TypeSecurityGroup,
		types.TypeVPC,
	}

	for i := 1; i < len(order); i++ {
		if PhaseOf(order[i-1]) >= PhaseOf(order[i]) {
			t.Errorf("%s (phase %d) must precede %s (phase %d)",
				order[i-1], PhaseOf(order[i-1]), order[i], PhaseOf(order[i]))
		}
	}
}

func TestComputeBeforeVolumes(t *testing.T) {
	if PhaseOf(types.TypeEC2Instance) >= PhaseOf(types.TypeEBSVolume) {
		t.Error("instances must precede the volumes they attach")
	}
	if PhaseOf(types.TypeLambdaFunction) >= PhaseOf(types.TypeEBSSnapshot) {
		t.Error("functions must precede snapshots")
	}
	if PhaseOf(types.TypeRDSInstance) >= PhaseOf(types.TypeVPC) {
		t.Error("databases must complete before networking teardown")
	}
}

func TestStackTierOrdering(t *testing.T) {
	planner := NewPlanner(time.Second)

	p, err := planner.Plan([]types.ResourceRecord{
		{Type: types.TypeCloudFormationStack, ID: "aws-controltower-BaselineRoles", Region: "us-east-1"},
		{Type: types.TypeCloudFormationStack, ID: "app-backend", Region: "us-east-1"},
		{Type: types.TypeCloudFormationStack, ID: "StackSet-guardrails", Region: "us-east-1"},
		{Type: types.TypeCloudFormationStack, ID: "cdk-toolkit", Region: "us-east-1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	stacks := p.Phases[0].Resources
	got := []string{stacks[0].ID, stacks[1].ID, stacks[2].ID, stacks[3].ID}
	want := []string{"app-backend", "StackSet-guardrails", "cdk-toolkit", "aws-controltower-BaselineRoles"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stack order = %v, want %v", got, want)
		}
	}
}

func TestScalingGroupsBeforeInstances(t *testing.T) {
	planner := NewPlanner(time.Second)

	p, err := planner.Plan([]types.ResourceRecord{
		{Type: types.TypeEC2Instance, ID: "i-1", Region: "us-east-1"},
		{Type: types.TypeAutoScalingGroup, ID: "asg-web", Region: "us-east-1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if p.Phases[0].Resources[0].Type != types.TypeAutoScalingGroup {
		t.Error("scaling groups must be torn down before their instances")
	}
}

func TestBarrierOnAllButLastPhase(t *testing.T) {
	planner := NewPlanner(30 * time.Second)

	p, err := planner.Plan([]types.ResourceRecord{
		{Type: types.TypeS3Bucket, ID: "b1"},
		{Type: types.TypeEBSVolume, ID: "vol-1", Region: "us-east-1"},
		{Type: types.TypeVPC, ID: "vpc-1", Region: "us-east-1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	for i, phase := range p.Phases {
		last := i == len(p.Phases)-1
		if last && phase.Barrier != 0 {
			t.Error("final phase must not carry a barrier delay")
		}
		if !last && phase.Barrier != 30*time.Second {
			t.Errorf("phase %d barrier = %v, want 30s", phase.Index, phase.Barrier)
		}
	}
}

func TestUnknownTypeIsPlanningError(t *testing.T) {
	planner := NewPlanner(time.Second)

	if _, err := planner.Plan([]types.ResourceRecord{
		{Type: types.ResourceType("mainframe"), ID: "x"},
	}); err == nil {
		t.Error("unknown type accepted into plan")
	}

	// Protected types never belong in a delete-set.
	if _, err := planner.Plan([]types.ResourceRecord{
		{Type: types.TypeIAMRole, ID: "deploy-role"},
	}); err == nil {
		t.Error("protected type accepted into plan")
	}
}

func TestEveryDeletableTypeHasPhase(t *testing.T) {
	deletable := []types.ResourceType{
		types.TypeS3Bucket, types.TypeEBSVolume, types.TypeEBSSnapshot,
		types.TypeEC2Instance, types.TypeAutoScalingGroup, types.TypeLambdaFunction,
		types.TypeRDSInstance, types.TypeRDSCluster, types.TypeDynamoDBTable,
		types.TypeRedshiftCluster, types.TypeMemoryDBCluster, types.TypeECSCluster,
		types.TypeEKSCluster, types.TypeECRRepository, types.TypeSQSQueue,
		types.TypeLogGroup, types.TypeCloudTrail, types.TypeKMSKey,
		types.TypeLoadBalancer, types.TypeCloudFormationStack, types.TypeNATGateway,
		types.TypeInternetGateway, types.TypeSecurityGroup, types.TypeVPC,
	}

	for _, typ := range deletable {
		if PhaseOf(typ) == 0 {
			t.Errorf("deletable type %s has no phase assignment", typ)
		}
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	planner := NewPlanner(time.Second)
	input := []types.ResourceRecord{
		{Type: types.TypeS3Bucket, ID: "zulu"},
		{Type: types.TypeS3Bucket, ID: "alpha"},
		{Type: types.TypeEC2Instance, ID: "i-2", Region: "us-east-1"},
		{Type: types.TypeEC2Instance, ID: "i-1", Region: "us-east-1"},
	}

	first, err := planner.Plan(input)
	if err != nil {
		t.Fatal(err)
	}

	for run := 0; run < 5; run++ {
		again, err := planner.Plan(input)
		if err != nil {
			t.Fatal(err)
		}
		for pi := range first.Phases {
			for ri := range first.Phases[pi].Resources {
				if first.Phases[pi].Resources[ri].ID != again.Phases[pi].Resources[ri].ID {
					t.Fatal("plan order changed between runs")
				}
			}
		}
	}
}
