// Package plan orders the delete-set into destruction phases from a static
// dependency table. Adding a resource type means adding a table entry;
// scheduler control flow never changes.
package plan

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sundownlabs/teardown/types"
)

// phaseTable assigns each deletable type its destruction phase.
//
// Phase 1: workloads and data stores - everything that attaches to or
// fills the layers below.
// Phase 2: detached storage, keys, and stacks, once nothing consumes them.
// Phases 3-6: networking, one layer per phase, because a VPC cannot go
// while gateways or groups still reference it.
var phaseTable = map[types.ResourceType]int{
	types.TypeLambdaFunction:   1,
	types.TypeAutoScalingGroup: 1,
	types.TypeEC2Instance:      1,
	types.TypeECSCluster:       1,
	types.TypeEKSCluster:       1,
	types.TypeRDSInstance:      1,
	types.TypeRDSCluster:       1,
	types.TypeDynamoDBTable:    1,
	types.TypeRedshiftCluster:  1,
	types.TypeMemoryDBCluster:  1,
	types.TypeSQSQueue:         1,
	types.TypeLogGroup:         1,
	types.TypeCloudTrail:       1,
	types.TypeS3Bucket:         1,
	types.TypeECRRepository:    1,
	types.TypeLoadBalancer:     1,

	types.TypeEBSVolume:           2,
	types.TypeEBSSnapshot:         2,
	types.TypeKMSKey:              2,
	types.TypeCloudFormationStack: 2,

	types.TypeNATGateway:      3,
	types.TypeInternetGateway: 4,
	types.TypeSecurityGroup:   5,
	types.TypeVPC:             6,
}

// typeOrder breaks ties inside a phase partition: scaling groups go before
// the instances they manage, clusters before their instances.
var typeOrder = map[types.ResourceType]int{
	types.TypeAutoScalingGroup: 0,
	types.TypeRDSCluster:       0,
	types.TypeEC2Instance:      1,
	types.TypeRDSInstance:      1,
}

// PhaseCount is the number of phases in the static table.
const PhaseCount = 6

// Phase is one ordered stage of destruction. Resources within a phase may
// be destroyed concurrently by partition; the Barrier delay follows the
// phase to let remote state converge.
type Phase struct {
	Index     int                    `json:"index"`
	Resources []types.ResourceRecord `json:"resources"`
	Barrier   time.Duration          `json:"barrier"`
}

// Plan is the full dependency-ordered destruction plan.
type Plan struct {
	Phases []Phase `json:"phases"`
}

// Planner builds plans with a configurable barrier delay.
type Planner struct {
	barrier time.Duration
}

// NewPlanner creates a planner. The barrier delay is recorded per phase
// boundary; the final phase carries none.
func NewPlanner(barrier time.Duration) *Planner {
	return &Planner{barrier: barrier}
}

// Plan orders the delete-set into phases. Unknown or protected types in
// the delete-set are a planning error, never silently dropped.
func (p *Planner) Plan(deleteSet []types.ResourceRecord) (*Plan, error) {
	buckets := make(map[int][]types.ResourceRecord)

	for _, r := range deleteSet {
		phase, ok := phaseTable[r.Type]
		if !ok {
			return nil, fmt.Errorf("no phase assignment for resource type %q (%s)", r.Type, r.ID)
		}
		buckets[phase] = append(buckets[phase], r)
	}

	plan := &Plan{}
	for i := 1; i <= PhaseCount; i++ {
		resources := buckets[i]
		if len(resources) == 0 {
			continue
		}
		sortPhase(resources)
		plan.Phases = append(plan.Phases, Phase{
			Index:     i,
			Resources: resources,
			Barrier:   p.barrier,
		})
	}

	// No trailing barrier after the last phase.
	if n := len(plan.Phases); n > 0 {
		plan.Phases[n-1].Barrier = 0
	}

	return plan, nil
}

// PhaseOf returns the table's phase for a type, 0 if unassigned.
func PhaseOf(t types.ResourceType) int {
	return phaseTable[t]
}

// sortPhase fixes instance order within a phase: type tier first, then
// stack tier for stacks, then name for determinism across runs.
func sortPhase(resources []types.ResourceRecord) {
	sort.SliceStable(resources, func(i, j int) bool {
		a, b := resources[i], resources[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if ta, tb := typeOrder[a.Type], typeOrder[b.Type]; ta != tb {
			return ta < tb
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Type == types.TypeCloudFormationStack {
			if sa, sb := stackTier(a), stackTier(b); sa != sb {
				return sa < sb
			}
		}
		return a.ID < b.ID
	})
}

// stackTier orders stacks so children fall before the constructs that own
// them: plain stacks first, CDK and StackSet output second, landing-zone
// and organization-root stacks last.
func stackTier(r types.ResourceRecord) int {
	name := strings.ToLower(r.DisplayName())
	switch {
	case strings.Contains(name, "controltower") || strings.Contains(name, "landing-zone"):
		return 2
	case strings.Contains(name, "cdk-") || strings.Contains(name, "stackset-"):
		return 1
	default:
		return 0
	}
}
