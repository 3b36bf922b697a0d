package classify

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/sundownlabs/teardown/types"
)

// Overlay evaluates a Rego policy on top of the rule table. Overlays are
// additive only: a policy can preserve a resource the rules would delete,
// but can never force-delete one the rules preserve.
//
// Policies live in the data.teardown namespace and set two values:
//
//	preserve = true
//	reason   = "why"
type Overlay struct {
	name  string
	query rego.PreparedEvalQuery
}

// NewOverlay compiles a Rego module into an overlay.
func NewOverlay(ctx context.Context, name, source string) (*Overlay, error) {
	query := rego.New(
		rego.Query("data.teardown"),
		rego.Module(name, source),
	)

	prepared, err := query.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile policy %s: %w", name, err)
	}

	return &Overlay{name: name, query: prepared}, nil
}

// Evaluate runs the policy for one resource. A missing or false preserve
// value means the rules' decision stands.
func (o *Overlay) Evaluate(ctx context.Context, r types.ResourceRecord) (bool, string, error) {
	results, err := o.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"resource": r,
	}))
	if err != nil {
		return false, "", fmt.Errorf("policy %s evaluation failed: %w", o.name, err)
	}

	for _, result := range results {
		for _, expr := range result.Expressions {
			value, ok := expr.Value.(map[string]interface{})
			if !ok {
				continue
			}
			preserve, _ := value["preserve"].(bool)
			if !preserve {
				continue
			}
			reason, _ := value["reason"].(string)
			if reason == "" {
				reason = fmt.Sprintf("policy %s", o.name)
			}
			return true, reason, nil
		}
	}

	return false, "", nil
}
