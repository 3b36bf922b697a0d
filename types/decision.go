package types

import "fmt"

// Outcome of a preservation decision.
type Outcome string

const (
	OutcomePreserve Outcome = "preserve"
	OutcomeDelete   Outcome = "delete"
)

// Decision records whether one resource survives the decommission and why.
// Computed once per run; same resource always yields the same decision.
type Decision struct {
	Resource ResourceRecord `json:"resource"`
	Outcome  Outcome        `json:"outcome"`
	Reason   string         `json:"reason"`
}

// Preserved reports whether the resource must survive.
func (d Decision) Preserved() bool {
	return d.Outcome == OutcomePreserve
}

// Validate ensures the decision has required fields.
func (d Decision) Validate() error {
	if d.Resource.ID == "" {
		return fmt.Errorf("decision resource ID cannot be empty")
	}
	if d.Outcome != OutcomePreserve && d.Outcome != OutcomeDelete {
		return fmt.Errorf("decision outcome %q is not valid", d.Outcome)
	}
	if d.Reason == "" {
		return fmt.Errorf("decision reason cannot be empty")
	}
	return nil
}

// SplitDecisions partitions decisions into the preserve-set and the delete-set.
func SplitDecisions(decisions []Decision) (preserve, del []Decision) {
	for _, d := range decisions {
		if d.Preserved() {
			preserve = append(preserve, d)
		} else {
			del = append(del, d)
		}
	}
	return preserve, del
}
