// Package verify recounts the account after a run. It answers one
// question: is anything still there that the run should have removed?
// Residue is reported for the next run to converge on, never retried here.
package verify

import (
	"context"

	"github.com/sundownlabs/teardown/classify"
	"github.com/sundownlabs/teardown/providers"
	"github.com/sundownlabs/teardown/telemetry"
	"github.com/sundownlabs/teardown/types"
)

// Residue maps resource types to how many deletable instances remain.
type Residue map[types.ResourceType]int

// Total sums the residue across types.
func (r Residue) Total() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}

// Verifier recounts a fresh snapshot and reclassifies it. Resources the
// classifier still marks Delete are residue; preserved resources are not.
type Verifier struct {
	source     providers.InventorySource
	lookup     classify.TagLookup
	classifier *classify.Classifier
	logger     *telemetry.Logger
}

// New creates a verifier over the same snapshot source and classifier the
// run used, so the recount applies identical preservation rules.
func New(source providers.InventorySource, lookup classify.TagLookup, classifier *classify.Classifier) *Verifier {
	return &Verifier{
		source:     source,
		lookup:     lookup,
		classifier: classifier,
		logger:     telemetry.NewLogger("verify"),
	}
}

// Verify takes a fresh snapshot and counts deletable residue by type.
func (v *Verifier) Verify(ctx context.Context, account types.Account) (map[types.ResourceType]int, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "verify.recount")
	defer span.End()

	snapshot, err := v.source.Snapshot(ctx, account)
	if err != nil {
		return nil, err
	}

	residue := make(Residue)
	for _, r := range snapshot {
		d := v.classifier.ClassifyWithLookup(ctx, r, v.lookup)
		if d.Preserved() {
			continue
		}
		residue[r.Type]++
	}

	log := v.logger.WithContext(ctx)
	if residue.Total() == 0 {
		log.Info().Str("account_id", account.ID).Msg("recount clean, no deletable residue")
	} else {
		log.Warn().
			Str("account_id", account.ID).
			Int("residue", residue.Total()).
			Msg("deletable residue remains")
	}

	return residue, nil
}
