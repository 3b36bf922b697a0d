// Package classify decides which resources survive a decommission run.
// Classification is total and deterministic; the only I/O happens in
// ClassifyWithLookup, and any lookup failure resolves to Preserve.
package classify

import (
	"context"
	"sort"
	"strings"

	"github.com/sundownlabs/teardown/telemetry"
	"github.com/sundownlabs/teardown/types"
)

// TagLookup is the external tag source consulted before classification.
// Defined here on the consumer side; providers.Provider satisfies it.
type TagLookup interface {
	Lookup(ctx context.Context, r types.ResourceRecord) (map[string]string, error)
}

// Pattern preserves resources whose identifier, name or ARN contains Match.
type Pattern struct {
	Match  string
	Reason string
}

// Classifier applies the preservation rules in fixed order: explicit tag,
// protected catalogue, name pattern, otherwise delete.
type Classifier struct {
	tagKey   string
	tagValue string
	patterns []Pattern
	overlay  *Overlay
	logger   *telemetry.Logger
}

// New creates a classifier with the given preserve tag pair and name
// patterns. Patterns are sorted for deterministic first-match evaluation.
func New(tagKey, tagValue string, patterns map[string]string) *Classifier {
	sorted := make([]Pattern, 0, len(patterns))
	for match, reason := range patterns {
		sorted = append(sorted, Pattern{Match: match, Reason: reason})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Match < sorted[j].Match })

	return &Classifier{
		tagKey:   tagKey,
		tagValue: tagValue,
		patterns: sorted,
		logger:   telemetry.NewLogger("classify"),
	}
}

// WithOverlay attaches an optional policy overlay. The overlay can only
// add Preserve decisions, never flip Preserve to Delete.
func (c *Classifier) WithOverlay(o *Overlay) *Classifier {
	c.overlay = o
	return c
}

// Classify decides the fate of one resource from its snapshot tags.
// Pure: no I/O, same input always yields the same decision.
func (c *Classifier) Classify(r types.ResourceRecord) types.Decision {
	if c.tagged(r.Tags) {
		return decision(r, types.OutcomePreserve, "explicit tag")
	}

	if r.Type.Protected() {
		return decision(r, types.OutcomePreserve, "protected resource category")
	}

	if reason, ok := c.matchPattern(r); ok {
		return decision(r, types.OutcomePreserve, reason)
	}

	return decision(r, types.OutcomeDelete, "no preservation match")
}

// ClassifyWithLookup consults the external tag source before classifying.
// A lookup error resolves to Preserve: survival over accidental destruction.
func (c *Classifier) ClassifyWithLookup(ctx context.Context, r types.ResourceRecord, lookup TagLookup) types.Decision {
	if lookup != nil {
		tags, err := lookup.Lookup(ctx, r)
		if err != nil {
			c.logger.WithContext(ctx).Warn().
				Err(err).
				Str("resource_id", r.ID).
				Str("resource_type", string(r.Type)).
				Msg("tag lookup failed, preserving")
			return decision(r, types.OutcomePreserve, "tag lookup failed")
		}
		r.Tags = tags
	}

	d := c.Classify(r)

	if c.overlay != nil && !d.Preserved() {
		preserve, reason, err := c.overlay.Evaluate(ctx, r)
		if err != nil {
			c.logger.WithContext(ctx).Warn().
				Err(err).
				Str("resource_id", r.ID).
				Msg("policy overlay failed, preserving")
			return decision(r, types.OutcomePreserve, "policy evaluation failed")
		}
		if preserve {
			return decision(r, types.OutcomePreserve, reason)
		}
	}

	return d
}

// ClassifyAll classifies a snapshot and records the split.
func (c *Classifier) ClassifyAll(ctx context.Context, resources []types.ResourceRecord, lookup TagLookup) []types.Decision {
	decisions := make([]types.Decision, 0, len(resources))
	preserved := 0

	for _, r := range resources {
		d := c.ClassifyWithLookup(ctx, r, lookup)
		if d.Preserved() {
			preserved++
		}
		telemetry.RecordClassification(ctx, string(d.Outcome))
		decisions = append(decisions, d)
	}

	c.logger.LogClassification(ctx, len(resources), preserved, len(resources)-preserved)
	return decisions
}

func (c *Classifier) tagged(tags map[string]string) bool {
	return tags != nil && tags[c.tagKey] == c.tagValue
}

func (c *Classifier) matchPattern(r types.ResourceRecord) (string, bool) {
	for _, p := range c.patterns {
		needle := strings.ToLower(p.Match)
		if strings.Contains(strings.ToLower(r.ID), needle) ||
			strings.Contains(strings.ToLower(r.Name), needle) ||
			strings.Contains(strings.ToLower(r.ARN), needle) {
			return p.Reason, true
		}
	}
	return "", false
}

func decision(r types.ResourceRecord, outcome types.Outcome, reason string) types.Decision {
	return types.Decision{Resource: r, Outcome: outcome, Reason: reason}
}
