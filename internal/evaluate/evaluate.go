// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate scores, filters, and deduplicates aggregated evidence.
// Implements: prd011-evaluation (R1-R5);
//
//	docs/ARCHITECTURE § Evaluator.
package evaluate

import (
	"sort"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Quality factor weights. The duplicate penalty is subtracted.
const (
	weightReputation = 0.30
	weightRecency    = 0.20
	weightRelevance  = 0.40
	weightDuplicate  = 0.10
)

// timeNow returns the reference time for recency scoring. Declared as a
// var so tests can pin it.
var timeNow = time.Now

// Detector finds pairs of surviving items with mutually exclusive claims.
// Implementations must be deterministic given identical input and must not
// flag two items expressing the same claim. Per Strategy pattern
// (prd011-evaluation R4.3).
type Detector func(items []types.ScoredEvidenceItem) []types.ContradictionRecord

// Evaluate scores every item, removes sub-threshold and near-duplicate
// items, detects contradictions among survivors, and returns the filtered
// evidence with a removal record for every drop (R1-R4). It uses the
// default contradiction detector.
func Evaluate(evidence types.AggregatedEvidence, cfg types.ScoringConfig) types.FilteredEvidence {
	return EvaluateWith(evidence, cfg, DetectContradictions)
}

// EvaluateWith is Evaluate with a caller-supplied contradiction detector.
func EvaluateWith(evidence types.AggregatedEvidence, cfg types.ScoringConfig, detect Detector) types.FilteredEvidence {
	now := timeNow()

	// Process in descending adapter-relevance order (ties broken by ID)
	// so duplicate resolution is deterministic regardless of source
	// completion order: the higher-relevance member of a pair is always
	// scored first and therefore always the survivor.
	items := make([]types.EvidenceItem, len(evidence.Items))
	copy(items, evidence.Items)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Relevance != items[j].Relevance {
			return items[i].Relevance > items[j].Relevance
		}
		return items[i].ID < items[j].ID
	})

	filtered := types.FilteredEvidence{QueryID: evidence.QueryID}

	for _, item := range items {
		breakdown := types.QualityBreakdown{
			Reputation: cfg.Reputation(item.Category),
			Recency:    recencyScore(item.Timestamp, now),
			Relevance:  item.Relevance,
		}

		// An accepted survivor that already covers this item's text
		// removes it outright rather than merely penalizing it.
		dupOf := ""
		for _, kept := range filtered.Survivors {
			if Similarity(item.Text, kept.Text) > cfg.SimilarityThreshold {
				dupOf = kept.ID
				break
			}
		}
		if dupOf != "" {
			breakdown.DuplicatePenalty = 1.0
		}

		scored := types.ScoredEvidenceItem{
			EvidenceItem: item,
			Quality:      qualityScore(breakdown),
			Breakdown:    breakdown,
		}

		switch {
		case dupOf != "":
			filtered.Removed = append(filtered.Removed, removalRecord(scored, types.DuplicateOf(dupOf)))
		case scored.Quality < cfg.Threshold:
			filtered.Removed = append(filtered.Removed, removalRecord(scored, types.RemovedBelowThreshold))
		default:
			filtered.Survivors = append(filtered.Survivors, scored)
		}
	}

	sort.SliceStable(filtered.Survivors, func(i, j int) bool {
		if filtered.Survivors[i].Quality != filtered.Survivors[j].Quality {
			return filtered.Survivors[i].Quality > filtered.Survivors[j].Quality
		}
		return filtered.Survivors[i].ID < filtered.Survivors[j].ID
	})

	if len(filtered.Survivors) > 0 {
		sum := 0.0
		for _, s := range filtered.Survivors {
			sum += s.Quality
		}
		filtered.MeanQuality = sum / float64(len(filtered.Survivors))
	}

	if detect != nil {
		filtered.Contradictions = detect(filtered.Survivors)
	}

	return filtered
}

// qualityScore combines the factor breakdown into a score clamped to [0,1].
func qualityScore(b types.QualityBreakdown) float64 {
	q := weightReputation*b.Reputation +
		weightRecency*b.Recency +
		weightRelevance*b.Relevance -
		weightDuplicate*b.DuplicatePenalty
	return clamp(q)
}

// Recency bucket boundaries.
const (
	monthAge    = 30 * 24 * time.Hour
	yearAge     = 365 * 24 * time.Hour
	fiveYearAge = 5 * 365 * 24 * time.Hour
)

// recencyScore returns the monotonic age decay for an item's timestamp.
// An undated item is treated as recent: absence of a date is not evidence
// of staleness.
func recencyScore(ts time.Time, now time.Time) float64 {
	if ts.IsZero() {
		return 1.0
	}
	age := now.Sub(ts)
	switch {
	case age < monthAge:
		return 1.0
	case age < yearAge:
		return 0.8
	case age < fiveYearAge:
		return 0.5
	default:
		return 0.2
	}
}

func removalRecord(item types.ScoredEvidenceItem, reason string) types.RemovalRecord {
	return types.RemovalRecord{
		ItemID:      item.ID,
		Reason:      reason,
		Quality:     item.Quality,
		Category:    item.Category,
		TextPreview: preview(item.Text),
	}
}

const previewLen = 200

func preview(text string) string {
	if len(text) <= previewLen {
		return text
	}
	return text[:previewLen]
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
