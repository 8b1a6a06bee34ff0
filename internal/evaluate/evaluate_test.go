// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func testCfg() types.ScoringConfig {
	return types.ScoringConfig{
		Threshold:           0.6,
		SimilarityThreshold: 0.9,
		ReputationByCategory: map[types.SourceCategory]float64{
			types.SourceArxiv:  0.95,
			types.SourceIndex:  0.80,
			types.SourceWeb:    0.70,
			types.SourceMemory: 0.60,
		},
	}
}

func aggregated(items ...types.EvidenceItem) types.AggregatedEvidence {
	return types.AggregatedEvidence{QueryID: "q1", Items: items}
}

// --- Recency ---

func TestRecencyScore(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ts   time.Time
		want float64
	}{
		{"undated", time.Time{}, 1.0},
		{"one week old", now.Add(-7 * 24 * time.Hour), 1.0},
		{"six months old", now.Add(-180 * 24 * time.Hour), 0.8},
		{"two years old", now.Add(-2 * 365 * 24 * time.Hour), 0.5},
		{"ten years old", now.Add(-10 * 365 * 24 * time.Hour), 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recencyScore(tt.ts, now); got != tt.want {
				t.Errorf("recencyScore = %f, want %f", got, tt.want)
			}
		})
	}
}

// --- Scoring ---

func TestQualityScoreDeterministic(t *testing.T) {
	item := types.EvidenceItem{
		ID:        "a",
		Category:  types.SourceArxiv,
		Text:      "transformers dominate sequence modeling",
		Relevance: 0.9,
	}

	out := Evaluate(aggregated(item), testCfg())
	if len(out.Survivors) != 1 {
		t.Fatalf("len(Survivors) = %d, want 1", len(out.Survivors))
	}

	rep, rec, rel := 0.95, 1.0, 0.9
	want := weightReputation*rep + weightRecency*rec + weightRelevance*rel
	if got := out.Survivors[0].Quality; got != want {
		t.Errorf("Quality = %v, want %v", got, want)
	}

	// Same input, same config: bit-for-bit identical output.
	again := Evaluate(aggregated(item), testCfg())
	if diff := cmp.Diff(out, again); diff != "" {
		t.Errorf("Evaluate is not deterministic (-first +second):\n%s", diff)
	}
}

func TestQualityBreakdownRetained(t *testing.T) {
	item := types.EvidenceItem{
		ID:        "a",
		Category:  types.SourceMemory,
		Text:      "short note",
		Relevance: 0.1,
	}

	out := Evaluate(aggregated(item), testCfg())
	if len(out.Removed) != 1 {
		t.Fatalf("len(Removed) = %d, want 1", len(out.Removed))
	}
	r := out.Removed[0]
	if r.Reason != types.RemovedBelowThreshold {
		t.Errorf("Reason = %q, want %q", r.Reason, types.RemovedBelowThreshold)
	}
	if r.Quality <= 0 {
		t.Errorf("removal record should carry the computed quality, got %f", r.Quality)
	}
	if r.Category != types.SourceMemory {
		t.Errorf("Category = %q", r.Category)
	}
}

func TestUnknownCategoryReputationDefault(t *testing.T) {
	cfg := testCfg()
	item := types.EvidenceItem{ID: "a", Category: "weird", Text: "text", Relevance: 1.0}

	out := Evaluate(aggregated(item), cfg)
	if len(out.Survivors) != 1 {
		t.Fatalf("len(Survivors) = %d, want 1", len(out.Survivors))
	}
	if got := out.Survivors[0].Breakdown.Reputation; got != 0.5 {
		t.Errorf("Reputation = %f, want 0.5 for unknown category", got)
	}
}

// --- Threshold boundary ---

func TestThresholdBoundaryKeepsExactMatch(t *testing.T) {
	cfg := testCfg()
	cfg.ReputationByCategory["exact"] = 1.0

	// reputation 1.0, recency 1.0 (undated), relevance 0.25:
	// 0.30 + 0.20 + 0.10 = 0.60, exactly the threshold.
	item := types.EvidenceItem{ID: "a", Category: "exact", Text: "boundary case", Relevance: 0.25}

	out := Evaluate(aggregated(item), cfg)
	if len(out.Survivors) != 1 {
		t.Fatalf("item at exact threshold must be kept; removed = %+v", out.Removed)
	}
}

// --- Deduplication ---

func TestDeduplicateKeepsHigherRelevance(t *testing.T) {
	text := "the attention mechanism replaced recurrence in sequence models"
	hi := types.EvidenceItem{ID: "hi", Category: types.SourceArxiv, Text: text, Relevance: 0.8}
	lo := types.EvidenceItem{ID: "lo", Category: types.SourceArxiv, Text: text, Relevance: 0.75}

	// Order of input must not matter.
	for _, items := range [][]types.EvidenceItem{{hi, lo}, {lo, hi}} {
		out := Evaluate(aggregated(items...), testCfg())
		if len(out.Survivors) != 1 {
			t.Fatalf("len(Survivors) = %d, want 1", len(out.Survivors))
		}
		if out.Survivors[0].ID != "hi" {
			t.Errorf("survivor = %q, want the higher-relevance item", out.Survivors[0].ID)
		}
		if len(out.Removed) != 1 {
			t.Fatalf("len(Removed) = %d, want 1", len(out.Removed))
		}
		if got, want := out.Removed[0].Reason, types.DuplicateOf("hi"); got != want {
			t.Errorf("Reason = %q, want %q", got, want)
		}
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	text := "the attention mechanism replaced recurrence in sequence models"
	items := aggregated(
		types.EvidenceItem{ID: "a", Category: types.SourceArxiv, Text: text, Relevance: 0.8},
		types.EvidenceItem{ID: "b", Category: types.SourceWeb, Text: text, Relevance: 0.75},
		types.EvidenceItem{ID: "c", Category: types.SourceIndex, Text: "a completely different claim about databases", Relevance: 0.9},
	)

	first := Evaluate(items, testCfg())
	second := Evaluate(items, testCfg())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Evaluate not idempotent (-first +second):\n%s", diff)
	}
}

func TestDedupOnlyAgainstAcceptedSurvivors(t *testing.T) {
	// The low-quality item is rejected by threshold; a later item with
	// the same text must not be treated as its duplicate.
	text := "low quality claim about an obscure topic"
	rejected := types.EvidenceItem{ID: "a", Category: types.SourceMemory, Text: text, Relevance: 0.9}
	cfg := testCfg()
	cfg.ReputationByCategory[types.SourceMemory] = 0.0
	cfg.Threshold = 0.7

	out := Evaluate(aggregated(rejected, types.EvidenceItem{
		ID: "b", Category: types.SourceArxiv, Text: text, Relevance: 0.8,
	}), cfg)

	for _, r := range out.Removed {
		if _, isDup := r.IsDuplicate(); isDup && r.ItemID == "b" {
			t.Errorf("item b marked duplicate of a rejected item: %+v", r)
		}
	}
}

// --- Removal accounting ---

func TestRemovalAccounting(t *testing.T) {
	items := aggregated(
		types.EvidenceItem{ID: "a", Category: types.SourceArxiv, Text: "claim one about transformers", Relevance: 0.9},
		types.EvidenceItem{ID: "b", Category: types.SourceArxiv, Text: "claim one about transformers", Relevance: 0.8},
		types.EvidenceItem{ID: "c", Category: types.SourceMemory, Text: "weak unrelated remark", Relevance: 0.05},
		types.EvidenceItem{ID: "d", Category: types.SourceWeb, Text: "claim two about databases entirely", Relevance: 0.95},
	)

	out := Evaluate(items, testCfg())
	if got := len(out.Removed) + len(out.Survivors); got != len(items.Items) {
		t.Errorf("removed(%d) + survivors(%d) = %d, want %d",
			len(out.Removed), len(out.Survivors), got, len(items.Items))
	}

	seen := map[string]int{}
	for _, r := range out.Removed {
		seen[r.ItemID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("item %s has %d removal records, want exactly 1", id, n)
		}
	}
}

// --- Empty input ---

func TestEvaluateEmptyInput(t *testing.T) {
	out := Evaluate(aggregated(), testCfg())
	if len(out.Survivors) != 0 || len(out.Removed) != 0 {
		t.Errorf("empty input should produce empty output, got %+v", out)
	}
	if out.MeanQuality != 0 {
		t.Errorf("MeanQuality = %f, want 0 with no survivors", out.MeanQuality)
	}
}

// --- Survivor ordering ---

func TestSurvivorsSortedByQuality(t *testing.T) {
	items := aggregated(
		types.EvidenceItem{ID: "a", Category: types.SourceMemory, Text: "claim from memory store", Relevance: 0.9},
		types.EvidenceItem{ID: "b", Category: types.SourceArxiv, Text: "claim from academic paper", Relevance: 0.9},
		types.EvidenceItem{ID: "c", Category: types.SourceWeb, Text: "claim from web search hit", Relevance: 0.9},
	)

	out := Evaluate(items, testCfg())
	for i := 1; i < len(out.Survivors); i++ {
		if out.Survivors[i].Quality > out.Survivors[i-1].Quality {
			t.Errorf("survivors not sorted: [%d].Quality=%f > [%d].Quality=%f",
				i, out.Survivors[i].Quality, i-1, out.Survivors[i-1].Quality)
		}
	}
	if out.Survivors[0].Category != types.SourceArxiv {
		t.Errorf("highest reputation category should rank first, got %q", out.Survivors[0].Category)
	}
}

// --- Similarity ---

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "one two three", "one two three", 1.0},
		{"disjoint", "alpha beta", "gamma delta", 0.0},
		{"half overlap", "one two three four", "one two five six", 1.0 / 3.0},
		{"empty", "", "one", 0.0},
		{"case insensitive", "Alpha Beta", "alpha beta", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Similarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("x", 500)
	if got := preview(long); len(got) != previewLen {
		t.Errorf("len(preview) = %d, want %d", len(got), previewLen)
	}
	if got := preview("short"); got != "short" {
		t.Errorf("preview(short) = %q", got)
	}
}
