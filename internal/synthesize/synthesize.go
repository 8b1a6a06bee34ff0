// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesize assembles filtered evidence into a cited,
// confidence-scored answer.
// Implements: prd012-synthesis (R1-R5);
//
//	docs/ARCHITECTURE § Synthesizer.
package synthesize

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Generator renders one section's prose strictly from the supporting
// passages. The contract forbids introducing claims absent from the input.
// Any failure triggers extractive fallback; a generator is never required
// for the pipeline to answer.
type Generator interface {
	Generate(ctx context.Context, sectionPrompt string, supporting []string) (string, error)
}

// sectionHeadings names the answer section for each standard category.
var sectionHeadings = map[types.SourceCategory]string{
	types.SourceIndex:  "From Indexed Documents",
	types.SourceWeb:    "From Web Search",
	types.SourceArxiv:  "From Academic Papers",
	types.SourceMemory: "From Conversation History",
}

// emptyAnswerConfidence is the overall confidence of an answer produced
// with zero surviving evidence.
const emptyAnswerConfidence = 0.2

// Confidence formula constants (R4.1): a small bonus per section rewards
// multi-source corroboration; a contradiction takes a bounded haircut
// rather than disqualifying the answer.
const (
	sectionBonusPerSection = 0.05
	sectionBonusCap        = 0.1
	contradictionPenalty   = 0.2
)

// Synthesize turns filtered evidence into a FinalAnswer. It never returns
// an error: with no survivors it produces an apologetic low-confidence
// answer (R1.2), and a failing generator degrades to extractive
// summarization (R3.4).
func Synthesize(ctx context.Context, query types.Query, evidence types.FilteredEvidence, gen Generator, cfg types.SynthesisConfig, w io.Writer) types.FinalAnswer {
	answer := types.FinalAnswer{
		ID:      uuid.NewString(),
		QueryID: query.ID,
	}

	if len(evidence.Survivors) == 0 {
		answer.Summary = "No qualifying evidence was found for this question. " +
			"The configured sources either returned nothing relevant or their results did not meet the quality threshold."
		answer.OverallConfidence = emptyAnswerConfidence
		answer.Degraded = true
		return answer
	}

	groups := groupByCategory(evidence.Survivors)

	for _, g := range groups {
		items := g.items
		if cfg.MaxItemsPerSection > 0 && len(items) > cfg.MaxItemsPerSection {
			items = items[:cfg.MaxItemsPerSection]
		}

		body, fellBack := sectionBody(ctx, query, g.category, items, gen, w)
		if fellBack {
			answer.Degraded = true
		}

		answer.Sections = append(answer.Sections, types.AnswerSection{
			Heading:     headingFor(g.category),
			Body:        body,
			EvidenceIDs: itemIDs(items),
			Confidence:  meanQuality(items),
		})
	}

	answer.Perspectives = buildPerspectives(evidence)
	answer.Sources = buildAttributions(evidence.Survivors)
	answer.Summary = buildSummary(evidence, cfg)
	answer.OverallConfidence = overallConfidence(answer.Sections, evidence.Contradictions)

	return answer
}

// categoryGroup holds one category's survivors in quality order.
type categoryGroup struct {
	category types.SourceCategory
	items    []types.ScoredEvidenceItem
}

// groupByCategory splits survivors by source category and orders the
// groups: more supporting items first, ties broken by the highest single
// item score, then by category name (R2.1).
func groupByCategory(survivors []types.ScoredEvidenceItem) []categoryGroup {
	byCat := make(map[types.SourceCategory][]types.ScoredEvidenceItem)
	for _, item := range survivors {
		byCat[item.Category] = append(byCat[item.Category], item)
	}

	groups := make([]categoryGroup, 0, len(byCat))
	for cat, items := range byCat {
		groups = append(groups, categoryGroup{category: cat, items: items})
	}

	// Survivors arrive sorted by quality, so items[0] is each group's best.
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].items) != len(groups[j].items) {
			return len(groups[i].items) > len(groups[j].items)
		}
		if groups[i].items[0].Quality != groups[j].items[0].Quality {
			return groups[i].items[0].Quality > groups[j].items[0].Quality
		}
		return groups[i].category < groups[j].category
	})

	return groups
}

// sectionBody renders one section's text, reporting whether it fell back
// to extractive summarization.
func sectionBody(ctx context.Context, query types.Query, cat types.SourceCategory, items []types.ScoredEvidenceItem, gen Generator, w io.Writer) (string, bool) {
	if gen == nil {
		return extractiveBody(items), true
	}

	prompt := fmt.Sprintf("Question: %s\n\nWrite the %q part of the answer.", query.Text, headingFor(cat))
	supporting := make([]string, len(items))
	for i, item := range items {
		supporting[i] = item.Text
	}

	body, err := gen.Generate(ctx, prompt, supporting)
	if err != nil {
		fmt.Fprintf(w, "warning: generator failed for %s section, using extractive fallback: %v\n", cat, err)
		return extractiveBody(items), true
	}
	return body, false
}

// extractiveBody concatenates the items' text in quality order (R3.4).
func extractiveBody(items []types.ScoredEvidenceItem) string {
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = strings.TrimSpace(item.Text)
	}
	return strings.Join(texts, "\n\n")
}

// buildSummary assembles the answer summary from the top survivors. When
// contradictions exist the summary says so instead of silently picking a
// side (R5.2).
func buildSummary(evidence types.FilteredEvidence, cfg types.SynthesisConfig) string {
	maxItems := cfg.MaxSummaryItems
	if maxItems <= 0 {
		maxItems = 3
	}

	var parts []string
	if len(evidence.Contradictions) > 0 {
		parts = append(parts,
			fmt.Sprintf("Note: the retrieved sources disagree on %d point(s); both sides are presented below.",
				len(evidence.Contradictions)))
	}
	for i, item := range evidence.Survivors {
		if i >= maxItems {
			break
		}
		parts = append(parts, strings.TrimSpace(item.Text))
	}

	summary := strings.Join(parts, " ")
	if cfg.MaxAnswerLength > 0 && len(summary) > cfg.MaxAnswerLength {
		summary = summary[:cfg.MaxAnswerLength]
	}
	return summary
}

// buildPerspectives converts each contradiction into two labeled
// perspectives, one per side, weighted by each side's share of the
// supporting items (R5.1). With one item per side the weights are 0.5
// each; the weights of a pair always sum to 1.
func buildPerspectives(evidence types.FilteredEvidence) []types.Perspective {
	byID := make(map[string]types.ScoredEvidenceItem, len(evidence.Survivors))
	for _, item := range evidence.Survivors {
		byID[item.ID] = item
	}

	var perspectives []types.Perspective
	for _, record := range evidence.Contradictions {
		a, okA := byID[record.ItemA]
		b, okB := byID[record.ItemB]
		if !okA || !okB {
			continue
		}

		total := 2.0
		perspectives = append(perspectives,
			types.Perspective{
				Claim:       strings.TrimSpace(a.Text),
				EvidenceIDs: []string{a.ID},
				Confidence:  a.Quality,
				Weight:      1.0 / total,
			},
			types.Perspective{
				Claim:       strings.TrimSpace(b.Text),
				EvidenceIDs: []string{b.ID},
				Confidence:  b.Quality,
				Weight:      1.0 / total,
			},
		)
	}
	return perspectives
}

// buildAttributions deduplicates origins across all survivors, keeping
// each origin's best contributing relevance (R4.3).
func buildAttributions(survivors []types.ScoredEvidenceItem) []types.SourceAttribution {
	index := make(map[string]int)
	var attributions []types.SourceAttribution

	for _, item := range survivors {
		originID := item.Origin.ID
		if originID == "" {
			originID = item.ID
		}

		if i, ok := index[originID]; ok {
			if item.Relevance > attributions[i].Relevance {
				attributions[i].Relevance = item.Relevance
			}
			continue
		}

		index[originID] = len(attributions)
		attributions = append(attributions, types.SourceAttribution{
			ID:        originID,
			Category:  item.Category,
			Title:     item.Origin.Title,
			Locator:   item.Origin.Locator,
			Relevance: item.Relevance,
		})
	}
	return attributions
}

// overallConfidence combines section confidences with the section-count
// bonus and the contradiction penalty, clamped to [0,1] (R4.1).
func overallConfidence(sections []types.AnswerSection, contradictions []types.ContradictionRecord) float64 {
	if len(sections) == 0 {
		return emptyAnswerConfidence
	}

	sum := 0.0
	for _, s := range sections {
		sum += s.Confidence
	}
	confidence := sum / float64(len(sections))

	bonus := sectionBonusPerSection * float64(len(sections))
	if bonus > sectionBonusCap {
		bonus = sectionBonusCap
	}
	confidence += bonus

	if len(contradictions) > 0 {
		confidence -= contradictionPenalty
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

func headingFor(cat types.SourceCategory) string {
	if h, ok := sectionHeadings[cat]; ok {
		return h
	}
	name := string(cat)
	if name == "" {
		return "From Other Sources"
	}
	return "From " + strings.ToUpper(name[:1]) + name[1:]
}

func itemIDs(items []types.ScoredEvidenceItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func meanQuality(items []types.ScoredEvidenceItem) float64 {
	if len(items) == 0 {
		return 0
	}
	sum := 0.0
	for _, item := range items {
		sum += item.Quality
	}
	return sum / float64(len(items))
}
