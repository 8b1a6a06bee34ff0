// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// markerPairs lists polarity-opposing phrase pairs. A pair fires only when
// one text carries the negated form and the other carries the plain form
// without it, so two texts expressing the same claim are never flagged.
var markerPairs = []struct {
	neg string
	pos string
}{
	{"cannot", "can"},
	{"is not", "is"},
	{"are not", "are"},
	{"does not", "does"},
	{"false", "true"},
	{"rejects", "accepts"},
	{"decreases", "increases"},
}

// subjectOverlapMin is the minimum token overlap two texts need before a
// polarity or numeric signal counts as a contradiction about the same
// subject rather than two unrelated statements.
const subjectOverlapMin = 0.25

// numericOverlapMin is the stricter overlap required for numeric conflicts,
// since differing numbers are only contradictory about a shared subject.
const numericOverlapMin = 0.5

// DetectContradictions is the default detector: it compares pairs of
// survivors for polarity-opposing lexical markers and for directly
// conflicting numeric claims about the same subject (R4.1, R4.2). The scan
// is deterministic given identical input.
func DetectContradictions(items []types.ScoredEvidenceItem) []types.ContradictionRecord {
	var records []types.ContradictionRecord

	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if signal, ok := contradicts(items[i].Text, items[j].Text); ok {
				records = append(records, types.ContradictionRecord{
					ItemA:  items[i].ID,
					ItemB:  items[j].ID,
					Signal: signal,
				})
			}
		}
	}

	return records
}

// contradicts reports whether two texts express mutually exclusive claims
// and names the signal that flagged them.
func contradicts(a, b string) (string, bool) {
	wordsA := tokenize(a)
	wordsB := tokenize(b)

	overlap := tokenOverlap(wordsA, wordsB)
	if overlap < subjectOverlapMin {
		return "", false
	}

	for _, pair := range markerPairs {
		negA := hasPhrase(wordsA, pair.neg)
		negB := hasPhrase(wordsB, pair.neg)
		posA := hasPhrase(wordsA, pair.pos) && !negA
		posB := hasPhrase(wordsB, pair.pos) && !negB

		if (negA && posB) || (posA && negB) {
			return fmt.Sprintf("polarity:%s/%s", pair.pos, pair.neg), true
		}
	}

	if overlap >= numericOverlapMin {
		numsA := numbers(wordsA)
		numsB := numbers(wordsB)
		if len(numsA) > 0 && len(numsB) > 0 && !sameNumbers(numsA, numsB) {
			return "numeric-conflict", true
		}
	}

	return "", false
}

// tokenize lowercases the text and strips edge punctuation from each word.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.Trim(f, ".,;:!?()[]\"'")
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// tokenOverlap is the Jaccard overlap of two token slices.
func tokenOverlap(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, w := range a {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, w := range b {
		setB[w] = struct{}{}
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	return float64(intersection) / float64(len(setA)+len(setB)-intersection)
}

// hasPhrase reports whether the word sequence contains the phrase as
// consecutive whole words.
func hasPhrase(words []string, phrase string) bool {
	parts := strings.Fields(phrase)
	if len(parts) == 0 || len(parts) > len(words) {
		return false
	}
outer:
	for i := 0; i+len(parts) <= len(words); i++ {
		for k, p := range parts {
			if words[i+k] != p {
				continue outer
			}
		}
		return true
	}
	return false
}

// numbers extracts the numeric values appearing in the word sequence.
// Percent suffixes are stripped so "95%" and "95" compare equal.
func numbers(words []string) []float64 {
	var nums []float64
	for _, w := range words {
		w = strings.TrimSuffix(w, "%")
		if v, err := strconv.ParseFloat(w, 64); err == nil {
			nums = append(nums, v)
		}
	}
	return nums
}

// sameNumbers reports whether two numeric claim sets contain the same
// values, ignoring order and repetition.
func sameNumbers(a, b []float64) bool {
	setA := make(map[float64]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[float64]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for v := range setA {
		if _, ok := setB[v]; !ok {
			return false
		}
	}
	return true
}
