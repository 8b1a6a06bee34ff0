// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import "strings"

// Similarity computes surface-text similarity as Jaccard overlap of
// lowercased token sets (R2.2). It returns a value in [0,1]; two empty
// texts have similarity 0.
func Similarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

// tokenSet returns the set of lowercased whitespace-separated tokens.
func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		set[tok] = struct{}{}
	}
	return set
}
