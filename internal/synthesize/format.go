// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// FormatText writes the answer as a human-readable report to w (R5.3).
func FormatText(answer types.FinalAnswer, w io.Writer) {
	fmt.Fprintln(w, answer.Summary)

	for _, section := range answer.Sections {
		fmt.Fprintf(w, "\n## %s\n\n%s\n", section.Heading, section.Body)
		fmt.Fprintf(w, "\n(section confidence %.2f, %d supporting items)\n",
			section.Confidence, len(section.EvidenceIDs))
	}

	if len(answer.Perspectives) > 0 {
		fmt.Fprintf(w, "\n## Disagreements\n\n")
		for i := 0; i < len(answer.Perspectives)-1; i += 2 {
			a, b := answer.Perspectives[i], answer.Perspectives[i+1]
			fmt.Fprintf(w, "- %s (weight %.2f)\n  vs.\n  %s (weight %.2f)\n",
				a.Claim, a.Weight, b.Claim, b.Weight)
		}
	}

	if len(answer.Sources) > 0 {
		fmt.Fprintf(w, "\n## Sources\n\n")
		for i, src := range answer.Sources {
			line := src.Title
			if line == "" {
				line = src.ID
			}
			if src.Locator != "" && src.Locator != line {
				line += " — " + src.Locator
			}
			fmt.Fprintf(w, "%d. [%s] %s\n", i+1, src.Category, line)
		}
	}

	fmt.Fprintf(w, "\nOverall confidence: %.2f", answer.OverallConfidence)
	if answer.Degraded {
		fmt.Fprint(w, " (degraded)")
	}
	fmt.Fprintln(w)

	if answer.Timing.Total > 0 {
		fmt.Fprintf(w, "Answered in %v (retrieval %v, evaluation %v, synthesis %v; %d sources ok, %d failed)\n",
			answer.Timing.Total.Round(timeRound),
			answer.Timing.Retrieval.Round(timeRound),
			answer.Timing.Evaluation.Round(timeRound),
			answer.Timing.Synthesis.Round(timeRound),
			len(answer.Timing.SourcesSucceeded), len(answer.Timing.SourcesFailed))
	}
}

const timeRound = time.Millisecond

// FormatJSON writes the answer as indented JSON to w (R5.4). The field
// names and nesting are a stable contract for presentation layers.
func FormatJSON(answer types.FinalAnswer, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(answer)
}

// OneLine returns a terse single-line summary for logs.
func OneLine(answer types.FinalAnswer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "answer %s: %d sections, %d sources, confidence %.2f",
		answer.ID, len(answer.Sections), len(answer.Sources), answer.OverallConfidence)
	if answer.Degraded {
		b.WriteString(", degraded")
	}
	return b.String()
}
