package synthesize

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// --- test helpers ---

type stubGenerator struct {
	text  string
	err   error
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, sectionPrompt string, supporting []string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func survivor(id string, cat types.SourceCategory, text string, quality float64) types.ScoredEvidenceItem {
	return types.ScoredEvidenceItem{
		EvidenceItem: types.EvidenceItem{
			ID:        id,
			Category:  cat,
			Text:      text,
			Relevance: quality,
			Origin:    types.OriginRef{ID: "origin-" + id, Title: "Origin " + id},
		},
		Quality: quality,
	}
}

func testSynthCfg() types.SynthesisConfig {
	return types.SynthesisConfig{
		MaxItemsPerSection: 5,
		MaxSummaryItems:    3,
		MaxAnswerLength:    5000,
	}
}

func filtered(survivors ...types.ScoredEvidenceItem) types.FilteredEvidence {
	return types.FilteredEvidence{QueryID: "q1", Survivors: survivors}
}

var testQ = types.Query{ID: "q1", Text: "what is efficient attention"}

func closeTo(got, want float64) bool {
	diff := got - want
	return diff < 1e-9 && diff > -1e-9
}

// --- tests ---

func TestSynthesizeEmptyEvidence(t *testing.T) {
	answer := Synthesize(context.Background(), testQ, filtered(), nil, testSynthCfg(), io.Discard)

	if !answer.Degraded {
		t.Error("empty evidence must mark the answer degraded")
	}
	if answer.OverallConfidence > 0.3 {
		t.Errorf("OverallConfidence = %f, want <= 0.3", answer.OverallConfidence)
	}
	if len(answer.Sections) != 0 || len(answer.Sources) != 0 {
		t.Errorf("empty-evidence answer must have no sections or sources: %+v", answer)
	}
	if answer.Summary == "" {
		t.Error("summary must explain that no evidence was found")
	}
	if answer.QueryID != "q1" {
		t.Errorf("QueryID = %q", answer.QueryID)
	}
}

func TestSynthesizeSectionOrder(t *testing.T) {
	evidence := filtered(
		survivor("a1", types.SourceArxiv, "arxiv one", 0.9),
		survivor("w1", types.SourceWeb, "web one", 0.85),
		survivor("w2", types.SourceWeb, "web two", 0.8),
		survivor("a2", types.SourceArxiv, "arxiv two", 0.7),
		survivor("i1", types.SourceIndex, "index one", 0.95),
	)

	gen := &stubGenerator{text: "generated body"}
	answer := Synthesize(context.Background(), testQ, evidence, gen, testSynthCfg(), io.Discard)

	if len(answer.Sections) != 3 {
		t.Fatalf("len(Sections) = %d, want 3", len(answer.Sections))
	}

	// Two two-item groups come before the single-item group; between the
	// ties, arXiv's best (0.9) beats web's best (0.85).
	wantOrder := []string{"From Academic Papers", "From Web Search", "From Indexed Documents"}
	for i, want := range wantOrder {
		if answer.Sections[i].Heading != want {
			t.Errorf("Sections[%d].Heading = %q, want %q", i, answer.Sections[i].Heading, want)
		}
	}
	if answer.Degraded {
		t.Error("successful generation must not be degraded")
	}
	if gen.calls != 3 {
		t.Errorf("generator called %d times, want once per section", gen.calls)
	}
}

func TestSynthesizeSectionConfidenceIsMeanQuality(t *testing.T) {
	evidence := filtered(
		survivor("a1", types.SourceArxiv, "one", 0.9),
		survivor("a2", types.SourceArxiv, "two", 0.7),
	)

	answer := Synthesize(context.Background(), testQ, evidence, &stubGenerator{text: "x"}, testSynthCfg(), io.Discard)

	if len(answer.Sections) != 1 {
		t.Fatalf("len(Sections) = %d", len(answer.Sections))
	}
	want := (0.9 + 0.7) / 2
	if got := answer.Sections[0].Confidence; !closeTo(got, want) {
		t.Errorf("Confidence = %f, want %f", got, want)
	}
}

func TestSynthesizeGeneratorFailureFallsBack(t *testing.T) {
	evidence := filtered(
		survivor("a1", types.SourceArxiv, "the first claim text", 0.9),
		survivor("a2", types.SourceArxiv, "the second claim text", 0.8),
	)

	var log strings.Builder
	gen := &stubGenerator{err: errors.New("api down")}
	answer := Synthesize(context.Background(), testQ, evidence, gen, testSynthCfg(), &log)

	if !answer.Degraded {
		t.Error("generator failure must mark the answer degraded")
	}
	body := answer.Sections[0].Body
	if !strings.Contains(body, "the first claim text") || !strings.Contains(body, "the second claim text") {
		t.Errorf("extractive fallback missing item text: %q", body)
	}
	if !strings.Contains(log.String(), "warning: generator failed") {
		t.Errorf("degradation not logged: %q", log.String())
	}
}

func TestSynthesizeNilGeneratorIsExtractive(t *testing.T) {
	evidence := filtered(survivor("a1", types.SourceArxiv, "claim text", 0.9))

	answer := Synthesize(context.Background(), testQ, evidence, nil, testSynthCfg(), io.Discard)

	if !answer.Degraded {
		t.Error("running without a generator is a degraded mode")
	}
	if !strings.Contains(answer.Sections[0].Body, "claim text") {
		t.Errorf("Body = %q", answer.Sections[0].Body)
	}
}

func TestSynthesizePerspectiveWeightsSumToOne(t *testing.T) {
	evidence := filtered(
		survivor("a", types.SourceArxiv, "the compiler can vectorize this", 0.9),
		survivor("b", types.SourceWeb, "the compiler cannot vectorize this", 0.8),
	)
	evidence.Contradictions = []types.ContradictionRecord{
		{ItemA: "a", ItemB: "b", Signal: "polarity:can/cannot"},
	}

	answer := Synthesize(context.Background(), testQ, evidence, &stubGenerator{text: "x"}, testSynthCfg(), io.Discard)

	if len(answer.Perspectives) != 2 {
		t.Fatalf("len(Perspectives) = %d, want 2", len(answer.Perspectives))
	}
	sum := answer.Perspectives[0].Weight + answer.Perspectives[1].Weight
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("perspective weights sum to %f, want 1.0", sum)
	}
	if !strings.Contains(answer.Summary, "disagree") {
		t.Errorf("summary must mention the disagreement: %q", answer.Summary)
	}
}

func TestSynthesizeContradictionPenalty(t *testing.T) {
	base := filtered(
		survivor("a", types.SourceArxiv, "claim one entirely", 0.9),
		survivor("b", types.SourceWeb, "claim two entirely", 0.8),
	)

	clean := Synthesize(context.Background(), testQ, base, &stubGenerator{text: "x"}, testSynthCfg(), io.Discard)

	conflicted := base
	conflicted.Contradictions = []types.ContradictionRecord{{ItemA: "a", ItemB: "b", Signal: "s"}}
	penalized := Synthesize(context.Background(), testQ, conflicted, &stubGenerator{text: "x"}, testSynthCfg(), io.Discard)

	got := clean.OverallConfidence - penalized.OverallConfidence
	if diff := got - contradictionPenalty; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("contradiction penalty = %f, want %f", got, contradictionPenalty)
	}
}

func TestOverallConfidenceBounds(t *testing.T) {
	tests := []struct {
		name           string
		sections       []types.AnswerSection
		contradictions int
	}{
		{"no sections", nil, 0},
		{"high confidence many sections", []types.AnswerSection{
			{Confidence: 1.0}, {Confidence: 1.0}, {Confidence: 1.0}, {Confidence: 1.0},
		}, 0},
		{"low confidence with contradiction", []types.AnswerSection{{Confidence: 0.05}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []types.ContradictionRecord
			for i := 0; i < tt.contradictions; i++ {
				records = append(records, types.ContradictionRecord{})
			}
			got := overallConfidence(tt.sections, records)
			if got < 0 || got > 1 {
				t.Errorf("overallConfidence = %f, outside [0,1]", got)
			}
		})
	}
}

func TestOverallConfidenceFormula(t *testing.T) {
	sections := []types.AnswerSection{
		{Confidence: 0.8},
		{Confidence: 0.6},
	}
	want := (0.8+0.6)/2 + 2*sectionBonusPerSection
	if got := overallConfidence(sections, nil); !closeTo(got, want) {
		t.Errorf("overallConfidence = %f, want %f", got, want)
	}

	// Bonus caps at sectionBonusCap regardless of section count.
	many := make([]types.AnswerSection, 6)
	for i := range many {
		many[i].Confidence = 0.5
	}
	want = 0.5 + sectionBonusCap
	if got := overallConfidence(many, nil); !closeTo(got, want) {
		t.Errorf("capped bonus: overallConfidence = %f, want %f", got, want)
	}
}

func TestSynthesizeAttributionDedup(t *testing.T) {
	a := survivor("a1", types.SourceArxiv, "first chunk", 0.7)
	b := survivor("a2", types.SourceArxiv, "second chunk", 0.9)
	// Both items come from the same origin document.
	b.Origin = a.Origin

	answer := Synthesize(context.Background(), testQ, filtered(a, b), &stubGenerator{text: "x"}, testSynthCfg(), io.Discard)

	if len(answer.Sources) != 1 {
		t.Fatalf("len(Sources) = %d, want 1 after origin dedup", len(answer.Sources))
	}
	if answer.Sources[0].Relevance != 0.9 {
		t.Errorf("Relevance = %f, want the best contributing item's 0.9", answer.Sources[0].Relevance)
	}
}

func TestSynthesizeCapsItemsPerSection(t *testing.T) {
	cfg := testSynthCfg()
	cfg.MaxItemsPerSection = 2

	evidence := filtered(
		survivor("a1", types.SourceArxiv, "one", 0.9),
		survivor("a2", types.SourceArxiv, "two", 0.8),
		survivor("a3", types.SourceArxiv, "three", 0.7),
	)

	answer := Synthesize(context.Background(), testQ, evidence, &stubGenerator{text: "x"}, cfg, io.Discard)

	if got := len(answer.Sections[0].EvidenceIDs); got != 2 {
		t.Errorf("section cites %d items, want 2", got)
	}
}

func TestFormatText(t *testing.T) {
	answer := Synthesize(context.Background(), testQ,
		filtered(survivor("a1", types.SourceArxiv, "claim text", 0.9)),
		&stubGenerator{text: "generated body"}, testSynthCfg(), io.Discard)

	var buf strings.Builder
	FormatText(answer, &buf)
	out := buf.String()

	for _, want := range []string{"From Academic Papers", "generated body", "Overall confidence", "Origin a1"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted output missing %q:\n%s", want, out)
		}
	}
}

func TestAnswerFileRoundTrip(t *testing.T) {
	answer := Synthesize(context.Background(), testQ,
		filtered(survivor("a1", types.SourceArxiv, "claim text", 0.9)),
		&stubGenerator{text: "body"}, testSynthCfg(), io.Discard)

	path := t.TempDir() + "/answer.yaml"
	if err := WriteAnswerFile(path, testQ, answer); err != nil {
		t.Fatal(err)
	}

	af, err := ReadAnswerFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if af.Query.Text != testQ.Text {
		t.Errorf("Query.Text = %q", af.Query.Text)
	}
	if af.Answer.ID != answer.ID || len(af.Answer.Sections) != 1 {
		t.Errorf("answer not round-tripped: %+v", af.Answer)
	}
	if af.Summary.Confidence != answer.OverallConfidence {
		t.Errorf("Summary.Confidence = %f", af.Summary.Confidence)
	}
}

func TestOneLine(t *testing.T) {
	answer := types.FinalAnswer{
		ID:                "ans-1",
		Sections:          []types.AnswerSection{{Heading: "h"}},
		Sources:           []types.SourceAttribution{{ID: "s1"}, {ID: "s2"}},
		OverallConfidence: 0.72,
	}

	got := OneLine(answer)
	for _, want := range []string{"ans-1", "1 sections", "2 sources", "0.72"} {
		if !strings.Contains(got, want) {
			t.Errorf("OneLine() = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, "degraded") {
		t.Errorf("OneLine() = %q, must not flag a healthy answer", got)
	}

	answer.Degraded = true
	if got := OneLine(answer); !strings.Contains(got, "degraded") {
		t.Errorf("OneLine() = %q, missing degraded flag", got)
	}
}
