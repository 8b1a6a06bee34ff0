// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow drives the retrieval, evaluation, and synthesis stages
// under one global time budget. A stage failure degrades the answer; it
// never aborts the query. The controller is the only component allowed to
// decide between degrading and continuing.
// Implements: prd013-workflow (R1-R5);
//
//	docs/ARCHITECTURE § Workflow Controller.
package workflow

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/research-assistant/internal/evaluate"
	"github.com/pdiddy/research-assistant/internal/memory"
	"github.com/pdiddy/research-assistant/internal/retrieval"
	"github.com/pdiddy/research-assistant/internal/synthesize"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// MessageAppender is the slice of the conversation store the controller
// needs for post-answer persistence.
type MessageAppender interface {
	Append(ctx context.Context, msg memory.Message) error
}

// Deps carries the pluggable collaborators for one pipeline instance.
// Generator, Memory, and Detector may be nil; each absence is a degraded
// mode, not an error.
type Deps struct {
	Sources   []retrieval.Source
	Generator synthesize.Generator
	Memory    MessageAppender
	Detector  evaluate.Detector
}

// Run executes the full pipeline for one query and always returns a
// FinalAnswer (R1.1). The trace records each stage's timing, outcome, and
// any degradation taken.
func Run(ctx context.Context, query types.Query, deps Deps, cfg types.PipelineConfig, w io.Writer) (types.FinalAnswer, types.WorkflowTrace) {
	budget := query.Budget
	if budget <= 0 {
		budget = cfg.Workflow.GlobalTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	trace := types.WorkflowTrace{QueryID: query.ID, Start: time.Now()}

	// Retrieving.
	retrievalBudget := share(budget, cfg.Workflow.RetrievalShare)
	retrievalCtx, cancelRetrieval := context.WithTimeout(ctx, retrievalBudget)
	agg := retrieval.Retrieve(retrievalCtx, query, deps.Sources, cfg.Retrieval, w)
	cancelRetrieval()
	trace.Stages = append(trace.Stages, stageRecord(types.StageRetrieving, trace.Start, true,
		degradationFor(agg)))

	// Evaluating. Scoring is CPU-bound, so the deadline is enforced by
	// racing it in a goroutine; an overrun or panic passes the unfiltered
	// evidence straight through (R2.2).
	detect := deps.Detector
	if detect == nil {
		detect = evaluate.DetectContradictions
	}
	evalStart := time.Now()
	evidence, evalDegradation := runEvaluation(agg, cfg.Scoring, detect, share(budget, cfg.Workflow.EvaluationShare), w)
	trace.Stages = append(trace.Stages, stageRecord(types.StageEvaluating, evalStart,
		evalDegradation == "", evalDegradation))

	// Synthesizing. A failure here still yields an answer: the minimal
	// answer carries the raw evidence so nothing retrieved is lost (R3.2).
	synthStart := time.Now()
	answer, synthDegradation := runSynthesis(ctx, query, evidence, deps.Generator, cfg.Synthesis,
		share(budget, cfg.Workflow.SynthesisShare), w)
	trace.Stages = append(trace.Stages, stageRecord(types.StageSynthesizing, synthStart,
		synthDegradation == "", synthDegradation))

	if evalDegradation != "" || synthDegradation != "" {
		answer.Degraded = true
	}

	trace.End = time.Now()
	answer.Timing = types.TimingMetadata{
		Total:            trace.End.Sub(trace.Start),
		Retrieval:        agg.RetrievalTime,
		Evaluation:       trace.Stages[1].Duration(),
		Synthesis:        trace.Stages[2].Duration(),
		SourcesSucceeded: agg.Succeeded,
		SourcesFailed:    agg.Failed,
	}

	// Persisting. History writes are best-effort and never affect the
	// answer already in hand (R4.2).
	if deps.Memory != nil && query.SessionID != "" {
		persistStart := time.Now()
		degradation := persist(deps.Memory, query, answer, cfg.Workflow.MemoryTimeout, w)
		trace.Stages = append(trace.Stages, stageRecord(types.StagePersisting, persistStart,
			degradation == "", degradation))
		trace.End = time.Now()
	}

	return answer, trace
}

// share returns the stage's slice of the global budget.
func share(budget time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return budget
	}
	return time.Duration(float64(budget) * fraction)
}

func stageRecord(stage types.StageName, start time.Time, ok bool, degradation string) types.StageRecord {
	return types.StageRecord{
		Stage:       stage,
		Start:       start,
		End:         time.Now(),
		OK:          ok,
		Degradation: degradation,
	}
}

// degradationFor summarizes retrieval-stage losses for the trace. Partial
// source failure is expected operation, so the stage stays OK; the note
// records what was missing.
func degradationFor(agg types.AggregatedEvidence) string {
	if len(agg.Failed) == 0 {
		return ""
	}
	return fmt.Sprintf("%d of %d sources unavailable", len(agg.Failed), len(agg.Failed)+len(agg.Succeeded))
}

// runEvaluation races Evaluate against the stage deadline. On overrun or
// panic it returns the pass-through conversion of the aggregate with the
// degradation reason.
func runEvaluation(agg types.AggregatedEvidence, cfg types.ScoringConfig, detect evaluate.Detector, deadline time.Duration, w io.Writer) (types.FilteredEvidence, string) {
	type result struct {
		evidence types.FilteredEvidence
		panicked error
	}

	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{panicked: fmt.Errorf("evaluation panicked: %v", r)}
			}
		}()
		ch <- result{evidence: evaluate.EvaluateWith(agg, cfg, detect)}
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.panicked != nil {
			fmt.Fprintf(w, "warning: %v, passing unfiltered evidence through\n", res.panicked)
			return passThrough(agg), res.panicked.Error()
		}
		return res.evidence, ""
	case <-timer.C:
		fmt.Fprintf(w, "warning: evaluation exceeded its %v budget, passing unfiltered evidence through\n", deadline)
		return passThrough(agg), "evaluation deadline exceeded"
	}
}

// passThrough converts aggregated evidence into unfiltered survivors:
// quality falls back to adapter relevance, nothing is removed, and no
// contradiction scan runs.
func passThrough(agg types.AggregatedEvidence) types.FilteredEvidence {
	evidence := types.FilteredEvidence{QueryID: agg.QueryID}

	sum := 0.0
	for _, item := range agg.Items {
		evidence.Survivors = append(evidence.Survivors, types.ScoredEvidenceItem{
			EvidenceItem: item,
			Quality:      item.Relevance,
			Breakdown:    types.QualityBreakdown{Relevance: item.Relevance},
		})
		sum += item.Relevance
	}
	if len(evidence.Survivors) > 0 {
		evidence.MeanQuality = sum / float64(len(evidence.Survivors))
	}
	return evidence
}

// runSynthesis races Synthesize against the stage deadline. On overrun or
// panic it falls back to the minimal answer.
func runSynthesis(ctx context.Context, query types.Query, evidence types.FilteredEvidence, gen synthesize.Generator, cfg types.SynthesisConfig, deadline time.Duration, w io.Writer) (types.FinalAnswer, string) {
	synthCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	type result struct {
		answer   types.FinalAnswer
		panicked error
	}

	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{panicked: fmt.Errorf("synthesis panicked: %v", r)}
			}
		}()
		ch <- result{answer: synthesize.Synthesize(synthCtx, query, evidence, gen, cfg, w)}
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.panicked != nil {
			fmt.Fprintf(w, "warning: %v, returning minimal answer\n", res.panicked)
			return minimalAnswer(query, evidence), res.panicked.Error()
		}
		return res.answer, ""
	case <-timer.C:
		fmt.Fprintf(w, "warning: synthesis exceeded its %v budget, returning minimal answer\n", deadline)
		return minimalAnswer(query, evidence), "synthesis deadline exceeded"
	}
}

// minimalAnswer is the last-resort answer: an explanatory summary plus the
// raw surviving evidence as attributions, so the caller still sees what
// was found (R3.2).
func minimalAnswer(query types.Query, evidence types.FilteredEvidence) types.FinalAnswer {
	answer := types.FinalAnswer{
		ID:      query.ID + "-minimal",
		QueryID: query.ID,
		Summary: fmt.Sprintf(
			"Answer synthesis did not complete in time. %d evidence items were retrieved and are listed as sources.",
			len(evidence.Survivors)),
		OverallConfidence: 0.2,
		Degraded:          true,
	}

	seen := make(map[string]bool)
	for _, item := range evidence.Survivors {
		originID := item.Origin.ID
		if originID == "" {
			originID = item.ID
		}
		if seen[originID] {
			continue
		}
		seen[originID] = true
		answer.Sources = append(answer.Sources, types.SourceAttribution{
			ID:        originID,
			Category:  item.Category,
			Title:     item.Origin.Title,
			Locator:   item.Origin.Locator,
			Relevance: item.Relevance,
		})
	}
	return answer
}

// persist appends the query and its answer to conversation history under
// its own small budget, detached from the possibly exhausted query
// context. Returns the degradation note, empty on success.
func persist(store MessageAppender, query types.Query, answer types.FinalAnswer, timeout time.Duration, w io.Writer) string {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := store.Append(ctx, memory.Message{
		SessionID: query.SessionID,
		Role:      memory.RoleUser,
		Content:   query.Text,
		Created:   query.Submitted,
	}); err != nil {
		fmt.Fprintf(w, "warning: persisting query failed: %v\n", err)
		return fmt.Sprintf("query not persisted: %v", err)
	}

	if err := store.Append(ctx, memory.Message{
		SessionID:  query.SessionID,
		Role:       memory.RoleAssistant,
		Content:    answer.Summary,
		AnswerID:   answer.ID,
		Confidence: answer.OverallConfidence,
	}); err != nil {
		fmt.Fprintf(w, "warning: persisting answer failed: %v\n", err)
		return fmt.Sprintf("answer not persisted: %v", err)
	}

	return ""
}
