// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieval fans a query out to evidence sources concurrently and
// aggregates whatever arrives within budget.
// Implements: prd010-retrieval (R1-R5);
//
//	docs/ARCHITECTURE § Retrieval Coordinator.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Source is one evidence provider. Each adapter (index, web, arxiv, memory)
// implements this interface per the Strategy pattern (R1.4); the coordinator
// treats any number of sources uniformly.
//
// Fetch must honor ctx cancellation and return items with Relevance in
// [0,1]. A source that finds nothing returns an empty slice and nil error:
// absence of evidence is a result, not a failure.
type Source interface {
	Name() string
	Category() types.SourceCategory
	Fetch(ctx context.Context, queryText string) ([]types.EvidenceItem, error)
}

// Retrieve queries all sources concurrently and merges their items without
// regard to completion order (R1.1, R1.2). One source failing or timing out
// never affects the others (R2.1); each failure is recorded with its reason.
// When the parent context expires before every source reports, the sources
// still pending are recorded as timed out and whatever already arrived is
// returned (R2.3). The call always returns a usable aggregate, even when it
// is empty.
func Retrieve(ctx context.Context, query types.Query, sources []Source, cfg types.RetrievalConfig, w io.Writer) types.AggregatedEvidence {
	start := time.Now()
	agg := types.AggregatedEvidence{QueryID: query.ID}

	if len(sources) == 0 {
		agg.RetrievalTime = time.Since(start)
		return agg
	}

	ch := make(chan sourceResult, len(sources))

	g := &errgroup.Group{}
	if cfg.MaxWorkers > 0 {
		g.SetLimit(cfg.MaxWorkers)
	}

	for _, src := range sources {
		src := src
		g.Go(func() error {
			callCtx := ctx
			var cancel context.CancelFunc
			if cfg.PerSourceTimeout > 0 {
				callCtx, cancel = context.WithTimeout(ctx, cfg.PerSourceTimeout)
				defer cancel()
			}

			items, err := fetchSafe(callCtx, src, query.Text)
			ch <- sourceResult{name: src.Name(), category: src.Category(), items: items, err: err}
			return nil
		})
	}

	go func() {
		g.Wait()
		close(ch)
	}()

	reported := make(map[string]bool, len(sources))
	collectResults(ctx, ch, len(sources), func(res sourceResult) {
		reported[res.name] = true
		if res.err != nil {
			agg.Failed = append(agg.Failed, classify(res.name, res.category, res.err, w))
			return
		}
		agg.Succeeded = append(agg.Succeeded, res.name)
		agg.Items = append(agg.Items, normalize(res.items, res.category, cfg.MaxItemsPerSource)...)
	})

	// Sources that never reported before the budget expired.
	for _, src := range sources {
		if !reported[src.Name()] {
			agg.Failed = append(agg.Failed, types.SourceFailure{
				Name:     src.Name(),
				Category: src.Category(),
				Reason:   types.FailureTimeout,
				Detail:   "global retrieval budget exhausted",
			})
			fmt.Fprintf(w, "warning: source %s abandoned: retrieval budget exhausted\n", src.Name())
		}
	}

	agg.RetrievalTime = time.Since(start)
	return agg
}

// sourceResult is one source's report back to the coordinator.
type sourceResult struct {
	name     string
	category types.SourceCategory
	items    []types.EvidenceItem
	err      error
}

// collectResults receives up to n results, stopping early when the context
// expires or the channel closes. The deadline can fire while a finished
// source's result still sits in the channel buffer; those are drained
// before returning so a source that delivered in time is never counted as
// late (R2.3).
func collectResults(ctx context.Context, ch <-chan sourceResult, n int, record func(sourceResult)) {
collect:
	for i := 0; i < n; i++ {
		select {
		case res, ok := <-ch:
			if !ok {
				return
			}
			record(res)
		case <-ctx.Done():
			break collect
		}
	}

	for {
		select {
		case res, ok := <-ch:
			if !ok {
				return
			}
			record(res)
		default:
			return
		}
	}
}

// fetchSafe calls the source and converts a panic into an error so one
// misbehaving adapter cannot take the coordinator down (R2.1).
func fetchSafe(ctx context.Context, src Source, queryText string) (items []types.EvidenceItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("source panicked: %v", r)
		}
	}()
	return src.Fetch(ctx, queryText)
}

// classify turns a source error into a failure record, distinguishing a
// deadline miss from a genuine error (R2.2).
func classify(name string, category types.SourceCategory, err error, w io.Writer) types.SourceFailure {
	reason := types.FailureError
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		reason = types.FailureTimeout
	}
	fmt.Fprintf(w, "warning: source %s failed: %v\n", name, err)
	return types.SourceFailure{
		Name:     name,
		Category: category,
		Reason:   reason,
		Detail:   err.Error(),
	}
}

// normalize stamps the owning category on each item, assigns IDs the source
// left empty, clamps relevance into [0,1], and caps the per-source item
// count (R1.3, R3.2).
func normalize(items []types.EvidenceItem, category types.SourceCategory, maxItems int) []types.EvidenceItem {
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}
	out := make([]types.EvidenceItem, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.Category == "" {
			item.Category = category
		}
		if item.Relevance < 0 {
			item.Relevance = 0
		}
		if item.Relevance > 1 {
			item.Relevance = 1
		}
		out = append(out, item)
	}
	return out
}

// positionRelevance converts a rank position into a relevance score: the
// first of n results scores 1.0, the last 0.1, evenly spaced between.
func positionRelevance(i, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(total-1)*0.9
}
