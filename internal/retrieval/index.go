// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"context"
	"fmt"

	"github.com/pdiddy/research-assistant/internal/docindex"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// ChunkQuerier is the slice of the document index the index source needs.
type ChunkQuerier interface {
	Query(ctx context.Context, text string, limit int) ([]docindex.Chunk, error)
}

// IndexSource retrieves evidence from the local document index (R3.1).
type IndexSource struct {
	Index ChunkQuerier
	Cfg   types.RetrievalConfig
}

func (s *IndexSource) Name() string                   { return "index" }
func (s *IndexSource) Category() types.SourceCategory { return types.SourceIndex }

// Fetch runs a full-text query and converts each ranked chunk into an
// evidence item. The index returns chunks best-first, so relevance is
// position-based.
func (s *IndexSource) Fetch(ctx context.Context, queryText string) ([]types.EvidenceItem, error) {
	limit := s.Cfg.MaxItemsPerSource
	if limit <= 0 {
		limit = 5
	}

	chunks, err := s.Index.Query(ctx, queryText, limit)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}

	total := len(chunks)
	items := make([]types.EvidenceItem, 0, total)
	for i, c := range chunks {
		items = append(items, types.EvidenceItem{
			ID:        c.ID,
			Category:  types.SourceIndex,
			Text:      c.Content,
			Relevance: positionRelevance(i, total),
			Timestamp: c.ModTime,
			Origin: types.OriginRef{
				ID:       c.DocumentID,
				Title:    c.DocumentTitle,
				Locator:  c.DocumentPath,
				Position: c.Position,
			},
		})
	}
	return items, nil
}
