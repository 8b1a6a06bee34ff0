// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"context"
	"fmt"

	"github.com/pdiddy/research-assistant/internal/evaluate"
	"github.com/pdiddy/research-assistant/internal/memory"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// HistoryReader is the slice of the conversation store the memory source
// needs.
type HistoryReader interface {
	Recent(ctx context.Context, sessionID string, limit int) ([]memory.Message, error)
}

// MemorySource retrieves evidence from the session's conversation history
// (R3.4). Relevance is the token overlap between the query and each
// message, so off-topic history ranks low instead of being excluded.
type MemorySource struct {
	History   HistoryReader
	SessionID string
	Cfg       types.RetrievalConfig
}

func (s *MemorySource) Name() string                   { return "memory" }
func (s *MemorySource) Category() types.SourceCategory { return types.SourceMemory }

// Fetch reads the most recent messages in the session and converts each
// into an evidence item. A query with no session yields nothing.
func (s *MemorySource) Fetch(ctx context.Context, queryText string) ([]types.EvidenceItem, error) {
	if s.SessionID == "" {
		return nil, nil
	}

	limit := s.Cfg.MaxItemsPerSource
	if limit <= 0 {
		limit = 5
	}

	messages, err := s.History.Recent(ctx, s.SessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	items := make([]types.EvidenceItem, 0, len(messages))
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		items = append(items, types.EvidenceItem{
			ID:        m.ID,
			Category:  types.SourceMemory,
			Text:      m.Content,
			Relevance: evaluate.Similarity(queryText, m.Content),
			Timestamp: m.Created,
			Origin: types.OriginRef{
				ID:    m.ID,
				Title: fmt.Sprintf("%s message in session %s", m.Role, m.SessionID),
			},
			Metadata: map[string]string{"role": m.Role},
		})
	}
	return items, nil
}
