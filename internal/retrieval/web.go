// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// webAPIBase is the web search endpoint. Declared as a var so tests can
// substitute an httptest server.
var webAPIBase = "https://api.firecrawl.dev/v1/search"

// WebSource retrieves evidence from a web search API (R3.2). Requires an
// API key; construct it only when one is configured.
type WebSource struct {
	Client *http.Client
	APIKey string
	Cfg    types.RetrievalConfig
}

func (s *WebSource) Name() string                   { return "web" }
func (s *WebSource) Category() types.SourceCategory { return types.SourceWeb }

type webSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type webSearchResponse struct {
	Success bool            `json:"success"`
	Data    []webSearchItem `json:"data"`
}

type webSearchItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Fetch posts the query to the search API and converts each hit's snippet
// into an evidence item. Rate-limit responses are retried with backoff
// before the per-source deadline gives up.
func (s *WebSource) Fetch(ctx context.Context, queryText string) ([]types.EvidenceItem, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("web search API key not configured")
	}

	limit := s.Cfg.MaxItemsPerSource
	if limit <= 0 {
		limit = 5
	}

	body, err := json.Marshal(webSearchRequest{Query: queryText, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webAPIBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("User-Agent", s.Cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 2)
	if err != nil {
		return nil, fmt.Errorf("web search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search API returned HTTP %d", resp.StatusCode)
	}

	var parsed webSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing web search response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("web search API reported failure")
	}

	total := len(parsed.Data)
	var items []types.EvidenceItem
	for i, hit := range parsed.Data {
		text := strings.TrimSpace(hit.Description)
		if text == "" {
			continue
		}
		items = append(items, types.EvidenceItem{
			Category:  types.SourceWeb,
			Text:      text,
			Relevance: positionRelevance(i, total),
			Origin: types.OriginRef{
				ID:      hit.URL,
				Title:   strings.TrimSpace(hit.Title),
				Locator: hit.URL,
			},
		})
	}
	return items, nil
}
