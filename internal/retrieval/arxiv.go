// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivSource retrieves evidence from the arXiv API (R3.3).
type ArxivSource struct {
	Client *http.Client
	Cfg    types.RetrievalConfig
}

func (s *ArxivSource) Name() string                   { return "arxiv" }
func (s *ArxivSource) Category() types.SourceCategory { return types.SourceArxiv }

// Fetch queries arXiv with the free-text query and converts each Atom
// entry's abstract into an evidence item. Relevance is position-based:
// arXiv already ranks by relevance, so rank order is the signal.
func (s *ArxivSource) Fetch(ctx context.Context, queryText string) ([]types.EvidenceItem, error) {
	q := buildArxivQuery(queryText)
	if q == "" {
		return nil, nil
	}

	maxResults := s.Cfg.MaxItemsPerSource
	if maxResults <= 0 {
		maxResults = 5
	}

	endpoint := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, q, maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.Cfg.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	total := len(feed.Entries)
	var items []types.EvidenceItem
	for i, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		abstract := strings.TrimSpace(entry.Summary)
		if abstract == "" {
			continue
		}

		item := types.EvidenceItem{
			Category:  types.SourceArxiv,
			Text:      abstract,
			Relevance: positionRelevance(i, total),
			Origin: types.OriginRef{
				ID:      arxivID,
				Title:   strings.TrimSpace(entry.Title),
				Locator: "https://arxiv.org/abs/" + arxivID,
			},
		}

		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			item.Timestamp = t
		}
		if len(entry.Authors) > 0 {
			item.Metadata = map[string]string{"authors": joinAuthors(entry.Authors)}
		}

		items = append(items, item)
	}
	return items, nil
}

// buildArxivQuery constructs the search_query parameter from the query text.
func buildArxivQuery(text string) string {
	terms := strings.Fields(text)
	if len(terms) == 0 {
		return ""
	}
	for i, t := range terms {
		terms[i] = url.QueryEscape(t)
	}
	return "all:" + strings.Join(terms, "+")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

func joinAuthors(authors []arxivAuthor) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}
