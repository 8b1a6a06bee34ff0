// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docindex

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Chunk is one indexed passage with its document metadata.
type Chunk struct {
	ID            string    `json:"id" yaml:"id"`
	DocumentID    string    `json:"document_id" yaml:"document_id"`
	Position      int       `json:"position" yaml:"position"`
	Content       string    `json:"content" yaml:"content"`
	DocumentTitle string    `json:"document_title,omitempty" yaml:"document_title,omitempty"`
	DocumentPath  string    `json:"document_path,omitempty" yaml:"document_path,omitempty"`
	ModTime       time.Time `json:"mod_time,omitempty" yaml:"mod_time,omitempty"`
}

// Query runs a full-text search over indexed chunks, ranked best-first.
// The query text is free natural language; limit 0 uses the store default.
func (s *Store) Query(ctx context.Context, text string, limit int) ([]Chunk, error) {
	match := ftsQuery(text)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.document_id, c.position, c.content, d.title, d.path, d.mod_time
		FROM chunks_fts
		JOIN chunks c ON c.rowid = chunks_fts.rowid
		LEFT JOIN documents d ON c.document_id = d.id
		WHERE chunks_fts MATCH ?
		ORDER BY chunks_fts.rank
		LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var (
			c       Chunk
			title   sql.NullString
			path    sql.NullString
			modTime sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Position, &c.Content, &title, &path, &modTime); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if title.Valid {
			c.DocumentTitle = title.String
		}
		if path.Valid {
			c.DocumentPath = path.String
		}
		if modTime.Valid {
			if t, parseErr := time.Parse(time.RFC3339Nano, modTime.String); parseErr == nil {
				c.ModTime = t
			}
		}
		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

// DocumentInfo summarizes one indexed document.
type DocumentInfo struct {
	ID     string `json:"id" yaml:"id"`
	Path   string `json:"path" yaml:"path"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Chunks int    `json:"chunks" yaml:"chunks"`
}

// Documents lists the indexed documents with their chunk counts.
func (s *Store) Documents(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.path, d.title, count(c.rowid)
		FROM documents d
		LEFT JOIN chunks c ON c.document_id = d.id
		GROUP BY d.id
		ORDER BY d.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var (
			d     DocumentInfo
			title sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Path, &title, &d.Chunks); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if title.Valid {
			d.Title = title.String
		}
		docs = append(docs, d)
	}

	return docs, rows.Err()
}

// ftsQuery converts free natural-language text into an FTS5 MATCH
// expression. Each token is double-quoted so question punctuation never
// reaches the FTS parser as syntax.
func ftsQuery(text string) string {
	fields := strings.Fields(text)
	var terms []string
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, "")
		f = strings.Trim(f, ".,;:!?()[]'")
		if f == "" {
			continue
		}
		terms = append(terms, `"`+f+`"`)
	}
	return strings.Join(terms, " OR ")
}
