// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry holds one chunk with document metadata for export.
type ExportEntry struct {
	ID       string `json:"id" yaml:"id"`
	Document string `json:"document" yaml:"document"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Position int    `json:"position" yaml:"position"`
	Content  string `json:"content" yaml:"content"`
}

const exportLimit = 100000

// ExportYAML writes the full index contents to IndexDir/export.yaml.
func (s *Store) ExportYAML(ctx context.Context) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(filepath.Join(s.indexDir, "export.yaml"), data, 0o644)
}

// ExportJSON writes the full index contents to IndexDir/export.json.
func (s *Store) ExportJSON(ctx context.Context) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(filepath.Join(s.indexDir, "export.json"), data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.document_id, d.title, c.position, c.content
		FROM chunks c
		LEFT JOIN documents d ON c.document_id = d.id
		ORDER BY c.document_id, c.position
		LIMIT ?`,
		exportLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	defer rows.Close()

	var entries []ExportEntry
	for rows.Next() {
		var e ExportEntry
		var title sql.NullString
		if err := rows.Scan(&e.ID, &e.Document, &title, &e.Position, &e.Content); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.Title = title.String
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
