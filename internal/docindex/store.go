// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docindex maintains a full-text index over local documents and
// serves chunk queries for the index evidence source.
// Implements: prd010-retrieval (R3.1);
//
//	docs/ARCHITECTURE § Document Index.
package docindex

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const dbFile = "assistant.db"

// Store manages the document index SQLite database.
type Store struct {
	db           *sql.DB
	indexDir     string
	documentsDir string
	maxResults   int
}

// NewStore opens or creates the index database at IndexDir/assistant.db.
// It creates the schema if it does not exist.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.IndexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:           db,
		indexDir:     cfg.IndexDir,
		documentsDir: cfg.DocumentsDir,
		maxResults:   maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			title TEXT,
			mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL REFERENCES documents(id),
			position INTEGER,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='chunks_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE chunks_fts USING fts5(content, content=chunks, content_rowid=rowid)`,
			`CREATE TRIGGER chunks_ai AFTER INSERT ON chunks BEGIN
				INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER chunks_ad AFTER DELETE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER chunks_au AFTER UPDATE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest walks the documents directory and indexes every Markdown and
// plain-text file. Unchanged files (by modification time) are skipped so
// repeated runs are incremental.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(s.documentsDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading documents directory %s: %w", s.documentsDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !indexableFile(entry.Name()) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		docID := documentID(entry.Name())
		path := filepath.Join(s.documentsDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT mod_time FROM documents WHERE id = ?`, docID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", entry.Name())
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}

		chunks := chunkText(string(data))
		title := documentTitle(string(data), entry.Name())

		if err := s.ingestDocument(ctx, docID, path, title, modTime, chunks, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d chunks)\n", entry.Name(), len(chunks))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s (%d chunks)\n", entry.Name(), len(chunks))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestDocument(ctx context.Context, docID, path, title, modTime string, chunks []string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Remove old chunks if updating.
	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, docID); err != nil {
			return fmt.Errorf("deleting old chunks: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, path, title, mod_time) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			path=excluded.path, title=excluded.title, mod_time=excluded.mod_time`,
		docID, path, title, modTime,
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO chunks (id, document_id, position, content) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, content := range chunks {
		if _, err := stmt.ExecContext(ctx, chunkID(docID, i, content), docID, i, content); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// indexableFile reports whether the file name has an indexed extension.
func indexableFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".txt":
		return true
	}
	return false
}

// documentID derives a stable identifier from the file name.
func documentID(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// chunkID derives a stable chunk identifier from content and position so
// re-indexing an unchanged paragraph keeps its ID.
func chunkID(docID string, position int, content string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", docID, position, content)))
	return fmt.Sprintf("%x", h)[:12]
}

// maxChunkLen caps one chunk; longer paragraphs are split at the cap.
const maxChunkLen = 2000

// chunkText splits document text into paragraph chunks.
func chunkText(text string) []string {
	var chunks []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for len(para) > maxChunkLen {
			chunks = append(chunks, para[:maxChunkLen])
			para = para[maxChunkLen:]
		}
		chunks = append(chunks, para)
	}
	return chunks
}

// documentTitle returns the first Markdown heading, falling back to the
// file name.
func documentTitle(text, name string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return documentID(name)
}
