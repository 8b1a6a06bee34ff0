// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package memory persists conversation history per session and serves the
// memory evidence source.
// Implements: prd010-retrieval (R3.4), prd013-workflow (R4.2);
//
//	docs/ARCHITECTURE § Conversation Memory.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const dbFile = "memory.db"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn in a session.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	SessionID string    `json:"session_id" yaml:"session_id"`
	Role      string    `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`

	// AnswerID links an assistant message to its stored answer.
	AnswerID string `json:"answer_id,omitempty" yaml:"answer_id,omitempty"`

	// Confidence carries the answer's overall confidence for assistant
	// messages, zero for user messages.
	Confidence float64   `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Created    time.Time `json:"created" yaml:"created"`
}

// SessionInfo summarizes one conversation session.
type SessionInfo struct {
	ID       string    `json:"id" yaml:"id"`
	Messages int       `json:"messages" yaml:"messages"`
	Last     time.Time `json:"last" yaml:"last"`
}

// Store manages the conversation history SQLite database.
type Store struct {
	db          *sql.DB
	maxMessages int
}

// NewStore opens or creates the history database at MemoryDir/memory.db.
func NewStore(cfg types.MemoryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.MemoryDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating memory directory: %w", err)
	}

	dbPath := filepath.Join(cfg.MemoryDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxMessages := cfg.MaxMessages
	if maxMessages <= 0 {
		maxMessages = 10
	}

	s := &Store{db: db, maxMessages: maxMessages}
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
		`CREATE TABLE IF NOT EXISTS messages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			answer_id TEXT,
			confidence REAL,
			created TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Append stores one message. An empty ID or Created is filled in.
func (s *Store) Append(ctx context.Context, msg Message) error {
	if msg.SessionID == "" {
		return fmt.Errorf("message has no session ID")
	}
	if msg.Role != RoleUser && msg.Role != RoleAssistant {
		return fmt.Errorf("unknown message role %q", msg.Role)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Created.IsZero() {
		msg.Created = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, answer_id, confidence, created)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, msg.AnswerID, msg.Confidence,
		msg.Created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// Recent returns the session's most recent messages in chronological
// order. Limit 0 uses the store default.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = s.maxMessages
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, answer_id, confidence, created
		FROM (
			SELECT * FROM messages WHERE session_id = ?
			ORDER BY created DESC, rowid DESC LIMIT ?
		)
		ORDER BY created ASC, rowid ASC`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var (
			m          Message
			answerID   sql.NullString
			confidence sql.NullFloat64
			created    string
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &answerID, &confidence, &created); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if answerID.Valid {
			m.AnswerID = answerID.String
		}
		if confidence.Valid {
			m.Confidence = confidence.Float64
		}
		if t, parseErr := time.Parse(time.RFC3339Nano, created); parseErr == nil {
			m.Created = t
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// Sessions lists the known sessions, most recently active first.
func (s *Store) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, count(*), max(created)
		FROM messages GROUP BY session_id ORDER BY max(created) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var (
			info SessionInfo
			last string
		)
		if err := rows.Scan(&info.ID, &info.Messages, &last); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339Nano, last); parseErr == nil {
			info.Last = t
		}
		sessions = append(sessions, info)
	}

	return sessions, rows.Err()
}

// Clear removes every message in the session and reports how many were
// deleted.
func (s *Store) Clear(ctx context.Context, sessionID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("clearing session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted messages: %w", err)
	}
	return int(n), nil
}
