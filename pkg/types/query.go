// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-assistant
// query pipeline. Implements: prd010-retrieval (Query, EvidenceItem,
// AggregatedEvidence);
//
//	prd011-evaluation (ScoredEvidenceItem, FilteredEvidence);
//	prd012-synthesis (FinalAnswer, AnswerSection, Perspective);
//	prd013-workflow (WorkflowTrace).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Query is the immutable input to one pipeline run. It is created once per
// request and never mutated afterwards.
type Query struct {
	// ID uniquely identifies this query.
	ID string `json:"id" yaml:"id"`

	// Text is the free-text research question.
	Text string `json:"text" yaml:"text"`

	// SessionID optionally references a prior conversation whose history
	// the memory source may consult. Empty means no conversation context.
	SessionID string `json:"session_id,omitempty" yaml:"session_id,omitempty"`

	// Budget is the wall-clock budget for the whole pipeline run.
	// Zero means the configured workflow default (30 s).
	Budget time.Duration `json:"budget,omitempty" yaml:"budget,omitempty"`

	// Submitted is when the query was created.
	Submitted time.Time `json:"submitted" yaml:"submitted"`
}

// NewQuery creates a Query with a fresh identifier and submission timestamp.
func NewQuery(text, sessionID string) Query {
	return Query{
		ID:        uuid.NewString(),
		Text:      text,
		SessionID: sessionID,
		Submitted: time.Now().UTC(),
	}
}

// IsEmpty reports whether the query contains no question text.
func (q Query) IsEmpty() bool {
	return q.Text == ""
}
