// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// SourceCategory identifies the kind of backing store a piece of evidence
// came from. The pipeline treats any number of sources uniformly; these
// constants name the four standard categories.
type SourceCategory string

const (
	SourceIndex  SourceCategory = "index"  // local indexed documents
	SourceWeb    SourceCategory = "web"    // web search
	SourceArxiv  SourceCategory = "arxiv"  // academic papers
	SourceMemory SourceCategory = "memory" // conversation history
)

// OriginRef is a stable reference to the material an evidence item was
// drawn from: a document, web page, paper, or conversation message.
type OriginRef struct {
	// ID is the origin's stable identifier (document ID, arXiv ID, URL).
	ID string `json:"id" yaml:"id"`

	// Title is a human-readable title of the origin.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Locator is where the origin can be found (URL or file path).
	Locator string `json:"locator,omitempty" yaml:"locator,omitempty"`

	// Position is the chunk or page position within the origin, when known.
	Position int `json:"position,omitempty" yaml:"position,omitempty"`
}

// EvidenceItem is one candidate fact or snippet returned by a source.
// Items are immutable once returned to the coordinator.
type EvidenceItem struct {
	// ID uniquely identifies this item. The coordinator assigns one if
	// the source leaves it empty.
	ID string `json:"id" yaml:"id"`

	// Category is the owning source category.
	Category SourceCategory `json:"category" yaml:"category"`

	// Text is the raw evidence text.
	Text string `json:"text" yaml:"text"`

	// Relevance is the source-provided relevance score in [0,1]
	// (e.g. similarity or rank position), taken as-is by the evaluator.
	Relevance float64 `json:"relevance" yaml:"relevance"`

	// Timestamp is when the underlying material was produced. Zero means
	// undated; undated items are treated as recent, not penalized.
	Timestamp time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`

	// Origin references the material this item was drawn from.
	Origin OriginRef `json:"origin,omitempty" yaml:"origin,omitempty"`

	// Metadata carries free-form provenance details from the source.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// FailureReason distinguishes how a source failed during retrieval.
type FailureReason string

const (
	FailureTimeout FailureReason = "timeout"
	FailureError   FailureReason = "error"
)

// SourceFailure records one source that did not deliver results in time.
type SourceFailure struct {
	// Name is the source's registered name.
	Name string `json:"name" yaml:"name"`

	// Category is the source's category.
	Category SourceCategory `json:"category" yaml:"category"`

	// Reason distinguishes a deadline miss from a source error.
	Reason FailureReason `json:"reason" yaml:"reason"`

	// Detail is the underlying error text, when available.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// AggregatedEvidence is the retrieval coordinator's output for one query.
// It exists only for the lifetime of that query.
type AggregatedEvidence struct {
	// QueryID references the originating query.
	QueryID string `json:"query_id" yaml:"query_id"`

	// Items holds everything the responding sources returned, merged
	// without regard to completion order.
	Items []EvidenceItem `json:"items" yaml:"items"`

	// Succeeded names the sources that responded in time.
	Succeeded []string `json:"succeeded" yaml:"succeeded"`

	// Failed records the sources that errored or timed out.
	Failed []SourceFailure `json:"failed" yaml:"failed"`

	// RetrievalTime is the wall-clock duration of the retrieval stage.
	RetrievalTime time.Duration `json:"retrieval_time" yaml:"retrieval_time"`
}

// QualityBreakdown holds the factor values behind a computed quality score.
type QualityBreakdown struct {
	Reputation       float64 `json:"reputation" yaml:"reputation"`
	Recency          float64 `json:"recency" yaml:"recency"`
	Relevance        float64 `json:"relevance" yaml:"relevance"`
	DuplicatePenalty float64 `json:"duplicate_penalty" yaml:"duplicate_penalty"`
}

// ScoredEvidenceItem is an EvidenceItem plus its computed quality score and
// the factor breakdown that produced it. Retained even for rejected items
// so the removal log can explain every drop.
type ScoredEvidenceItem struct {
	EvidenceItem `yaml:",inline"`

	// Quality is the computed quality score in [0,1].
	Quality float64 `json:"quality" yaml:"quality"`

	// Breakdown records the individual scoring factors.
	Breakdown QualityBreakdown `json:"breakdown" yaml:"breakdown"`
}

// Removal reasons. A duplicate removal uses DuplicateOf to embed the
// surviving item's ID.
const (
	RemovedBelowThreshold = "below_threshold"
	RemovedContradicted   = "contradicted"

	duplicatePrefix = "duplicate_of:"
)

// DuplicateOf returns the removal reason for an item covered by the
// surviving item with the given ID.
func DuplicateOf(survivorID string) string {
	return duplicatePrefix + survivorID
}

// RemovalRecord explains why one item was dropped during evaluation.
// Every rejected item has exactly one record.
type RemovalRecord struct {
	// ItemID is the removed item's ID.
	ItemID string `json:"item_id" yaml:"item_id"`

	// Reason is below_threshold, duplicate_of:<id>, or contradicted.
	Reason string `json:"reason" yaml:"reason"`

	// Quality is the score the item had when it was removed.
	Quality float64 `json:"quality" yaml:"quality"`

	// Category is the removed item's source category.
	Category SourceCategory `json:"category" yaml:"category"`

	// TextPreview is the start of the removed item's text, for audit.
	TextPreview string `json:"text_preview,omitempty" yaml:"text_preview,omitempty"`
}

// IsDuplicate reports whether the record describes a duplicate removal,
// returning the surviving item's ID when it does.
func (r RemovalRecord) IsDuplicate() (string, bool) {
	if strings.HasPrefix(r.Reason, duplicatePrefix) {
		return strings.TrimPrefix(r.Reason, duplicatePrefix), true
	}
	return "", false
}

// ContradictionRecord pairs two surviving items whose text expresses
// mutually exclusive claims. One item may appear in multiple records.
type ContradictionRecord struct {
	// ItemA and ItemB are the conflicting items' IDs.
	ItemA string `json:"item_a" yaml:"item_a"`
	ItemB string `json:"item_b" yaml:"item_b"`

	// Signal names the detection signal that flagged the pair
	// (e.g. "polarity:is/is not", "numeric:accuracy").
	Signal string `json:"signal" yaml:"signal"`
}

// FilteredEvidence is the evaluator's output: the surviving scored items,
// the removal log, detected contradictions, and the survivors' mean quality.
type FilteredEvidence struct {
	// QueryID references the originating query.
	QueryID string `json:"query_id" yaml:"query_id"`

	// Survivors are the items that passed filtering, sorted by quality
	// score, descending.
	Survivors []ScoredEvidenceItem `json:"survivors" yaml:"survivors"`

	// Removed records every item dropped during evaluation.
	Removed []RemovalRecord `json:"removed" yaml:"removed"`

	// Contradictions lists pairs of survivors with conflicting claims.
	Contradictions []ContradictionRecord `json:"contradictions,omitempty" yaml:"contradictions,omitempty"`

	// MeanQuality is the mean quality score of survivors, 0 when none.
	MeanQuality float64 `json:"mean_quality" yaml:"mean_quality"`
}
