// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AnswerSection is one synthesized paragraph of the final answer.
type AnswerSection struct {
	// Heading is the section title (e.g. "From Academic Papers").
	Heading string `json:"heading" yaml:"heading"`

	// Body is the section text, rendered strictly from supporting items.
	Body string `json:"body" yaml:"body"`

	// EvidenceIDs lists the evidence items supporting this section.
	EvidenceIDs []string `json:"evidence_ids" yaml:"evidence_ids"`

	// Confidence is the mean quality of the supporting items.
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// SourceAttribution credits one distinct origin referenced in the answer.
type SourceAttribution struct {
	// ID is the origin's stable identifier.
	ID string `json:"id" yaml:"id"`

	// Category is the source category the origin belongs to.
	Category SourceCategory `json:"category" yaml:"category"`

	// Title is a human-readable title of the origin.
	Title string `json:"title" yaml:"title"`

	// Locator is where the origin can be found (URL or file path).
	Locator string `json:"locator,omitempty" yaml:"locator,omitempty"`

	// Relevance is copied from the origin's best contributing item.
	Relevance float64 `json:"relevance" yaml:"relevance"`
}

// Perspective is one side of a detected factual disagreement, surfaced to
// the reader with its own support and weight.
type Perspective struct {
	// Claim is the claim text this side asserts.
	Claim string `json:"claim" yaml:"claim"`

	// EvidenceIDs lists the items supporting this side.
	EvidenceIDs []string `json:"evidence_ids" yaml:"evidence_ids"`

	// Confidence is the mean quality of this side's supporting items.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Weight is this side's share of the total supporting evidence for
	// both sides of the disagreement. The two weights of a pair sum to 1.
	Weight float64 `json:"weight" yaml:"weight"`
}

// TimingMetadata records how the pipeline spent its budget and which
// sources were available.
type TimingMetadata struct {
	Total      time.Duration `json:"total" yaml:"total"`
	Retrieval  time.Duration `json:"retrieval" yaml:"retrieval"`
	Evaluation time.Duration `json:"evaluation" yaml:"evaluation"`
	Synthesis  time.Duration `json:"synthesis" yaml:"synthesis"`

	// SourcesSucceeded and SourcesFailed mirror the retrieval outcome.
	SourcesSucceeded []string        `json:"sources_succeeded" yaml:"sources_succeeded"`
	SourcesFailed    []SourceFailure `json:"sources_failed" yaml:"sources_failed"`
}

// FinalAnswer is the terminal artifact of one pipeline run. It is immutable
// once returned; the serialized field names are a stable contract for any
// presentation layer.
type FinalAnswer struct {
	// ID uniquely identifies this answer.
	ID string `json:"id" yaml:"id"`

	// QueryID references the originating query.
	QueryID string `json:"query_id" yaml:"query_id"`

	// Summary is the free-text answer summary.
	Summary string `json:"summary" yaml:"summary"`

	// Sections are the ordered answer sections.
	Sections []AnswerSection `json:"sections" yaml:"sections"`

	// Sources are the deduplicated origin attributions.
	Sources []SourceAttribution `json:"sources" yaml:"sources"`

	// Perspectives surface detected disagreements, two entries per
	// contradiction.
	Perspectives []Perspective `json:"perspectives,omitempty" yaml:"perspectives,omitempty"`

	// OverallConfidence is the answer-level confidence in [0,1].
	OverallConfidence float64 `json:"overall_confidence" yaml:"overall_confidence"`

	// Degraded is true when any stage fell back to reduced behavior.
	Degraded bool `json:"degraded" yaml:"degraded"`

	// Timing carries stage durations and source availability.
	Timing TimingMetadata `json:"timing" yaml:"timing"`
}
