// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StageName identifies one workflow stage.
type StageName string

const (
	StageRetrieving   StageName = "retrieving"
	StageEvaluating   StageName = "evaluating"
	StageSynthesizing StageName = "synthesizing"
	StagePersisting   StageName = "persisting"
)

// StageRecord captures one stage's outcome for observability.
type StageRecord struct {
	// Stage names the stage.
	Stage StageName `json:"stage" yaml:"stage"`

	// Start and End bound the stage's execution.
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`

	// OK is true when the stage completed without falling back.
	OK bool `json:"ok" yaml:"ok"`

	// Degradation names the specific fallback taken, empty when none.
	Degradation string `json:"degradation,omitempty" yaml:"degradation,omitempty"`
}

// Duration returns the stage's wall-clock duration.
func (r StageRecord) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// WorkflowTrace is the per-query record of stage timing, outcomes, and
// degradations. It is written once by the controller and read only by
// observability and tests.
type WorkflowTrace struct {
	// QueryID references the traced query.
	QueryID string `json:"query_id" yaml:"query_id"`

	// Start and End bound the whole run.
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`

	// Stages holds one record per executed stage, in execution order.
	Stages []StageRecord `json:"stages" yaml:"stages"`
}

// Stage returns the record for the named stage and whether it exists.
func (t WorkflowTrace) Stage(name StageName) (StageRecord, bool) {
	for _, s := range t.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageRecord{}, false
}

// Degraded reports whether any stage recorded a degradation.
func (t WorkflowTrace) Degraded() bool {
	for _, s := range t.Stages {
		if s.Degradation != "" {
			return true
		}
	}
	return false
}
