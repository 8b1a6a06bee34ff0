// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by sources that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetrievalConfig holds settings for the retrieval coordinator and the
// standard source adapters.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline"`

	// PerSourceTimeout caps each source call. Each call actually races
	// against min(PerSourceTimeout, remaining global budget).
	PerSourceTimeout time.Duration `json:"per_source_timeout" yaml:"per_source_timeout"`

	// MaxWorkers bounds concurrent source calls. Zero means one worker
	// per source.
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	// MaxItemsPerSource caps how many evidence items each source returns
	// (default 5).
	MaxItemsPerSource int `json:"max_items_per_source" yaml:"max_items_per_source"`

	// EnableIndex, EnableWeb, EnableArxiv, EnableMemory control which
	// standard sources are registered.
	EnableIndex  bool `json:"enable_index" yaml:"enable_index"`
	EnableWeb    bool `json:"enable_web" yaml:"enable_web"`
	EnableArxiv  bool `json:"enable_arxiv" yaml:"enable_arxiv"`
	EnableMemory bool `json:"enable_memory" yaml:"enable_memory"`

	// WebAPIKey authenticates against the web search API.
	WebAPIKey string `json:"web_api_key,omitempty" yaml:"web_api_key,omitempty"`
}

// ScoringConfig holds the evaluator's quality policy.
type ScoringConfig struct {
	// Threshold is the minimum quality score an item must reach to
	// survive filtering (default 0.6). Items exactly at the threshold
	// are kept.
	Threshold float64 `json:"threshold" yaml:"threshold"`

	// SimilarityThreshold is the surface-text similarity above which two
	// items are duplicates (default 0.9).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`

	// ReputationByCategory maps source categories to reputation weights
	// in [0,1]. Unknown categories score 0.5.
	ReputationByCategory map[SourceCategory]float64 `json:"reputation_by_category" yaml:"reputation_by_category"`
}

// Reputation returns the policy weight for a category, 0.5 when unknown.
func (c ScoringConfig) Reputation(cat SourceCategory) float64 {
	if w, ok := c.ReputationByCategory[cat]; ok {
		return w
	}
	return 0.5
}

// SynthesisConfig holds settings for answer synthesis.
type SynthesisConfig struct {
	// MaxItemsPerSection caps how many items feed one section's body
	// (default 5).
	MaxItemsPerSection int `json:"max_items_per_section" yaml:"max_items_per_section"`

	// MaxSummaryItems caps how many top items feed the summary (default 3).
	MaxSummaryItems int `json:"max_summary_items" yaml:"max_summary_items"`

	// MaxAnswerLength truncates the summary beyond this many characters
	// (default 5000).
	MaxAnswerLength int `json:"max_answer_length" yaml:"max_answer_length"`
}

// GeneratorConfig holds settings for the pluggable text generator.
type GeneratorConfig struct {
	// Model is the generation model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the generation API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed calls
	// (default 2). Generator failure is never fatal; the synthesizer
	// falls back to extractive summarization.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout caps one generation call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// WorkflowConfig holds the controller's budget policy. The stage shares
// are fractions of the remaining global budget, not hard laws.
type WorkflowConfig struct {
	// GlobalTimeout is the default whole-query budget when the query
	// carries none (default 30 s).
	GlobalTimeout time.Duration `json:"global_timeout" yaml:"global_timeout"`

	// RetrievalShare, EvaluationShare, SynthesisShare split the budget
	// across stages (defaults 0.50 / 0.15 / 0.25, leaving 0.10 margin).
	RetrievalShare  float64 `json:"retrieval_share" yaml:"retrieval_share"`
	EvaluationShare float64 `json:"evaluation_share" yaml:"evaluation_share"`
	SynthesisShare  float64 `json:"synthesis_share" yaml:"synthesis_share"`

	// MemoryTimeout caps the post-answer persistence step (default 2 s).
	MemoryTimeout time.Duration `json:"memory_timeout" yaml:"memory_timeout"`
}

// IndexConfig holds settings for the local document index.
type IndexConfig struct {
	// IndexDir is the directory holding the index database.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// DocumentsDir is the directory of source documents to ingest.
	DocumentsDir string `json:"documents_dir" yaml:"documents_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// MemoryConfig holds settings for the conversation history store.
type MemoryConfig struct {
	// MemoryDir is the directory holding the history database.
	MemoryDir string `json:"memory_dir" yaml:"memory_dir"`

	// MaxMessages caps how many recent messages the memory source reads
	// per query (default 10).
	MaxMessages int `json:"max_messages" yaml:"max_messages"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval"`
	Scoring   ScoringConfig   `json:"scoring" yaml:"scoring"`
	Synthesis SynthesisConfig `json:"synthesis" yaml:"synthesis"`
	Generator GeneratorConfig `json:"generator" yaml:"generator"`
	Workflow  WorkflowConfig  `json:"workflow" yaml:"workflow"`
	Index     IndexConfig     `json:"index" yaml:"index"`
	Memory    MemoryConfig    `json:"memory" yaml:"memory"`
}

// DefaultPipelineConfig returns the configuration defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Retrieval: RetrievalConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   10 * time.Second,
				UserAgent: "research-assistant/0.1",
			},
			PerSourceTimeout:  7 * time.Second,
			MaxItemsPerSource: 5,
			EnableIndex:       true,
			EnableWeb:         true,
			EnableArxiv:       true,
			EnableMemory:      true,
		},
		Scoring: ScoringConfig{
			Threshold:           0.6,
			SimilarityThreshold: 0.9,
			ReputationByCategory: map[SourceCategory]float64{
				SourceArxiv:  0.95,
				SourceIndex:  0.80,
				SourceWeb:    0.70,
				SourceMemory: 0.60,
			},
		},
		Synthesis: SynthesisConfig{
			MaxItemsPerSection: 5,
			MaxSummaryItems:    3,
			MaxAnswerLength:    5000,
		},
		Generator: GeneratorConfig{
			Model:      "claude-sonnet-4-5-20250929",
			MaxRetries: 2,
			Timeout:    8 * time.Second,
		},
		Workflow: WorkflowConfig{
			GlobalTimeout:   30 * time.Second,
			RetrievalShare:  0.50,
			EvaluationShare: 0.15,
			SynthesisShare:  0.25,
			MemoryTimeout:   2 * time.Second,
		},
		Index: IndexConfig{
			IndexDir:     "index",
			DocumentsDir: "documents",
			MaxResults:   20,
		},
		Memory: MemoryConfig{
			MemoryDir:   "memory",
			MaxMessages: 10,
		},
	}
}
