// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// AnswerFile is the on-disk representation of a query and its answer. An
// answer can be saved and reloaded later without re-running the pipeline.
type AnswerFile struct {
	Query   AnswerFileQuery   `yaml:"query"`
	Answer  types.FinalAnswer `yaml:"answer"`
	Summary AnswerFileSummary `yaml:"summary"`
}

// AnswerFileQuery stores the originating query in a serializable form.
type AnswerFileQuery struct {
	ID        string `yaml:"id"`
	Text      string `yaml:"text"`
	SessionID string `yaml:"session_id,omitempty"`
}

// AnswerFileSummary stores answer statistics and a timestamp.
type AnswerFileSummary struct {
	Sections   int       `yaml:"sections"`
	Sources    int       `yaml:"sources"`
	Confidence float64   `yaml:"confidence"`
	Degraded   bool      `yaml:"degraded"`
	Timestamp  time.Time `yaml:"timestamp"`
}

// WriteAnswerFile saves the query and its answer to a YAML file.
func WriteAnswerFile(path string, query types.Query, answer types.FinalAnswer) error {
	af := AnswerFile{
		Query: AnswerFileQuery{
			ID:        query.ID,
			Text:      query.Text,
			SessionID: query.SessionID,
		},
		Answer: answer,
		Summary: AnswerFileSummary{
			Sections:   len(answer.Sections),
			Sources:    len(answer.Sources),
			Confidence: answer.OverallConfidence,
			Degraded:   answer.Degraded,
			Timestamp:  time.Now(),
		},
	}

	data, err := yaml.Marshal(&af)
	if err != nil {
		return fmt.Errorf("marshaling answer file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadAnswerFile loads a previously saved answer file from disk.
func ReadAnswerFile(path string) (*AnswerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading answer file: %w", err)
	}
	var af AnswerFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("parsing answer file: %w", err)
	}
	return &af, nil
}
