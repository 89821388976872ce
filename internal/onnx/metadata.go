package onnx

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Brownie44l1/category-predictor/internal/table"
)

// Metadata describes the exported graph: its class order, the feature
// schema used to build the input row, and the tensor names.
type Metadata struct {
	Classes         []string     `json:"classes"`
	Features        table.Schema `json:"features"`
	InputName       string       `json:"input_name"`
	LabelName       string       `json:"label_name"`
	ProbabilityName string       `json:"probability_name"`
}

func LoadMetadata(path string) (Metadata, error) {
	metaFile, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if metadata.InputName == "" {
		metadata.InputName = "input"
	}
	if metadata.LabelName == "" {
		metadata.LabelName = "label"
	}
	if metadata.ProbabilityName == "" {
		metadata.ProbabilityName = "probabilities"
	}

	if err := metadata.validate(); err != nil {
		return Metadata{}, fmt.Errorf("invalid metadata: %w", err)
	}
	return metadata, nil
}

func (m Metadata) validate() error {
	if len(m.Classes) < 2 {
		return errors.New("metadata must list at least two classes")
	}
	return m.Features.Validate()
}
