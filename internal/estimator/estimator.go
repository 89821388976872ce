// Package estimator reads fitted classifiers from the native JSON artifact
// format and runs inference on them.
package estimator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Brownie44l1/category-predictor/internal/table"
)

const FormatVersion = 1

const (
	KindDecisionTree       = "decision_tree"
	KindRandomForest       = "random_forest"
	KindLogisticRegression = "logistic_regression"
)

var (
	ErrIncompatibleFormat = errors.New("incompatible model format version")
	ErrUnsupportedKind    = errors.New("unsupported model kind")
)

// Artifact is the on-disk form of a fitted classifier.
type Artifact struct {
	FormatVersion int          `json:"format_version"`
	Kind          string       `json:"kind"`
	Classes       []string     `json:"classes"`
	Features      table.Schema `json:"features"`
	Tree          *Tree        `json:"tree,omitempty"`
	Trees         []Tree       `json:"trees,omitempty"`
	Linear        *Linear      `json:"linear,omitempty"`
}

// Classifier is a loaded, immutable model. It is safe for concurrent use.
type Classifier struct {
	kind    string
	classes []string
	schema  table.Schema
	proba   func(row []float64) ([]float64, error)
}

func Load(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

func Decode(r io.Reader) (*Classifier, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return New(&a)
}

// New validates a fitted artifact and builds a classifier from it.
func New(a *Artifact) (*Classifier, error) {
	if a.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: %d (supported: %d)", ErrIncompatibleFormat, a.FormatVersion, FormatVersion)
	}
	if len(a.Classes) < 2 {
		return nil, fmt.Errorf("model must have at least two classes, got %d", len(a.Classes))
	}
	seen := make(map[string]bool, len(a.Classes))
	for _, c := range a.Classes {
		if seen[c] {
			return nil, fmt.Errorf("duplicate class %q", c)
		}
		seen[c] = true
	}
	if err := a.Features.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feature schema: %w", err)
	}

	width := a.Features.Width()
	classes := len(a.Classes)

	c := &Classifier{
		kind:    a.Kind,
		classes: append([]string(nil), a.Classes...),
		schema:  a.Features,
	}

	switch a.Kind {
	case KindDecisionTree:
		if a.Tree == nil {
			return nil, errors.New("decision_tree model has no tree")
		}
		if err := a.Tree.validate(width, classes); err != nil {
			return nil, fmt.Errorf("invalid tree: %w", err)
		}
		c.proba = a.Tree.proba
	case KindRandomForest:
		if len(a.Trees) == 0 {
			return nil, errors.New("random_forest model has no trees")
		}
		for i := range a.Trees {
			if err := a.Trees[i].validate(width, classes); err != nil {
				return nil, fmt.Errorf("invalid tree %d: %w", i, err)
			}
		}
		c.proba = forestProba(a.Trees)
	case KindLogisticRegression:
		if a.Linear == nil {
			return nil, errors.New("logistic_regression model has no coefficients")
		}
		if err := a.Linear.validate(width, classes); err != nil {
			return nil, fmt.Errorf("invalid coefficients: %w", err)
		}
		c.proba = func(row []float64) ([]float64, error) {
			return a.Linear.proba(row), nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, a.Kind)
	}

	return c, nil
}

func forestProba(trees []Tree) func(row []float64) ([]float64, error) {
	return func(row []float64) ([]float64, error) {
		var sum []float64
		for i := range trees {
			p, err := trees[i].proba(row)
			if err != nil {
				return nil, err
			}
			if sum == nil {
				sum = make([]float64, len(p))
			}
			for j, v := range p {
				sum[j] += v
			}
		}
		for j := range sum {
			sum[j] /= float64(len(trees))
		}
		return sum, nil
	}
}

func (c *Classifier) Kind() string {
	return c.kind
}

// Classes returns the class labels in the model's fixed order.
func (c *Classifier) Classes() []string {
	return append([]string(nil), c.classes...)
}

func (c *Classifier) Features() table.Schema {
	return c.schema
}

// PredictProba returns one probability row per frame row, columns in
// Classes order.
func (c *Classifier) PredictProba(f table.Frame) ([][]float64, error) {
	rows, err := c.schema.EncodeFrame(f)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		p, err := c.proba(row)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// Predict returns the most likely class per row. Ties go to the class that
// comes first in Classes.
func (c *Classifier) Predict(f table.Frame) ([]string, error) {
	probs, err := c.PredictProba(f)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(probs))
	for i, p := range probs {
		labels[i] = c.classes[argmax(p)]
	}
	return labels, nil
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
