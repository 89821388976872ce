package model

import (
	"errors"
	"io"
	"math"

	"github.com/Brownie44l1/category-predictor/internal/table"
)

var ErrNotInitialized = errors.New("predictor not initialized")

// Classifier is a fitted model. Its class order is fixed for its lifetime
// and PredictProba columns follow that order.
type Classifier interface {
	Classes() []string
	PredictProba(f table.Frame) ([][]float64, error)
	Predict(f table.Frame) ([]string, error)
}

// Predictor answers single-record classification queries against one
// immutable classifier. It is as safe for concurrent use as the classifier.
type Predictor struct {
	classifier Classifier
}

func NewPredictor(classifier Classifier) *Predictor {
	return &Predictor{classifier: classifier}
}

func (p *Predictor) Classes() []string {
	if p == nil || p.classifier == nil {
		return nil
	}
	return p.classifier.Classes()
}

// Predict classifies one record. Errors from the classifier are returned
// as-is.
func (p *Predictor) Predict(features table.Record) (*PredictionResult, error) {
	if p == nil || p.classifier == nil {
		return nil, ErrNotInitialized
	}

	frame := table.NewFrame(features)

	classes := p.classifier.Classes()

	probs, err := p.classifier.PredictProba(frame)
	if err != nil {
		return nil, err
	}
	if len(probs) != 1 || len(probs[0]) != len(classes) {
		return nil, errors.New("classifier returned a probability row that does not match its classes")
	}
	probabilities := probs[0]

	labels, err := p.classifier.Predict(frame)
	if err != nil {
		return nil, err
	}
	if len(labels) != 1 {
		return nil, errors.New("classifier returned no label")
	}

	maxProb := math.Inf(-1)
	classProbs := make(ClassProbabilities, len(classes))
	for i, label := range classes {
		if probabilities[i] > maxProb {
			maxProb = probabilities[i]
		}
		classProbs[i] = ClassProbability{Label: label, Probability: round4(probabilities[i])}
	}

	return &PredictionResult{
		PredictedCategory:  labels[0],
		Confidence:         round4(maxProb),
		ClassProbabilities: classProbs,
	}, nil
}

// Close releases classifier resources, if it holds any.
func (p *Predictor) Close() error {
	if p == nil || p.classifier == nil {
		return nil
	}
	if c, ok := p.classifier.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// round4 rounds half to even at four decimals, applied independently to
// each value.
func round4(x float64) float64 {
	return math.RoundToEven(x*1e4) / 1e4
}
