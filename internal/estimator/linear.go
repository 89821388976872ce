package estimator

import (
	"fmt"
	"math"
)

// Linear holds the parameters of a fitted logistic regression. A two-class
// model has a single coefficient row scoring the second class.
type Linear struct {
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

func (l *Linear) validate(width, classes int) error {
	rows := classes
	if classes == 2 {
		rows = 1
	}
	if len(l.Coef) != rows {
		return fmt.Errorf("coef has %d rows, want %d", len(l.Coef), rows)
	}
	if len(l.Intercept) != rows {
		return fmt.Errorf("intercept has %d values, want %d", len(l.Intercept), rows)
	}
	for i, c := range l.Coef {
		if len(c) != width {
			return fmt.Errorf("coef row %d has %d values, want %d", i, len(c), width)
		}
	}
	return nil
}

func (l *Linear) proba(row []float64) []float64 {
	scores := make([]float64, len(l.Coef))
	for i, c := range l.Coef {
		s := l.Intercept[i]
		for j, w := range c {
			s += w * row[j]
		}
		scores[i] = s
	}

	if len(scores) == 1 {
		p := sigmoid(scores[0])
		return []float64{1 - p, p}
	}
	return softmax(scores)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func softmax(scores []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	out := make([]float64, len(scores))
	total := 0.0
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}
