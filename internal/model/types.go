package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ModelVersion is informational only; it is not checked against the
// loaded artifact.
const ModelVersion = "1.0.0"

type PredictionResult struct {
	PredictedCategory  string             `json:"predicted_category"`
	Confidence         float64            `json:"confidence"`
	ClassProbabilities ClassProbabilities `json:"class_probabilities"`
}

type ClassProbability struct {
	Label       string
	Probability float64
}

// ClassProbabilities keeps the model's class order. It marshals to a JSON
// object whose keys appear in that order.
type ClassProbabilities []ClassProbability

func (cp ClassProbabilities) Get(label string) (float64, bool) {
	for _, p := range cp {
		if p.Label == label {
			return p.Probability, true
		}
	}
	return 0, false
}

func (cp ClassProbabilities) Labels() []string {
	labels := make([]string, len(cp))
	for i, p := range cp {
		labels[i] = p.Label
	}
	return labels
}

func (cp ClassProbabilities) Map() map[string]float64 {
	m := make(map[string]float64, len(cp))
	for _, p := range cp {
		m[p.Label] = p.Probability
	}
	return m
}

func (cp ClassProbabilities) Sum() float64 {
	total := 0.0
	for _, p := range cp {
		total += p.Probability
	}
	return total
}

func (cp ClassProbabilities) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range cp {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.Probability)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (cp *ClassProbabilities) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*cp = nil
		return nil
	}
	if tok != json.Delim('{') {
		return fmt.Errorf("class probabilities must be a JSON object")
	}
	out := ClassProbabilities{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, _ := tok.(string)
		var p float64
		if err := dec.Decode(&p); err != nil {
			return err
		}
		out = append(out, ClassProbability{Label: label, Probability: p})
	}
	*cp = out
	return nil
}
