package table

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Record maps feature names to scalar values for one entity.
// Numeric features hold any Go integer or float type (or json.Number),
// categorical features hold a string.
type Record map[string]any

// Frame is a small row-oriented table. Predictions are always made on a
// one-row frame.
type Frame []Record

type MissingFeatureError struct {
	Name string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing feature %q", e.Name)
}

type FeatureTypeError struct {
	Name  string
	Want  string
	Value any
}

func (e *FeatureTypeError) Error() string {
	return fmt.Sprintf("feature %q: expected %s value, got %T", e.Name, e.Want, e.Value)
}

func NewFrame(records ...Record) Frame {
	return Frame(records)
}

func (f Frame) Len() int {
	return len(f)
}

func (f Frame) Row(i int) Record {
	return f[i]
}

// Float returns the numeric value of a feature. NaN and infinities are
// rejected.
func (r Record) Float(name string) (float64, error) {
	v, ok := r[name]
	if !ok {
		return 0, &MissingFeatureError{Name: name}
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, &FeatureTypeError{Name: name, Want: "numeric", Value: v}
		}
		f = parsed
	default:
		return 0, &FeatureTypeError{Name: name, Want: "numeric", Value: v}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &FeatureTypeError{Name: name, Want: "numeric", Value: v}
	}
	return f, nil
}

// String returns the categorical value of a feature.
func (r Record) String(name string) (string, error) {
	v, ok := r[name]
	if !ok {
		return "", &MissingFeatureError{Name: name}
	}
	s, ok := v.(string)
	if !ok {
		return "", &FeatureTypeError{Name: name, Want: "categorical", Value: v}
	}
	return s, nil
}

// DecodeRecord reads exactly one JSON object. Numbers are kept as
// json.Number so integer features are not rounded through float64 early.
func DecodeRecord(r io.Reader) (Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode feature record: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("feature record must be a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("feature record must contain a single JSON object")
	}
	return rec, nil
}
