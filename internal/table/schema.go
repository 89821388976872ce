package table

import (
	"errors"
	"fmt"
)

type ColumnType string

const (
	Numeric     ColumnType = "numeric"
	Categorical ColumnType = "categorical"
)

// Column describes one trained feature. Categorical columns are one-hot
// encoded over Categories in order.
type Column struct {
	Name       string     `json:"name" yaml:"name"`
	Type       ColumnType `json:"type" yaml:"type"`
	Categories []string   `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Schema is the ordered list of features a model was trained on.
type Schema []Column

func (c Column) width() int {
	if c.Type == Categorical {
		return len(c.Categories)
	}
	return 1
}

// Width is the length of an encoded row.
func (s Schema) Width() int {
	n := 0
	for _, c := range s {
		n += c.width()
	}
	return n
}

func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

func (s Schema) Validate() error {
	if len(s) == 0 {
		return errors.New("schema has no features")
	}
	seen := make(map[string]bool, len(s))
	for _, c := range s {
		if c.Name == "" {
			return errors.New("schema has a feature with an empty name")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate feature %q", c.Name)
		}
		seen[c.Name] = true

		switch c.Type {
		case Numeric:
		case Categorical:
			if len(c.Categories) == 0 {
				return fmt.Errorf("categorical feature %q has no categories", c.Name)
			}
		default:
			return fmt.Errorf("feature %q has unknown type %q", c.Name, c.Type)
		}
	}
	return nil
}

// Encode turns a record into a dense row. Unknown categories encode as all
// zeros; missing or mistyped features are errors.
func (s Schema) Encode(r Record) ([]float64, error) {
	row := make([]float64, 0, s.Width())
	for _, c := range s {
		switch c.Type {
		case Categorical:
			v, err := r.String(c.Name)
			if err != nil {
				return nil, err
			}
			for _, cat := range c.Categories {
				if cat == v {
					row = append(row, 1)
				} else {
					row = append(row, 0)
				}
			}
		default:
			v, err := r.Float(c.Name)
			if err != nil {
				return nil, err
			}
			row = append(row, v)
		}
	}
	return row, nil
}

// EncodeFrame encodes every row of f.
func (s Schema) EncodeFrame(f Frame) ([][]float64, error) {
	rows := make([][]float64, 0, f.Len())
	for _, rec := range f {
		row, err := s.Encode(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
