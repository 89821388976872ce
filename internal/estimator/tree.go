package estimator

import (
	"errors"
	"fmt"
)

const leaf = -1

// Node is one node of a fitted tree. Leaves have Left == Right == -1 and
// carry the class weights seen during fitting in Value.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (n Node) isLeaf() bool {
	return n.Left == leaf && n.Right == leaf
}

func (t *Tree) validate(width, classes int) error {
	if len(t.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range t.Nodes {
		if node.isLeaf() {
			if len(node.Value) != classes {
				return fmt.Errorf("leaf %d has %d values, want %d", i, len(node.Value), classes)
			}
			total := 0.0
			for _, v := range node.Value {
				if v < 0 {
					return fmt.Errorf("leaf %d has a negative weight", i)
				}
				total += v
			}
			if total <= 0 {
				return fmt.Errorf("leaf %d has no weight", i)
			}
			continue
		}
		if node.Feature < 0 || node.Feature >= width {
			return fmt.Errorf("node %d splits on feature %d, row width is %d", i, node.Feature, width)
		}
		// children always follow their parent, which also rules out cycles
		if node.Left <= i || node.Left >= len(t.Nodes) || node.Right <= i || node.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, node.Left, node.Right)
		}
	}
	return nil
}

// proba walks the tree for one encoded row and returns the normalised leaf
// weights.
func (t *Tree) proba(row []float64) ([]float64, error) {
	idx := 0
	for {
		if idx < 0 || idx >= len(t.Nodes) {
			return nil, errors.New("invalid tree state")
		}
		node := t.Nodes[idx]
		if node.isLeaf() {
			return normalize(node.Value), nil
		}
		if node.Feature >= len(row) {
			return nil, errors.New("feature index out of range")
		}
		if row[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

func normalize(values []float64) []float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / total
	}
	return out
}
