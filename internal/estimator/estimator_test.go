package estimator

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/category-predictor/internal/table"
)

func TestLoadDecisionTree(t *testing.T) {
	clf, err := Load("testdata/tree.json")
	require.NoError(t, err)

	assert.Equal(t, KindDecisionTree, clf.Kind())
	assert.Equal(t, []string{"A", "B"}, clf.Classes())
	assert.Equal(t, []string{"price", "channel"}, clf.Features().Names())

	tests := []struct {
		name  string
		rec   table.Record
		proba []float64
		label string
	}{
		{"cheap goes left", table.Record{"price": 10, "channel": "online"}, []float64{0.82, 0.18}, "A"},
		{"split threshold is inclusive", table.Record{"price": 50, "channel": "retail"}, []float64{0.82, 0.18}, "A"},
		{"expensive online", table.Record{"price": 80, "channel": "online"}, []float64{0.25, 0.75}, "B"},
		{"expensive retail ties to first class", table.Record{"price": 80, "channel": "retail"}, []float64{0.5, 0.5}, "A"},
		{"unknown category behaves like not retail", table.Record{"price": 80, "channel": "phone"}, []float64{0.25, 0.75}, "B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := table.NewFrame(tt.rec)

			probs, err := clf.PredictProba(frame)
			require.NoError(t, err)
			require.Len(t, probs, 1)
			assert.InDeltaSlice(t, tt.proba, probs[0], 1e-12)

			labels, err := clf.Predict(frame)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.label}, labels)
		})
	}
}

func TestLoadRandomForest(t *testing.T) {
	clf, err := Load("testdata/forest.json")
	require.NoError(t, err)

	probs, err := clf.PredictProba(table.NewFrame(
		table.Record{"price": 10, "channel": "online"},
		table.Record{"price": 90, "channel": "online"},
	))
	require.NoError(t, err)
	require.Len(t, probs, 2)
	assert.InDeltaSlice(t, []float64{0.66, 0.34}, probs[0], 1e-12)
	assert.InDeltaSlice(t, []float64{0.375, 0.625}, probs[1], 1e-12)

	labels, err := clf.Predict(table.NewFrame(table.Record{"price": 90, "channel": "retail"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, labels)
}

func TestLoadLogisticRegression(t *testing.T) {
	t.Run("multinomial uses softmax", func(t *testing.T) {
		clf, err := Load("testdata/logistic.json")
		require.NoError(t, err)

		probs, err := clf.PredictProba(table.NewFrame(table.Record{"score": math.Log(2)}))
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.5, 0.25, 0.25}, probs[0], 1e-12)

		labels, err := clf.Predict(table.NewFrame(table.Record{"score": 0}))
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, labels)
	})

	t.Run("binary uses a single sigmoid row", func(t *testing.T) {
		clf, err := New(&Artifact{
			FormatVersion: FormatVersion,
			Kind:          KindLogisticRegression,
			Classes:       []string{"no", "yes"},
			Features:      table.Schema{{Name: "x", Type: table.Numeric}},
			Linear:        &Linear{Coef: [][]float64{{0.1}}, Intercept: []float64{-1}},
		})
		require.NoError(t, err)

		probs, err := clf.PredictProba(table.NewFrame(table.Record{"x": 20}))
		require.NoError(t, err)
		assert.InDelta(t, 0.7310585786, probs[0][1], 1e-9)
		assert.InDelta(t, 1.0, probs[0][0]+probs[0][1], 1e-12)

		labels, err := clf.Predict(table.NewFrame(table.Record{"x": 20}))
		require.NoError(t, err)
		assert.Equal(t, []string{"yes"}, labels)
	})
}

func TestPredictPropagatesFeatureErrors(t *testing.T) {
	clf, err := Load("testdata/tree.json")
	require.NoError(t, err)

	_, err = clf.PredictProba(table.NewFrame(table.Record{"channel": "online"}))
	var missing *table.MissingFeatureError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "price", missing.Name)

	_, err = clf.Predict(table.NewFrame(table.Record{"price": "cheap", "channel": "online"}))
	var typeErr *table.FeatureTypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestClassesIsACopy(t *testing.T) {
	clf, err := Load("testdata/tree.json")
	require.NoError(t, err)

	classes := clf.Classes()
	classes[0] = "mutated"
	assert.Equal(t, []string{"A", "B"}, clf.Classes())
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load("testdata/does-not-exist.json")
		assert.Error(t, err)
	})

	t.Run("truncated file", func(t *testing.T) {
		_, err := Load("testdata/truncated.json")
		assert.Error(t, err)
	})

	t.Run("newer format version", func(t *testing.T) {
		_, err := Load("testdata/future.json")
		assert.ErrorIs(t, err, ErrIncompatibleFormat)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`{"format_version": 1, "kind": "svm", "classes": ["a", "b"],
			"features": [{"name": "x", "type": "numeric"}]}`))
		assert.ErrorIs(t, err, ErrUnsupportedKind)
	})
}

func TestNewRejectsCorruptArtifacts(t *testing.T) {
	schema := table.Schema{{Name: "x", Type: table.Numeric}}
	leafAB := Node{Feature: -1, Left: leaf, Right: leaf, Value: []float64{1, 1}}

	tests := []struct {
		name     string
		artifact Artifact
	}{
		{"single class", Artifact{Kind: KindDecisionTree, Classes: []string{"a"}, Features: schema,
			Tree: &Tree{Nodes: []Node{{Feature: -1, Left: leaf, Right: leaf, Value: []float64{1}}}}}},
		{"duplicate class", Artifact{Kind: KindDecisionTree, Classes: []string{"a", "a"}, Features: schema,
			Tree: &Tree{Nodes: []Node{leafAB}}}},
		{"no features", Artifact{Kind: KindDecisionTree, Classes: []string{"a", "b"},
			Tree: &Tree{Nodes: []Node{leafAB}}}},
		{"tree missing", Artifact{Kind: KindDecisionTree, Classes: []string{"a", "b"}, Features: schema}},
		{"leaf value width", Artifact{Kind: KindDecisionTree, Classes: []string{"a", "b"}, Features: schema,
			Tree: &Tree{Nodes: []Node{{Feature: -1, Left: leaf, Right: leaf, Value: []float64{1, 1, 1}}}}}},
		{"empty leaf", Artifact{Kind: KindDecisionTree, Classes: []string{"a", "b"}, Features: schema,
			Tree: &Tree{Nodes: []Node{{Feature: -1, Left: leaf, Right: leaf, Value: []float64{0, 0}}}}}},
		{"split feature out of range", Artifact{Kind: KindDecisionTree, Classes: []string{"a", "b"}, Features: schema,
			Tree: &Tree{Nodes: []Node{{Feature: 3, Left: 1, Right: 2}, leafAB, leafAB}}}},
		{"child points backwards", Artifact{Kind: KindDecisionTree, Classes: []string{"a", "b"}, Features: schema,
			Tree: &Tree{Nodes: []Node{{Feature: 0, Left: 0, Right: 1}, leafAB}}}},
		{"forest without trees", Artifact{Kind: KindRandomForest, Classes: []string{"a", "b"}, Features: schema}},
		{"coef rows", Artifact{Kind: KindLogisticRegression, Classes: []string{"a", "b", "c"}, Features: schema,
			Linear: &Linear{Coef: [][]float64{{1}}, Intercept: []float64{0}}}},
		{"coef width", Artifact{Kind: KindLogisticRegression, Classes: []string{"a", "b"}, Features: schema,
			Linear: &Linear{Coef: [][]float64{{1, 2}}, Intercept: []float64{0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.artifact
			a.FormatVersion = FormatVersion
			_, err := New(&a)
			assert.Error(t, err)
		})
	}
}
