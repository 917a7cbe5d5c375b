package svm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearExport(t *testing.T) {
	clf, err := New(Model{
		Kernel:    KernelLinear,
		Coef:      []float64{1, -1},
		Intercept: 0.5,
		ProbA:     -2,
		ProbB:     0,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, clf.Dimension())

	f, err := clf.Decision([]float32{2, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, f, 1e-9)

	probs, err := clf.PredictProba([][]float32{{2, 1}, {0, 0}})
	require.NoError(t, err)
	require.Len(t, probs, 2)

	want := 1 / (1 + math.Exp(-2*1.5))
	assert.InDelta(t, want, probs[0][1], 1e-9)
	assert.InDelta(t, 1-want, probs[0][0], 1e-9)
	assert.InDelta(t, 1/(1+math.Exp(-1.0)), probs[1][1], 1e-9)
}

// probB_ keeps libsvm's sign while decision_function is negated, so a
// nonzero ProbB shifts P(Classes[1]) up, not down. Expected values come from
// scikit-learn's predict_proba for the same probA_/probB_.
func TestPlattMatchesScikitLearn(t *testing.T) {
	clf, err := New(Model{
		Kernel:  KernelLinear,
		Coef:    []float64{1},
		ProbA:   -1.7,
		ProbB:   0.9,
		Classes: []int{0, 1},
	})
	require.NoError(t, err)

	probs, err := clf.PredictProba([][]float32{{0.25}, {-1}})
	require.NoError(t, err)
	assert.InDelta(t, 0.790012, probs[0][1], 1e-6)
	assert.InDelta(t, 0.209988, probs[0][0], 1e-6)
	assert.InDelta(t, 0.310026, probs[1][1], 1e-6)
}

func TestPlattClipped(t *testing.T) {
	clf, err := New(Model{Kernel: KernelLinear, Coef: []float64{1}, ProbA: -10})
	require.NoError(t, err)

	probs, err := clf.PredictProba([][]float32{{1e4}, {-1e4}})
	require.NoError(t, err)
	assert.InDelta(t, 1-minProb, probs[0][1], 1e-12)
	assert.InDelta(t, minProb, probs[1][1], 1e-12)
}

func TestRBFKernel(t *testing.T) {
	clf, err := New(Model{
		Kernel:         KernelRBF,
		Gamma:          0.5,
		SupportVectors: [][]float32{{0, 0}, {1, 1}},
		DualCoef:       []float64{-1, 1},
		Intercept:      0,
		ProbA:          -1,
	})
	require.NoError(t, err)

	f, err := clf.Decision([]float32{1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1-math.Exp(-0.5*2), f, 1e-9)

	probs, err := clf.PredictProba([][]float32{{1, 1}, {0, 0}})
	require.NoError(t, err)
	assert.Greater(t, probs[0][1], 0.5)
	assert.Less(t, probs[1][1], 0.5)
}

func TestProbabilitiesInUnitInterval(t *testing.T) {
	clf, err := New(Model{
		Kernel:    KernelLinear,
		Coef:      []float64{1000},
		ProbA:     -50,
		ProbB:     3,
		Intercept: 0,
	})
	require.NoError(t, err)

	rows := [][]float32{{-1e6}, {-1}, {0}, {1}, {1e6}}
	probs, err := clf.PredictProba(rows)
	require.NoError(t, err)
	for _, p := range probs {
		assert.GreaterOrEqual(t, p[1], 0.0)
		assert.LessOrEqual(t, p[1], 1.0)
		assert.False(t, math.IsNaN(p[1]))
	}
}

func TestDecode(t *testing.T) {
	data := []byte(`{
		"kernel": "poly",
		"gamma": 1,
		"coef0": 1,
		"degree": 2,
		"support_vectors": [[1, 0]],
		"dual_coef": [2],
		"intercept": -1,
		"prob_a": -1,
		"prob_b": 0,
		"classes": [0, 1]
	}`)
	clf, err := Decode(data)
	require.NoError(t, err)

	f, err := clf.Decision([]float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 2*4-1, f, 1e-9)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		model Model
	}{
		{"empty", Model{Kernel: KernelLinear}},
		{"coef with rbf", Model{Kernel: KernelRBF, Gamma: 1, Coef: []float64{1}}},
		{"dual coef mismatch", Model{Kernel: KernelRBF, Gamma: 1, SupportVectors: [][]float32{{1}}, DualCoef: []float64{1, 2}}},
		{"ragged support vectors", Model{Kernel: KernelRBF, Gamma: 1, SupportVectors: [][]float32{{1}, {1, 2}}, DualCoef: []float64{1, 2}}},
		{"missing gamma", Model{Kernel: KernelRBF, SupportVectors: [][]float32{{1}}, DualCoef: []float64{1}}},
		{"unknown kernel", Model{Kernel: "precomputed", Coef: []float64{1}}},
		{"multiclass", Model{Kernel: KernelLinear, Coef: []float64{1}, Classes: []int{0, 1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.model)
			assert.Error(t, err)
		})
	}

	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestDimensionMismatch(t *testing.T) {
	clf, err := New(Model{Kernel: KernelLinear, Coef: []float64{1, 2}})
	require.NoError(t, err)

	_, err = clf.PredictProba([][]float32{{1, 2}, {1}})
	assert.Error(t, err)
}
