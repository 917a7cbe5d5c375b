// Package svm evaluates a fitted binary support vector classifier with Platt
// probability scaling, exported from scikit-learn as JSON.
package svm

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"

	"beautyrec/internal/port"
)

// Kernel names accepted in the export.
const (
	KernelLinear  = "linear"
	KernelRBF     = "rbf"
	KernelPoly    = "poly"
	KernelSigmoid = "sigmoid"
)

// Model is the JSON export of a fitted classifier.
//
// The decision value is f(x) = sum_i DualCoef[i]*K(SupportVectors[i], x) + Intercept,
// or Coef·x + Intercept when Coef is set (linear exports). These are the public
// scikit-learn attributes, so positive f favours Classes[1]. ProbA and ProbB are
// probA_ and probB_, which scikit-learn stores with libsvm's sign, where the
// decision value is -f. The probability of Classes[1] is therefore
// 1 / (1 + exp(ProbA*f - ProbB)), clipped to [minProb, 1-minProb].
type Model struct {
	Kernel         string      `json:"kernel"`
	Gamma          float64     `json:"gamma"`
	Coef0          float64     `json:"coef0"`
	Degree         int         `json:"degree"`
	SupportVectors [][]float32 `json:"support_vectors,omitempty"`
	DualCoef       []float64   `json:"dual_coef,omitempty"`
	Coef           []float64   `json:"coef,omitempty"`
	Intercept      float64     `json:"intercept"`
	ProbA          float64     `json:"prob_a"`
	ProbB          float64     `json:"prob_b"`
	Classes        []int       `json:"classes,omitempty"`
}

// minProb bounds Platt probabilities away from 0 and 1, as libsvm does.
const minProb = 1e-7

// Classifier is a validated Model ready for inference. It is immutable and
// safe for concurrent use.
type Classifier struct {
	model Model
	dim   int
}

var _ port.Classifier = (*Classifier)(nil)

// Decode parses and validates a JSON model export.
func Decode(data []byte) (*Classifier, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse classifier: %w", err)
	}
	return New(m)
}

// New validates m.
func New(m Model) (*Classifier, error) {
	if m.Kernel == "" {
		m.Kernel = KernelRBF
	}
	if m.Degree == 0 {
		m.Degree = 3
	}
	if len(m.Classes) != 0 && len(m.Classes) != 2 {
		return nil, fmt.Errorf("expected a binary classifier, got %d classes", len(m.Classes))
	}

	var dim int
	switch {
	case len(m.Coef) > 0:
		if m.Kernel != KernelLinear {
			return nil, fmt.Errorf("coef is only valid for the linear kernel, got %q", m.Kernel)
		}
		dim = len(m.Coef)
	case len(m.SupportVectors) > 0:
		if len(m.DualCoef) != len(m.SupportVectors) {
			return nil, fmt.Errorf("dual_coef length %d does not match %d support vectors", len(m.DualCoef), len(m.SupportVectors))
		}
		dim = len(m.SupportVectors[0])
		for i, sv := range m.SupportVectors {
			if len(sv) != dim {
				return nil, fmt.Errorf("support vector %d has dimension %d, expected %d", i, len(sv), dim)
			}
		}
	default:
		return nil, fmt.Errorf("classifier has neither coef nor support vectors")
	}

	switch m.Kernel {
	case KernelLinear:
	case KernelRBF, KernelPoly, KernelSigmoid:
		if m.Gamma <= 0 {
			return nil, fmt.Errorf("kernel %q requires a positive gamma", m.Kernel)
		}
	default:
		return nil, fmt.Errorf("unsupported kernel %q", m.Kernel)
	}

	return &Classifier{model: m, dim: dim}, nil
}

// Dimension returns the expected feature width.
func (c *Classifier) Dimension() int {
	return c.dim
}

// Decision returns the signed decision value for x.
func (c *Classifier) Decision(x []float32) (float64, error) {
	if len(x) != c.dim {
		return 0, fmt.Errorf("feature dimension mismatch: expected %d, got %d", c.dim, len(x))
	}

	m := &c.model
	if len(m.Coef) > 0 {
		f := m.Intercept
		for i, w := range m.Coef {
			f += w * float64(x[i])
		}
		return f, nil
	}

	f := m.Intercept
	for i, sv := range m.SupportVectors {
		f += m.DualCoef[i] * c.kernel(sv, x)
	}
	return f, nil
}

// PredictProba returns [P(Classes[0]), P(Classes[1])] for each row.
func (c *Classifier) PredictProba(rows [][]float32) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, x := range rows {
		f, err := c.Decision(x)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		p := c.platt(f)
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

func (c *Classifier) platt(f float64) float64 {
	p := sigmoid(c.model.ProbA*f - c.model.ProbB)
	return math.Min(math.Max(p, minProb), 1-minProb)
}

func (c *Classifier) kernel(sv, x []float32) float64 {
	m := &c.model
	switch m.Kernel {
	case KernelRBF:
		var d float64
		for i := range sv {
			diff := float64(sv[i]) - float64(x[i])
			d += diff * diff
		}
		return math.Exp(-m.Gamma * d)
	case KernelPoly:
		return math.Pow(m.Gamma*dot(sv, x)+m.Coef0, float64(m.Degree))
	case KernelSigmoid:
		return math.Tanh(m.Gamma*dot(sv, x) + m.Coef0)
	default:
		return dot(sv, x)
	}
}

// sigmoid computes 1/(1+exp(z)) without overflow, matching libsvm's sigmoid_predict.
func sigmoid(z float64) float64 {
	if z >= 0 {
		e := math.Exp(-z)
		return e / (1 + e)
	}
	return 1 / (1 + math.Exp(z))
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
