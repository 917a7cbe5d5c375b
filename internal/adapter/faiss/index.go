// Package faiss reads faiss flat indexes and answers exact k-NN queries over them.
package faiss

import (
	"fmt"
	"math"
	"sort"

	"beautyrec/internal/port"
)

// Metric mirrors faiss::MetricType.
type Metric int32

const (
	MetricInnerProduct Metric = 0
	MetricL2           Metric = 1
)

func (m Metric) String() string {
	switch m {
	case MetricInnerProduct:
		return "inner_product"
	case MetricL2:
		return "l2"
	default:
		return fmt.Sprintf("metric(%d)", int32(m))
	}
}

// FlatIndex is an exhaustive-search index, equivalent to faiss IndexFlatIP/IndexFlatL2.
// It is read-only after construction and safe for concurrent use.
type FlatIndex struct {
	dim    int
	ntotal int
	metric Metric
	data   []float32
}

var _ port.SimilarityIndex = (*FlatIndex)(nil)

// NewFlatIndex builds an index over rows, stored in the given order.
func NewFlatIndex(metric Metric, rows [][]float32) (*FlatIndex, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("cannot build index over zero vectors")
	}
	dim := len(rows[0])
	data := make([]float32, 0, len(rows)*dim)
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("vector dimension mismatch at row %d: expected %d, got %d", i, dim, len(r))
		}
		data = append(data, r...)
	}
	return &FlatIndex{dim: dim, ntotal: len(rows), metric: metric, data: data}, nil
}

func (x *FlatIndex) Size() int      { return x.ntotal }
func (x *FlatIndex) Dimension() int { return x.dim }
func (x *FlatIndex) Metric() Metric { return x.metric }

// Search returns the k best rows for query. Inner-product results are ordered by
// descending score, L2 results by ascending squared distance. Ties go to the
// lower row.
func (x *FlatIndex) Search(query []float32, k int) ([]port.IndexHit, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", x.dim, len(query))
	}
	if k <= 0 || x.ntotal == 0 {
		return nil, nil
	}

	hits := make([]port.IndexHit, x.ntotal)
	for i := 0; i < x.ntotal; i++ {
		row := x.data[i*x.dim : (i+1)*x.dim]
		var score float64
		if x.metric == MetricL2 {
			score = squaredL2(query, row)
		} else {
			score = innerProduct(query, row)
		}
		hits[i] = port.IndexHit{Row: i, Score: score}
	}

	better := func(a, b port.IndexHit) bool {
		if a.Score == b.Score {
			return a.Row < b.Row
		}
		if x.metric == MetricL2 {
			return a.Score < b.Score
		}
		return a.Score > b.Score
	}
	sort.Slice(hits, func(i, j int) bool {
		return better(hits[i], hits[j])
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// NormalizeL2 scales v in place to unit L2 norm, like faiss.normalize_L2.
// Zero vectors are left unchanged.
func NormalizeL2(v []float32) {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

func innerProduct(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
