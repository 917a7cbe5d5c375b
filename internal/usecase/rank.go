package usecase

import (
	"fmt"
	"sort"

	"beautyrec/internal/domain"
)

// Blend weights of the hybrid score.
const (
	SimilarityWeight = 0.6
	ClassifierWeight = 0.4
)

// Ranking orders.
const (
	OrderSimilarity = "similarity"
	OrderHybrid     = "hybrid"
)

// HybridScore blends index similarity and classifier probability.
func HybridScore(faissSim, probSVM float64) float64 {
	return SimilarityWeight*faissSim + ClassifierWeight*probSVM
}

// Ranker assigns hybrid scores and orders candidates.
type Ranker struct {
	order string
}

// NewRanker creates a ranker. An empty order means OrderSimilarity.
func NewRanker(order string) (*Ranker, error) {
	switch order {
	case "":
		order = OrderSimilarity
	case OrderSimilarity, OrderHybrid:
	default:
		return nil, fmt.Errorf("unknown ranking order %q", order)
	}
	return &Ranker{order: order}, nil
}

// Order returns the configured ordering.
func (r *Ranker) Order() string { return r.order }

// Rank sets HybridScore on every candidate. With OrderSimilarity the retrieval
// order is kept; with OrderHybrid candidates are stably sorted by hybrid score,
// highest first. The input slice is not modified.
func (r *Ranker) Rank(candidates []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, len(candidates))
	for i, c := range candidates {
		c.HybridScore = HybridScore(c.FaissSim, c.ProbSVM)
		out[i] = c
	}
	if r.order == OrderHybrid {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].HybridScore > out[j].HybridScore
		})
	}
	return out
}
