package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautyrec/internal/domain"
)

func TestHybridScore(t *testing.T) {
	assert.InDelta(t, 0.6*0.91+0.4*0.6, HybridScore(0.91, 0.6), 1e-12)
	assert.InDelta(t, 1.0, HybridScore(1, 1), 1e-12)
	assert.InDelta(t, 0.0, HybridScore(0, 0), 1e-12)
}

func TestNewRanker(t *testing.T) {
	r, err := NewRanker("")
	require.NoError(t, err)
	assert.Equal(t, OrderSimilarity, r.Order())

	_, err = NewRanker("alphabetical")
	assert.Error(t, err)
}

func TestRanker_KeepsRetrievalOrder(t *testing.T) {
	r, err := NewRanker(OrderSimilarity)
	require.NoError(t, err)

	in := []domain.Candidate{
		{Name: "a", FaissSim: 0.9, ProbSVM: 0.1},
		{Name: "b", FaissSim: 0.8, ProbSVM: 0.9},
	}
	out := r.Rank(in)

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Name)
	assert.Equal(t, "b", out[1].Name)
	assert.InDelta(t, 0.58, out[0].HybridScore, 1e-12)
	assert.InDelta(t, 0.84, out[1].HybridScore, 1e-12)
	assert.Zero(t, in[0].HybridScore, "input must not be modified")
}

func TestRanker_HybridOrderIsStable(t *testing.T) {
	r, err := NewRanker(OrderHybrid)
	require.NoError(t, err)

	out := r.Rank([]domain.Candidate{
		{Name: "a", FaissSim: 0.5, ProbSVM: 0.5},
		{Name: "b", FaissSim: 0.9, ProbSVM: 0.9},
		{Name: "c", FaissSim: 0.5, ProbSVM: 0.5},
	})

	names := []string{out[0].Name, out[1].Name, out[2].Name}
	assert.Equal(t, []string{"b", "a", "c"}, names)
}

func TestRanker_Empty(t *testing.T) {
	r, _ := NewRanker(OrderHybrid)
	assert.Empty(t, r.Rank(nil))
}
