package usecase

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautyrec/internal/adapter/faiss"
	"beautyrec/internal/domain"
	"beautyrec/internal/port"
)

func normalizedRows(c *domain.Catalog) [][]float32 {
	m := c.Matrix()
	rows := make([][]float32, m.Rows())
	for i := range rows {
		v := append([]float32(nil), m.Row(i)...)
		faiss.NormalizeL2(v)
		rows[i] = v
	}
	return rows
}

func TestRetrieve_SelfFirst(t *testing.T) {
	catalog := testCatalog(8)
	idx, err := faiss.NewFlatIndex(faiss.MetricInnerProduct, normalizedRows(catalog))
	require.NoError(t, err)

	uc := NewRetrieveUseCase(catalog, idx)
	for _, q := range []int{0, 3, 7} {
		neighbors, err := uc.Retrieve(q, 6)
		require.NoError(t, err)
		require.Len(t, neighbors, 6)
		assert.Equal(t, q, neighbors[0].Index)
		assert.InDelta(t, 1.0, neighbors[0].Similarity, 1e-5)
		for i := 1; i < len(neighbors); i++ {
			assert.GreaterOrEqual(t, neighbors[i-1].Similarity, neighbors[i].Similarity)
		}
	}
}

func TestRetrieve_NormalizesCopy(t *testing.T) {
	catalog := testCatalog(3)
	idx := &fakeIndex{hits: []port.IndexHit{{Row: 2, Score: 1}}, size: 3, dim: 2}

	_, err := NewRetrieveUseCase(catalog, idx).Retrieve(2, 1)
	require.NoError(t, err)

	require.Len(t, idx.queries, 1)
	q := idx.queries[0]
	assert.InDelta(t, 1.0, math.Hypot(float64(q[0]), float64(q[1])), 1e-6)
	assert.Equal(t, []float32{2, 1}, catalog.Matrix().Row(2), "matrix row must stay untouched")
}

func TestRetrieve_KLargerThanIndex(t *testing.T) {
	catalog := testCatalog(1)
	idx, err := faiss.NewFlatIndex(faiss.MetricInnerProduct, normalizedRows(catalog))
	require.NoError(t, err)

	neighbors, err := NewRetrieveUseCase(catalog, idx).Retrieve(0, 6)
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, 0, neighbors[0].Index)
}

func TestRetrieve_Errors(t *testing.T) {
	catalog := testCatalog(3)

	_, err := NewRetrieveUseCase(catalog, nil).Retrieve(0, 6)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)

	uc := NewRetrieveUseCase(catalog, &fakeIndex{size: 3, dim: 2})
	_, err = uc.Retrieve(3, 6)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Retrieve(-1, 6)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = uc.RetrieveByName("Nope", 6)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	failing := NewRetrieveUseCase(catalog, &fakeIndex{size: 3, dim: 2, err: errors.New("corrupt")})
	_, err = failing.Retrieve(0, 6)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestRetrieve_Deterministic(t *testing.T) {
	catalog := testCatalog(6)
	idx, err := faiss.NewFlatIndex(faiss.MetricInnerProduct, normalizedRows(catalog))
	require.NoError(t, err)
	uc := NewRetrieveUseCase(catalog, idx)

	first, err := uc.Retrieve(2, 6)
	require.NoError(t, err)
	second, err := uc.Retrieve(2, 6)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
