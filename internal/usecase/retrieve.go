package usecase

import (
	"fmt"

	"beautyrec/internal/adapter/faiss"
	"beautyrec/internal/domain"
	"beautyrec/internal/port"
)

// DefaultK is the number of neighbors requested per query, self-match included.
const DefaultK = 6

// RetrieveUseCase finds the nearest products to a table row.
type RetrieveUseCase struct {
	catalog *domain.Catalog
	index   port.SimilarityIndex
}

// NewRetrieveUseCase creates a new retrieve use case. index may be nil, in
// which case every call fails with ErrIndexUnavailable.
func NewRetrieveUseCase(catalog *domain.Catalog, index port.SimilarityIndex) *RetrieveUseCase {
	return &RetrieveUseCase{catalog: catalog, index: index}
}

// Retrieve returns up to k neighbors of the product at queryIndex, most
// similar first. The first neighbor is normally the query itself.
func (u *RetrieveUseCase) Retrieve(queryIndex, k int) ([]domain.Neighbor, error) {
	if u.index == nil {
		return nil, domain.ErrIndexUnavailable
	}
	if u.catalog == nil || queryIndex < 0 || queryIndex >= u.catalog.Len() {
		return nil, fmt.Errorf("%w: row %d", domain.ErrNotFound, queryIndex)
	}
	if k <= 0 {
		k = DefaultK
	}

	// The matrix row is shared; normalize a copy.
	vec := append([]float32(nil), u.catalog.Matrix().Row(queryIndex)...)
	faiss.NormalizeL2(vec)

	hits, err := u.index.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}

	neighbors := make([]domain.Neighbor, 0, len(hits))
	for _, h := range hits {
		if h.Row < 0 || h.Row >= u.catalog.Len() {
			continue
		}
		neighbors = append(neighbors, domain.Neighbor{Index: h.Row, Similarity: h.Score})
	}
	return neighbors, nil
}

// RetrieveByName resolves name and retrieves its neighbors.
func (u *RetrieveUseCase) RetrieveByName(name string, k int) (domain.Product, []domain.Neighbor, error) {
	if u.catalog == nil {
		return domain.Product{}, nil, fmt.Errorf("%w: product %q", domain.ErrNotFound, name)
	}
	p, err := u.catalog.Lookup(name)
	if err != nil {
		return domain.Product{}, nil, err
	}
	neighbors, err := u.Retrieve(p.Index, k)
	return p, neighbors, err
}
