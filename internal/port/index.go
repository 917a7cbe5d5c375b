package port

// SimilarityIndex answers nearest-neighbor queries over the embedding matrix.
// Row ids returned by Search are positions in the product table.
type SimilarityIndex interface {
	// Search returns up to k (row, score) pairs, best first.
	Search(query []float32, k int) ([]IndexHit, error)

	// Size returns the number of indexed vectors.
	Size() int

	// Dimension returns the vector width.
	Dimension() int
}

// IndexHit is a single search result.
type IndexHit struct {
	Row   int
	Score float64
}
