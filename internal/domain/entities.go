package domain

import (
	"fmt"
	"sort"
)

// Product is one row of the product table.
type Product struct {
	Index          int
	Name           string
	SentimentScore float64
	Embedding      []float32
}

// Neighbor is a single nearest-neighbor hit, addressed by table row.
type Neighbor struct {
	Index      int
	Similarity float64
}

// Candidate is a product proposed as an alternative to the query product.
type Candidate struct {
	Product     Product `json:"-"`
	Name        string  `json:"item_reviewed"`
	Sentiment   float64 `json:"sentiment_score"`
	FaissSim    float64 `json:"faiss_sim"`
	ProbSVM     float64 `json:"prob_svm"`
	HybridScore float64 `json:"hybrid_score"`
}

// CandidateSet is the result of one recommendation request.
type CandidateSet struct {
	Query      Product     `json:"-"`
	QueryName  string      `json:"query"`
	Candidates []Candidate `json:"candidates"`
}

// Top returns the first candidate in display order.
func (s *CandidateSet) Top() (Candidate, bool) {
	if s == nil || len(s.Candidates) == 0 {
		return Candidate{}, false
	}
	return s.Candidates[0], true
}

// Head returns at most n candidates; n <= 0 means all.
func (s *CandidateSet) Head(n int) []Candidate {
	if s == nil {
		return nil
	}
	if n <= 0 || n >= len(s.Candidates) {
		return s.Candidates
	}
	return s.Candidates[:n]
}

// Matrix is a dense row-major embedding matrix aligned with the product table.
type Matrix struct {
	rows int
	cols int
	data []float32
}

// NewMatrix stacks the product embeddings. Every row must have the same width.
func NewMatrix(products []Product) (*Matrix, error) {
	if len(products) == 0 {
		return &Matrix{}, nil
	}
	cols := len(products[0].Embedding)
	if cols == 0 {
		return nil, fmt.Errorf("product %q has an empty embedding", products[0].Name)
	}
	data := make([]float32, 0, len(products)*cols)
	for i, p := range products {
		if len(p.Embedding) != cols {
			return nil, fmt.Errorf("embedding width mismatch at row %d: expected %d, got %d", i, cols, len(p.Embedding))
		}
		data = append(data, p.Embedding...)
	}
	return &Matrix{rows: len(products), cols: cols, data: data}, nil
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

// Row returns a view of row i. Callers must not modify it.
func (m *Matrix) Row(i int) []float32 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

// Catalog is the immutable set of loaded artifacts shared by every session.
type Catalog struct {
	products []Product
	byName   map[string]int
	names    []string
	matrix   *Matrix
}

// NewCatalog indexes products by name. The first row wins for duplicate names.
func NewCatalog(products []Product) (*Catalog, error) {
	matrix, err := NewMatrix(products)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int, len(products))
	names := make([]string, 0, len(products))
	for i := range products {
		products[i].Index = i
		if _, ok := byName[products[i].Name]; ok {
			continue
		}
		byName[products[i].Name] = i
		names = append(names, products[i].Name)
	}
	sort.Strings(names)

	return &Catalog{
		products: products,
		byName:   byName,
		names:    names,
		matrix:   matrix,
	}, nil
}

// Len returns the number of table rows.
func (c *Catalog) Len() int { return len(c.products) }

// Matrix returns the embedding matrix.
func (c *Catalog) Matrix() *Matrix { return c.matrix }

// Names returns the sorted unique product names.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Lookup resolves a product by exact name.
func (c *Catalog) Lookup(name string) (Product, error) {
	i, ok := c.byName[name]
	if !ok {
		return Product{}, fmt.Errorf("%w: product %q", ErrNotFound, name)
	}
	return c.products[i], nil
}

// At returns the product at row i.
func (c *Catalog) At(i int) (Product, error) {
	if i < 0 || i >= len(c.products) {
		return Product{}, fmt.Errorf("%w: row %d", ErrNotFound, i)
	}
	return c.products[i], nil
}
