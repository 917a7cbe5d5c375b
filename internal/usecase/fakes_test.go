package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"beautyrec/internal/domain"
	"beautyrec/internal/port"
)

// testCatalog builds n products named "Product A", "Product B", ... whose
// embedding is {row, 1}.
func testCatalog(n int) *domain.Catalog {
	products := make([]domain.Product, n)
	for i := range products {
		products[i] = domain.Product{
			Name:           fmt.Sprintf("Product %c", 'A'+i),
			SentimentScore: float64(i) / 10,
			Embedding:      []float32{float32(i), 1},
		}
	}
	c, err := domain.NewCatalog(products)
	if err != nil {
		panic(err)
	}
	return c
}

type fakeIndex struct {
	hits    []port.IndexHit
	size    int
	dim     int
	err     error
	queries [][]float32
}

func (f *fakeIndex) Search(query []float32, k int) ([]port.IndexHit, error) {
	f.queries = append(f.queries, append([]float32(nil), query...))
	if f.err != nil {
		return nil, f.err
	}
	if k > len(f.hits) {
		k = len(f.hits)
	}
	return append([]port.IndexHit(nil), f.hits[:k]...), nil
}

func (f *fakeIndex) Size() int      { return f.size }
func (f *fakeIndex) Dimension() int { return f.dim }

// fakeClassifier maps the first embedding component (the row) to a probability.
type fakeClassifier struct {
	probs map[int]float64
	err   error
	calls int
}

func (f *fakeClassifier) PredictProba(rows [][]float32) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(rows))
	for i, r := range rows {
		p := f.probs[int(r[0])]
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

func (f *fakeClassifier) Dimension() int { return 2 }

type fakeLLM struct {
	reply string
	err   error
}

func (l *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return l.reply, l.err
}

func (l *fakeLLM) ModelName() string { return "fake-model" }

type fakeFactory struct {
	mu      sync.Mutex
	llm     *fakeLLM
	newErr  error
	keys    []string
	prompts []string
}

func (f *fakeFactory) New(ctx context.Context, apiKey string) (port.LLM, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, apiKey)
	if f.newErr != nil {
		return nil, f.newErr
	}
	return &recordingLLM{fakeLLM: f.llm, factory: f}, nil
}

func (f *fakeFactory) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

type recordingLLM struct {
	*fakeLLM
	factory *fakeFactory
}

func (l *recordingLLM) Generate(ctx context.Context, prompt string) (string, error) {
	l.factory.mu.Lock()
	l.factory.prompts = append(l.factory.prompts, prompt)
	l.factory.mu.Unlock()
	return l.fakeLLM.Generate(ctx, prompt)
}

func noEnv(string) (string, bool) { return "", false }

func envWith(key, value string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		if k == key {
			return value, true
		}
		return "", false
	}
}

var errBoom = errors.New("boom")
