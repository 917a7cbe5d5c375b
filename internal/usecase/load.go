package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"beautyrec/internal/adapter/artifact"
	"beautyrec/internal/adapter/faiss"
	"beautyrec/internal/adapter/svm"
	"beautyrec/internal/domain"
	"beautyrec/internal/logging"
	"beautyrec/internal/metrics"
	"beautyrec/internal/port"
)

// Artifact names, also used as cache keys.
const (
	ArtifactProducts   = "products"
	ArtifactClassifier = "classifier"
	ArtifactIndex      = "index"
)

// Artifacts is the immutable set of models loaded once per process and shared
// read-only by every session.
type Artifacts struct {
	Catalog    *domain.Catalog
	Index      port.SimilarityIndex
	Classifier port.Classifier
}

// NewArtifacts checks that the three artifacts agree with each other: the index
// must hold one vector per product row, with the matrix width, and the
// classifier must accept that width.
func NewArtifacts(catalog *domain.Catalog, index port.SimilarityIndex, classifier port.Classifier) (*Artifacts, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: product table missing", domain.ErrArtifactUnavailable)
	}
	m := catalog.Matrix()
	if index != nil {
		if index.Size() != m.Rows() {
			return nil, fmt.Errorf("%w: index holds %d vectors but the product table has %d rows", domain.ErrArtifactUnavailable, index.Size(), m.Rows())
		}
		if m.Rows() > 0 && index.Dimension() != m.Cols() {
			return nil, fmt.Errorf("%w: index dimension %d does not match embedding width %d", domain.ErrArtifactUnavailable, index.Dimension(), m.Cols())
		}
	}
	if classifier != nil && m.Rows() > 0 && classifier.Dimension() != m.Cols() {
		return nil, fmt.Errorf("%w: classifier expects %d features but embeddings have %d", domain.ErrArtifactUnavailable, classifier.Dimension(), m.Cols())
	}
	return &Artifacts{Catalog: catalog, Index: index, Classifier: classifier}, nil
}

// ArtifactSource locates one artifact.
type ArtifactSource struct {
	Name string
	URL  string
}

// LoadProgress receives per-artifact download progress.
type LoadProgress func(name string, read, total int64)

// LoadUseCase fetches and decodes the startup artifacts.
type LoadUseCase struct {
	fetcher  port.ArtifactFetcher
	cache    port.ArtifactCache
	sources  []ArtifactSource
	progress LoadProgress
	logger   zerolog.Logger
}

// NewLoadUseCase creates a loader. cache may be nil to always fetch.
func NewLoadUseCase(fetcher port.ArtifactFetcher, cache port.ArtifactCache, productsURL, classifierURL, indexURL string) *LoadUseCase {
	return &LoadUseCase{
		fetcher: fetcher,
		cache:   cache,
		sources: []ArtifactSource{
			{Name: ArtifactProducts, URL: productsURL},
			{Name: ArtifactClassifier, URL: classifierURL},
			{Name: ArtifactIndex, URL: indexURL},
		},
		logger: logging.With().Str("component", "loader").Logger(),
	}
}

// WithProgress sets a progress callback for network and file reads.
func (u *LoadUseCase) WithProgress(fn LoadProgress) *LoadUseCase {
	u.progress = fn
	return u
}

// Sources returns the configured artifact locations.
func (u *LoadUseCase) Sources() []ArtifactSource {
	return append([]ArtifactSource(nil), u.sources...)
}

// FetchAll returns the raw payload of every artifact, keyed by name. The three
// downloads run concurrently. refresh bypasses the cache.
func (u *LoadUseCase) FetchAll(ctx context.Context, refresh bool) (map[string][]byte, error) {
	payloads := make([][]byte, len(u.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range u.sources {
		i, src := i, src
		g.Go(func() error {
			data, err := u.fetch(gctx, src, refresh)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrArtifactUnavailable, src.Name, err)
			}
			payloads[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(u.sources))
	for i, src := range u.sources {
		out[src.Name] = payloads[i]
	}
	return out, nil
}

// Load fetches and decodes all artifacts. Any failure is fatal for the process.
func (u *LoadUseCase) Load(ctx context.Context, refresh bool) (*Artifacts, error) {
	start := time.Now()

	payloads, err := u.FetchAll(ctx, refresh)
	if err != nil {
		return nil, err
	}

	products, err := artifact.DecodeProducts(payloads[ArtifactProducts])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrArtifactUnavailable, ArtifactProducts, err)
	}
	catalog, err := domain.NewCatalog(products)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrArtifactUnavailable, ArtifactProducts, err)
	}

	classifier, err := svm.Decode(payloads[ArtifactClassifier])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrArtifactUnavailable, ArtifactClassifier, err)
	}

	index, err := faiss.Decode(payloads[ArtifactIndex])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrArtifactUnavailable, ArtifactIndex, err)
	}

	arts, err := NewArtifacts(catalog, index, classifier)
	if err != nil {
		return nil, err
	}

	metrics.CatalogProducts.Set(float64(catalog.Len()))
	u.logger.Info().
		Int("products", catalog.Len()).
		Int("dimension", catalog.Matrix().Cols()).
		Str("metric", index.Metric().String()).
		Dur("elapsed", time.Since(start)).
		Msg("artifacts loaded")

	return arts, nil
}

func (u *LoadUseCase) fetch(ctx context.Context, src ArtifactSource, refresh bool) ([]byte, error) {
	if u.cache != nil && !refresh {
		cached, ok, err := u.cache.Get(src.Name)
		if err != nil {
			u.logger.Warn().Err(err).Str("artifact", src.Name).Msg("cache read failed")
		} else if ok && cached.URL == src.URL {
			metrics.ArtifactFetchTotal.WithLabelValues(src.Name, "cache").Inc()
			metrics.ArtifactBytes.WithLabelValues(src.Name).Set(float64(len(cached.Data)))
			u.logger.Debug().Str("artifact", src.Name).Int64("bytes", cached.Size).Msg("using cached artifact")
			return cached.Data, nil
		}
	}

	var progress port.ProgressFunc
	if u.progress != nil {
		progress = func(read, total int64) { u.progress(src.Name, read, total) }
	}

	data, err := u.fetcher.Fetch(ctx, src.URL, progress)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty payload")
	}

	metrics.ArtifactFetchTotal.WithLabelValues(src.Name, "remote").Inc()
	metrics.ArtifactBytes.WithLabelValues(src.Name).Set(float64(len(data)))
	u.logger.Info().Str("artifact", src.Name).Str("url", src.URL).Int("bytes", len(data)).Msg("artifact fetched")

	if u.cache != nil {
		err := u.cache.Put(port.CachedArtifact{
			Name:      src.Name,
			URL:       src.URL,
			FetchedAt: time.Now(),
			Data:      data,
		})
		if err != nil {
			u.logger.Warn().Err(err).Str("artifact", src.Name).Msg("cache write failed")
		}
	}
	return data, nil
}
