package cli

import (
	"fmt"
	"net/url"
	"path/filepath"

	"beautyrec/config"
	"beautyrec/internal/adapter/artifact"
	"beautyrec/internal/adapter/explain"
	"beautyrec/internal/adapter/store"
	"beautyrec/internal/port"
	"beautyrec/internal/usecase"
)

// resolveLocation makes relative artifact paths relative to dir.
func resolveLocation(dir, loc string) string {
	if u, err := url.Parse(loc); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return loc
	}
	if filepath.IsAbs(loc) {
		return loc
	}
	return filepath.Join(dir, loc)
}

// openCache opens the artifact cache and brings its schema up to date.
func openCache(cfg *config.Config, dir string) (*store.BoltStore, error) {
	dbPath := cfg.CacheDBPath(dir)
	if err := config.EnsureDataDir(dbPath); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact cache: %w", err)
	}

	check, err := st.CheckMigration()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to check migration: %w", err)
	}
	if check.NeedsClear || check.NeedsMigration {
		if check.OldVersion != 0 {
			fmt.Printf("Artifact cache: %s\n", check.Reason)
		}
		if err := st.Migrate(); err != nil {
			st.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return st, nil
}

// newLoader builds the artifact loader. cache may be nil.
func newLoader(cfg *config.Config, dir string, cache port.ArtifactCache) *usecase.LoadUseCase {
	return usecase.NewLoadUseCase(
		artifact.NewFetcher(cfg.Artifacts.Timeout),
		cache,
		resolveLocation(dir, cfg.Artifacts.ProductsURL),
		resolveLocation(dir, cfg.Artifacts.ClassifierURL),
		resolveLocation(dir, cfg.Artifacts.IndexURL),
	)
}

// withCache runs fn with the configured cache, or with none when disabled.
func withCache(cfg *config.Config, dir string, fn func(cache port.ArtifactCache) error) error {
	if !cfg.Cache.Enabled {
		return fn(nil)
	}
	st, err := openCache(cfg, dir)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// newRecommender wires the workflow over loaded artifacts.
func newRecommender(cfg *config.Config, arts *usecase.Artifacts) (*usecase.Recommender, error) {
	ranker, err := usecase.NewRanker(cfg.Rank.Order)
	if err != nil {
		return nil, err
	}
	factory, err := explain.NewFactory(cfg.Explain.Provider, cfg.Explain.Model, cfg.Explain.BaseURL)
	if err != nil {
		return nil, err
	}
	rec := usecase.NewRecommender(arts, ranker, factory, usecase.NewCredentialResolver(cfg.Explain.APIKeyEnv)).
		WithK(cfg.Retrieve.K).
		WithDisplayLimit(cfg.Rank.DisplayLimit)
	return rec, nil
}
