package port

import (
	"context"
	"time"
)

// ArtifactFetcher retrieves the raw bytes behind an artifact URL.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, url string, progress ProgressFunc) ([]byte, error)
}

// ProgressFunc reports downloaded bytes; total is -1 when unknown.
type ProgressFunc func(read, total int64)

// ArtifactCache stores fetched artifact bytes across process restarts.
type ArtifactCache interface {
	Get(name string) (CachedArtifact, bool, error)
	Put(artifact CachedArtifact) error
}

// CachedArtifact is a cached artifact payload and its provenance.
type CachedArtifact struct {
	Name      string
	URL       string
	SHA256    string
	Size      int64
	FetchedAt time.Time
	Data      []byte
}
