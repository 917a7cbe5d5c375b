package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-json"
	"go.etcd.io/bbolt"

	"beautyrec/internal/port"
)

var (
	bucketArtifacts    = []byte("artifacts")
	bucketArtifactMeta = []byte("artifact_meta")
	bucketMeta         = []byte("meta")
)

// BoltStore caches artifact payloads in a bbolt database so a restart does not
// re-download them.
type BoltStore struct {
	db *bbolt.DB
}

var _ port.ArtifactCache = (*BoltStore)(nil)

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketArtifacts, bucketArtifactMeta, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

type artifactMeta struct {
	URL       string `json:"url"`
	SHA256    string `json:"sha256"`
	Size      int64  `json:"size"`
	FetchedAt int64  `json:"fetched_at"`
}

// Put stores an artifact, replacing any previous payload with the same name.
// SHA256 and Size are computed when unset.
func (s *BoltStore) Put(a port.CachedArtifact) error {
	if a.SHA256 == "" {
		sum := sha256.Sum256(a.Data)
		a.SHA256 = hex.EncodeToString(sum[:])
	}
	if a.Size == 0 {
		a.Size = int64(len(a.Data))
	}
	if a.FetchedAt.IsZero() {
		a.FetchedAt = time.Now()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := artifactMeta{
			URL:       a.URL,
			SHA256:    a.SHA256,
			Size:      a.Size,
			FetchedAt: a.FetchedAt.Unix(),
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketArtifactMeta).Put([]byte(a.Name), data); err != nil {
			return err
		}
		return tx.Bucket(bucketArtifacts).Put([]byte(a.Name), a.Data)
	})
}

// Get returns the cached artifact. The payload is verified against its checksum;
// a corrupted entry reads as a miss.
func (s *BoltStore) Get(name string) (port.CachedArtifact, bool, error) {
	var (
		a     port.CachedArtifact
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		metaData := tx.Bucket(bucketArtifactMeta).Get([]byte(name))
		if metaData == nil {
			return nil
		}
		var meta artifactMeta
		if err := json.Unmarshal(metaData, &meta); err != nil {
			return nil
		}
		payload := tx.Bucket(bucketArtifacts).Get([]byte(name))
		if payload == nil {
			return nil
		}

		sum := sha256.Sum256(payload)
		if hex.EncodeToString(sum[:]) != meta.SHA256 {
			return nil
		}

		// bbolt memory is only valid inside the transaction
		data := make([]byte, len(payload))
		copy(data, payload)

		a = port.CachedArtifact{
			Name:      name,
			URL:       meta.URL,
			SHA256:    meta.SHA256,
			Size:      meta.Size,
			FetchedAt: time.Unix(meta.FetchedAt, 0),
			Data:      data,
		}
		found = true
		return nil
	})
	return a, found, err
}

// Delete removes a cached artifact.
func (s *BoltStore) Delete(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketArtifactMeta).Delete([]byte(name)); err != nil {
			return err
		}
		return tx.Bucket(bucketArtifacts).Delete([]byte(name))
	})
}

// List returns metadata for cached artifacts whose name matches pattern
// (doublestar syntax; empty matches everything), sorted by name. Data is not loaded.
func (s *BoltStore) List(pattern string) ([]port.CachedArtifact, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	var out []port.CachedArtifact
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketArtifactMeta).ForEach(func(k, v []byte) error {
			name := string(k)
			if pattern != "" {
				ok, err := doublestar.Match(pattern, name)
				if err != nil || !ok {
					return nil
				}
			}
			var meta artifactMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return nil // Skip corrupted entries
			}
			out = append(out, port.CachedArtifact{
				Name:      name,
				URL:       meta.URL,
				SHA256:    meta.SHA256,
				Size:      meta.Size,
				FetchedAt: time.Unix(meta.FetchedAt, 0),
			})
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
