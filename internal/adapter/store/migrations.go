package store

import (
	"fmt"

	"github.com/goccy/go-json"
	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 2

var keySchemaVersion = []byte("schema_version")

// SchemaVersion returns the stored schema version, 0 for a fresh database.
func (s *BoltStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keySchemaVersion)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &version); err != nil {
			version = 1
		}
		return nil
	})
	return version, err
}

func (s *BoltStore) setSchemaVersion(version int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(version)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
	})
}

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsMigration bool
	NeedsClear     bool
	OldVersion     int
	NewVersion     int
	Reason         string
}

// CheckMigration reports whether the cache needs a migration or a clear.
func (s *BoltStore) CheckMigration() (*MigrationResult, error) {
	version, err := s.SchemaVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	result := &MigrationResult{
		OldVersion: version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case version == 0:
		result.NeedsMigration = true
		result.Reason = "initializing schema version"
	case version < CurrentSchemaVersion:
		result.NeedsMigration = true
		result.Reason = fmt.Sprintf("schema upgrade from v%d to v%d", version, CurrentSchemaVersion)
	case version > CurrentSchemaVersion:
		result.NeedsClear = true
		result.Reason = fmt.Sprintf("cache created by newer version (v%d > v%d)", version, CurrentSchemaVersion)
	}

	return result, nil
}

// Migrate brings the cache to CurrentSchemaVersion, clearing it when it was
// written by a newer version.
func (s *BoltStore) Migrate() error {
	check, err := s.CheckMigration()
	if err != nil {
		return err
	}
	if check.NeedsClear {
		if err := s.Clear(); err != nil {
			return err
		}
		return s.setSchemaVersion(CurrentSchemaVersion)
	}
	if !check.NeedsMigration {
		return nil
	}

	for v := check.OldVersion; v < CurrentSchemaVersion; v++ {
		if err := s.runMigration(v, v+1); err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
		}
	}
	return s.setSchemaVersion(CurrentSchemaVersion)
}

// runMigration runs a specific version migration.
func (s *BoltStore) runMigration(from, to int) error {
	switch {
	case from == 1 && to == 2:
		// v1 stored payloads without checksums; they cannot be verified, drop them.
		return s.Clear()
	default:
		return nil
	}
}

// Clear removes all cached artifacts.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketArtifacts, bucketArtifactMeta} {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}
