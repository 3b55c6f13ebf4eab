// Package kvdb stores aggregates as JSON documents in a bbolt file. Each
// aggregate is one key, so an update replaces options and responses together.
package kvdb

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	bucketEvents  = "events"
	bucketPolls   = "polls"
	bucketResults = "result_snapshots"
)

// Open opens (or creates) the database file at path with every bucket the
// stores need.
func Open(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketEvents, bucketPolls, bucketResults} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}
	return db, nil
}

type versioned struct {
	Version int64 `json:"version"`
}

// storedVersion reads only the version field of the document under key.
func storedVersion(b *bolt.Bucket, key []byte) (int64, bool, error) {
	raw := b.Get(key)
	if raw == nil {
		return 0, false, nil
	}
	var v versioned
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, true, err
	}
	return v.Version, true, nil
}
