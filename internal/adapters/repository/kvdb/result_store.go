package kvdb

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/trace"

	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
	"github.com/vncsmyrnk/groupdecision/internal/core/ports"
)

type ResultStore struct {
	db *bolt.DB
}

func NewResultStore(db *bolt.DB) ports.ResultRepository {
	return &ResultStore{db: db}
}

func (s *ResultStore) SaveSnapshot(ctx context.Context, snapshot domain.ResultSnapshot) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "SaveSnapshot")
	defer span.End()

	j, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketResults)).Put(snapshot.AggregateID[:], j)
	})
}

// GetSnapshot returns nil when no snapshot was taken yet.
func (s *ResultStore) GetSnapshot(ctx context.Context, aggregateID uuid.UUID) (*domain.ResultSnapshot, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GetSnapshot")
	defer span.End()

	var snapshot *domain.ResultSnapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucketResults)).Get(aggregateID[:])
		if raw == nil {
			return nil
		}
		snapshot = new(domain.ResultSnapshot)
		return json.Unmarshal(raw, snapshot)
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
