package kvdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/trace"

	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
	"github.com/vncsmyrnk/groupdecision/internal/core/ports"
)

type EventStore struct {
	db *bolt.DB
}

func NewEventStore(db *bolt.DB) ports.EventRepository {
	return &EventStore{db: db}
}

func (s *EventStore) Save(ctx context.Context, event *domain.Event) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "SaveEvent")
	defer span.End()

	j, err := json.Marshal(event)
	if err != nil {
		return err
	}

	span.AddEvent("Update bucket")
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketEvents))
		if bucket.Get(event.ID[:]) != nil {
			return fmt.Errorf("event %s already exists", event.ID)
		}
		return bucket.Put(event.ID[:], j)
	})
}

func (s *EventStore) Update(ctx context.Context, event *domain.Event) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "UpdateEvent")
	defer span.End()

	next := *event
	next.Version = event.Version + 1
	j, err := json.Marshal(&next)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketEvents))
		version, found, err := storedVersion(bucket, event.ID[:])
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrEventNotFound
		}
		if version != event.Version {
			return domain.ErrConflict
		}
		return bucket.Put(event.ID[:], j)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	event.Version = next.Version
	return nil
}

// Modify runs fn inside a single bolt write transaction. Bolt allows one
// writer at a time, so the load and the put cannot interleave with another
// command on the same event.
func (s *EventStore) Modify(ctx context.Context, id uuid.UUID, fn func(*domain.Event) error) (*domain.Event, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ModifyEvent")
	defer span.End()

	var event *domain.Event
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketEvents))
		raw := bucket.Get(id[:])
		if raw == nil {
			return domain.ErrEventNotFound
		}
		event = new(domain.Event)
		if err := json.Unmarshal(raw, event); err != nil {
			return err
		}
		event.Recount()

		if err := fn(event); err != nil {
			return err
		}

		event.Version++
		j, err := json.Marshal(event)
		if err != nil {
			return err
		}
		return bucket.Put(id[:], j)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return event, nil
}

func (s *EventStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GetEvent")
	defer span.End()

	var event *domain.Event
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucketEvents)).Get(id[:])
		if raw == nil {
			return domain.ErrEventNotFound
		}
		event = new(domain.Event)
		return json.Unmarshal(raw, event)
	})
	if err != nil {
		return nil, err
	}
	event.Recount()
	return event, nil
}

func (s *EventStore) GetAll(ctx context.Context) ([]*domain.Event, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GetAllEvents")
	defer span.End()

	var events []*domain.Event
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketEvents)).ForEach(func(_, v []byte) error {
			var event domain.Event
			if err := json.Unmarshal(v, &event); err != nil {
				return err
			}
			event.Recount()
			events = append(events, &event)
			return nil
		})
	})
	return events, err
}

func (s *EventStore) Delete(ctx context.Context, id uuid.UUID) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "DeleteEvent")
	defer span.End()

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketEvents))
		if bucket.Get(id[:]) == nil {
			return domain.ErrEventNotFound
		}
		if err := bucket.Delete(id[:]); err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketResults)).Delete(id[:])
	})
}
