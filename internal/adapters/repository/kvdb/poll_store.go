package kvdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/trace"

	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
	"github.com/vncsmyrnk/groupdecision/internal/core/ports"
)

type PollStore struct {
	db *bolt.DB
}

func NewPollStore(db *bolt.DB) ports.PollRepository {
	return &PollStore{db: db}
}

func (s *PollStore) Save(ctx context.Context, poll *domain.Poll) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "SavePoll")
	defer span.End()

	j, err := json.Marshal(poll)
	if err != nil {
		return err
	}

	span.AddEvent("Update bucket")
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketPolls))
		if bucket.Get(poll.ID[:]) != nil {
			return fmt.Errorf("poll %s already exists", poll.ID)
		}
		return bucket.Put(poll.ID[:], j)
	})
}

func (s *PollStore) Update(ctx context.Context, poll *domain.Poll) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "UpdatePoll")
	defer span.End()

	next := *poll
	next.Version = poll.Version + 1
	j, err := json.Marshal(&next)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketPolls))
		version, found, err := storedVersion(bucket, poll.ID[:])
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrPollNotFound
		}
		if version != poll.Version {
			return domain.ErrConflict
		}
		return bucket.Put(poll.ID[:], j)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	poll.Version = next.Version
	return nil
}

// Modify runs fn inside a single bolt write transaction. Bolt allows one
// writer at a time, so the load and the put cannot interleave with another
// command on the same poll.
func (s *PollStore) Modify(ctx context.Context, id uuid.UUID, fn func(*domain.Poll) error) (*domain.Poll, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "ModifyPoll")
	defer span.End()

	var poll *domain.Poll
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketPolls))
		raw := bucket.Get(id[:])
		if raw == nil {
			return domain.ErrPollNotFound
		}
		poll = new(domain.Poll)
		if err := json.Unmarshal(raw, poll); err != nil {
			return err
		}
		poll.Recount()

		if err := fn(poll); err != nil {
			return err
		}

		poll.Version++
		j, err := json.Marshal(poll)
		if err != nil {
			return err
		}
		return bucket.Put(id[:], j)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return poll, nil
}

func (s *PollStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "GetPoll")
	defer span.End()

	var poll *domain.Poll
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucketPolls)).Get(id[:])
		if raw == nil {
			return domain.ErrPollNotFound
		}
		poll = new(domain.Poll)
		return json.Unmarshal(raw, poll)
	})
	if err != nil {
		return nil, err
	}
	poll.Recount()
	return poll, nil
}

func (s *PollStore) GetAll(ctx context.Context) ([]*domain.Poll, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GetAllPolls")
	defer span.End()

	return s.filter(ctx, func(*domain.Poll) bool { return true })
}

// List orders polls by total votes, most voted first, then newest first.
func (s *PollStore) List(ctx context.Context, limit, offset int) ([]*domain.Poll, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "ListPolls")
	defer span.End()

	polls, err := s.filter(ctx, func(*domain.Poll) bool { return true })
	if err != nil {
		return nil, err
	}
	return page(rank(polls), limit, offset), nil
}

func (s *PollStore) Search(ctx context.Context, limit, offset int, q string) ([]*domain.Poll, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "SearchPolls")
	defer span.End()

	needle := strings.ToLower(q)
	polls, err := s.filter(ctx, func(p *domain.Poll) bool {
		return strings.Contains(strings.ToLower(p.Question), needle)
	})
	if err != nil {
		return nil, err
	}
	return page(rank(polls), limit, offset), nil
}

func (s *PollStore) Delete(ctx context.Context, id uuid.UUID) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "DeletePoll")
	defer span.End()

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketPolls))
		if bucket.Get(id[:]) == nil {
			return domain.ErrPollNotFound
		}
		if err := bucket.Delete(id[:]); err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketResults)).Delete(id[:])
	})
}

func (s *PollStore) filter(_ context.Context, keep func(*domain.Poll) bool) ([]*domain.Poll, error) {
	var polls []*domain.Poll
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketPolls)).ForEach(func(_, v []byte) error {
			var poll domain.Poll
			if err := json.Unmarshal(v, &poll); err != nil {
				return err
			}
			if !keep(&poll) {
				return nil
			}
			poll.Recount()
			polls = append(polls, &poll)
			return nil
		})
	})
	return polls, err
}

func rank(polls []*domain.Poll) []*domain.Poll {
	sort.SliceStable(polls, func(i, j int) bool {
		vi, vj := len(polls[i].Responses), len(polls[j].Responses)
		if vi != vj {
			return vi > vj
		}
		return polls[i].CreatedAt.After(polls[j].CreatedAt)
	})
	return polls
}

func page(polls []*domain.Poll, limit, offset int) []*domain.Poll {
	if offset >= len(polls) {
		return []*domain.Poll{}
	}
	end := offset + limit
	if end > len(polls) {
		end = len(polls)
	}
	return polls[offset:end]
}
