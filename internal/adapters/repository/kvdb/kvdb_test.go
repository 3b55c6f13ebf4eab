package kvdb

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
)

func openTestDB(t *testing.T) *bolt.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newEvent(t *testing.T) *domain.Event {
	t.Helper()

	e, err := domain.NewEvent(domain.EventDraft{
		CreatorID: uuid.New(),
		Title:     "Board games",
		Options: []domain.OptionDraft{
			{Kind: domain.OptionKindDatetime, Value: "Mon"},
			{Kind: domain.OptionKindDatetime, Value: "Tue"},
		},
	})
	require.NoError(t, err)
	return e
}

func TestEventStore_RoundTripRecountsVotes(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore(openTestDB(t))

	e := newEvent(t)
	require.NoError(t, store.Save(ctx, e))

	_, err := e.Vote(uuid.New(), e.Options[1].ID)
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, e))
	assert.Equal(t, int64(1), e.Version)

	got, err := store.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)
	assert.Equal(t, int64(1), got.Version)
	require.Len(t, got.Responses, 1)
	assert.Equal(t, int64(1), got.Options[1].VoteCount)
	assert.Equal(t, 100, got.Options[1].Percentage)
}

func TestEventStore_StaleUpdateConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore(openTestDB(t))

	e := newEvent(t)
	require.NoError(t, store.Save(ctx, e))

	first, err := store.GetByID(ctx, e.ID)
	require.NoError(t, err)
	second, err := store.GetByID(ctx, e.ID)
	require.NoError(t, err)

	require.NoError(t, first.Finalize(first.CreatorID))
	require.NoError(t, store.Update(ctx, first))

	require.NoError(t, second.Cancel(second.CreatorID))
	err = store.Update(ctx, second)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(0), second.Version)

	got, err := store.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventConfirmed, got.Status)
}

func TestEventStore_ModifySerializesWriters(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore(openTestDB(t))

	e := newEvent(t)
	require.NoError(t, store.Save(ctx, e))

	const voters = 40
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Modify(ctx, e.ID, func(ev *domain.Event) error {
				_, err := ev.Vote(uuid.New(), ev.Options[i%2].ID)
				return err
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := store.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, got.Responses.Votes(), voters)
	assert.Equal(t, int64(voters), got.Version)
}

func TestEventStore_ModifyAbortsOnError(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore(openTestDB(t))

	e := newEvent(t)
	require.NoError(t, store.Save(ctx, e))

	_, err := store.Modify(ctx, e.ID, func(ev *domain.Event) error {
		_, err := ev.Vote(uuid.New(), ev.Options[0].ID)
		require.NoError(t, err)
		return ev.Finalize(uuid.New())
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := store.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Responses)
	assert.Equal(t, int64(0), got.Version)

	_, err = store.Modify(ctx, uuid.New(), func(*domain.Event) error { return nil })
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestEventStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewEventStore(openTestDB(t))

	_, err := store.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	assert.ErrorIs(t, store.Delete(ctx, uuid.New()), domain.ErrEventNotFound)
	assert.ErrorIs(t, store.Update(ctx, newEvent(t)), domain.ErrEventNotFound)
}

func TestEventStore_DeleteRemovesSnapshot(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewEventStore(db)
	results := NewResultStore(db)

	e := newEvent(t)
	require.NoError(t, store.Save(ctx, e))
	require.NoError(t, results.SaveSnapshot(ctx, domain.EventSnapshot(e)))

	require.NoError(t, store.Delete(ctx, e.ID))

	_, err := store.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	snap, err := results.GetSnapshot(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestPollStore_ListAndSearch(t *testing.T) {
	ctx := context.Background()
	store := NewPollStore(openTestDB(t))

	create := func(question string, votes int) *domain.Poll {
		p, err := domain.NewPoll(domain.PollDraft{Question: question, Options: []string{"A", "B"}})
		require.NoError(t, err)
		for i := 0; i < votes; i++ {
			_, err := p.Vote(uuid.New(), p.Options[0].ID)
			require.NoError(t, err)
		}
		require.NoError(t, store.Save(ctx, p))
		time.Sleep(2 * time.Millisecond)
		return p
	}

	create("Poll A", 0)
	create("Poll B", 10)
	create("Poll C", 5)
	create("Lunch spot", 0)

	list, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "Poll B", list[0].Question)
	assert.Equal(t, "Poll C", list[1].Question)
	assert.Equal(t, "Lunch spot", list[2].Question)
	assert.Equal(t, "Poll A", list[3].Question)
	assert.Equal(t, int64(10), list[0].Options[0].VoteCount)

	second, err := store.List(ctx, 3, 3)
	require.NoError(t, err)
	assert.Len(t, second, 1)

	empty, err := store.List(ctx, 10, 20)
	require.NoError(t, err)
	assert.Empty(t, empty)

	found, err := store.Search(ctx, 10, 0, "poll")
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestPollStore_StaleUpdateConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewPollStore(openTestDB(t))

	p, err := domain.NewPoll(domain.PollDraft{Question: "Lunch?", Options: []string{"Pizza", "Tacos"}})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, p))

	a, err := store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	b, err := store.GetByID(ctx, p.ID)
	require.NoError(t, err)

	_, err = a.Vote(uuid.New(), a.Options[0].ID)
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, a))

	_, err = b.Vote(uuid.New(), b.Options[1].ID)
	require.NoError(t, err)
	assert.ErrorIs(t, store.Update(ctx, b), domain.ErrConflict)
}
