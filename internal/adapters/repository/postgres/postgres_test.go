package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, applyMigrations(db, "migrations"))
	return db
}

func applyMigrations(db *sql.DB, dirPath string) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dirPath, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func newEvent(t *testing.T) *domain.Event {
	t.Helper()
	e, err := domain.NewEvent(domain.EventDraft{
		CreatorID: uuid.New(),
		Title:     "Team dinner",
		Type:      domain.EventTypeMeal,
		Options: []domain.OptionDraft{
			{Kind: domain.OptionKindLocation, Value: "Luigi's"},
			{Kind: domain.OptionKindLocation, Value: "Sushi Bar"},
			{Kind: domain.OptionKindDatetime, Value: "2026-11-06T19:00:00Z"},
			{Kind: domain.OptionKindDatetime, Value: "2026-11-07T19:00:00Z"},
		},
	})
	require.NoError(t, err)
	return e
}

func TestPostgresEventRoundTrip(t *testing.T) {
	db := setupDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	e := newEvent(t)
	require.NoError(t, repo.Save(ctx, e))

	_, err := e.Vote(uuid.New(), e.Options[0].ID)
	require.NoError(t, err)
	_, err = e.Vote(uuid.New(), e.Options[0].ID)
	require.NoError(t, err)
	_, err = e.RSVP(uuid.New(), domain.RSVPYes)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, e))
	assert.Equal(t, int64(1), e.Version)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)
	assert.Equal(t, domain.EventProposed, got.Status)
	assert.Len(t, got.Options, 4)
	assert.Len(t, got.Responses, 3)
	assert.Equal(t, int64(2), got.Options[0].VoteCount)
	assert.Equal(t, 100, got.Options[0].Percentage)
	assert.Equal(t, int64(1), got.Version)
}

func TestPostgresEventStaleUpdate(t *testing.T) {
	db := setupDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	e := newEvent(t)
	require.NoError(t, repo.Save(ctx, e))

	first, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)

	require.NoError(t, first.Finalize(first.CreatorID))
	require.NoError(t, repo.Update(ctx, first))

	require.NoError(t, second.Cancel(second.CreatorID))
	assert.ErrorIs(t, repo.Update(ctx, second), domain.ErrConflict)

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventConfirmed, got.Status)
}

func TestPostgresEventModifyLocksRow(t *testing.T) {
	db := setupDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	e := newEvent(t)
	require.NoError(t, repo.Save(ctx, e))

	const voters = 30
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Modify(ctx, e.ID, func(ev *domain.Event) error {
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

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, got.Responses.Votes(), voters)
	assert.Equal(t, int64(voters), got.Version)

	_, err = repo.Modify(ctx, e.ID, func(ev *domain.Event) error {
		return ev.Finalize(uuid.New())
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPostgresPollModify(t *testing.T) {
	db := setupDB(t)
	repo := NewPollRepository(db)
	ctx := context.Background()

	poll, err := domain.NewPoll(domain.PollDraft{Question: "Lunch?", Options: []string{"Pizza", "Tacos"}})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, poll))

	voter := uuid.New()
	got, err := repo.Modify(ctx, poll.ID, func(p *domain.Poll) error {
		_, err := p.Vote(voter, p.Options[1].ID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)

	stored, err := repo.GetByID(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Options[1].VoteCount)

	_, err = repo.Modify(ctx, uuid.New(), func(*domain.Poll) error { return nil })
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}

func TestPostgresEventNotFound(t *testing.T) {
	db := setupDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	e := newEvent(t)
	assert.ErrorIs(t, repo.Update(ctx, e), domain.ErrEventNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, e.ID), domain.ErrEventNotFound)
}

func TestPostgresEventDeleteCascades(t *testing.T) {
	db := setupDB(t)
	repo := NewEventRepository(db)
	results := NewResultRepository(db)
	ctx := context.Background()

	e := newEvent(t)
	_, err := e.Vote(uuid.New(), e.Options[1].ID)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, e))
	require.NoError(t, results.SaveSnapshot(ctx, domain.EventSnapshot(e)))

	require.NoError(t, repo.Delete(ctx, e.ID))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM options WHERE aggregate_id = $1`, e.ID).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM responses WHERE aggregate_id = $1`, e.ID).Scan(&count))
	assert.Zero(t, count)

	snapshot, err := results.GetSnapshot(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestPostgresPollListRanking(t *testing.T) {
	db := setupDB(t)
	repo := NewPollRepository(db)
	ctx := context.Background()

	creator := uuid.New()
	quiet, err := domain.NewPoll(domain.PollDraft{CreatorID: &creator, Question: "Lunch spot?", Options: []string{"Pizza", "Tacos"}})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, quiet))

	busy, err := domain.NewPoll(domain.PollDraft{Question: "Movie night?", Options: []string{"Alien", "Heat", "Up"}})
	require.NoError(t, err)
	for range 3 {
		_, err := busy.Vote(uuid.New(), busy.Options[2].ID)
		require.NoError(t, err)
	}
	require.NoError(t, repo.Save(ctx, busy))

	polls, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, polls, 2)
	assert.Equal(t, busy.ID, polls[0].ID)
	assert.Equal(t, int64(3), polls[0].Options[2].VoteCount)
	assert.Nil(t, polls[0].CreatorID)
	assert.Equal(t, creator, *polls[1].CreatorID)

	found, err := repo.Search(ctx, 10, 0, "lunch")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, quiet.ID, found[0].ID)

	paged, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, quiet.ID, paged[0].ID)
}

func TestPostgresPollClose(t *testing.T) {
	db := setupDB(t)
	repo := NewPollRepository(db)
	ctx := context.Background()

	creator := uuid.New()
	poll, err := domain.NewPoll(domain.PollDraft{CreatorID: &creator, Question: "Lunch?", Options: []string{"Pizza", "Tacos"}})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, poll))

	require.NoError(t, poll.Close(creator))
	require.NoError(t, repo.Update(ctx, poll))

	got, err := repo.GetByID(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PollClosed, got.Status)
	require.NotNil(t, got.ClosedAt)
}

func TestPostgresSnapshotUpsert(t *testing.T) {
	db := setupDB(t)
	events := NewEventRepository(db)
	results := NewResultRepository(db)
	ctx := context.Background()

	e := newEvent(t)
	require.NoError(t, events.Save(ctx, e))
	require.NoError(t, results.SaveSnapshot(ctx, domain.EventSnapshot(e)))

	_, err := e.Vote(uuid.New(), e.Options[0].ID)
	require.NoError(t, err)
	require.NoError(t, results.SaveSnapshot(ctx, domain.EventSnapshot(e)))

	got, err := results.GetSnapshot(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.AggregateEvent, got.AggregateKind)
	assert.Equal(t, int64(1), got.TotalVotes)
	require.Len(t, got.Groups, 2)
	assert.Equal(t, domain.StandingSingle, got.Groups[0].Standing.State)
}
