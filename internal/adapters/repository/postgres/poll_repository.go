package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
	"github.com/vncsmyrnk/groupdecision/internal/core/ports"
)

const pollColumns = `p.id, p.creator_id, p.question, p.status, p.version, p.created_at, p.closed_at`

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "SavePoll")
	defer span.End()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queryPoll := `
		INSERT INTO polls (id, creator_id, question, status, version, created_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.ExecContext(ctx, queryPoll, poll.ID, nullUUID(poll.CreatorID), poll.Question, string(poll.Status), poll.Version, poll.CreatedAt, poll.ClosedAt)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}

	if err := insertChildren(ctx, tx, poll.Options, poll.Responses); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *pollRepository) Update(ctx context.Context, poll *domain.Poll) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "UpdatePoll")
	defer span.End()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := writePoll(ctx, tx, poll); err != nil {
		span.RecordError(err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	poll.Version++
	return nil
}

func (r *pollRepository) Modify(ctx context.Context, id uuid.UUID, fn func(*domain.Poll) error) (*domain.Poll, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "ModifyPoll")
	defer span.End()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queryPoll := `SELECT ` + pollColumns + ` FROM polls p WHERE p.id = $1 FOR UPDATE`
	poll, err := scanPoll(tx.QueryRowContext(ctx, queryPoll, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to lock poll: %w", err)
	}
	if err := loadPollChildren(ctx, tx, poll); err != nil {
		return nil, err
	}

	if err := fn(poll); err != nil {
		return nil, err
	}

	if err := writePoll(ctx, tx, poll); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	poll.Version++
	return poll, nil
}

func writePoll(ctx context.Context, tx *sql.Tx, poll *domain.Poll) error {
	queryPoll := `
		UPDATE polls
		SET question = $3, status = $4, closed_at = $5, version = version + 1
		WHERE id = $1 AND version = $2
	`
	res, err := tx.ExecContext(ctx, queryPoll, poll.ID, poll.Version, poll.Question, string(poll.Status), poll.ClosedAt)
	if err != nil {
		return fmt.Errorf("failed to update poll: %w", err)
	}
	if err := checkVersion(ctx, tx, res, "polls", poll.ID, domain.ErrPollNotFound); err != nil {
		return err
	}
	return replaceChildren(ctx, tx, poll.ID, poll.Options, poll.Responses)
}

func (r *pollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GetPoll")
	defer span.End()

	queryPoll := `SELECT ` + pollColumns + ` FROM polls p WHERE p.id = $1`

	poll, err := scanPoll(r.db.QueryRowContext(ctx, queryPoll, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}

	if err := loadPollChildren(ctx, r.db, poll); err != nil {
		return nil, err
	}
	return poll, nil
}

func (r *pollRepository) GetAll(ctx context.Context) ([]*domain.Poll, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GetAllPolls")
	defer span.End()

	query := `SELECT ` + pollColumns + ` FROM polls p ORDER BY p.created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all polls: %w", err)
	}
	defer rows.Close()

	return r.scanPolls(ctx, rows)
}

// List orders polls by how many votes they hold, then newest first.
func (r *pollRepository) List(ctx context.Context, limit, offset int) ([]*domain.Poll, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "ListPolls")
	defer span.End()

	query := `
		SELECT ` + pollColumns + `
		FROM polls p
		LEFT JOIN responses r ON p.id = r.aggregate_id
		GROUP BY p.id
		ORDER BY COUNT(r.id) DESC, p.created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	return r.scanPolls(ctx, rows)
}

func (r *pollRepository) Search(ctx context.Context, limit, offset int, q string) ([]*domain.Poll, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "SearchPolls")
	defer span.End()

	query := `
		SELECT ` + pollColumns + `
		FROM polls p
		LEFT JOIN responses r ON p.id = r.aggregate_id
		WHERE p.question ILIKE $1
		GROUP BY p.id
		ORDER BY COUNT(r.id) DESC, p.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, "%"+q+"%", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search polls: %w", err)
	}
	defer rows.Close()

	return r.scanPolls(ctx, rows)
}

func (r *pollRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "DeletePoll")
	defer span.End()

	return deleteAggregate(ctx, r.db, "polls", id, domain.ErrPollNotFound)
}

func (r *pollRepository) scanPolls(ctx context.Context, rows *sql.Rows) ([]*domain.Poll, error) {
	polls := []*domain.Poll{}
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}
	rows.Close()

	for _, poll := range polls {
		if err := loadPollChildren(ctx, r.db, poll); err != nil {
			return nil, err
		}
	}
	return polls, nil
}

func loadPollChildren(ctx context.Context, q querier, poll *domain.Poll) error {
	options, err := fetchOptions(ctx, q, poll.ID)
	if err != nil {
		return err
	}
	responses, err := fetchResponses(ctx, q, poll.ID)
	if err != nil {
		return err
	}
	poll.Options = options
	poll.Responses = responses
	poll.Recount()
	return nil
}

func scanPoll(row rowScanner) (*domain.Poll, error) {
	var poll domain.Poll
	var creatorID uuid.NullUUID
	var status string
	var closedAt sql.NullTime
	if err := row.Scan(&poll.ID, &creatorID, &poll.Question, &status, &poll.Version, &poll.CreatedAt, &closedAt); err != nil {
		return nil, err
	}
	if creatorID.Valid {
		id := creatorID.UUID
		poll.CreatorID = &id
	}
	poll.Status = domain.PollStatus(status)
	poll.ClosedAt = nullTime(closedAt)
	return &poll, nil
}
