package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// replaceChildren rewrites the options and responses of one aggregate inside
// tx. Rows keep their ids, so the result is the same as a diff.
func replaceChildren(ctx context.Context, tx *sql.Tx, aggregateID uuid.UUID, options []domain.Option, responses []domain.Response) error {
	if err := deleteChildren(ctx, tx, aggregateID); err != nil {
		return err
	}
	return insertChildren(ctx, tx, options, responses)
}

func deleteChildren(ctx context.Context, tx *sql.Tx, aggregateID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE aggregate_id = $1`, aggregateID); err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM options WHERE aggregate_id = $1`, aggregateID); err != nil {
		return fmt.Errorf("failed to delete options: %w", err)
	}
	return nil
}

func insertChildren(ctx context.Context, tx *sql.Tx, options []domain.Option, responses []domain.Response) error {
	queryOption := `
		INSERT INTO options (id, aggregate_id, kind, value, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	optStmt, err := tx.PrepareContext(ctx, queryOption)
	if err != nil {
		return fmt.Errorf("failed to prepare option statement: %w", err)
	}
	defer optStmt.Close()

	for _, opt := range options {
		_, err = optStmt.ExecContext(ctx, opt.ID, opt.AggregateID, string(opt.Kind), opt.Value, opt.Position, opt.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}

	queryResponse := `
		INSERT INTO responses (id, aggregate_id, user_id, option_id, axis, response_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	respStmt, err := tx.PrepareContext(ctx, queryResponse)
	if err != nil {
		return fmt.Errorf("failed to prepare response statement: %w", err)
	}
	defer respStmt.Close()

	for _, r := range responses {
		_, err = respStmt.ExecContext(ctx, r.ID, r.AggregateID, r.UserID, nullUUID(r.OptionID), string(r.Axis), string(r.RSVP), r.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert response: %w", err)
		}
	}
	return nil
}

func fetchOptions(ctx context.Context, q querier, aggregateID uuid.UUID) ([]domain.Option, error) {
	queryOptions := `
		SELECT id, aggregate_id, kind, value, position, created_at
		FROM options
		WHERE aggregate_id = $1
		ORDER BY position
	`
	rows, err := q.QueryContext(ctx, queryOptions, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get options: %w", err)
	}
	defer rows.Close()

	var options []domain.Option
	for rows.Next() {
		var opt domain.Option
		var kind string
		if err := rows.Scan(&opt.ID, &opt.AggregateID, &kind, &opt.Value, &opt.Position, &opt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		opt.Kind = domain.OptionKind(kind)
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating options: %w", err)
	}
	return options, nil
}

func fetchResponses(ctx context.Context, q querier, aggregateID uuid.UUID) (domain.Ledger, error) {
	query := `
		SELECT id, aggregate_id, user_id, option_id, axis, response_type, created_at
		FROM responses
		WHERE aggregate_id = $1
		ORDER BY created_at, id
	`
	rows, err := q.QueryContext(ctx, query, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}
	defer rows.Close()

	var ledger domain.Ledger
	for rows.Next() {
		var r domain.Response
		var optionID uuid.NullUUID
		var axis, rsvp string
		if err := rows.Scan(&r.ID, &r.AggregateID, &r.UserID, &optionID, &axis, &rsvp, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if optionID.Valid {
			id := optionID.UUID
			r.OptionID = &id
		}
		r.Axis = domain.OptionKind(axis)
		r.RSVP = domain.RSVPType(rsvp)
		ledger = append(ledger, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating responses: %w", err)
	}
	return ledger, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
