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

const eventColumns = `id, creator_id, title, description, scheduled_at, timezone, type, status, version, created_at, updated_at`

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) ports.EventRepository {
	return &eventRepository{
		db: db,
	}
}

func (r *eventRepository) Save(ctx context.Context, event *domain.Event) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "SaveEvent")
	defer span.End()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queryEvent := `
		INSERT INTO events (id, creator_id, title, description, scheduled_at, timezone, type, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.ExecContext(ctx, queryEvent,
		event.ID, event.CreatorID, event.Title, event.Description, event.ScheduledAt, event.Timezone,
		string(event.Type), string(event.Status), event.Version, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	if err := insertChildren(ctx, tx, event.Options, event.Responses); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "UpdateEvent")
	defer span.End()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := writeEvent(ctx, tx, event); err != nil {
		span.RecordError(err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	event.Version++
	return nil
}

// Modify locks the event row with SELECT ... FOR UPDATE, so commands on the
// same event queue up behind each other instead of failing the version check.
func (r *eventRepository) Modify(ctx context.Context, id uuid.UUID, fn func(*domain.Event) error) (*domain.Event, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "ModifyEvent")
	defer span.End()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queryEvent := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	event, err := scanEvent(tx.QueryRowContext(ctx, queryEvent, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}
	if err := loadEventChildren(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := fn(event); err != nil {
		return nil, err
	}

	if err := writeEvent(ctx, tx, event); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	event.Version++
	return event, nil
}

// writeEvent stores event and its children inside tx, guarded by the version
// the event was loaded with.
func writeEvent(ctx context.Context, tx *sql.Tx, event *domain.Event) error {
	queryEvent := `
		UPDATE events
		SET title = $3, description = $4, scheduled_at = $5, timezone = $6, type = $7, status = $8,
		    updated_at = $9, version = version + 1
		WHERE id = $1 AND version = $2
	`
	res, err := tx.ExecContext(ctx, queryEvent,
		event.ID, event.Version, event.Title, event.Description, event.ScheduledAt, event.Timezone,
		string(event.Type), string(event.Status), event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if err := checkVersion(ctx, tx, res, "events", event.ID, domain.ErrEventNotFound); err != nil {
		return err
	}
	return replaceChildren(ctx, tx, event.ID, event.Options, event.Responses)
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GetEvent")
	defer span.End()

	queryEvent := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(r.db.QueryRowContext(ctx, queryEvent, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if err := loadEventChildren(ctx, r.db, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (r *eventRepository) GetAll(ctx context.Context) ([]*domain.Event, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GetAllEvents")
	defer span.End()

	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	for _, event := range events {
		if err := loadEventChildren(ctx, r.db, event); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// Delete removes the event with its options, responses and snapshot.
func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "DeleteEvent")
	defer span.End()

	return deleteAggregate(ctx, r.db, "events", id, domain.ErrEventNotFound)
}

func loadEventChildren(ctx context.Context, q querier, event *domain.Event) error {
	options, err := fetchOptions(ctx, q, event.ID)
	if err != nil {
		return err
	}
	responses, err := fetchResponses(ctx, q, event.ID)
	if err != nil {
		return err
	}
	event.Options = options
	event.Responses = responses
	event.Recount()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var event domain.Event
	var scheduledAt sql.NullTime
	var eventType, status string
	err := row.Scan(
		&event.ID, &event.CreatorID, &event.Title, &event.Description, &scheduledAt, &event.Timezone,
		&eventType, &status, &event.Version, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	event.ScheduledAt = nullTime(scheduledAt)
	event.Type = domain.EventType(eventType)
	event.Status = domain.EventStatus(status)
	return &event, nil
}

// checkVersion turns a compare-and-swap update that touched no row into
// notFound or domain.ErrConflict.
func checkVersion(ctx context.Context, tx *sql.Tx, res sql.Result, table string, id uuid.UUID, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = $1`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("failed to check %s row: %w", table, err)
	}
	return domain.ErrConflict
}

func deleteAggregate(ctx context.Context, db *sql.DB, table string, id uuid.UUID, notFound error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	} else if n == 0 {
		return notFound
	}

	if err := deleteChildren(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM result_snapshots WHERE aggregate_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete result snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
