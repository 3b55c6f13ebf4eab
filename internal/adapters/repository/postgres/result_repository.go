package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
	"github.com/vncsmyrnk/groupdecision/internal/core/ports"
)

type resultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) ports.ResultRepository {
	return &resultRepository{
		db: db,
	}
}

func (r *resultRepository) SaveSnapshot(ctx context.Context, snapshot domain.ResultSnapshot) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "SaveSnapshot")
	defer span.End()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `
		INSERT INTO result_snapshots (aggregate_id, aggregate_kind, payload, computed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (aggregate_id) DO UPDATE
		SET payload = EXCLUDED.payload,
		    computed_at = EXCLUDED.computed_at;
	`
	_, err = r.db.ExecContext(ctx, query, snapshot.AggregateID, string(snapshot.AggregateKind), payload, snapshot.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s %s: %w", snapshot.AggregateKind, snapshot.AggregateID, err)
	}
	return nil
}

// GetSnapshot returns nil when no snapshot was taken yet.
func (r *resultRepository) GetSnapshot(ctx context.Context, aggregateID uuid.UUID) (*domain.ResultSnapshot, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "GetSnapshot")
	defer span.End()

	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM result_snapshots WHERE aggregate_id = $1`, aggregateID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snapshot domain.ResultSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}
