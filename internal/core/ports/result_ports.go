package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
)

type ResultRepository interface {
	SaveSnapshot(ctx context.Context, snapshot domain.ResultSnapshot) error
	GetSnapshot(ctx context.Context, aggregateID uuid.UUID) (*domain.ResultSnapshot, error)
}

type SummaryService interface {
	SummarizeAll(ctx context.Context) error
	// Result returns the last stored snapshot for an aggregate, or nil when
	// none was taken yet.
	Result(ctx context.Context, aggregateID uuid.UUID) (*domain.ResultSnapshot, error)
}
