package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
	"github.com/vncsmyrnk/groupdecision/internal/core/ports"
)

type summaryService struct {
	eventRepo  ports.EventRepository
	pollRepo   ports.PollRepository
	resultRepo ports.ResultRepository
	logger     *slog.Logger
}

func NewSummaryService(eventRepo ports.EventRepository, pollRepo ports.PollRepository, resultRepo ports.ResultRepository, logger *slog.Logger) ports.SummaryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &summaryService{
		eventRepo:  eventRepo,
		pollRepo:   pollRepo,
		resultRepo: resultRepo,
		logger:     logger,
	}
}

// SummarizeAll stores a result snapshot for every confirmed event and closed
// poll. Aggregates that still take votes are skipped.
func (s *summaryService) SummarizeAll(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "SummaryService.SummarizeAll")
	defer span.End()

	events, err := s.eventRepo.GetAll(ctx)
	if err != nil {
		return fail(span, fmt.Errorf("failed to fetch all events: %w", err))
	}
	polls, err := s.pollRepo.GetAll(ctx)
	if err != nil {
		return fail(span, fmt.Errorf("failed to fetch all polls: %w", err))
	}

	var snapshots []domain.ResultSnapshot
	for _, e := range events {
		if e.Status == domain.EventConfirmed {
			snapshots = append(snapshots, domain.EventSnapshot(e))
		}
	}
	for _, p := range polls {
		if p.Status == domain.PollClosed {
			snapshots = append(snapshots, domain.PollSnapshot(p))
		}
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(snapshots))

	for _, snapshot := range snapshots {
		wg.Add(1)
		go func(snap domain.ResultSnapshot) {
			defer wg.Done()
			if err := s.resultRepo.SaveSnapshot(ctx, snap); err != nil {
				errChan <- fmt.Errorf("failed to summarize %s %s: %w", snap.AggregateKind, snap.AggregateID, err)
			}
		}(snapshot)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return fail(span, err)
		}
	}

	s.logger.InfoContext(ctx, "results summarized", "snapshots", len(snapshots))
	return nil
}

func (s *summaryService) Result(ctx context.Context, aggregateID uuid.UUID) (*domain.ResultSnapshot, error) {
	ctx, span := tracer.Start(ctx, "SummaryService.Result")
	defer span.End()

	snapshot, err := s.resultRepo.GetSnapshot(ctx, aggregateID)
	if err != nil {
		return nil, fail(span, fmt.Errorf("failed to fetch result for %s: %w", aggregateID, err))
	}
	return snapshot, nil
}
