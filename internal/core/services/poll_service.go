package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
	"github.com/vncsmyrnk/groupdecision/internal/core/ports"
)

const pollsPageSize = 10

type pollService struct {
	repo   ports.PollRepository
	logger *slog.Logger
}

func NewPollService(repo ports.PollRepository, logger *slog.Logger) ports.PollService {
	if logger == nil {
		logger = slog.Default()
	}
	return &pollService{
		repo:   repo,
		logger: logger,
	}
}

func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	ctx, span := tracer.Start(ctx, "PollService.Create")
	defer span.End()

	poll, err := domain.NewPoll(domain.PollDraft{
		CreatorID: input.CreatorID,
		Question:  input.Question,
		Options:   input.Options,
	})
	if err != nil {
		return nil, fail(span, err)
	}

	if err := s.repo.Save(ctx, poll); err != nil {
		return nil, fail(span, err)
	}
	return poll, nil
}

func (s *pollService) GetPoll(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	ctx, span := tracer.Start(ctx, "PollService.GetPoll", trace.WithAttributes(attribute.String("poll.id", id.String())))
	defer span.End()

	poll, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	return poll, nil
}

func (s *pollService) ListPolls(ctx context.Context, input ports.ListPollsInput) ([]*domain.Poll, error) {
	ctx, span := tracer.Start(ctx, "PollService.ListPolls")
	defer span.End()

	page := input.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pollsPageSize

	var (
		polls []*domain.Poll
		err   error
	)
	if input.Query != "" {
		polls, err = s.repo.Search(ctx, pollsPageSize, offset, input.Query)
	} else {
		polls, err = s.repo.List(ctx, pollsPageSize, offset)
	}
	if err != nil {
		return nil, fail(span, err)
	}
	return polls, nil
}

func (s *pollService) Vote(ctx context.Context, input ports.PollVoteInput) (*domain.Poll, error) {
	return s.mutate(ctx, "PollService.Vote", input.PollID, func(p *domain.Poll) error {
		_, err := p.Vote(input.UserID, input.OptionID)
		return err
	})
}

func (s *pollService) Unvote(ctx context.Context, pollID, userID uuid.UUID) (*domain.Poll, error) {
	return s.mutate(ctx, "PollService.Unvote", pollID, func(p *domain.Poll) error {
		return p.RetractVote(userID)
	})
}

func (s *pollService) MyVote(ctx context.Context, pollID, userID uuid.UUID) (*domain.Response, error) {
	poll, err := s.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	vote, ok := poll.UserVote(userID)
	if !ok {
		return nil, domain.ErrNoResponse
	}
	return &vote, nil
}

func (s *pollService) Close(ctx context.Context, pollID, userID uuid.UUID) (*domain.Poll, error) {
	poll, err := s.mutate(ctx, "PollService.Close", pollID, func(p *domain.Poll) error {
		return p.Close(userID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "poll closed", "poll_id", pollID, "votes", len(poll.Responses))
	return poll, nil
}

func (s *pollService) Delete(ctx context.Context, pollID, userID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "PollService.Delete", trace.WithAttributes(attribute.String("poll.id", pollID.String())))
	defer span.End()

	poll, err := s.repo.GetByID(ctx, pollID)
	if err != nil {
		return fail(span, err)
	}
	if err := poll.CanDelete(userID); err != nil {
		return fail(span, err)
	}
	if err := s.repo.Delete(ctx, pollID); err != nil {
		return fail(span, err)
	}
	s.logger.InfoContext(ctx, "poll deleted", "poll_id", pollID)
	return nil
}

func (s *pollService) mutate(ctx context.Context, name string, id uuid.UUID, fn func(*domain.Poll) error) (*domain.Poll, error) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attribute.String("poll.id", id.String())))
	defer span.End()

	poll, err := withRetry(ctx, func() (*domain.Poll, error) {
		return s.repo.Modify(ctx, id, fn)
	})
	if err != nil {
		return nil, fail(span, err)
	}
	return poll, nil
}
