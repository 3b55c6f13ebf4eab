package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
	"github.com/vncsmyrnk/groupdecision/internal/core/ports"
)

type eventService struct {
	repo   ports.EventRepository
	logger *slog.Logger
}

func NewEventService(repo ports.EventRepository, logger *slog.Logger) ports.EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventService{
		repo:   repo,
		logger: logger,
	}
}

func (s *eventService) Create(ctx context.Context, input ports.CreateEventInput) (*domain.Event, error) {
	ctx, span := tracer.Start(ctx, "EventService.Create")
	defer span.End()

	event, err := domain.NewEvent(domain.EventDraft{
		CreatorID:   input.CreatorID,
		Title:       input.Title,
		Description: input.Description,
		ScheduledAt: input.ScheduledAt,
		Timezone:    input.Timezone,
		Type:        input.Type,
		Options:     input.Options,
	})
	if err != nil {
		return nil, fail(span, err)
	}

	if err := s.repo.Save(ctx, event); err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("event.id", event.ID.String()))
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	ctx, span := tracer.Start(ctx, "EventService.GetEvent", trace.WithAttributes(attribute.String("event.id", id.String())))
	defer span.End()

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	return event, nil
}

func (s *eventService) Vote(ctx context.Context, input ports.EventVoteInput) (*domain.Event, error) {
	return s.mutate(ctx, "EventService.Vote", input.EventID, func(e *domain.Event) error {
		_, err := e.Vote(input.UserID, input.OptionID)
		return err
	})
}

func (s *eventService) Unvote(ctx context.Context, eventID, userID uuid.UUID, axis domain.OptionKind) (*domain.Event, error) {
	return s.mutate(ctx, "EventService.Unvote", eventID, func(e *domain.Event) error {
		return e.RetractVote(userID, axis)
	})
}

func (s *eventService) RSVP(ctx context.Context, input ports.RSVPInput) (*domain.Event, error) {
	return s.mutate(ctx, "EventService.RSVP", input.EventID, func(e *domain.Event) error {
		_, err := e.RSVP(input.UserID, input.Type)
		return err
	})
}

func (s *eventService) MyVote(ctx context.Context, eventID, userID uuid.UUID, axis domain.OptionKind) (*domain.Response, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	vote, ok := event.Responses.FindUserVote(userID, axis)
	if !ok {
		return nil, domain.ErrNoResponse
	}
	return &vote, nil
}

func (s *eventService) MyRSVP(ctx context.Context, eventID, userID uuid.UUID) (*domain.Response, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	rsvp, ok := event.Responses.FindUserRSVP(userID)
	if !ok {
		return nil, domain.ErrNoResponse
	}
	return &rsvp, nil
}

func (s *eventService) RSVPCounts(ctx context.Context, eventID uuid.UUID) (domain.RSVPCounts, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return domain.RSVPCounts{}, err
	}
	return event.Responses.CountRSVPByType(), nil
}

func (s *eventService) StartVoting(ctx context.Context, eventID, userID uuid.UUID) (*domain.Event, error) {
	return s.mutate(ctx, "EventService.StartVoting", eventID, func(e *domain.Event) error {
		return e.StartVoting(userID)
	})
}

func (s *eventService) Finalize(ctx context.Context, eventID, userID uuid.UUID) (*domain.Event, error) {
	event, err := s.mutate(ctx, "EventService.Finalize", eventID, func(e *domain.Event) error {
		return e.Finalize(userID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "event finalized", "event_id", eventID, "votes", len(event.Responses.Votes()))
	return event, nil
}

func (s *eventService) Cancel(ctx context.Context, eventID, userID uuid.UUID) (*domain.Event, error) {
	event, err := s.mutate(ctx, "EventService.Cancel", eventID, func(e *domain.Event) error {
		return e.Cancel(userID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "event cancelled", "event_id", eventID)
	return event, nil
}

func (s *eventService) Edit(ctx context.Context, input ports.EditEventInput) (*domain.Event, error) {
	return s.mutate(ctx, "EventService.Edit", input.EventID, func(e *domain.Event) error {
		return e.Edit(input.UserID, input.Patch)
	})
}

func (s *eventService) Delete(ctx context.Context, eventID, userID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "EventService.Delete", trace.WithAttributes(attribute.String("event.id", eventID.String())))
	defer span.End()

	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return fail(span, err)
	}
	if err := event.CanDelete(userID); err != nil {
		return fail(span, err)
	}
	if err := s.repo.Delete(ctx, eventID); err != nil {
		return fail(span, err)
	}
	s.logger.InfoContext(ctx, "event deleted", "event_id", eventID)
	return nil
}

// mutate applies fn inside the repository's write transaction. Writers of
// the same event are serialized there; the replay only covers a stale write
// from another process.
func (s *eventService) mutate(ctx context.Context, name string, id uuid.UUID, fn func(*domain.Event) error) (*domain.Event, error) {
	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attribute.String("event.id", id.String())))
	defer span.End()

	event, err := withRetry(ctx, func() (*domain.Event, error) {
		return s.repo.Modify(ctx, id, fn)
	})
	if err != nil {
		return nil, fail(span, err)
	}
	return event, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
