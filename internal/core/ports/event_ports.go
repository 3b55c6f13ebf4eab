package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
)

// EventRepository persists events with their options and responses. Update
// and Modify follow the same rules as their PollRepository counterparts.
type EventRepository interface {
	Save(ctx context.Context, event *domain.Event) error
	Update(ctx context.Context, event *domain.Event) error
	Modify(ctx context.Context, id uuid.UUID, fn func(*domain.Event) error) (*domain.Event, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	GetAll(ctx context.Context) ([]*domain.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CreateEventInput struct {
	CreatorID   uuid.UUID
	Title       string
	Description string
	ScheduledAt *time.Time
	Timezone    string
	Type        domain.EventType
	Options     []domain.OptionDraft
}

type EventVoteInput struct {
	EventID  uuid.UUID
	OptionID uuid.UUID
	UserID   uuid.UUID
}

type RSVPInput struct {
	EventID uuid.UUID
	UserID  uuid.UUID
	Type    domain.RSVPType
}

type EditEventInput struct {
	EventID uuid.UUID
	UserID  uuid.UUID
	Patch   domain.EventPatch
}

type EventService interface {
	Create(ctx context.Context, input CreateEventInput) (*domain.Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	Vote(ctx context.Context, input EventVoteInput) (*domain.Event, error)
	Unvote(ctx context.Context, eventID, userID uuid.UUID, axis domain.OptionKind) (*domain.Event, error)
	RSVP(ctx context.Context, input RSVPInput) (*domain.Event, error)
	MyVote(ctx context.Context, eventID, userID uuid.UUID, axis domain.OptionKind) (*domain.Response, error)
	MyRSVP(ctx context.Context, eventID, userID uuid.UUID) (*domain.Response, error)
	RSVPCounts(ctx context.Context, eventID uuid.UUID) (domain.RSVPCounts, error)
	StartVoting(ctx context.Context, eventID, userID uuid.UUID) (*domain.Event, error)
	Finalize(ctx context.Context, eventID, userID uuid.UUID) (*domain.Event, error)
	Cancel(ctx context.Context, eventID, userID uuid.UUID) (*domain.Event, error)
	Edit(ctx context.Context, input EditEventInput) (*domain.Event, error)
	Delete(ctx context.Context, eventID, userID uuid.UUID) error
}
