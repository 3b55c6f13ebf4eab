package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
)

// PollRepository persists polls with their options and responses. Update
// must fail with domain.ErrConflict when poll.Version no longer matches the
// stored version, and bump poll.Version on success.
//
// Modify loads the poll, applies fn and stores the result inside one write
// transaction that excludes other writers of the same poll, so commands from
// different users never invalidate each other. An error from fn aborts the
// transaction and is returned unchanged.
type PollRepository interface {
	Save(ctx context.Context, poll *domain.Poll) error
	Update(ctx context.Context, poll *domain.Poll) error
	Modify(ctx context.Context, id uuid.UUID, fn func(*domain.Poll) error) (*domain.Poll, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	GetAll(ctx context.Context) ([]*domain.Poll, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Poll, error)
	Search(ctx context.Context, limit, offset int, query string) ([]*domain.Poll, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CreatePollInput struct {
	CreatorID *uuid.UUID
	Question  string
	Options   []string
}

type ListPollsInput struct {
	Page  int
	Query string
}

type PollVoteInput struct {
	PollID   uuid.UUID
	OptionID uuid.UUID
	UserID   uuid.UUID
}

type PollService interface {
	Create(ctx context.Context, input CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	ListPolls(ctx context.Context, input ListPollsInput) ([]*domain.Poll, error)
	Vote(ctx context.Context, input PollVoteInput) (*domain.Poll, error)
	Unvote(ctx context.Context, pollID, userID uuid.UUID) (*domain.Poll, error)
	MyVote(ctx context.Context, pollID, userID uuid.UUID) (*domain.Response, error)
	Close(ctx context.Context, pollID, userID uuid.UUID) (*domain.Poll, error)
	Delete(ctx context.Context, pollID, userID uuid.UUID) error
}
