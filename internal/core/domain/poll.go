package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinPollOptions = 2
	MaxPollOptions = 4
)

// Poll is a single question with two to four untyped options. Each user holds
// at most one vote.
type Poll struct {
	ID        uuid.UUID  `json:"id"`
	CreatorID *uuid.UUID `json:"creator_id,omitempty"`
	Question  string     `json:"question"`
	Status    PollStatus `json:"status"`
	Options   []Option   `json:"options"`
	Responses Ledger     `json:"responses"`
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

type PollDraft struct {
	CreatorID *uuid.UUID
	Question  string
	Options   []string
}

func NewPoll(d PollDraft) (*Poll, error) {
	question := strings.TrimSpace(d.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrValidation)
	}

	pollID := uuid.New()
	now := time.Now().UTC()

	poll := &Poll{
		ID:        pollID,
		CreatorID: d.CreatorID,
		Question:  question,
		Status:    PollOpen,
		CreatedAt: now,
	}

	for i, optText := range d.Options {
		optText = strings.TrimSpace(optText)
		if optText == "" {
			return nil, fmt.Errorf("%w: option %d has no value", ErrValidation, i)
		}
		poll.Options = append(poll.Options, Option{
			ID:          uuid.New(),
			AggregateID: pollID,
			Value:       optText,
			Position:    len(poll.Options),
			CreatedAt:   now,
		})
	}

	if n := len(poll.Options); n < MinPollOptions || n > MaxPollOptions {
		return nil, fmt.Errorf("%w: a poll needs between %d and %d options, got %d", ErrValidation, MinPollOptions, MaxPollOptions, n)
	}
	poll.Recount()
	return poll, nil
}

// Vote sets userID's single vote to optionID, replacing an earlier vote.
func (p *Poll) Vote(userID, optionID uuid.UUID) (Response, error) {
	if p.Status != PollOpen {
		return Response{}, fmt.Errorf("%w: poll is %s", ErrAggregateLocked, p.Status)
	}
	opt, ok := findOption(p.Options, optionID)
	if !ok {
		return Response{}, fmt.Errorf("%w: option %s does not belong to poll %s", ErrInvalidReference, optionID, p.ID)
	}

	resp, changed := p.Responses.SubmitVote(userID, opt)
	if changed {
		p.Recount()
	}
	return resp, nil
}

func (p *Poll) RetractVote(userID uuid.UUID) error {
	if p.Status != PollOpen {
		return fmt.Errorf("%w: poll is %s", ErrAggregateLocked, p.Status)
	}
	if err := p.Responses.RetractVote(userID, OptionKindNone); err != nil {
		return err
	}
	p.Recount()
	return nil
}

func (p *Poll) UserVote(userID uuid.UUID) (Response, bool) {
	return p.Responses.FindUserVote(userID, OptionKindNone)
}

// Close freezes the poll. Only the creator may close it, so a poll created
// without one stays open until deleted.
func (p *Poll) Close(userID uuid.UUID) error {
	if err := p.authorize(userID); err != nil {
		return err
	}
	if p.Status == PollClosed {
		return fmt.Errorf("%w: poll is already closed", ErrInvalidTransition)
	}
	now := time.Now().UTC()
	p.Status = PollClosed
	p.ClosedAt = &now
	return nil
}

func (p *Poll) CanDelete(userID uuid.UUID) error {
	return p.authorize(userID)
}

func (p *Poll) Tally() TallyGroup {
	tallied := Tally(p.Options, p.Responses)
	_, standing := Leader(tallied)
	return TallyGroup{Options: tallied, Standing: standing}
}

func (p *Poll) authorize(userID uuid.UUID) error {
	if p.CreatorID == nil || *p.CreatorID != userID {
		return fmt.Errorf("%w: only the creator may change poll %s", ErrForbidden, p.ID)
	}
	return nil
}

func (p *Poll) Recount() {
	p.Options = Tally(p.Options, p.Responses)
}
