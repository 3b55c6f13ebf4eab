package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeMeeting  EventType = "meeting"
	EventTypeHangout  EventType = "hangout"
	EventTypeMeal     EventType = "meal"
	EventTypeActivity EventType = "activity"
	EventTypeOther    EventType = "other"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeMeeting, EventTypeHangout, EventTypeMeal, EventTypeActivity, EventTypeOther:
		return true
	}
	return false
}

// Event is the aggregate root for group scheduling. Options are kept in
// creation order; each option kind is an independent voting axis.
type Event struct {
	ID          uuid.UUID   `json:"id"`
	CreatorID   uuid.UUID   `json:"creator_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	ScheduledAt *time.Time  `json:"scheduled_at,omitempty"`
	Timezone    string      `json:"timezone,omitempty"`
	Type        EventType   `json:"type"`
	Status      EventStatus `json:"status"`
	Options     []Option    `json:"options"`
	Responses   Ledger      `json:"responses"`
	Version     int64       `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type EventDraft struct {
	CreatorID   uuid.UUID
	Title       string
	Description string
	ScheduledAt *time.Time
	Timezone    string
	Type        EventType
	Options     []OptionDraft
}

// EventPatch lists the fields an edit changes; nil fields are left alone.
// ClearScheduledAt removes the scheduled time and cannot be combined with
// ScheduledAt.
// A non-nil Options replaces the option set: drafts with an ID keep that
// option (and its votes), drafts without one are added, and options left out
// are removed together with their votes.
type EventPatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
	Timezone    *string        `json:"timezone,omitempty"`
	Type        *EventType     `json:"type,omitempty"`
	Options     *[]OptionDraft `json:"options,omitempty"`

	ClearScheduledAt bool `json:"clear_scheduled_at,omitempty"`
}

func NewEvent(d EventDraft) (*Event, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if d.CreatorID == uuid.Nil {
		return nil, fmt.Errorf("%w: creator is required", ErrValidation)
	}
	eventType := d.Type
	if eventType == "" {
		eventType = EventTypeOther
	}
	if !eventType.Valid() {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrValidation, d.Type)
	}
	if err := validateTimezone(d.Timezone); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	e := &Event{
		ID:          uuid.New(),
		CreatorID:   d.CreatorID,
		Title:       title,
		Description: d.Description,
		ScheduledAt: d.ScheduledAt,
		Timezone:    d.Timezone,
		Type:        eventType,
		Status:      EventProposed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	options, err := buildEventOptions(e.ID, nil, d.Options, now)
	if err != nil {
		return nil, err
	}
	e.Options = options
	e.Recount()
	return e, nil
}

// Vote records userID's vote for optionID on the option's axis.
func (e *Event) Vote(userID, optionID uuid.UUID) (Response, error) {
	if !e.Status.AcceptsVotes() {
		return Response{}, fmt.Errorf("%w: event is %s", ErrAggregateLocked, e.Status)
	}
	opt, ok := findOption(e.Options, optionID)
	if !ok {
		return Response{}, fmt.Errorf("%w: option %s does not belong to event %s", ErrInvalidReference, optionID, e.ID)
	}

	resp, changed := e.Responses.SubmitVote(userID, opt)
	if changed {
		e.touch()
	}
	return resp, nil
}

func (e *Event) RetractVote(userID uuid.UUID, axis OptionKind) error {
	if !e.Status.AcceptsVotes() {
		return fmt.Errorf("%w: event is %s", ErrAggregateLocked, e.Status)
	}
	if err := e.Responses.RetractVote(userID, axis); err != nil {
		return err
	}
	e.touch()
	return nil
}

func (e *Event) RSVP(userID uuid.UUID, t RSVPType) (Response, error) {
	if !t.Valid() {
		return Response{}, fmt.Errorf("%w: unknown response type %q", ErrValidation, t)
	}
	if !e.Status.AcceptsRSVP() {
		return Response{}, fmt.Errorf("%w: event is %s", ErrAggregateLocked, e.Status)
	}

	resp, changed := e.Responses.SubmitRSVP(e.ID, userID, t)
	if changed {
		e.touch()
	}
	return resp, nil
}

// StartVoting relabels a proposed event as voting. It does not change which
// operations are accepted.
func (e *Event) StartVoting(userID uuid.UUID) error {
	return e.transition(userID, EventVoting)
}

// Finalize confirms the event. Votes are not required.
func (e *Event) Finalize(userID uuid.UUID) error {
	return e.transition(userID, EventConfirmed)
}

func (e *Event) Cancel(userID uuid.UUID) error {
	return e.transition(userID, EventCancelled)
}

func (e *Event) transition(userID uuid.UUID, to EventStatus) error {
	if err := e.authorize(userID); err != nil {
		return err
	}
	if err := checkTransition(e.Status, to); err != nil {
		return err
	}
	e.Status = to
	e.touch()
	return nil
}

// Edit applies patch. The whole patch is validated before anything changes.
func (e *Event) Edit(userID uuid.UUID, patch EventPatch) error {
	if err := e.authorize(userID); err != nil {
		return err
	}
	if e.Status.Terminal() {
		return fmt.Errorf("%w: event is %s", ErrInvalidTransition, e.Status)
	}

	if patch.ClearScheduledAt && patch.ScheduledAt != nil {
		return fmt.Errorf("%w: scheduled_at cannot be both set and cleared", ErrValidation)
	}

	title := e.Title
	if patch.Title != nil {
		title = strings.TrimSpace(*patch.Title)
		if title == "" {
			return fmt.Errorf("%w: title is required", ErrValidation)
		}
	}
	eventType := e.Type
	if patch.Type != nil {
		eventType = *patch.Type
		if !eventType.Valid() {
			return fmt.Errorf("%w: unknown event type %q", ErrValidation, eventType)
		}
	}
	timezone := e.Timezone
	if patch.Timezone != nil {
		timezone = *patch.Timezone
		if err := validateTimezone(timezone); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	options := e.Options
	if patch.Options != nil {
		var err error
		options, err = buildEventOptions(e.ID, e.Options, *patch.Options, now)
		if err != nil {
			return err
		}
	}

	e.Title = title
	e.Type = eventType
	e.Timezone = timezone
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.ScheduledAt != nil {
		at := *patch.ScheduledAt
		e.ScheduledAt = &at
	}
	if patch.ClearScheduledAt {
		e.ScheduledAt = nil
	}
	if patch.Options != nil {
		for _, old := range e.Options {
			if _, kept := findOption(options, old.ID); !kept {
				e.Responses.DropOption(old.ID)
			}
		}
		e.Options = options
	}
	e.UpdatedAt = now
	e.Recount()
	return nil
}

// CanDelete reports whether userID may delete the event.
func (e *Event) CanDelete(userID uuid.UUID) error {
	return e.authorize(userID)
}

// Tallies returns one tally per option kind.
func (e *Event) Tallies() []TallyGroup {
	return TallyByKind(e.Options, e.Responses)
}

func (e *Event) authorize(userID uuid.UUID) error {
	if userID != e.CreatorID {
		return fmt.Errorf("%w: only the creator may change event %s", ErrForbidden, e.ID)
	}
	return nil
}

func (e *Event) touch() {
	e.UpdatedAt = time.Now().UTC()
	e.Recount()
}

// Recount refreshes the derived vote counts, tallying each axis separately.
func (e *Event) Recount() {
	counted := make(map[uuid.UUID]Option, len(e.Options))
	for _, group := range e.Tallies() {
		for _, opt := range group.Options {
			counted[opt.ID] = opt
		}
	}
	for i, opt := range e.Options {
		e.Options[i].VoteCount = counted[opt.ID].VoteCount
		e.Options[i].Percentage = counted[opt.ID].Percentage
	}
}

// buildEventOptions turns drafts into the event's option list. Drafts that
// name an existing option keep its identity; every kind present needs at
// least two options.
func buildEventOptions(eventID uuid.UUID, existing []Option, drafts []OptionDraft, now time.Time) ([]Option, error) {
	options := make([]Option, 0, len(drafts))
	perKind := make(map[OptionKind]int)
	seen := make(map[uuid.UUID]bool)

	for i, d := range drafts {
		value := strings.TrimSpace(d.Value)
		if value == "" {
			return nil, fmt.Errorf("%w: option %d has no value", ErrValidation, i)
		}
		if !d.Kind.Valid() {
			return nil, fmt.Errorf("%w: option %d has unknown kind %q", ErrValidation, i, d.Kind)
		}

		opt := Option{
			ID:          uuid.New(),
			AggregateID: eventID,
			Kind:        d.Kind,
			Value:       value,
			Position:    i,
			CreatedAt:   now,
		}
		if d.ID != nil {
			prev, ok := findOption(existing, *d.ID)
			if !ok {
				return nil, fmt.Errorf("%w: option %s does not belong to event %s", ErrInvalidReference, *d.ID, eventID)
			}
			if seen[prev.ID] {
				return nil, fmt.Errorf("%w: option %s listed twice", ErrValidation, prev.ID)
			}
			if prev.Kind != d.Kind {
				return nil, fmt.Errorf("%w: option %s cannot change kind", ErrValidation, prev.ID)
			}
			seen[prev.ID] = true
			opt.ID = prev.ID
			opt.CreatedAt = prev.CreatedAt
		}

		perKind[opt.Kind]++
		options = append(options, opt)
	}

	for kind, n := range perKind {
		if n < 2 {
			return nil, fmt.Errorf("%w: %s options need at least two choices", ErrValidation, kind)
		}
	}
	return options, nil
}

func validateTimezone(tz string) error {
	if tz == "" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrValidation, tz)
	}
	return nil
}
