package domain

import (
	"time"

	"github.com/google/uuid"
)

type OptionKind string

const (
	// OptionKindNone is used by poll options, which are untyped.
	OptionKindNone     OptionKind = ""
	OptionKindDatetime OptionKind = "datetime"
	OptionKindLocation OptionKind = "location"
	OptionKindActivity OptionKind = "activity"
)

func (k OptionKind) Valid() bool {
	switch k {
	case OptionKindDatetime, OptionKindLocation, OptionKindActivity:
		return true
	}
	return false
}

// Option is one choice on an Event or Poll. VoteCount and Percentage are
// derived from the owning aggregate's ledger and are never stored.
type Option struct {
	ID          uuid.UUID  `json:"id"`
	AggregateID uuid.UUID  `json:"aggregate_id"`
	Kind        OptionKind `json:"kind,omitempty"`
	Value       string     `json:"value"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"created_at"`

	VoteCount  int64 `json:"vote_count"`
	Percentage int   `json:"percentage"`
}

// OptionDraft describes an option in a create or edit command. A nil ID means
// a new option.
type OptionDraft struct {
	ID    *uuid.UUID `json:"id,omitempty"`
	Kind  OptionKind `json:"kind,omitempty"`
	Value string     `json:"value"`
}

func findOption(options []Option, id uuid.UUID) (Option, bool) {
	for _, opt := range options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}
