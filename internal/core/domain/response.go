package domain

import (
	"time"

	"github.com/google/uuid"
)

type RSVPType string

const (
	RSVPYes   RSVPType = "yes"
	RSVPNo    RSVPType = "no"
	RSVPMaybe RSVPType = "maybe"
)

func (t RSVPType) Valid() bool {
	switch t {
	case RSVPYes, RSVPNo, RSVPMaybe:
		return true
	}
	return false
}

// Response is one user's input to an aggregate: either a vote (OptionID set,
// Axis is the option's kind) or an RSVP (RSVP set, no option).
type Response struct {
	ID          uuid.UUID  `json:"id"`
	AggregateID uuid.UUID  `json:"aggregate_id"`
	UserID      uuid.UUID  `json:"user_id"`
	OptionID    *uuid.UUID `json:"option_id,omitempty"`
	Axis        OptionKind `json:"axis,omitempty"`
	RSVP        RSVPType   `json:"response_type,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (r Response) IsVote() bool {
	return r.OptionID != nil
}

func (r Response) IsRSVP() bool {
	return r.OptionID == nil && r.RSVP != ""
}

type RSVPCounts struct {
	Yes   int `json:"yes"`
	No    int `json:"no"`
	Maybe int `json:"maybe"`
}
