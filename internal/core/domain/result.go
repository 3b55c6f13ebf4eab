package domain

import (
	"time"

	"github.com/google/uuid"
)

type AggregateKind string

const (
	AggregateEvent AggregateKind = "event"
	AggregatePoll  AggregateKind = "poll"
)

// ResultSnapshot is the frozen tally of an aggregate that no longer accepts
// votes.
type ResultSnapshot struct {
	AggregateID   uuid.UUID     `json:"aggregate_id"`
	AggregateKind AggregateKind `json:"aggregate_kind"`
	Groups        []TallyGroup  `json:"groups"`
	RSVP          *RSVPCounts   `json:"rsvp,omitempty"`
	TotalVotes    int64         `json:"total_votes"`
	ComputedAt    time.Time     `json:"computed_at"`
}

func EventSnapshot(e *Event) ResultSnapshot {
	groups := e.Tallies()
	rsvp := e.Responses.CountRSVPByType()
	return ResultSnapshot{
		AggregateID:   e.ID,
		AggregateKind: AggregateEvent,
		Groups:        groups,
		RSVP:          &rsvp,
		TotalVotes:    int64(len(e.Responses.Votes())),
		ComputedAt:    time.Now().UTC(),
	}
}

func PollSnapshot(p *Poll) ResultSnapshot {
	group := p.Tally()
	return ResultSnapshot{
		AggregateID:   p.ID,
		AggregateKind: AggregatePoll,
		Groups:        []TallyGroup{group},
		TotalVotes:    group.Standing.TotalVotes,
		ComputedAt:    time.Now().UTC(),
	}
}
