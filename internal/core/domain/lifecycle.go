package domain

import "fmt"

type EventStatus string

const (
	EventProposed  EventStatus = "proposed"
	EventVoting    EventStatus = "voting"
	EventConfirmed EventStatus = "confirmed"
	EventCancelled EventStatus = "cancelled"
)

var eventTransitions = map[EventStatus][]EventStatus{
	EventProposed: {EventVoting, EventConfirmed, EventCancelled},
	EventVoting:   {EventConfirmed, EventCancelled},
}

func (s EventStatus) Valid() bool {
	switch s {
	case EventProposed, EventVoting, EventConfirmed, EventCancelled:
		return true
	}
	return false
}

// Terminal reports whether s accepts no further transitions.
func (s EventStatus) Terminal() bool {
	return s == EventConfirmed || s == EventCancelled
}

// AcceptsVotes reports whether option votes may change in s. Proposed and
// voting behave the same here.
func (s EventStatus) AcceptsVotes() bool {
	return s == EventProposed || s == EventVoting
}

// AcceptsRSVP reports whether RSVPs may change in s. Confirmed events still
// take late RSVPs.
func (s EventStatus) AcceptsRSVP() bool {
	return s != EventCancelled
}

func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func checkTransition(from, to EventStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: event is %s, cannot move to %s", ErrInvalidTransition, from, to)
	}
	return nil
}

type PollStatus string

const (
	PollOpen   PollStatus = "open"
	PollClosed PollStatus = "closed"
)
