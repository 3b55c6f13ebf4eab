package domain

import (
	"time"

	"github.com/google/uuid"
)

// Ledger holds every current response of one aggregate. It keeps at most one
// vote per (user, axis) and at most one RSVP per user. It does not check
// aggregate status; callers gate on lifecycle first.
type Ledger []Response

// SubmitVote records userID's vote for opt, replacing any previous vote of the
// same user on the same axis. Voting again for the same option is a no-op and
// reports changed=false.
func (l *Ledger) SubmitVote(userID uuid.UUID, opt Option) (resp Response, changed bool) {
	if prev, ok := l.FindUserVote(userID, opt.Kind); ok {
		if *prev.OptionID == opt.ID {
			return prev, false
		}
		l.remove(prev.ID)
	}

	optionID := opt.ID
	resp = Response{
		ID:          uuid.New(),
		AggregateID: opt.AggregateID,
		UserID:      userID,
		OptionID:    &optionID,
		Axis:        opt.Kind,
		CreatedAt:   time.Now().UTC(),
	}
	*l = append(*l, resp)
	return resp, true
}

// SubmitRSVP records userID's RSVP on aggregateID, replacing the previous one.
func (l *Ledger) SubmitRSVP(aggregateID, userID uuid.UUID, t RSVPType) (resp Response, changed bool) {
	if prev, ok := l.FindUserRSVP(userID); ok {
		if prev.RSVP == t {
			return prev, false
		}
		l.remove(prev.ID)
	}

	resp = Response{
		ID:          uuid.New(),
		AggregateID: aggregateID,
		UserID:      userID,
		RSVP:        t,
		CreatedAt:   time.Now().UTC(),
	}
	*l = append(*l, resp)
	return resp, true
}

// RetractVote removes userID's vote on axis.
func (l *Ledger) RetractVote(userID uuid.UUID, axis OptionKind) error {
	prev, ok := l.FindUserVote(userID, axis)
	if !ok {
		return ErrNoResponse
	}
	l.remove(prev.ID)
	return nil
}

// DropOption removes every vote referencing optionID and returns how many
// were removed.
func (l *Ledger) DropOption(optionID uuid.UUID) int {
	kept := (*l)[:0]
	dropped := 0
	for _, r := range *l {
		if r.OptionID != nil && *r.OptionID == optionID {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	*l = kept
	return dropped
}

func (l Ledger) FindUserVote(userID uuid.UUID, axis OptionKind) (Response, bool) {
	for _, r := range l {
		if r.IsVote() && r.UserID == userID && r.Axis == axis {
			return r, true
		}
	}
	return Response{}, false
}

func (l Ledger) FindUserRSVP(userID uuid.UUID) (Response, bool) {
	for _, r := range l {
		if r.IsRSVP() && r.UserID == userID {
			return r, true
		}
	}
	return Response{}, false
}

func (l Ledger) CountRSVPByType() RSVPCounts {
	var c RSVPCounts
	for _, r := range l {
		if !r.IsRSVP() {
			continue
		}
		switch r.RSVP {
		case RSVPYes:
			c.Yes++
		case RSVPNo:
			c.No++
		case RSVPMaybe:
			c.Maybe++
		}
	}
	return c
}

func (l Ledger) Votes() []Response {
	var votes []Response
	for _, r := range l {
		if r.IsVote() {
			votes = append(votes, r)
		}
	}
	return votes
}

func (l *Ledger) remove(id uuid.UUID) {
	for i, r := range *l {
		if r.ID == id {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return
		}
	}
}
