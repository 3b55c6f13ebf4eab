package domain

import (
	"math"

	"github.com/google/uuid"
)

// Tally returns a copy of options annotated with the number of vote responses
// referencing each one and its share of the total. Percentages are rounded
// independently, so they need not sum to exactly 100.
func Tally(options []Option, responses []Response) []Option {
	counts := make(map[uuid.UUID]int64, len(options))
	for _, opt := range options {
		counts[opt.ID] = 0
	}

	var total int64
	for _, r := range responses {
		if r.OptionID == nil {
			continue
		}
		if _, ok := counts[*r.OptionID]; !ok {
			continue
		}
		counts[*r.OptionID]++
		total++
	}

	tallied := make([]Option, len(options))
	for i, opt := range options {
		opt.VoteCount = counts[opt.ID]
		opt.Percentage = percentage(opt.VoteCount, total)
		tallied[i] = opt
	}
	return tallied
}

func percentage(count, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

type StandingState string

const (
	StandingNoVotes StandingState = "no_votes"
	StandingTie     StandingState = "tie"
	StandingSingle  StandingState = "single"
)

// Standing is the leader view of one tally group. LeaderID is set only when
// exactly one option holds the maximum nonzero count.
type Standing struct {
	Kind       OptionKind    `json:"kind,omitempty"`
	State      StandingState `json:"state"`
	LeaderID   *uuid.UUID    `json:"leader_id,omitempty"`
	TopCount   int64         `json:"top_count"`
	TotalVotes int64         `json:"total_votes"`
}

// Leader picks the single option with the highest vote count among tallied
// options. The returned option is the zero value unless standing.State is
// StandingSingle: nobody voted, or two or more options share the maximum.
func Leader(tallied []Option) (leader Option, standing Standing) {
	standing.State = StandingNoVotes

	var top int64
	holders := 0
	for _, opt := range tallied {
		standing.TotalVotes += opt.VoteCount
		switch {
		case opt.VoteCount > top:
			top = opt.VoteCount
			holders = 1
			leader = opt
		case opt.VoteCount == top && top > 0:
			holders++
		}
	}
	standing.TopCount = top

	switch {
	case top == 0:
		return Option{}, standing
	case holders > 1:
		standing.State = StandingTie
		return Option{}, standing
	}

	standing.State = StandingSingle
	id := leader.ID
	standing.LeaderID = &id
	return leader, standing
}

// TallyGroup is the tally of one voting axis.
type TallyGroup struct {
	Kind     OptionKind `json:"kind,omitempty"`
	Options  []Option   `json:"options"`
	Standing Standing   `json:"standing"`
}

// TallyByKind tallies each option kind independently, in first-seen order.
func TallyByKind(options []Option, responses []Response) []TallyGroup {
	var kinds []OptionKind
	byKind := make(map[OptionKind][]Option)
	for _, opt := range options {
		if _, ok := byKind[opt.Kind]; !ok {
			kinds = append(kinds, opt.Kind)
		}
		byKind[opt.Kind] = append(byKind[opt.Kind], opt)
	}

	groups := make([]TallyGroup, 0, len(kinds))
	for _, kind := range kinds {
		tallied := Tally(byKind[kind], responses)
		_, standing := Leader(tallied)
		standing.Kind = kind
		groups = append(groups, TallyGroup{Kind: kind, Options: tallied, Standing: standing})
	}
	return groups
}
