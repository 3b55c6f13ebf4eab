package domain

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_ReVoteReplacesPreviousVote(t *testing.T) {
	opts := testOptions(OptionKindDatetime, "Fri", "Sat")
	user := uuid.New()
	var l Ledger

	_, changed := l.SubmitVote(user, opts[0])
	assert.True(t, changed)
	_, changed = l.SubmitVote(user, opts[1])
	assert.True(t, changed)

	votes := l.Votes()
	require.Len(t, votes, 1)
	assert.Equal(t, opts[1].ID, *votes[0].OptionID)

	tallied := Tally(opts, l)
	assert.Equal(t, int64(0), tallied[0].VoteCount)
	assert.Equal(t, int64(1), tallied[1].VoteCount)
}

func TestLedger_SameOptionIsIdempotent(t *testing.T) {
	opts := testOptions(OptionKindNone, "A", "B")
	user := uuid.New()
	var l Ledger

	first, _ := l.SubmitVote(user, opts[0])
	second, changed := l.SubmitVote(user, opts[0])

	assert.False(t, changed)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, l, 1)
}

func TestLedger_AxesAreIndependent(t *testing.T) {
	dates := testOptions(OptionKindDatetime, "Fri", "Sat")
	places := testOptions(OptionKindLocation, "Park", "Bar")
	user := uuid.New()
	var l Ledger

	l.SubmitVote(user, dates[0])
	l.SubmitVote(user, places[1])
	l.SubmitRSVP(dates[0].AggregateID, user, RSVPMaybe)

	assert.Len(t, l.Votes(), 2)
	dateVote, ok := l.FindUserVote(user, OptionKindDatetime)
	require.True(t, ok)
	assert.Equal(t, dates[0].ID, *dateVote.OptionID)
	placeVote, ok := l.FindUserVote(user, OptionKindLocation)
	require.True(t, ok)
	assert.Equal(t, places[1].ID, *placeVote.OptionID)
	_, ok = l.FindUserVote(user, OptionKindActivity)
	assert.False(t, ok)

	rsvp, ok := l.FindUserRSVP(user)
	require.True(t, ok)
	assert.Equal(t, RSVPMaybe, rsvp.RSVP)
}

func TestLedger_RSVPReplacesAndIsIdempotent(t *testing.T) {
	eventID := uuid.New()
	user := uuid.New()
	var l Ledger

	l.SubmitRSVP(eventID, user, RSVPYes)
	_, changed := l.SubmitRSVP(eventID, user, RSVPYes)
	assert.False(t, changed)
	assert.Len(t, l, 1)

	l.SubmitRSVP(eventID, user, RSVPNo)
	assert.Len(t, l, 1)
	assert.Equal(t, RSVPCounts{No: 1}, l.CountRSVPByType())
}

func TestLedger_CountRSVPByType(t *testing.T) {
	eventID := uuid.New()
	var l Ledger
	for _, rt := range []RSVPType{RSVPYes, RSVPYes, RSVPMaybe, RSVPNo, RSVPYes} {
		l.SubmitRSVP(eventID, uuid.New(), rt)
	}

	assert.Equal(t, RSVPCounts{Yes: 3, No: 1, Maybe: 1}, l.CountRSVPByType())
}

func TestLedger_RetractVote(t *testing.T) {
	opts := testOptions(OptionKindNone, "A", "B")
	user := uuid.New()
	var l Ledger

	assert.ErrorIs(t, l.RetractVote(user, OptionKindNone), ErrNoResponse)

	l.SubmitVote(user, opts[0])
	require.NoError(t, l.RetractVote(user, OptionKindNone))
	assert.Empty(t, l.Votes())
}

func TestLedger_DropOption(t *testing.T) {
	opts := testOptions(OptionKindNone, "A", "B")
	var l Ledger
	for i := 0; i < 3; i++ {
		l.SubmitVote(uuid.New(), opts[0])
	}
	l.SubmitVote(uuid.New(), opts[1])

	assert.Equal(t, 3, l.DropOption(opts[0].ID))
	assert.Len(t, l, 1)
}

// Votes by distinct users must tally the same whatever order they land in.
func TestLedger_DistinctUsersCommute(t *testing.T) {
	opts := testOptions(OptionKindNone, "A", "B", "C")

	type cmd struct {
		user uuid.UUID
		opt  Option
	}
	var cmds []cmd
	for i := 0; i < 30; i++ {
		cmds = append(cmds, cmd{user: uuid.New(), opt: opts[i%len(opts)]})
	}

	var ordered Ledger
	for _, c := range cmds {
		ordered.SubmitVote(c.user, c.opt)
	}

	rnd := rand.New(rand.NewSource(7))
	shuffled := append([]cmd(nil), cmds...)
	rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	var other Ledger
	for _, c := range shuffled {
		other.SubmitVote(c.user, c.opt)
	}

	a, b := Tally(opts, ordered), Tally(opts, other)
	for i := range a {
		assert.Equal(t, a[i].VoteCount, b[i].VoteCount)
	}
}
