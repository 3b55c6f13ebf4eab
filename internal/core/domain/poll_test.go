package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoll(t *testing.T) {
	creator := uuid.New()

	tests := []struct {
		name    string
		draft   PollDraft
		wantErr bool
		options int
	}{
		{"two options", PollDraft{Question: "Lunch?", Options: []string{"Pizza", "Tacos"}}, false, 2},
		{"four options", PollDraft{CreatorID: &creator, Question: "Lunch?", Options: []string{"A", "B", "C", "D"}}, false, 4},
		{"blank option", PollDraft{Question: "Lunch?", Options: []string{"A", " ", "B"}}, true, 0},
		{"four options and a blank", PollDraft{Question: "Lunch?", Options: []string{"A", "B", "C", "D", ""}}, true, 0},
		{"empty question", PollDraft{Question: "", Options: []string{"A", "B"}}, true, 0},
		{"one option", PollDraft{Question: "Lunch?", Options: []string{"A"}}, true, 0},
		{"one valid option", PollDraft{Question: "Lunch?", Options: []string{"A", ""}}, true, 0},
		{"five options", PollDraft{Question: "Lunch?", Options: []string{"A", "B", "C", "D", "E"}}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poll, err := NewPoll(tt.draft)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, PollOpen, poll.Status)
			assert.Len(t, poll.Options, tt.options)
			for i, o := range poll.Options {
				assert.Equal(t, poll.ID, o.AggregateID)
				assert.Equal(t, i, o.Position)
			}
		})
	}
}

func TestPoll_OneVotePerUser(t *testing.T) {
	poll, err := NewPoll(PollDraft{Question: "Lunch?", Options: []string{"Pizza", "Tacos"}})
	require.NoError(t, err)
	user := uuid.New()

	_, err = poll.Vote(user, poll.Options[0].ID)
	require.NoError(t, err)
	_, err = poll.Vote(user, poll.Options[1].ID)
	require.NoError(t, err)

	assert.Len(t, poll.Responses, 1)
	vote, ok := poll.UserVote(user)
	require.True(t, ok)
	assert.Equal(t, poll.Options[1].ID, *vote.OptionID)
	assert.Equal(t, int64(0), poll.Options[0].VoteCount)
	assert.Equal(t, int64(1), poll.Options[1].VoteCount)
}

func TestPoll_Scenario(t *testing.T) {
	poll, err := NewPoll(PollDraft{Question: "Lunch?", Options: []string{"Pizza", "Tacos"}})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := poll.Vote(uuid.New(), poll.Options[0].ID)
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := poll.Vote(uuid.New(), poll.Options[1].ID)
		require.NoError(t, err)
	}

	group := poll.Tally()
	assert.Equal(t, 60, group.Options[0].Percentage)
	assert.Equal(t, 40, group.Options[1].Percentage)
	assert.Equal(t, StandingSingle, group.Standing.State)
	assert.Equal(t, poll.Options[0].ID, *group.Standing.LeaderID)
}

func TestPoll_Close(t *testing.T) {
	creator := uuid.New()
	poll, err := NewPoll(PollDraft{CreatorID: &creator, Question: "Lunch?", Options: []string{"Pizza", "Tacos"}})
	require.NoError(t, err)
	voter := uuid.New()
	_, err = poll.Vote(voter, poll.Options[0].ID)
	require.NoError(t, err)

	assert.ErrorIs(t, poll.Close(uuid.New()), ErrForbidden)
	assert.Equal(t, PollOpen, poll.Status)

	require.NoError(t, poll.Close(creator))
	assert.Equal(t, PollClosed, poll.Status)
	assert.NotNil(t, poll.ClosedAt)

	_, err = poll.Vote(uuid.New(), poll.Options[1].ID)
	assert.ErrorIs(t, err, ErrAggregateLocked)
	assert.ErrorIs(t, poll.RetractVote(voter), ErrAggregateLocked)
	assert.Equal(t, int64(1), poll.Options[0].VoteCount)

	assert.ErrorIs(t, poll.Close(creator), ErrInvalidTransition)
}

func TestPoll_CreatorlessCannotClose(t *testing.T) {
	poll, err := NewPoll(PollDraft{Question: "Lunch?", Options: []string{"Pizza", "Tacos"}})
	require.NoError(t, err)

	assert.ErrorIs(t, poll.Close(uuid.New()), ErrForbidden)
	assert.ErrorIs(t, poll.CanDelete(uuid.New()), ErrForbidden)
}

func TestPoll_InvalidOption(t *testing.T) {
	poll, err := NewPoll(PollDraft{Question: "Lunch?", Options: []string{"Pizza", "Tacos"}})
	require.NoError(t, err)

	_, err = poll.Vote(uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.Equal(t, "InvalidReference", Kind(err))
}

func TestPoll_RetractVote(t *testing.T) {
	poll, err := NewPoll(PollDraft{Question: "Lunch?", Options: []string{"Pizza", "Tacos"}})
	require.NoError(t, err)
	user := uuid.New()

	assert.ErrorIs(t, poll.RetractVote(user), ErrNoResponse)

	_, err = poll.Vote(user, poll.Options[0].ID)
	require.NoError(t, err)
	require.NoError(t, poll.RetractVote(user))
	assert.Equal(t, int64(0), poll.Options[0].VoteCount)
	_, ok := poll.UserVote(user)
	assert.False(t, ok)
}
