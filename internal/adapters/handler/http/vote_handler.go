package http

import (
	"net/http"

	"github.com/vncsmyrnk/groupdecision/internal/core/ports"
)

// VoteHandler serves the poll ballot endpoints.
type VoteHandler struct {
	service ports.PollService
}

func NewVoteHandler(service ports.PollService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userFrom(r)

	var req voteRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	input := ports.PollVoteInput{
		PollID:   pollID,
		OptionID: req.OptionID,
		UserID:   userID,
	}

	poll, err := h.service.Vote(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newPollResponse(poll))
}

func (h *VoteHandler) Unvote(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userFrom(r)

	poll, err := h.service.Unvote(r.Context(), pollID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newPollResponse(poll))
}

func (h *VoteHandler) MyVote(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userFrom(r)

	vote, err := h.service.MyVote(r.Context(), pollID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, vote)
}
