package http

import (
	"net/http"
	"strconv"

	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
	"github.com/vncsmyrnk/groupdecision/internal/core/ports"
)

type PollHandler struct {
	service ports.PollService
	summary ports.SummaryService
}

func NewPollHandler(service ports.PollService, summary ports.SummaryService) *PollHandler {
	return &PollHandler{
		service: service,
		summary: summary,
	}
}

type pollResponse struct {
	*domain.Poll
	Standing domain.Standing        `json:"standing"`
	Result   *domain.ResultSnapshot `json:"result,omitempty"`
}

func newPollResponse(p *domain.Poll) pollResponse {
	return pollResponse{Poll: p, Standing: p.Tally().Standing}
}

type createPollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// CreatePoll godoc
// @Summary      Creates a poll
// @Description  Anonymous callers may create polls; those polls can never be closed.
// @Tags         polls
// @Accept       json
// @Produce      json
// @Success      201
// @Failure      400
// @Router       /polls [post]
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	input := ports.CreatePollInput{
		Question: req.Question,
		Options:  req.Options,
	}
	if userID, ok := userFrom(r); ok {
		input.CreatorID = &userID
	}

	poll, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newPollResponse(poll))
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r)
	if !ok {
		return
	}

	poll, err := h.service.GetPoll(r.Context(), pollID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := newPollResponse(poll)
	if poll.Status == domain.PollClosed {
		resp.Result, err = storedResult(r.Context(), h.summary, poll.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListPolls godoc
// @Summary      Lists polls, most voted first
// @Tags         polls
// @Produce      json
// @Param        page  query  int     false  "1-based page number"
// @Param        q     query  string  false  "question search"
// @Success      200
// @Router       /polls [get]
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		var err error
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			badRequest(w, "page must be a positive integer")
			return
		}
	}

	polls, err := h.service.ListPolls(r.Context(), ports.ListPollsInput{
		Page:  page,
		Query: r.URL.Query().Get("q"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]pollResponse, 0, len(polls))
	for _, p := range polls {
		resp = append(resp, newPollResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userFrom(r)

	poll, err := h.service.Close(r.Context(), pollID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newPollResponse(poll))
}

func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	pollID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userFrom(r)

	if err := h.service.Delete(r.Context(), pollID, userID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
