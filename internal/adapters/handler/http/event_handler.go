package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vncsmyrnk/groupdecision/internal/core/domain"
	"github.com/vncsmyrnk/groupdecision/internal/core/ports"
)

type EventHandler struct {
	service ports.EventService
	summary ports.SummaryService
}

// NewEventHandler builds the event routes. summary may be nil, in which case
// stored results are never attached.
func NewEventHandler(service ports.EventService, summary ports.SummaryService) *EventHandler {
	return &EventHandler{
		service: service,
		summary: summary,
	}
}

// eventResponse is an event with its per-axis tallies and RSVP counts.
// Result is the stored snapshot of a confirmed event, once summarized.
type eventResponse struct {
	*domain.Event
	Tallies []domain.TallyGroup    `json:"tallies"`
	RSVP    domain.RSVPCounts      `json:"rsvp"`
	Result  *domain.ResultSnapshot `json:"result,omitempty"`
}

func newEventResponse(e *domain.Event) eventResponse {
	return eventResponse{
		Event:   e,
		Tallies: e.Tallies(),
		RSVP:    e.Responses.CountRSVPByType(),
	}
}

type createEventRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	ScheduledAt *time.Time           `json:"scheduled_at"`
	Timezone    string               `json:"timezone"`
	Type        domain.EventType     `json:"type"`
	Options     []domain.OptionDraft `json:"options"`
}

type voteRequest struct {
	OptionID uuid.UUID `json:"option_id"`
}

type rsvpRequest struct {
	ResponseType domain.RSVPType `json:"response_type"`
}

// CreateEvent godoc
// @Summary      Creates an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Success      201
// @Failure      400
// @Router       /events [post]
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, _ := userFrom(r)

	var req createEventRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	event, err := h.service.Create(r.Context(), ports.CreateEventInput{
		CreatorID:   userID,
		Title:       req.Title,
		Description: req.Description,
		ScheduledAt: req.ScheduledAt,
		Timezone:    req.Timezone,
		Type:        req.Type,
		Options:     req.Options,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newEventResponse(event))
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}

	event, err := h.service.GetEvent(r.Context(), eventID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := newEventResponse(event)
	if event.Status == domain.EventConfirmed {
		resp.Result, err = storedResult(r.Context(), h.summary, event.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *EventHandler) EditEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userFrom(r)

	var patch domain.EventPatch
	if err := decodeBody(r, &patch); err != nil {
		badRequest(w, err.Error())
		return
	}

	event, err := h.service.Edit(r.Context(), ports.EditEventInput{EventID: eventID, UserID: userID, Patch: patch})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newEventResponse(event))
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userFrom(r)

	if err := h.service.Delete(r.Context(), eventID, userID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Vote godoc
// @Summary      Votes for an event option
// @Description  Replaces any earlier vote by the same user on the option's axis.
// @Tags         events
// @Accept       json
// @Produce      json
// @Success      201
// @Failure      404
// @Failure      422
// @Failure      423
// @Router       /events/{id}/votes [post]
func (h *EventHandler) Vote(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userFrom(r)

	var req voteRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	event, err := h.service.Vote(r.Context(), ports.EventVoteInput{EventID: eventID, OptionID: req.OptionID, UserID: userID})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newEventResponse(event))
}

func (h *EventHandler) Unvote(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userFrom(r)

	axis := domain.OptionKind(chi.URLParam(r, "axis"))
	if !axis.Valid() {
		badRequest(w, "unknown axis")
		return
	}

	event, err := h.service.Unvote(r.Context(), eventID, userID, axis)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newEventResponse(event))
}

func (h *EventHandler) RSVP(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userFrom(r)

	var req rsvpRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	event, err := h.service.RSVP(r.Context(), ports.RSVPInput{EventID: eventID, UserID: userID, Type: req.ResponseType})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newEventResponse(event))
}

// MyVote returns the caller's current vote on the axis named by the axis
// query parameter.
func (h *EventHandler) MyVote(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userFrom(r)

	axis := domain.OptionKind(r.URL.Query().Get("axis"))
	if !axis.Valid() {
		badRequest(w, "axis must be one of datetime, location, activity")
		return
	}

	vote, err := h.service.MyVote(r.Context(), eventID, userID, axis)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, vote)
}

func (h *EventHandler) MyRSVP(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userFrom(r)

	rsvp, err := h.service.MyRSVP(r.Context(), eventID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rsvp)
}

func (h *EventHandler) StartVoting(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.StartVoting)
}

func (h *EventHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Finalize)
}

func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *EventHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, uuid.UUID, uuid.UUID) (*domain.Event, error)) {
	eventID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userFrom(r)

	event, err := apply(r.Context(), eventID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newEventResponse(event))
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
