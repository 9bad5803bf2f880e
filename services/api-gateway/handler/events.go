package handler

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

// ListEvents handles GET /api/v1/events?startDate=&endDate=&type=.
func (h *REST) ListEvents(w http.ResponseWriter, r *http.Request) {
	var filter domain.EventFilter
	var err error
	if filter.From, err = queryTime(r, "startDate"); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	if filter.To, err = queryTime(r, "endDate"); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	filter.Type = domain.EventType(r.URL.Query().Get("type"))

	list, err := h.svc.Events.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeList(w, list)
}

// UpcomingEvents handles GET /api/v1/events/upcoming?limit=.
func (h *REST) UpcomingEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	list, err := h.svc.Events.Upcoming(r.Context(), limit)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeList(w, list)
}

func (h *REST) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var e domain.Event
	if err := decode(r, &e); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	e.ID = primitive.NilObjectID
	view, err := h.svc.Events.Create(r.Context(), &e, caller(r).UserID)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *REST) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Event")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	view, err := h.svc.Events.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *REST) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Event")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	var patch domain.EventPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	view, err := h.svc.Events.Update(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *REST) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Event")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	if err := h.svc.Events.Delete(r.Context(), id); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}
