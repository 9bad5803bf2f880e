package handler

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

// CreateContact handles the public POST /api/v1/contacts.
func (h *REST) CreateContact(w http.ResponseWriter, r *http.Request) {
	var c domain.Contact
	if err := decode(r, &c); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	c.ID = primitive.NilObjectID
	created, err := h.svc.Contacts.Create(r.Context(), &c)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *REST) ListContacts(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Contacts.List(r.Context())
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeList(w, list)
}

// UpdateContactStatus handles PUT /api/v1/contacts/{id}.
func (h *REST) UpdateContactStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Contact")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	var body struct {
		Status domain.ContactStatus `json:"status"`
	}
	if err := decode(r, &body); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	c, err := h.svc.Contacts.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
