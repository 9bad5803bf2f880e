package handler

import (
	"net/http"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

// ListActivities handles GET /api/v1/activities?limit=&model=&id=.
func (h *REST) ListActivities(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	q := r.URL.Query()
	list, err := h.svc.Activities.List(r.Context(), domain.ActivityFilter{
		Model: q.Get("model"),
		ID:    q.Get("id"),
		Limit: limit,
	})
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeList(w, list)
}
