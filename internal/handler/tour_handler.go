package handler

import (
	"net/http"

	"tour-booking-api/internal/model"
	"tour-booking-api/internal/query"
)

// TourHandler is the tour resource plus the top-5-cheap alias route.
type TourHandler struct {
	*Resource[model.Tour]
}

func NewTourHandler(store Store[model.Tour], opts query.Options) *TourHandler {
	return &TourHandler{Resource: NewResource(store, "tour", "tours", opts)}
}

// TopTours presets the query for the five best-rated cheap tours, then runs
// the ordinary list pipeline. Client-supplied filters still apply.
func (h *TourHandler) TopTours(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("limit", "5")
	q.Set("sort", "-ratings_average,price")
	q.Set("fields", "name,price,ratings_average,summary,difficulty")
	r.URL.RawQuery = q.Encode()

	h.List(w, r)
}
