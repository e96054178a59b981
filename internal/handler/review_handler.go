package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tour-booking-api/internal/model"
	"tour-booking-api/internal/query"
)

// NewReviewResource wires the review hooks: when mounted under a tour the
// parent id scopes lists and fills omitted body fields, and the author always
// comes from the authenticated user.
//
// The nested mount is /tours/{id}/reviews, so in the List and Create hooks
// the id wildcard is the parent tour. The flat routes that carry {id} as the
// review id (Get, Update, Delete) never invoke these hooks.
func NewReviewResource(store Store[model.Review], opts query.Options) *Resource[model.Review] {
	res := NewResource(store, "review", "reviews", opts)

	res.Scope = func(r *http.Request) query.Scope {
		if tourID := chi.URLParam(r, "id"); tourID != "" {
			return query.Scope{"tour_id": tourID}
		}
		return nil
	}

	res.Defaults = func(r *http.Request, doc *model.Review) error {
		if doc.TourID == "" {
			doc.TourID = chi.URLParam(r, "id")
		}
		if user, ok := model.UserFromContext(r.Context()); ok {
			doc.UserID = user.ID
		}
		return nil
	}

	res.Expand = func(r *http.Request) []string {
		return []string{"user", "tour"}
	}

	return res
}
