package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tour-booking-api/internal/query"
	"tour-booking-api/pkg/apierror"
)

// Store is the persistence surface a Resource drives. Every repository that
// backs a REST collection implements it.
type Store[T any] interface {
	Find(ctx context.Context, spec *query.Spec, scope query.Scope) ([]T, error)
	FindByID(ctx context.Context, id string, expand []string) (T, error)
	Insert(ctx context.Context, doc *T) (T, error)
	Update(ctx context.Context, id string, patch map[string]any) (T, error)
	Delete(ctx context.Context, id string) error
}

// Resource implements the five collection endpoints for one entity type. The
// optional hooks let a route inject ambient filters (a nested route's parent
// id), body defaults, and relation expansion without changing the generic
// flow.
type Resource[T any] struct {
	store    Store[T]
	singular string
	plural   string
	opts     query.Options

	// Scope adds server-side equality filters to List, e.g. tour_id from the
	// nested reviews route.
	Scope func(r *http.Request) query.Scope

	// Defaults fills body fields the client may omit, e.g. the review author
	// from the authenticated user.
	Defaults func(r *http.Request, doc *T) error

	// Expand names related rows to join into single-document reads.
	Expand func(r *http.Request) []string
}

func NewResource[T any](store Store[T], singular string, plural string, opts query.Options) *Resource[T] {
	return &Resource[T]{
		store:    store,
		singular: singular,
		plural:   plural,
		opts:     opts,
	}
}

func (res *Resource[T]) List(w http.ResponseWriter, r *http.Request) {
	spec, err := query.Parse(r.URL.Query(), res.opts)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var scope query.Scope
	if res.Scope != nil {
		scope = res.Scope(r)
	}

	items, err := res.store.Find(r.Context(), spec, scope)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeList(w, res.plural, items, len(items))
}

func (res *Resource[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var expand []string
	if res.Expand != nil {
		expand = res.Expand(r)
	}

	item, err := res.store.FindByID(r.Context(), id, expand)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{res.singular: item})
}

func (res *Resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	var doc T
	if err := decodeJSON(r, &doc); err != nil {
		WriteError(w, r, err)
		return
	}

	if res.Defaults != nil {
		if err := res.Defaults(r, &doc); err != nil {
			WriteError(w, r, err)
			return
		}
	}

	created, err := res.store.Insert(r.Context(), &doc)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, map[string]any{res.singular: created})
}

func (res *Resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var patch map[string]any
	if err := decodeJSON(r, &patch); err != nil {
		WriteError(w, r, err)
		return
	}

	updated, err := res.store.Update(r.Context(), id, patch)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{res.singular: updated})
}

func (res *Resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if err := res.store.Delete(r.Context(), id); err != nil {
		WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID reads and validates the {id} route parameter.
func pathID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "id")
	if _, err := uuid.Parse(raw); err != nil {
		return "", apierror.Newf(http.StatusBadRequest, "Invalid id: %s", raw)
	}
	return raw, nil
}
