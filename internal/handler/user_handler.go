package handler

import (
	"net/http"

	"tour-booking-api/internal/model"
	"tour-booking-api/internal/service"
	"tour-booking-api/pkg/apierror"
)

// UserHandler covers the self-service endpoints. The admin collection surface
// is a plain Resource over the same repository.
type UserHandler struct {
	users service.UserStore
	audit service.AuditRecorder
}

func NewUserHandler(users service.UserStore, audit service.AuditRecorder) *UserHandler {
	return &UserHandler{users: users, audit: audit}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := model.UserFromContext(r.Context())
	if !ok {
		WriteError(w, r, model.ErrTokenInvalid)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": user})
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := model.UserFromContext(r.Context())
	if !ok {
		WriteError(w, r, model.ErrTokenInvalid)
		return
	}

	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		WriteError(w, r, err)
		return
	}

	for key := range body {
		switch key {
		case "password", "password_confirm", "password_current":
			WriteError(w, r, apierror.New(
				"This route is not for password updates. Please use /updatePassword.",
				http.StatusBadRequest))
			return
		case "name", "email", "photo":
		default:
			WriteError(w, r, apierror.Newf(http.StatusBadRequest, "Field %q cannot be updated on this route", key))
			return
		}
	}

	req := model.UpdateMeRequest{
		Name:  stringField(body, "name"),
		Email: stringField(body, "email"),
		Photo: stringField(body, "photo"),
	}
	if err := validate.Struct(req); err != nil {
		WriteError(w, r, err)
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.ID, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{"user": updated})
}

// DeleteMe deactivates the account. The row stays so reviews keep their
// author, but every read path filters on active.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := model.UserFromContext(r.Context())
	if !ok {
		WriteError(w, r, model.ErrTokenInvalid)
		return
	}

	if err := h.users.Deactivate(r.Context(), user.ID); err != nil {
		WriteError(w, r, err)
		return
	}

	h.audit.Record(user.Email, model.AuditAccountDeactivated, "")
	w.WriteHeader(http.StatusNoContent)
}

func stringField(body map[string]any, key string) *string {
	value, ok := body[key]
	if !ok {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return nil
	}
	return &s
}
