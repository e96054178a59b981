package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator"

	"tour-booking-api/internal/model"
	"tour-booking-api/internal/service"
)

var validate = validator.New()

// AuthHandler exposes the account lifecycle endpoints. Every endpoint that
// authenticates also sets the jwt cookie so browser clients work without
// touching the Authorization header.
type AuthHandler struct {
	auth       *service.AuthService
	cookieTTL  time.Duration
	production bool
}

func NewAuthHandler(auth *service.AuthService, cookieTTL time.Duration, production bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieTTL: cookieTTL, production: production}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, token, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.sendToken(w, http.StatusCreated, user, token)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.sendToken(w, http.StatusOK, user, token)
}

// Logout overwrites the jwt cookie with an already-expired one.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.production,
	})
	writeJSON(w, http.StatusOK, model.SuccessResponse{Status: "success"})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.SuccessResponse{
		Status: "success",
		Data:   map[string]any{"message": "Token sent to email!"},
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		WriteError(w, r, err)
		return
	}

	user, token, err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.sendToken(w, http.StatusOK, user, token)
}

func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := model.UserFromContext(r.Context())
	if !ok {
		WriteError(w, r, model.ErrTokenInvalid)
		return
	}

	var req model.UpdatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		WriteError(w, r, err)
		return
	}

	updated, token, err := h.auth.UpdatePassword(r.Context(), user, req.PasswordCurrent, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.sendToken(w, http.StatusOK, updated, token)
}

func (h *AuthHandler) sendToken(w http.ResponseWriter, status int, user *model.User, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.production,
	})

	writeJSON(w, status, model.SuccessResponse{
		Status: "success",
		Token:  token,
		Data:   map[string]any{"user": user},
	})
}
