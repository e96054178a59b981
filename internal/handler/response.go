package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgconn"

	"tour-booking-api/internal/model"
	"tour-booking-api/pkg/apierror"
)

// diagnostic controls whether unexpected errors leak their message and stack
// to the client. It is off in production.
var diagnostic bool

// Configure sets the error-reporting posture for the process.
func Configure(env string) {
	diagnostic = env != "production"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, model.SuccessResponse{
		Status: "success",
		Data:   data,
	})
}

func writeList(w http.ResponseWriter, key string, items any, count int) {
	writeJSON(w, http.StatusOK, model.SuccessResponse{
		Status:  "success",
		Results: &count,
		Data:    map[string]any{key: items},
	})
}

// WriteError is the single funnel every handler and middleware reports
// through. It translates the error into the fail/error envelope; anything it
// cannot classify is treated as an unexpected server fault.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr := translate(err); appErr != nil {
		writeJSON(w, appErr.StatusCode, model.ErrorResponse{
			Status:  appErr.Status(),
			Message: appErr.Message,
		})
		return
	}

	slog.Error("unhandled error",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err.Error(),
	)

	body := model.ErrorResponse{
		Status:  "error",
		Message: "Something went very wrong!",
	}
	if diagnostic {
		body.Message = err.Error()
		body.Detail = fmt.Sprintf("%+v", err)
		body.Stack = string(debug.Stack())
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

// translate maps a classified error to its operational form, or nil when the
// error is unexpected.
func translate(err error) *apierror.AppError {
	var appErr *apierror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		msgs := make([]string, 0, len(vErrs))
		for _, fe := range vErrs {
			msgs = append(msgs, invalidFieldMessage(fe))
		}
		return apierror.Newf(http.StatusBadRequest, "Invalid input data. %s", strings.Join(msgs, ". "))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apierror.New("Duplicate field value. Please use another value!", http.StatusConflict)
		case "23503":
			return apierror.New("Referenced resource does not exist", http.StatusBadRequest)
		case "22P02":
			return apierror.New("Invalid value for a request parameter", http.StatusBadRequest)
		}
	}

	switch {
	case errors.Is(err, model.ErrTokenExpired):
		return apierror.New("Your token has expired! Please log in again.", http.StatusUnauthorized)
	case errors.Is(err, model.ErrTokenInvalid):
		return apierror.New("Invalid token. Please log in again!", http.StatusUnauthorized)
	case errors.Is(err, model.ErrResetTokenInvalid):
		return apierror.New("Token is invalid or has expired", http.StatusBadRequest)
	case errors.Is(err, model.ErrNotFound):
		return apierror.New("Resource not found", http.StatusNotFound)
	}
	return nil
}

func invalidFieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "ltfield":
		return fmt.Sprintf("%s must be below %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// decodeJSON reads a request body into dst, rejecting unknown fields so typos
// surface as 400s instead of silently dropped input.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apierror.Newf(http.StatusBadRequest, "Invalid request body: %v", err)
	}
	return nil
}
