package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"tour-booking-api/internal/model"
	"tour-booking-api/pkg/apierror"
)

func doWriteError(t *testing.T, err error) (*httptest.ResponseRecorder, model.ErrorResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	rec := httptest.NewRecorder()
	WriteError(rec, req, err)

	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestWriteErrorOperational(t *testing.T) {
	t.Run("4xx renders as fail with its own message", func(t *testing.T) {
		rec, body := doWriteError(t, apierror.New("No tour found with that ID", http.StatusNotFound))

		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "fail", body.Status)
		require.Equal(t, "No tour found with that ID", body.Message)
	})

	t.Run("operational 5xx renders as error", func(t *testing.T) {
		rec, body := doWriteError(t, apierror.New("Upstream mail relay unavailable", http.StatusBadGateway))

		require.Equal(t, http.StatusBadGateway, rec.Code)
		require.Equal(t, "error", body.Status)
	})

	t.Run("wrapped operational errors still translate", func(t *testing.T) {
		wrapped := errors.Join(errors.New("context"), apierror.New("Invalid id: abc", http.StatusBadRequest))
		rec, body := doWriteError(t, wrapped)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Invalid id: abc", body.Message)
	})
}

func TestWriteErrorValidation(t *testing.T) {
	err := validate.Struct(model.SignupRequest{
		Name:            "Leo",
		Email:           "not-an-email",
		Password:        "short",
		PasswordConfirm: "different",
	})
	require.Error(t, err)

	rec, body := doWriteError(t, err)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "fail", body.Status)
	require.Contains(t, body.Message, "Invalid input data")
	require.Contains(t, body.Message, "Email must be a valid email address")
	require.Contains(t, body.Message, "Password must be at least 8 characters")
}

func TestWriteErrorPostgres(t *testing.T) {
	t.Run("unique violation is a 409", func(t *testing.T) {
		rec, body := doWriteError(t, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "Duplicate field value. Please use another value!", body.Message)
	})

	t.Run("foreign key violation is a 400", func(t *testing.T) {
		rec, _ := doWriteError(t, &pgconn.PgError{Code: "23503"})

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid text representation is a 400", func(t *testing.T) {
		rec, body := doWriteError(t, &pgconn.PgError{
			Code:    "22P02",
			Message: `invalid input syntax for type uuid: "not-a-uuid"`,
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "fail", body.Status)
	})
}

func TestWriteErrorSentinels(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{model.ErrTokenExpired, http.StatusUnauthorized, "Your token has expired! Please log in again."},
		{model.ErrTokenInvalid, http.StatusUnauthorized, "Invalid token. Please log in again!"},
		{model.ErrResetTokenInvalid, http.StatusBadRequest, "Token is invalid or has expired"},
		{model.ErrNotFound, http.StatusNotFound, "Resource not found"},
	}

	for _, tc := range cases {
		rec, body := doWriteError(t, tc.err)
		require.Equal(t, tc.status, rec.Code, "for %v", tc.err)
		require.Equal(t, tc.message, body.Message, "for %v", tc.err)
	}
}

func TestWriteErrorUnexpected(t *testing.T) {
	boom := errors.New("pq: connection reset by peer")

	t.Run("production hides the cause", func(t *testing.T) {
		Configure("production")
		defer Configure("test")

		rec, body := doWriteError(t, boom)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "error", body.Status)
		require.Equal(t, "Something went very wrong!", body.Message)
		require.Empty(t, body.Stack)
	})

	t.Run("diagnostic posture includes message and stack", func(t *testing.T) {
		Configure("development")
		defer Configure("test")

		rec, body := doWriteError(t, boom)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "pq: connection reset by peer", body.Message)
		require.NotEmpty(t, body.Stack)
	})
}
