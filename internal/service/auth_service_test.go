package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tour-booking-api/internal/model"
	"tour-booking-api/pkg/apierror"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserStore, *fakeMailer) {
	t.Helper()

	store := newFakeUserStore()
	mail := &fakeMailer{}
	tokens := NewTokenService(testSecret, time.Hour)
	passwords := NewPasswordService(10, 10*time.Minute, store)
	auth := NewAuthService(tokens, passwords, store, mail, noopAudit{}, "http://localhost:8080")
	return auth, store, mail
}

func TestSignupAndLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	auth, store, _ := newAuthFixture(t)

	user, token, err := auth.Signup(ctx, model.SignupRequest{
		Name:            "Leo Alvarez",
		Email:           "Leo@Example.com",
		Password:        "a-long-password",
		PasswordConfirm: "a-long-password",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, model.RoleUser, user.Role)
	require.Equal(t, "leo@example.com", user.Email)
	require.NotEqual(t, "a-long-password", user.PasswordHash)

	t.Run("login with correct credentials issues a token for the same subject", func(t *testing.T) {
		loggedIn, loginToken, err := auth.Login(ctx, "leo@example.com", "a-long-password")
		require.NoError(t, err)
		require.Equal(t, user.ID, loggedIn.ID)

		claims, err := NewTokenService(testSecret, time.Hour).Verify(loginToken)
		require.NoError(t, err)
		require.Equal(t, user.ID, claims.Subject)
	})

	t.Run("wrong password and unknown email fail identically", func(t *testing.T) {
		_, _, errWrong := auth.Login(ctx, "leo@example.com", "not-the-password")
		_, _, errUnknown := auth.Login(ctx, "nobody@example.com", "a-long-password")

		for _, err := range []error{errWrong, errUnknown} {
			var appErr *apierror.AppError
			require.True(t, errors.As(err, &appErr))
			require.Equal(t, 401, appErr.StatusCode)
			require.Equal(t, "Incorrect email or password", appErr.Message)
		}
	})

	t.Run("deactivated user cannot log in", func(t *testing.T) {
		require.NoError(t, store.Deactivate(ctx, user.ID))

		_, _, err := auth.Login(ctx, "leo@example.com", "a-long-password")
		var appErr *apierror.AppError
		require.True(t, errors.As(err, &appErr))
		require.Equal(t, 401, appErr.StatusCode)
	})
}

func TestForgotAndResetPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("forgot password mails the user", func(t *testing.T) {
		auth, store, mail := newAuthFixture(t)
		user := store.add(&model.User{Name: "Maya", Email: "maya@example.com"})

		require.NoError(t, auth.ForgotPassword(ctx, "maya@example.com"))
		require.Equal(t, []string{"maya@example.com"}, mail.sent)
		require.NotNil(t, store.users[user.ID].PasswordResetToken)
	})

	t.Run("unknown email is a 404", func(t *testing.T) {
		auth, _, _ := newAuthFixture(t)

		err := auth.ForgotPassword(ctx, "ghost@example.com")
		var appErr *apierror.AppError
		require.True(t, errors.As(err, &appErr))
		require.Equal(t, 404, appErr.StatusCode)
	})

	t.Run("mail failure withdraws the token", func(t *testing.T) {
		auth, store, mail := newAuthFixture(t)
		mail.fail = true
		user := store.add(&model.User{Name: "Maya", Email: "maya@example.com"})

		err := auth.ForgotPassword(ctx, "maya@example.com")
		require.Error(t, err)
		require.Nil(t, store.users[user.ID].PasswordResetToken)
	})

	t.Run("reset with a bad token is a 400", func(t *testing.T) {
		auth, _, _ := newAuthFixture(t)

		_, _, err := auth.ResetPassword(ctx, "bogus", "a-new-password")
		var appErr *apierror.AppError
		require.True(t, errors.As(err, &appErr))
		require.Equal(t, 400, appErr.StatusCode)
	})
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	auth, store, _ := newAuthFixture(t)
	passwords := NewPasswordService(10, 10*time.Minute, store)
	hash, err := passwords.Hash("original-password")
	require.NoError(t, err)
	user := store.add(&model.User{Name: "Iris", Email: "iris@example.com", PasswordHash: hash})

	t.Run("wrong current password is rejected", func(t *testing.T) {
		_, _, err := auth.UpdatePassword(ctx, user, "guessed-wrong", "a-new-password")
		var appErr *apierror.AppError
		require.True(t, errors.As(err, &appErr))
		require.Equal(t, 401, appErr.StatusCode)
	})

	t.Run("password change revokes earlier tokens", func(t *testing.T) {
		issuedBefore := time.Now()

		updated, token, err := auth.UpdatePassword(ctx, user, "original-password", "a-new-password")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		require.True(t, updated.PasswordChangedAfter(issuedBefore.Add(-time.Minute)))
		require.True(t, passwords.Verify("a-new-password", store.users[user.ID].PasswordHash))
	})
}
