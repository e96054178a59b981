package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tour-booking-api/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenService(t *testing.T) {
	t.Parallel()

	t.Run("issue and verify roundtrip", func(t *testing.T) {
		svc := NewTokenService(testSecret, time.Hour)

		token, err := svc.Issue("user-42")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := svc.Verify(token)
		require.NoError(t, err)
		require.Equal(t, "user-42", claims.Subject)
		require.WithinDuration(t, time.Now(), claims.IssuedAt, 5*time.Second)
	})

	t.Run("expired token is expired, not invalid", func(t *testing.T) {
		svc := NewTokenService(testSecret, -time.Minute)

		token, err := svc.Issue("user-42")
		require.NoError(t, err)

		_, err = svc.Verify(token)
		require.ErrorIs(t, err, model.ErrTokenExpired)
		require.NotErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("tampered token is invalid", func(t *testing.T) {
		svc := NewTokenService(testSecret, time.Hour)

		token, err := svc.Issue("user-42")
		require.NoError(t, err)

		tampered := token[:len(token)-3] + "xyz"
		_, err = svc.Verify(tampered)
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("token signed with another secret is invalid", func(t *testing.T) {
		svc := NewTokenService(testSecret, time.Hour)
		other := NewTokenService("another-secret-another-secret-xx", time.Hour)

		token, err := other.Issue("user-42")
		require.NoError(t, err)

		_, err = svc.Verify(token)
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("garbage is invalid", func(t *testing.T) {
		svc := NewTokenService(testSecret, time.Hour)

		_, err := svc.Verify("not-a-token")
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})
}
