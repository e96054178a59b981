package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tour-booking-api/internal/model"
)

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	svc := NewPasswordService(10, 10*time.Minute, newFakeUserStore())

	t.Run("hash is not the plaintext and verifies", func(t *testing.T) {
		hash, err := svc.Hash("correct horse battery")
		require.NoError(t, err)
		require.NotEqual(t, "correct horse battery", hash)
		require.True(t, svc.Verify("correct horse battery", hash))
	})

	t.Run("wrong password does not verify", func(t *testing.T) {
		hash, err := svc.Hash("password-one")
		require.NoError(t, err)
		require.False(t, svc.Verify("password-two", hash))
	})

	t.Run("same password hashes differently per call", func(t *testing.T) {
		h1, err := svc.Hash("repeatable")
		require.NoError(t, err)
		h2, err := svc.Hash("repeatable")
		require.NoError(t, err)
		require.NotEqual(t, h1, h2)
	})
}

func TestResetTokenLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func() (*PasswordService, *fakeUserStore, *model.User) {
		store := newFakeUserStore()
		user := store.add(&model.User{Email: "leo@example.com", PasswordHash: "old-hash"})
		return NewPasswordService(10, 10*time.Minute, store), store, user
	}

	t.Run("create stores only the hash", func(t *testing.T) {
		svc, store, user := setup()

		plaintext, err := svc.CreateResetToken(ctx, user)
		require.NoError(t, err)
		require.Len(t, plaintext, 64)

		stored := store.users[user.ID]
		require.NotNil(t, stored.PasswordResetToken)
		require.NotEqual(t, plaintext, *stored.PasswordResetToken)
		require.Equal(t, HashResetToken(plaintext), *stored.PasswordResetToken)
		require.WithinDuration(t, time.Now().Add(10*time.Minute), *stored.PasswordResetExpires, 5*time.Second)
	})

	t.Run("issuing again invalidates the prior token", func(t *testing.T) {
		svc, _, user := setup()

		first, err := svc.CreateResetToken(ctx, user)
		require.NoError(t, err)
		second, err := svc.CreateResetToken(ctx, user)
		require.NoError(t, err)
		require.NotEqual(t, first, second)

		_, err = svc.ConsumeResetToken(ctx, first, "a-new-password")
		require.ErrorIs(t, err, model.ErrResetTokenInvalid)

		_, err = svc.ConsumeResetToken(ctx, second, "a-new-password")
		require.NoError(t, err)
	})

	t.Run("consume is single use", func(t *testing.T) {
		svc, store, user := setup()

		plaintext, err := svc.CreateResetToken(ctx, user)
		require.NoError(t, err)

		updated, err := svc.ConsumeResetToken(ctx, plaintext, "brand-new-password")
		require.NoError(t, err)
		require.True(t, svc.Verify("brand-new-password", updated.PasswordHash))
		require.NotNil(t, updated.PasswordChangedAt)
		require.Nil(t, store.users[user.ID].PasswordResetToken)

		_, err = svc.ConsumeResetToken(ctx, plaintext, "another-password")
		require.ErrorIs(t, err, model.ErrResetTokenInvalid)
	})

	t.Run("expired token cannot be consumed", func(t *testing.T) {
		store := newFakeUserStore()
		user := store.add(&model.User{Email: "leo@example.com"})
		svc := NewPasswordService(10, -time.Minute, store)

		plaintext, err := svc.CreateResetToken(ctx, user)
		require.NoError(t, err)

		_, err = svc.ConsumeResetToken(ctx, plaintext, "whatever-password")
		require.ErrorIs(t, err, model.ErrResetTokenInvalid)
	})

	t.Run("unknown token cannot be consumed", func(t *testing.T) {
		svc, _, _ := setup()

		_, err := svc.ConsumeResetToken(ctx, "deadbeef", "whatever-password")
		require.ErrorIs(t, err, model.ErrResetTokenInvalid)
	})

	t.Run("change stamp revokes tokens issued before it", func(t *testing.T) {
		svc, _, user := setup()
		issuedAt := time.Now()

		plaintext, err := svc.CreateResetToken(ctx, user)
		require.NoError(t, err)
		updated, err := svc.ConsumeResetToken(ctx, plaintext, "a-new-password")
		require.NoError(t, err)

		require.True(t, updated.PasswordChangedAfter(issuedAt.Add(-time.Minute)))
		require.False(t, updated.PasswordChangedAfter(time.Now().Add(time.Minute)))
	})
}
