package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tour-booking-api/internal/model"
)

// UserStore is the credential store adapter: the narrow slice of persistence
// the auth core needs for user records.
type UserStore interface {
	LoadByID(ctx context.Context, id string) (*model.User, error)
	LoadByEmail(ctx context.Context, email string) (*model.User, error)
	LoadByResetTokenHash(ctx context.Context, tokenHash string) (*model.User, error)
	Create(ctx context.Context, u *model.User) (*model.User, error)
	SetResetToken(ctx context.Context, userID string, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, userID string) error
	ResetPassword(ctx context.Context, userID string, tokenHash string, passwordHash string, changedAt time.Time) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string, changedAt time.Time) error
	UpdateProfile(ctx context.Context, userID string, req model.UpdateMeRequest) (*model.User, error)
	Deactivate(ctx context.Context, userID string) error
}

// PasswordService owns hashing and the reset-token lifecycle.
type PasswordService struct {
	cost     int
	resetTTL time.Duration
	users    UserStore
}

func NewPasswordService(cost int, resetTTL time.Duration, users UserStore) *PasswordService {
	return &PasswordService{cost: cost, resetTTL: resetTTL, users: users}
}

func (s *PasswordService) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *PasswordService) Verify(plaintext string, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// CreateResetToken issues a fresh high-entropy reset token for the user,
// persisting only its hash plus a short expiry. Any prior token for the user
// is overwritten. The plaintext is returned for out-of-band delivery.
func (s *PasswordService) CreateResetToken(ctx context.Context, user *model.User) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	plaintext := hex.EncodeToString(buf)

	expires := time.Now().UTC().Add(s.resetTTL)
	if err := s.users.SetResetToken(ctx, user.ID, HashResetToken(plaintext), expires); err != nil {
		return "", err
	}
	return plaintext, nil
}

// ConsumeResetToken exchanges a valid reset token for a password change. The
// token fields are cleared in the same update that stores the new hash, so
// each token is single-use.
func (s *PasswordService) ConsumeResetToken(ctx context.Context, plaintext string, newPassword string) (*model.User, error) {
	tokenHash := HashResetToken(plaintext)

	user, err := s.users.LoadByResetTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	newHash, err := s.Hash(newPassword)
	if err != nil {
		return nil, err
	}

	changedAt := markPasswordChanged()
	if err := s.users.ResetPassword(ctx, user.ID, tokenHash, newHash, changedAt); err != nil {
		return nil, err
	}

	user.PasswordHash = newHash
	user.PasswordChangedAt = &changedAt
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	return user, nil
}

func (s *PasswordService) ClearResetToken(ctx context.Context, userID string) error {
	return s.users.ClearResetToken(ctx, userID)
}

// HashResetToken is the one-way transform applied before a reset token ever
// touches storage. sha256 is enough here: the input is 256 bits of entropy,
// not a human password.
func HashResetToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// markPasswordChanged backdates the change stamp by one second so a session
// token issued within the same second as the change still fails the strict
// issued-before-change comparison.
func markPasswordChanged() time.Time {
	return time.Now().UTC().Add(-time.Second)
}
