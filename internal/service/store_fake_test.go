package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"tour-booking-api/internal/model"
)

// fakeUserStore is an in-memory credential store with the same contract the
// repository implements, including last-write-wins reset-token handling.
type fakeUserStore struct {
	users map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}}
}

func (f *fakeUserStore) add(u *model.User) *model.User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Active = true
	f.users[u.ID] = u
	return u
}

func (f *fakeUserStore) LoadByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok || !u.Active {
		return nil, model.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserStore) LoadByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Active && strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeUserStore) LoadByResetTokenHash(_ context.Context, tokenHash string) (*model.User, error) {
	for _, u := range f.users {
		if !u.Active || u.PasswordResetToken == nil || *u.PasswordResetToken != tokenHash {
			continue
		}
		if u.PasswordResetExpires == nil || !u.PasswordResetExpires.After(time.Now()) {
			continue
		}
		clone := *u
		return &clone, nil
	}
	return nil, model.ErrResetTokenInvalid
}

func (f *fakeUserStore) Create(_ context.Context, u *model.User) (*model.User, error) {
	now := time.Now().UTC()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = now
	u.UpdatedAt = now
	created := f.add(u)
	clone := *created
	return &clone, nil
}

func (f *fakeUserStore) SetResetToken(_ context.Context, userID string, tokenHash string, expires time.Time) error {
	u, ok := f.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	u.PasswordResetToken = &tokenHash
	u.PasswordResetExpires = &expires
	return nil
}

func (f *fakeUserStore) ClearResetToken(_ context.Context, userID string) error {
	if u, ok := f.users[userID]; ok {
		u.PasswordResetToken = nil
		u.PasswordResetExpires = nil
	}
	return nil
}

func (f *fakeUserStore) ResetPassword(_ context.Context, userID string, tokenHash string, passwordHash string, changedAt time.Time) error {
	u, ok := f.users[userID]
	if !ok || u.PasswordResetToken == nil || *u.PasswordResetToken != tokenHash {
		return model.ErrResetTokenInvalid
	}
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &changedAt
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, userID string, passwordHash string, changedAt time.Time) error {
	u, ok := f.users[userID]
	if !ok || !u.Active {
		return model.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &changedAt
	return nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, userID string, req model.UpdateMeRequest) (*model.User, error) {
	u, ok := f.users[userID]
	if !ok || !u.Active {
		return nil, model.ErrNotFound
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = strings.ToLower(*req.Email)
	}
	if req.Photo != nil {
		u.Photo = *req.Photo
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserStore) Deactivate(_ context.Context, userID string) error {
	u, ok := f.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	u.Active = false
	return nil
}

type noopAudit struct{}

func (noopAudit) Record(string, string, string) {}

type fakeMailer struct {
	sent []string
	fail bool
}

func (m *fakeMailer) Send(_ context.Context, to string, _ string, _ string) error {
	if m.fail {
		return errors.New("smtp relay unavailable")
	}
	m.sent = append(m.sent, to)
	return nil
}
