package service

import (
	"context"
	"errors"
	"fmt"

	"tour-booking-api/internal/mailer"
	"tour-booking-api/internal/model"
	"tour-booking-api/pkg/apierror"
)

// AuthService composes the token and password services with the credential
// store to implement the account lifecycle.
type AuthService struct {
	tokens    *TokenService
	passwords *PasswordService
	users     UserStore
	mail      mailer.Mailer
	audit     AuditRecorder
	baseURL   string
}

func NewAuthService(
	tokens *TokenService,
	passwords *PasswordService,
	users UserStore,
	mail mailer.Mailer,
	audit AuditRecorder,
	baseURL string,
) *AuthService {
	return &AuthService{
		tokens:    tokens,
		passwords: passwords,
		users:     users,
		mail:      mail,
		audit:     audit,
		baseURL:   baseURL,
	}
}

// Signup creates an account and logs it in. The role is always "user"; any
// elevation happens through the admin surface.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (*model.User, string, error) {
	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.Create(ctx, &model.User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         model.RoleUser,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.audit.Record(user.Email, model.AuditSignup, "")
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (*model.User, string, error) {
	user, err := s.users.LoadByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		s.audit.Record(email, model.AuditLoginFailed, "unknown email")
		return nil, "", apierror.New("Incorrect email or password", 401)
	}
	if err != nil {
		return nil, "", err
	}

	if !s.passwords.Verify(password, user.PasswordHash) {
		s.audit.Record(email, model.AuditLoginFailed, "wrong password")
		return nil, "", apierror.New("Incorrect email or password", 401)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.audit.Record(user.Email, model.AuditLogin, "")
	return user, token, nil
}

// ForgotPassword issues a reset token and mails the reset link. If the mail
// cannot be sent the token is withdrawn again so no orphaned token survives.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.LoadByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return apierror.New("There is no user with that email address", 404)
	}
	if err != nil {
		return err
	}

	plaintext, err := s.passwords.CreateResetToken(ctx, user)
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/api/v1/users/resetPassword/%s", s.baseURL, plaintext)
	body := fmt.Sprintf(
		"Forgot your password? Submit a PATCH request with your new password to: %s\n"+
			"If you didn't forget your password, please ignore this email.", resetURL)

	if err := s.mail.Send(ctx, user.Email, "Your password reset token (valid for 10 min)", body); err != nil {
		if clearErr := s.passwords.ClearResetToken(ctx, user.ID); clearErr != nil {
			err = errors.Join(err, clearErr)
		}
		return fmt.Errorf("send reset email: %w", err)
	}

	s.audit.Record(user.Email, model.AuditPasswordResetReq, "")
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, plaintext string, newPassword string) (*model.User, string, error) {
	user, err := s.passwords.ConsumeResetToken(ctx, plaintext, newPassword)
	if errors.Is(err, model.ErrResetTokenInvalid) {
		return nil, "", apierror.New("Token is invalid or has expired", 400)
	}
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.audit.Record(user.Email, model.AuditPasswordReset, "")
	return user, token, nil
}

// UpdatePassword changes an authenticated user's password after verifying
// the current one, then issues a fresh token because the change revokes every
// outstanding one.
func (s *AuthService) UpdatePassword(ctx context.Context, user *model.User, currentPassword string, newPassword string) (*model.User, string, error) {
	if !s.passwords.Verify(currentPassword, user.PasswordHash) {
		return nil, "", apierror.New("Your current password is wrong", 401)
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return nil, "", err
	}

	changedAt := markPasswordChanged()
	if err := s.users.UpdatePassword(ctx, user.ID, hash, changedAt); err != nil {
		return nil, "", err
	}
	user.PasswordHash = hash
	user.PasswordChangedAt = &changedAt

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.audit.Record(user.Email, model.AuditPasswordChanged, "")
	return user, token, nil
}
