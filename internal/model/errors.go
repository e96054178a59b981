package model

import "errors"

var (
	// Session token errors. Callers branch on which, so they stay distinct.
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")

	// ErrResetTokenInvalid covers both an unknown and an expired reset token;
	// the two cases are deliberately indistinguishable to the client.
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")

	ErrNotFound = errors.New("not found")
)
