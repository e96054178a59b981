package model

import "time"

// Audit actions recorded for the security trail.
const (
	AuditLogin              = "login"
	AuditLoginFailed        = "login_failed"
	AuditSignup             = "signup"
	AuditPasswordResetReq   = "password_reset_requested"
	AuditPasswordReset      = "password_reset"
	AuditPasswordChanged    = "password_changed"
	AuditAccountDeactivated = "account_deactivated"
)

type AuditEntry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
