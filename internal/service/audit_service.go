package service

import (
	"context"
	"log/slog"
	"time"

	"tour-booking-api/internal/model"
	"tour-booking-api/internal/query"
)

// AuditRecorder is what the auth flows need from the audit trail: a best-
// effort, non-blocking record of a security-relevant event.
type AuditRecorder interface {
	Record(actor string, action string, detail string)
}

type AuditStore interface {
	Insert(ctx context.Context, entry model.AuditEntry) error
	Find(ctx context.Context, spec *query.Spec) ([]model.AuditEntry, error)
}

type AuditService struct {
	store AuditStore
}

func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store}
}

// Record writes the entry on its own goroutine so a slow audit insert never
// delays the request that triggered it. Failures are logged, not surfaced.
func (s *AuditService) Record(actor string, action string, detail string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.store.Insert(ctx, model.AuditEntry{Actor: actor, Action: action, Detail: detail}); err != nil {
			slog.Error("audit record failed", "action", action, "actor", actor, "error", err)
		}
	}()
}

func (s *AuditService) List(ctx context.Context, spec *query.Spec) ([]model.AuditEntry, error) {
	return s.store.Find(ctx, spec)
}
