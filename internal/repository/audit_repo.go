package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"tour-booking-api/internal/model"
	"tour-booking-api/internal/query"
)

var auditColumns = []string{"id", "actor", "action", "detail", "created_at"}

var AuditQuery = query.Options{
	Filterable: map[string]bool{
		"actor": true, "action": true, "created_at": true,
	},
	Columns: auditColumns,
}

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, entry model.AuditEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_entries (actor, action, detail) VALUES ($1, $2, $3)`,
		entry.Actor, entry.Action, entry.Detail)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) Find(ctx context.Context, spec *query.Spec) ([]model.AuditEntry, error) {
	cols := spec.Columns()
	where, args := spec.Where(nil, 1)

	sql := "SELECT " + strings.Join(cols, ", ") + " FROM audit_entries" +
		where + spec.OrderBy() + spec.LimitOffset()

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		dests, err := scanTargets(map[string]any{
			"id": &e.ID, "actor": &e.Actor, "action": &e.Action,
			"detail": &e.Detail, "created_at": &e.CreatedAt,
		}, cols)
		if err != nil {
			return nil, err
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
