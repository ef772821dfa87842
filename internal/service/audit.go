package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"cafehub/internal/model"
)

type AuditService struct {
	db *sql.DB
}

func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes one audit row. Auditing is best-effort: a failed write
// is logged and never fails the operation it describes.
func (s *AuditService) Record(ctx context.Context, actor, action, entity, entityID, detail string) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (actor, action, entity, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5)
	`, actor, action, entity, entityID, detail)
	if err != nil {
		slog.Error("audit write failed", "action", action, "entity", entity, "error", err)
	}
}

func (s *AuditService) List(ctx context.Context, limit int) ([]model.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, action, entity, entity_id, detail, created_at
		FROM audit_logs ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []model.AuditLog
	for rows.Next() {
		var l model.AuditLog
		if err := rows.Scan(&l.ID, &l.Actor, &l.Action, &l.Entity, &l.EntityID, &l.Detail, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return logs, nil
}
