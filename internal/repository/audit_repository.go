package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
)

// AuditRepository stores the audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create stores an audit log entry.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, school_id, user_id, action, entity_type, entity_id, old_values, new_values, ip_address, user_agent, created_at)
        VALUES (:id, :school_id, :user_id, :action, :entity_type, :entity_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries for a school.
func (r *AuditRepository) ListRecent(ctx context.Context, schoolID string, limit int) ([]models.AuditLog, error) {
	const query = `SELECT id, school_id, user_id, action, entity_type, entity_id, old_values, new_values,
        COALESCE(ip_address, '') AS ip_address, COALESCE(user_agent, '') AS user_agent, created_at
        FROM audit_logs WHERE school_id = $1 ORDER BY created_at DESC LIMIT $2`
	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, schoolID, limit); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
