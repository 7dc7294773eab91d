package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
)

// SubjectRepository manages subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListActive returns the school's active subjects by name.
func (r *SubjectRepository) ListActive(ctx context.Context, schoolID string) ([]models.Subject, error) {
	const query = `SELECT id, school_id, department_id, name, code, is_core, active, created_at, updated_at
        FROM subjects WHERE school_id = $1 AND active = TRUE ORDER BY name`
	subjects := []models.Subject{}
	if err := r.db.SelectContext(ctx, &subjects, query, schoolID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// Create inserts a subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	subject.CreatedAt, subject.UpdatedAt = now, now
	const query = `INSERT INTO subjects (id, school_id, department_id, name, code, is_core, active, created_at, updated_at)
        VALUES (:id, :school_id, :department_id, :name, :code, :is_core, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}
