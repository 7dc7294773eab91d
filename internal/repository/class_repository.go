package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
)

const classColumns = `c.id, c.school_id, c.name, c.level, c.grade_number, c.section, c.capacity, c.class_teacher_id, c.active, c.created_at, c.updated_at`

// ClassRepository manages classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListActive returns the school's active classes with enrolment counts for the year.
func (r *ClassRepository) ListActive(ctx context.Context, schoolID, academicYearID string) ([]models.ClassListItem, error) {
	query := `SELECT ` + classColumns + `,
        (SELECT COUNT(*) FROM class_enrollments ce WHERE ce.class_id = c.id AND ce.academic_year_id = $2) AS student_count
        FROM classes c WHERE c.school_id = $1 AND c.active = TRUE
        ORDER BY c.level, c.grade_number, c.section, c.name`
	classes := []models.ClassListItem{}
	if err := r.db.SelectContext(ctx, &classes, query, schoolID, academicYearID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByID fetches a class by id.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes c WHERE c.id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// ListByClassTeacher returns active classes where staffID is the class teacher.
func (r *ClassRepository) ListByClassTeacher(ctx context.Context, staffID string) ([]models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes c WHERE c.class_teacher_id = $1 AND c.active = TRUE ORDER BY c.name`
	classes := []models.Class{}
	if err := r.db.SelectContext(ctx, &classes, query, staffID); err != nil {
		return nil, fmt.Errorf("list classes by teacher: %w", err)
	}
	return classes, nil
}

// Create inserts a class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt, class.UpdatedAt = now, now
	const query = `INSERT INTO classes (id, school_id, name, level, grade_number, section, capacity, class_teacher_id, active, created_at, updated_at)
        VALUES (:id, :school_id, :name, :level, :grade_number, :section, :capacity, :class_teacher_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies a class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, level = :level, grade_number = :grade_number, section = :section,
        capacity = :capacity, class_teacher_id = :class_teacher_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}
