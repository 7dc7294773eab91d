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

const classSubjectSelect = `SELECT cs.id, cs.class_id, cs.subject_id, cs.teacher_id, cs.academic_year_id, cs.created_at, cs.updated_at,
        c.school_id, c.name AS class_name, c.level AS class_level, sb.name AS subject_name, sb.code AS subject_code,
        CASE WHEN st.id IS NULL THEN NULL ELSE st.first_name || ' ' || st.last_name END AS teacher_name,
        (SELECT COUNT(*) FROM class_enrollments ce WHERE ce.class_id = cs.class_id AND ce.academic_year_id = cs.academic_year_id) AS student_count
        FROM class_subjects cs
        JOIN classes c ON c.id = cs.class_id
        JOIN subjects sb ON sb.id = cs.subject_id
        LEFT JOIN staff st ON st.id = cs.teacher_id`

// ClassSubjectRepository manages subject assignments per class and year.
type ClassSubjectRepository struct {
	db *sqlx.DB
}

// NewClassSubjectRepository constructs the repository.
func NewClassSubjectRepository(db *sqlx.DB) *ClassSubjectRepository {
	return &ClassSubjectRepository{db: db}
}

// FindByID returns a class subject with names resolved.
func (r *ClassSubjectRepository) FindByID(ctx context.Context, id string) (*models.ClassSubjectDetail, error) {
	var detail models.ClassSubjectDetail
	if err := r.db.GetContext(ctx, &detail, classSubjectSelect+` WHERE cs.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class subject: %w", err)
	}
	return &detail, nil
}

// ListForYear returns the school's class subjects for a year, optionally only those taught by teacherID.
func (r *ClassSubjectRepository) ListForYear(ctx context.Context, schoolID, academicYearID, teacherID string) ([]models.ClassSubjectDetail, error) {
	query := classSubjectSelect + ` WHERE c.school_id = $1 AND cs.academic_year_id = $2`
	args := []interface{}{schoolID, academicYearID}
	if teacherID != "" {
		query += ` AND cs.teacher_id = $3`
		args = append(args, teacherID)
	}
	query += ` ORDER BY c.name, sb.name`
	details := []models.ClassSubjectDetail{}
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return details, nil
}

// ListByClass returns a class's subjects for a year.
func (r *ClassSubjectRepository) ListByClass(ctx context.Context, classID, academicYearID string) ([]models.ClassSubjectDetail, error) {
	details := []models.ClassSubjectDetail{}
	query := classSubjectSelect + ` WHERE cs.class_id = $1 AND cs.academic_year_id = $2 ORDER BY sb.name`
	if err := r.db.SelectContext(ctx, &details, query, classID, academicYearID); err != nil {
		return nil, fmt.Errorf("list class subjects by class: %w", err)
	}
	return details, nil
}

// ListByTeacher returns every class subject a teacher is assigned.
func (r *ClassSubjectRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassSubjectDetail, error) {
	details := []models.ClassSubjectDetail{}
	query := classSubjectSelect + ` WHERE cs.teacher_id = $1 ORDER BY c.name, sb.name`
	if err := r.db.SelectContext(ctx, &details, query, teacherID); err != nil {
		return nil, fmt.Errorf("list class subjects by teacher: %w", err)
	}
	return details, nil
}

// ReplaceForClass swaps the class's assignments for the year in one transaction.
func (r *ClassSubjectRepository) ReplaceForClass(ctx context.Context, classID, academicYearID string, assignments []models.ClassSubject) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM class_subjects WHERE class_id = $1 AND academic_year_id = $2`, classID, academicYearID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear class subjects: %w", err)
	}
	now := time.Now().UTC()
	for i := range assignments {
		if assignments[i].ID == "" {
			assignments[i].ID = uuid.NewString()
		}
		assignments[i].ClassID = classID
		assignments[i].AcademicYearID = academicYearID
		assignments[i].CreatedAt, assignments[i].UpdatedAt = now, now
		const query = `INSERT INTO class_subjects (id, class_id, subject_id, teacher_id, academic_year_id, created_at, updated_at)
                VALUES (:id, :class_id, :subject_id, :teacher_id, :academic_year_id, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, assignments[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert class subject: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit class subjects: %w", err)
	}
	return nil
}
