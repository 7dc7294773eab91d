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

const enrollmentColumns = `ce.id, ce.student_id, ce.class_id, ce.academic_year_id, ce.enrollment_date,
        c.name AS class_name, c.level AS class_level, ay.name AS academic_year_name, ce.created_at, ce.updated_at`

// EnrollmentRepository handles class placement per academic year.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindCurrent returns the student's enrolment for an academic year.
func (r *EnrollmentRepository) FindCurrent(ctx context.Context, studentID, academicYearID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + `
        FROM class_enrollments ce
        JOIN classes c ON c.id = ce.class_id
        JOIN academic_years ay ON ay.id = ce.academic_year_id
        WHERE ce.student_id = $1 AND ce.academic_year_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, academicYearID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// FindByID returns an enrolment by id.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + `
        FROM class_enrollments ce
        JOIN classes c ON c.id = ce.class_id
        JOIN academic_years ay ON ay.id = ce.academic_year_id
        WHERE ce.id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// ListByStudent returns the enrolment history, newest year first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + `
        FROM class_enrollments ce
        JOIN classes c ON c.id = ce.class_id
        JOIN academic_years ay ON ay.id = ce.academic_year_id
        WHERE ce.student_id = $1 ORDER BY ay.start_date DESC`
	enrollments := []models.Enrollment{}
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// Roster returns the students enrolled in a class for a year ordered by last then first name.
func (r *EnrollmentRepository) Roster(ctx context.Context, classID, academicYearID string) ([]models.EnrolledStudent, error) {
	const query = `SELECT ce.id AS enrollment_id, s.id AS student_id, s.student_number, s.first_name, s.last_name, s.other_names, s.gender
        FROM class_enrollments ce
        JOIN students s ON s.id = ce.student_id
        WHERE ce.class_id = $1 AND ce.academic_year_id = $2
        ORDER BY s.last_name, s.first_name`
	roster := []models.EnrolledStudent{}
	if err := r.db.SelectContext(ctx, &roster, query, classID, academicYearID); err != nil {
		return nil, fmt.Errorf("class roster: %w", err)
	}
	return roster, nil
}

// CountByClasses returns how many students are enrolled across classIDs for a year.
func (r *EnrollmentRepository) CountByClasses(ctx context.Context, classIDs []string, academicYearID string) (int, error) {
	if len(classIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM class_enrollments WHERE academic_year_id = ? AND class_id IN (?)`, academicYearID, classIDs)
	if err != nil {
		return 0, fmt.Errorf("build enrollment count: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return total, nil
}

// Upsert places the student in a class for the year, moving any existing enrolment.
func (r *EnrollmentRepository) Upsert(ctx context.Context, enrollment *models.Enrollment) error {
	return upsertEnrollment(ctx, r.db, enrollment)
}

func upsertEnrollment(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = now
	}
	enrollment.CreatedAt, enrollment.UpdatedAt = now, now
	const query = `INSERT INTO class_enrollments (id, student_id, class_id, academic_year_id, enrollment_date, created_at, updated_at)
        VALUES (:id, :student_id, :class_id, :academic_year_id, :enrollment_date, :created_at, :updated_at)
        ON CONFLICT (student_id, academic_year_id)
        DO UPDATE SET class_id = EXCLUDED.class_id, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, enrollment); err != nil {
		return fmt.Errorf("upsert enrollment: %w", err)
	}
	return nil
}
