package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
)

const studentColumns = `s.id, s.school_id, s.parent_id, s.student_number, s.first_name, s.last_name, s.other_names, s.gender,
        s.date_of_birth, s.nationality, s.religion, s.admission_date, s.status, s.created_at, s.updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters with their class for the filter's academic year.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentListItem, int, error) {
	base := `FROM students s
        LEFT JOIN class_enrollments ce ON ce.student_id = s.id AND ce.academic_year_id = $1
        LEFT JOIN classes c ON c.id = ce.class_id`
	args := []interface{}{filter.AcademicYearID, filter.SchoolID}
	conditions := []string{"s.school_id = $2"}

	if filter.Status != "" && filter.Status != "all" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("ce.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(s.first_name ILIKE $%d OR s.last_name ILIKE $%d OR s.student_number ILIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.TrimSpace(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))
	limit, offset := models.PageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s, ce.class_id, c.name AS class_name
        %s ORDER BY s.last_name, s.first_name LIMIT %d OFFSET %d`, studentColumns, base, limit, offset)

	var students []models.StudentListItem
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// Search performs the autocomplete lookup over names and student numbers.
func (r *StudentRepository) Search(ctx context.Context, schoolID, academicYearID, q string, limit int) ([]models.StudentSearchResult, error) {
	query := fmt.Sprintf(`SELECT s.id, s.student_number, s.first_name || ' ' || s.last_name AS name, COALESCE(c.name, 'Not Enrolled') AS class_name
        FROM students s
        LEFT JOIN class_enrollments ce ON ce.student_id = s.id AND ce.academic_year_id = $2
        LEFT JOIN classes c ON c.id = ce.class_id
        WHERE s.school_id = $1 AND (s.first_name ILIKE $3 OR s.last_name ILIKE $3 OR s.student_number ILIKE $3)
        ORDER BY s.last_name, s.first_name LIMIT %d`, limit)
	results := []models.StudentSearchResult{}
	if err := r.db.SelectContext(ctx, &results, query, schoolID, academicYearID, "%"+q+"%"); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return results, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students s WHERE s.id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ListByParent returns a family's children.
func (r *StudentRepository) ListByParent(ctx context.Context, parentID string) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students s WHERE s.parent_id = $1 ORDER BY s.first_name`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, parentID); err != nil {
		return nil, fmt.Errorf("list students by parent: %w", err)
	}
	return students, nil
}

// CountBySchool returns how many students a school has ever registered.
func (r *StudentRepository) CountBySchool(ctx context.Context, schoolID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students WHERE school_id = $1`, schoolID); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// CreateAdmission inserts the parent, the student and an optional enrolment in one transaction.
func (r *StudentRepository) CreateAdmission(ctx context.Context, parent *models.Parent, student *models.Student, enrollment *models.Enrollment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if parent != nil {
		if err := NewParentRepository(r.db).CreateTx(ctx, tx, parent); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
		student.ParentID = &parent.ID
	}
	if err := r.create(ctx, tx, student); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if enrollment != nil {
		enrollment.StudentID = student.ID
		if err := upsertEnrollment(ctx, tx, enrollment); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit admission: %w", err)
	}
	return nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.create(ctx, r.db, student)
}

func (r *StudentRepository) create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, school_id, parent_id, student_number, first_name, last_name, other_names, gender,
        date_of_birth, nationality, religion, admission_date, status, created_at, updated_at)
        VALUES (:id, :school_id, :parent_id, :student_number, :first_name, :last_name, :other_names, :gender,
        :date_of_birth, :nationality, :religion, :admission_date, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, other_names = :other_names, gender = :gender,
        date_of_birth = :date_of_birth, nationality = :nationality, religion = :religion, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// UpdateStatus sets the student's status.
func (r *StudentRepository) UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error {
	const query = `UPDATE students SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student status: %w", err)
	}
	return nil
}
