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

const termColumns = `t.id, t.academic_year_id, t.name, t.term_number, t.start_date, t.end_date, t.is_current, ay.name AS academic_year_name, t.created_at, t.updated_at`

// TermRepository handles schools, academic years and terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// FindSchool returns a school by id.
func (r *TermRepository) FindSchool(ctx context.Context, id string) (*models.School, error) {
	const query = `SELECT id, code, name, motto, address, phone, email, active, created_at, updated_at FROM schools WHERE id = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find school: %w", err)
	}
	return &school, nil
}

// CountSchools returns the number of schools.
func (r *TermRepository) CountSchools(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM schools`); err != nil {
		return 0, fmt.Errorf("count schools: %w", err)
	}
	return total, nil
}

// CreateSchool inserts a school.
func (r *TermRepository) CreateSchool(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	school.CreatedAt, school.UpdatedAt = now, now
	const query = `INSERT INTO schools (id, code, name, motto, address, phone, email, active, created_at, updated_at)
        VALUES (:id, :code, :name, :motto, :address, :phone, :email, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("create school: %w", err)
	}
	return nil
}

// CurrentYear returns the school's current academic year.
func (r *TermRepository) CurrentYear(ctx context.Context, schoolID string) (*models.AcademicYear, error) {
	const query = `SELECT id, school_id, name, start_date, end_date, is_current, created_at, updated_at
        FROM academic_years WHERE school_id = $1 AND is_current = TRUE ORDER BY start_date DESC LIMIT 1`
	var year models.AcademicYear
	if err := r.db.GetContext(ctx, &year, query, schoolID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("current academic year: %w", err)
	}
	return &year, nil
}

// CurrentTerm returns the current term of an academic year.
func (r *TermRepository) CurrentTerm(ctx context.Context, academicYearID string) (*models.Term, error) {
	query := `SELECT ` + termColumns + `
        FROM terms t JOIN academic_years ay ON ay.id = t.academic_year_id
        WHERE t.academic_year_id = $1 AND t.is_current = TRUE ORDER BY t.term_number LIMIT 1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, academicYearID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("current term: %w", err)
	}
	return &term, nil
}

// FindTerm returns a term belonging to the school.
func (r *TermRepository) FindTerm(ctx context.Context, schoolID, termID string) (*models.Term, error) {
	query := `SELECT ` + termColumns + `
        FROM terms t JOIN academic_years ay ON ay.id = t.academic_year_id
        WHERE t.id = $1 AND ay.school_id = $2`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, termID, schoolID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find term: %w", err)
	}
	return &term, nil
}

// CreateYear inserts an academic year.
func (r *TermRepository) CreateYear(ctx context.Context, year *models.AcademicYear) error {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	year.CreatedAt, year.UpdatedAt = now, now
	const query = `INSERT INTO academic_years (id, school_id, name, start_date, end_date, is_current, created_at, updated_at)
        VALUES (:id, :school_id, :name, :start_date, :end_date, :is_current, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("create academic year: %w", err)
	}
	return nil
}

// CreateTerm inserts a term.
func (r *TermRepository) CreateTerm(ctx context.Context, term *models.Term) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	term.CreatedAt, term.UpdatedAt = now, now
	const query = `INSERT INTO terms (id, academic_year_id, name, term_number, start_date, end_date, is_current, created_at, updated_at)
        VALUES (:id, :academic_year_id, :name, :term_number, :start_date, :end_date, :is_current, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("create term: %w", err)
	}
	return nil
}
