package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/pkg/grading"
)

const reportColumns = `tr.id, tr.student_id, tr.term_id, tr.class_enrollment_id, tr.total_marks, tr.average_score, tr.class_position,
        tr.class_size, tr.total_days, tr.days_present, tr.days_absent, tr.class_teacher_remarks, tr.headteacher_remarks,
        tr.next_term_begins, tr.is_published, tr.published_at, tr.created_at, tr.updated_at`

// ReportRepository stores terminal reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ClassSummaries returns each active class with its enrolment and generated report counts.
func (r *ReportRepository) ClassSummaries(ctx context.Context, schoolID, academicYearID, termID string) ([]models.ClassSummary, error) {
	const query = `SELECT c.id AS class_id, c.name AS class_name, c.level,
        (SELECT COUNT(*) FROM class_enrollments ce WHERE ce.class_id = c.id AND ce.academic_year_id = $2) AS enrolled_count,
        (SELECT COUNT(*) FROM terminal_reports tr JOIN class_enrollments ce ON ce.id = tr.class_enrollment_id
            WHERE ce.class_id = c.id AND tr.term_id = $3) AS report_count
        FROM classes c WHERE c.school_id = $1 AND c.active = TRUE
        ORDER BY c.level, c.grade_number, c.section, c.name`
	summaries := []models.ClassSummary{}
	if err := r.db.SelectContext(ctx, &summaries, query, schoolID, academicYearID, termID); err != nil {
		return nil, fmt.Errorf("class report summaries: %w", err)
	}
	return summaries, nil
}

// SaveBatch upserts reports for a class and assigns overall positions by average.
// Remarks and publication state of existing reports are left untouched.
func (r *ReportRepository) SaveBatch(ctx context.Context, reports []models.TerminalReport) error {
	positions := make(map[string]float64, len(reports))
	for _, report := range reports {
		positions[report.StudentID] = report.AverageScore
	}
	ranks := grading.Rank(positions)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	const upsert = `INSERT INTO terminal_reports (id, student_id, term_id, class_enrollment_id, total_marks, average_score, class_position,
        class_size, total_days, days_present, days_absent, next_term_begins, is_published, created_at, updated_at)
        VALUES (:id, :student_id, :term_id, :class_enrollment_id, :total_marks, :average_score, :class_position,
        :class_size, :total_days, :days_present, :days_absent, :next_term_begins, :is_published, :created_at, :updated_at)
        ON CONFLICT (student_id, term_id) DO UPDATE SET
        class_enrollment_id = EXCLUDED.class_enrollment_id, total_marks = EXCLUDED.total_marks,
        average_score = EXCLUDED.average_score, class_position = EXCLUDED.class_position, class_size = EXCLUDED.class_size,
        total_days = EXCLUDED.total_days, days_present = EXCLUDED.days_present, days_absent = EXCLUDED.days_absent,
        next_term_begins = EXCLUDED.next_term_begins, updated_at = EXCLUDED.updated_at`
	for i := range reports {
		report := &reports[i]
		if report.ID == "" {
			report.ID = uuid.NewString()
		}
		position := ranks[report.StudentID]
		report.ClassPosition = &position
		report.CreatedAt, report.UpdatedAt = now, now
		if _, err := tx.NamedExecContext(ctx, upsert, report); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert terminal report: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit terminal reports: %w", err)
	}
	return nil
}

// Publish marks every report of the class for the term as published and returns how many rows changed.
func (r *ReportRepository) Publish(ctx context.Context, classID, termID string, at time.Time) (int, error) {
	const query = `UPDATE terminal_reports tr SET is_published = TRUE, published_at = $3, updated_at = $3
        FROM class_enrollments ce
        WHERE ce.id = tr.class_enrollment_id AND ce.class_id = $1 AND tr.term_id = $2`
	res, err := r.db.ExecContext(ctx, query, classID, termID, at)
	if err != nil {
		return 0, fmt.Errorf("publish reports: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("publish reports: %w", err)
	}
	return int(affected), nil
}

// FindByStudentTerm fetches a student's report for a term.
func (r *ReportRepository) FindByStudentTerm(ctx context.Context, studentID, termID string) (*models.TerminalReport, error) {
	query := `SELECT ` + reportColumns + ` FROM terminal_reports tr WHERE tr.student_id = $1 AND tr.term_id = $2`
	var report models.TerminalReport
	if err := r.db.GetContext(ctx, &report, query, studentID, termID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find terminal report: %w", err)
	}
	return &report, nil
}

// ListPublishedByStudent returns published reports newest term first.
func (r *ReportRepository) ListPublishedByStudent(ctx context.Context, studentID string) ([]models.TerminalReportSummary, error) {
	query := `SELECT ` + reportColumns + `, t.name AS term_name, t.start_date AS term_start_date,
        ay.name AS academic_year_name, c.name AS class_name
        FROM terminal_reports tr
        JOIN terms t ON t.id = tr.term_id
        JOIN academic_years ay ON ay.id = t.academic_year_id
        JOIN class_enrollments ce ON ce.id = tr.class_enrollment_id
        JOIN classes c ON c.id = ce.class_id
        WHERE tr.student_id = $1 AND tr.is_published = TRUE
        ORDER BY t.start_date DESC`
	reports := []models.TerminalReportSummary{}
	if err := r.db.SelectContext(ctx, &reports, query, studentID); err != nil {
		return nil, fmt.Errorf("list published reports: %w", err)
	}
	return reports, nil
}

// CountUnpublished counts the school's reports for a term still awaiting publication.
func (r *ReportRepository) CountUnpublished(ctx context.Context, schoolID, termID string) (int, error) {
	const query = `SELECT COUNT(*) FROM terminal_reports tr JOIN students s ON s.id = tr.student_id
        WHERE s.school_id = $1 AND tr.term_id = $2 AND tr.is_published = FALSE`
	var total int
	if err := r.db.GetContext(ctx, &total, query, schoolID, termID); err != nil {
		return 0, fmt.Errorf("count unpublished reports: %w", err)
	}
	return total, nil
}
