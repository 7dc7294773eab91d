package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
)

const attendanceColumns = `id, student_id, class_id, date, status, remarks, recorded_by_id, created_at, updated_at`

// AttendanceRepository stores the daily register.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Summary totals a student's register between from and to inclusive. Late counts as present.
func (r *AttendanceRepository) Summary(ctx context.Context, studentID string, from, to time.Time) (models.AttendanceSummary, error) {
	const query = `SELECT COUNT(*) AS total_days,
        COUNT(*) FILTER (WHERE status IN ('present', 'late')) AS days_present,
        COUNT(*) FILTER (WHERE status = 'absent') AS days_absent
        FROM attendance WHERE student_id = $1 AND date BETWEEN $2 AND $3`
	var summary models.AttendanceSummary
	if err := r.db.GetContext(ctx, &summary, query, studentID, from, to); err != nil {
		return summary, fmt.Errorf("attendance summary: %w", err)
	}
	return summary, nil
}

// DayCounts returns how many marks for the school on date were present, out of all marks that day.
func (r *AttendanceRepository) DayCounts(ctx context.Context, schoolID string, date time.Time) (present, total int, err error) {
	const query = `SELECT COUNT(*) FILTER (WHERE a.status = 'present') AS present, COUNT(*) AS total
        FROM attendance a JOIN students s ON s.id = a.student_id
        WHERE s.school_id = $1 AND a.date = $2`
	var row struct {
		Present int `db:"present"`
		Total   int `db:"total"`
	}
	if err := r.db.GetContext(ctx, &row, query, schoolID, date); err != nil {
		return 0, 0, fmt.Errorf("attendance day counts: %w", err)
	}
	return row.Present, row.Total, nil
}

// ListRecentByStudent returns the latest register entries for a student.
func (r *AttendanceRepository) ListRecentByStudent(ctx context.Context, studentID string, limit int) ([]models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE student_id = $1 ORDER BY date DESC LIMIT $2`
	records := []models.Attendance{}
	if err := r.db.SelectContext(ctx, &records, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// ListByClassDate returns the marks recorded for a class on date.
func (r *AttendanceRepository) ListByClassDate(ctx context.Context, classID string, date time.Time) ([]models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE class_id = $1 AND date = $2`
	records := []models.Attendance{}
	if err := r.db.SelectContext(ctx, &records, query, classID, date); err != nil {
		return nil, fmt.Errorf("list class attendance: %w", err)
	}
	return records, nil
}

// SaveRegister upserts a day's marks, one per student and date.
func (r *AttendanceRepository) SaveRegister(ctx context.Context, records []models.Attendance) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	const query = `INSERT INTO attendance (id, student_id, class_id, date, status, remarks, recorded_by_id, created_at, updated_at)
        VALUES (:id, :student_id, :class_id, :date, :status, :remarks, :recorded_by_id, :created_at, :updated_at)
        ON CONFLICT (student_id, date) DO UPDATE SET class_id = EXCLUDED.class_id, status = EXCLUDED.status,
        remarks = EXCLUDED.remarks, recorded_by_id = EXCLUDED.recorded_by_id, updated_at = EXCLUDED.updated_at`
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		records[i].CreatedAt, records[i].UpdatedAt = now, now
		if _, err := tx.NamedExecContext(ctx, query, records[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("save attendance: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance: %w", err)
	}
	return nil
}
