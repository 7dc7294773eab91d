package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/pkg/grading"
)

const assessmentColumns = `a.id, a.student_id, a.class_subject_id, a.term_id, a.classwork_score, a.homework_score, a.project_score,
        a.exam_score, a.total_score, a.grade, a.grade_remark, a.class_position, a.recorded_by_id, a.created_at, a.updated_at`

const assessmentDetailSelect = `SELECT ` + assessmentColumns + `, sb.id AS subject_id, sb.name AS subject_name, sb.code AS subject_code, cs.class_id
        FROM assessments a
        JOIN class_subjects cs ON cs.id = a.class_subject_id
        JOIN subjects sb ON sb.id = cs.subject_id`

// AssessmentRepository stores subject scores.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// ListForClassSubject returns saved assessments for a class subject in a term.
func (r *AssessmentRepository) ListForClassSubject(ctx context.Context, classSubjectID, termID string) ([]models.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments a WHERE a.class_subject_id = $1 AND a.term_id = $2`
	assessments := []models.Assessment{}
	if err := r.db.SelectContext(ctx, &assessments, query, classSubjectID, termID); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// ListByStudentTerm returns a student's assessments for a term ordered by subject.
func (r *AssessmentRepository) ListByStudentTerm(ctx context.Context, studentID, termID string) ([]models.AssessmentDetail, error) {
	details := []models.AssessmentDetail{}
	query := assessmentDetailSelect + ` WHERE a.student_id = $1 AND a.term_id = $2 ORDER BY sb.name`
	if err := r.db.SelectContext(ctx, &details, query, studentID, termID); err != nil {
		return nil, fmt.Errorf("list student assessments: %w", err)
	}
	return details, nil
}

// ListByClassTerm returns every assessment recorded against a class's subjects in a term.
func (r *AssessmentRepository) ListByClassTerm(ctx context.Context, classID, termID string) ([]models.AssessmentDetail, error) {
	details := []models.AssessmentDetail{}
	query := assessmentDetailSelect + ` WHERE cs.class_id = $1 AND a.term_id = $2 ORDER BY sb.name`
	if err := r.db.SelectContext(ctx, &details, query, classID, termID); err != nil {
		return nil, fmt.Errorf("list class assessments: %w", err)
	}
	return details, nil
}

// ListRecentByStudent returns the newest assessments for a student.
func (r *AssessmentRepository) ListRecentByStudent(ctx context.Context, studentID string, limit int) ([]models.AssessmentDetail, error) {
	if limit <= 0 {
		limit = 5
	}
	details := []models.AssessmentDetail{}
	query := assessmentDetailSelect + ` WHERE a.student_id = $1 ORDER BY a.updated_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &details, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list recent assessments: %w", err)
	}
	return details, nil
}

// SaveBatch upserts the assessments for one class subject and term, then
// recomputes subject positions over every saved total in one transaction.
func (r *AssessmentRepository) SaveBatch(ctx context.Context, classSubjectID, termID string, assessments []models.Assessment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	const upsert = `INSERT INTO assessments (id, student_id, class_subject_id, term_id, classwork_score, homework_score, project_score,
        exam_score, total_score, grade, grade_remark, recorded_by_id, created_at, updated_at)
        VALUES (:id, :student_id, :class_subject_id, :term_id, :classwork_score, :homework_score, :project_score,
        :exam_score, :total_score, :grade, :grade_remark, :recorded_by_id, :created_at, :updated_at)
        ON CONFLICT (student_id, class_subject_id, term_id) DO UPDATE SET
        classwork_score = EXCLUDED.classwork_score, homework_score = EXCLUDED.homework_score,
        project_score = EXCLUDED.project_score, exam_score = EXCLUDED.exam_score, total_score = EXCLUDED.total_score,
        grade = EXCLUDED.grade, grade_remark = EXCLUDED.grade_remark, recorded_by_id = EXCLUDED.recorded_by_id,
        updated_at = EXCLUDED.updated_at`
	for i := range assessments {
		a := &assessments[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.ClassSubjectID = classSubjectID
		a.TermID = termID
		a.CreatedAt, a.UpdatedAt = now, now
		if _, err := tx.NamedExecContext(ctx, upsert, a); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert assessment: %w", err)
		}
	}

	var totals []struct {
		ID    string  `db:"id"`
		Total float64 `db:"total_score"`
	}
	if err := tx.SelectContext(ctx, &totals, `SELECT id, total_score FROM assessments WHERE class_subject_id = $1 AND term_id = $2`, classSubjectID, termID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("load subject totals: %w", err)
	}
	scores := make(map[string]float64, len(totals))
	for _, row := range totals {
		scores[row.ID] = row.Total
	}
	for id, position := range grading.Rank(scores) {
		if _, err := tx.ExecContext(ctx, `UPDATE assessments SET class_position = $2 WHERE id = $1`, id, position); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("update subject position: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assessments: %w", err)
	}
	return nil
}
