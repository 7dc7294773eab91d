package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
)

func TestAssessmentRepositorySaveBatchRecomputesPositions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("ON CONFLICT \\(student_id, class_subject_id, term_id\\)").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, total_score FROM assessments WHERE class_subject_id = $1 AND term_id = $2")).
		WithArgs("cs-1", "term-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "total_score"}).AddRow("a-1", 80.0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assessments SET class_position = $2 WHERE id = $1")).
		WithArgs("a-1", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	batch := []models.Assessment{{StudentID: "stu-1", TotalScore: 80}}
	require.NoError(t, repo.SaveBatch(context.Background(), "cs-1", "term-1", batch))
	assert.Equal(t, "cs-1", batch[0].ClassSubjectID)
	assert.Equal(t, "term-1", batch[0].TermID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepositorySaveBatchRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assessments").WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := repo.SaveBatch(context.Background(), "cs-1", "term-1", []models.Assessment{{StudentID: "stu-1"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepositoryListByStudentTerm(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	columns := []string{"id", "student_id", "class_subject_id", "term_id", "classwork_score", "homework_score", "project_score",
		"exam_score", "total_score", "grade", "grade_remark", "class_position", "recorded_by_id", "created_at", "updated_at",
		"subject_id", "subject_name", "subject_code", "class_id"}
	now := time.Now()
	rows := sqlmock.NewRows(columns).
		AddRow("a-1", "stu-1", "cs-1", "term-1", 20.0, 8.0, 7.0, 40.0, 75.0, "2", "Very Good", 3, nil, now, now, "sub-1", "English", nil, "class-1")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.student_id = $1 AND a.term_id = $2")).
		WithArgs("stu-1", "term-1").
		WillReturnRows(rows)

	details, err := repo.ListByStudentTerm(context.Background(), "stu-1", "term-1")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "English", details[0].SubjectName)
	require.NotNil(t, details[0].ClassPosition)
	assert.Equal(t, 3, *details[0].ClassPosition)
	assert.NoError(t, mock.ExpectationsWereMet())
}
