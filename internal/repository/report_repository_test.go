package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
)

func TestReportRepositorySaveBatchAssignsCompetitionPositions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	for i := 0; i < 3; i++ {
		mock.ExpectExec("ON CONFLICT \\(student_id, term_id\\)").WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	reports := []models.TerminalReport{
		{StudentID: "stu-1", AverageScore: 70},
		{StudentID: "stu-2", AverageScore: 85},
		{StudentID: "stu-3", AverageScore: 70},
	}
	require.NoError(t, repo.SaveBatch(context.Background(), reports))
	assert.Equal(t, 2, *reports[0].ClassPosition)
	assert.Equal(t, 1, *reports[1].ClassPosition)
	assert.Equal(t, 2, *reports[2].ClassPosition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryPublish(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	at := time.Date(2025, 12, 12, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE terminal_reports tr SET is_published = TRUE")).
		WithArgs("class-1", "term-1", at).
		WillReturnResult(sqlmock.NewResult(0, 28))

	count, err := repo.Publish(context.Background(), "class-1", "term-1", at)
	require.NoError(t, err)
	assert.Equal(t, 28, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCountUnpublished(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("tr.is_published = FALSE")).
		WithArgs("school-1", "term-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountUnpublished(context.Background(), "school-1", "term-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
