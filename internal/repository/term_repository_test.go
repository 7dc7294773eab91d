package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermRepositoryCurrentTerm(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	start := time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 19, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "academic_year_id", "name", "term_number", "start_date", "end_date", "is_current", "academic_year_name", "created_at", "updated_at"}).
		AddRow("term-1", "year-1", "First Term", 1, start, end, true, "2025/2026", start, start)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.academic_year_id = $1 AND t.is_current = TRUE")).
		WithArgs("year-1").
		WillReturnRows(rows)

	term, err := repo.CurrentTerm(context.Background(), "year-1")
	require.NoError(t, err)
	assert.Equal(t, 1, term.TermNumber)
	assert.Equal(t, "2025/2026", term.AcademicYearName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryCurrentYearMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectQuery("FROM academic_years WHERE school_id = \\$1 AND is_current = TRUE").
		WithArgs("school-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.CurrentYear(context.Background(), "school-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
