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

	"github.com/nacca-sms/nacca-sms-api/internal/models"
)

var classRowColumns = []string{"id", "school_id", "name", "level", "grade_number", "section", "capacity", "class_teacher_id", "active", "created_at", "updated_at"}

func TestClassRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(append(classRowColumns, "student_count")).
		AddRow("class-1", "school-1", "JHS 1A", "JHS", 1, "A", 40, nil, true, now, now, 32)
	mock.ExpectQuery(regexp.QuoteMeta("FROM classes c WHERE c.school_id = $1 AND c.active = TRUE")).
		WithArgs("school-1", "year-1").
		WillReturnRows(rows)

	classes, err := repo.ListActive(context.Background(), "school-1", "year-1")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "JHS 1A", classes[0].Name)
	assert.Equal(t, 32, classes[0].StudentCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM classes c WHERE c.id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO classes")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	class := &models.Class{SchoolID: "school-1", Name: "Primary 1A", Level: "PRIMARY", Capacity: 35, Active: true}
	require.NoError(t, repo.Create(context.Background(), class))
	assert.NotEmpty(t, class.ID)
	assert.False(t, class.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "school_id", "department_id", "name", "code", "is_core", "active", "created_at", "updated_at"}).
		AddRow("sub-1", "school-1", nil, "English Language", "ENG", true, true, now, now).
		AddRow("sub-2", "school-1", nil, "French", "FRE", false, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE school_id = $1 AND active = TRUE ORDER BY name")).
		WithArgs("school-1").
		WillReturnRows(rows)

	subjects, err := repo.ListActive(context.Background(), "school-1")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.True(t, subjects[0].IsCore)
	require.NotNil(t, subjects[1].Code)
	assert.Equal(t, "FRE", *subjects[1].Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
