package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SchoolCounts holds the headline numbers for a school.
type SchoolCounts struct {
	Students int `db:"students"`
	Staff    int `db:"staff"`
	Classes  int `db:"classes"`
}

// DashboardRepository runs the aggregate queries behind dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Counts returns active students, staff and classes for a school.
func (r *DashboardRepository) Counts(ctx context.Context, schoolID string) (SchoolCounts, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM students WHERE school_id = $1 AND status = 'active') AS students,
        (SELECT COUNT(*) FROM staff WHERE school_id = $1 AND active = TRUE) AS staff,
        (SELECT COUNT(*) FROM classes WHERE school_id = $1 AND active = TRUE) AS classes`
	var counts SchoolCounts
	if err := r.db.GetContext(ctx, &counts, query, schoolID); err != nil {
		return counts, fmt.Errorf("school counts: %w", err)
	}
	return counts, nil
}

// GenderBreakdown counts active students by gender.
func (r *DashboardRepository) GenderBreakdown(ctx context.Context, schoolID string) (map[string]int, error) {
	var rows []struct {
		Gender string `db:"gender"`
		Count  int    `db:"count"`
	}
	const query = `SELECT gender, COUNT(*) AS count FROM students WHERE school_id = $1 AND status = 'active' GROUP BY gender`
	if err := r.db.SelectContext(ctx, &rows, query, schoolID); err != nil {
		return nil, fmt.Errorf("gender breakdown: %w", err)
	}
	breakdown := make(map[string]int, len(rows))
	for _, row := range rows {
		breakdown[row.Gender] = row.Count
	}
	return breakdown, nil
}
