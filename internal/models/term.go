package models

import "time"

// School is the tenant every record is scoped to.
type School struct {
	ID        string    `db:"id" json:"id"`
	Code      int       `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Motto     *string   `db:"motto" json:"motto,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AcademicYear groups three terms, e.g. "2025/2026".
type AcademicYear struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	IsCurrent bool      `db:"is_current" json:"is_current"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Term represents an academic term within a year.
type Term struct {
	ID               string    `db:"id" json:"id"`
	AcademicYearID   string    `db:"academic_year_id" json:"academic_year_id"`
	Name             string    `db:"name" json:"name"`
	TermNumber       int       `db:"term_number" json:"term_number"`
	StartDate        time.Time `db:"start_date" json:"start_date"`
	EndDate          time.Time `db:"end_date" json:"end_date"`
	IsCurrent        bool      `db:"is_current" json:"is_current"`
	AcademicYearName string    `db:"academic_year_name" json:"academic_year_name,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceWindow returns the dates attendance is counted over: term start
// until the earlier of term end and today.
func (t Term) AttendanceWindow(today time.Time) (time.Time, time.Time) {
	end := t.EndDate
	if today.Before(end) {
		end = today
	}
	return t.StartDate, end
}

// Period bundles the current academic year and term for a school.
type Period struct {
	Year AcademicYear
	Term *Term
}
