package models

import "time"

// AttendanceStatus is the daily mark for a student.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// Attendance is a single daily register entry.
type Attendance struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	ClassID      string           `db:"class_id" json:"class_id"`
	Date         time.Time        `db:"date" json:"date"`
	Status       AttendanceStatus `db:"status" json:"status"`
	Remarks      *string          `db:"remarks" json:"remarks,omitempty"`
	RecordedByID *string          `db:"recorded_by_id" json:"recorded_by_id,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceSummary totals the register over a window. Late counts as present.
type AttendanceSummary struct {
	TotalDays   int `db:"total_days" json:"total_days"`
	DaysPresent int `db:"days_present" json:"days_present"`
	DaysAbsent  int `db:"days_absent" json:"days_absent"`
}

// AttendanceMark is one student's entry in a register.
type AttendanceMark struct {
	StudentID string           `json:"student_id" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required,oneof=present absent late excused"`
	Remarks   *string          `json:"remarks"`
}

// RecordAttendanceRequest saves a class register for one day.
type RecordAttendanceRequest struct {
	Date    string           `json:"date" validate:"required,datetime=2006-01-02"`
	Entries []AttendanceMark `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceRegister is a class roster with the marks for one day.
type AttendanceRegister struct {
	ClassID string                  `json:"class_id"`
	Date    time.Time               `json:"date"`
	Rows    []AttendanceRegisterRow `json:"rows"`
}

// AttendanceRegisterRow pairs a student with the day's mark.
type AttendanceRegisterRow struct {
	Student EnrolledStudent   `json:"student"`
	Status  *AttendanceStatus `json:"status,omitempty"`
}
