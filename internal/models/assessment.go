package models

import (
	"time"

	"github.com/nacca-sms/nacca-sms-api/pkg/grading"
)

// Assessment holds one student's component scores for a class subject in a term.
type Assessment struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	ClassSubjectID string    `db:"class_subject_id" json:"class_subject_id"`
	TermID         string    `db:"term_id" json:"term_id"`
	ClassworkScore float64   `db:"classwork_score" json:"classwork_score"`
	HomeworkScore  float64   `db:"homework_score" json:"homework_score"`
	ProjectScore   float64   `db:"project_score" json:"project_score"`
	ExamScore      float64   `db:"exam_score" json:"exam_score"`
	TotalScore     float64   `db:"total_score" json:"total_score"`
	Grade          *string   `db:"grade" json:"grade"`
	GradeRemark    *string   `db:"grade_remark" json:"grade_remark"`
	ClassPosition  *int      `db:"class_position" json:"class_position,omitempty"`
	RecordedByID   *string   `db:"recorded_by_id" json:"recorded_by_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Components returns the four scores as a grading value.
func (a Assessment) Components() grading.Components {
	return grading.Components{Classwork: a.ClassworkScore, Homework: a.HomeworkScore, Project: a.ProjectScore, Exam: a.ExamScore}
}

// ApplyScores stores clamped components and the classification for level.
func (a *Assessment) ApplyScores(c grading.Components, level grading.Level) grading.Result {
	c = c.Clamped()
	a.ClassworkScore = c.Classwork
	a.HomeworkScore = c.Homework
	a.ProjectScore = c.Project
	a.ExamScore = c.Exam
	res := c.Classify(level)
	a.TotalScore = res.Total
	a.Grade = res.Grade
	a.GradeRemark = res.Remark
	return res
}

// AssessmentDetail adds subject and class context to an assessment.
type AssessmentDetail struct {
	Assessment
	SubjectID   string  `db:"subject_id" json:"subject_id"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	SubjectCode *string `db:"subject_code" json:"subject_code,omitempty"`
	ClassID     string  `db:"class_id" json:"class_id"`
}

// ScoreEntry is one student's raw scores as posted from the entry sheet.
// Values are coerced, so numbers, numeric strings and blanks are all accepted.
type ScoreEntry struct {
	StudentID string      `json:"student_id" validate:"required"`
	Classwork interface{} `json:"classwork"`
	Homework  interface{} `json:"homework"`
	Project   interface{} `json:"project"`
	Exam      interface{} `json:"exam"`
}

// Components coerces the raw values.
func (e ScoreEntry) Components() grading.Components {
	return grading.Components{
		Classwork: grading.Coerce(e.Classwork),
		Homework:  grading.Coerce(e.Homework),
		Project:   grading.Coerce(e.Project),
		Exam:      grading.Coerce(e.Exam),
	}
}

// SaveScoresRequest saves a batch of scores for one class subject.
type SaveScoresRequest struct {
	ClassSubjectID string       `json:"class_subject_id" validate:"required"`
	Scores         []ScoreEntry `json:"scores" validate:"dive"`
}

// SaveScoresResult reports how many rows were written.
type SaveScoresResult struct {
	SavedCount int    `json:"saved_count"`
	Message    string `json:"message"`
}

// CalculateGradeRequest previews a grade without saving.
type CalculateGradeRequest struct {
	Classwork interface{} `json:"classwork"`
	Homework  interface{} `json:"homework"`
	Project   interface{} `json:"project"`
	Exam      interface{} `json:"exam"`
	Level     string      `json:"level"`
}

// Components coerces the raw values.
func (r CalculateGradeRequest) Components() grading.Components {
	return ScoreEntry{Classwork: r.Classwork, Homework: r.Homework, Project: r.Project, Exam: r.Exam}.Components()
}

// GradingScale is the band table for one level.
type GradingScale struct {
	Level grading.Level  `json:"level"`
	Bands []grading.Band `json:"bands"`
}

// EntrySheetRow pairs a rostered student with any saved assessment.
type EntrySheetRow struct {
	Student    EnrolledStudent `json:"student"`
	Assessment *Assessment     `json:"assessment,omitempty"`
}

// EntrySheet is everything needed to key in scores for a class subject.
type EntrySheet struct {
	ClassSubject ClassSubjectDetail `json:"class_subject"`
	Term         Term               `json:"term"`
	Level        grading.Level      `json:"level"`
	Rows         []EntrySheetRow    `json:"rows"`
}

// ClassMatrixRow holds one student's assessments keyed by subject id.
type ClassMatrixRow struct {
	Student  EnrolledStudent        `json:"student"`
	Subjects map[string]*Assessment `json:"subjects"`
}

// ClassMatrix is the student by subject view for a class.
type ClassMatrix struct {
	Class    Class                `json:"class"`
	Term     Term                 `json:"term"`
	Subjects []ClassSubjectDetail `json:"subjects"`
	Rows     []ClassMatrixRow     `json:"rows"`
}

// StudentTermSummary aggregates a student's assessments for the term.
type StudentTermSummary struct {
	Student       Student            `json:"student"`
	Enrollment    Enrollment         `json:"enrollment"`
	Term          Term               `json:"term"`
	Assessments   []AssessmentDetail `json:"assessments"`
	TotalSubjects int                `json:"total_subjects"`
	TotalMarks    float64            `json:"total_marks"`
	AverageScore  float64            `json:"average_score"`
	OverallGrade  string             `json:"overall_grade"`
	Position      string             `json:"position"`
}
