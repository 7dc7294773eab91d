package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
	"github.com/nacca-sms/nacca-sms-api/pkg/grading"
)

type assessmentRepository interface {
	ListForClassSubject(ctx context.Context, classSubjectID, termID string) ([]models.Assessment, error)
	ListByStudentTerm(ctx context.Context, studentID, termID string) ([]models.AssessmentDetail, error)
	ListByClassTerm(ctx context.Context, classID, termID string) ([]models.AssessmentDetail, error)
	SaveBatch(ctx context.Context, classSubjectID, termID string, assessments []models.Assessment) error
}

type classSubjectLookup interface {
	FindByID(ctx context.Context, id string) (*models.ClassSubjectDetail, error)
	ListForYear(ctx context.Context, schoolID, academicYearID, teacherID string) ([]models.ClassSubjectDetail, error)
	ListByClass(ctx context.Context, classID, academicYearID string) ([]models.ClassSubjectDetail, error)
}

type studentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type currentEnrollmentLookup interface {
	FindCurrent(ctx context.Context, studentID, academicYearID string) (*models.Enrollment, error)
}

type reportLookup interface {
	FindByStudentTerm(ctx context.Context, studentID, termID string) (*models.TerminalReport, error)
}

type classificationRecorder interface {
	RecordClassification(level grading.Level, res grading.Result)
}

type dashboardInvalidator interface {
	InvalidateDashboards(ctx context.Context, schoolID string)
}

// AssessmentService handles score entry and grade classification.
type AssessmentService struct {
	assessments   assessmentRepository
	classSubjects classSubjectLookup
	classes       classLookup
	rosters       rosterRepository
	students      studentLookup
	enrollments   currentEnrollmentLookup
	reports       reportLookup
	periods       periodProvider
	metrics       classificationRecorder
	dashboards    dashboardInvalidator
	validator     *validator.Validate
	logger        *zap.Logger
}

// AssessmentServiceDeps groups the collaborators of AssessmentService.
type AssessmentServiceDeps struct {
	Assessments   assessmentRepository
	ClassSubjects classSubjectLookup
	Classes       classLookup
	Rosters       rosterRepository
	Students      studentLookup
	Enrollments   currentEnrollmentLookup
	Reports       reportLookup
	Periods       periodProvider
	Metrics       classificationRecorder
	Dashboards    dashboardInvalidator
	Validator     *validator.Validate
	Logger        *zap.Logger
}

// NewAssessmentService constructs an AssessmentService.
func NewAssessmentService(deps AssessmentServiceDeps) *AssessmentService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &AssessmentService{
		assessments:   deps.Assessments,
		classSubjects: deps.ClassSubjects,
		classes:       deps.Classes,
		rosters:       deps.Rosters,
		students:      deps.Students,
		enrollments:   deps.Enrollments,
		reports:       deps.Reports,
		periods:       deps.Periods,
		metrics:       deps.Metrics,
		dashboards:    deps.Dashboards,
		validator:     deps.Validator,
		logger:        deps.Logger,
	}
}

// ClassSubjects lists the class subjects of the current academic year.
// Admins see all of them, teachers only the ones they teach.
func (s *AssessmentService) ClassSubjects(ctx context.Context, actor Actor) ([]models.ClassSubjectDetail, error) {
	period, err := s.periods.Current(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	teacherID := ""
	if !actor.IsAdmin() {
		if actor.StaffID == "" {
			return []models.ClassSubjectDetail{}, nil
		}
		teacherID = actor.StaffID
	}
	items, err := s.classSubjects.ListForYear(ctx, actor.SchoolID, period.Year.ID, teacherID)
	if err != nil {
		return nil, internalError(err, "failed to list class subjects")
	}
	return items, nil
}

// ClassSubjectsForClass lists a class's subjects for the current academic year.
func (s *AssessmentService) ClassSubjectsForClass(ctx context.Context, actor Actor, classID string) ([]models.ClassSubjectDetail, error) {
	if _, err := s.scopedClass(ctx, actor, classID); err != nil {
		return nil, err
	}
	period, err := s.periods.Current(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	items, err := s.classSubjects.ListByClass(ctx, classID, period.Year.ID)
	if err != nil {
		return nil, internalError(err, "failed to list class subjects")
	}
	return items, nil
}

// EntrySheet returns the roster of a class subject with any scores saved this term.
func (s *AssessmentService) EntrySheet(ctx context.Context, actor Actor, classSubjectID string) (*models.EntrySheet, error) {
	cs, err := s.ownedClassSubject(ctx, actor, classSubjectID)
	if err != nil {
		return nil, err
	}
	period, err := s.periods.CurrentTerm(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	roster, err := s.rosters.Roster(ctx, cs.ClassID, cs.AcademicYearID)
	if err != nil {
		return nil, internalError(err, "failed to load class roster")
	}
	saved, err := s.assessments.ListForClassSubject(ctx, cs.ID, period.Term.ID)
	if err != nil {
		return nil, internalError(err, "failed to load assessments")
	}
	byStudent := make(map[string]*models.Assessment, len(saved))
	for i := range saved {
		byStudent[saved[i].StudentID] = &saved[i]
	}
	sheet := &models.EntrySheet{
		ClassSubject: *cs,
		Term:         *period.Term,
		Level:        grading.ParseLevel(cs.ClassLevel),
		Rows:         make([]models.EntrySheetRow, 0, len(roster)),
	}
	for _, student := range roster {
		sheet.Rows = append(sheet.Rows, models.EntrySheetRow{Student: student, Assessment: byStudent[student.StudentID]})
	}
	return sheet, nil
}

// SaveScores coerces, clamps and classifies a batch of scores, then stores them
// and recomputes subject positions.
func (s *AssessmentService) SaveScores(ctx context.Context, actor Actor, req models.SaveScoresRequest) (*models.SaveScoresResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid scores payload")
	}
	cs, err := s.ownedClassSubject(ctx, actor, req.ClassSubjectID)
	if err != nil {
		return nil, err
	}
	period, err := s.periods.CurrentTerm(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	roster, err := s.rosters.Roster(ctx, cs.ClassID, cs.AcademicYearID)
	if err != nil {
		return nil, internalError(err, "failed to load class roster")
	}
	enrolled := make(map[string]bool, len(roster))
	for _, student := range roster {
		enrolled[student.StudentID] = true
	}

	level := grading.ParseLevel(cs.ClassLevel)
	var recordedBy *string
	if actor.StaffID != "" {
		staffID := actor.StaffID
		recordedBy = &staffID
	}
	batch := make([]models.Assessment, 0, len(req.Scores))
	seen := make(map[string]bool, len(req.Scores))
	for _, entry := range req.Scores {
		if !enrolled[entry.StudentID] {
			return nil, appErrors.Clone(appErrors.ErrStudentNotEnrolled, "student "+entry.StudentID+" is not enrolled in this class")
		}
		if seen[entry.StudentID] {
			continue
		}
		seen[entry.StudentID] = true
		a := models.Assessment{StudentID: entry.StudentID, RecordedByID: recordedBy}
		res := a.ApplyScores(entry.Components(), level)
		if s.metrics != nil {
			s.metrics.RecordClassification(level, res)
		}
		batch = append(batch, a)
	}
	if len(batch) > 0 {
		if err := s.assessments.SaveBatch(ctx, cs.ID, period.Term.ID, batch); err != nil {
			return nil, internalError(err, "failed to save assessments")
		}
		if s.dashboards != nil {
			s.dashboards.InvalidateDashboards(ctx, actor.SchoolID)
		}
	}
	s.logger.Info("assessments saved",
		zap.String("class_subject_id", cs.ID),
		zap.String("term_id", period.Term.ID),
		zap.Int("count", len(batch)),
	)
	return &models.SaveScoresResult{SavedCount: len(batch), Message: "saved " + strconv.Itoa(len(batch)) + " assessments"}, nil
}

// CalculateGrade previews a classification without saving. Components are
// coerced and clamped exactly as on save.
func (s *AssessmentService) CalculateGrade(req models.CalculateGradeRequest) grading.Result {
	level := grading.ParseLevel(req.Level)
	res := req.Components().Clamped().Classify(level)
	if s.metrics != nil {
		s.metrics.RecordClassification(level, res)
	}
	return res
}

// Scale returns the band table for a level.
func (s *AssessmentService) Scale(level string) models.GradingScale {
	parsed := grading.ParseLevel(level)
	return models.GradingScale{Level: parsed, Bands: grading.Bands(parsed)}
}

// ClassMatrix returns the student by subject assessments of a class for the current term.
func (s *AssessmentService) ClassMatrix(ctx context.Context, actor Actor, classID string) (*models.ClassMatrix, error) {
	class, err := s.scopedClass(ctx, actor, classID)
	if err != nil {
		return nil, err
	}
	period, err := s.periods.CurrentTerm(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.classSubjects.ListByClass(ctx, classID, period.Year.ID)
	if err != nil {
		return nil, internalError(err, "failed to list class subjects")
	}
	roster, err := s.rosters.Roster(ctx, classID, period.Year.ID)
	if err != nil {
		return nil, internalError(err, "failed to load class roster")
	}
	details, err := s.assessments.ListByClassTerm(ctx, classID, period.Term.ID)
	if err != nil {
		return nil, internalError(err, "failed to load assessments")
	}
	byStudent := make(map[string]map[string]*models.Assessment, len(roster))
	for i := range details {
		d := details[i]
		if byStudent[d.StudentID] == nil {
			byStudent[d.StudentID] = map[string]*models.Assessment{}
		}
		a := d.Assessment
		byStudent[d.StudentID][d.SubjectID] = &a
	}
	matrix := &models.ClassMatrix{Class: *class, Term: *period.Term, Subjects: subjects, Rows: make([]models.ClassMatrixRow, 0, len(roster))}
	for _, student := range roster {
		row := models.ClassMatrixRow{Student: student, Subjects: byStudent[student.StudentID]}
		if row.Subjects == nil {
			row.Subjects = map[string]*models.Assessment{}
		}
		matrix.Rows = append(matrix.Rows, row)
	}
	return matrix, nil
}

// StudentSummary aggregates a student's assessments for the current term.
func (s *AssessmentService) StudentSummary(ctx context.Context, actor Actor, studentID string) (*models.StudentTermSummary, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if student.SchoolID != actor.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	period, err := s.periods.CurrentTerm(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.enrollments.FindCurrent(ctx, studentID, period.Year.ID)
	if err != nil {
		return nil, notFoundOr(err, "student is not enrolled this academic year", "failed to load enrolment")
	}
	assessments, err := s.assessments.ListByStudentTerm(ctx, studentID, period.Term.ID)
	if err != nil {
		return nil, internalError(err, "failed to load assessments")
	}

	summary := &models.StudentTermSummary{
		Student:       *student,
		Enrollment:    *enrollment,
		Term:          *period.Term,
		Assessments:   assessments,
		TotalSubjects: len(assessments),
		OverallGrade:  "-",
		Position:      "-",
	}
	for _, a := range assessments {
		summary.TotalMarks += a.TotalScore
	}
	if len(assessments) > 0 {
		summary.AverageScore = roundTo(summary.TotalMarks/float64(len(assessments)), 1)
		summary.OverallGrade = grading.ClassifyTotal(summary.AverageScore, grading.LevelPrimary).GradeOr("-")
	}
	summary.TotalMarks = roundTo(summary.TotalMarks, 2)

	report, err := s.reports.FindByStudentTerm(ctx, studentID, period.Term.ID)
	switch {
	case err == nil:
		if report.ClassPosition != nil {
			summary.Position = strconv.Itoa(*report.ClassPosition)
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, internalError(err, "failed to load terminal report")
	}
	return summary, nil
}

// ownedClassSubject loads a class subject of the school. Non-admin callers must teach it.
func (s *AssessmentService) ownedClassSubject(ctx context.Context, actor Actor, id string) (*models.ClassSubjectDetail, error) {
	cs, err := s.classSubjects.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "class subject not found", "failed to load class subject")
	}
	if cs.SchoolID != actor.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class subject not found")
	}
	if !actor.IsAdmin() && (cs.TeacherID == nil || *cs.TeacherID != actor.StaffID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not teach this class subject")
	}
	return cs, nil
}

func (s *AssessmentService) scopedClass(ctx context.Context, actor Actor, classID string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	if class.SchoolID != actor.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return class, nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
