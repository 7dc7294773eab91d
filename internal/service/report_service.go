package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
	"github.com/nacca-sms/nacca-sms-api/pkg/export"
	"github.com/nacca-sms/nacca-sms-api/pkg/grading"
)

// Export formats accepted by download endpoints.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type reportRepository interface {
	ClassSummaries(ctx context.Context, schoolID, academicYearID, termID string) ([]models.ClassSummary, error)
	SaveBatch(ctx context.Context, reports []models.TerminalReport) error
	Publish(ctx context.Context, classID, termID string, at time.Time) (int, error)
	FindByStudentTerm(ctx context.Context, studentID, termID string) (*models.TerminalReport, error)
}

type reportAssessmentSource interface {
	ListByStudentTerm(ctx context.Context, studentID, termID string) ([]models.AssessmentDetail, error)
	ListByClassTerm(ctx context.Context, classID, termID string) ([]models.AssessmentDetail, error)
}

type attendanceSummarizer interface {
	Summary(ctx context.Context, studentID string, from, to time.Time) (models.AttendanceSummary, error)
}

type enrollmentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

type classSubjectLister interface {
	ListByClass(ctx context.Context, classID, academicYearID string) ([]models.ClassSubjectDetail, error)
}

type reportCardRenderer interface {
	ReportCard(doc export.ReportCardDocument) ([]byte, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type tablePDFRenderer interface {
	Render(data export.Dataset, opts export.PDFOptions) ([]byte, error)
}

// Branding overrides the school name and motto printed on documents.
type Branding struct {
	SchoolName  string
	SchoolMotto string
}

// Download is a rendered file ready to stream.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportServiceDeps groups the collaborators of ReportService.
type ReportServiceDeps struct {
	Reports       reportRepository
	Assessments   reportAssessmentSource
	Attendance    attendanceSummarizer
	Classes       classLookup
	ClassSubjects classSubjectLister
	Rosters       rosterRepository
	Students      studentLookup
	Enrollments   enrollmentFinder
	Periods       periodProvider
	Dashboards    dashboardInvalidator
	Documents     reportCardRenderer
	CSV           csvRenderer
	PDF           tablePDFRenderer
	Branding      Branding
	Logger        *zap.Logger
}

// ReportService generates, publishes and renders terminal reports.
type ReportService struct {
	deps   ReportServiceDeps
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(deps ReportServiceDeps) *ReportService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Documents == nil {
		deps.Documents = export.NewDocumentRenderer()
	}
	if deps.CSV == nil {
		deps.CSV = export.NewCSVExporter()
	}
	if deps.PDF == nil {
		deps.PDF = export.NewPDFExporter()
	}
	return &ReportService{deps: deps, logger: deps.Logger, now: time.Now}
}

// Summaries lists active classes with enrolment and generated report counts for the current term.
func (s *ReportService) Summaries(ctx context.Context, actor Actor) ([]models.ClassSummary, error) {
	period, err := s.deps.Periods.CurrentTerm(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	summaries, err := s.deps.Reports.ClassSummaries(ctx, actor.SchoolID, period.Year.ID, period.Term.ID)
	if err != nil {
		return nil, internalError(err, "failed to load report summaries")
	}
	return summaries, nil
}

// Generate builds or refreshes the terminal report of every student enrolled in
// the class, then assigns overall positions by average.
func (s *ReportService) Generate(ctx context.Context, actor Actor, classID string) (*models.GenerateReportsResult, error) {
	if _, err := s.managedClass(ctx, actor, classID); err != nil {
		return nil, err
	}
	period, err := s.deps.Periods.CurrentTerm(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	roster, err := s.deps.Rosters.Roster(ctx, classID, period.Year.ID)
	if err != nil {
		return nil, internalError(err, "failed to load class roster")
	}
	if len(roster) == 0 {
		return &models.GenerateReportsResult{Message: "no students enrolled in this class"}, nil
	}
	details, err := s.deps.Assessments.ListByClassTerm(ctx, classID, period.Term.ID)
	if err != nil {
		return nil, internalError(err, "failed to load assessments")
	}
	type aggregate struct {
		total float64
		count int
	}
	aggregates := make(map[string]*aggregate, len(roster))
	for _, d := range details {
		agg := aggregates[d.StudentID]
		if agg == nil {
			agg = &aggregate{}
			aggregates[d.StudentID] = agg
		}
		agg.total += d.TotalScore
		agg.count++
	}

	from, to := period.Term.AttendanceWindow(s.now().UTC().Truncate(24 * time.Hour))
	reports := make([]models.TerminalReport, 0, len(roster))
	for _, student := range roster {
		report := models.TerminalReport{
			StudentID:         student.StudentID,
			TermID:            period.Term.ID,
			ClassEnrollmentID: student.EnrollmentID,
			ClassSize:         len(roster),
		}
		if agg := aggregates[student.StudentID]; agg != nil && agg.count > 0 {
			report.TotalMarks = roundTo(agg.total, 2)
			report.AverageScore = roundTo(agg.total/float64(agg.count), 2)
		}
		attendance, err := s.deps.Attendance.Summary(ctx, student.StudentID, from, to)
		if err != nil {
			return nil, internalError(err, "failed to summarise attendance")
		}
		report.TotalDays = attendance.TotalDays
		report.DaysPresent = attendance.DaysPresent
		report.DaysAbsent = attendance.DaysAbsent
		reports = append(reports, report)
	}

	if err := s.deps.Reports.SaveBatch(ctx, reports); err != nil {
		return nil, internalError(err, "failed to save terminal reports")
	}
	s.invalidate(ctx, actor.SchoolID)
	s.logger.Info("terminal reports generated",
		zap.String("class_id", classID),
		zap.String("term_id", period.Term.ID),
		zap.Int("count", len(reports)),
	)
	return &models.GenerateReportsResult{
		GeneratedCount: len(reports),
		Message:        fmt.Sprintf("successfully generated %d terminal reports", len(reports)),
	}, nil
}

// Publish makes every report of the class for the current term visible to parents.
func (s *ReportService) Publish(ctx context.Context, actor Actor, classID string) (*models.PublishReportsResult, error) {
	if _, err := s.managedClass(ctx, actor, classID); err != nil {
		return nil, err
	}
	period, err := s.deps.Periods.CurrentTerm(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	at := s.now().UTC()
	count, err := s.deps.Reports.Publish(ctx, classID, period.Term.ID, at)
	if err != nil {
		return nil, internalError(err, "failed to publish reports")
	}
	if count == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no reports generated for this class")
	}
	s.invalidate(ctx, actor.SchoolID)
	s.logger.Info("terminal reports published", zap.String("class_id", classID), zap.Int("count", count))
	return &models.PublishReportsResult{PublishedCount: count, PublishedAt: at}, nil
}

// ReportCard assembles a student's terminal report. Parents may only read
// published reports of their own children.
func (s *ReportService) ReportCard(ctx context.Context, actor Actor, studentID, termID string) (*models.ReportCard, error) {
	student, err := s.deps.Students.FindByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if student.SchoolID != actor.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if actor.IsParent() && (student.ParentID == nil || *student.ParentID != actor.ParentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "access denied")
	}
	term, err := s.deps.Periods.Term(ctx, actor.SchoolID, termID)
	if err != nil {
		return nil, err
	}
	report, err := s.deps.Reports.FindByStudentTerm(ctx, studentID, termID)
	if err != nil {
		return nil, notFoundOr(err, "terminal report not found", "failed to load terminal report")
	}
	if actor.IsParent() && !report.IsPublished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not yet published")
	}
	school, err := s.deps.Periods.School(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}

	card := &models.ReportCard{
		School:       *school,
		Student:      *student,
		StudentName:  student.FullName(),
		ClassName:    "-",
		Level:        grading.LevelPrimary,
		Term:         *term,
		Report:       *report,
		Subjects:     []models.ReportCardSubject{},
		AverageScore: roundTo(report.AverageScore, 1),
		Position:     positionText(report.ClassPosition),
		GeneratedAt:  s.now().UTC(),
	}
	classID := ""
	enrollment, err := s.deps.Enrollments.FindByID(ctx, report.ClassEnrollmentID)
	switch {
	case err == nil:
		card.ClassName = enrollment.ClassName
		card.Level = grading.ParseLevel(enrollment.ClassLevel)
		classID = enrollment.ClassID
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, internalError(err, "failed to load enrolment")
	}
	card.GradingKey = grading.Bands(card.Level)

	if classID != "" {
		details, err := s.deps.Assessments.ListByStudentTerm(ctx, studentID, termID)
		if err != nil {
			return nil, internalError(err, "failed to load assessments")
		}
		for _, d := range details {
			if d.ClassID != classID {
				continue
			}
			card.Subjects = append(card.Subjects, models.ReportCardSubject{
				SubjectName: d.SubjectName,
				Classwork:   d.ClassworkScore,
				Homework:    d.HomeworkScore,
				Project:     d.ProjectScore,
				Exam:        d.ExamScore,
				Total:       d.TotalScore,
				Grade:       stringOr(d.Grade, "-"),
				Remark:      stringOr(d.GradeRemark, "-"),
				Position:    positionText(d.ClassPosition),
			})
		}
	}
	return card, nil
}

// ReportCardPDF renders the report card as a PDF download.
func (s *ReportService) ReportCardPDF(ctx context.Context, actor Actor, studentID, termID string) (*Download, error) {
	card, err := s.ReportCard(ctx, actor, studentID, termID)
	if err != nil {
		return nil, err
	}
	doc := export.ReportCardDocument{
		School:             s.header(card.School),
		StudentName:        card.StudentName,
		StudentNumber:      card.Student.StudentNumber,
		ClassName:          card.ClassName,
		AcademicYear:       card.Term.AcademicYearName,
		Term:               card.Term.Name,
		TotalMarks:         card.Report.TotalMarks,
		Average:            card.AverageScore,
		Position:           card.Position,
		ClassSize:          strconv.Itoa(card.Report.ClassSize),
		DaysPresent:        card.Report.DaysPresent,
		DaysAbsent:         card.Report.DaysAbsent,
		TotalDays:          card.Report.TotalDays,
		ClassTeacherRemark: stringOr(card.Report.ClassTeacherRemarks, ""),
		HeadteacherRemark:  stringOr(card.Report.HeadteacherRemarks, ""),
		GeneratedOn:        card.GeneratedAt.Format("January 2, 2006"),
	}
	if card.Report.ClassSize == 0 {
		doc.ClassSize = "-"
	}
	if card.Report.NextTermBegins != nil {
		doc.NextTermBegins = card.Report.NextTermBegins.Format("January 2, 2006")
	}
	for _, subject := range card.Subjects {
		doc.Lines = append(doc.Lines, export.ReportCardLine{
			Subject:   subject.SubjectName,
			Classwork: subject.Classwork,
			Homework:  subject.Homework,
			Project:   subject.Project,
			Exam:      subject.Exam,
			Total:     subject.Total,
			Grade:     subject.Grade,
			Remark:    subject.Remark,
			Position:  subject.Position,
		})
	}
	for _, band := range card.GradingKey {
		doc.GradingKey = append(doc.GradingKey, export.GradingKeyRow{
			Range:  fmt.Sprintf("%.0f - %.0f", band.Min, band.Max),
			Grade:  band.Grade,
			Remark: band.Remark,
		})
	}
	data, err := s.deps.Documents.ReportCard(doc)
	if err != nil {
		return nil, internalError(err, "failed to render report card")
	}
	return &Download{
		Filename:    export.Filename("report_"+card.Student.StudentNumber+"_"+card.Term.Name, FormatPDF, card.GeneratedAt),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// Broadsheet returns the class by subject totals for the current term, with
// positions by overall total.
func (s *ReportService) Broadsheet(ctx context.Context, actor Actor, classID string) (*models.Broadsheet, error) {
	class, err := s.scopedClass(ctx, actor, classID)
	if err != nil {
		return nil, err
	}
	period, err := s.deps.Periods.CurrentTerm(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.deps.ClassSubjects.ListByClass(ctx, classID, period.Year.ID)
	if err != nil {
		return nil, internalError(err, "failed to list class subjects")
	}
	roster, err := s.deps.Rosters.Roster(ctx, classID, period.Year.ID)
	if err != nil {
		return nil, internalError(err, "failed to load class roster")
	}
	details, err := s.deps.Assessments.ListByClassTerm(ctx, classID, period.Term.ID)
	if err != nil {
		return nil, internalError(err, "failed to load assessments")
	}
	totals := make(map[string]map[string]float64, len(roster))
	for _, d := range details {
		if totals[d.StudentID] == nil {
			totals[d.StudentID] = map[string]float64{}
		}
		totals[d.StudentID][d.SubjectID] = d.TotalScore
	}

	sheet := &models.Broadsheet{Class: *class, Term: *period.Term, Subjects: subjects, Rows: make([]models.BroadsheetRow, 0, len(roster))}
	overall := make(map[string]float64, len(roster))
	for _, student := range roster {
		row := models.BroadsheetRow{Student: student, Totals: totals[student.StudentID]}
		if row.Totals == nil {
			row.Totals = map[string]float64{}
		}
		for _, v := range row.Totals {
			row.Total += v
		}
		row.Total = roundTo(row.Total, 2)
		if len(row.Totals) > 0 {
			row.Average = roundTo(row.Total/float64(len(row.Totals)), 1)
		}
		overall[student.StudentID] = row.Total
		sheet.Rows = append(sheet.Rows, row)
	}
	positions := grading.Rank(overall)
	for i := range sheet.Rows {
		sheet.Rows[i].Position = positions[sheet.Rows[i].Student.StudentID]
	}
	sort.SliceStable(sheet.Rows, func(i, j int) bool { return sheet.Rows[i].Position < sheet.Rows[j].Position })
	return sheet, nil
}

// BroadsheetExport renders the broadsheet as CSV or PDF.
func (s *ReportService) BroadsheetExport(ctx context.Context, actor Actor, classID, format string) (*Download, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	sheet, err := s.Broadsheet(ctx, actor, classID)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{Headers: []string{"Position", "Student No.", "Student"}}
	for _, subject := range sheet.Subjects {
		name := subject.SubjectName
		if subject.SubjectCode != nil && *subject.SubjectCode != "" {
			name = *subject.SubjectCode
		}
		data.Headers = append(data.Headers, name)
	}
	data.Headers = append(data.Headers, "Total", "Average")
	for _, row := range sheet.Rows {
		values := []string{strconv.Itoa(row.Position), row.Student.StudentNumber, row.Student.FullName()}
		for _, subject := range sheet.Subjects {
			if v, ok := row.Totals[subject.SubjectID]; ok {
				values = append(values, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				values = append(values, "-")
			}
		}
		values = append(values, strconv.FormatFloat(row.Total, 'f', -1, 64), strconv.FormatFloat(row.Average, 'f', 1, 64))
		data.AddRow(values...)
	}

	now := s.now().UTC()
	name := "broadsheet_" + sheet.Class.Name + "_" + sheet.Term.Name
	if format == FormatPDF {
		weights := make([]float64, len(data.Headers))
		for i := range weights {
			weights[i] = 1
		}
		weights[2] = 3
		out, err := s.deps.PDF.Render(data, export.PDFOptions{
			Title:     "Broadsheet " + sheet.Class.Name,
			Subtitle:  sheet.Term.Name + " " + sheet.Term.AcademicYearName,
			Landscape: true,
			Widths:    weights,
		})
		if err != nil {
			return nil, internalError(err, "failed to render broadsheet")
		}
		return &Download{Filename: export.Filename(name, FormatPDF, now), ContentType: "application/pdf", Data: out}, nil
	}
	out, err := s.deps.CSV.Render(data)
	if err != nil {
		return nil, internalError(err, "failed to render broadsheet")
	}
	return &Download{Filename: export.Filename(name, FormatCSV, now), ContentType: "text/csv", Data: out}, nil
}

// managedClass loads a class the caller may generate and publish reports for:
// admins for any class of the school, others only as its class teacher.
func (s *ReportService) managedClass(ctx context.Context, actor Actor, classID string) (*models.Class, error) {
	class, err := s.scopedClass(ctx, actor, classID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && (class.ClassTeacherID == nil || *class.ClassTeacherID != actor.StaffID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only manage reports for your own class")
	}
	return class, nil
}

func (s *ReportService) scopedClass(ctx context.Context, actor Actor, classID string) (*models.Class, error) {
	class, err := s.deps.Classes.FindByID(ctx, classID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	if class.SchoolID != actor.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return class, nil
}

func (s *ReportService) header(school models.School) export.SchoolHeader {
	return schoolHeader(school, s.deps.Branding)
}

func (s *ReportService) invalidate(ctx context.Context, schoolID string) {
	if s.deps.Dashboards != nil {
		s.deps.Dashboards.InvalidateDashboards(ctx, schoolID)
	}
}

func schoolHeader(school models.School, branding Branding) export.SchoolHeader {
	header := export.SchoolHeader{
		Name:    school.Name,
		Motto:   stringOr(school.Motto, ""),
		Address: stringOr(school.Address, ""),
		Phone:   stringOr(school.Phone, ""),
		Email:   stringOr(school.Email, ""),
	}
	if branding.SchoolName != "" {
		header.Name = branding.SchoolName
	}
	if branding.SchoolMotto != "" {
		header.Motto = branding.SchoolMotto
	}
	return header
}

func positionText(position *int) string {
	if position == nil {
		return "-"
	}
	return strconv.Itoa(*position)
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
