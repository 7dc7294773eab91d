package service

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
	"github.com/nacca-sms/nacca-sms-api/pkg/export"
)

type fakeReportRepo struct {
	saved     []models.TerminalReport
	published int
	reports   map[string]*models.TerminalReport
}

func (f *fakeReportRepo) ClassSummaries(ctx context.Context, schoolID, academicYearID, termID string) ([]models.ClassSummary, error) {
	return []models.ClassSummary{{ClassID: "class-1", ClassName: "JHS 2A", EnrolledCount: 2}}, nil
}

func (f *fakeReportRepo) SaveBatch(ctx context.Context, reports []models.TerminalReport) error {
	f.saved = reports
	return nil
}

func (f *fakeReportRepo) Publish(ctx context.Context, classID, termID string, at time.Time) (int, error) {
	return f.published, nil
}

func (f *fakeReportRepo) FindByStudentTerm(ctx context.Context, studentID, termID string) (*models.TerminalReport, error) {
	if r, ok := f.reports[studentID+"/"+termID]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

type fakeAttendanceSummary struct {
	summaries map[string]models.AttendanceSummary
	from, to  time.Time
}

func (f *fakeAttendanceSummary) Summary(ctx context.Context, studentID string, from, to time.Time) (models.AttendanceSummary, error) {
	f.from, f.to = from, to
	return f.summaries[studentID], nil
}

type fakeEnrollmentFinder struct {
	enrollments map[string]*models.Enrollment
}

func (f *fakeEnrollmentFinder) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := f.enrollments[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

type reportFixture struct {
	svc         *ReportService
	reports     *fakeReportRepo
	assessments *fakeAssessmentRepo
	attendance  *fakeAttendanceSummary
	periods     *fakePeriods
	dashboards  *recordingInvalidator
}

func newReportFixture() *reportFixture {
	teacher := "staff-1"
	parentID := "parent-1"
	f := &reportFixture{
		reports:     &fakeReportRepo{reports: map[string]*models.TerminalReport{}},
		assessments: &fakeAssessmentRepo{byStudent: map[string][]models.AssessmentDetail{}},
		attendance: &fakeAttendanceSummary{summaries: map[string]models.AttendanceSummary{
			"stu-1": {TotalDays: 40, DaysPresent: 38, DaysAbsent: 2},
		}},
		periods:    newFakePeriods(),
		dashboards: &recordingInvalidator{},
	}
	f.svc = NewReportService(ReportServiceDeps{
		Reports:     f.reports,
		Assessments: f.assessments,
		Attendance:  f.attendance,
		Classes: &fakeClassLookup{classes: map[string]*models.Class{
			"class-1": {ID: "class-1", SchoolID: testSchoolID, Name: "JHS 2A", Level: "JHS", ClassTeacherID: &teacher},
		}},
		ClassSubjects: &fakeClassSubjectLookup{items: map[string]*models.ClassSubjectDetail{
			"cs-1": {ClassSubject: models.ClassSubject{ID: "cs-1", ClassID: "class-1", SubjectID: "maths"}, SubjectName: "Mathematics", SubjectCode: strPtr("MATH")},
			"cs-2": {ClassSubject: models.ClassSubject{ID: "cs-2", ClassID: "class-1", SubjectID: "english"}, SubjectName: "English"},
		}},
		Rosters: &fakeRosterRepo{rosters: map[string][]models.EnrolledStudent{
			"class-1": {
				{EnrollmentID: "enr-1", StudentID: "stu-1", StudentNumber: "STU0010001", FirstName: "Ama", LastName: "Mensah"},
				{EnrollmentID: "enr-2", StudentID: "stu-2", StudentNumber: "STU0010002", FirstName: "Kofi", LastName: "Owusu"},
			},
		}},
		Students: &fakeStudentRepo{students: map[string]*models.Student{
			"stu-1": {ID: "stu-1", SchoolID: testSchoolID, ParentID: &parentID, StudentNumber: "STU0010001", FirstName: "Ama", LastName: "Mensah"},
		}},
		Enrollments: &fakeEnrollmentFinder{enrollments: map[string]*models.Enrollment{
			"enr-1": {ID: "enr-1", StudentID: "stu-1", ClassID: "class-1", ClassName: "JHS 2A", ClassLevel: "JHS"},
		}},
		Periods:    f.periods,
		Dashboards: f.dashboards,
		Branding:   Branding{SchoolMotto: "Knowledge is light"},
	})
	f.svc.now = func() time.Time { return time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

func TestReportServiceGenerate(t *testing.T) {
	f := newReportFixture()
	f.assessments.byClass = []models.AssessmentDetail{
		{Assessment: models.Assessment{StudentID: "stu-1", TotalScore: 80}, SubjectID: "maths"},
		{Assessment: models.Assessment{StudentID: "stu-1", TotalScore: 71}, SubjectID: "english"},
		{Assessment: models.Assessment{StudentID: "stu-2", TotalScore: 60}, SubjectID: "maths"},
	}
	res, err := f.svc.Generate(context.Background(), teacherActor("staff-1"), "class-1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.GeneratedCount)

	require.Len(t, f.reports.saved, 2)
	first := f.reports.saved[0]
	assert.Equal(t, "enr-1", first.ClassEnrollmentID)
	assert.Equal(t, 151.0, first.TotalMarks)
	assert.Equal(t, 75.5, first.AverageScore)
	assert.Equal(t, 2, first.ClassSize)
	assert.Equal(t, 38, first.DaysPresent)
	assert.Equal(t, 40, first.TotalDays)

	second := f.reports.saved[1]
	assert.Equal(t, 60.0, second.AverageScore)
	assert.Equal(t, 0, second.TotalDays)

	assert.Equal(t, f.periods.term.StartDate, f.attendance.from)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), f.attendance.to)
	assert.Equal(t, []string{testSchoolID}, f.dashboards.schools)
}

func TestReportServiceGenerateRequiresClassTeacher(t *testing.T) {
	f := newReportFixture()
	_, err := f.svc.Generate(context.Background(), teacherActor("staff-2"), "class-1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Generate(context.Background(), adminActor(), "class-1")
	assert.NoError(t, err)
}

func TestReportServicePublish(t *testing.T) {
	f := newReportFixture()
	_, err := f.svc.Publish(context.Background(), adminActor(), "class-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	f.reports.published = 2
	res, err := f.svc.Publish(context.Background(), adminActor(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.PublishedCount)
	assert.False(t, res.PublishedAt.IsZero())
}

func TestReportServiceReportCardAccess(t *testing.T) {
	f := newReportFixture()
	position := 1
	f.reports.reports["stu-1/term-1"] = &models.TerminalReport{StudentID: "stu-1", TermID: "term-1", ClassEnrollmentID: "enr-1", AverageScore: 75.56, ClassPosition: &position, ClassSize: 2}
	f.assessments.byStudent["stu-1"] = []models.AssessmentDetail{
		{Assessment: models.Assessment{TotalScore: 80, Grade: strPtr("1"), GradeRemark: strPtr("Excellent")}, SubjectName: "Mathematics", ClassID: "class-1"},
		{Assessment: models.Assessment{TotalScore: 50}, SubjectName: "French", ClassID: "class-old"},
	}
	ctx := context.Background()

	_, err := f.svc.ReportCard(ctx, parentActor("parent-1"), "stu-1", "term-1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code, "unpublished report is hidden from parents")

	_, err = f.svc.ReportCard(ctx, parentActor("parent-2"), "stu-1", "term-1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	card, err := f.svc.ReportCard(ctx, adminActor(), "stu-1", "term-1")
	require.NoError(t, err)
	assert.Equal(t, "JHS 2A", card.ClassName)
	assert.Equal(t, "1", card.Position)
	assert.Equal(t, 75.6, card.AverageScore)
	require.Len(t, card.Subjects, 1)
	assert.Equal(t, "Excellent", card.Subjects[0].Remark)
	assert.Equal(t, "-", card.Subjects[0].Position)
	assert.Equal(t, "9", card.GradingKey[0].Grade)

	f.reports.reports["stu-1/term-1"].IsPublished = true
	_, err = f.svc.ReportCard(ctx, parentActor("parent-1"), "stu-1", "term-1")
	assert.NoError(t, err)

	_, err = f.svc.ReportCard(ctx, adminActor(), "stu-1", "term-9")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceReportCardPDF(t *testing.T) {
	f := newReportFixture()
	f.reports.reports["stu-1/term-1"] = &models.TerminalReport{StudentID: "stu-1", TermID: "term-1", ClassEnrollmentID: "enr-1", ClassSize: 2}
	download, err := f.svc.ReportCardPDF(context.Background(), adminActor(), "stu-1", "term-1")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", download.ContentType)
	assert.True(t, strings.HasSuffix(download.Filename, ".pdf"))
	assert.True(t, bytes.HasPrefix(download.Data, []byte("%PDF")))
}

func TestReportServiceBroadsheet(t *testing.T) {
	f := newReportFixture()
	f.assessments.byClass = []models.AssessmentDetail{
		{Assessment: models.Assessment{StudentID: "stu-1", TotalScore: 60}, SubjectID: "maths"},
		{Assessment: models.Assessment{StudentID: "stu-2", TotalScore: 70}, SubjectID: "maths"},
		{Assessment: models.Assessment{StudentID: "stu-2", TotalScore: 65}, SubjectID: "english"},
	}
	sheet, err := f.svc.Broadsheet(context.Background(), adminActor(), "class-1")
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "stu-2", sheet.Rows[0].Student.StudentID)
	assert.Equal(t, 1, sheet.Rows[0].Position)
	assert.Equal(t, 135.0, sheet.Rows[0].Total)
	assert.Equal(t, 67.5, sheet.Rows[0].Average)

	download, err := f.svc.BroadsheetExport(context.Background(), adminActor(), "class-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", download.ContentType)
	lines := strings.Split(strings.TrimSpace(string(download.Data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Position,Student No.,Student")
	assert.Contains(t, lines[1], "Kofi Owusu")

	download, err = f.svc.BroadsheetExport(context.Background(), adminActor(), "class-1", "PDF")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(download.Data, []byte("%PDF")))

	_, err = f.svc.BroadsheetExport(context.Background(), adminActor(), "class-1", "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSchoolHeaderBranding(t *testing.T) {
	header := schoolHeader(models.School{Name: "Accra Basic", Motto: strPtr("Old motto")}, Branding{SchoolMotto: "New motto"})
	assert.Equal(t, export.SchoolHeader{Name: "Accra Basic", Motto: "New motto"}, header)
}
