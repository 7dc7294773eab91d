package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

type fakeChildren struct {
	students map[string]*models.Student
}

func (f *fakeChildren) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeChildren) ListByParent(ctx context.Context, parentID string) ([]models.Student, error) {
	var out []models.Student
	for _, id := range []string{"stu-1", "stu-2", "stu-3"} {
		s, ok := f.students[id]
		if ok && s.ParentID != nil && *s.ParentID == parentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeChildRecords struct {
	attendanceLimit int
	balanceTerm     string
}

func (f *fakeChildRecords) StudentBalance(ctx context.Context, studentID, termID string) (float64, error) {
	f.balanceTerm = termID
	if studentID == "stu-1" {
		return 250, nil
	}
	return 0, nil
}

func (f *fakeChildRecords) ListStudentInvoices(ctx context.Context, studentID string) ([]models.FeeInvoice, error) {
	return []models.FeeInvoice{{ID: "inv-2", InvoiceNumber: "INV-2"}, {ID: "inv-1", InvoiceNumber: "INV-1"}}, nil
}

func (f *fakeChildRecords) ListPublishedByStudent(ctx context.Context, studentID string) ([]models.TerminalReportSummary, error) {
	return []models.TerminalReportSummary{{TermName: "Term 1"}}, nil
}

func (f *fakeChildRecords) ListRecentByStudent(ctx context.Context, studentID string, limit int) ([]models.Attendance, error) {
	f.attendanceLimit = limit
	return []models.Attendance{{StudentID: studentID, Status: models.AttendancePresent}}, nil
}

func (f *fakeChildRecords) ListByStudentTerm(ctx context.Context, studentID, termID string) ([]models.AssessmentDetail, error) {
	return []models.AssessmentDetail{{SubjectName: "Mathematics"}}, nil
}

func newParentService() (*ParentService, *fakeChildRecords, *fakePeriods) {
	parent := "parent-1"
	other := "parent-2"
	students := &fakeChildren{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", SchoolID: testSchoolID, ParentID: &parent, FirstName: "Ama", LastName: "Mensah"},
		"stu-2": {ID: "stu-2", SchoolID: testSchoolID, ParentID: &parent, FirstName: "Yaw", LastName: "Mensah"},
		"stu-3": {ID: "stu-3", SchoolID: testSchoolID, ParentID: &other, FirstName: "Kofi", LastName: "Owusu"},
	}}
	enrollments := &fakeEnrollmentRepo{current: map[string]*models.Enrollment{
		"stu-1": {ID: "enr-1", StudentID: "stu-1", ClassName: "JHS 2A"},
	}}
	records := &fakeChildRecords{}
	periods := newFakePeriods()
	svc := NewParentService(ParentServiceDeps{
		Students:    students,
		Enrollments: enrollments,
		Fees:        records,
		Reports:     records,
		Attendance:  records,
		Assessments: records,
		Periods:     periods,
	})
	return svc, records, periods
}

func TestParentServiceHome(t *testing.T) {
	svc, records, _ := newParentService()
	home, err := svc.Home(context.Background(), parentActor("parent-1"))
	require.NoError(t, err)
	require.Len(t, home.Children, 2)
	assert.Equal(t, "Ama Mensah", home.Children[0].FullName)
	require.NotNil(t, home.Children[0].Enrollment)
	assert.Equal(t, "JHS 2A", home.Children[0].Enrollment.ClassName)
	assert.Equal(t, 250.0, home.Children[0].Balance)
	assert.Nil(t, home.Children[1].Enrollment)
	assert.Equal(t, "term-1", records.balanceTerm)
}

func TestParentServiceHomeWithoutAcademicYear(t *testing.T) {
	svc, _, periods := newParentService()
	periods.year = nil
	home, err := svc.Home(context.Background(), parentActor("parent-1"))
	require.NoError(t, err)
	assert.Len(t, home.Children, 2)
	assert.Zero(t, home.Children[0].Balance)
}

func TestParentServiceChildScope(t *testing.T) {
	svc, records, _ := newParentService()
	ctx := context.Background()

	_, err := svc.Results(ctx, parentActor("parent-1"), "stu-3")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	_, err = svc.Fees(ctx, parentActor("parent-1"), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	attendance, err := svc.Attendance(ctx, parentActor("parent-1"), "stu-1")
	require.NoError(t, err)
	assert.Len(t, attendance.Records, 1)
	assert.Equal(t, 30, records.attendanceLimit)

	profile, err := svc.Child(ctx, parentActor("parent-1"), "stu-1")
	require.NoError(t, err)
	require.NotNil(t, profile.LatestInvoice)
	assert.Equal(t, "INV-2", profile.LatestInvoice.InvoiceNumber)
	assert.Len(t, profile.RecentAssessments, 1)

	results, err := svc.Results(ctx, parentActor("parent-1"), "stu-2")
	require.NoError(t, err)
	assert.Len(t, results.Reports, 1)
}

func TestParentServiceRequiresParentProfile(t *testing.T) {
	svc, _, _ := newParentService()
	_, err := svc.Home(context.Background(), adminActor())
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
