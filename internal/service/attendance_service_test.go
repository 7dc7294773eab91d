package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

type fakeAttendanceRepo struct {
	saved    []models.Attendance
	existing []models.Attendance
}

func (f *fakeAttendanceRepo) ListByClassDate(ctx context.Context, classID string, date time.Time) ([]models.Attendance, error) {
	return f.existing, nil
}

func (f *fakeAttendanceRepo) SaveRegister(ctx context.Context, records []models.Attendance) error {
	f.saved = records
	return nil
}

func newAttendanceService() (*AttendanceService, *fakeAttendanceRepo, *recordingInvalidator) {
	teacher := "staff-1"
	repo := &fakeAttendanceRepo{}
	classes := &fakeClassLookup{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", SchoolID: testSchoolID, Name: "Primary 3", ClassTeacherID: &teacher},
	}}
	rosters := &fakeRosterRepo{rosters: map[string][]models.EnrolledStudent{
		"class-1": {{StudentID: "stu-1", FirstName: "Ama"}, {StudentID: "stu-2", FirstName: "Kofi"}},
	}}
	dashboards := &recordingInvalidator{}
	svc := NewAttendanceService(repo, classes, rosters, newFakePeriods(), dashboards, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 10, 6, 10, 0, 0, 0, time.UTC) }
	return svc, repo, dashboards
}

func TestAttendanceServiceRecord(t *testing.T) {
	svc, repo, dashboards := newAttendanceService()
	count, err := svc.Record(context.Background(), teacherActor("staff-1"), "class-1", models.RecordAttendanceRequest{
		Date: "2025-10-06",
		Entries: []models.AttendanceMark{
			{StudentID: "stu-1", Status: models.AttendancePresent},
			{StudentID: "stu-2", Status: models.AttendanceLate, Remarks: strPtr(" bus delay ")},
			{StudentID: "stu-1", Status: models.AttendanceAbsent},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, repo.saved, 2)
	assert.Equal(t, models.AttendancePresent, repo.saved[0].Status)
	assert.Equal(t, "bus delay", *repo.saved[1].Remarks)
	assert.Equal(t, "user-staff-1", *repo.saved[0].RecordedByID)
	assert.Equal(t, []string{testSchoolID}, dashboards.schools)
}

func TestAttendanceServiceRecordRejections(t *testing.T) {
	svc, repo, _ := newAttendanceService()
	ctx := context.Background()
	mark := []models.AttendanceMark{{StudentID: "stu-1", Status: models.AttendancePresent}}

	_, err := svc.Record(ctx, teacherActor("staff-2"), "class-1", models.RecordAttendanceRequest{Date: "2025-10-06", Entries: mark})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Record(ctx, adminActor(), "class-1", models.RecordAttendanceRequest{Date: "2025-10-07", Entries: mark})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrFutureDate))

	_, err = svc.Record(ctx, adminActor(), "class-1", models.RecordAttendanceRequest{
		Date:    "2025-10-06",
		Entries: []models.AttendanceMark{{StudentID: "stu-9", Status: models.AttendancePresent}},
	})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStudentNotEnrolled))

	_, err = svc.Record(ctx, adminActor(), "class-1", models.RecordAttendanceRequest{
		Date:    "2025-10-06",
		Entries: []models.AttendanceMark{{StudentID: "stu-1", Status: "sick"}},
	})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.saved)
}

func TestAttendanceServiceRegisterMergesMarks(t *testing.T) {
	svc, repo, _ := newAttendanceService()
	repo.existing = []models.Attendance{{StudentID: "stu-2", Status: models.AttendanceAbsent}}

	register, err := svc.Register(context.Background(), adminActor(), "class-1", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC), register.Date)
	require.Len(t, register.Rows, 2)
	assert.Nil(t, register.Rows[0].Status)
	require.NotNil(t, register.Rows[1].Status)
	assert.Equal(t, models.AttendanceAbsent, *register.Rows[1].Status)

	_, err = svc.Register(context.Background(), adminActor(), "class-1", "06/10/2025")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
