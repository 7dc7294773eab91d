package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

type fakeStudentRepo struct {
	students   map[string]*models.Student
	count      int
	lastFilter models.StudentFilter
	admitted   *models.Enrollment
	parent     *models.Parent
}

func (f *fakeStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentListItem, int, error) {
	f.lastFilter = filter
	items := make([]models.StudentListItem, 0, len(f.students))
	for _, s := range f.students {
		items = append(items, models.StudentListItem{Student: *s})
	}
	return items, len(items), nil
}

func (f *fakeStudentRepo) Search(ctx context.Context, schoolID, academicYearID, q string, limit int) ([]models.StudentSearchResult, error) {
	return []models.StudentSearchResult{{ID: "stu-1", Name: "Ama Mensah"}}, nil
}

func (f *fakeStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) CountBySchool(ctx context.Context, schoolID string) (int, error) {
	return f.count, nil
}

func (f *fakeStudentRepo) CreateAdmission(ctx context.Context, parent *models.Parent, student *models.Student, enrollment *models.Enrollment) error {
	student.ID = "stu-new"
	if parent != nil {
		parent.ID = "parent-new"
		student.ParentID = &parent.ID
	}
	f.parent = parent
	f.admitted = enrollment
	f.students[student.ID] = student
	return nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	f.students[student.ID] = student
	return nil
}

func (f *fakeStudentRepo) UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error {
	f.students[id].Status = status
	return nil
}

type fakeParentRepo struct {
	parents map[string]*models.Parent
}

func (f *fakeParentRepo) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	if p, ok := f.parents[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeParentRepo) Update(ctx context.Context, parent *models.Parent) error {
	f.parents[parent.ID] = parent
	return nil
}

type fakeEnrollmentRepo struct {
	current map[string]*models.Enrollment
}

func (f *fakeEnrollmentRepo) FindCurrent(ctx context.Context, studentID, academicYearID string) (*models.Enrollment, error) {
	if e, ok := f.current[studentID]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	if e, ok := f.current[studentID]; ok {
		return []models.Enrollment{*e}, nil
	}
	return []models.Enrollment{}, nil
}

func (f *fakeEnrollmentRepo) Upsert(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.ID = "enr-" + enrollment.StudentID
	f.current[enrollment.StudentID] = enrollment
	return nil
}

type fakeClassLookup struct {
	classes map[string]*models.Class
}

func (f *fakeClassLookup) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := f.classes[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type fakeAccountRepo struct {
	users  map[string]*models.User
	emails map[string]bool
}

func (f *fakeAccountRepo) FindByParentID(ctx context.Context, parentID string) (*models.User, error) {
	for _, u := range f.users {
		if u.ParentID != nil && *u.ParentID == parentID {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAccountRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return f.emails[email], nil
}

func (f *fakeAccountRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "user-" + *user.ParentID
	f.users[user.ID] = user
	f.emails[user.Email] = true
	return nil
}

func (f *fakeAccountRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	f.users[id].PasswordHash = hash
	return nil
}

func (f *fakeAccountRepo) SetActive(ctx context.Context, id string, active bool) error {
	f.users[id].Active = active
	return nil
}

type studentFixture struct {
	svc      *StudentService
	students *fakeStudentRepo
	parents  *fakeParentRepo
	enrolls  *fakeEnrollmentRepo
	users    *fakeAccountRepo
	periods  *fakePeriods
}

func newStudentFixture() *studentFixture {
	parentID := "parent-1"
	f := &studentFixture{
		students: &fakeStudentRepo{students: map[string]*models.Student{
			"stu-1": {ID: "stu-1", SchoolID: testSchoolID, ParentID: &parentID, StudentNumber: "STU0010001", FirstName: "Ama", LastName: "Mensah", Status: models.StudentStatusActive},
			"stu-2": {ID: "stu-2", SchoolID: "school-2", FirstName: "Kofi", LastName: "Owusu"},
		}, count: 41},
		parents: &fakeParentRepo{parents: map[string]*models.Parent{
			parentID: {ID: parentID, SchoolID: testSchoolID, FatherPhone: strPtr("0244000001"), PrimaryContactPhone: strPtr("0244000001")},
		}},
		enrolls: &fakeEnrollmentRepo{current: map[string]*models.Enrollment{}},
		users:   &fakeAccountRepo{users: map[string]*models.User{}, emails: map[string]bool{}},
		periods: newFakePeriods(),
	}
	classes := &fakeClassLookup{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", SchoolID: testSchoolID, Name: "Primary 6A", Level: "PRIMARY"},
		"class-x": {ID: "class-x", SchoolID: "school-2", Name: "JHS 1"},
	}}
	f.svc = NewStudentService(f.students, f.parents, f.enrolls, classes, f.users, f.periods, nil, nil)
	f.svc.now = func() time.Time { return time.Date(2025, 9, 10, 14, 0, 0, 0, time.UTC) }
	return f
}

func TestStudentServiceCreateAssignsNumberAndEnrols(t *testing.T) {
	f := newStudentFixture()
	detail, err := f.svc.Create(context.Background(), adminActor(), models.CreateStudentRequest{
		FirstName:     " Yaw ",
		LastName:      "Boateng",
		Gender:        "male",
		DateOfBirth:   "2014-03-02",
		ClassID:       "class-1",
		FatherName:    strPtr("Kwame Boateng"),
		FatherPhone:   strPtr("0201112222"),
		GuardianPhone: strPtr("0553334444"),
		MotherEmail:   strPtr("Efua@Example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "STU0010042", detail.StudentNumber)
	assert.Equal(t, "Yaw", detail.FirstName)
	assert.Equal(t, "Ghanaian", detail.Nationality)
	assert.Equal(t, models.StudentStatusActive, detail.Status)
	assert.Equal(t, time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC), detail.AdmissionDate)

	require.NotNil(t, f.students.parent)
	assert.Equal(t, "0553334444", *f.students.parent.PrimaryContactPhone)
	assert.Equal(t, "efua@example.com", *f.students.parent.MotherEmail)

	require.NotNil(t, f.students.admitted)
	assert.Equal(t, "class-1", f.students.admitted.ClassID)
	assert.Equal(t, "year-1", f.students.admitted.AcademicYearID)
}

func TestStudentServiceCreateNormalisesFamilyEmails(t *testing.T) {
	f := newStudentFixture()
	_, err := f.svc.Create(context.Background(), adminActor(), models.CreateStudentRequest{
		FirstName:     "Yaw",
		LastName:      "Boateng",
		Gender:        "male",
		DateOfBirth:   "2014-03-02",
		FatherPhone:   strPtr("0201112222"),
		FatherEmail:   strPtr(""),
		MotherEmail:   strPtr(" Efua@Example.com "),
		GuardianEmail: strPtr("   "),
	})
	require.NoError(t, err)
	require.NotNil(t, f.students.parent)
	assert.Nil(t, f.students.parent.FatherEmail)
	assert.Nil(t, f.students.parent.GuardianEmail)
	require.NotNil(t, f.students.parent.MotherEmail)
	assert.Equal(t, "efua@example.com", *f.students.parent.MotherEmail)
}

func TestStudentServiceCreateRejectsForeignClass(t *testing.T) {
	f := newStudentFixture()
	_, err := f.svc.Create(context.Background(), adminActor(), models.CreateStudentRequest{
		FirstName: "Yaw", LastName: "Boateng", Gender: "male", DateOfBirth: "2014-03-02", ClassID: "class-x",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateValidatesPayload(t *testing.T) {
	f := newStudentFixture()
	_, err := f.svc.Create(context.Background(), adminActor(), models.CreateStudentRequest{FirstName: "Yaw", Gender: "other"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceListDefaultsToActive(t *testing.T) {
	f := newStudentFixture()
	f.periods.year = nil
	_, pagination, err := f.svc.List(context.Background(), adminActor(), models.StudentFilter{Search: "  ama "})
	require.NoError(t, err)
	assert.Equal(t, "active", f.students.lastFilter.Status)
	assert.Equal(t, "ama", f.students.lastFilter.Search)
	assert.Empty(t, f.students.lastFilter.AcademicYearID)
	assert.Equal(t, models.DefaultPageSize, pagination.PageSize)
}

func TestStudentServiceSearchShortQuery(t *testing.T) {
	f := newStudentFixture()
	results, err := f.svc.Search(context.Background(), adminActor(), "a", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = f.svc.Search(context.Background(), adminActor(), "am", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestStudentServiceGetScopesBySchoolAndParent(t *testing.T) {
	f := newStudentFixture()
	ctx := context.Background()

	_, err := f.svc.Get(ctx, adminActor(), "stu-2")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Get(ctx, parentActor("parent-9"), "stu-1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	detail, err := f.svc.Get(ctx, parentActor("parent-1"), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Ama Mensah", detail.FullName)
	require.NotNil(t, detail.Parent)
	assert.False(t, detail.HasParentAccount)
}

func TestStudentServiceEnrollMovesClass(t *testing.T) {
	f := newStudentFixture()
	enrollment, err := f.svc.Enroll(context.Background(), adminActor(), "stu-1", models.EnrollStudentRequest{ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, "class-1", enrollment.ClassID)
	assert.Equal(t, "year-1", enrollment.AcademicYearID)
}

func TestStudentServiceEnrollWithoutYear(t *testing.T) {
	f := newStudentFixture()
	f.periods.year = nil
	_, err := f.svc.Enroll(context.Background(), adminActor(), "stu-1", models.EnrollStudentRequest{ClassID: "class-1"})
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdateStatus(t *testing.T) {
	f := newStudentFixture()
	err := f.svc.UpdateStatus(context.Background(), adminActor(), "stu-1", models.UpdateStudentStatusRequest{Status: models.StudentStatusGraduated})
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusGraduated, f.students.students["stu-1"].Status)

	err = f.svc.UpdateStatus(context.Background(), adminActor(), "stu-1", models.UpdateStudentStatusRequest{Status: "expelled"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceParentAccountLifecycle(t *testing.T) {
	f := newStudentFixture()
	ctx := context.Background()

	_, err := f.svc.ManageParentAccount(ctx, adminActor(), "stu-1", models.ParentAccountRequest{Action: models.ParentActionCreateAccount, Password: "123"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	view, err := f.svc.ManageParentAccount(ctx, adminActor(), "stu-1", models.ParentAccountRequest{Action: models.ParentActionCreateAccount, Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "parent_0244000001@school.local", view.Email)
	assert.True(t, view.Active)
	assert.True(t, view.Exists)

	_, err = f.svc.ManageParentAccount(ctx, adminActor(), "stu-1", models.ParentAccountRequest{Action: models.ParentActionCreateAccount, Password: "secret1"})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	view, err = f.svc.ManageParentAccount(ctx, adminActor(), "stu-1", models.ParentAccountRequest{Action: models.ParentActionToggleActive})
	require.NoError(t, err)
	assert.False(t, view.Active)

	_, err = f.svc.ManageParentAccount(ctx, adminActor(), "stu-1", models.ParentAccountRequest{Action: models.ParentActionResetPassword, Password: "newpass"})
	require.NoError(t, err)
	assert.NotEmpty(t, f.users.users[view.UserID].PasswordHash)
}

func TestStudentServiceParentEmailFallsBackToParentID(t *testing.T) {
	f := newStudentFixture()
	f.users.emails["parent_0244000001@school.local"] = true
	view, err := f.svc.ManageParentAccount(context.Background(), adminActor(), "stu-1", models.ParentAccountRequest{Action: models.ParentActionCreateAccount, Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "parent_parent-1@school.local", view.Email)
}

func TestStudentServiceResetWithoutAccount(t *testing.T) {
	f := newStudentFixture()
	_, err := f.svc.ManageParentAccount(context.Background(), adminActor(), "stu-1", models.ParentAccountRequest{Action: models.ParentActionResetPassword, Password: "secret1"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestNumberFormats(t *testing.T) {
	assert.Equal(t, "STU0010042", StudentNumber(1, 42))
	assert.Equal(t, "STF0120007", StaffNumber(12, 7))
}
