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

type fakeClassRepo struct {
	classes map[string]*models.Class
}

func (f *fakeClassRepo) ListActive(ctx context.Context, schoolID, academicYearID string) ([]models.ClassListItem, error) {
	items := []models.ClassListItem{}
	for _, c := range f.classes {
		if c.SchoolID == schoolID {
			items = append(items, models.ClassListItem{Class: *c, StudentCount: 2})
		}
	}
	return items, nil
}

func (f *fakeClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := f.classes[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeClassRepo) Create(ctx context.Context, class *models.Class) error {
	class.ID = "class-new"
	f.classes[class.ID] = class
	return nil
}

func (f *fakeClassRepo) Update(ctx context.Context, class *models.Class) error {
	f.classes[class.ID] = class
	return nil
}

type fakeSubjectRepo struct {
	subjects []models.Subject
}

func (f *fakeSubjectRepo) ListActive(ctx context.Context, schoolID string) ([]models.Subject, error) {
	return f.subjects, nil
}

func (f *fakeSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = "subject-new"
	f.subjects = append(f.subjects, *subject)
	return nil
}

type fakeClassSubjectRepo struct {
	assigned map[string][]models.ClassSubject
}

func (f *fakeClassSubjectRepo) ListByClass(ctx context.Context, classID, academicYearID string) ([]models.ClassSubjectDetail, error) {
	details := []models.ClassSubjectDetail{}
	for _, cs := range f.assigned[classID] {
		details = append(details, models.ClassSubjectDetail{ClassSubject: cs})
	}
	return details, nil
}

func (f *fakeClassSubjectRepo) ReplaceForClass(ctx context.Context, classID, academicYearID string, assignments []models.ClassSubject) error {
	f.assigned[classID] = assignments
	return nil
}

type fakeRosterRepo struct {
	rosters map[string][]models.EnrolledStudent
}

func (f *fakeRosterRepo) Roster(ctx context.Context, classID, academicYearID string) ([]models.EnrolledStudent, error) {
	return f.rosters[classID], nil
}

func newClassService() (*ClassService, *fakeClassRepo, *fakeClassSubjectRepo, *fakePeriods) {
	classes := &fakeClassRepo{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", SchoolID: testSchoolID, Name: "JHS 2A", Level: "JHS", Capacity: 40, Active: true},
		"class-x": {ID: "class-x", SchoolID: "school-2", Name: "JHS 1", Level: "JHS"},
	}}
	classSubjects := &fakeClassSubjectRepo{assigned: map[string][]models.ClassSubject{}}
	rosters := &fakeRosterRepo{rosters: map[string][]models.EnrolledStudent{
		"class-1": {
			{StudentID: "stu-1", FirstName: "Ama", LastName: "Mensah", Gender: "female"},
			{StudentID: "stu-2", FirstName: "Kofi", LastName: "Owusu", Gender: "male"},
			{StudentID: "stu-3", FirstName: "Esi", LastName: "Quaye", Gender: "female"},
		},
	}}
	periods := newFakePeriods()
	svc := NewClassService(classes, &fakeSubjectRepo{}, classSubjects, rosters, periods, nil, nil)
	return svc, classes, classSubjects, periods
}

func TestClassServiceGetCountsGender(t *testing.T) {
	svc, _, _, _ := newClassService()
	detail, err := svc.Get(context.Background(), adminActor(), "class-1")
	require.NoError(t, err)
	assert.Len(t, detail.Students, 3)
	assert.Equal(t, 1, detail.MaleCount)
	assert.Equal(t, 2, detail.FemaleCount)

	_, err = svc.Get(context.Background(), adminActor(), "class-x")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassServiceGetWithoutYearHasEmptyRoster(t *testing.T) {
	svc, _, _, periods := newClassService()
	periods.year = nil
	detail, err := svc.Get(context.Background(), adminActor(), "class-1")
	require.NoError(t, err)
	assert.Empty(t, detail.Students)
	assert.NotNil(t, detail.Subjects)
}

func TestClassServiceCreateNormalisesLevel(t *testing.T) {
	svc, classes, _, _ := newClassService()
	class, err := svc.Create(context.Background(), adminActor(), models.ClassRequest{Name: " Primary 4B ", Level: "primary"})
	require.NoError(t, err)
	assert.Equal(t, "Primary 4B", class.Name)
	assert.Equal(t, "PRIMARY", class.Level)
	assert.Equal(t, 40, class.Capacity)
	assert.Equal(t, testSchoolID, classes.classes["class-new"].SchoolID)
}

func TestClassServiceAssignSubjects(t *testing.T) {
	svc, _, classSubjects, _ := newClassService()
	subjects, err := svc.AssignSubjects(context.Background(), adminActor(), "class-1", models.AssignSubjectsRequest{Assignments: []models.SubjectAssignment{
		{SubjectID: "maths", TeacherID: strPtr("staff-1")},
		{SubjectID: "english"},
	}})
	require.NoError(t, err)
	assert.Len(t, subjects, 2)
	assert.Equal(t, "year-1", classSubjects.assigned["class-1"][0].AcademicYearID)

	_, err = svc.AssignSubjects(context.Background(), adminActor(), "class-1", models.AssignSubjectsRequest{Assignments: []models.SubjectAssignment{
		{SubjectID: "maths"}, {SubjectID: "maths"},
	}})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassServiceSubjects(t *testing.T) {
	svc, _, _, _ := newClassService()
	subject, err := svc.CreateSubject(context.Background(), adminActor(), models.CreateSubjectRequest{Name: "Integrated Science", Code: strPtr("SCI"), IsCore: true})
	require.NoError(t, err)
	assert.True(t, subject.Active)
	subjects, err := svc.Subjects(context.Background(), adminActor())
	require.NoError(t, err)
	assert.Len(t, subjects, 1)
}
