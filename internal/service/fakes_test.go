package service

import (
	"context"
	"time"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

const testSchoolID = "school-1"

type fakePeriods struct {
	school *models.School
	year   *models.AcademicYear
	term   *models.Term
}

func newFakePeriods() *fakePeriods {
	start := time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC)
	return &fakePeriods{
		school: &models.School{ID: testSchoolID, Code: 1, Name: "Accra Basic School"},
		year:   &models.AcademicYear{ID: "year-1", SchoolID: testSchoolID, Name: "2025/2026", IsCurrent: true},
		term: &models.Term{ID: "term-1", AcademicYearID: "year-1", Name: "Term 1", TermNumber: 1,
			StartDate: start, EndDate: start.AddDate(0, 3, 0), IsCurrent: true, AcademicYearName: "2025/2026"},
	}
}

func (f *fakePeriods) School(ctx context.Context, schoolID string) (*models.School, error) {
	if f.school == nil || f.school.ID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
	}
	return f.school, nil
}

func (f *fakePeriods) Current(ctx context.Context, schoolID string) (*models.Period, error) {
	if f.year == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no current academic year configured")
	}
	return &models.Period{Year: *f.year, Term: f.term}, nil
}

func (f *fakePeriods) CurrentTerm(ctx context.Context, schoolID string) (*models.Period, error) {
	period, err := f.Current(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if period.Term == nil {
		return nil, appErrors.Clone(appErrors.ErrNoCurrentTerm, "no current term configured")
	}
	return period, nil
}

func (f *fakePeriods) Term(ctx context.Context, schoolID, termID string) (*models.Term, error) {
	if f.term == nil || f.term.ID != termID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
	}
	return f.term, nil
}

type recordingInvalidator struct {
	schools []string
}

func (r *recordingInvalidator) InvalidateDashboards(ctx context.Context, schoolID string) {
	r.schools = append(r.schools, schoolID)
}

func adminActor() Actor {
	return Actor{UserID: "user-admin", SchoolID: testSchoolID, Role: models.RoleAdmin}
}

func teacherActor(staffID string) Actor {
	return Actor{UserID: "user-" + staffID, SchoolID: testSchoolID, Role: models.RoleTeacher, StaffID: staffID}
}

func parentActor(parentID string) Actor {
	return Actor{UserID: "user-" + parentID, SchoolID: testSchoolID, Role: models.RoleParent, ParentID: parentID}
}

func strPtr(v string) *string { return &v }
