package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/dto"
	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

const parentAttendanceLimit = 30

type childLookup interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByParent(ctx context.Context, parentID string) ([]models.Student, error)
}

type childFees interface {
	StudentBalance(ctx context.Context, studentID, termID string) (float64, error)
	ListStudentInvoices(ctx context.Context, studentID string) ([]models.FeeInvoice, error)
}

type childReports interface {
	ListPublishedByStudent(ctx context.Context, studentID string) ([]models.TerminalReportSummary, error)
}

type childAttendance interface {
	ListRecentByStudent(ctx context.Context, studentID string, limit int) ([]models.Attendance, error)
}

type childAssessments interface {
	ListByStudentTerm(ctx context.Context, studentID, termID string) ([]models.AssessmentDetail, error)
}

// ParentServiceDeps groups the collaborators of ParentService.
type ParentServiceDeps struct {
	Students    childLookup
	Enrollments currentEnrollmentLookup
	Fees        childFees
	Reports     childReports
	Attendance  childAttendance
	Assessments childAssessments
	Periods     periodProvider
	Logger      *zap.Logger
}

// ParentService serves the parent portal. Every read is limited to the
// caller's own children.
type ParentService struct {
	deps   ParentServiceDeps
	logger *zap.Logger
}

// NewParentService constructs the parent portal service.
func NewParentService(deps ParentServiceDeps) *ParentService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &ParentService{deps: deps, logger: deps.Logger}
}

// Home lists the caller's children with their current class and term balance.
func (s *ParentService) Home(ctx context.Context, actor Actor) (*dto.ParentHomeResponse, error) {
	if actor.ParentID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no parent profile linked to this account")
	}
	children, err := s.deps.Students.ListByParent(ctx, actor.ParentID)
	if err != nil {
		return nil, internalError(err, "failed to list children")
	}
	period, err := s.optionalPeriod(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	resp := &dto.ParentHomeResponse{Children: make([]dto.ParentChildSummary, 0, len(children))}
	for _, child := range children {
		summary := dto.ParentChildSummary{Student: child, FullName: child.FullName()}
		if period != nil {
			if summary.Enrollment, err = s.enrollment(ctx, child.ID, period.Year.ID); err != nil {
				return nil, err
			}
			if period.Term != nil {
				if summary.Balance, err = s.deps.Fees.StudentBalance(ctx, child.ID, period.Term.ID); err != nil {
					return nil, internalError(err, "failed to load fee balance")
				}
			}
		}
		resp.Children = append(resp.Children, summary)
	}
	return resp, nil
}

// Child returns one child's profile with this term's scores and latest invoice.
func (s *ParentService) Child(ctx context.Context, actor Actor, studentID string) (*dto.ParentChildProfile, error) {
	child, err := s.child(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}
	profile := &dto.ParentChildProfile{Student: *child, FullName: child.FullName(), RecentAssessments: []models.AssessmentDetail{}}
	period, err := s.optionalPeriod(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	if period != nil {
		if profile.Enrollment, err = s.enrollment(ctx, child.ID, period.Year.ID); err != nil {
			return nil, err
		}
		if period.Term != nil {
			if profile.RecentAssessments, err = s.deps.Assessments.ListByStudentTerm(ctx, child.ID, period.Term.ID); err != nil {
				return nil, internalError(err, "failed to load assessments")
			}
		}
	}
	invoices, err := s.deps.Fees.ListStudentInvoices(ctx, child.ID)
	if err != nil {
		return nil, internalError(err, "failed to load invoices")
	}
	if len(invoices) > 0 {
		latest := invoices[0]
		profile.LatestInvoice = &latest
	}
	return profile, nil
}

// Results lists the child's published terminal reports, newest term first.
func (s *ParentService) Results(ctx context.Context, actor Actor, studentID string) (*dto.ParentChildResults, error) {
	child, err := s.child(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}
	reports, err := s.deps.Reports.ListPublishedByStudent(ctx, child.ID)
	if err != nil {
		return nil, internalError(err, "failed to load reports")
	}
	return &dto.ParentChildResults{Student: *child, Reports: reports}, nil
}

// Fees lists every invoice raised for the child.
func (s *ParentService) Fees(ctx context.Context, actor Actor, studentID string) (*dto.ParentChildFees, error) {
	child, err := s.child(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}
	invoices, err := s.deps.Fees.ListStudentInvoices(ctx, child.ID)
	if err != nil {
		return nil, internalError(err, "failed to load invoices")
	}
	return &dto.ParentChildFees{Student: *child, Invoices: invoices}, nil
}

// Attendance returns the child's latest register entries.
func (s *ParentService) Attendance(ctx context.Context, actor Actor, studentID string) (*dto.ParentChildAttendance, error) {
	child, err := s.child(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}
	records, err := s.deps.Attendance.ListRecentByStudent(ctx, child.ID, parentAttendanceLimit)
	if err != nil {
		return nil, internalError(err, "failed to load attendance")
	}
	return &dto.ParentChildAttendance{Student: *child, Records: records}, nil
}

func (s *ParentService) child(ctx context.Context, actor Actor, studentID string) (*models.Student, error) {
	student, err := s.deps.Students.FindByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if student.SchoolID != actor.SchoolID || actor.ParentID == "" ||
		student.ParentID == nil || *student.ParentID != actor.ParentID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

func (s *ParentService) enrollment(ctx context.Context, studentID, yearID string) (*models.Enrollment, error) {
	enrollment, err := s.deps.Enrollments.FindCurrent(ctx, studentID, yearID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, internalError(err, "failed to load enrolment")
	}
	return enrollment, nil
}

func (s *ParentService) optionalPeriod(ctx context.Context, schoolID string) (*models.Period, error) {
	period, err := s.deps.Periods.Current(ctx, schoolID)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrPreconditionFailed.Code {
			return nil, nil
		}
		return nil, err
	}
	return period, nil
}
