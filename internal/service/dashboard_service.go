package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/dto"
	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/repository"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

const (
	recentPaymentsLimit = 5
	topDebtorsLimit     = 10
)

type dashboardCounter interface {
	Counts(ctx context.Context, schoolID string) (repository.SchoolCounts, error)
	GenderBreakdown(ctx context.Context, schoolID string) (map[string]int, error)
}

type dashboardFees interface {
	Totals(ctx context.Context, schoolID, termID string) (models.FeeTotals, error)
	Debtors(ctx context.Context, schoolID, termID string, limit int) ([]models.FeeInvoiceListItem, error)
	RecentPayments(ctx context.Context, schoolID string, limit int) ([]models.PaymentListItem, error)
	PaymentsOn(ctx context.Context, schoolID string, day time.Time) ([]models.PaymentListItem, error)
}

type dashboardAttendance interface {
	DayCounts(ctx context.Context, schoolID string, date time.Time) (present, total int, err error)
}

type dashboardReports interface {
	CountUnpublished(ctx context.Context, schoolID, termID string) (int, error)
}

type dashboardClasses interface {
	ListByClassTeacher(ctx context.Context, staffID string) ([]models.Class, error)
}

type dashboardClassSubjects interface {
	ListForYear(ctx context.Context, schoolID, academicYearID, teacherID string) ([]models.ClassSubjectDetail, error)
}

type dashboardEnrollments interface {
	CountByClasses(ctx context.Context, classIDs []string, academicYearID string) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Counts        dashboardCounter
	Fees          dashboardFees
	Attendance    dashboardAttendance
	Reports       dashboardReports
	Classes       dashboardClasses
	ClassSubjects dashboardClassSubjects
	Enrollments   dashboardEnrollments
	Periods       periodProvider
	Cache         dashboardCache
	CacheTTL      time.Duration
	Logger        *zap.Logger
}

// DashboardService composes the role specific landing pages.
type DashboardService struct {
	params DashboardServiceParams
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	if params.CacheTTL <= 0 {
		params.CacheTTL = 5 * time.Minute
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &DashboardService{params: params, logger: params.Logger, now: time.Now}
}

// Get returns the caller's dashboard, reporting whether it came from cache.
// Parents are sent to the portal instead.
func (s *DashboardService) Get(ctx context.Context, actor Actor) (*dto.DashboardResponse, bool, error) {
	if actor.IsParent() {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "parents use the /parent portal")
	}
	period, err := s.currentPeriod(ctx, actor.SchoolID)
	if err != nil {
		return nil, false, err
	}
	termID := ""
	if period != nil && period.Term != nil {
		termID = period.Term.ID
	}

	key := DashboardKey(actor.SchoolID, actor.Role, actor.UserID, termID)
	if s.params.Cache != nil {
		var cached dto.DashboardResponse
		hit, err := s.params.Cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	resp := &dto.DashboardResponse{TermID: termID, GeneratedAt: s.now().UTC()}
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleHeadteacher:
		resp.Kind = dto.DashboardKindHeadteacher
		resp.Headteacher, err = s.headteacher(ctx, actor, termID)
	case models.RoleAdmin:
		resp.Kind = dto.DashboardKindAdmin
		resp.Admin, err = s.admin(ctx, actor)
	case models.RoleTeacher:
		resp.Kind = dto.DashboardKindTeacher
		resp.Teacher, err = s.teacher(ctx, actor, period)
	case models.RoleAccountsOfficer:
		resp.Kind = dto.DashboardKindAccounts
		resp.Accounts, err = s.accounts(ctx, actor, termID)
	default:
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "no dashboard for this role")
	}
	if err != nil {
		return nil, false, err
	}

	if s.params.Cache != nil {
		if err := s.params.Cache.Set(ctx, key, resp, s.params.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, false, nil
}

func (s *DashboardService) headteacher(ctx context.Context, actor Actor, termID string) (*dto.HeadteacherDashboard, error) {
	counts, err := s.params.Counts.Counts(ctx, actor.SchoolID)
	if err != nil {
		return nil, internalError(err, "failed to load school counts")
	}
	dash := &dto.HeadteacherDashboard{
		TotalStudents:  counts.Students,
		TotalStaff:     counts.Staff,
		TotalClasses:   counts.Classes,
		RecentPayments: []dto.RecentPayment{},
	}
	if termID != "" {
		if dash.PendingReports, err = s.params.Reports.CountUnpublished(ctx, actor.SchoolID, termID); err != nil {
			return nil, internalError(err, "failed to count pending reports")
		}
		if dash.Fees, err = s.feeSummary(ctx, actor.SchoolID, termID); err != nil {
			return nil, err
		}
	}
	present, total, err := s.params.Attendance.DayCounts(ctx, actor.SchoolID, s.today())
	if err != nil {
		return nil, internalError(err, "failed to load today's attendance")
	}
	dash.AttendanceRate = percentage(float64(present), float64(total))

	payments, err := s.params.Fees.RecentPayments(ctx, actor.SchoolID, recentPaymentsLimit)
	if err != nil {
		return nil, internalError(err, "failed to load recent payments")
	}
	dash.RecentPayments = recentPayments(payments)

	if dash.GenderBreakdown, err = s.params.Counts.GenderBreakdown(ctx, actor.SchoolID); err != nil {
		return nil, internalError(err, "failed to load gender breakdown")
	}
	return dash, nil
}

func (s *DashboardService) admin(ctx context.Context, actor Actor) (*dto.AdminDashboard, error) {
	counts, err := s.params.Counts.Counts(ctx, actor.SchoolID)
	if err != nil {
		return nil, internalError(err, "failed to load school counts")
	}
	return &dto.AdminDashboard{TotalStudents: counts.Students, TotalStaff: counts.Staff}, nil
}

func (s *DashboardService) teacher(ctx context.Context, actor Actor, period *models.Period) (*dto.TeacherDashboard, error) {
	dash := &dto.TeacherDashboard{MyClasses: []models.Class{}, MySubjects: []models.ClassSubjectDetail{}}
	if actor.StaffID == "" {
		return dash, nil
	}
	classes, err := s.params.Classes.ListByClassTeacher(ctx, actor.StaffID)
	if err != nil {
		return nil, internalError(err, "failed to load classes")
	}
	dash.MyClasses = classes
	if period == nil {
		return dash, nil
	}
	if dash.MySubjects, err = s.params.ClassSubjects.ListForYear(ctx, actor.SchoolID, period.Year.ID, actor.StaffID); err != nil {
		return nil, internalError(err, "failed to load class subjects")
	}
	ids := make([]string, 0, len(classes))
	for _, c := range classes {
		ids = append(ids, c.ID)
	}
	if dash.StudentCount, err = s.params.Enrollments.CountByClasses(ctx, ids, period.Year.ID); err != nil {
		return nil, internalError(err, "failed to count students")
	}
	return dash, nil
}

func (s *DashboardService) accounts(ctx context.Context, actor Actor, termID string) (*dto.AccountsDashboard, error) {
	dash := &dto.AccountsDashboard{TopDebtors: []dto.DebtorEntry{}, TodayPayments: []dto.RecentPayment{}}
	var err error
	if termID != "" {
		if dash.Fees, err = s.feeSummary(ctx, actor.SchoolID, termID); err != nil {
			return nil, err
		}
		debtors, err := s.params.Fees.Debtors(ctx, actor.SchoolID, termID, topDebtorsLimit)
		if err != nil {
			return nil, internalError(err, "failed to load debtors")
		}
		for _, d := range debtors {
			dash.TopDebtors = append(dash.TopDebtors, dto.DebtorEntry{
				InvoiceID:     d.ID,
				InvoiceNumber: d.InvoiceNumber,
				StudentName:   d.StudentName,
				StudentNumber: d.StudentNumber,
				Balance:       d.Balance,
			})
		}
	}
	payments, err := s.params.Fees.PaymentsOn(ctx, actor.SchoolID, s.today())
	if err != nil {
		return nil, internalError(err, "failed to load today's payments")
	}
	dash.TodayPayments = recentPayments(payments)
	for _, p := range payments {
		dash.TodayCollected += p.Amount
	}
	dash.TodayCollected = roundTo(dash.TodayCollected, 2)
	return dash, nil
}

func (s *DashboardService) feeSummary(ctx context.Context, schoolID, termID string) (dto.FeeSummary, error) {
	totals, err := s.params.Fees.Totals(ctx, schoolID, termID)
	if err != nil {
		return dto.FeeSummary{}, internalError(err, "failed to load fee totals")
	}
	return dto.FeeSummary{
		Expected:       totals.Expected,
		Collected:      totals.Collected,
		Outstanding:    totals.Outstanding,
		CollectionRate: percentage(totals.Collected, totals.Expected),
	}, nil
}

// currentPeriod returns the current year and term, or nil when no year is configured.
// A year without a current term comes back with a nil Term.
func (s *DashboardService) currentPeriod(ctx context.Context, schoolID string) (*models.Period, error) {
	period, err := s.params.Periods.Current(ctx, schoolID)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrPreconditionFailed.Code {
			return nil, nil
		}
		return nil, err
	}
	return period, nil
}

func (s *DashboardService) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

// percentage returns part/whole as a percentage to one decimal, 0 when whole is 0.
func percentage(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return roundTo(part/whole*100, 1)
}

func recentPayments(payments []models.PaymentListItem) []dto.RecentPayment {
	out := make([]dto.RecentPayment, 0, len(payments))
	for _, p := range payments {
		out = append(out, dto.RecentPayment{
			ReceiptNumber: p.ReceiptNumber,
			StudentName:   p.StudentName,
			Amount:        p.Amount,
			Method:        string(p.PaymentMethod),
			PaidAt:        p.PaymentDate,
		})
	}
	return out
}
