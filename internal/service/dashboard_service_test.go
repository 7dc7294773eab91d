package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/dto"
	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/repository"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

type fakeDashboardSource struct {
	countCalls int
	day        time.Time
	debtLimit  int
	totals     models.FeeTotals
	yearIDs    []string
}

func (f *fakeDashboardSource) Counts(ctx context.Context, schoolID string) (repository.SchoolCounts, error) {
	f.countCalls++
	return repository.SchoolCounts{Students: 420, Staff: 31, Classes: 14}, nil
}

func (f *fakeDashboardSource) GenderBreakdown(ctx context.Context, schoolID string) (map[string]int, error) {
	return map[string]int{"male": 200, "female": 220}, nil
}

func (f *fakeDashboardSource) Totals(ctx context.Context, schoolID, termID string) (models.FeeTotals, error) {
	return f.totals, nil
}

func (f *fakeDashboardSource) Debtors(ctx context.Context, schoolID, termID string, limit int) ([]models.FeeInvoiceListItem, error) {
	f.debtLimit = limit
	return []models.FeeInvoiceListItem{{FeeInvoice: models.FeeInvoice{ID: "inv-1", InvoiceNumber: "INV-1", Balance: 300}, StudentName: "Ama Mensah"}}, nil
}

func (f *fakeDashboardSource) RecentPayments(ctx context.Context, schoolID string, limit int) ([]models.PaymentListItem, error) {
	return []models.PaymentListItem{{Payment: models.Payment{ReceiptNumber: "RCT-1", Amount: 100, PaymentMethod: models.PaymentMethodCash}}}, nil
}

func (f *fakeDashboardSource) PaymentsOn(ctx context.Context, schoolID string, day time.Time) ([]models.PaymentListItem, error) {
	f.day = day
	return []models.PaymentListItem{
		{Payment: models.Payment{ReceiptNumber: "RCT-2", Amount: 120.1}},
		{Payment: models.Payment{ReceiptNumber: "RCT-3", Amount: 79.9}},
	}, nil
}

func (f *fakeDashboardSource) DayCounts(ctx context.Context, schoolID string, date time.Time) (int, int, error) {
	return 2, 3, nil
}

func (f *fakeDashboardSource) CountUnpublished(ctx context.Context, schoolID, termID string) (int, error) {
	return 12, nil
}

func (f *fakeDashboardSource) ListByClassTeacher(ctx context.Context, staffID string) ([]models.Class, error) {
	return []models.Class{{ID: "class-1", Name: "JHS 2A"}}, nil
}

func (f *fakeDashboardSource) ListForYear(ctx context.Context, schoolID, academicYearID, teacherID string) ([]models.ClassSubjectDetail, error) {
	f.yearIDs = append(f.yearIDs, academicYearID)
	return []models.ClassSubjectDetail{{ClassSubject: models.ClassSubject{ID: "cs-1"}}}, nil
}

func (f *fakeDashboardSource) CountByClasses(ctx context.Context, classIDs []string, academicYearID string) (int, error) {
	return 38 * len(classIDs), nil
}

func newDashboardService(cache dashboardCache) (*DashboardService, *fakeDashboardSource, *fakePeriods) {
	src := &fakeDashboardSource{totals: models.FeeTotals{Expected: 3000, Collected: 1000, Outstanding: 2000}}
	periods := newFakePeriods()
	svc := NewDashboardService(DashboardServiceParams{
		Counts:        src,
		Fees:          src,
		Attendance:    src,
		Reports:       src,
		Classes:       src,
		ClassSubjects: src,
		Enrollments:   src,
		Periods:       periods,
		Cache:         cache,
	})
	svc.now = func() time.Time { return time.Date(2025, 10, 6, 14, 5, 0, 0, time.UTC) }
	return svc, src, periods
}

func TestDashboardHeadteacher(t *testing.T) {
	svc, _, _ := newDashboardService(nil)
	actor := Actor{UserID: "user-ht", SchoolID: testSchoolID, Role: models.RoleHeadteacher}

	resp, cached, err := svc.Get(context.Background(), actor)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, dto.DashboardKindHeadteacher, resp.Kind)
	assert.Equal(t, "term-1", resp.TermID)
	dash := resp.Headteacher
	require.NotNil(t, dash)
	assert.Equal(t, 420, dash.TotalStudents)
	assert.Equal(t, 12, dash.PendingReports)
	assert.Equal(t, 33.3, dash.Fees.CollectionRate)
	assert.Equal(t, 66.7, dash.AttendanceRate)
	assert.Len(t, dash.RecentPayments, 1)
	assert.Equal(t, 220, dash.GenderBreakdown["female"])
}

func TestDashboardAccounts(t *testing.T) {
	svc, src, _ := newDashboardService(nil)
	actor := Actor{UserID: "user-acc", SchoolID: testSchoolID, Role: models.RoleAccountsOfficer}

	resp, _, err := svc.Get(context.Background(), actor)
	require.NoError(t, err)
	require.NotNil(t, resp.Accounts)
	assert.Equal(t, 10, src.debtLimit)
	assert.Equal(t, time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC), src.day)
	assert.Len(t, resp.Accounts.TopDebtors, 1)
	assert.Len(t, resp.Accounts.TodayPayments, 2)
	assert.Equal(t, 200.0, resp.Accounts.TodayCollected)
}

func TestDashboardTeacher(t *testing.T) {
	svc, src, _ := newDashboardService(nil)
	resp, _, err := svc.Get(context.Background(), teacherActor("staff-1"))
	require.NoError(t, err)
	require.NotNil(t, resp.Teacher)
	assert.Len(t, resp.Teacher.MyClasses, 1)
	assert.Len(t, resp.Teacher.MySubjects, 1)
	assert.Equal(t, 38, resp.Teacher.StudentCount)
	assert.Equal(t, []string{"year-1"}, src.yearIDs)
}

func TestDashboardWithoutTermZeroesFees(t *testing.T) {
	svc, _, periods := newDashboardService(nil)
	periods.term = nil
	actor := Actor{UserID: "user-acc", SchoolID: testSchoolID, Role: models.RoleAccountsOfficer}

	resp, _, err := svc.Get(context.Background(), actor)
	require.NoError(t, err)
	assert.Empty(t, resp.TermID)
	assert.Equal(t, dto.FeeSummary{}, resp.Accounts.Fees)
	assert.Empty(t, resp.Accounts.TopDebtors)
}

func TestDashboardParentForbidden(t *testing.T) {
	svc, _, _ := newDashboardService(nil)
	_, _, err := svc.Get(context.Background(), parentActor("parent-1"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDashboardCachesPerUser(t *testing.T) {
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, zap.NewNop(), true)
	svc, src, _ := newDashboardService(cache)
	ctx := context.Background()

	_, cached, err := svc.Get(ctx, adminActor())
	require.NoError(t, err)
	assert.False(t, cached)
	_, cached, err = svc.Get(ctx, adminActor())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, src.countCalls)

	cache.InvalidateDashboards(ctx, testSchoolID)
	_, cached, err = svc.Get(ctx, adminActor())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, src.countCalls)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, percentage(5, 0))
	assert.Equal(t, 50.0, percentage(1, 2))
	assert.Equal(t, 12.3, percentage(123, 1000))
}
