package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

type attendanceRepository interface {
	ListByClassDate(ctx context.Context, classID string, date time.Time) ([]models.Attendance, error)
	SaveRegister(ctx context.Context, records []models.Attendance) error
}

// AttendanceService records and reads the daily class register.
type AttendanceService struct {
	repo       attendanceRepository
	classes    classLookup
	rosters    rosterRepository
	periods    periodProvider
	dashboards dashboardInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, classes classLookup, rosters rosterRepository, periods periodProvider, dashboards dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:       repo,
		classes:    classes,
		rosters:    rosters,
		periods:    periods,
		dashboards: dashboards,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// Register returns the class roster for the current year with the marks recorded on date.
func (s *AttendanceService) Register(ctx context.Context, actor Actor, classID, date string) (*models.AttendanceRegister, error) {
	if _, err := s.markableClass(ctx, actor, classID); err != nil {
		return nil, err
	}
	day, err := s.parseDay(date)
	if err != nil {
		return nil, err
	}
	period, err := s.periods.Current(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	roster, err := s.rosters.Roster(ctx, classID, period.Year.ID)
	if err != nil {
		return nil, internalError(err, "failed to load class roster")
	}
	records, err := s.repo.ListByClassDate(ctx, classID, day)
	if err != nil {
		return nil, internalError(err, "failed to load attendance")
	}
	marks := make(map[string]models.AttendanceStatus, len(records))
	for _, r := range records {
		marks[r.StudentID] = r.Status
	}
	register := &models.AttendanceRegister{ClassID: classID, Date: day, Rows: make([]models.AttendanceRegisterRow, 0, len(roster))}
	for _, student := range roster {
		row := models.AttendanceRegisterRow{Student: student}
		if status, ok := marks[student.StudentID]; ok {
			status := status
			row.Status = &status
		}
		register.Rows = append(register.Rows, row)
	}
	return register, nil
}

// Record saves the register for one day. Every entry must be a student enrolled
// in the class this year; dates in the future are rejected.
func (s *AttendanceService) Record(ctx context.Context, actor Actor, classID string, req models.RecordAttendanceRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, validationError(err, "invalid attendance payload")
	}
	if _, err := s.markableClass(ctx, actor, classID); err != nil {
		return 0, err
	}
	day, err := s.parseDay(req.Date)
	if err != nil {
		return 0, err
	}
	if day.After(s.now().UTC()) {
		return 0, appErrors.Clone(appErrors.ErrFutureDate, "attendance cannot be recorded for a future date")
	}
	period, err := s.periods.Current(ctx, actor.SchoolID)
	if err != nil {
		return 0, err
	}
	roster, err := s.rosters.Roster(ctx, classID, period.Year.ID)
	if err != nil {
		return 0, internalError(err, "failed to load class roster")
	}
	enrolled := make(map[string]bool, len(roster))
	for _, student := range roster {
		enrolled[student.StudentID] = true
	}

	var recordedBy *string
	if actor.UserID != "" {
		id := actor.UserID
		recordedBy = &id
	}
	seen := make(map[string]bool, len(req.Entries))
	records := make([]models.Attendance, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if !enrolled[entry.StudentID] {
			return 0, appErrors.Clone(appErrors.ErrStudentNotEnrolled, "student "+entry.StudentID+" is not enrolled in this class")
		}
		if seen[entry.StudentID] {
			continue
		}
		seen[entry.StudentID] = true
		records = append(records, models.Attendance{
			StudentID:    entry.StudentID,
			ClassID:      classID,
			Date:         day,
			Status:       entry.Status,
			Remarks:      trimmed(entry.Remarks),
			RecordedByID: recordedBy,
		})
	}
	if err := s.repo.SaveRegister(ctx, records); err != nil {
		return 0, internalError(err, "failed to save attendance")
	}
	if s.dashboards != nil {
		s.dashboards.InvalidateDashboards(ctx, actor.SchoolID)
	}
	s.logger.Info("attendance recorded",
		zap.String("class_id", classID),
		zap.String("date", day.Format(dateLayout)),
		zap.Int("count", len(records)),
	)
	return len(records), nil
}

// markableClass loads a class whose register the caller may keep: admins for
// any class of the school, teachers only as its class teacher.
func (s *AttendanceService) markableClass(ctx context.Context, actor Actor, classID string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	if class.SchoolID != actor.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	if !actor.IsAdmin() && (class.ClassTeacherID == nil || *class.ClassTeacherID != actor.StaffID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only keep the register for your own class")
	}
	return class, nil
}

// parseDay reads a YYYY-MM-DD date; empty means today.
func (s *AttendanceService) parseDay(raw string) (time.Time, error) {
	if raw == "" {
		return s.now().UTC().Truncate(24 * time.Hour), nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, validationError(err, "date must be formatted as YYYY-MM-DD")
	}
	return day, nil
}
