package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

type staffRepository interface {
	List(ctx context.Context, filter models.StaffFilter) ([]models.StaffListItem, int, error)
	FindByID(ctx context.Context, id string) (*models.StaffListItem, error)
	CountBySchool(ctx context.Context, schoolID string) (int, error)
	CreateWithLogin(ctx context.Context, staff *models.Staff, user *models.User) error
	Update(ctx context.Context, staff *models.Staff) error
	SetActive(ctx context.Context, id string, active bool) error
	ListDepartments(ctx context.Context, schoolID string) ([]models.Department, error)
	CreateDepartment(ctx context.Context, department *models.Department) error
}

type staffLoginLookup interface {
	FindByStaffID(ctx context.Context, staffID string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// StaffService manages employees, their logins and departments.
type StaffService struct {
	repo      staffRepository
	users     staffLoginLookup
	periods   periodProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStaffService constructs a StaffService.
func NewStaffService(repo staffRepository, users staffLoginLookup, periods periodProvider, validate *validator.Validate, logger *zap.Logger) *StaffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{repo: repo, users: users, periods: periods, validator: validate, logger: logger}
}

// List returns a page of staff with department names.
func (s *StaffService) List(ctx context.Context, actor Actor, filter models.StaffFilter) ([]models.StaffListItem, *models.Pagination, error) {
	filter.SchoolID = actor.SchoolID
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = models.DefaultPageSize
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list staff")
	}
	return items, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a staff member with login context.
func (s *StaffService) Get(ctx context.Context, actor Actor, id string) (*models.StaffDetail, error) {
	item, err := s.scoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	detail := &models.StaffDetail{Staff: item.Staff, DepartmentName: item.DepartmentName}
	user, err := s.users.FindByStaffID(ctx, id)
	switch {
	case err == nil:
		detail.UserID = &user.ID
		detail.Role = &user.Role
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, internalError(err, "failed to load staff login")
	}
	return detail, nil
}

// Create registers an employee. A login is created when a role is given,
// using the default password unless one is supplied.
func (s *StaffService) Create(ctx context.Context, actor Actor, req models.CreateStaffRequest) (*models.StaffDetail, error) {
	req.Email = lowerTrimmed(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid staff payload")
	}
	dob, err := optionalDate(req.DateOfBirth)
	if err != nil {
		return nil, validationError(err, "invalid date of birth")
	}
	employed, err := optionalDate(req.DateEmployed)
	if err != nil {
		return nil, validationError(err, "invalid employment date")
	}
	email := req.Email
	if req.Role != "" && email == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email is required to create a login")
	}

	school, err := s.periods.School(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountBySchool(ctx, actor.SchoolID)
	if err != nil {
		return nil, internalError(err, "failed to count staff")
	}

	staff := &models.Staff{
		SchoolID:      actor.SchoolID,
		StaffNumber:   StaffNumber(school.Code, count+1),
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		OtherNames:    trimmed(req.OtherNames),
		Gender:        req.Gender,
		DateOfBirth:   dob,
		Phone:         trimmed(req.Phone),
		Email:         email,
		Address:       trimmed(req.Address),
		Position:      trimmed(req.Position),
		DepartmentID:  trimmed(req.DepartmentID),
		Qualification: trimmed(req.Qualification),
		DateEmployed:  employed,
		Active:        true,
	}

	var user *models.User
	if req.Role != "" {
		exists, err := s.users.EmailExists(ctx, *email)
		if err != nil {
			return nil, internalError(err, "failed to check email")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrEmailInUse, "")
		}
		password := req.Password
		if password == "" {
			password = models.DefaultStaffPassword
		}
		hash, err := HashPassword(password)
		if err != nil {
			return nil, internalError(err, "failed to hash password")
		}
		user = &models.User{SchoolID: actor.SchoolID, Email: *email, PasswordHash: hash, Role: req.Role, Active: true}
	}

	if err := s.repo.CreateWithLogin(ctx, staff, user); err != nil {
		return nil, internalError(err, "failed to create staff")
	}
	s.logger.Info("staff created", zap.String("staff_id", staff.ID), zap.String("staff_number", staff.StaffNumber), zap.Bool("login", user != nil))
	return s.Get(ctx, actor, staff.ID)
}

// Update edits an employee record.
func (s *StaffService) Update(ctx context.Context, actor Actor, id string, req models.UpdateStaffRequest) (*models.StaffDetail, error) {
	req.Email = lowerTrimmed(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid staff payload")
	}
	item, err := s.scoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	staff := item.Staff
	staff.FirstName = strings.TrimSpace(req.FirstName)
	staff.LastName = strings.TrimSpace(req.LastName)
	staff.OtherNames = trimmed(req.OtherNames)
	staff.Gender = req.Gender
	staff.Phone = trimmed(req.Phone)
	staff.Email = req.Email
	staff.Address = trimmed(req.Address)
	staff.Position = trimmed(req.Position)
	staff.DepartmentID = trimmed(req.DepartmentID)
	staff.Qualification = trimmed(req.Qualification)
	if err := s.repo.Update(ctx, &staff); err != nil {
		return nil, internalError(err, "failed to update staff")
	}
	return s.Get(ctx, actor, id)
}

// ToggleStatus flips the staff member and their login between active and inactive.
func (s *StaffService) ToggleStatus(ctx context.Context, actor Actor, id string) (*models.StaffDetail, error) {
	item, err := s.scoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	active := !item.Active
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, internalError(err, "failed to update staff status")
	}
	s.logger.Info("staff status changed", zap.String("staff_id", id), zap.Bool("active", active))
	return s.Get(ctx, actor, id)
}

// Departments lists the school's active departments.
func (s *StaffService) Departments(ctx context.Context, actor Actor) ([]models.Department, error) {
	departments, err := s.repo.ListDepartments(ctx, actor.SchoolID)
	if err != nil {
		return nil, internalError(err, "failed to list departments")
	}
	return departments, nil
}

// CreateDepartment registers a department.
func (s *StaffService) CreateDepartment(ctx context.Context, actor Actor, req models.CreateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid department payload")
	}
	department := &models.Department{SchoolID: actor.SchoolID, Name: strings.TrimSpace(req.Name), Code: trimmed(req.Code), Active: true}
	if err := s.repo.CreateDepartment(ctx, department); err != nil {
		return nil, internalError(err, "failed to create department")
	}
	return department, nil
}

func (s *StaffService) scoped(ctx context.Context, actor Actor, id string) (*models.StaffListItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "staff not found", "failed to load staff")
	}
	if item.SchoolID != actor.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
	}
	return item, nil
}

func optionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return &t, nil
}
