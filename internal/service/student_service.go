package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentListItem, int, error)
	Search(ctx context.Context, schoolID, academicYearID, q string, limit int) ([]models.StudentSearchResult, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	CountBySchool(ctx context.Context, schoolID string) (int, error)
	CreateAdmission(ctx context.Context, parent *models.Parent, student *models.Student, enrollment *models.Enrollment) error
	Update(ctx context.Context, student *models.Student) error
	UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error
}

type parentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Parent, error)
	Update(ctx context.Context, parent *models.Parent) error
}

type enrollmentRepository interface {
	FindCurrent(ctx context.Context, studentID, academicYearID string) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	Upsert(ctx context.Context, enrollment *models.Enrollment) error
}

type classLookup interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type accountRepository interface {
	FindByParentID(ctx context.Context, parentID string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	SetActive(ctx context.Context, id string, active bool) error
}

// StudentService handles admissions, records and parent accounts.
type StudentService struct {
	repo        studentRepository
	parents     parentRepository
	enrollments enrollmentRepository
	classes     classLookup
	users       accountRepository
	periods     periodProvider
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, parents parentRepository, enrollments enrollmentRepository, classes classLookup, users accountRepository, periods periodProvider, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, parents: parents, enrollments: enrollments, classes: classes, users: users, periods: periods, validator: validate, logger: logger, now: time.Now}
}

// List returns a page of students. Status defaults to active; "all" disables the filter.
func (s *StudentService) List(ctx context.Context, actor Actor, filter models.StudentFilter) ([]models.StudentListItem, *models.Pagination, error) {
	yearID, err := optionalYearID(ctx, s.periods, actor.SchoolID)
	if err != nil {
		return nil, nil, err
	}
	filter.SchoolID = actor.SchoolID
	filter.AcademicYearID = yearID
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Status == "" {
		filter.Status = string(models.StudentStatusActive)
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = models.DefaultPageSize
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list students")
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Search is the autocomplete lookup. Queries shorter than two characters return nothing.
func (s *StudentService) Search(ctx context.Context, actor Actor, q string, limit int) ([]models.StudentSearchResult, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < 2 {
		return []models.StudentSearchResult{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	yearID, err := optionalYearID(ctx, s.periods, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.Search(ctx, actor.SchoolID, yearID, q, limit)
	if err != nil {
		return nil, internalError(err, "failed to search students")
	}
	return results, nil
}

// Create admits a student, creating the family record and an optional enrolment.
func (s *StudentService) Create(ctx context.Context, actor Actor, req models.CreateStudentRequest) (*models.StudentDetail, error) {
	req.FatherEmail = lowerTrimmed(req.FatherEmail)
	req.MotherEmail = lowerTrimmed(req.MotherEmail)
	req.GuardianEmail = lowerTrimmed(req.GuardianEmail)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		return nil, validationError(err, "invalid date of birth")
	}
	school, err := s.periods.School(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}

	var enrollment *models.Enrollment
	if req.ClassID != "" {
		if _, err := s.schoolClass(ctx, actor.SchoolID, req.ClassID); err != nil {
			return nil, err
		}
		period, err := s.periods.Current(ctx, actor.SchoolID)
		if err != nil {
			return nil, err
		}
		enrollment = &models.Enrollment{ClassID: req.ClassID, AcademicYearID: period.Year.ID}
	}

	count, err := s.repo.CountBySchool(ctx, actor.SchoolID)
	if err != nil {
		return nil, internalError(err, "failed to count students")
	}

	nationality := strings.TrimSpace(req.Nationality)
	if nationality == "" {
		nationality = "Ghanaian"
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	student := &models.Student{
		SchoolID:      actor.SchoolID,
		StudentNumber: StudentNumber(school.Code, count+1),
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		OtherNames:    trimmed(req.OtherNames),
		Gender:        req.Gender,
		DateOfBirth:   dob,
		Nationality:   nationality,
		Religion:      trimmed(req.Religion),
		AdmissionDate: today,
		Status:        models.StudentStatusActive,
	}
	parent := parentFromAdmission(actor.SchoolID, req)

	if err := s.repo.CreateAdmission(ctx, parent, student, enrollment); err != nil {
		return nil, internalError(err, "failed to create student")
	}
	s.logger.Info("student admitted", zap.String("student_id", student.ID), zap.String("student_number", student.StudentNumber))
	return s.Get(ctx, actor, student.ID)
}

// Get returns a student with family and enrolment context. Parents may only view their own children.
func (s *StudentService) Get(ctx context.Context, actor Actor, id string) (*models.StudentDetail, error) {
	student, err := s.scopedStudent(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	detail := &models.StudentDetail{Student: *student, FullName: student.FullName()}

	if student.ParentID != nil {
		parent, err := s.parents.FindByID(ctx, *student.ParentID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, internalError(err, "failed to load parent")
		}
		detail.Parent = parent
		if _, err := s.users.FindByParentID(ctx, *student.ParentID); err == nil {
			detail.HasParentAccount = true
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, internalError(err, "failed to load parent account")
		}
	}

	yearID, err := optionalYearID(ctx, s.periods, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	if yearID != "" {
		current, err := s.enrollments.FindCurrent(ctx, student.ID, yearID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, internalError(err, "failed to load enrolment")
		}
		detail.CurrentEnrollment = current
	}
	history, err := s.enrollments.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, internalError(err, "failed to load enrolment history")
	}
	detail.Enrollments = history
	return detail, nil
}

// Update edits the student and the family contacts.
func (s *StudentService) Update(ctx context.Context, actor Actor, id string, req models.UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		return nil, validationError(err, "invalid date of birth")
	}
	student, err := s.scopedStudent(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	student.FirstName = strings.TrimSpace(req.FirstName)
	student.LastName = strings.TrimSpace(req.LastName)
	student.OtherNames = trimmed(req.OtherNames)
	student.Gender = req.Gender
	student.DateOfBirth = dob
	if n := strings.TrimSpace(req.Nationality); n != "" {
		student.Nationality = n
	}
	student.Religion = trimmed(req.Religion)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, internalError(err, "failed to update student")
	}

	if student.ParentID != nil {
		parent, err := s.parents.FindByID(ctx, *student.ParentID)
		if err != nil {
			return nil, notFoundOr(err, "parent not found", "failed to load parent")
		}
		parent.FatherName = trimmed(req.FatherName)
		parent.FatherPhone = trimmed(req.FatherPhone)
		parent.MotherName = trimmed(req.MotherName)
		parent.MotherPhone = trimmed(req.MotherPhone)
		parent.GuardianName = trimmed(req.GuardianName)
		parent.GuardianPhone = trimmed(req.GuardianPhone)
		parent.Address = trimmed(req.Address)
		parent.PrimaryContactPhone = firstNonEmpty(parent.GuardianPhone, parent.FatherPhone)
		if err := s.parents.Update(ctx, parent); err != nil {
			return nil, internalError(err, "failed to update parent")
		}
	}
	return s.Get(ctx, actor, id)
}

// Enroll moves or creates the student's enrolment for the current academic year.
func (s *StudentService) Enroll(ctx context.Context, actor Actor, id string, req models.EnrollStudentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrolment payload")
	}
	student, err := s.scopedStudent(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.schoolClass(ctx, actor.SchoolID, req.ClassID); err != nil {
		return nil, err
	}
	period, err := s.periods.Current(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	enrollment := &models.Enrollment{StudentID: student.ID, ClassID: req.ClassID, AcademicYearID: period.Year.ID}
	if err := s.enrollments.Upsert(ctx, enrollment); err != nil {
		return nil, internalError(err, "failed to enrol student")
	}
	current, err := s.enrollments.FindCurrent(ctx, student.ID, period.Year.ID)
	if err != nil {
		return nil, internalError(err, "failed to load enrolment")
	}
	return current, nil
}

// UpdateStatus changes a student's status.
func (s *StudentService) UpdateStatus(ctx context.Context, actor Actor, id string, req models.UpdateStudentStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid status")
	}
	if _, err := s.scopedStudent(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return internalError(err, "failed to update student status")
	}
	return nil
}

// ManageParentAccount creates, resets or toggles the login attached to the student's parent.
func (s *StudentService) ManageParentAccount(ctx context.Context, actor Actor, studentID string, req models.ParentAccountRequest) (*models.ParentAccountView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid parent account action")
	}
	student, err := s.scopedStudent(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}
	if student.ParentID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student has no parent record")
	}
	parent, err := s.parents.FindByID(ctx, *student.ParentID)
	if err != nil {
		return nil, notFoundOr(err, "parent not found", "failed to load parent")
	}
	account, err := s.users.FindByParentID(ctx, parent.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, internalError(err, "failed to load parent account")
	}

	view := &models.ParentAccountView{Parent: *parent}
	switch req.Action {
	case models.ParentActionCreateAccount:
		if account != nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "parent account already exists")
		}
		if len(req.Password) < 6 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "password must be at least 6 characters")
		}
		email, err := s.parentEmail(ctx, parent)
		if err != nil {
			return nil, err
		}
		hash, err := HashPassword(req.Password)
		if err != nil {
			return nil, internalError(err, "failed to hash password")
		}
		account = &models.User{SchoolID: actor.SchoolID, Email: email, PasswordHash: hash, Role: models.RoleParent, Active: true, ParentID: &parent.ID}
		if err := s.users.Create(ctx, account); err != nil {
			return nil, internalError(err, "failed to create parent account")
		}
		view.Message = "parent account created"
	case models.ParentActionResetPassword:
		if account == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent account not found")
		}
		if len(req.Password) < 6 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "password must be at least 6 characters")
		}
		hash, err := HashPassword(req.Password)
		if err != nil {
			return nil, internalError(err, "failed to hash password")
		}
		if err := s.users.UpdatePassword(ctx, account.ID, hash); err != nil {
			return nil, internalError(err, "failed to reset password")
		}
		view.Message = "password reset"
	case models.ParentActionToggleActive:
		if account == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent account not found")
		}
		account.Active = !account.Active
		if err := s.users.SetActive(ctx, account.ID, account.Active); err != nil {
			return nil, internalError(err, "failed to update parent account")
		}
		view.Message = "account deactivated"
		if account.Active {
			view.Message = "account activated"
		}
	}
	s.logger.Info("parent account updated", zap.String("parent_id", parent.ID), zap.String("action", req.Action))

	view.Exists = true
	view.UserID = account.ID
	view.Email = account.Email
	view.Active = account.Active
	return view, nil
}

// parentEmail picks the login email: the first family email, else one derived
// from the contact phone, else one derived from the parent id.
func (s *StudentService) parentEmail(ctx context.Context, parent *models.Parent) (string, error) {
	candidates := []string{}
	if email := strings.ToLower(parent.FirstEmail()); email != "" {
		candidates = append(candidates, email)
	} else if phone := parent.ContactPhone(); phone != "" {
		candidates = append(candidates, fmt.Sprintf("parent_%s@school.local", phone))
	}
	candidates = append(candidates, fmt.Sprintf("parent_%s@school.local", parent.ID))
	for _, email := range candidates {
		exists, err := s.users.EmailExists(ctx, email)
		if err != nil {
			return "", internalError(err, "failed to check email")
		}
		if !exists {
			return email, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrConflict, "no unused email available for parent account")
}

func (s *StudentService) scopedStudent(ctx context.Context, actor Actor, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if student.SchoolID != actor.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if actor.IsParent() && (student.ParentID == nil || *student.ParentID != actor.ParentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "access denied")
	}
	return student, nil
}

func (s *StudentService) schoolClass(ctx context.Context, schoolID, classID string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	if class.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return class, nil
}

// StudentNumber formats a student number from the school code and sequence.
func StudentNumber(schoolCode, seq int) string {
	return fmt.Sprintf("STU%03d%04d", schoolCode, seq)
}

// StaffNumber formats a staff number from the school code and sequence.
func StaffNumber(schoolCode, seq int) string {
	return fmt.Sprintf("STF%03d%04d", schoolCode, seq)
}

func parentFromAdmission(schoolID string, req models.CreateStudentRequest) *models.Parent {
	parent := &models.Parent{
		SchoolID:             schoolID,
		FatherName:           trimmed(req.FatherName),
		FatherPhone:          trimmed(req.FatherPhone),
		FatherEmail:          lowerTrimmed(req.FatherEmail),
		MotherName:           trimmed(req.MotherName),
		MotherPhone:          trimmed(req.MotherPhone),
		MotherEmail:          lowerTrimmed(req.MotherEmail),
		GuardianName:         trimmed(req.GuardianName),
		GuardianRelationship: trimmed(req.GuardianRelationship),
		GuardianPhone:        trimmed(req.GuardianPhone),
		GuardianEmail:        lowerTrimmed(req.GuardianEmail),
		Address:              trimmed(req.Address),
	}
	parent.PrimaryContactPhone = firstNonEmpty(parent.GuardianPhone, parent.FatherPhone)
	if parent.FatherName == nil && parent.MotherName == nil && parent.GuardianName == nil &&
		parent.FatherPhone == nil && parent.MotherPhone == nil && parent.GuardianPhone == nil {
		return nil
	}
	return parent
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func lowerTrimmed(v *string) *string {
	t := trimmed(v)
	if t == nil {
		return nil
	}
	lower := strings.ToLower(*t)
	return &lower
}

func firstNonEmpty(values ...*string) *string {
	for _, v := range values {
		if v != nil && *v != "" {
			return v
		}
	}
	return nil
}
