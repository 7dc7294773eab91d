package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
	"github.com/nacca-sms/nacca-sms-api/pkg/grading"
)

type classRepository interface {
	ListActive(ctx context.Context, schoolID, academicYearID string) ([]models.ClassListItem, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
}

type subjectRepository interface {
	ListActive(ctx context.Context, schoolID string) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
}

type classSubjectRepository interface {
	ListByClass(ctx context.Context, classID, academicYearID string) ([]models.ClassSubjectDetail, error)
	ReplaceForClass(ctx context.Context, classID, academicYearID string, assignments []models.ClassSubject) error
}

type rosterRepository interface {
	Roster(ctx context.Context, classID, academicYearID string) ([]models.EnrolledStudent, error)
}

// ClassService manages classes, subjects and subject assignment.
type ClassService struct {
	classes       classRepository
	subjects      subjectRepository
	classSubjects classSubjectRepository
	rosters       rosterRepository
	periods       periodProvider
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(classes classRepository, subjects subjectRepository, classSubjects classSubjectRepository, rosters rosterRepository, periods periodProvider, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{classes: classes, subjects: subjects, classSubjects: classSubjects, rosters: rosters, periods: periods, validator: validate, logger: logger}
}

// List returns the school's active classes with current-year enrolment counts.
func (s *ClassService) List(ctx context.Context, actor Actor) ([]models.ClassListItem, error) {
	yearID, err := optionalYearID(ctx, s.periods, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	classes, err := s.classes.ListActive(ctx, actor.SchoolID, yearID)
	if err != nil {
		return nil, internalError(err, "failed to list classes")
	}
	return classes, nil
}

// Get returns a class with roster, subjects and gender counts for the current year.
func (s *ClassService) Get(ctx context.Context, actor Actor, id string) (*models.ClassDetail, error) {
	class, err := s.scoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	detail := &models.ClassDetail{Class: *class, Students: []models.EnrolledStudent{}, Subjects: []models.ClassSubjectDetail{}}
	yearID, err := optionalYearID(ctx, s.periods, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	if yearID == "" {
		return detail, nil
	}
	if detail.Students, err = s.rosters.Roster(ctx, id, yearID); err != nil {
		return nil, internalError(err, "failed to load class roster")
	}
	if detail.Subjects, err = s.classSubjects.ListByClass(ctx, id, yearID); err != nil {
		return nil, internalError(err, "failed to load class subjects")
	}
	for _, student := range detail.Students {
		switch strings.ToLower(student.Gender) {
		case "male":
			detail.MaleCount++
		case "female":
			detail.FemaleCount++
		}
	}
	return detail, nil
}

// Create registers a class.
func (s *ClassService) Create(ctx context.Context, actor Actor, req models.ClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid class payload")
	}
	class := &models.Class{SchoolID: actor.SchoolID, Active: true}
	applyClassRequest(class, req)
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, internalError(err, "failed to create class")
	}
	s.logger.Info("class created", zap.String("class_id", class.ID), zap.String("name", class.Name))
	return class, nil
}

// Update edits a class.
func (s *ClassService) Update(ctx context.Context, actor Actor, id string, req models.ClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid class payload")
	}
	class, err := s.scoped(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	applyClassRequest(class, req)
	if err := s.classes.Update(ctx, class); err != nil {
		return nil, internalError(err, "failed to update class")
	}
	return class, nil
}

// AssignSubjects replaces the class's subject list for the current academic year.
func (s *ClassService) AssignSubjects(ctx context.Context, actor Actor, id string, req models.AssignSubjectsRequest) ([]models.ClassSubjectDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject assignment")
	}
	if _, err := s.scoped(ctx, actor, id); err != nil {
		return nil, err
	}
	period, err := s.periods.Current(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(req.Assignments))
	assignments := make([]models.ClassSubject, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		if seen[a.SubjectID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject assigned more than once")
		}
		seen[a.SubjectID] = true
		assignments = append(assignments, models.ClassSubject{ClassID: id, SubjectID: a.SubjectID, TeacherID: trimmed(a.TeacherID), AcademicYearID: period.Year.ID})
	}
	if err := s.classSubjects.ReplaceForClass(ctx, id, period.Year.ID, assignments); err != nil {
		return nil, internalError(err, "failed to assign subjects")
	}
	s.logger.Info("class subjects assigned", zap.String("class_id", id), zap.Int("count", len(assignments)))
	subjects, err := s.classSubjects.ListByClass(ctx, id, period.Year.ID)
	if err != nil {
		return nil, internalError(err, "failed to load class subjects")
	}
	return subjects, nil
}

// Subjects lists the school's active subjects.
func (s *ClassService) Subjects(ctx context.Context, actor Actor) ([]models.Subject, error) {
	subjects, err := s.subjects.ListActive(ctx, actor.SchoolID)
	if err != nil {
		return nil, internalError(err, "failed to list subjects")
	}
	return subjects, nil
}

// CreateSubject registers a subject.
func (s *ClassService) CreateSubject(ctx context.Context, actor Actor, req models.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	subject := &models.Subject{
		SchoolID:     actor.SchoolID,
		Name:         strings.TrimSpace(req.Name),
		Code:         trimmed(req.Code),
		DepartmentID: trimmed(req.DepartmentID),
		IsCore:       req.IsCore,
		Active:       true,
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, internalError(err, "failed to create subject")
	}
	return subject, nil
}

func (s *ClassService) scoped(ctx context.Context, actor Actor, id string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	if class.SchoolID != actor.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return class, nil
}

func applyClassRequest(class *models.Class, req models.ClassRequest) {
	class.Name = strings.TrimSpace(req.Name)
	class.Level = string(grading.ParseLevel(req.Level))
	class.GradeNumber = req.GradeNumber
	class.Section = trimmed(req.Section)
	class.Capacity = req.Capacity
	if class.Capacity == 0 {
		class.Capacity = 40
	}
	class.ClassTeacherID = trimmed(req.ClassTeacherID)
}
