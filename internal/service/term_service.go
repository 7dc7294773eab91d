package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

type termRepository interface {
	FindSchool(ctx context.Context, id string) (*models.School, error)
	CurrentYear(ctx context.Context, schoolID string) (*models.AcademicYear, error)
	CurrentTerm(ctx context.Context, academicYearID string) (*models.Term, error)
	FindTerm(ctx context.Context, schoolID, termID string) (*models.Term, error)
}

// TermService resolves the school's current academic year and term.
type TermService struct {
	repo   termRepository
	logger *zap.Logger
}

// NewTermService creates a new term service instance.
func NewTermService(repo termRepository, logger *zap.Logger) *TermService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, logger: logger}
}

// School returns the school record.
func (s *TermService) School(ctx context.Context, schoolID string) (*models.School, error) {
	school, err := s.repo.FindSchool(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	return school, nil
}

// Current returns the current academic year and, when one is flagged, the current term.
func (s *TermService) Current(ctx context.Context, schoolID string) (*models.Period, error) {
	year, err := s.repo.CurrentYear(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no current academic year configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	period := &models.Period{Year: *year}
	term, err := s.repo.CurrentTerm(ctx, year.ID)
	switch {
	case err == nil:
		period.Term = term
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current term")
	}
	return period, nil
}

// CurrentTerm is Current but fails with NO_CURRENT_TERM when no term is flagged.
func (s *TermService) CurrentTerm(ctx context.Context, schoolID string) (*models.Period, error) {
	period, err := s.Current(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if period.Term == nil {
		return nil, appErrors.Clone(appErrors.ErrNoCurrentTerm, "no current term configured")
	}
	return period, nil
}

// Term fetches a term belonging to the school.
func (s *TermService) Term(ctx context.Context, schoolID, termID string) (*models.Term, error) {
	term, err := s.repo.FindTerm(ctx, schoolID, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}
