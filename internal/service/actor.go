package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID   string
	SchoolID string
	Role     models.UserRole
	StaffID  string
	ParentID string
}

// ActorFromClaims builds an Actor from verified token claims.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, SchoolID: claims.SchoolID, Role: claims.Role, StaffID: claims.StaffID, ParentID: claims.ParentID}
}

// IsAdmin reports membership of the admin group.
func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}

// IsParent reports whether the caller signed in through the parent portal.
func (a Actor) IsParent() bool {
	return a.Role == models.RoleParent
}

// periodProvider resolves the school's current academic year and term.
type periodProvider interface {
	School(ctx context.Context, schoolID string) (*models.School, error)
	Current(ctx context.Context, schoolID string) (*models.Period, error)
	CurrentTerm(ctx context.Context, schoolID string) (*models.Period, error)
	Term(ctx context.Context, schoolID, termID string) (*models.Term, error)
}

// optionalYearID returns the current academic year id, or "" when none is configured.
func optionalYearID(ctx context.Context, periods periodProvider, schoolID string) (string, error) {
	period, err := periods.Current(ctx, schoolID)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrPreconditionFailed.Code {
			return "", nil
		}
		return "", err
	}
	return period.Year.ID, nil
}

// notFoundOr maps sql.ErrNoRows to a NOT_FOUND error and anything else to INTERNAL_ERROR.
func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
