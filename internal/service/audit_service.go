package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
	"github.com/nacca-sms/nacca-sms-api/pkg/jobs"
)

const (
	auditJobKind        = "audit_log"
	defaultAuditListing = 50
	maxAuditListing     = 200
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	ListRecent(ctx context.Context, schoolID string, limit int) ([]models.AuditLog, error)
}

type jobQueue interface {
	TryEnqueue(job jobs.Job) error
}

// AuditService writes the audit trail off the request path.
type AuditService struct {
	repo   auditRepository
	queue  jobQueue
	logger *zap.Logger
}

// NewAuditService constructs the service. Without a queue entries are written inline.
func NewAuditService(repo auditRepository, queue jobQueue, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, queue: queue, logger: logger}
}

// Create queues an entry; when the queue is full the entry is written inline.
func (s *AuditService) Create(ctx context.Context, log *models.AuditLog) error {
	if s.queue != nil {
		err := s.queue.TryEnqueue(jobs.Job{Kind: auditJobKind, Payload: *log})
		if err == nil {
			return nil
		}
		s.logger.Warn("audit queue unavailable, writing inline", zap.Error(err))
	}
	return s.repo.Create(ctx, log)
}

// Handle is the queue handler for audit jobs.
func (s *AuditService) Handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	return s.repo.Create(ctx, &entry)
}

// Recent lists the newest audit entries of the caller's school.
func (s *AuditService) Recent(ctx context.Context, actor Actor, limit int) ([]models.AuditLog, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	if limit <= 0 {
		limit = defaultAuditListing
	}
	if limit > maxAuditListing {
		limit = maxAuditListing
	}
	logs, err := s.repo.ListRecent(ctx, actor.SchoolID, limit)
	if err != nil {
		return nil, internalError(err, "failed to load audit log")
	}
	return logs, nil
}
