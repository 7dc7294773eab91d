package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
	"github.com/nacca-sms/nacca-sms-api/pkg/jobs"
)

type fakeAuditRepo struct {
	mu      sync.Mutex
	created []models.AuditLog
	limit   int
}

func (f *fakeAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *log)
	return nil
}

func (f *fakeAuditRepo) ListRecent(ctx context.Context, schoolID string, limit int) ([]models.AuditLog, error) {
	f.limit = limit
	return []models.AuditLog{{SchoolID: &schoolID}}, nil
}

func (f *fakeAuditRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func TestAuditServiceWritesThroughQueue(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewAuditService(repo, nil, nil)
	queue := jobs.NewQueue("audit", svc.Handle, jobs.Config{Workers: 1})
	svc.queue = queue
	queue.Start(context.Background())

	require.NoError(t, svc.Create(context.Background(), &models.AuditLog{Action: models.AuditActionPaymentRecord}))
	require.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 5*time.Millisecond)
	queue.Stop()
	assert.Equal(t, models.AuditActionPaymentRecord, repo.created[0].Action)
}

func TestAuditServiceFallsBackInline(t *testing.T) {
	repo := &fakeAuditRepo{}
	stopped := jobs.NewQueue("audit", func(ctx context.Context, job jobs.Job) error { return nil }, jobs.Config{})
	svc := NewAuditService(repo, stopped, nil)

	require.NoError(t, svc.Create(context.Background(), &models.AuditLog{Action: models.AuditActionScoresSave}))
	assert.Equal(t, 1, repo.count())
}

func TestAuditServiceRecent(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewAuditService(repo, nil, nil)

	_, err := svc.Recent(context.Background(), teacherActor("staff-1"), 10)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	logs, err := svc.Recent(context.Background(), adminActor(), 1000)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, maxAuditListing, repo.limit)
}
