package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())
	ctx := context.Background()

	var dest map[string]int
	assert.ErrorIs(t, repo.Get(ctx, "dashboard:school-1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "dashboard:school-1", map[string]int{"students": 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "dashboard:school-1:*"))
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	repo := NewCacheRepository(client, zap.NewNop())
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	var dest map[string]int
	err := repo.Get(ctx, "dashboard:school-1", &dest)
	require.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Error(t, repo.Ping(ctx))
}
