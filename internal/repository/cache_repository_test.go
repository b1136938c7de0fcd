package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/transcript-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "transcript:parse:x", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "transcript:parse:x", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "transcript:user:1"))
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	repo := NewCacheRepository(client, nil)
	defer repo.Close()
	ctx := context.Background()

	var dest map[string]string
	err := repo.Get(ctx, "k", &dest)
	require.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Error(t, repo.Delete(ctx, "transcript:user:1"))
	assert.NoError(t, repo.Delete(ctx))
	assert.Error(t, repo.Ping(ctx))
}
