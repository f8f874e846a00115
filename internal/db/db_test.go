package db_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/digest-service/internal/db"
)

func TestNewPostgresPool_BadURL(t *testing.T) {
	pool, err := db.NewPostgresPool(context.Background(), "postgres://user@localhost:notaport/digests")
	assert.Error(t, err)
	assert.Nil(t, pool)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	client, err := db.NewRedisClient(context.Background(), "http://localhost:6379")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis.ParseURL")
	assert.Nil(t, client)
}

// Needs a disposable Postgres at DIGEST_TEST_DATABASE_URL.
func TestRunMigrations_ReleasesConnection(t *testing.T) {
	url := os.Getenv("DIGEST_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("DIGEST_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPostgresPool(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	for i := 0; i < 2; i++ {
		version, err := db.RunMigrations(pool)
		require.NoError(t, err)
		assert.EqualValues(t, 1, version)
	}
	assert.Zero(t, pool.Stat().AcquiredConns())
}
