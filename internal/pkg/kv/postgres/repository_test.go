package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real database only when TEST_DATABASE_URL is set.
func openTest(t *testing.T) *Repository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	repo, err := Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTest(t)
	key := uuid.NewString() + ":necs_cart"

	v, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, repo.Set(ctx, key, `[{"name":"Tee","price":45,"qty":1}]`))
	require.NoError(t, repo.Set(ctx, key, `[{"name":"Tee","price":45,"qty":3}]`))

	v, err = repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"Tee","price":45,"qty":3}]`, v)
	require.NoError(t, repo.Ping(ctx))
}
