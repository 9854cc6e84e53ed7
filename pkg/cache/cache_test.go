package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	var dest string
	assert.False(t, c.Get(ctx, "k", &dest))
	assert.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	c.Forget(ctx, "k")
	assert.NoError(t, c.Close())
}

func TestRememberWithoutRedisAlwaysLoads(t *testing.T) {
	var c *Cache
	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"dates", "coffee"}, nil
	}

	for i := 0; i < 2; i++ {
		got, err := Remember(context.Background(), c, "categories", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, []string{"dates", "coffee"}, got)
	}
	assert.Equal(t, 2, calls)
}

func TestRememberPropagatesLoadError(t *testing.T) {
	boom := errors.New("db down")
	_, err := Remember(context.Background(), (*Cache)(nil), "k", time.Minute, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestConnectWithoutAddrReturnsNil(t *testing.T) {
	c, err := Connect(context.Background())
	require.NoError(t, err)
	assert.Nil(t, c)
}
