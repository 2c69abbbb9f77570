package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := Open(ctx, TypeMemory, "", nil)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &MemoryCache{}, store)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)

		store, err := Open(ctx, TypeRedis, "redis://"+mr.Addr(), nil)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &RedisCache{}, store)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := Open(ctx, TypeRedis, "redis://"+addr, nil)
		assert.Error(t, err)
	})

	t.Run("none disables caching", func(t *testing.T) {
		store, err := Open(ctx, TypeNone, "", nil)
		require.NoError(t, err)
		assert.Nil(t, store)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := Open(ctx, "memcached", "", nil)
		assert.Error(t, err)
	})
}
