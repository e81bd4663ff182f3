package dedupe

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndex_Seen(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	seen, err := idx.Seen(ctx, "E-1|2024-03-15|08:30:00")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = idx.Seen(ctx, "E-1|2024-03-15|08:30:00")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = idx.Seen(ctx, "E-1|2024-03-15|17:00:00")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, 2, idx.Len())
}

func TestMemoryIndex_Concurrent(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen, _ := idx.Seen(ctx, "same")
			if !seen {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fresh)
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisIndex) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisIndex(client, "accessimport:sig:", time.Hour)
}

func TestRedisIndex_Seen(t *testing.T) {
	mr, idx := setupRedis(t)
	ctx := context.Background()

	seen, err := idx.Seen(ctx, "V-1024|2024-03-15|08:30:00")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = idx.Seen(ctx, "V-1024|2024-03-15|08:30:00")
	require.NoError(t, err)
	assert.True(t, seen)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "accessimport:sig:")
	assert.Equal(t, time.Hour, mr.TTL(keys[0]))
}

func TestRedisIndex_Expires(t *testing.T) {
	mr, idx := setupRedis(t)
	ctx := context.Background()

	_, err := idx.Seen(ctx, "sig")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	seen, err := idx.Seen(ctx, "sig")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisIndex_ServerDown(t *testing.T) {
	mr, idx := setupRedis(t)
	mr.Close()

	_, err := idx.Seen(context.Background(), "sig")
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	_, err = Connect(context.Background(), "not a url")
	assert.Error(t, err)
}
