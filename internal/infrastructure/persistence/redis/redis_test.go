package redis

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-rag-api/internal/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return Wrap(rdb), mr
}

func TestHealthCheck(t *testing.T) {
	c, mr := newTestClient(t)
	require.NoError(t, c.HealthCheck(context.Background()))

	mr.Close()
	require.Error(t, c.HealthCheck(context.Background()))

	var nilClient *Client
	require.Error(t, nilClient.Ping(context.Background()))
}

func TestCacheGetSet(t *testing.T) {
	c, mr := newTestClient(t)
	cache := NewCache(c)
	ctx := context.Background()

	_, err := cache.Get(ctx, "k")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	mr.FastForward(2 * time.Minute)
	_, err = cache.Get(ctx, "k")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, cache.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestCacheGetOrLoadSafe(t *testing.T) {
	c, _ := newTestClient(t)
	cache := NewCache(c)
	ctx := context.Background()

	var loads atomic.Int32
	loader := func() ([]byte, error) {
		loads.Add(1)
		time.Sleep(10 * time.Millisecond)
		return []byte("loaded"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, _, err := cache.GetOrLoadSafe(ctx, "emb:x", time.Minute, loader)
			assert.NoError(t, err)
			assert.Equal(t, []byte("loaded"), val)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, loads.Load(), int32(8))
	assert.GreaterOrEqual(t, loads.Load(), int32(1))

	val, hit, err := cache.GetOrLoadSafe(ctx, "emb:x", time.Minute, loader)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("loaded"), val)
}

func TestCacheGetOrLoadSafeLoaderError(t *testing.T) {
	c, mr := newTestClient(t)
	cache := NewCache(c)

	_, _, err := cache.GetOrLoadSafe(context.Background(), "k", time.Minute, func() ([]byte, error) {
		return nil, errors.New("upstream down")
	})
	require.EqualError(t, err, "upstream down")
	assert.False(t, mr.Exists("k"))
}

func TestRateLimiterAllow(t *testing.T) {
	c, _ := newTestClient(t)
	limiter := NewRateLimiter(c)
	ctx := context.Background()
	key := "ratelimit:127.0.0.1:/v1/search"

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, err := limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, limiter.Reset(ctx, key))
	ok, err = limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = limiter.Allow(ctx, key, 0, time.Minute)
	require.Error(t, err)

	var nilLimiter *RateLimiter
	_, err = nilLimiter.Allow(ctx, key, 1, time.Minute)
	require.Error(t, err)
}

func TestNewClientPings(t *testing.T) {
	mr := miniredis.RunT(t)
	host := mr.Host()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	c, err := NewClient(context.Background(), &config.RedisConfig{Host: host, Port: port, DialTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	_, err = NewClient(context.Background(), &config.RedisConfig{Host: host, Port: port, DialTimeout: 200 * time.Millisecond})
	require.Error(t, err)
}
