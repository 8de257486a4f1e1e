package middleware

import (
	"net/http"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimitMiddleware_Basic(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	clock := &fakeClock{t: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	r := newLimitedRouter(RedisRateLimitMiddleware(client, RateLimitOptions{Max: 2, Window: 15 * time.Minute, Now: clock.Now}))

	require.Equal(t, http.StatusOK, doGet(r, "").Code)
	require.Equal(t, http.StatusOK, doGet(r, "").Code)
	w := doGet(r, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "900", w.Header().Get("Retry-After"))

	// the bucket key carries a TTL so idle windows do not pile up
	keys := m.Keys()
	require.Len(t, keys, 1)
	require.Greater(t, m.TTL(keys[0]), time.Duration(0))

	clock.t = clock.t.Add(15 * time.Minute)
	require.Equal(t, http.StatusOK, doGet(r, "").Code)
}

func TestRedisRateLimitMiddleware_FailsClosedOnRedisError(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	m.Close()

	r := newLimitedRouter(RedisRateLimitMiddleware(client, RateLimitOptions{Max: 2, Window: time.Minute}))
	require.Equal(t, http.StatusInternalServerError, doGet(r, "").Code)
}

func TestRedisRateLimitMiddleware_NilClientFallsBackToMemory(t *testing.T) {
	r := newLimitedRouter(RedisRateLimitMiddleware(nil, RateLimitOptions{Max: 1, Window: time.Hour}))
	require.Equal(t, http.StatusOK, doGet(r, "").Code)
	require.Equal(t, http.StatusTooManyRequests, doGet(r, "").Code)
}
