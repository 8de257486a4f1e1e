package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/console-conteudo/backend/internal/config"
	"github.com/console-conteudo/backend/pkg/backoff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedSleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

// flakyDial fails the first n calls with errBoom.
func flakyDial(n int32, calls *int32) DialFunc {
	return func(ctx context.Context) (*Handle, error) {
		c := atomic.AddInt32(calls, 1)
		if c <= n {
			return nil, errBoom
		}
		return &Handle{}, nil
	}
}

var errBoom = errors.New("server selection timeout")

func TestManager_RetriesWithBackoffThenCaches(t *testing.T) {
	var calls int32
	sleeps := &recordedSleeps{}
	m := NewManager(flakyDial(2, &calls), WithSleep(sleeps.sleep))

	h, err := m.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, h)
	require.Equal(t, int32(3), calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.delays)
	require.True(t, m.Connected())

	h2, err := m.Get(context.Background())
	require.NoError(t, err)
	require.Same(t, h, h2)
	require.Equal(t, int32(3), calls, "cached handle must not redial")
}

func TestManager_ExhaustsAttempts(t *testing.T) {
	var calls int32
	sleeps := &recordedSleeps{}
	m := NewManager(flakyDial(100, &calls), WithSleep(sleeps.sleep))

	_, err := m.Get(context.Background())
	require.Error(t, err)

	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 5, cerr.Attempts)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, int32(5), calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, sleeps.delays)
	assert.False(t, m.Connected())

	// nothing cached, so the next call dials again
	_, _ = m.Get(context.Background())
	assert.Equal(t, int32(10), calls)
}

func TestManager_ContextCancelledWhileWaiting(t *testing.T) {
	var calls int32
	m := NewManager(flakyDial(100, &calls))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Get(ctx)

	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, 1, cerr.Attempts)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, errBoom)
}

func TestManager_ConcurrentFirstUseDialsOnce(t *testing.T) {
	var calls int32
	m := NewManager(flakyDial(0, &calls))

	var wg sync.WaitGroup
	handles := make([]*Handle, 16)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := m.Get(context.Background())
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), calls)
	for _, h := range handles {
		require.Same(t, handles[0], h)
	}
}

func TestManager_CloseClearsCache(t *testing.T) {
	var calls int32
	m := NewManager(flakyDial(0, &calls))
	require.NoError(t, m.Close(context.Background()), "close before connect is a no-op")

	_, err := m.Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Close(context.Background()))
	require.False(t, m.Connected())

	_, err = m.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), calls)
}

func TestClientOptions(t *testing.T) {
	opts := ClientOptions(config.MongoDBConfig{
		URI:                    "mongodb://localhost:27017",
		MaxPoolSize:            10,
		ServerSelectionTimeout: 5 * time.Second,
		SocketTimeout:          45 * time.Second,
	})
	require.NoError(t, opts.Validate())
	require.Equal(t, uint64(10), *opts.MaxPoolSize)
	require.Equal(t, 5*time.Second, *opts.ServerSelectionTimeout)
	require.Equal(t, 45*time.Second, *opts.SocketTimeout)
	require.True(t, *opts.RetryWrites)
}

func TestManager_ConnectedDoesNotWaitForDial(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	dial := func(ctx context.Context) (*Handle, error) {
		close(entered)
		<-release
		return nil, errBoom
	}
	m := NewManager(dial, WithPolicy(backoff.Policy{Base: time.Second, Ceiling: time.Second, MaxAttempts: 1}))

	done := make(chan error, 1)
	go func() {
		_, err := m.Get(context.Background())
		done <- err
	}()
	<-entered

	start := time.Now()
	assert.False(t, m.Connected())
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	var connErr *ConnectionError
	require.ErrorAs(t, <-done, &connErr)
	assert.False(t, m.Connected())
}
