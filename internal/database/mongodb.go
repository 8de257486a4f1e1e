package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/console-conteudo/backend/internal/config"
	"github.com/console-conteudo/backend/pkg/backoff"
	"github.com/console-conteudo/backend/pkg/logger"
	"github.com/console-conteudo/backend/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Handle is an open store connection plus the selected database.
type Handle struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Collection returns a collection of the selected database.
func (h *Handle) Collection(name string) *mongo.Collection {
	return h.Database.Collection(name)
}

// ConnectionError is returned once every connection attempt has failed.
type ConnectionError struct {
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("store connection failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// DialFunc opens and verifies one connection.
type DialFunc func(ctx context.Context) (*Handle, error)

// ClientOptions translates the Mongo settings into driver options.
func ClientOptions(cfg config.MongoDBConfig) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetRetryWrites(true).
		SetWriteConcern(writeconcern.Majority()).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	}
	if cfg.SocketTimeout > 0 {
		opts.SetSocketTimeout(cfg.SocketTimeout)
	}
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	return opts
}

// MongoDialer returns a DialFunc that connects with cfg and pings the primary.
func MongoDialer(cfg config.MongoDBConfig) DialFunc {
	return func(ctx context.Context) (*Handle, error) {
		timeout := cfg.ConnectTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		client, err := mongo.Connect(ctx, ClientOptions(cfg))
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo ping: %w", err)
		}
		return &Handle{Client: client, Database: client.Database(cfg.Database)}, nil
	}
}

// Manager lazily opens a single store connection and hands the cached handle
// to every caller. Dialing is serialized so concurrent first callers share one
// connection; a failed Get leaves nothing cached and the next call redials.
type Manager struct {
	dial   DialFunc
	policy backoff.Policy
	sleep  func(ctx context.Context, d time.Duration) error

	// dialMu serializes dialing; mu only guards handle so readers never
	// wait on a reconnect in progress.
	dialMu sync.Mutex
	mu     sync.RWMutex
	handle *Handle
}

func (m *Manager) cached() *Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handle
}

// Option customizes a Manager.
type Option func(*Manager)

// WithPolicy overrides the retry policy (backoff.Server by default).
func WithPolicy(p backoff.Policy) Option { return func(m *Manager) { m.policy = p } }

// WithSleep overrides how the manager waits between attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Manager) { m.sleep = fn }
}

func NewManager(dial DialFunc, opts ...Option) *Manager {
	m := &Manager{dial: dial, policy: backoff.Server, sleep: sleepCtx}
	for _, o := range opts {
		o(m)
	}
	return m
}

// NewMongoManager is NewManager with the Mongo dialer for cfg.
func NewMongoManager(cfg config.MongoDBConfig, opts ...Option) *Manager {
	return NewManager(MongoDialer(cfg), opts...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Get returns the cached handle, dialing with retry when none exists.
func (m *Manager) Get(ctx context.Context) (*Handle, error) {
	if h := m.cached(); h != nil {
		return h, nil
	}
	m.dialMu.Lock()
	defer m.dialMu.Unlock()
	if h := m.cached(); h != nil {
		return h, nil
	}

	max := m.policy.Attempts()
	var lastErr error
	for attempt := 1; attempt <= max; attempt++ {
		logger.Infof("store connection attempt %d/%d", attempt, max)
		h, err := m.dial(ctx)
		if err == nil {
			metrics.StoreConnectAttempts.WithLabelValues("ok").Inc()
			logger.Infof("store connected on attempt %d", attempt)
			m.mu.Lock()
			m.handle = h
			m.mu.Unlock()
			return h, nil
		}
		metrics.StoreConnectAttempts.WithLabelValues("error").Inc()
		lastErr = err
		logger.Warnf("store connection attempt %d/%d failed: %v", attempt, max, err)
		if attempt == max {
			break
		}
		delay := m.policy.Delay(attempt)
		logger.Infof("waiting %s before next store connection attempt", delay)
		if err := m.sleep(ctx, delay); err != nil {
			return nil, &ConnectionError{Attempts: attempt, Err: errors.Join(lastErr, err)}
		}
	}
	logger.Errorf("all %d store connection attempts failed", max)
	return nil, &ConnectionError{Attempts: max, Err: lastErr}
}

// Connected reports whether a handle is cached.
func (m *Manager) Connected() bool {
	return m.cached() != nil
}

// Close disconnects the cached handle, if any, and clears the cache.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	h := m.handle
	m.handle = nil
	m.mu.Unlock()
	if h == nil || h.Client == nil {
		return nil
	}
	logger.Infof("closing store connection")
	if err := h.Client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	return nil
}
