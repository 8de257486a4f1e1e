package service

import (
	"context"
	"time"

	"github.com/console-conteudo/backend/internal/document"
	"github.com/console-conteudo/backend/internal/document/repository"
	"github.com/console-conteudo/backend/pkg/logger"
	"github.com/console-conteudo/backend/pkg/metrics"
)

// SubmitResult describes a stored submission.
type SubmitResult struct {
	ID        string
	Timestamp time.Time
}

// Service defines the document operations used by the handler layer.
type Service interface {
	// Submit validates and inserts data into collection. Every call inserts a
	// new document; identical payloads are not deduplicated.
	Submit(ctx context.Context, collection string, data map[string]interface{}) (*SubmitResult, error)
	// Recent lists the newest documents of collection, up to document.RecentLimit.
	Recent(ctx context.Context, collection string) ([]document.Document, error)
}

type service struct {
	repo repository.Repository
	now  func() time.Time
}

// Option customizes the service.
type Option func(*service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option { return func(s *service) { s.now = now } }

// New returns a Service persisting through repo.
func New(repo repository.Repository, opts ...Option) Service {
	s := &service{repo: repo, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService(opts ...Option) Service {
	return New(repository.NewMemoryRepo(), opts...)
}

// ValidateSubmission checks presence first, then the collection name.
func ValidateSubmission(collection string, data map[string]interface{}) error {
	if collection == "" || data == nil {
		return document.ErrMissingFields()
	}
	return ValidateCollection(collection)
}

// ValidateCollection rejects names outside document.Collections.
func ValidateCollection(collection string) error {
	if !document.ValidCollection(collection) {
		return document.ErrInvalidCollection()
	}
	return nil
}

func (s *service) Submit(ctx context.Context, collection string, data map[string]interface{}) (*SubmitResult, error) {
	if err := ValidateSubmission(collection, data); err != nil {
		metrics.Submissions.WithLabelValues(metricCollection(collection), "invalid").Inc()
		return nil, err
	}
	at := s.now().UTC()
	logger.Debugf("inserting into collection %s", collection)
	id, err := s.repo.Insert(ctx, collection, document.Stamped(data, at))
	if err != nil {
		metrics.Submissions.WithLabelValues(collection, "error").Inc()
		logger.Errorf("insert into %s failed: %v", collection, err)
		return nil, &document.StoreError{Op: "insert", Collection: collection, Err: err}
	}
	metrics.Submissions.WithLabelValues(collection, "ok").Inc()
	logger.Infof("document %s inserted into %s", id, collection)
	return &SubmitResult{ID: id, Timestamp: at}, nil
}

func (s *service) Recent(ctx context.Context, collection string) ([]document.Document, error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}
	docs, err := s.repo.Recent(ctx, collection, document.RecentLimit)
	if err != nil {
		logger.Errorf("query %s failed: %v", collection, err)
		return nil, &document.StoreError{Op: "find", Collection: collection, Err: err}
	}
	return docs, nil
}

// metricCollection keeps label cardinality bounded for rejected names.
func metricCollection(name string) string {
	if document.ValidCollection(name) {
		return name
	}
	return "invalid"
}
