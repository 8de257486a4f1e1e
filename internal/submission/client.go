// Package submission is the client side of the console: it posts form
// payloads to the backend with retry and drives the per-form feedback
// lifecycle.
package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/console-conteudo/backend/pkg/backoff"
	"github.com/console-conteudo/backend/pkg/logger"
)

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://localhost:3002"

// RequestError is a failed exchange with the backend: a non-2xx status or a
// 2xx body with success=false.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// Response is the envelope every backend endpoint answers with.
type Response struct {
	Success          bool                     `json:"success"`
	ID               string                   `json:"id,omitempty"`
	Message          string                   `json:"message,omitempty"`
	Timestamp        string                   `json:"timestamp,omitempty"`
	Error            string                   `json:"error,omitempty"`
	Data             []map[string]interface{} `json:"data,omitempty"`
	Count            int                      `json:"count,omitempty"`
	Version          string                   `json:"version,omitempty"`
	Required         []string                 `json:"required,omitempty"`
	ValidCollections []string                 `json:"validCollections,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
	policy  backoff.Policy
	sleep   func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithPolicy(p backoff.Policy) Option { return func(c *Client) { c.policy = p } }

// WithSleep replaces the wait between attempts (tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		policy:  backoff.Client,
		sleep:   sleepCtx,
	}
	for _, o := range opts {
		o(c)
	}
	return c
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

// Submit posts data to the named collection, retrying failed attempts with
// the client backoff policy. The last failure is returned once attempts run
// out.
func (c *Client) Submit(ctx context.Context, collection string, data map[string]interface{}) (*Response, error) {
	body, err := json.Marshal(map[string]interface{}{"collection": collection, "data": data})
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}
	return c.retry(ctx, func() (*Response, error) {
		return c.do(ctx, http.MethodPost, "/api/submit", body)
	})
}

// Ping reports whether the backend answers GET /api/test.
func (c *Client) Ping(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/api/test", nil)
}

// Recent lists the newest documents of a collection.
func (c *Client) Recent(ctx context.Context, collection string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/api/data/"+url.PathEscape(collection), nil)
}

func (c *Client) retry(ctx context.Context, call func() (*Response, error)) (*Response, error) {
	attempts := c.policy.Attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := call()
		if err == nil {
			if attempt > 1 {
				logger.Infof("submission succeeded on attempt %d/%d", attempt, attempts)
			}
			return res, nil
		}
		lastErr = err
		logger.Warnf("submission attempt %d/%d failed: %v", attempt, attempts, err)
		if attempt == attempts {
			break
		}
		if err := c.sleep(ctx, c.policy.Delay(attempt)); err != nil {
			return nil, errors.Join(lastErr, err)
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out Response
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Message
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, &RequestError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = "operation failed"
		}
		return nil, &RequestError{Status: resp.StatusCode, Message: msg}
	}
	return &out, nil
}
