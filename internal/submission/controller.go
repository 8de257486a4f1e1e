package submission

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultResetDelay is how long a success indicator stays up before the form
// is cleared.
const DefaultResetDelay = 2 * time.Second

// ErrInFlight is returned when a form is submitted again before its previous
// submission finished.
var ErrInFlight = errors.New("submission already in progress")

type State int

const (
	Idle State = iota
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Feedback renders the lifecycle of a submission. Calls for one form arrive
// in order from the goroutine running Process.
type Feedback interface {
	ShowLoading(collection string)
	FadeForm(collection string)
	ShowSuccess(collection string, res *Response)
	Hide(collection string)
	ShowError(collection, message string)
	UnfadeForm(collection string)
}

// Submitter sends one payload; *Client satisfies it.
type Submitter interface {
	Submit(ctx context.Context, collection string, data map[string]interface{}) (*Response, error)
}

type Controller struct {
	sub        Submitter
	fb         Feedback
	resetDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	states map[Form]State
}

type ControllerOption func(*Controller)

func WithResetDelay(d time.Duration) ControllerOption {
	return func(c *Controller) { c.resetDelay = d }
}

// WithResetSleep replaces the wait before a successful form is reset (tests).
func WithResetSleep(fn func(ctx context.Context, d time.Duration) error) ControllerOption {
	return func(c *Controller) { c.sleep = fn }
}

func NewController(sub Submitter, fb Feedback, opts ...ControllerOption) *Controller {
	c := &Controller{
		sub:        sub,
		fb:         fb,
		resetDelay: DefaultResetDelay,
		sleep:      sleepCtx,
		states:     make(map[Form]State),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the last state recorded for f. Each form instance is tracked
// on its own, even when several target the same collection.
func (c *Controller) State(f Form) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[f]
}

func (c *Controller) begin(f Form) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.states[f] == Submitting {
		return false
	}
	c.states[f] = Submitting
	return true
}

func (c *Controller) finish(f Form, s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[f] = s
}

// Process submits the form's values and walks the feedback lifecycle. On
// success the form is reset after the reset delay; on failure exactly one
// error is shown and the form keeps its values.
func (c *Controller) Process(ctx context.Context, f Form) (*Response, error) {
	if !c.begin(f) {
		return nil, ErrInFlight
	}
	collection := f.Collection()

	c.fb.ShowLoading(collection)
	c.fb.FadeForm(collection)

	res, err := c.sub.Submit(ctx, collection, f.Values())
	if err != nil {
		c.fb.Hide(collection)
		c.fb.ShowError(collection, err.Error())
		c.fb.UnfadeForm(collection)
		c.finish(f, Failed)
		return nil, err
	}

	c.fb.ShowSuccess(collection, res)
	// the success indicator stays up for the full delay even if ctx ends
	_ = c.sleep(context.WithoutCancel(ctx), c.resetDelay)
	c.fb.Hide(collection)
	f.Reset()
	c.fb.UnfadeForm(collection)
	c.finish(f, Succeeded)
	return res, nil
}
