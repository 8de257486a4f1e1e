// Package backoff computes capped exponential delays between retry attempts.
package backoff

import "time"

// Policy describes an exponential backoff: the delay before retrying after
// failed attempt n is Base*2^(n-1), never more than Ceiling.
type Policy struct {
	Base        time.Duration
	Ceiling     time.Duration
	MaxAttempts int
}

var (
	// Server is used when (re)establishing the store connection.
	Server = Policy{Base: time.Second, Ceiling: 10 * time.Second, MaxAttempts: 5}
	// Client is used by the submission client around POST /api/submit.
	Client = Policy{Base: time.Second, Ceiling: 5 * time.Second, MaxAttempts: 3}
)

// Delay returns the wait before the next try after attempt (1-based) failed.
// Attempts below 1 are treated as 1.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.Base
	for i := 1; i < attempt; i++ {
		if d >= p.Ceiling || d > p.Ceiling/2 {
			return p.Ceiling
		}
		d *= 2
	}
	if d > p.Ceiling {
		return p.Ceiling
	}
	return d
}

// Attempts returns MaxAttempts, or 1 when the policy was left unset.
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}
