package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/console-conteudo/backend/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMessage is returned in the body of every 429 response.
const RateLimitMessage = "too many requests, try again later"

// RateLimitOptions configures the fixed-window limiters: at most Max requests
// per client address in each Window-aligned bucket.
type RateLimitOptions struct {
	Max    int
	Window time.Duration
	// Now overrides the clock (tests).
	Now func() time.Time
}

func (o RateLimitOptions) normalize() RateLimitOptions {
	if o.Max <= 0 {
		o.Max = 100
	}
	if o.Window < time.Second {
		o.Window = 15 * time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// bucket returns the index of the window containing t and the time left in it.
func (o RateLimitOptions) bucket(t time.Time) (int64, time.Duration) {
	w := int64(o.Window / time.Second)
	sec := t.Unix()
	idx := sec / w
	left := time.Duration((idx+1)*w-sec) * time.Second
	return idx, left
}

// memoryLimiter keeps one token bucket per key for the current window. The
// refill rate is one token per window and the table is dropped when the
// window rolls, so each key is admitted exactly Max times per aligned window.
type memoryLimiter struct {
	opts RateLimitOptions

	mu       sync.Mutex
	window   int64
	limiters map[string]*rate.Limiter
}

func (m *memoryLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	idx, left := m.opts.bucket(now)
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx != m.window || m.limiters == nil {
		m.window = idx
		m.limiters = make(map[string]*rate.Limiter)
	}
	lim, ok := m.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(m.opts.Window), m.opts.Max)
		m.limiters[key] = lim
	}
	return lim.AllowN(now, 1), left
}

func clientKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

func rejectRateLimited(c *gin.Context, retryAfter time.Duration, limiter string) {
	secs := int(retryAfter / time.Second)
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	metrics.RateLimitRejected.WithLabelValues(limiter).Inc()
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": RateLimitMessage})
}

// ForPathPrefix runs mw only for requests whose path starts with prefix.
// Mounted on the engine it also covers paths that end in NoRoute.
func ForPathPrefix(prefix string, mw gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, prefix) {
			c.Next()
			return
		}
		mw(c)
	}
}

// RateLimitMiddleware returns a Gin middleware enforcing an in-memory
// fixed-window limit keyed by client IP.
func RateLimitMiddleware(opts RateLimitOptions) gin.HandlerFunc {
	lim := &memoryLimiter{opts: opts.normalize()}
	return func(c *gin.Context) {
		ok, left := lim.allow(clientKey(c), lim.opts.Now())
		if !ok {
			rejectRateLimited(c, left, "memory")
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
