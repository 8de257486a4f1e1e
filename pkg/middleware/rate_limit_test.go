package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/console-conteudo/backend/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newLimitedRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	return r
}

func doGet(r http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	r := newLimitedRouter(RateLimitMiddleware(RateLimitOptions{Max: 10, Window: time.Minute}))

	require.Equal(t, http.StatusOK, doGet(r, "").Code)
	require.Equal(t, http.StatusOK, doGet(r, "").Code)

	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_BlocksWithinWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	r := newLimitedRouter(RateLimitMiddleware(RateLimitOptions{Max: 2, Window: 15 * time.Minute, Now: clock.Now}))

	require.Equal(t, http.StatusOK, doGet(r, "").Code)
	clock.t = clock.t.Add(5 * time.Minute)
	require.Equal(t, http.StatusOK, doGet(r, "").Code)

	clock.t = clock.t.Add(5 * time.Minute)
	w := doGet(r, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.JSONEq(t, `{"success":false,"message":"`+RateLimitMessage+`"}`, w.Body.String())
	require.Equal(t, "300", w.Header().Get("Retry-After"))

	// next window starts fresh
	clock.t = clock.t.Add(5 * time.Minute)
	require.Equal(t, http.StatusOK, doGet(r, "").Code)
}

func TestRateLimitMiddleware_KeysByClientAddress(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	r := newLimitedRouter(RateLimitMiddleware(RateLimitOptions{Max: 1, Window: time.Hour, Now: clock.Now}))

	require.Equal(t, http.StatusOK, doGet(r, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, doGet(r, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusOK, doGet(r, "10.0.0.2:1234").Code)
}

func TestForPathPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ForPathPrefix("/api/", RateLimitMiddleware(RateLimitOptions{Max: 1, Window: time.Minute})))
	r.GET("/api/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/free", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}
	require.Equal(t, http.StatusOK, get("/api/x"))
	require.Equal(t, http.StatusTooManyRequests, get("/api/x"))
	require.Equal(t, http.StatusTooManyRequests, get("/api/missing"))
	require.Equal(t, http.StatusOK, get("/free"))
	require.Equal(t, http.StatusOK, get("/free"))
}
