// Package server assembles the HTTP router from the document service, the
// system handlers and the shared middleware stack.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/console-conteudo/backend/handlers"
	"github.com/console-conteudo/backend/internal/config"
	"github.com/console-conteudo/backend/internal/document/handler"
	"github.com/console-conteudo/backend/internal/document/service"
	"github.com/console-conteudo/backend/pkg/logger"
	"github.com/console-conteudo/backend/pkg/middleware"
)

// Deps are the collaborators the router is built from. Redis and Gatherer
// are optional.
type Deps struct {
	Config   *config.Config
	Service  service.Service
	Store    handlers.StoreStatus
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
	Started  time.Time
	// Now overrides the rate limiter clock (tests).
	Now func() time.Time
}

// CORS restricts cross-origin access to the configured front-end.
func CORS(frontendURL string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func rateLimiter(d Deps) gin.HandlerFunc {
	rl := d.Config.RateLimit
	opts := middleware.RateLimitOptions{Max: rl.Max, Window: rl.Window, Now: d.Now}
	if rl.UseRedis && d.Redis != nil {
		logger.Infof("rate limiter: redis fixed window, %d per %s", rl.Max, rl.Window)
		return middleware.RedisRateLimitMiddleware(d.Redis, opts)
	}
	logger.Infof("rate limiter: in-memory fixed window, %d per %s", rl.Max, rl.Window)
	return middleware.RateLimitMiddleware(opts)
}

// New builds the gin engine serving every public route.
func New(d Deps) *gin.Engine {
	cfg := d.Config
	verbose := cfg.Server.Development()

	r := gin.New()
	r.Use(handlers.Recovery(verbose))
	r.Use(middleware.RequestID(), middleware.RequestLogging(), middleware.SecurityHeaders())
	if cfg.Server.FrontendURL != "" {
		r.Use(CORS(cfg.Server.FrontendURL))
	}
	if cfg.Server.BodyLimit > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	// on the engine so unmatched /api/ paths are counted too
	if cfg.RateLimit.Enabled {
		r.Use(middleware.ForPathPrefix("/api/", rateLimiter(d)))
	}
	api := r.Group("/api")

	handler.RegisterDocumentRoutes(api, d.Service, handler.Options{VerboseErrors: verbose})
	handlers.RegisterSystemRoutes(r, api, d.Store, handlers.SystemInfo{
		Environment:   cfg.Server.Environment,
		Database:      cfg.MongoDB.Database,
		FrontendURL:   cfg.Server.FrontendURL,
		HasStoreURI:   cfg.MongoDB.URI != "",
		VerboseErrors: verbose,
		Started:       d.Started,
	})
	handlers.RegisterSwagger(r)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	r.NoRoute(handlers.NotFound)
	return r
}
