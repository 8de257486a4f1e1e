package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/console-conteudo/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// APIVersion is reported by GET /api/test.
const APIVersion = "2.0.0"

// Endpoints lists the public routes, echoed by the not-found handler.
var Endpoints = []string{
	"GET /health",
	"GET /api/test",
	"POST /api/submit",
	"GET /api/data/:collection",
}

// StoreStatus reports whether the store connection is currently open.
type StoreStatus interface {
	Connected() bool
}

// SystemInfo is the runtime information exposed by the health and test endpoints.
type SystemInfo struct {
	Environment   string
	Database      string
	FrontendURL   string
	HasStoreURI   bool
	VerboseErrors bool
	Started       time.Time
}

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// RegisterSystemRoutes mounts GET /health on r and GET /test on api.
func RegisterSystemRoutes(r *gin.Engine, api gin.IRoutes, store StoreStatus, info SystemInfo) {
	if info.Started.IsZero() {
		info.Started = time.Now()
	}

	r.GET("/health", func(c *gin.Context) {
		state := "disconnected"
		if store != nil && store.Connected() {
			state = "connected"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":      "OK",
			"timestamp":   timestamp(),
			"uptime":      time.Since(info.Started).Seconds(),
			"environment": info.Environment,
			"store":       state,
		})
	})

	api.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "API is running",
			"timestamp": timestamp(),
			"version":   APIVersion,
			"environment": gin.H{
				"hasStoreUri": info.HasStoreURI,
				"dbName":      info.Database,
				"environment": info.Environment,
				"frontendUrl": info.FrontendURL,
			},
		})
	})
}

// NotFound answers unmatched routes with the list of available endpoints.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success":            false,
		"message":            "endpoint not found",
		"availableEndpoints": Endpoints,
	})
}

// Recovery turns panics into the standard 500 body.
func Recovery(verbose bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Errorf("unhandled panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		detail := "internal error"
		if verbose {
			detail = fmt.Sprint(recovered)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "internal server error",
			"error":   detail,
		})
	})
}
