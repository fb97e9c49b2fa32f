package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clarify-backend/internal/analyses"
	"clarify-backend/internal/documents"
	"clarify-backend/internal/shared/config"
	"clarify-backend/internal/shared/metrics"
	"clarify-backend/internal/shared/server/middleware"
	"clarify-backend/internal/shared/server/respond"
)

// RouterDeps carries the wired handlers needed to register routes.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *analyses.Handler
	DocumentHandler *documents.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Identity(),
		middleware.RateLimit(rateLimitConfig()),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}

	return r
}

func rateLimitConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			switch {
			case c.Request.Method == http.MethodGet && c.FullPath() == "/api/v1/analyses/:id/status":
				return "POLLING"
			case c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/upload":
				return "UPLOAD"
			default:
				return "DEFAULT"
			}
		},
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 5, Burst: 20},
			"POLLING": {Rate: 10, Burst: 30},
			"UPLOAD":  {Rate: 0.5, Burst: 5},
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
