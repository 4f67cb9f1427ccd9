package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docdocs-backend/internal/shared/config"
	"docdocs-backend/internal/shared/metrics"
	"docdocs-backend/internal/shared/server/middleware"
	"docdocs-backend/internal/shared/server/respond"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

const apiRateLimitGroup = "API"

// RouteRegistrar attaches a feature's routes to the /api group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps are the handlers and shared collaborators mounted by NewRouter.
type RouterDeps struct {
	Config             config.Config
	Metrics            *metrics.Metrics
	AnalysisHandler    RouteRegistrar
	SuggestionsHandler RouteRegistrar
	// AIEnabled is reported on the root endpoint.
	AIEnabled bool
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
	)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", deps.Metrics.Handler())
	}

	r.GET("/", func(c *gin.Context) {
		respond.OK(c, gin.H{
			"message":    "DocDocs API is running",
			"version":    Version,
			"ai_enabled": deps.AIEnabled,
		})
	})
	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"status": "healthy"})
	})

	api := r.Group("/api")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: apiRateLimitGroup,
		Rules: map[string]middleware.RateLimitRule{
			apiRateLimitGroup: {Rate: deps.Config.RateLimitRPS, Burst: deps.Config.RateLimitBurst},
		},
	}))
	for _, h := range []RouteRegistrar{deps.AnalysisHandler, deps.SuggestionsHandler} {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
