package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"certify-backend/internal/analytics"
	"certify-backend/internal/certificates"
	"certify-backend/internal/services/health"
	"certify-backend/internal/shared/config"
	"certify-backend/internal/shared/metrics"
	"certify-backend/internal/shared/server/middleware"
	"certify-backend/internal/shared/server/respond"
)

const (
	apiPrefix        = "/api/v1"
	healthPath       = apiPrefix + "/health"
	metricsPath      = "/metrics"
	uploadRouteGroup = "UPLOAD"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config       config.Config
	Certificates *certificates.Handler
	Analytics    *analytics.Handler
	Health       *health.Service
	Limiter      *middleware.RateLimiter
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
		middleware.Auth(healthPath, metricsPath),
		middleware.RateLimit(uploadRateLimit(deps.Config, deps.Limiter)),
	)

	r.GET(metricsPath, metrics.Handler())

	api := r.Group(apiPrefix)
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	registerMeRoutes(api)
	if deps.Certificates != nil {
		deps.Certificates.RegisterRoutes(api)
	}
	if deps.Analytics != nil {
		deps.Analytics.RegisterRoutes(api)
	}

	return r
}

func uploadRateLimit(cfg config.Config, limiter *middleware.RateLimiter) middleware.RateLimitConfig {
	rules := map[string]middleware.RateLimitRule{}
	if cfg.UploadsPerMinute > 0 {
		rules[uploadRouteGroup] = middleware.PerMinute(cfg.UploadsPerMinute)
	}
	return middleware.RateLimitConfig{
		Rules:   rules,
		Limiter: limiter,
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == apiPrefix+"/certificates" {
				return uploadRouteGroup
			}
			return ""
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
