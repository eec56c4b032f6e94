package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"datacenter-audit-backend/config"
	"datacenter-audit-backend/internal/auth"
	"datacenter-audit-backend/internal/mw"
	"datacenter-audit-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, hasher auth.PasswordHasher, tokens auth.TokenManager) *gin.Engine {
	r := gin.Default()
	handler := NewHandler(s, hasher, tokens, cfg.Report.MaxRows)

	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConf := cors.DefaultConfig()
	corsConf.AllowHeaders = []string{"Authorization", "Content-Type", "Accept"}
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConf.AllowOrigins = cfg.Server.AllowedOrigins
	} else {
		corsConf.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConf))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)

	// Unauthenticated endpoints
	api.POST("/auth/register", handler.Register)
	api.POST("/auth/login", handler.Login)

	// Everything else requires a bearer token
	authed := api.Group("")
	authed.Use(mw.Auth(tokens))
	{
		authed.GET("/auth/profile", handler.GetProfile)
		authed.PUT("/auth/profile", handler.UpdateProfile)
		authed.DELETE("/auth/profile", handler.DeactivateAccount)

		authed.POST("/audits", handler.CreateAudit)
		authed.GET("/audits", handler.ListAudits)
		authed.GET("/audits/:id", handler.GetAudit)
		authed.PUT("/audits/:id", handler.UpdateAuditStatus)
		authed.POST("/audits/:id/complete", handler.CompleteAudit)
		authed.DELETE("/audits/:id", handler.DeleteAudit)

		authed.POST("/issues", handler.CreateIssue)
		authed.GET("/issues", handler.ListIssues)
		authed.GET("/issues/statistics", handler.IssueStatistics)
		authed.GET("/issues/:id", handler.GetIssue)
		authed.PUT("/issues/:id", handler.UpdateIssue)
		authed.POST("/issues/:id/resolve", handler.ResolveIssue)
		authed.POST("/issues/:id/reopen", handler.ReopenIssue)

		authed.GET("/incidents", handler.ListIncidents)
		authed.GET("/incidents/:id", handler.GetIncident)
		authed.PUT("/incidents/:id/status", handler.UpdateIncidentStatus)

		authed.GET("/reports/generate", handler.GenerateReport)
		authed.GET("/dashboard/metrics", caching, handler.DashboardMetrics)
	}

	return r
}
