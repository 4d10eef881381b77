package main

import (
	"net/http"
	"time"

	"portfolio-cms/internal/httpapi"
	"portfolio-cms/pkg/logger"
	"portfolio-cms/pkg/metrics"
	"portfolio-cms/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h *httpapi.Handlers, m *metrics.Metrics, db *sqlx.DB) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db.DB, 2*time.Second); err != nil {
			logger.FromGin(c).Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// /v1/functions/{admin-auth,crud-content,get-content,submit-contact}
	h.Register(r)
}
