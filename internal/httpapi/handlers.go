package httpapi

import (
	"context"
	"fmt"
	"time"

	"portfolio-cms/internal/audit"
	"portfolio-cms/internal/auth"
	"portfolio-cms/internal/blob"
	"portfolio-cms/internal/content"
	"portfolio-cms/internal/directory"
	"portfolio-cms/pkg/logger"
	"portfolio-cms/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Function names double as route suffixes and metric labels.
const (
	FunctionAdminAuth     = "admin-auth"
	FunctionCRUDContent   = "crud-content"
	FunctionGetContent    = "get-content"
	FunctionSubmitContact = "submit-contact"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth      *auth.Manager
	Gate      *auth.Gate
	Directory directory.Directory
	Content   *content.Service
	Files     *blob.Service

	// Optional collaborators.
	Audit   *audit.Service
	Limiter RateLimiter
	Metrics *metrics.Metrics
	Clock   func() time.Time
}

// NewEngine returns a bare engine that reads forwarding headers only from
// trustedProxies. Nil trusts none.
func NewEngine(trustedProxies []string) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("httpapi: trusted proxies: %w", err)
	}
	return r, nil
}

// Register mounts every function on r. Wrong methods on a known path get 405.
func (h *Handlers) Register(r *gin.Engine) {
	r.HandleMethodNotAllowed = true
	r.NoMethod(methodNotAllowed)

	fn := r.Group("/v1/functions")
	fn.POST("/"+FunctionAdminAuth, h.AdminAuth)
	fn.POST("/"+FunctionCRUDContent, auth.RequireAdmin(h.Auth, h.Gate), h.CRUDContent)
	fn.GET("/"+FunctionGetContent, h.GetContent)
	fn.POST("/"+FunctionSubmitContact, h.SubmitContact)
}

func (h *Handlers) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

func (h *Handlers) observe(c *gin.Context, function string, action string) {
	h.Metrics.ObserveAction(function, action, c.Writer.Status())
}

// record writes an audit event. Failures are logged, never returned.
func (h *Handlers) record(c *gin.Context, fn func(ctx context.Context, actor audit.Actor) error) {
	if h.Audit == nil {
		return
	}
	actor := audit.Actor{IP: c.ClientIP()}
	if id, err := auth.IdentityFrom(c.Request.Context()); err == nil {
		actor.UserID = id.ID
		actor.Email = id.Email
	}
	if err := fn(c.Request.Context(), actor); err != nil {
		logger.FromGin(c).Warn("audit append failed", zap.Error(err))
	}
}
