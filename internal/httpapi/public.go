package httpapi

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"portfolio-cms/internal/apperr"
	"portfolio-cms/internal/content"
	"portfolio-cms/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetContent serves a public collection without authentication.
func (h *Handlers) GetContent(c *gin.Context) {
	collection := strings.TrimSpace(c.Query("collection"))
	defer func() { h.observe(c, FunctionGetContent, metricLabel(collection, content.PublicCollections)) }()

	if h.Content == nil {
		fail(c, apperr.Configuration("Server configuration error"))
		return
	}
	if collection == "" {
		fail(c, apperr.BadRequest("Missing collection parameter").With("allowed", content.PublicCollections))
		return
	}
	if !content.IsPublic(collection) {
		fail(c, invalidCollection(content.PublicCollections))
		return
	}

	res, err := h.Content.ListPublic(c.Request.Context(), collection)
	if err != nil {
		fail(c, apperr.OperationFailed("Failed to fetch content", err))
		return
	}
	respond(c, gin.H{"collection": collection, "total": res.Total, "documents": res.Documents})
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SubmitContact stores a visitor message. Submissions are rate limited per
// client IP when a limiter is configured.
func (h *Handlers) SubmitContact(c *gin.Context) {
	defer func() { h.observe(c, FunctionSubmitContact, "submit") }()

	if h.Content == nil {
		fail(c, apperr.Configuration("Server configuration error"))
		return
	}
	if !h.allowContact(c) {
		return
	}

	var req contactRequest
	if err := decodeBody(c, &req); err != nil {
		fail(c, err)
		return
	}

	doc, err := h.Content.SubmitContact(c.Request.Context(), content.ContactSubmission{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	switch {
	case errors.Is(err, content.ErrContactFieldsMissing):
		fail(c, apperr.BadRequest("Missing required fields").With("required", content.ContactRequiredFields))
		return
	case errors.Is(err, content.ErrInvalidEmail):
		fail(c, apperr.BadRequest("Invalid email format"))
		return
	case err != nil:
		fail(c, apperr.OperationFailed("Failed to submit contact form", err))
		return
	}

	logger.FromGin(c).Info("contact submission stored", zap.String("id", doc.ID))
	respond(c, gin.H{"message": "Contact form submitted successfully", "id": doc.ID})
}

// allowContact applies the limiter. A limiter failure lets the request through.
func (h *Handlers) allowContact(c *gin.Context) bool {
	if h.Limiter == nil {
		return true
	}
	res, err := h.Limiter.Allow(c.Request.Context(), "contact:"+c.ClientIP())
	if err != nil {
		logger.FromGin(c).Warn("contact rate limiter unavailable", zap.Error(err))
		return true
	}
	if res.Allowed {
		return true
	}

	h.Metrics.ObserveRateLimited()
	secs := int(math.Ceil(res.RetryAfter.Seconds()))
	c.Header("Retry-After", strconv.Itoa(secs))
	fail(c, apperr.TooManyRequests("Too many requests").With("retryAfter", secs))
	return false
}
