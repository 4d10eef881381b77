package httpapi

import (
	"context"
	"errors"
	"strings"

	"portfolio-cms/internal/apperr"
	"portfolio-cms/internal/audit"
	"portfolio-cms/internal/auth"
	"portfolio-cms/internal/directory"
	"portfolio-cms/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type adminAuthRequest struct {
	Action       AuthAction `json:"action"`
	Email        string     `json:"email"`
	UserID       string     `json:"userId"`
	Password     string     `json:"password"`
	Name         string     `json:"name"`
	RefreshToken string     `json:"refreshToken"`
	AccessToken  string     `json:"accessToken"`
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
}

func adminView(id directory.Identity) userView {
	return userView{ID: id.ID, Email: id.Email, Name: id.Name, Role: auth.RoleAdmin}
}

// AdminAuth issues, refreshes and verifies admin tokens and registers new
// admins.
func (h *Handlers) AdminAuth(c *gin.Context) {
	var req adminAuthRequest
	defer func() { h.observe(c, FunctionAdminAuth, metricLabel(string(req.Action), AuthActions)) }()

	if h.Auth == nil || h.Gate == nil || h.Directory == nil {
		fail(c, apperr.Configuration("Server configuration error"))
		return
	}
	if err := decodeBody(c, &req); err != nil {
		fail(c, err)
		return
	}

	switch req.Action {
	case ActionGetTokens:
		h.getTokens(c, req)
	case ActionLogin:
		h.login(c, req)
	case ActionRefresh:
		h.refresh(c, req)
	case ActionVerify:
		h.verify(c, req)
	case ActionRegister:
		h.register(c, req)
	default:
		fail(c, invalidAction(AuthActions))
	}
}

// getTokens reissues a pair for the admin behind a valid access token. The
// body names the user the caller expects to be; it must match the token.
func (h *Handlers) getTokens(c *gin.Context, req adminAuthRequest) {
	caller, _, e := auth.Authenticate(c.Request.Context(), h.Auth, h.Gate, c.GetHeader(auth.AuthorizationHeader), h.now())
	if e != nil {
		fail(c, e)
		return
	}

	email, userID := strings.TrimSpace(req.Email), strings.TrimSpace(req.UserID)
	if email == "" && userID == "" {
		fail(c, apperr.BadRequest("Email or userId required"))
		return
	}

	id, err := h.lookup(c.Request.Context(), userID, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			fail(c, apperr.NotFound("User not found"))
			return
		}
		fail(c, apperr.OperationFailed("Failed to get tokens", err))
		return
	}
	if id.ID != caller.ID {
		fail(c, apperr.Forbidden("Access denied - Token does not belong to user"))
		return
	}
	h.issue(c, id)
}

func (h *Handlers) lookup(ctx context.Context, userID, email string) (directory.Identity, error) {
	if userID != "" {
		return h.Directory.GetByID(ctx, userID)
	}
	ids, err := h.Directory.ListByEmail(ctx, email)
	if err != nil {
		return directory.Identity{}, err
	}
	if len(ids) == 0 {
		return directory.Identity{}, directory.ErrNotFound
	}
	return ids[0], nil
}

func (h *Handlers) login(c *gin.Context, req adminAuthRequest) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		fail(c, apperr.BadRequest("Email and password required"))
		return
	}
	id, err := h.Directory.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidCredentials) {
			fail(c, apperr.Unauthorized("Invalid credentials"))
			return
		}
		fail(c, apperr.OperationFailed("Authentication failed", err))
		return
	}
	h.issue(c, id)
}

func (h *Handlers) issue(c *gin.Context, id directory.Identity) {
	if !id.IsAdmin() {
		fail(c, apperr.Forbidden("Access denied - Not an admin"))
		return
	}
	pair, err := h.Auth.IssuePair(h.now(), id)
	if err != nil {
		fail(c, auth.AppError(err, auth.TokenTypeAccess))
		return
	}
	logger.FromGin(c).Info("admin tokens issued", zap.String("user_id", id.ID))
	respond(c, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"user":         adminView(id),
	})
}

func (h *Handlers) refresh(c *gin.Context, req adminAuthRequest) {
	tok := strings.TrimSpace(req.RefreshToken)
	if tok == "" {
		fail(c, apperr.BadRequest("Refresh token required"))
		return
	}
	now := h.now()
	claims, err := h.Auth.Verify(tok, auth.TokenTypeRefresh, now)
	if err != nil {
		fail(c, auth.AppError(err, auth.TokenTypeRefresh))
		return
	}
	id, err := h.Gate.Authorize(c.Request.Context(), claims)
	if err != nil {
		fail(c, auth.AppError(err, auth.TokenTypeRefresh))
		return
	}
	access, _, err := h.Auth.IssueAccess(now, id)
	if err != nil {
		fail(c, auth.AppError(err, auth.TokenTypeAccess))
		return
	}
	respond(c, gin.H{"accessToken": access})
}

func (h *Handlers) verify(c *gin.Context, req adminAuthRequest) {
	tok := auth.BearerToken(c.GetHeader(auth.AuthorizationHeader))
	if tok == "" {
		tok = auth.BearerToken(req.AccessToken)
	}
	if tok == "" {
		fail(c, apperr.BadRequest("Access token required"))
		return
	}
	claims, err := h.Auth.Verify(tok, auth.TokenTypeAccess, h.now())
	if err != nil {
		fail(c, auth.AppError(err, auth.TokenTypeAccess))
		return
	}
	id, err := h.Gate.Authorize(c.Request.Context(), claims)
	if err != nil {
		fail(c, auth.AppError(err, auth.TokenTypeAccess))
		return
	}
	respond(c, gin.H{"valid": true, "user": adminView(id)})
}

// register creates another admin. Only an existing admin may call it.
func (h *Handlers) register(c *gin.Context, req adminAuthRequest) {
	caller, claims, e := auth.Authenticate(c.Request.Context(), h.Auth, h.Gate, c.GetHeader(auth.AuthorizationHeader), h.now())
	if e != nil {
		fail(c, e)
		return
	}
	c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), caller, claims))

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		fail(c, apperr.BadRequest("Email and password required"))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Admin"
	}

	created, err := h.Directory.Create(c.Request.Context(), directory.NewUser{
		Email:    req.Email,
		Password: req.Password,
		Name:     name,
		Labels:   []string{directory.LabelAdmin},
	})
	if err != nil {
		if errors.Is(err, directory.ErrAlreadyExists) || errors.Is(err, directory.ErrInvalidArgument) {
			fail(c, apperr.BadRequest("Failed to create admin").With("message", err.Error()))
			return
		}
		fail(c, apperr.OperationFailed("Failed to create admin", err))
		return
	}

	h.record(c, func(ctx context.Context, actor audit.Actor) error {
		return h.Audit.LogAdmin(ctx, actor, string(ActionRegister), created.ID)
	})
	logger.FromGin(c).Info("admin created", zap.String("user_id", created.ID), zap.String("by", caller.ID))
	respond(c, gin.H{
		"message": "Admin user created",
		"user":    userView{ID: created.ID, Email: created.Email, Name: created.Name},
	})
}
