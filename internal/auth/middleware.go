package auth

import (
	"context"
	"strings"
	"time"

	"portfolio-cms/internal/apperr"
	"portfolio-cms/internal/directory"

	"github.com/gin-gonic/gin"
)

const (
	AuthorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// BearerToken extracts the token from an Authorization header value.
// A bare token without the prefix is accepted as well.
func BearerToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
	}
	return raw
}

// Authenticate runs the full chain for one Authorization header value:
// bearer present, access token verified, subject re-authorized against the
// directory.
func Authenticate(ctx context.Context, m *Manager, g *Gate, header string, now time.Time) (directory.Identity, Claims, *apperr.Error) {
	if m == nil || g == nil {
		return directory.Identity{}, Claims{}, apperr.Configuration("Server configuration error")
	}

	raw := strings.TrimSpace(header)
	if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
		return directory.Identity{}, Claims{}, apperr.Unauthorized("Unauthorized - No token provided")
	}

	claims, err := m.Verify(BearerToken(raw), TokenTypeAccess, now)
	if err != nil {
		return directory.Identity{}, Claims{}, AppError(err, TokenTypeAccess)
	}

	id, err := g.Authorize(ctx, claims)
	if err != nil {
		return directory.Identity{}, Claims{}, AppError(err, TokenTypeAccess)
	}
	return id, claims, nil
}

// RequireAdmin rejects the request unless Authenticate succeeds. The live
// identity is injected into the request context.
func RequireAdmin(m *Manager, g *Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, claims, e := Authenticate(c.Request.Context(), m, g, c.GetHeader(AuthorizationHeader), time.Now())
		if e != nil {
			abort(c, e)
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id, claims))

		// Also store on gin context for handler convenience.
		c.Set("user_id", id.ID)
		c.Set("user_email", id.Email)

		c.Next()
	}
}

func abort(c *gin.Context, e *apperr.Error) {
	_ = c.Error(e)
	c.AbortWithStatusJSON(e.Status(), e.Body())
}
