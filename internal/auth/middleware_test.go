package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio-cms/internal/directory"

	"github.com/gin-gonic/gin"
)

func runProtected(t *testing.T, m *Manager, g *Gate, header string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", RequireAdmin(m, g), func(c *gin.Context) {
		id, err := IdentityFrom(c.Request.Context())
		if err != nil {
			c.Status(500)
			return
		}
		c.JSON(200, gin.H{"id": id.ID})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestRequireAdmin_MissingToken(t *testing.T) {
	dir, _ := seedAdmin(t)
	w, body := runProtected(t, testManager(t), NewGate(dir), "")
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if body["error"] == nil {
		t.Fatalf("expected error envelope, got %v", body)
	}
}

func TestRequireAdmin_ValidToken(t *testing.T) {
	dir, id := seedAdmin(t)
	m := testManager(t)
	pair, err := m.IssuePair(time.Now(), id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	w, body := runProtected(t, m, NewGate(dir), "Bearer "+pair.AccessToken)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d (%v)", w.Code, body)
	}
	if body["id"] != id.ID {
		t.Fatalf("expected identity in context, got %v", body)
	}
}

func TestRequireAdmin_ExpiredTokenFlagged(t *testing.T) {
	dir, id := seedAdmin(t)
	m := testManager(t)
	pair, err := m.IssuePair(time.Now().Add(-time.Hour), id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	w, body := runProtected(t, m, NewGate(dir), "Bearer "+pair.AccessToken)
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if body["expired"] != true {
		t.Fatalf("expected expired flag, got %v", body)
	}
}

func TestRequireAdmin_RefreshTokenRejected(t *testing.T) {
	dir, id := seedAdmin(t)
	m := testManager(t)
	pair, _ := m.IssuePair(time.Now(), id)

	w, body := runProtected(t, m, NewGate(dir), "Bearer "+pair.RefreshToken)
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if body["error"] != "Invalid token type" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRequireAdmin_RevokedAdminForbidden(t *testing.T) {
	dir, id := seedAdmin(t)
	m := testManager(t)
	pair, _ := m.IssuePair(time.Now(), id)
	if err := dir.SetLabels(context.Background(), id.ID, nil); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	w, _ := runProtected(t, m, NewGate(dir), "Bearer "+pair.AccessToken)
	if w.Code != 403 {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireAdmin_NilManagerIsConfigurationError(t *testing.T) {
	w, body := runProtected(t, nil, NewGate(directory.NewMemoryDirectory(nil)), "Bearer x")
	if w.Code != 500 {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if body["error"] != "Server configuration error" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestBearerToken(t *testing.T) {
	if got := BearerToken("Bearer abc"); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := BearerToken("  abc "); got != "abc" {
		t.Fatalf("got %q", got)
	}
}
