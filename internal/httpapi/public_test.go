package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portfolio-cms/internal/content"
	"portfolio-cms/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	getContentPath = "/v1/functions/get-content"
	contactPath    = "/v1/functions/submit-contact"
)

func TestGetContent(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, http.MethodGet, getContentPath, nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing collection parameter", body["error"])
	assert.Equal(t, content.PublicCollections, allowedList(t, body))

	w, body = ts.do(t, http.MethodGet, getContentPath+"?collection=messages", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid collection", body["error"])

	w, body = ts.do(t, http.MethodPost, crudPath, map[string]any{
		"action": "create", "collection": "skills", "data": map[string]any{"name": "Go"},
	}, ts.adminToken(t))
	require.Equal(t, http.StatusOK, w.Code, body)

	w, body = ts.do(t, http.MethodGet, getContentPath+"?collection=skills", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "skills", body["collection"])
	assert.EqualValues(t, 1, body["total"])
	docs := body["documents"].([]any)
	require.Len(t, docs, 1)
	assert.Equal(t, "Go", docs[0].(map[string]any)["name"])
}

func TestSubmitContact(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, http.MethodPost, contactPath, map[string]any{
		"name": "Visitor", "email": "visitor@example.com", "message": "Hello there",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Contact form submitted successfully", body["message"])
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	doc, err := ts.h.Content.Get(context.Background(), content.CollectionMessages, id)
	require.NoError(t, err)
	assert.Equal(t, "No Subject", doc.Fields["subject"])
	assert.Equal(t, false, doc.Fields["read"])
}

func TestSubmitContact_Validation(t *testing.T) {
	ts := newTestServer(t)

	w, body := ts.do(t, http.MethodPost, contactPath, map[string]any{"name": "Visitor", "email": "visitor@example.com"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields", body["error"])
	assert.Equal(t, []any{"name", "email", "message"}, body["required"])

	w, body = ts.do(t, http.MethodPost, contactPath, map[string]any{"name": "V", "email": "not-an-email", "message": "m"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email format", body["error"])

	res, err := ts.h.Content.List(context.Background(), content.CollectionMessages)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
}

func TestSubmitContact_RateLimited(t *testing.T) {
	ts := newTestServer(t)
	ts.limiter.remaining = 1
	msg := map[string]any{"name": "V", "email": "v@example.com", "message": "m"}

	w, _ := ts.do(t, http.MethodPost, contactPath, msg, "")
	require.Equal(t, http.StatusOK, w.Code)

	w, body := ts.do(t, http.MethodPost, contactPath, msg, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests", body["error"])
	assert.Equal(t, "90", w.Header().Get("Retry-After"))
}

func TestSubmitContact_ForwardedForIsIgnoredFromUntrustedPeer(t *testing.T) {
	ts := newTestServer(t)
	ts.limiter.remaining = 1

	var codes []int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, contactPath,
			strings.NewReader(`{"name":"V","email":"v@example.com","message":"m"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.RemoteAddr = "203.0.113.7:41000"
		w := httptest.NewRecorder()
		ts.engine.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{200, 429, 429, 429, 429}, codes)
	require.Len(t, ts.limiter.keys, 5)
	for _, k := range ts.limiter.keys {
		assert.Equal(t, "contact:203.0.113.7", k)
	}

	raw, err := json.Marshal(map[string]any{"action": "create", "collection": "skills", "data": map[string]any{"name": "Go"}})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, crudPath, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.adminToken(t))
	req.Header.Set("X-Forwarded-For", "10.9.9.9")
	req.RemoteAddr = "203.0.113.7:41000"
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	evs := ts.audits.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, "203.0.113.7", evs[0].IPAddress)
}

func TestNewEngine_TrustedProxy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, err := NewEngine([]string{"10.1.0.0/16"})
	require.NoError(t, err)

	var seen string
	r.GET("/ip", func(c *gin.Context) { seen = c.ClientIP() })

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.1.2.3:5000"
	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "198.51.100.9", seen)

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "203.0.113.7:5000"
	req.Header.Set("X-Forwarded-For", "198.51.100.9")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.7", seen)

	_, err = NewEngine([]string{"not-an-ip"})
	assert.Error(t, err)
}

type downLimiter struct{}

func (downLimiter) Allow(context.Context, string) (utils.RateLimitResult, error) {
	return utils.RateLimitResult{}, errors.New("redis down")
}

func TestSubmitContact_LimiterFailureLetsRequestThrough(t *testing.T) {
	ts := newTestServer(t)
	ts.h.Limiter = downLimiter{}

	w, _ := ts.do(t, http.MethodPost, contactPath, map[string]any{"name": "V", "email": "v@example.com", "message": "m"}, "")
	require.Equal(t, http.StatusOK, w.Code)
}
