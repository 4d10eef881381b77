package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"portfolio-cms/internal/config"
	"portfolio-cms/internal/directory"

	"github.com/golang-jwt/jwt/v5"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

var testIdentity = directory.Identity{ID: "u1", Email: "a@b.com", Name: "Admin", Labels: []string{directory.LabelAdmin}}

func TestNewManager_RequiresBothSecrets(t *testing.T) {
	for _, cfg := range []config.AuthConfig{
		{AccessSecret: "a"},
		{RefreshSecret: "b"},
		{},
	} {
		if _, err := NewManager(cfg); !errors.Is(err, ErrMissingSecret) {
			t.Fatalf("expected ErrMissingSecret for %+v, got %v", cfg, err)
		}
	}
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()

	pair, err := m.IssuePair(now, testIdentity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token strings")
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID() != "u1" || claims.Email != "a@b.com" || claims.Role != RoleAdmin || claims.TokenType != TokenTypeAccess {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if got := claims.ExpiresAt.Time.Sub(now); got != 900*time.Second {
		t.Fatalf("expected access exp now+900s, got %v", got)
	}
}

func TestRefreshTokenCarriesNoEmail(t *testing.T) {
	m := testManager(t)
	now := time.Now()

	pair, err := m.IssuePair(now, testIdentity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Verify(pair.RefreshToken, TokenTypeRefresh, now)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if claims.Email != "" || claims.Role != "" {
		t.Fatalf("refresh token leaked identity claims: %+v", claims)
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 7*24*time.Hour {
		t.Fatalf("expected refresh lifetime 7d, got %v", got)
	}
}

func TestVerify_KeySeparation(t *testing.T) {
	m := testManager(t)
	now := time.Now()
	pair, err := m.IssuePair(now, testIdentity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := Verify(pair.AccessToken, TokenTypeAccess, []byte("refresh-secret"), now); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("access token under refresh secret: expected ErrInvalidSignature, got %v", err)
	}
	if _, err := Verify(pair.RefreshToken, TokenTypeRefresh, []byte("access-secret"), now); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("refresh token under access secret: expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerify_RejectsWrongTokenType(t *testing.T) {
	m := testManager(t)
	now := time.Now()
	p, err := m.IssuePair(now, testIdentity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Verify(p.RefreshToken, TokenTypeAccess, now); !errors.Is(err, ErrWrongTokenKind) {
		t.Fatalf("refresh as access: expected ErrWrongTokenKind, got %v", err)
	}
	if _, err := m.Verify(p.AccessToken, TokenTypeRefresh, now); !errors.Is(err, ErrWrongTokenKind) {
		t.Fatalf("access as refresh: expected ErrWrongTokenKind, got %v", err)
	}
	// same secret, wrong kind: the pure verifier reports the kind too
	if _, err := Verify(p.AccessToken, TokenTypeRefresh, []byte("access-secret"), now); !errors.Is(err, ErrWrongTokenKind) {
		t.Fatalf("pure verify: expected ErrWrongTokenKind, got %v", err)
	}
}

func TestVerify_ExpiredEvenWithValidSignature(t *testing.T) {
	m := testManager(t)
	issued := time.Unix(1700000000, 0)
	p, err := m.IssuePair(issued, testIdentity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = m.Verify(p.AccessToken, TokenTypeAccess, issued.Add(16*time.Minute))
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expiry must be distinct from signature failure")
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	m := testManager(t)
	now := time.Now()
	p, err := m.IssuePair(now, testIdentity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(p.AccessToken, ".")
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "attacker", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		Role:             RoleAdmin,
		TokenType:        TokenTypeAccess,
	}).SignedString([]byte("guess"))
	if err != nil {
		t.Fatalf("forge: %v", err)
	}
	spliced := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

	if _, err := m.Verify(spliced, TokenTypeAccess, now); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerify_RejectsNonHS256AndGarbage(t *testing.T) {
	now := time.Now()
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
		Role:             RoleAdmin,
		TokenType:        TokenTypeAccess,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := Verify(unsigned, TokenTypeAccess, []byte("access-secret"), now); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("alg=none: expected ErrInvalidSignature, got %v", err)
	}
	if _, err := Verify("not.a-token", TokenTypeAccess, []byte("access-secret"), now); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("garbage: expected ErrMalformedToken, got %v", err)
	}
	if _, err := Verify("x.y.z", TokenTypeAccess, nil, now); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("empty secret: expected ErrMissingSecret, got %v", err)
	}
}

func TestVerify_IssuerAndAudience(t *testing.T) {
	m, err := NewManager(config.AuthConfig{AccessSecret: "a", RefreshSecret: "b", Issuer: "cms", Audience: "admin-ui"})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	now := time.Now()
	p, err := m.IssuePair(now, testIdentity)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(p.AccessToken, TokenTypeAccess, now); err != nil {
		t.Fatalf("verify: %v", err)
	}

	other, _ := NewManager(config.AuthConfig{AccessSecret: "a", RefreshSecret: "b", Issuer: "someone-else"})
	if _, err := other.Verify(p.AccessToken, TokenTypeAccess, now); !errors.Is(err, ErrInvalidClaims) {
		t.Fatalf("expected ErrInvalidClaims for issuer mismatch, got %v", err)
	}
}
