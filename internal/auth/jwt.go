package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"portfolio-cms/internal/config"
	"portfolio-cms/internal/directory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingSecret    = errors.New("auth: signing secret not configured")
	ErrMalformedToken   = errors.New("auth: malformed token")
	ErrInvalidSignature = errors.New("auth: invalid token signature")
	ErrExpired          = errors.New("auth: token expired")
	ErrWrongTokenKind   = errors.New("auth: wrong token type")
	ErrInvalidClaims    = errors.New("auth: invalid token claims")
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Manager mints and verifies the two token kinds. Access and refresh tokens
// are signed with independent secrets.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	audience      string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET and JWT_REFRESH_SECRET are required", ErrMissingSecret)
	}

	m := &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}
	if m.accessTTL <= 0 {
		m.accessTTL = DefaultAccessTTL
	}
	if m.refreshTTL <= 0 {
		m.refreshTTL = DefaultRefreshTTL
	}
	return m, nil
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

/* ===================== ISSUE TOKENS ===================== */

// IssuePair mints an access/refresh pair for an identity the caller has
// already authenticated and found to be an admin.
func (m *Manager) IssuePair(now time.Time, id directory.Identity) (TokenPair, error) {
	access, accessExp, err := m.IssueAccess(now, id)
	if err != nil {
		return TokenPair{}, err
	}

	refreshExp := now.Add(m.refreshTTL)
	refresh, err := m.sign(m.refreshSecret, Claims{
		RegisteredClaims: m.registered(now, id.ID, refreshExp),
		// refresh tokens DO NOT carry email or role
		TokenType: TokenTypeRefresh,
	})
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAccess mints only an access token, used by the refresh flow.
func (m *Manager) IssueAccess(now time.Time, id directory.Identity) (string, time.Time, error) {
	if id.ID == "" {
		return "", time.Time{}, fmt.Errorf("%w: subject is required", ErrInvalidClaims)
	}
	exp := now.Add(m.accessTTL)
	tok, err := m.sign(m.accessSecret, Claims{
		RegisteredClaims: m.registered(now, id.ID, exp),
		Email:            id.Email,
		Role:             RoleAdmin,
		TokenType:        TokenTypeAccess,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}

/* ===================== VERIFY TOKEN ===================== */

// Verify checks tok against the secret of the expected kind. A token that
// fails there but carries a valid signature for the other kind is reported
// as ErrWrongTokenKind rather than ErrInvalidSignature.
func (m *Manager) Verify(tok string, expected TokenType, now time.Time) (Claims, error) {
	claims, err := Verify(tok, expected, m.secretFor(expected), now)
	if errors.Is(err, ErrInvalidSignature) {
		other := expected.other()
		if _, otherErr := Verify(tok, other, m.secretFor(other), now); otherErr == nil || errors.Is(otherErr, ErrExpired) {
			return Claims{}, ErrWrongTokenKind
		}
	}
	if err != nil {
		return Claims{}, err
	}

	if m.issuer != "" && claims.Issuer != m.issuer {
		return Claims{}, fmt.Errorf("%w: issuer mismatch", ErrInvalidClaims)
	}
	if m.audience != "" && !slices.Contains(claims.Audience, m.audience) {
		return Claims{}, fmt.Errorf("%w: audience mismatch", ErrInvalidClaims)
	}
	return claims, nil
}

// Verify is the pure verification step: signature, then expiry, then kind.
// It performs no I/O.
func Verify(tok string, expected TokenType, secret []byte, now time.Time) (Claims, error) {
	if len(secret) == 0 {
		return Claims{}, ErrMissingSecret
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)

	// golang-jwt verifies the HMAC (hmac.Equal) before validating claims.
	_, err := parser.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}

	if claims.TokenType != expected {
		return Claims{}, ErrWrongTokenKind
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: subject missing", ErrInvalidClaims)
	}
	if expected == TokenTypeAccess && claims.Role != RoleAdmin {
		return Claims{}, fmt.Errorf("%w: role missing in access token", ErrInvalidClaims)
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidClaims, err)
	}
}

/* ===================== INTERNAL ISSUE ===================== */

func (m *Manager) registered(now time.Time, subject string, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    m.issuer,
		Audience:  audienceOrNil(m.audience),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
}

func (m *Manager) sign(secret []byte, claims Claims) (string, error) {
	if len(secret) == 0 {
		return "", ErrMissingSecret
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func (m *Manager) secretFor(t TokenType) []byte {
	if t == TokenTypeRefresh {
		return m.refreshSecret
	}
	return m.accessSecret
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
