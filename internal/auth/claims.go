package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// RoleAdmin is the only role ever embedded in an access token.
const RoleAdmin = "admin"

// Claims are the only supported JWT claims shape for this service.
// Subject carries the directory user id. Email and Role are set on access
// tokens only; refresh tokens carry the subject and nothing else that
// identifies the user.
type Claims struct {
	jwt.RegisteredClaims

	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	TokenType TokenType `json:"type"`
}

func (c Claims) UserID() string { return c.Subject }

func (t TokenType) other() TokenType {
	if t == TokenTypeAccess {
		return TokenTypeRefresh
	}
	return TokenTypeAccess
}
