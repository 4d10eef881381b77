package auth

import (
	"errors"

	"portfolio-cms/internal/apperr"
)

// AppError maps verification and authorization failures onto the HTTP
// taxonomy. Expiry is flagged so clients know a refresh may help.
func AppError(err error, kind TokenType) *apperr.Error {
	subject := "Token"
	if kind == TokenTypeRefresh {
		subject = "Refresh token"
	}

	switch {
	case errors.Is(err, ErrMissingSecret):
		return apperr.Configuration("Server configuration error")
	case errors.Is(err, ErrExpired):
		return apperr.Unauthorized(subject+" expired").With("expired", true)
	case errors.Is(err, ErrWrongTokenKind):
		return apperr.Unauthorized("Invalid token type")
	case errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrMalformedToken), errors.Is(err, ErrInvalidClaims):
		if kind == TokenTypeRefresh {
			return apperr.Unauthorized("Invalid refresh token")
		}
		return apperr.Unauthorized("Invalid token")
	case errors.Is(err, ErrIdentityNotFound):
		return apperr.Unauthorized("User not found")
	case errors.Is(err, ErrInsufficientPrivilege):
		return apperr.Forbidden("Not an admin")
	default:
		return apperr.OperationFailed("Authorization failed", err)
	}
}
