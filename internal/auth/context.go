package auth

import (
	"context"
	"errors"

	"portfolio-cms/internal/directory"
)

type ctxKey int

const (
	ctxIdentity ctxKey = iota
	ctxClaims
)

func WithIdentity(ctx context.Context, id directory.Identity, claims Claims) context.Context {
	ctx = context.WithValue(ctx, ctxIdentity, id)
	ctx = context.WithValue(ctx, ctxClaims, claims)
	return ctx
}

func IdentityFrom(ctx context.Context) (directory.Identity, error) {
	if id, ok := ctx.Value(ctxIdentity).(directory.Identity); ok && id.ID != "" {
		return id, nil
	}
	return directory.Identity{}, errors.New("identity not in context")
}

func ClaimsFrom(ctx context.Context) (Claims, error) {
	if c, ok := ctx.Value(ctxClaims).(Claims); ok && c.Subject != "" {
		return c, nil
	}
	return Claims{}, errors.New("claims not in context")
}
