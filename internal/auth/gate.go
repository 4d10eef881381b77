package auth

import (
	"context"
	"errors"
	"fmt"

	"portfolio-cms/internal/directory"
)

var (
	ErrIdentityNotFound      = errors.New("auth: identity not found")
	ErrInsufficientPrivilege = errors.New("auth: insufficient privilege")
)

// Gate re-checks privilege against the live directory on every protected
// call. There is no token blacklist, so this lookup is the only way a label
// change takes effect before a token expires. Results are never cached.
type Gate struct {
	dir directory.Directory
}

func NewGate(dir directory.Directory) *Gate {
	return &Gate{dir: dir}
}

// Authorize resolves the claims subject and requires the admin label.
func (g *Gate) Authorize(ctx context.Context, claims Claims) (directory.Identity, error) {
	id, err := g.dir.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return directory.Identity{}, ErrIdentityNotFound
		}
		return directory.Identity{}, fmt.Errorf("auth/Authorize: %w", err)
	}
	if !id.IsAdmin() {
		return directory.Identity{}, ErrInsufficientPrivilege
	}
	return id, nil
}
