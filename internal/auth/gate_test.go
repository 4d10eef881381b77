package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio-cms/internal/directory"

	"golang.org/x/crypto/bcrypt"
)

type failingDirectory struct{ directory.Directory }

func (failingDirectory) GetByID(ctx context.Context, id string) (directory.Identity, error) {
	return directory.Identity{}, errors.New("directory unavailable")
}

func seedAdmin(t *testing.T) (*directory.MemoryDirectory, directory.Identity) {
	t.Helper()
	dir := directory.NewMemoryDirectory(directory.BcryptHasher{Cost: bcrypt.MinCost})
	id, err := dir.Create(context.Background(), directory.NewUser{
		Email: "a@b.com", Password: "pw", Name: "Admin", Labels: []string{directory.LabelAdmin},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return dir, id
}

func TestIssueVerifyAuthorize_RoundTrip(t *testing.T) {
	dir, id := seedAdmin(t)
	m := testManager(t)
	g := NewGate(dir)
	now := time.Now()

	pair, err := m.IssuePair(now, id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	got, err := g.Authorize(context.Background(), claims)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if got.ID != id.ID || got.Email != id.Email {
		t.Fatalf("round trip returned %+v, want %+v", got, id)
	}
}

func TestAuthorize_RevocationViaDirectory(t *testing.T) {
	dir, id := seedAdmin(t)
	m := testManager(t)
	g := NewGate(dir)
	now := time.Now()

	pair, err := m.IssuePair(now, id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := dir.SetLabels(context.Background(), id.ID, []string{"editor"}); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now)
	if err != nil {
		t.Fatalf("verify must still pass after revocation: %v", err)
	}
	if _, err := g.Authorize(context.Background(), claims); !errors.Is(err, ErrInsufficientPrivilege) {
		t.Fatalf("expected ErrInsufficientPrivilege, got %v", err)
	}
}

func TestAuthorize_DeletedUser(t *testing.T) {
	dir, _ := seedAdmin(t)
	g := NewGate(dir)

	claims := Claims{TokenType: TokenTypeAccess}
	claims.Subject = "ghost"

	_, err := g.Authorize(context.Background(), claims)
	if !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestAuthorize_DirectoryFailureIsNotAuthError(t *testing.T) {
	g := NewGate(failingDirectory{})
	claims := Claims{TokenType: TokenTypeAccess}
	claims.Subject = "u1"

	_, err := g.Authorize(context.Background(), claims)
	if err == nil || errors.Is(err, ErrIdentityNotFound) || errors.Is(err, ErrInsufficientPrivilege) {
		t.Fatalf("expected a plain downstream error, got %v", err)
	}
}
