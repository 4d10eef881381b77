package directory

import (
	"context"
	"errors"
	"slices"
	"time"
)

// LabelAdmin is the directory label that grants CMS privileges.
// Keep it stable; it is part of the auth contract.
const LabelAdmin = "admin"

// Identity is the directory's view of a user. The auth core only reads it.
type Identity struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Labels    []string  `json:"labels" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HasLabel reports whether the identity currently carries label.
func (i Identity) HasLabel(label string) bool {
	return slices.Contains(i.Labels, label)
}

func (i Identity) IsAdmin() bool { return i.HasLabel(LabelAdmin) }

// NewUser is the input for Create.
type NewUser struct {
	Email    string
	Password string
	Name     string
	Labels   []string
}

var (
	ErrNotFound           = errors.New("directory: user not found")
	ErrAlreadyExists      = errors.New("directory: user already exists")
	ErrInvalidCredentials = errors.New("directory: invalid credentials")
	ErrInvalidArgument    = errors.New("directory: invalid argument")
)

// Directory is the user-management collaborator.
type Directory interface {
	GetByID(ctx context.Context, id string) (Identity, error)
	ListByEmail(ctx context.Context, email string) ([]Identity, error)
	SetLabels(ctx context.Context, id string, labels []string) error
	Create(ctx context.Context, u NewUser) (Identity, error)
	// Authenticate checks a password and returns the identity on success.
	// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (Identity, error)
}
