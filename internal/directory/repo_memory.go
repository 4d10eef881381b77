package directory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryDirectory is a simple in-memory directory useful for tests and local runs.
// It is not intended for production use.
type MemoryDirectory struct {
	mu     sync.RWMutex
	users  map[string]memoryUser
	hasher PasswordHasher
	decoy  *decoy
}

type memoryUser struct {
	identity Identity
	hash     string
}

func NewMemoryDirectory(hasher PasswordHasher) *MemoryDirectory {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &MemoryDirectory{users: make(map[string]memoryUser), hasher: hasher, decoy: &decoy{hasher: hasher}}
}

func (d *MemoryDirectory) GetByID(ctx context.Context, id string) (Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return cloneIdentity(u.identity), nil
}

func (d *MemoryDirectory) ListByEmail(ctx context.Context, email string) ([]Identity, error) {
	email = normalizeEmail(email)
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Identity
	for _, u := range d.users {
		if u.identity.Email == email {
			out = append(out, cloneIdentity(u.identity))
		}
	}
	return out, nil
}

func (d *MemoryDirectory) SetLabels(ctx context.Context, id string, labels []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return ErrNotFound
	}
	u.identity.Labels = append([]string(nil), labels...)
	d.users[id] = u
	return nil
}

func (d *MemoryDirectory) Create(ctx context.Context, in NewUser) (Identity, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return Identity{}, ErrInvalidArgument
	}
	hash, err := d.hasher.Hash(in.Password)
	if err != nil {
		return Identity{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.identity.Email == email {
			return Identity{}, ErrAlreadyExists
		}
	}
	id := Identity{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      in.Name,
		Labels:    append([]string(nil), in.Labels...),
		CreatedAt: time.Now().UTC(),
	}
	d.users[id.ID] = memoryUser{identity: id, hash: hash}
	return cloneIdentity(id), nil
}

func (d *MemoryDirectory) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	d.mu.RLock()
	var found *memoryUser
	for _, u := range d.users {
		if u.identity.Email == email {
			u := u
			found = &u
			break
		}
	}
	d.mu.RUnlock()

	if found == nil {
		d.decoy.verify(password)
		return Identity{}, ErrInvalidCredentials
	}
	if !d.hasher.Verify(found.hash, password) {
		return Identity{}, ErrInvalidCredentials
	}
	return cloneIdentity(found.identity), nil
}

func cloneIdentity(i Identity) Identity {
	i.Labels = append([]string(nil), i.Labels...)
	return i
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

var _ Directory = (*MemoryDirectory)(nil)
