package directory

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher abstracts hashing so the algorithm can be swapped later.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// decoy is compared against when the email is unknown, so a miss costs the
// same as a wrong password. The hash is built with the directory's own
// hasher on first use.
type decoy struct {
	once   sync.Once
	hasher PasswordHasher
	hash   string
}

func (d *decoy) verify(pw string) {
	d.once.Do(func() {
		d.hash, _ = d.hasher.Hash("not-a-real-password")
	})
	_ = d.hasher.Verify(d.hash, pw)
}
