package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a valid bcrypt hash of random bytes nobody knows. It is
// compared against when there is no real hash, so a lookup miss costs
// the same bcrypt work as a password mismatch.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

const (
	// MinCost guards against hashes cheap enough to brute-force.
	MinCost = 10
	// MaxCost guards against a login DoS via absurd work factors.
	MaxCost = 16
)

// Bcrypt hashes and verifies passwords. The zero value is not usable;
// construct with NewBcrypt.
type Bcrypt struct {
	cost int
}

func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost < MinCost || cost > MaxCost {
		return nil, fmt.Errorf("password: cost %d outside [%d, %d]", cost, MinCost, MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

// Hash produces a bcrypt hash of the plaintext.
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(out), nil
}

// Compare reports whether plaintext matches hash. An empty hash is
// compared against the dummy so the caller pays full cost either way;
// it never matches. A mismatch is (false, nil); the error return is
// reserved for malformed hashes.
func (b *Bcrypt) Compare(hash, plaintext string) (bool, error) {
	if hash == "" {
		hash = dummyHash
		// Burn the work, ignore the outcome.
		_ = bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("password: compare: %w", err)
}

// NeedsRehash reports whether the hash was produced with a lower cost
// than currently configured, so callers can re-hash on the next
// successful login.
func (b *Bcrypt) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < b.cost
}
