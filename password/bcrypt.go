package password

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt work factor used when Config.Cost is zero.
	DefaultCost = 10
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

var (
	// ErrEmptyPassword is returned by Hash for an empty plaintext.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong is returned by Hash for plaintext over 72 bytes.
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
)

// Config holds bcrypt tuning parameters.
type Config struct {
	Cost int
}

// Bcrypt hashes and verifies passwords. It is immutable after construction and
// safe for concurrent use.
type Bcrypt struct {
	cost  int
	dummy []byte
}

// NewBcrypt validates cfg and precomputes a dummy hash used by [Bcrypt.VerifyDummy].
func NewBcrypt(cfg Config) (*Bcrypt, error) {
	cost := cfg.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(base64.RawStdEncoding.EncodeToString(secret)), cost)
	if err != nil {
		return nil, err
	}

	return &Bcrypt{cost: cost, dummy: dummy}, nil
}

// Cost returns the configured work factor.
func (b *Bcrypt) Cost() int {
	return b.cost
}

// Hash returns a salted bcrypt hash of plaintext. Password bytes are used
// exactly as provided (no Unicode normalization).
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. Any failure, including a
// malformed stored hash, reports false.
func (b *Bcrypt) Verify(plaintext, hash string) bool {
	if plaintext == "" || hash == "" || len(plaintext) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// VerifyDummy spends the same CPU as a real Verify against a hash that can
// never match. Login uses it when the account does not exist.
func (b *Bcrypt) VerifyDummy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(b.dummy, []byte(plaintext))
}

// NeedsRehash reports whether hash was produced with a lower cost than the
// configured one. Malformed hashes report false; they can never verify, so
// there is nothing to upgrade.
func (b *Bcrypt) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return cost < b.cost
}
