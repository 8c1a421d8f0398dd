package password

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Hasher is the hashing surface wrapped by [Pool].
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
	VerifyDummy(plaintext string)
	NeedsRehash(hash string) bool
}

// Pool bounds concurrent hash work with a weighted semaphore.
type Pool struct {
	hasher Hasher
	slots  *semaphore.Weighted
}

// NewPool wraps hasher. maxConcurrent <= 0 defaults to GOMAXPROCS.
func NewPool(hasher Hasher, maxConcurrent int) *Pool {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		hasher: hasher,
		slots:  semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Hash waits for a slot and hashes plaintext. It returns ctx.Err() if the
// context ends first.
func (p *Pool) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.slots.Release(1)

	return p.hasher.Hash(plaintext)
}

// Verify waits for a slot and compares plaintext with hash. A cancelled
// context is returned as an error so callers can tell it apart from a
// mismatch.
func (p *Pool) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer p.slots.Release(1)

	return p.hasher.Verify(plaintext, hash), nil
}

// VerifyDummy burns one verify worth of CPU under the same slot accounting.
func (p *Pool) VerifyDummy(ctx context.Context, plaintext string) error {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.slots.Release(1)

	p.hasher.VerifyDummy(plaintext)
	return nil
}

// NeedsRehash forwards to the wrapped hasher; it does no hashing work.
func (p *Pool) NeedsRehash(hash string) bool {
	return p.hasher.NeedsRehash(hash)
}
