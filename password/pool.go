package password

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool bounds concurrent argon2 derivations with a weighted semaphore so
// a burst of logins cannot monopolise every scheduler thread. Each call
// runs on its own goroutine and respects context cancellation while
// waiting for a slot.
type Pool struct {
	hasher *Hasher
	sem    *semaphore.Weighted
}

// NewPool wraps h with a concurrency limit. workers <= 0 defaults to
// GOMAXPROCS.
func NewPool(h *Hasher, workers int64) *Pool {
	if workers <= 0 {
		workers = int64(runtime.GOMAXPROCS(0))
	}
	return &Pool{hasher: h, sem: semaphore.NewWeighted(workers)}
}

type hashResult struct {
	encoded string
	err     error
}

type verifyResult struct {
	ok  bool
	err error
}

// Hash derives a PHC-encoded hash off the calling goroutine.
func (p *Pool) Hash(ctx context.Context, password string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}

	ch := make(chan hashResult, 1)
	go func() {
		defer p.sem.Release(1)
		encoded, err := p.hasher.Hash(password)
		ch <- hashResult{encoded: encoded, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.encoded, res.err
	}
}

// Verify checks password against encoded off the calling goroutine.
func (p *Pool) Verify(ctx context.Context, password, encoded string) (bool, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}

	ch := make(chan verifyResult, 1)
	go func() {
		defer p.sem.Release(1)
		ok, err := p.hasher.Verify(password, encoded)
		ch <- verifyResult{ok: ok, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case res := <-ch:
		return res.ok, res.err
	}
}
