package service

import "context"

// IdempotencyGuard remembers request keys so a retried request is applied once.
type IdempotencyGuard interface {
	// Acquire returns false when key was already acquired and not released.
	Acquire(ctx context.Context, key string) (bool, error)
	// Release forgets key so the request can be retried.
	Release(ctx context.Context, key string) error
}
