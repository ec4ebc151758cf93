package ports

import "context"

// UnlockFunc releases a previously acquired set of keys.
type UnlockFunc func()

// KeyLocker serializes uniqueness check-then-write sequences across replicas.
// Keys are lowercased username/email values. The storage-level unique
// constraint remains the authoritative backstop; the lock only narrows the
// race window.
type KeyLocker interface {
	Lock(ctx context.Context, keys ...string) (UnlockFunc, error)
}
