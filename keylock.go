package journalsync

import "sync"

// keyLocks provides per-entity-key mutual exclusion. Acquisition is
// try-only: a second concurrent sync on the same key is rejected rather than
// blocked, so the background worker can never stall behind a slow
// synchronous caller.
type keyLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newKeyLocks() *keyLocks {
	return &keyLocks{held: make(map[string]struct{})}
}

// TryLock acquires the key if it is free and reports whether it did.
func (k *keyLocks) TryLock(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, taken := k.held[key]; taken {
		return false
	}
	k.held[key] = struct{}{}
	return true
}

// Unlock releases the key. Releasing a key that is not held is a no-op.
func (k *keyLocks) Unlock(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.held, key)
}

func entityKey(entityType, entityID string) string {
	return entityType + "/" + entityID
}
