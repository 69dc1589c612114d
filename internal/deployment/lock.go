package deployment

import "sync"

// LockManager hands out non-blocking locks by key.
//
// The outer mutex protects the map; each key has its own mutex. The
// orchestrator takes a single workflow key so only one run is active at a
// time, while callers sharing a manager can use other keys freely.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockManager creates a new lock manager
func NewLockManager() *LockManager {
	return &LockManager{
		locks: make(map[string]*sync.Mutex),
	}
}

// TryLock acquires the lock for key without waiting. It returns false when
// the key is already held.
func (lm *LockManager) TryLock(key string) bool {
	lm.mu.Lock()
	lock, exists := lm.locks[key]
	if !exists {
		lock = &sync.Mutex{}
		lm.locks[key] = lock
	}
	lm.mu.Unlock()

	return lock.TryLock()
}

// Unlock releases the lock for key. Unknown keys are a no-op.
func (lm *LockManager) Unlock(key string) {
	lm.mu.Lock()
	lock := lm.locks[key]
	lm.mu.Unlock()

	if lock != nil {
		lock.Unlock()
	}
}
