package deploy

import "sync"

// LockManager holds the per-composition redeploy locks used when
// serialization is enabled.
//
// Two-level locking: the outer mutex protects the locks map itself,
// and each composition gets its own mutex for the actual guard. This
// lets different compositions redeploy concurrently while at most one
// redeploy runs for a given name.
type LockManager struct {
	mu    sync.Mutex             // Protects the locks map
	locks map[string]*sync.Mutex // Per-composition locks
}

// NewLockManager creates a new lock manager
func NewLockManager() *LockManager {
	return &LockManager{
		locks: make(map[string]*sync.Mutex),
	}
}

// TryLock attempts to acquire the redeploy lock for the given
// composition. It never blocks: true means the caller holds the lock
// and may proceed, false means another redeploy for the same name is
// already running.
func (lm *LockManager) TryLock(name string) bool {
	lm.mu.Lock()
	lock, exists := lm.locks[name]
	if !exists {
		// Create the lock for this composition on first use
		lock = &sync.Mutex{}
		lm.locks[name] = lock
	}
	lm.mu.Unlock()

	return lock.TryLock()
}

// Unlock releases the redeploy lock for the given composition. Called
// after the redeploy finishes, success or failure, typically via
// defer. Unlocking a name that was never locked is a no-op.
func (lm *LockManager) Unlock(name string) {
	lm.mu.Lock()
	lock := lm.locks[name]
	lm.mu.Unlock()

	if lock != nil {
		lock.Unlock()
	}
}
