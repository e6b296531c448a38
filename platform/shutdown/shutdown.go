// Package shutdown coordinates graceful process shutdown. Servers register
// hooks that release their listeners; a global flag tells long running work
// that the process is going away.
package shutdown

import (
	"sync"
)

var (
	isShutdown bool
	mu         sync.RWMutex
)

// CheckShutdown reports whether shutdown has begun
func CheckShutdown() bool {
	mu.RLock()
	defer mu.RUnlock()
	return isShutdown
}

func setShutdown() {
	mu.Lock()
	isShutdown = true
	mu.Unlock()
}

// reset clears hooks and the flag
func reset() {
	mu.Lock()
	isShutdown = false
	mu.Unlock()

	hooks.lock.Lock()
	hooks.hooks = nil
	hooks.lock.Unlock()
}
