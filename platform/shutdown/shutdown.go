// Package shutdown coordinates graceful process shutdown. Request
// handlers can check the shutdown flag to refuse new work while
// registered hooks (database close, server drain) run within the grace
// period.
package shutdown

import (
	"os"
	"sync"
)

// Global shutdown flag
var (
	isShutdown bool
	mu         sync.RWMutex
)

// CheckShutdown checks if we are in a shutdown state
func CheckShutdown() bool {
	mu.RLock()
	defer mu.RUnlock()
	return isShutdown
}

// setShutdown sets the shutdown flag
func setShutdown() {
	mu.Lock()
	isShutdown = true
	mu.Unlock()
	_ = os.Setenv("SHUTDOWN", "true")
}
