package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rohanthewiz/logger"
)

const gracePeriod = 15 * time.Second

// HookFunc runs at shutdown; it should finish within the given duration.
type HookFunc func(duration time.Duration) error

type shutdownHooks struct {
	Hooks []HookFunc
	lock  sync.Mutex
}

var hooks shutdownHooks

// RegisterHook adds a function to run when shutdown begins.
func RegisterHook(fn HookFunc) {
	hooks.lock.Lock()
	defer hooks.lock.Unlock()
	hooks.Hooks = append(hooks.Hooks, fn)
}

// InitShutdownService installs signal handling. On SIGINT/SIGTERM it
// fires all registered hooks, then closes done so the app can exit.
func InitShutdownService(done chan struct{}) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(done)
		wg := sync.WaitGroup{}

		sig := <-sigChan
		logger.Info("Received shutdown signal", "signal", sig.String())
		setShutdown()

		for i, hook := range hooks.Hooks {
			wg.Add(1)
			go func(it int, fn HookFunc) {
				defer wg.Done()
				if err := fn(gracePeriod); err != nil {
					logger.LogErr(err, "shutdown hook failed")
				}
				logger.Debug("Shutdown hook completed", "hook", it)
			}(i, hook)
		}

		holdForWaitGroup := make(chan struct{})
		go func() {
			wg.Wait()
			close(holdForWaitGroup)
		}()

		select {
		case <-holdForWaitGroup:
			// all hooks finished in time
		case <-time.After(gracePeriod):
			logger.Info("Shutdown hooks timed out", "grace_period", gracePeriod.String())
		}
	}()
}
