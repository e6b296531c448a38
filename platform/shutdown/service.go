package shutdown

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// GracePeriod bounds how long all hooks together may take
const GracePeriod = 15 * time.Second

// HookFunc releases one resource; ctx expires when the grace period ends
type HookFunc func(ctx context.Context) error

type namedHook struct {
	name string
	fn   HookFunc
}

type shutdownHooks struct {
	hooks []namedHook
	lock  sync.Mutex
}

var hooks shutdownHooks

// RegisterHook adds a hook to run on shutdown
func RegisterHook(name string, fn HookFunc) {
	hooks.lock.Lock()
	defer hooks.lock.Unlock()
	hooks.hooks = append(hooks.hooks, namedHook{name: name, fn: fn})
	logger.Debug("Registered shutdown hook", "name", name, "count", strconv.Itoa(len(hooks.hooks)))
}

// InitShutdownService waits for SIGINT or SIGTERM, runs the hooks and then
// closes done so the app can exit.
func InitShutdownService(done chan struct{}) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(done)
		sig := <-sigChan
		signal.Stop(sigChan)
		logger.Info("Received shutdown signal", "signal", sig.String())
		RunHooks(GracePeriod)
	}()
}

// RunHooks marks the process as shutting down and runs every registered hook
// concurrently, waiting at most grace. It returns the number of hook failures.
func RunHooks(grace time.Duration) int {
	setShutdown()

	hooks.lock.Lock()
	pending := append([]namedHook(nil), hooks.hooks...)
	hooks.lock.Unlock()

	logger.Info("Running shutdown hooks", "count", strconv.Itoa(len(pending)), "grace", grace.String())

	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	var (
		wg       sync.WaitGroup
		failMu   sync.Mutex
		failures int
	)
	for _, h := range pending {
		wg.Add(1)
		go func(h namedHook) {
			defer wg.Done()
			if err := h.fn(ctx); err != nil {
				logger.LogErr(serr.Wrap(err, "shutdown hook failed", "name", h.name))
				failMu.Lock()
				failures++
				failMu.Unlock()
				return
			}
			logger.Debug("Shutdown hook completed", "name", h.name)
		}(h)
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	select {
	case <-allDone:
		logger.Info("All shutdown hooks completed")
	case <-ctx.Done():
		logger.Warn("Shutdown hooks timed out", "grace", grace.String())
		failMu.Lock()
		defer failMu.Unlock()
		return failures + 1
	}

	failMu.Lock()
	defer failMu.Unlock()
	return failures
}
