// internal/app/system/workers/statecleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/eurofed/memberhub/internal/app/store/oauthstate"
	"go.uber.org/zap"
)

// StateCleanup is a background worker that removes expired OAuth state
// tokens. MongoDB's TTL monitor also prunes them, but only on its own
// schedule; this keeps the collection small between TTL passes.
type StateCleanup struct {
	states   *oauthstate.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewStateCleanup creates a new OAuth state cleanup worker.
func NewStateCleanup(states *oauthstate.Store, logger *zap.Logger, interval time.Duration) *StateCleanup {
	return &StateCleanup{
		states:   states,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *StateCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("oauth state cleanup worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *StateCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("oauth state cleanup worker stopped")
}

func (w *StateCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *StateCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.states.CleanupExpired(ctx)
	if err != nil {
		w.log.Error("failed to clean up expired oauth states", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Debug("cleaned up expired oauth states", zap.Int64("count", count))
	}
}
