package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// PendingExecutor is the interface the runner uses to drain the action queue.
// Satisfied by *executor.Executor.
type PendingExecutor interface {
	ExecutePending(ctx context.Context, limit int) (int, error)
}

// DefaultRunnerInterval is the action runner tick interval.
const DefaultRunnerInterval = 10 * time.Second

// DefaultRunnerBatch is the max number of actions claimed per tick.
const DefaultRunnerBatch = 50

// ActionRunner periodically drains pending actions in FIFO batches. At most
// one tick runs at a time per process.
type ActionRunner struct {
	executor PendingExecutor
	interval time.Duration
	batch    int
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex

	runningMu sync.Mutex
	running   bool
}

// RunnerOption configures an ActionRunner.
type RunnerOption func(*ActionRunner)

// WithRunnerInterval overrides the tick interval.
func WithRunnerInterval(d time.Duration) RunnerOption {
	return func(r *ActionRunner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRunnerBatch overrides the per-tick claim limit.
func WithRunnerBatch(n int) RunnerOption {
	return func(r *ActionRunner) {
		if n > 0 {
			r.batch = n
		}
	}
}

// NewActionRunner creates a new ActionRunner.
func NewActionRunner(exec PendingExecutor, logger *slog.Logger, opts ...RunnerOption) *ActionRunner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &ActionRunner{
		executor: exec,
		interval: DefaultRunnerInterval,
		batch:    DefaultRunnerBatch,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the background draining loop.
func (r *ActionRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.done != nil {
		r.mu.Unlock()
		return fmt.Errorf("action runner already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Unlock()

	go r.loop(runCtx)
	r.logger.Info("action runner started",
		"interval", r.interval.String(),
		"batch", r.batch)
	return nil
}

func (r *ActionRunner) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick drains one batch of pending actions. Skipped if a previous tick is
// still in flight. Exported for manual triggering and tests.
func (r *ActionRunner) Tick(ctx context.Context) {
	if !r.tryAcquire() {
		return
	}
	defer r.release()

	count, err := r.executor.ExecutePending(ctx, r.batch)
	if err != nil {
		r.logger.Error("failed to execute pending actions", slog.String("error", err.Error()))
		return
	}
	if count > 0 {
		r.logger.Info("executed pending actions", slog.Int("count", count))
	}
}

func (r *ActionRunner) tryAcquire() bool {
	r.runningMu.Lock()
	defer r.runningMu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *ActionRunner) release() {
	r.runningMu.Lock()
	defer r.runningMu.Unlock()
	r.running = false
}

// Stop gracefully shuts down the runner.
func (r *ActionRunner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel == nil {
		return nil
	}

	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil

	r.logger.Info("action runner stopped")
	return nil
}
