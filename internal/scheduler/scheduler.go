package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/solohub/braind/internal/store"
	"github.com/solohub/braind/pkg/schema"
)

// WorkflowRunner is the interface the scheduler uses to run workflows.
// Satisfied by *engine.Engine.
type WorkflowRunner interface {
	ActiveWorkflows(ctx context.Context, userID string) ([]*store.Workflow, error)
	RunWorkflow(ctx context.Context, wf *store.Workflow, userID string, eventCtx map[string]any) (int, error)
}

// DefaultSchedulerInterval is the workflow scheduler tick interval.
const DefaultSchedulerInterval = 60 * time.Second

// DefaultUserBatch is the max number of users scanned per tick.
const DefaultUserBatch = 50

// WorkflowScheduler periodically fires schedule_daily and schedule_cron
// workflows that are due. At most one tick runs at a time per process.
type WorkflowScheduler struct {
	store    store.Store
	runner   WorkflowRunner
	parser   cron.Parser
	interval time.Duration
	batch    int
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex

	inflightMu sync.Mutex
	inflight   map[string]struct{} // workflow IDs currently executing (dedup)
}

// SchedulerOption configures a WorkflowScheduler.
type SchedulerOption func(*WorkflowScheduler)

// WithSchedulerInterval overrides the tick interval.
func WithSchedulerInterval(d time.Duration) SchedulerOption {
	return func(s *WorkflowScheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithUserBatch overrides the per-tick user scan limit.
func WithUserBatch(n int) SchedulerOption {
	return func(s *WorkflowScheduler) {
		if n > 0 {
			s.batch = n
		}
	}
}

// NewWorkflowScheduler creates a new WorkflowScheduler.
func NewWorkflowScheduler(s store.Store, runner WorkflowRunner, logger *slog.Logger, opts ...SchedulerOption) *WorkflowScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ws := &WorkflowScheduler{
		store:    s,
		runner:   runner,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		interval: DefaultSchedulerInterval,
		batch:    DefaultUserBatch,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(ws)
	}
	return ws
}

// Start launches the background scheduling loop.
func (s *WorkflowScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("workflow scheduler already started")
	}

	schedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(schedCtx)
	s.logger.Info("workflow scheduler started", "interval", s.interval.String())
	return nil
}

func (s *WorkflowScheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run an initial tick immediately.
	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick scans active workflow owners and fires every due scheduled workflow.
// Exported for manual triggering and tests.
func (s *WorkflowScheduler) Tick(ctx context.Context) {
	users, err := s.store.ListActiveWorkflowUsers(ctx, s.batch)
	if err != nil {
		s.logger.Error("failed to list workflow users", slog.String("error", err.Error()))
		return
	}

	now := time.Now().UTC()
	for _, userID := range users {
		workflows, err := s.runner.ActiveWorkflows(ctx, userID)
		if err != nil {
			s.logger.Error("failed to load active workflows",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
			continue
		}

		for _, wf := range workflows {
			due, eventType := s.isDue(wf, now)
			if !due {
				continue
			}
			if !s.tryAcquire(wf.ID) {
				continue // already running (dedup)
			}
			s.runScheduled(ctx, wf, userID, eventType, now)
			s.release(wf.ID)
		}
	}
}

// isDue reports whether the workflow should fire at now, and the event type
// to fire it with.
func (s *WorkflowScheduler) isDue(wf *store.Workflow, now time.Time) (bool, string) {
	switch wf.TriggerType {
	case schema.TriggerScheduleDaily:
		if wf.LastTriggeredAt == nil {
			return true, schema.TriggerScheduleDaily
		}
		return !sameCalendarDay(*wf.LastTriggeredAt, now), schema.TriggerScheduleDaily

	case schema.TriggerScheduleCron:
		expr := wf.TriggerConfig.String("cron")
		if expr == "" {
			return false, ""
		}
		schedule, err := s.parser.Parse(expr)
		if err != nil {
			s.logger.Warn("invalid cron expression",
				slog.String("workflow_id", wf.ID),
				slog.String("cron", expr))
			return false, ""
		}
		last := wf.CreatedAt
		if wf.LastTriggeredAt != nil {
			last = *wf.LastTriggeredAt
		}
		return !schedule.Next(last.UTC()).After(now), schema.TriggerScheduleCron
	}
	return false, ""
}

// runScheduled fires one workflow with a synthetic event context and records
// the trigger time.
func (s *WorkflowScheduler) runScheduled(ctx context.Context, wf *store.Workflow, userID, eventType string, now time.Time) {
	queued, err := s.runner.RunWorkflow(ctx, wf, userID, map[string]any{
		"eventType": eventType,
		"timestamp": now.Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Error("scheduled workflow run failed",
			slog.String("workflow_id", wf.ID),
			slog.String("error", err.Error()))
		return
	}

	if err := s.store.MarkTriggered(ctx, wf.ID, now); err != nil {
		s.logger.Error("failed to record trigger time",
			slog.String("workflow_id", wf.ID),
			slog.String("error", err.Error()))
		return
	}

	s.logger.Info("scheduled workflow fired",
		slog.String("workflow_id", wf.ID),
		slog.String("user_id", userID),
		slog.Int("queued", queued))
}

// tryAcquire returns true and marks the workflow as in-flight if it is not
// already running.
func (s *WorkflowScheduler) tryAcquire(id string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, ok := s.inflight[id]; ok {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *WorkflowScheduler) release(id string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, id)
}

// Stop gracefully shuts down the scheduler.
func (s *WorkflowScheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("workflow scheduler stopped")
	return nil
}

// sameCalendarDay compares full UTC calendar dates, not just day-of-month,
// so a workflow last fired on the 15th of a previous month is still due.
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
