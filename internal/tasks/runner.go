package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/common"
)

// Func is one long-running workflow. It must return promptly once ctx is cancelled.
type Func func(ctx context.Context) error

// Runner allows at most one task at a time and owns its cancellation.
type Runner struct {
	logger  *slog.Logger
	base    context.Context
	timeout time.Duration

	mu     sync.Mutex
	active *activeTask
	closed bool
	wg     sync.WaitGroup
}

type activeTask struct {
	id     string
	name   constants.TaskName
	cancel context.CancelFunc
}

type Option func(*Runner)

// WithBaseContext sets the parent of contexts created by Start.
func WithBaseContext(ctx context.Context) Option {
	return func(r *Runner) {
		if ctx != nil {
			r.base = ctx
		}
	}
}

// WithTaskTimeout bounds every task; zero means unbounded.
func WithTaskTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewRunner(logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{logger: logger, base: context.Background()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run executes fn synchronously under the run lock.
func (r *Runner) Run(ctx context.Context, name constants.TaskName, fn Func) error {
	taskCtx, id, err := r.acquire(ctx, name)
	if err != nil {
		return err
	}
	defer r.wg.Done()
	return r.execute(taskCtx, id, name, fn)
}

// Start executes fn in the background and returns its task ID.
func (r *Runner) Start(name constants.TaskName, fn Func) (string, error) {
	taskCtx, id, err := r.acquire(r.base, name)
	if err != nil {
		return "", err
	}
	go func() {
		defer r.wg.Done()
		if err := r.execute(taskCtx, id, name, fn); err != nil {
			r.logger.Warn("task.background_failed", "task", name, "task_id", id, "error", err)
		}
	}()
	return id, nil
}

func (r *Runner) acquire(parent context.Context, name constants.TaskName) (context.Context, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, "", common.NewAppError("RUNNER_CLOSED", "runner is shutting down", common.ErrTaskRunning)
	}
	if r.active != nil {
		r.logger.Warn("task.rejected", "task", name, "running", r.active.name, "running_id", r.active.id)
		return nil, "", common.ErrTaskRunning
	}

	id := uuid.NewString()
	ctx, cancel := common.WithTimeout(common.WithTaskID(parent, id), r.timeout)
	r.active = &activeTask{id: id, name: name, cancel: cancel}
	r.wg.Add(1)
	return ctx, id, nil
}

func (r *Runner) execute(ctx context.Context, id string, name constants.TaskName, fn Func) error {
	start := time.Now()
	r.logger.Info("task.start", "task", name, "task_id", id)

	err := fn(ctx)

	r.mu.Lock()
	r.active.cancel()
	r.active = nil
	r.mu.Unlock()

	elapsed := time.Since(start).Milliseconds()
	switch {
	case err == nil:
		r.logger.Info("task.done", "task", name, "task_id", id, "elapsed_ms", elapsed)
	case errors.Is(err, context.Canceled):
		r.logger.Info("task.cancelled", "task", name, "task_id", id, "elapsed_ms", elapsed)
	default:
		r.logger.Error("task.failed", "task", name, "task_id", id, "elapsed_ms", elapsed, "error", err)
	}
	return err
}

// Cancel requests cancellation of the running task.
func (r *Runner) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return common.ErrNoActiveTask
	}
	r.logger.Info("task.cancel_requested", "task", r.active.name, "task_id", r.active.id)
	r.active.cancel()
	return nil
}

// Active reports the running task, if any.
func (r *Runner) Active() (name constants.TaskName, id string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return "", "", false
	}
	return r.active.name, r.active.id, true
}

// Shutdown rejects new tasks, cancels the running one and waits for it to return.
func (r *Runner) Shutdown(ctx context.Context) {
	r.mu.Lock()
	r.closed = true
	if r.active != nil {
		r.active.cancel()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); r.wg.Wait() }()

	select {
	case <-ctx.Done():
		r.logger.Warn("runner.shutdown_interrupted")
	case <-done:
		r.logger.Info("runner.shutdown_complete")
	}
}
