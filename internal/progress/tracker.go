package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/repository"
)

// FinishHook observes terminal task states.
type FinishHook func(task constants.TaskName, status constants.TaskStatus, elapsed time.Duration)

// Tracker persists progress state and the task log through a ProgressRepository.
// Persistence failures are logged and never interrupt the task being tracked.
type Tracker struct {
	repo   repository.ProgressRepository
	logger *slog.Logger
	now    func() time.Time
	onDone FinishHook

	mu    sync.Mutex
	state entity.ProgressState
}

type TrackerOption func(*Tracker)

func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

func WithFinishHook(h FinishHook) TrackerOption {
	return func(t *Tracker) { t.onDone = h }
}

func NewTracker(ctx context.Context, repo repository.ProgressRepository, logger *slog.Logger, opts ...TrackerOption) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{repo: repo, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}

	state, err := repo.LoadState(ctx)
	if err != nil {
		logger.Warn("progress.load_failed", "error", err)
		state = entity.IdleProgress()
	}
	t.state = state
	return t
}

// State returns a snapshot of the current progress.
func (t *Tracker) State() entity.ProgressState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) Start(ctx context.Context, task constants.TaskName, message string) {
	now := t.now()
	t.mu.Lock()
	t.state = entity.ProgressState{
		IsRunning:   true,
		CurrentTask: task,
		Status:      constants.TaskStatusRunning,
		Message:     message,
		StartTime:   &now,
		LastUpdate:  &now,
	}
	state := t.state
	t.mu.Unlock()

	t.persist(ctx, state)
	t.appendLog(ctx, task, constants.LogStart, message, now)
}

func (t *Tracker) Update(ctx context.Context, percent int, message string) {
	now := t.now()
	t.mu.Lock()
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	// percent never goes backwards within a task
	if percent > t.state.ProgressPercent {
		t.state.ProgressPercent = percent
	}
	t.state.Message = message
	t.state.LastUpdate = &now
	state := t.state
	t.mu.Unlock()

	t.persist(ctx, state)
}

func (t *Tracker) Complete(ctx context.Context, message string) {
	t.finish(ctx, constants.TaskStatusSuccess, constants.LogSuccess, 100, message)
}

func (t *Tracker) Fail(ctx context.Context, message string) {
	t.finish(ctx, constants.TaskStatusError, constants.LogError, -1, message)
}

func (t *Tracker) finish(ctx context.Context, status constants.TaskStatus, logStatus constants.LogStatus, percent int, message string) {
	now := t.now()
	t.mu.Lock()
	task := t.state.CurrentTask
	var elapsed time.Duration
	if t.state.StartTime != nil {
		elapsed = now.Sub(*t.state.StartTime)
	}
	t.state.IsRunning = false
	t.state.Status = status
	t.state.Message = message
	if percent >= 0 {
		t.state.ProgressPercent = percent
	}
	t.state.LastUpdate = &now
	state := t.state
	t.mu.Unlock()

	t.persist(ctx, state)
	t.appendLog(ctx, task, logStatus, message, now)
	t.logger.Info("task.finished", "task", task, "status", status, "elapsed_ms", elapsed.Milliseconds(), "message", message)
	if t.onDone != nil {
		t.onDone(task, status, elapsed)
	}
}

// Reset returns the persisted state to idle.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	t.state = entity.IdleProgress()
	state := t.state
	t.mu.Unlock()
	return t.repo.SaveState(ctx, state)
}

// Log returns the persisted task log, oldest first.
func (t *Tracker) Log(ctx context.Context) ([]entity.TaskLogEntry, error) {
	return t.repo.LoadLog(ctx)
}

// persist writes with a context detached from task cancellation so the terminal state of a
// cancelled task is still recorded.
func (t *Tracker) persist(ctx context.Context, state entity.ProgressState) {
	if err := t.repo.SaveState(context.WithoutCancel(ctx), state); err != nil {
		t.logger.Warn("progress.save_failed", "error", err)
	}
}

func (t *Tracker) appendLog(ctx context.Context, task constants.TaskName, status constants.LogStatus, message string, at time.Time) {
	entry := entity.TaskLogEntry{Timestamp: at, TaskName: task, Status: status, Message: message}
	if err := t.repo.AppendLog(context.WithoutCancel(ctx), entry); err != nil {
		t.logger.Warn("progress.log_failed", "error", err)
	}
}

var _ Sink = (*Tracker)(nil)
