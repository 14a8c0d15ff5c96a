package progress

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/repository"
)

func newTracker(t *testing.T, opts ...TrackerOption) (*Tracker, repository.ProgressRepository) {
	t.Helper()
	store, err := repository.NewFileStore(t.TempDir(), slog.Default())
	require.NoError(t, err)
	repo := repository.NewProgressRepository(store, slog.Default())
	return NewTracker(context.Background(), repo, slog.Default(), opts...), repo
}

func TestTracker_Lifecycle(t *testing.T) {
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var finished []constants.TaskStatus
	tr, repo := newTracker(t,
		WithClock(func() time.Time { clock = clock.Add(time.Second); return clock }),
		WithFinishHook(func(task constants.TaskName, status constants.TaskStatus, elapsed time.Duration) {
			assert.Equal(t, constants.TaskOptimize, task)
			assert.Equal(t, 3*time.Second, elapsed)
			finished = append(finished, status)
		}),
	)
	ctx := context.Background()

	assert.Equal(t, constants.TaskStatusIdle, tr.State().Status)

	tr.Start(ctx, constants.TaskOptimize, "Loading data")
	tr.Update(ctx, 30, "Grouping")
	tr.Update(ctx, 10, "Still grouping")
	assert.Equal(t, 30, tr.State().ProgressPercent)
	assert.Equal(t, "Still grouping", tr.State().Message)
	tr.Complete(ctx, "Created 3 entries")

	state, err := repo.LoadState(ctx)
	require.NoError(t, err)
	assert.False(t, state.IsRunning)
	assert.Equal(t, constants.TaskStatusSuccess, state.Status)
	assert.Equal(t, 100, state.ProgressPercent)
	assert.Equal(t, []constants.TaskStatus{constants.TaskStatusSuccess}, finished)

	log, err := tr.Log(ctx)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, constants.LogStart, log[0].Status)
	assert.Equal(t, constants.LogSuccess, log[1].Status)
}

func TestTracker_FailKeepsPercentAndSurvivesCancel(t *testing.T) {
	tr, repo := newTracker(t)
	ctx, cancel := context.WithCancel(context.Background())

	tr.Start(ctx, constants.TaskIngest, "Scanning")
	tr.Update(ctx, 40, "File 2/5")
	cancel()
	tr.Fail(ctx, "cancelled")

	state, err := repo.LoadState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusError, state.Status)
	assert.Equal(t, 40, state.ProgressPercent)
	assert.Equal(t, "cancelled", state.Message)
}

func TestTracker_ResetAndReload(t *testing.T) {
	tr, repo := newTracker(t)
	ctx := context.Background()

	tr.Start(ctx, constants.TaskCalculate, "Working")
	reloaded := NewTracker(ctx, repo, nil)
	assert.True(t, reloaded.State().IsRunning)

	require.NoError(t, tr.Reset(ctx))
	state, err := repo.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusIdle, state.Status)
	assert.Equal(t, "Ready", state.Message)
}

func TestNoop(t *testing.T) {
	var s Sink = Noop{}
	s.Start(context.Background(), constants.TaskIngest, "x")
	s.Update(context.Background(), 50, "x")
	s.Complete(context.Background(), "x")
	s.Fail(context.Background(), "x")
}
