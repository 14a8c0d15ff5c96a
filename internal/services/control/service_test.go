package control

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/core/catalog"
	"github.com/kozichsergey/SmetaAI/internal/core/cluster"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/pipeline"
	"github.com/kozichsergey/SmetaAI/internal/progress"
	"github.com/kozichsergey/SmetaAI/internal/repository"
	"github.com/kozichsergey/SmetaAI/internal/tasks"
)

type fixture struct {
	svc      *Service
	raw      repository.RawDataRepository
	catalog  repository.CatalogRepository
	progress repository.ProgressRepository
	runner   *tasks.Runner
}

func newFixture(t *testing.T, seed func(repository.ProgressRepository)) *fixture {
	t.Helper()
	ctx := context.Background()
	root := t.TempDir()
	store, err := repository.NewFileStore(filepath.Join(root, "data"), nil)
	require.NoError(t, err)

	f := &fixture{
		raw:      repository.NewRawDataRepository(store, nil),
		catalog:  repository.NewCatalogRepository(store, nil),
		progress: repository.NewProgressRepository(store, nil),
		runner:   tasks.NewRunner(nil),
	}
	if seed != nil {
		seed(f.progress)
	}
	dirs := common.DirsConfig{
		Input:     filepath.Join(root, "input"),
		Calculate: filepath.Join(root, "calculate"),
		Output:    filepath.Join(root, "output"),
	}
	p := pipeline.New(pipeline.Deps{
		Raw:      f.raw,
		Catalog:  f.catalog,
		Resolver: cluster.NewResolver(nil, nil),
		Builder:  catalog.NewBuilder(25),
		Matcher:  catalog.NewMatcher(nil, 0.3, nil),
	}, pipeline.Config{InputDir: dirs.Input, CalculateDir: dirs.Calculate, OutputDir: dirs.Output}, nil)

	f.svc = NewService(ctx, Deps{
		Runner:       f.runner,
		Tracker:      progress.NewTracker(ctx, f.progress, nil),
		Pipeline:     p,
		Raw:          f.raw,
		Catalog:      f.catalog,
		Dirs:         dirs,
		RecoverStale: true,
	}, nil)
	return f
}

func TestRunTask_OptimizeAndStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	doc := entity.NewRawDocument()
	doc.Records = []entity.LineItem{{Name: "Fan X", MaterialPrice: 1000}, {Name: "Copper cable", MaterialPrice: 10}}
	doc.ProcessedFiles["a.xlsx"] = entity.FileMeta{Hash: "h"}
	require.NoError(t, f.raw.Save(ctx, doc))

	require.NoError(t, f.svc.RunTask(ctx, constants.TaskOptimize))

	st, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.RawRecords)
	assert.Equal(t, 1, st.ProcessedFiles)
	assert.Equal(t, 2, st.CatalogEntries)
	assert.Equal(t, constants.TaskStatusSuccess, st.Progress.Status)
	assert.False(t, st.AIEnabled)

	log, err := f.svc.TaskLog(ctx)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, constants.TaskOptimize, log[1].TaskName)
}

func TestRunTask_FailureIsRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	err := f.svc.RunTask(ctx, constants.TaskCalculate)
	require.ErrorIs(t, err, common.ErrInvalidInput)

	st, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusError, st.Progress.Status)
	assert.Contains(t, st.Progress.Message, "catalog is empty")
}

func TestClearAndReset_RefusedWhileRunning(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	_, err := f.runner.Start(constants.TaskIngest, func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)
	<-started

	_, err = f.svc.ClearData(ctx)
	assert.ErrorIs(t, err, common.ErrTaskRunning)
	assert.ErrorIs(t, f.svc.ResetStatus(ctx), common.ErrTaskRunning)
	_, err = f.svc.StartTask(constants.TaskOptimize)
	assert.ErrorIs(t, err, common.ErrTaskRunning)

	close(release)
	f.runner.Shutdown(ctx)

	require.NoError(t, f.catalog.Save(ctx, []entity.CatalogEntry{{Name: "x"}}))
	msg, err := f.svc.ClearData(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
	entries, err := f.catalog.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewService_MarksStaleTaskFailed(t *testing.T) {
	now := time.Now()
	f := newFixture(t, func(repo repository.ProgressRepository) {
		require.NoError(t, repo.SaveState(context.Background(), entity.ProgressState{
			IsRunning:   true,
			CurrentTask: constants.TaskIngest,
			Status:      constants.TaskStatusRunning,
			StartTime:   &now,
		}))
	})

	st, err := f.progress.LoadState(context.Background())
	require.NoError(t, err)
	assert.False(t, st.IsRunning)
	assert.Equal(t, constants.TaskStatusError, st.Status)
	assert.Contains(t, st.Message, "restarted")
}

func TestParseTaskName(t *testing.T) {
	name, err := ParseTaskName(" Optimize ")
	require.NoError(t, err)
	assert.Equal(t, constants.TaskOptimize, name)

	_, err = ParseTaskName("deploy")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestCancelTask_NoActive(t *testing.T) {
	f := newFixture(t, nil)
	assert.ErrorIs(t, f.svc.CancelTask(), common.ErrNoActiveTask)
}
