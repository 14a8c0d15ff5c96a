package control

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/ingest"
	"github.com/kozichsergey/SmetaAI/internal/pipeline"
	"github.com/kozichsergey/SmetaAI/internal/progress"
	"github.com/kozichsergey/SmetaAI/internal/repository"
	"github.com/kozichsergey/SmetaAI/internal/spreadsheet"
	"github.com/kozichsergey/SmetaAI/internal/tasks"
)

// Service starts and supervises the long-running tasks and reports system status.
type Service struct {
	runner    *tasks.Runner
	tracker   *progress.Tracker
	pipeline  *pipeline.Pipeline
	rawRepo   repository.RawDataRepository
	catRepo   repository.CatalogRepository
	dirs      common.DirsConfig
	aiEnabled bool
	logger    *slog.Logger
}

type Deps struct {
	Runner    *tasks.Runner
	Tracker   *progress.Tracker
	Pipeline  *pipeline.Pipeline
	Raw       repository.RawDataRepository
	Catalog   repository.CatalogRepository
	Dirs      common.DirsConfig
	AIEnabled bool
	// RecoverStale marks a task left running by a previous process as failed.
	// Only the process that owns the store should set it.
	RecoverStale bool
}

// NewService creates the control service.
func NewService(ctx context.Context, d Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		runner:    d.Runner,
		tracker:   d.Tracker,
		pipeline:  d.Pipeline,
		rawRepo:   d.Raw,
		catRepo:   d.Catalog,
		dirs:      d.Dirs,
		aiEnabled: d.AIEnabled,
		logger:    logger,
	}
	if st := s.tracker.State(); d.RecoverStale && st.IsRunning {
		if _, _, active := s.runner.Active(); !active {
			logger.Warn("stale running task found", "task", st.CurrentTask)
			s.tracker.Fail(ctx, "Interrupted: the service was restarted")
		}
	}
	return s
}

// ParseTaskName maps user input to a task name.
func ParseTaskName(s string) (constants.TaskName, error) {
	switch name := constants.TaskName(strings.ToLower(strings.TrimSpace(s))); name {
	case constants.TaskIngest, constants.TaskOptimize, constants.TaskCalculate:
		return name, nil
	default:
		return "", fmt.Errorf("%w: unknown task %q", common.ErrInvalidInput, s)
	}
}

func (s *Service) stage(name constants.TaskName) (tasks.Func, error) {
	var run func(context.Context, progress.Sink) error
	switch name {
	case constants.TaskIngest:
		run = s.pipeline.Ingest
	case constants.TaskOptimize:
		run = s.pipeline.Optimize
	case constants.TaskCalculate:
		run = s.pipeline.Calculate
	default:
		return nil, fmt.Errorf("%w: unknown task %q", common.ErrInvalidInput, name)
	}
	return func(ctx context.Context) error { return run(ctx, s.tracker) }, nil
}

// StartTask runs the task in the background and returns its ID.
func (s *Service) StartTask(name constants.TaskName) (string, error) {
	fn, err := s.stage(name)
	if err != nil {
		return "", err
	}
	return s.runner.Start(name, fn)
}

// RunTask runs the task to completion under the run lock.
func (s *Service) RunTask(ctx context.Context, name constants.TaskName) error {
	fn, err := s.stage(name)
	if err != nil {
		return err
	}
	return s.runner.Run(ctx, name, fn)
}

// CancelTask requests cancellation of the running task.
func (s *Service) CancelTask() error {
	return s.runner.Cancel()
}

// ResetStatus returns the progress state to idle.
func (s *Service) ResetStatus(ctx context.Context) error {
	if _, _, active := s.runner.Active(); active {
		return common.ErrTaskRunning
	}
	return s.tracker.Reset(ctx)
}

// ClearData deletes the raw and catalog documents and resets progress.
func (s *Service) ClearData(ctx context.Context) (string, error) {
	if _, _, active := s.runner.Active(); active {
		return "", common.ErrTaskRunning
	}
	if err := s.rawRepo.Clear(ctx); err != nil {
		return "", err
	}
	if err := s.catRepo.Clear(ctx); err != nil {
		return "", err
	}
	if err := s.tracker.Reset(ctx); err != nil {
		return "", err
	}
	s.logger.Info("data cleared")
	return "Raw data and catalog were cleared", nil
}

// Status collects the dashboard view of the system.
func (s *Service) Status(ctx context.Context) (entity.SystemStatus, error) {
	st := entity.SystemStatus{
		Progress:   s.tracker.State(),
		InputFiles: ingest.CountEligible(s.dirs.Input),
		AIEnabled:  s.aiEnabled,
	}
	doc, err := s.rawRepo.Load(ctx)
	if err != nil {
		return st, common.WrapError(err, "load raw data")
	}
	st.RawRecords = len(doc.Records)
	st.ProcessedFiles = len(doc.ProcessedFiles)

	entries, err := s.catRepo.Load(ctx)
	if err != nil {
		return st, common.WrapError(err, "load catalog")
	}
	st.CatalogEntries = len(entries)
	return st, nil
}

// TaskLog returns the persisted task log, oldest first.
func (s *Service) TaskLog(ctx context.Context) ([]entity.TaskLogEntry, error) {
	return s.tracker.Log(ctx)
}

// FileLists names the spreadsheets in the working folders.
type FileLists struct {
	Input     []string `json:"input_files"`
	Calculate []string `json:"calculate_files"`
	Output    []string `json:"output_files"`
}

// ListFiles lists the spreadsheets directly inside the input, calculate and output folders.
func (s *Service) ListFiles() (FileLists, error) {
	var out FileLists
	for _, f := range []struct {
		dir string
		dst *[]string
	}{
		{s.dirs.Input, &out.Input},
		{s.dirs.Calculate, &out.Calculate},
		{s.dirs.Output, &out.Output},
	} {
		paths, err := spreadsheet.ListWorkbooks(f.dir)
		if err != nil {
			return out, err
		}
		names := make([]string, 0, len(paths))
		for _, p := range paths {
			names = append(names, filepath.Base(p))
		}
		*f.dst = names
	}
	return out, nil
}
