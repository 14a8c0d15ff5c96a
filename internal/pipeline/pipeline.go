// Package pipeline runs the three long-running workflows: ingest, optimize and calculate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/core/catalog"
	"github.com/kozichsergey/SmetaAI/internal/core/cluster"
	"github.com/kozichsergey/SmetaAI/internal/ingest"
	"github.com/kozichsergey/SmetaAI/internal/progress"
	"github.com/kozichsergey/SmetaAI/internal/repository"
)

// Config holds the folders and tunables of the stages.
type Config struct {
	InputDir     string
	CalculateDir string
	OutputDir    string
	// Concurrency bounds how many buckets are resolved at once during optimize.
	Concurrency int
}

// Deps are the collaborators of the stages. Extractor may be nil when no oracle is
// configured; ingest then fails while optimize and calculate use their fallbacks.
type Deps struct {
	Raw       repository.RawDataRepository
	Catalog   repository.CatalogRepository
	Extractor *ingest.FileExtractor
	Resolver  *cluster.Resolver
	Builder   *catalog.Builder
	Matcher   *catalog.Matcher
}

// FileObserver is told about every file a stage finished, successfully or not.
type FileObserver func(task constants.TaskName, err error)

type Pipeline struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	onFile FileObserver
}

type Option func(*Pipeline)

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func WithFileObserver(f FileObserver) Option {
	return func(p *Pipeline) { p.onFile = f }
}

func New(deps Deps, cfg Config, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	p := &Pipeline{deps: deps, cfg: cfg, logger: logger, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pipeline) fileDone(task constants.TaskName, err error) {
	if p.onFile != nil {
		p.onFile(task, err)
	}
}

// fail reports err through the sink and returns it. Cancellation is reported with msg
// prefixed by "Cancelled".
func fail(ctx context.Context, sink progress.Sink, err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		sink.Fail(ctx, "Cancelled: "+msg)
		return err
	}
	sink.Fail(ctx, fmt.Sprintf("%s: %v", msg, err))
	return err
}

// errNoData marks a stage that has nothing to work on.
func errNoData(msg string) error {
	return common.NewAppError("NO_DATA", msg, common.ErrInvalidInput)
}

func percent(done, total, from, to int) int {
	if total <= 0 {
		return to
	}
	return from + (to-from)*done/total
}
