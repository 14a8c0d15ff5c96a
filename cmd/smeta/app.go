package main

import (
	"context"
	"time"

	"github.com/kozichsergey/SmetaAI/internal/common"
	corecatalog "github.com/kozichsergey/SmetaAI/internal/core/catalog"
	"github.com/kozichsergey/SmetaAI/internal/core/cluster"
	"github.com/kozichsergey/SmetaAI/internal/export"
	"github.com/kozichsergey/SmetaAI/internal/ingest"
	"github.com/kozichsergey/SmetaAI/internal/llm"
	"github.com/kozichsergey/SmetaAI/internal/llm/openai"
	"github.com/kozichsergey/SmetaAI/internal/metrics"
	"github.com/kozichsergey/SmetaAI/internal/pipeline"
	"github.com/kozichsergey/SmetaAI/internal/progress"
	"github.com/kozichsergey/SmetaAI/internal/repository"
	"github.com/kozichsergey/SmetaAI/internal/services/catalog"
	"github.com/kozichsergey/SmetaAI/internal/services/control"
	"github.com/kozichsergey/SmetaAI/internal/services/rawdata"
	"github.com/kozichsergey/SmetaAI/internal/tasks"
)

// app holds the wired services of one process.
type app struct {
	store   repository.DocumentStore
	oracle  *openai.Client // nil when no API key is configured
	runner  *tasks.Runner
	control *control.Service
	catalog *catalog.Service
	raw     *rawdata.Service
	export  *export.Service
}

// openApp wires the store, oracles and services from cfg. recoverStale is set by the
// long-running server, which owns the progress state.
func openApp(ctx context.Context, recoverStale bool) (*app, error) {
	store, err := repository.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	rawRepo := repository.NewRawDataRepository(store, logger)
	catRepo := repository.NewCatalogRepository(store, logger)
	progRepo := repository.NewProgressRepository(store, logger)

	a := &app{store: store}

	// Interfaces stay nil without a key so the engine takes its fallbacks.
	var (
		extractor llm.Extractor
		grouper   llm.GroupingOracle
		matcher   llm.MatchingOracle
	)
	if cfg.AIEnabled() {
		prompts, err := llm.LoadPrompts(cfg.LLM.PromptsFile)
		if err != nil {
			_ = store.Close()
			return nil, common.WrapError(err, "load prompts")
		}
		client, err := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			Retry: llm.RetryPolicy{
				MaxRetries: cfg.LLM.MaxRetries,
				Backoff:    cfg.LLM.Backoff,
				MaxBackoff: time.Minute,
			},
		}, logger, openai.WithPrompts(prompts), openai.WithCallObserver(metrics.RecordOracleCall))
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		a.oracle = client
		extractor, grouper, matcher = client, client, client
	} else {
		logger.Warn("ai.disabled", "hint", "set OPENAI_API_KEY to enable extraction and AI clustering")
	}

	p := pipeline.New(pipeline.Deps{
		Raw:       rawRepo,
		Catalog:   catRepo,
		Extractor: ingest.NewFileExtractor(extractor, logger, ingest.WithResponsesDir(cfg.Dirs.Responses)),
		Resolver:  cluster.NewResolver(grouper, logger, cluster.WithFallbackHook(metrics.RecordClusterFallback)),
		Builder:   corecatalog.NewBuilder(cfg.Pricing.VarianceThreshold),
		Matcher:   corecatalog.NewMatcher(matcher, cfg.Pricing.MatchThreshold, logger, corecatalog.WithStatsHook(metrics.RecordMatchStats)),
	}, pipeline.Config{
		InputDir:     cfg.Dirs.Input,
		CalculateDir: cfg.Dirs.Calculate,
		OutputDir:    cfg.Dirs.Output,
		Concurrency:  cfg.Pricing.OptimizeConcurrency,
	}, logger, pipeline.WithFileObserver(metrics.RecordFile))

	a.runner = tasks.NewRunner(logger)
	a.control = control.NewService(ctx, control.Deps{
		Runner:       a.runner,
		Tracker:      progress.NewTracker(ctx, progRepo, logger, progress.WithFinishHook(metrics.RecordTask)),
		Pipeline:     p,
		Raw:          rawRepo,
		Catalog:      catRepo,
		Dirs:         cfg.Dirs,
		AIEnabled:    cfg.AIEnabled(),
		RecoverStale: recoverStale,
	}, logger)
	a.catalog = catalog.NewService(catRepo, logger)
	a.raw = rawdata.NewService(rawRepo, logger)
	a.export = export.NewService(catRepo, logger)
	return a, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.runner.Shutdown(ctx)
	if err := a.store.Close(); err != nil {
		logger.Warn("store.close.failed", "error", err)
	}
}
