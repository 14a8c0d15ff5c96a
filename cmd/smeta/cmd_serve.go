package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/ingest"
	"github.com/kozichsergey/SmetaAI/internal/metrics"
	"github.com/kozichsergey/SmetaAI/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC control service, the metrics endpoint and the input watcher",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return common.WrapError(err, "listen "+cfg.Server.GRPCAddr)
	}
	srv := server.New(server.NewControlServer(a.control, a.catalog, a.raw, a.export, logger), logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	httpSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx, lis) })
	g.Go(func() error {
		logger.Info("metrics.listening", "addr", cfg.Server.MetricsAddr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})

	if cfg.Server.WatchInput {
		if err := os.MkdirAll(cfg.Dirs.Input, 0o755); err != nil {
			return common.WrapError(err, "create input dir")
		}
		batches, errs, err := ingest.StartWatcher(gctx, ingest.WatchConfig{
			Roots:    []string{cfg.Dirs.Input},
			Debounce: cfg.Server.WatchDebounce,
		}, logger)
		if err != nil {
			return common.WrapError(err, "start watcher")
		}
		g.Go(func() error { return watchInput(gctx, a, batches, errs) })
	}

	logger.Info("smeta.serve.started", "grpc", cfg.Server.GRPCAddr, "metrics", cfg.Server.MetricsAddr, "watch", cfg.Server.WatchInput)
	err = g.Wait()
	logger.Info("smeta.serve.stopped")
	return err
}

// watchInput starts an ingest for every batch of new spreadsheets unless a task is
// already running; the next ingest picks the files up then.
func watchInput(ctx context.Context, a *app, batches <-chan []string, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch.error", "error", err)
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			if a.oracle == nil {
				logger.Warn("watch.ingest.skipped", "reason", "ai disabled", "files", len(batch))
				continue
			}
			id, err := a.control.StartTask(constants.TaskIngest)
			switch {
			case errors.Is(err, common.ErrTaskRunning):
				logger.Info("watch.ingest.deferred", "files", len(batch))
			case err != nil:
				logger.Error("watch.ingest.failed", "error", err)
			default:
				logger.Info("watch.ingest.started", "task_id", id, "files", len(batch))
			}
		}
	}
}
