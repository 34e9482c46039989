package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gabpmcp/bolivar-test/cmd/bootstrap"
	"github.com/gabpmcp/bolivar-test/internal/handler/middleware"
	"github.com/gabpmcp/bolivar-test/internal/pkg/config"
	"github.com/gabpmcp/bolivar-test/internal/worker"

	"go.uber.org/fx"
)

func startWorker(lc fx.Lifecycle, w *worker.Worker, logger *slog.Logger) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				if err := w.Run(runCtx); err != nil {
					logger.Error("worker exited", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func main() {
	app := fx.New(
		bootstrap.WorkerModule,
		fx.Provide(
			func(cfg config.Config) *slog.Logger {
				logger := middleware.NewLogger(cfg.Log)
				return logger.GetSlogLogger()
			},
		),
		fx.Invoke(
			startWorker,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("application start failed", "error", err)
		os.Exit(1)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("application stop failed", "error", err)
	}

	slog.Info("application stopped")
}
