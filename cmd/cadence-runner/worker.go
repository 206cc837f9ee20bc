// Package main runs the playbook runner: it consumes PlaybookTriggered events
// and executes the matched playbook graphs.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/cadencehq/cadence/pkg/eventbus"
	"github.com/cadencehq/cadence/pkg/events"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/playbook"
	"github.com/cadencehq/cadence/pkg/registry"
)

type Worker struct {
	id           string
	runner       *playbook.Runner
	eventBus     eventbus.EventBus
	logger       *slog.Logger
	restartCount int
}

func NewWorker(
	id string,
	p persistence.Persistence,
	reg *registry.Registry,
	eventBus eventbus.EventBus,
	maxAttempts int,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Worker {
	repository := playbook.NewRepository(p, logger)
	runner := playbook.NewRunner(repository, reg, eventBus, logger)
	runner.SetMaxAttempts(maxAttempts)
	runner.SetTracer(tracer)

	return &Worker{
		id:       id,
		runner:   runner,
		eventBus: eventBus,
		logger:   logger.With("module", "runner_worker"),
	}
}

func (w *Worker) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)

	w.logger.Info("Starting runner worker")

	w.handleSignals(workerCtx, cancel)
	w.run(workerCtx)
}

func (w *Worker) handleSignals(ctx context.Context, cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		w.logger.Info("Received signal", "signal", sig)

		switch sig {
		case syscall.SIGHUP:
			w.logger.Info("Reloading configuration...")
			w.restart(ctx, cancel)
		case syscall.SIGINT, syscall.SIGTERM:
			w.logger.Info("Shutting down gracefully...")
			cancel()
			os.Exit(0)
		default:
			w.logger.Warn("Unhandled signal received", "signal", sig)
		}
	}()
}

func (w *Worker) restart(ctx context.Context, cancel context.CancelFunc) {
	w.restartCount++
	newCtx := context.WithoutCancel(ctx)

	cancel()

	if w.restartCount > 5 {
		w.logger.Error("Restart limit reached, exiting...")
		os.Exit(1)
	}

	backoff := time.Duration(w.restartCount) * time.Second
	w.logger.Info("Restarting runner worker...", "backoff", backoff)
	time.Sleep(backoff)

	w.Start(newCtx)
}

func (w *Worker) run(ctx context.Context) {
	err := w.eventBus.Handle(events.PlaybookTriggeredEvent, w.runner.HandleTriggered)
	if err != nil {
		w.logger.Error("Failed to register triggered handler", "error", err)

		return
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.Error("Failed to subscribe to events", "error", err)

		return
	}

	w.logger.Info("Subscribed to playbook triggers, waiting...")

	<-ctx.Done()
	w.logger.Info("Runner worker context cancelled, stopping...")
}
