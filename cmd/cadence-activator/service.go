// Package main runs the activator: it consumes source events, matches them
// against active playbooks and publishes PlaybookTriggered events for the
// runner fleet. It can also host cron schedule sources in-process.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cadencehq/cadence/pkg/eventbus"
	"github.com/cadencehq/cadence/pkg/events"
	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/playbook"
	"github.com/cadencehq/cadence/pkg/protocol"
	"github.com/cadencehq/cadence/pkg/sources/schedule"
	"github.com/cadencehq/cadence/pkg/sources/webhook"
)

type Service struct {
	id             string
	activator      *playbook.Activator
	sourceEventBus eventbus.SourceEventBus
	schedulesFile  string
	webhookPort    int
	webhooksFile   string
	sources        []protocol.Source
	logger         *slog.Logger
	restartCount   int
}

func NewService(
	id string,
	p persistence.Persistence,
	eventBus eventbus.EventBus,
	sourceEventBus eventbus.SourceEventBus,
	schedulesFile string,
	webhookPort int,
	webhooksFile string,
	logger *slog.Logger,
) *Service {
	repository := playbook.NewRepository(p, logger)
	matcher := playbook.NewMatcher(repository, logger)

	return &Service{
		id:             id,
		activator:      playbook.NewActivator(matcher, eventBus, logger),
		sourceEventBus: sourceEventBus,
		schedulesFile:  schedulesFile,
		webhookPort:    webhookPort,
		webhooksFile:   webhooksFile,
		logger:         logger.With("module", "activator_service"),
	}
}

func (s *Service) Start(ctx context.Context) {
	serviceCtx, cancel := context.WithCancel(ctx)

	s.logger.Info("Starting activator")

	s.handleSignals(serviceCtx, cancel)
	s.run(serviceCtx)
}

func (s *Service) handleSignals(ctx context.Context, cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		s.logger.Info("Received signal", "signal", sig)

		switch sig {
		case syscall.SIGHUP:
			s.logger.Info("Reloading configuration...")
			s.restart(ctx, cancel)
		case syscall.SIGINT, syscall.SIGTERM:
			s.logger.Info("Shutting down gracefully...")
			s.stop(ctx, cancel)
			os.Exit(0)
		default:
			s.logger.Warn("Unhandled signal received", "signal", sig)
		}
	}()
}

func (s *Service) restart(ctx context.Context, cancel context.CancelFunc) {
	s.restartCount++
	newCtx := context.WithoutCancel(ctx)

	s.stop(ctx, cancel)

	if s.restartCount > 5 {
		s.logger.Error("Restart limit reached, exiting...")
		os.Exit(1)
	}

	backoff := time.Duration(s.restartCount) * time.Second
	s.logger.Info("Restarting activator...", "backoff", backoff)
	time.Sleep(backoff)

	s.Start(newCtx)
}

func (s *Service) run(ctx context.Context) {
	err := s.sourceEventBus.HandleSourceEvents(func(ctx context.Context, sourceEvent *events.SourceEvent) error {
		s.logger.Info("Received source event",
			"source_id", sourceEvent.SourceID,
			"category", sourceEvent.Category,
		)

		return s.activator.HandleSourceEvent(ctx, sourceEvent)
	})
	if err != nil {
		s.logger.Error("Failed to register source event handler", "error", err)

		return
	}

	err = s.sourceEventBus.SubscribeToSourceEvents(ctx)
	if err != nil {
		s.logger.Error("Failed to start source event subscription", "error", err)

		return
	}

	s.startSources(ctx)

	s.logger.Info("Subscribed to source events, waiting...")

	<-ctx.Done()
	s.logger.Info("Activator context cancelled, stopping...")
}

// startSources hosts the configured in-process sources. Everything they emit
// enters the same bus as events from external sources.
func (s *Service) startSources(ctx context.Context) {
	callback := func(ctx context.Context, sourceID string, category models.TriggerType, payload map[string]any) error {
		return s.sourceEventBus.PublishSourceEvent(ctx, events.NewSourceEvent(sourceID, category, payload))
	}

	if s.schedulesFile != "" {
		var entries []schedule.Entry
		if s.loadJSON(s.schedulesFile, &entries) {
			s.startSource(ctx, schedule.NewSource(entries, s.logger), callback)
		}
	}

	if s.webhooksFile != "" {
		var endpoints []webhook.Endpoint
		if s.loadJSON(s.webhooksFile, &endpoints) {
			s.startSource(ctx, webhook.NewSource(s.webhookPort, endpoints, s.logger), callback)
		}
	}
}

func (s *Service) loadJSON(path string, out any) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("Failed to read source config", "path", path, "error", err)

		return false
	}

	err = json.Unmarshal(raw, out)
	if err != nil {
		s.logger.Error("Invalid source config", "path", path, "error", err)

		return false
	}

	return true
}

func (s *Service) startSource(ctx context.Context, source protocol.Source, callback protocol.SourceEventCallback) {
	err := source.Start(ctx, callback)
	if err != nil {
		s.logger.Error("Failed to start source", "error", err)

		return
	}

	s.sources = append(s.sources, source)
}

func (s *Service) stop(ctx context.Context, cancel context.CancelFunc) {
	s.logger.Info("Stopping activator")

	for _, source := range s.sources {
		if err := source.Stop(ctx); err != nil {
			s.logger.Error("Failed to stop source", "error", err)
		}
	}

	if cancel != nil {
		cancel()
	}
}
