package protocol

import (
	"context"
	"log/slog"

	"github.com/cadencehq/cadence/pkg/models"
)

// SourceEventCallback is called when a source emits an event. The callback
// publishes the event onto the source event bus for the activator.
type SourceEventCallback func(ctx context.Context, sourceID string, category models.TriggerType, payload map[string]any) error

// Source is a long-running process that watches an external system and emits
// source events: a cron scheduler, a webhook listener, a CRM poller.
type Source interface {
	// Start begins watching. The callback is invoked for every event until
	// Stop is called or the context is cancelled.
	Start(ctx context.Context, callback SourceEventCallback) error

	// Stop gracefully shuts the source down.
	Stop(ctx context.Context) error

	// Validate checks the source configuration.
	Validate() error
}

// SourceFactory creates Source instances from configuration.
type SourceFactory interface {
	Create(config map[string]any, logger *slog.Logger) (Source, error)
	ID() string
	Schema() map[string]any
}
