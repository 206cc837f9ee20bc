package playbook

import (
	"context"
	"log/slog"

	"github.com/cadencehq/cadence/pkg/eventbus"
	"github.com/cadencehq/cadence/pkg/events"
)

// Activator bridges the source-event bus and the runner fleet: for every
// inbound source event it finds the matching active playbooks and publishes
// one PlaybookTriggered per match, pinned to the version that matched.
type Activator struct {
	matcher  *Matcher
	eventBus eventbus.EventPublisher
	logger   *slog.Logger
}

func NewActivator(matcher *Matcher, bus eventbus.EventPublisher, logger *slog.Logger) *Activator {
	return &Activator{
		matcher:  matcher,
		eventBus: bus,
		logger:   logger.With("module", "playbook_activator"),
	}
}

// HandleSourceEvent is wired as the source-event bus handler. A source event
// that matches nothing is not an error; it is simply dropped.
func (a *Activator) HandleSourceEvent(ctx context.Context, sourceEvent *events.SourceEvent) error {
	err := sourceEvent.Validate()
	if err != nil {
		a.logger.WarnContext(ctx, "Dropping invalid source event",
			"source_id", sourceEvent.SourceID,
			"error", err,
		)

		// Malformed events are dropped, not redelivered forever.
		return nil
	}

	matched, err := a.matcher.Match(ctx, sourceEvent.Category, sourceEvent.Payload)
	if err != nil {
		return err
	}

	for _, playbook := range matched {
		triggered := events.PlaybookTriggered{
			BaseEvent:       events.NewBaseEvent(events.PlaybookTriggeredEvent, playbook.ID),
			PlaybookVersion: playbook.Version,
			TriggerType:     sourceEvent.Category,
			Payload:         sourceEvent.Payload,
		}
		triggered.Metadata = map[string]any{
			"source_event_id": sourceEvent.ID,
			"source_id":       sourceEvent.SourceID,
		}

		err = a.eventBus.Publish(ctx, playbook.ID, triggered)
		if err != nil {
			return err
		}

		a.logger.InfoContext(ctx, "Playbook triggered",
			"playbook_id", playbook.ID,
			"playbook_version", playbook.Version,
			"trigger_type", sourceEvent.Category,
			"source_event_id", sourceEvent.ID,
		)
	}

	return nil
}
