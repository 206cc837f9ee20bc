// Source events travel on their own bus so the activator can scale
// independently of the runner fleet.
package eventbus

import (
	"context"

	"github.com/cadencehq/cadence/pkg/events"
)

// SourceEventHandler is called for every inbound source event.
type SourceEventHandler func(ctx context.Context, sourceEvent *events.SourceEvent) error

type SourceEventPublisher interface {
	PublishSourceEvent(ctx context.Context, sourceEvent *events.SourceEvent) error
}

type SourceEventSubscriber interface {
	HandleSourceEvents(handler SourceEventHandler) error
	SubscribeToSourceEvents(ctx context.Context) error
}

type SourceEventBus interface {
	SourceEventPublisher
	SourceEventSubscriber
	Close() error
}
