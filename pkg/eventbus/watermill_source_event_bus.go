package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/cadencehq/cadence/pkg/channels/kafka"
	"github.com/cadencehq/cadence/pkg/events"
)

type watermillSourceEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	handlers   []SourceEventHandler
	logger     *slog.Logger
}

// NewSourceEventBus wraps an existing publisher and subscriber pair. Used with
// the gochannel transport for local development and tests.
func NewSourceEventBus(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) SourceEventBus {
	return &watermillSourceEventBus{
		publisher:  pub,
		subscriber: sub,
		handlers:   make([]SourceEventHandler, 0),
		logger:     logger.With("module", "source-event-bus"),
	}
}

// NewKafkaSourceEventBus creates a source event bus backed by Kafka.
func NewKafkaSourceEventBus(logger *slog.Logger) (SourceEventBus, error) {
	pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "source-events")
	if err != nil {
		return nil, err
	}

	return NewSourceEventBus(pub, sub, logger), nil
}

func (b *watermillSourceEventBus) PublishSourceEvent(ctx context.Context, sourceEvent *events.SourceEvent) error {
	if err := sourceEvent.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(sourceEvent)
	if err != nil {
		b.logger.Error("Failed to marshal source event", "error", err, "source_id", sourceEvent.SourceID)

		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, sourceEvent.SourceID) // Kafka partitioning key
	msg.Metadata.Set("source_id", sourceEvent.SourceID)
	msg.Metadata.Set("category", string(sourceEvent.Category))

	b.logger.Debug("Publishing source event",
		"source_id", sourceEvent.SourceID,
		"category", sourceEvent.Category,
		"topic", events.SourceEventsTopic)

	return b.publisher.Publish(events.SourceEventsTopic, msg)
}

func (b *watermillSourceEventBus) HandleSourceEvents(handler SourceEventHandler) error {
	b.handlers = append(b.handlers, handler)

	return nil
}

func (b *watermillSourceEventBus) SubscribeToSourceEvents(ctx context.Context) error {
	if len(b.handlers) == 0 {
		b.logger.Warn("No handlers registered for source events")

		return nil
	}

	messages, err := b.subscriber.Subscribe(ctx, events.SourceEventsTopic)
	if err != nil {
		b.logger.Error("Failed to subscribe to source events", "error", err, "topic", events.SourceEventsTopic)

		return err
	}

	go func() {
		for msg := range messages {
			var sourceEvent events.SourceEvent

			if err := json.Unmarshal(msg.Payload, &sourceEvent); err != nil {
				b.logger.Error("Failed to unmarshal source event", "error", err, "message_id", msg.UUID)
				msg.Nack()

				continue
			}

			success := true

			for _, handler := range b.handlers {
				if err := handler(ctx, &sourceEvent); err != nil {
					b.logger.Error("Source event handler failed",
						"error", err,
						"source_id", sourceEvent.SourceID,
						"category", sourceEvent.Category)

					success = false
				}
			}

			if success {
				msg.Ack()
			} else {
				msg.Nack()
			}
		}
	}()

	b.logger.Info("Source event subscription started", "topic", events.SourceEventsTopic)

	return nil
}

func (b *watermillSourceEventBus) Close() error {
	err := b.publisher.Close()
	if err != nil {
		return err
	}

	return b.subscriber.Close()
}
