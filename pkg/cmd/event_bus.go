package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/cadencehq/cadence/pkg/channels/gochannel"
	"github.com/cadencehq/cadence/pkg/channels/kafka"
	"github.com/cadencehq/cadence/pkg/eventbus"
)

// NewEventBus creates the lifecycle event bus for the given provider. The
// gochannel provider is in-process only, for development and tests.
func NewEventBus(provider, serviceName string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), serviceName)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create gochannel pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}

// NewSourceEventBus creates a source event bus instance based on the provider.
func NewSourceEventBus(provider string, logger *slog.Logger) eventbus.SourceEventBus {
	switch provider {
	case "kafka":
		sourceEventBus, err := eventbus.NewKafkaSourceEventBus(logger)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka source event bus: %w", err))
		}

		return sourceEventBus
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create gochannel pub/sub: %w", err))
		}

		return eventbus.NewSourceEventBus(pub, sub, logger)
	default:
		panic("Unsupported source event bus provider: " + provider)
	}
}
