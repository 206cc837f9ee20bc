package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/channels/gochannel"
	"github.com/cadencehq/cadence/pkg/events"
	"github.com/cadencehq/cadence/pkg/models"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBusPublishSubscribe(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.PlaybookTriggered, 1)

	err := bus.Handle(events.PlaybookTriggeredEvent, func(ctx context.Context, event any) error {
		triggered, ok := event.(*events.PlaybookTriggered)
		require.True(t, ok)
		received <- triggered

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	event := events.PlaybookTriggered{
		BaseEvent:       events.NewBaseEvent(events.PlaybookTriggeredEvent, "pb-1"),
		PlaybookVersion: 2,
		TriggerType:     models.TriggerLeadCreated,
		Payload:         map[string]any{"lead_id": "lead-7"},
	}

	require.NoError(t, bus.Publish(ctx, "pb-1", event))

	select {
	case triggered := <-received:
		assert.Equal(t, "pb-1", triggered.PlaybookID)
		assert.Equal(t, int64(2), triggered.PlaybookVersion)
		assert.Equal(t, "lead-7", triggered.Payload["lead_id"])
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBusIgnoresUnhandledTypes(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan any, 1)

	err := bus.Handle(events.PlaybookFinishedEvent, func(ctx context.Context, event any) error {
		received <- event

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	event := events.PlaybookTriggered{
		BaseEvent: events.NewBaseEvent(events.PlaybookTriggeredEvent, "pb-2"),
	}
	require.NoError(t, bus.Publish(ctx, "pb-2", event))

	select {
	case <-received:
		t.Fatal("handler for another event type should not fire")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatermillEventBusGenerateID(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
