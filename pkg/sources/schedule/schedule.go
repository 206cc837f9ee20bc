// Package schedule emits calendar events on cron schedules, the source behind
// playbooks triggered by time rather than by an inbound system.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/protocol"
)

var ErrNoSchedules = errors.New("schedule source requires at least one entry")

// Entry is one configured cron schedule. The payload is merged into every
// event the entry emits.
type Entry struct {
	SourceID string         `json:"source_id"`
	Cron     string         `json:"cron"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// Source fires a calendar_event source event per cron tick per entry.
type Source struct {
	entries []Entry
	logger  *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

func NewSource(entries []Entry, logger *slog.Logger) *Source {
	return &Source{
		entries: entries,
		logger:  logger.With("module", "schedule_source"),
	}
}

func (s *Source) Validate() error {
	if len(s.entries) == 0 {
		return ErrNoSchedules
	}

	for _, entry := range s.entries {
		if entry.SourceID == "" {
			return fmt.Errorf("schedule entry with cron %q has no source_id", entry.Cron)
		}

		_, err := cron.ParseStandard(entry.Cron)
		if err != nil {
			return fmt.Errorf("schedule %s: invalid cron expression %q: %w", entry.SourceID, entry.Cron, err)
		}
	}

	return nil
}

func (s *Source) Start(ctx context.Context, callback protocol.SourceEventCallback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	err := s.Validate()
	if err != nil {
		return err
	}

	s.cron = cron.New()

	for _, entry := range s.entries {
		entry := entry

		_, err = s.cron.AddFunc(entry.Cron, func() {
			s.fire(ctx, callback, entry)
		})
		if err != nil {
			return fmt.Errorf("schedule %s: %w", entry.SourceID, err)
		}
	}

	s.cron.Start()
	s.started = true

	s.logger.Info("Schedule source started", "entries", len(s.entries))

	return nil
}

func (s *Source) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	// Waits for in-flight jobs before returning.
	<-s.cron.Stop().Done()
	s.started = false

	s.logger.Info("Schedule source stopped")

	return nil
}

func (s *Source) fire(ctx context.Context, callback protocol.SourceEventCallback, entry Entry) {
	now := time.Now().UTC()

	payload := make(map[string]any, len(entry.Payload)+2)
	for k, v := range entry.Payload {
		payload[k] = v
	}

	if _, ok := payload["event_id"]; !ok {
		payload["event_id"] = entry.SourceID + "@" + now.Format(time.RFC3339)
	}

	payload["starts_at"] = now.Format(time.RFC3339)

	err := callback(ctx, entry.SourceID, models.TriggerCalendarEvent, payload)
	if err != nil {
		s.logger.Error("Failed to emit schedule event",
			"source_id", entry.SourceID,
			"error", err,
		)
	}
}
