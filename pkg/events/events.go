// Package events defines the event types exchanged between the activator, the
// runner and the API over the event bus.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/pkg/knowledge"
	"github.com/cadencehq/cadence/pkg/models"
)

type EventType string

// Kafka topics.
const Topic = "cadence.events"                    // Playbook and run lifecycle events
const SourceEventsTopic = "cadence.source-events" // Inbound events from sources

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Matching.
	PlaybookTriggeredEvent EventType = "playbook.triggered"

	// Run lifecycle.
	ActionDispatchedEvent EventType = "action.dispatched"
	ActionFinishedEvent   EventType = "action.finished"
	ActionFailedEvent     EventType = "action.failed"
	PlaybookFinishedEvent EventType = "playbook.finished"
	PlaybookFailedEvent   EventType = "playbook.failed"

	// Authoring lifecycle.
	PlaybookActivatedEvent EventType = "playbook.activated"
	PlaybookArchivedEvent  EventType = "playbook.archived"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	PlaybookID string         `json:"playbook_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent creates a base event with a fresh id and timestamp.
func NewBaseEvent(eventType EventType, playbookID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		PlaybookID: playbookID,
	}
}

// PlaybookTriggered is published by the activator when an inbound event
// matches an active playbook. It pins the playbook version so the runner
// executes against the snapshot that matched, not whatever the editor has
// done since.
type PlaybookTriggered struct {
	BaseEvent

	PlaybookVersion int64              `json:"playbook_version"`
	TriggerType     models.TriggerType `json:"trigger_type"`
	Payload         map[string]any     `json:"payload,omitempty"`
}

func (e PlaybookTriggered) GetType() EventType { return PlaybookTriggeredEvent }

// ActionDispatched marks the start of one action execution within a run.
type ActionDispatched struct {
	BaseEvent

	RunID    string            `json:"run_id"`
	ActionID string            `json:"action_id"`
	Kind     models.ActionType `json:"kind"`
	Attempt  int               `json:"attempt"`
}

func (e ActionDispatched) GetType() EventType { return ActionDispatchedEvent }

// ActionFinished carries the result of one completed action.
type ActionFinished struct {
	BaseEvent

	RunID    string         `json:"run_id"`
	ActionID string         `json:"action_id"`
	Result   map[string]any `json:"result,omitempty"`

	// Sources is the ranked knowledge list an AI action resolved, recorded
	// for auditability of what the completion collaborator was given.
	Sources []knowledge.SourceHandle `json:"sources,omitempty"`
}

func (e ActionFinished) GetType() EventType { return ActionFinishedEvent }

// ActionFailed carries a non-recoverable action failure.
type ActionFailed struct {
	BaseEvent

	RunID    string `json:"run_id"`
	ActionID string `json:"action_id"`
	Attempt  int    `json:"attempt"`
	Error    string `json:"error"`
}

func (e ActionFailed) GetType() EventType { return ActionFailedEvent }

// PlaybookFinished marks the end of a complete run.
type PlaybookFinished struct {
	BaseEvent

	RunID    string        `json:"run_id"`
	Duration time.Duration `json:"duration"`
}

func (e PlaybookFinished) GetType() EventType { return PlaybookFinishedEvent }

// PlaybookFailed marks a run that stopped before reaching a terminal action.
type PlaybookFailed struct {
	BaseEvent

	RunID    string        `json:"run_id"`
	ActionID string        `json:"action_id,omitempty"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (e PlaybookFailed) GetType() EventType { return PlaybookFailedEvent }

// PlaybookActivated is published when a draft passes validation and goes live.
type PlaybookActivated struct {
	BaseEvent

	PlaybookVersion int64 `json:"playbook_version"`
}

func (e PlaybookActivated) GetType() EventType { return PlaybookActivatedEvent }

// PlaybookArchived is published on the terminal transition.
type PlaybookArchived struct {
	BaseEvent

	PlaybookVersion int64 `json:"playbook_version"`
}

func (e PlaybookArchived) GetType() EventType { return PlaybookArchivedEvent }
