package events

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/pkg/models"
)

var (
	ErrInvalidEventID  = errors.New("event id is required")
	ErrInvalidCategory = errors.New("event category is not a known trigger type")
	ErrInvalidSourceID = errors.New("source id is required")
	ErrInvalidPayload  = errors.New("event payload must not be nil")
)

// SourceEvent is an inbound occurrence from the outside world: a hosted form
// submission, a CRM stage change, a calendar hit from the schedule source. The
// activator matches it against the trigger configuration of every active
// playbook.
type SourceEvent struct {
	ID         string             `json:"id"`
	SourceID   string             `json:"source_id"`
	Category   models.TriggerType `json:"category"`
	Payload    map[string]any     `json:"payload"`
	ReceivedAt time.Time          `json:"received_at"`
}

func NewSourceEvent(sourceID string, category models.TriggerType, payload map[string]any) *SourceEvent {
	if payload == nil {
		payload = map[string]any{}
	}

	return &SourceEvent{
		ID:         uuid.New().String(),
		SourceID:   sourceID,
		Category:   category,
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}
}

func (e *SourceEvent) Validate() error {
	if e.ID == "" {
		return ErrInvalidEventID
	}

	if e.SourceID == "" {
		return ErrInvalidSourceID
	}

	if !models.KnownTriggerType(e.Category) {
		return ErrInvalidCategory
	}

	if e.Payload == nil {
		return ErrInvalidPayload
	}

	return nil
}

// PayloadString returns a string payload field, reporting whether it was
// present and of the right type.
func (e *SourceEvent) PayloadString(key string) (string, bool) {
	value, exists := e.Payload[key]
	if !exists {
		return "", false
	}

	str, ok := value.(string)

	return str, ok
}
