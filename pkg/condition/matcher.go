package condition

import "github.com/cadencehq/cadence/pkg/models"

// Matches decides whether an inbound event of the given category activates a
// trigger. The result depends only on the trigger configuration and the
// event; there is no hidden state.
//
// A trigger with no conditions matches every event of its category. With
// conditions, mode ALL requires every rule to hold and mode ANY requires at
// least one.
func Matches(cfg *models.TriggerConfig, eventType models.TriggerType, payload map[string]any) bool {
	if cfg == nil || cfg.Type != eventType {
		return false
	}

	if cfg.Conditions == nil {
		return true
	}

	switch cfg.Conditions.Mode {
	case models.CombinatorAll:
		for _, rule := range cfg.Conditions.Rules {
			if !Evaluate(rule, payload) {
				return false
			}
		}

		return true
	case models.CombinatorAny:
		for _, rule := range cfg.Conditions.Rules {
			if Evaluate(rule, payload) {
				return true
			}
		}

		return false
	default:
		// Unknown modes are rejected at validation time.
		return false
	}
}
