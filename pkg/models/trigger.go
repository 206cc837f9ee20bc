package models

// TriggerType is the category of inbound event a playbook listens for.
type TriggerType string

const (
	TriggerLeadCreated    TriggerType = "lead_created"
	TriggerFormSubmission TriggerType = "form_submission"
	TriggerStageChange    TriggerType = "crm_stage_change"
	TriggerCalendarEvent  TriggerType = "calendar_event"
	TriggerWebhook        TriggerType = "webhook"
	TriggerSegmentEntered TriggerType = "segment_entered"
)

// Operator is a comparison applied by a single condition rule.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorContains    Operator = "contains"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorExists      Operator = "exists"
	OperatorNotExists   Operator = "not_exists"
)

// KnownOperator reports whether op is one of the closed operator set. Unknown
// operators are a configuration error caught at validation time; evaluation
// assumes rules have already passed this check.
func KnownOperator(op Operator) bool {
	switch op {
	case OperatorEquals, OperatorContains, OperatorGreaterThan,
		OperatorLessThan, OperatorExists, OperatorNotExists:
		return true
	default:
		return false
	}
}

// CombinatorMode decides how the rules of a CombinatorRule combine.
type CombinatorMode string

const (
	CombinatorAll CombinatorMode = "all" // every rule must hold
	CombinatorAny CombinatorMode = "any" // at least one rule must hold
)

// Rule compares one event payload field against a value. Value is ignored for
// the exists/not_exists operators.
type Rule struct {
	Field    string   `json:"field"    validate:"required"`
	Operator Operator `json:"operator" validate:"required"`
	Value    any      `json:"value,omitempty"`
}

// CombinatorRule combines rules under ALL/ANY semantics. A present combinator
// must carry at least one rule.
type CombinatorRule struct {
	Mode  CombinatorMode `json:"mode"  validate:"required,oneof=all any"`
	Rules []Rule         `json:"rules" validate:"required,min=1,dive"`
}

// TriggerConfig is the event-matching front door of a playbook.
type TriggerConfig struct {
	Type       TriggerType     `json:"type" validate:"required"`
	Name       string          `json:"name"`
	Conditions *CombinatorRule `json:"conditions,omitempty"`
}

// Clone returns a deep copy of the trigger configuration.
func (t *TriggerConfig) Clone() *TriggerConfig {
	if t == nil {
		return nil
	}

	clone := *t

	if t.Conditions != nil {
		conditions := *t.Conditions
		conditions.Rules = make([]Rule, len(t.Conditions.Rules))
		copy(conditions.Rules, t.Conditions.Rules)
		clone.Conditions = &conditions
	}

	return &clone
}

// guaranteedFields lists the payload fields each trigger category always
// carries. Branch conditions may only reference guaranteed fields so a live
// walk never hits an unresolvable condition.
var guaranteedFields = map[TriggerType][]string{
	TriggerLeadCreated:    {"lead_id", "email", "source", "company_size"},
	TriggerFormSubmission: {"form_id", "lead_id", "fields"},
	TriggerStageChange:    {"lead_id", "pipeline_id", "from_stage", "to_stage"},
	// Calendar fires come from schedules, which are not bound to a lead.
	TriggerCalendarEvent:  {"event_id", "starts_at"},
	TriggerWebhook:        {"payload"},
	TriggerSegmentEntered: {"lead_id", "segment_id"},
}

// GuaranteesField reports whether the trigger category always provides the
// given payload field at execution time.
func (t TriggerType) GuaranteesField(field string) bool {
	for _, f := range guaranteedFields[t] {
		if f == field {
			return true
		}
	}

	return false
}

// KnownTriggerType reports whether t belongs to the closed trigger category set.
func KnownTriggerType(t TriggerType) bool {
	_, ok := guaranteedFields[t]

	return ok
}
