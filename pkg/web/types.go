// Package web provides the HTTP surface for playbook authoring and event
// simulation.
package web

import "github.com/cadencehq/cadence/pkg/models"

// CreatePlaybookRequest is the body for creating a new playbook. The playbook
// is created as a draft; trigger and actions may be supplied up front or added
// with the dedicated endpoints.
type CreatePlaybookRequest struct {
	Name        string                    `json:"name"        validate:"required,min=3"`
	Description string                    `json:"description"`
	Owner       string                    `json:"owner"`
	Trigger     *models.TriggerConfig     `json:"trigger,omitempty"`
	Actions     []*models.Action          `json:"actions,omitempty"`
	Knowledge   []models.KnowledgeBinding `json:"knowledge_bindings,omitempty"`
	Metadata    map[string]any            `json:"metadata,omitempty"`
}

// UpdatePlaybookRequest supports partial updates of name, description and
// metadata. Trigger, actions and knowledge bindings have their own endpoints.
type UpdatePlaybookRequest struct {
	Name        *string        `json:"name,omitempty" validate:"omitempty,min=3"`
	Description *string        `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// BindKnowledgeRequest attaches a knowledge base to a playbook.
type BindKnowledgeRequest struct {
	KnowledgeBaseID string `json:"knowledge_base_id" validate:"required"`
	Priority        int    `json:"priority"          validate:"required"`
}

// ReprioritizeKnowledgeRequest changes the priority of an existing binding.
type ReprioritizeKnowledgeRequest struct {
	Priority int `json:"priority" validate:"required"`
}

// SimulateEventRequest injects a source event as if a live source emitted it,
// for testing trigger conditions end to end.
type SimulateEventRequest struct {
	SourceID string         `json:"source_id" validate:"required"`
	Category string         `json:"category"  validate:"required"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// ValidationReportResponse is the full issue report for a playbook. Valid is
// true when the playbook could be activated as-is.
type ValidationReportResponse struct {
	PlaybookID string                   `json:"playbook_id"`
	Valid      bool                     `json:"valid"`
	Issues     []models.ValidationIssue `json:"issues"`
}

// ExecutorResponse describes one registered executor type.
type ExecutorResponse struct {
	Type   string         `json:"type"`
	Schema map[string]any `json:"schema"`
}
