// Package models defines the typed action variants of the playbook graph.
package models

import "fmt"

// ActionType is the closed set of automation step types. The type tag decides
// which optional payload field is meaningful; ValidatePayload enforces that
// exhaustively so a new type cannot ship without a payload contract.
type ActionType string

const (
	// Communication.
	ActionSendEmail ActionType = "send_email"
	ActionSendSMS   ActionType = "send_sms"

	// CRM.
	ActionUpdateCRM   ActionType = "crm_update"
	ActionAssignOwner ActionType = "crm_assign"

	// Form.
	ActionSendForm ActionType = "form_send"

	// Flow control.
	ActionWait   ActionType = "wait"
	ActionBranch ActionType = "branch"
	ActionEnd    ActionType = "end"

	// Integration.
	ActionWebhook ActionType = "webhook"

	// AI.
	ActionAIGenerate ActionType = "ai_generate"

	// Tool.
	ActionEnrich ActionType = "tool_enrich"
)

// ActionCategory groups action types for dispatch and reporting.
type ActionCategory string

const (
	CategoryCommunication ActionCategory = "communication"
	CategoryCRM           ActionCategory = "crm"
	CategoryForm          ActionCategory = "form"
	CategoryFlowControl   ActionCategory = "flow_control"
	CategoryIntegration   ActionCategory = "integration"
	CategoryAI            ActionCategory = "ai"
	CategoryTool          ActionCategory = "tool"
)

// Category returns the category an action type belongs to.
func (t ActionType) Category() (ActionCategory, error) {
	switch t {
	case ActionSendEmail, ActionSendSMS:
		return CategoryCommunication, nil
	case ActionUpdateCRM, ActionAssignOwner:
		return CategoryCRM, nil
	case ActionSendForm:
		return CategoryForm, nil
	case ActionWait, ActionBranch, ActionEnd:
		return CategoryFlowControl, nil
	case ActionWebhook:
		return CategoryIntegration, nil
	case ActionAIGenerate:
		return CategoryAI, nil
	case ActionEnrich:
		return CategoryTool, nil
	default:
		return "", fmt.Errorf("unknown action type %q", string(t))
	}
}

// Action is one typed step in a playbook graph. Next lists sequential
// successors; branch actions route through Branch.Yes / Branch.No instead.
// An action with no declared successors is a terminal leaf.
type Action struct {
	ID      string     `json:"id"   validate:"required"`
	Type    ActionType `json:"type" validate:"required"`
	Name    string     `json:"name"`
	Content string     `json:"content,omitempty"`
	Next    []string   `json:"next,omitempty"`

	Branch      *BranchConfig      `json:"branch,omitempty"`
	AI          *AIConfig          `json:"ai,omitempty"`
	Integration *IntegrationConfig `json:"integration,omitempty"`
	Wait        *WaitConfig        `json:"wait,omitempty"`
}

// BranchConfig holds the runtime condition and the two labeled successor sets
// of a branch action.
type BranchConfig struct {
	Condition Rule     `json:"condition"`
	Yes       []string `json:"yes"`
	No        []string `json:"no"`
}

// AIConfig configures an AI generation step. KnowledgeBases, when present,
// overrides the playbook-level knowledge bindings for this action only.
type AIConfig struct {
	Prompt         string             `json:"prompt"`
	Model          string             `json:"model"`
	Temperature    float64            `json:"temperature"`
	KnowledgeBases []KnowledgeBinding `json:"knowledge_bases,omitempty"`
}

// IntegrationConfig configures an outbound HTTP integration step.
type IntegrationConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// WaitConfig configures a delay step.
type WaitConfig struct {
	Duration string `json:"duration"` // Go duration string, e.g. "48h"
}

// Clone returns a deep copy of the action.
func (a *Action) Clone() *Action {
	if a == nil {
		return nil
	}

	clone := *a

	if a.Next != nil {
		clone.Next = append([]string(nil), a.Next...)
	}

	if a.Branch != nil {
		branch := *a.Branch
		branch.Yes = append([]string(nil), a.Branch.Yes...)
		branch.No = append([]string(nil), a.Branch.No...)
		clone.Branch = &branch
	}

	if a.AI != nil {
		ai := *a.AI
		ai.KnowledgeBases = append([]KnowledgeBinding(nil), a.AI.KnowledgeBases...)
		clone.AI = &ai
	}

	if a.Integration != nil {
		integration := *a.Integration
		if a.Integration.Headers != nil {
			integration.Headers = make(map[string]string, len(a.Integration.Headers))
			for k, v := range a.Integration.Headers {
				integration.Headers[k] = v
			}
		}

		clone.Integration = &integration
	}

	if a.Wait != nil {
		wait := *a.Wait
		clone.Wait = &wait
	}

	return &clone
}

// Successors returns every successor id the action declares, branch outputs
// included. Used by walkers and reference scrubbing.
func (a *Action) Successors() []string {
	if a.Type == ActionBranch && a.Branch != nil {
		out := make([]string, 0, len(a.Branch.Yes)+len(a.Branch.No))
		out = append(out, a.Branch.Yes...)
		out = append(out, a.Branch.No...)

		return out
	}

	return a.Next
}

// IsTerminal reports whether the action declares no successors at all.
func (a *Action) IsTerminal() bool {
	return len(a.Successors()) == 0
}

// ValidatePayload checks that the payload carried by the action matches its
// type tag. The switch is exhaustive over ActionType: adding a type without
// deciding its payload contract fails with an unknown-type issue.
func (a *Action) ValidatePayload() []ValidationIssue {
	var issues []ValidationIssue

	missing := func(field string) {
		issues = append(issues, ValidationIssue{
			Code:    CodeMissingRequiredField,
			Message: fmt.Sprintf("action %s (%s): missing required field %q", a.ID, a.Type, field),
			NodeID:  a.ID,
		})
	}

	switch a.Type {
	case ActionSendEmail, ActionSendSMS, ActionSendForm:
		if a.Content == "" {
			missing("content")
		}
	case ActionUpdateCRM, ActionAssignOwner, ActionEnrich:
		// Content carries the field/owner/provider reference for these types.
		if a.Content == "" {
			missing("content")
		}
	case ActionWait:
		if a.Wait == nil || a.Wait.Duration == "" {
			missing("wait.duration")
		}
	case ActionBranch:
		if a.Branch == nil {
			missing("branch")

			break
		}

		if a.Branch.Condition.Field == "" {
			missing("branch.condition.field")
		}

		if !KnownOperator(a.Branch.Condition.Operator) {
			issues = append(issues, ValidationIssue{
				Code:    CodeMissingRequiredField,
				Message: fmt.Sprintf("action %s: unknown branch operator %q", a.ID, a.Branch.Condition.Operator),
				NodeID:  a.ID,
			})
		}
	case ActionEnd:
		// Distinguished terminal marker, no payload.
	case ActionWebhook:
		if a.Integration == nil || a.Integration.URL == "" {
			missing("integration.url")
		}

		if a.Integration != nil && a.Integration.Method == "" {
			missing("integration.method")
		}
	case ActionAIGenerate:
		if a.AI == nil || a.AI.Prompt == "" {
			missing("ai.prompt")
		}
	default:
		issues = append(issues, ValidationIssue{
			Code:    CodeMissingRequiredField,
			Message: fmt.Sprintf("action %s: unknown action type %q", a.ID, a.Type),
			NodeID:  a.ID,
		})
	}

	return issues
}
