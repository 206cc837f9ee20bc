// Package models defines the core domain models for playbook automation.
package models

import "time"

// PlaybookStatus represents the lifecycle state of a playbook.
type PlaybookStatus string

const (
	PlaybookStatusDraft    PlaybookStatus = "draft"    // Editable, not matched against events
	PlaybookStatusActive   PlaybookStatus = "active"   // Live, matched against inbound events
	PlaybookStatusArchived PlaybookStatus = "archived" // Terminal, no further mutation accepted
)

// KnowledgeBinding attaches a knowledge base to a playbook (or to a single AI
// action as a local override). Higher priority is searched first.
type KnowledgeBinding struct {
	KnowledgeBaseID string `json:"knowledge_base_id" validate:"required"`
	Priority        int    `json:"priority"           validate:"required,min=1,max=10"`
}

// Playbook is the aggregate root: one trigger, one action graph and a set of
// prioritized knowledge bindings, versioned under mutation.
type Playbook struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"        validate:"required,min=3"`
	Description       string             `json:"description"`
	Status            PlaybookStatus     `json:"status"      validate:"required"`
	Trigger           *TriggerConfig     `json:"trigger"`
	Actions           []*Action          `json:"actions"`
	KnowledgeBindings []KnowledgeBinding `json:"knowledge_bindings,omitempty"`
	Metadata          map[string]any     `json:"metadata,omitempty"`
	Owner             string             `json:"owner,omitempty"`
	Version           int64              `json:"version"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// ActionByID returns the action with the given id, if present.
func (p *Playbook) ActionByID(id string) (*Action, bool) {
	for _, action := range p.Actions {
		if action.ID == id {
			return action, true
		}
	}

	return nil, false
}

// Clone returns a deep copy of the playbook. Mutations and graph walks always
// operate on a copy so a rejected mutation or a concurrent edit never leaks
// into state someone else is holding.
func (p *Playbook) Clone() *Playbook {
	if p == nil {
		return nil
	}

	clone := *p

	if p.Trigger != nil {
		clone.Trigger = p.Trigger.Clone()
	}

	if p.Actions != nil {
		clone.Actions = make([]*Action, len(p.Actions))
		for i, action := range p.Actions {
			clone.Actions[i] = action.Clone()
		}
	}

	if p.KnowledgeBindings != nil {
		clone.KnowledgeBindings = make([]KnowledgeBinding, len(p.KnowledgeBindings))
		copy(clone.KnowledgeBindings, p.KnowledgeBindings)
	}

	clone.Metadata = cloneMap(p.Metadata)

	return &clone
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}

	return dst
}
