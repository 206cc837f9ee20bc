package models

// ExecutionContext carries the state of one playbook run: the snapshot it was
// started against, the triggering payload and the per-action results
// accumulated so far. Attempt counts are tracked per dispatch, not here.
type ExecutionContext struct {
	ID              string         `json:"id"`
	PlaybookID      string         `json:"playbook_id"`
	PlaybookVersion int64          `json:"playbook_version"`
	TriggerPayload  map[string]any `json:"trigger_payload,omitempty"`
	ActionResults   map[string]any `json:"action_results,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`

	// KnowledgeBindings is the playbook-level binding snapshot, the fallback
	// for generative actions without their own knowledge list.
	KnowledgeBindings []KnowledgeBinding `json:"knowledge_bindings,omitempty"`
}

// EvaluationScope merges the trigger payload with accumulated action results
// for runtime branch evaluation. Action results win on key collision.
func (c *ExecutionContext) EvaluationScope() map[string]any {
	scope := make(map[string]any, len(c.TriggerPayload)+len(c.ActionResults))
	for k, v := range c.TriggerPayload {
		scope[k] = v
	}

	for k, v := range c.ActionResults {
		scope[k] = v
	}

	return scope
}
