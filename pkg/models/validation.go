package models

// ValidationCode identifies one class of structural or configuration problem
// found before a playbook may go active.
type ValidationCode string

const (
	CodeDuplicateID          ValidationCode = "DUPLICATE_ID"
	CodeDanglingReference    ValidationCode = "DANGLING_REFERENCE"
	CodeCycleDetected        ValidationCode = "CYCLE_DETECTED"
	CodeEmptyRuleset         ValidationCode = "EMPTY_RULESET"
	CodeInvalidPriority      ValidationCode = "INVALID_PRIORITY"
	CodeMissingRequiredField ValidationCode = "MISSING_REQUIRED_FIELD"
)

// ValidationIssue is one entry of a validation report. NodeID is set when the
// issue points at a specific action.
type ValidationIssue struct {
	Code    ValidationCode `json:"code"`
	Message string         `json:"message"`
	NodeID  string         `json:"node_id,omitempty"`
}
