// Package playbook implements the authoring store and the run-time services
// built on top of it: trigger matching and playbook execution.
package playbook

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cadencehq/cadence/pkg/models"
)

var (
	ErrPlaybookNil     = errors.New("playbook cannot be nil")
	ErrNotFound        = errors.New("playbook not found")
	ErrActionNotFound  = errors.New("action not found")
	ErrBindingNotFound = errors.New("knowledge binding not found")

	// ErrArchived guards the terminal state: nothing mutates an archived
	// playbook.
	ErrArchived = errors.New("archived playbooks cannot be modified")

	ErrAlreadyActive     = errors.New("playbook is already active")
	ErrArchiveOnly       = errors.New("active playbooks can only be archived")
	ErrActivateFromDraft = errors.New("only draft playbooks can be activated")
)

// StateError reports a forbidden status transition or a mutation attempted in
// the wrong state.
type StateError struct {
	Op         string
	PlaybookID string
	Status     models.PlaybookStatus
	Err        error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s rejected for playbook %s in status %s: %v", e.Op, e.PlaybookID, e.Status, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// ValidationError carries the aggregated issue report of a rejected mutation.
type ValidationError struct {
	Op         string
	PlaybookID string
	Issues     []models.ValidationIssue
}

func (e *ValidationError) Error() string {
	codes := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		codes = append(codes, string(issue.Code))
	}

	return fmt.Sprintf("%s rejected for playbook %s: %s", e.Op, e.PlaybookID, strings.Join(codes, ", "))
}

// IsStateError checks whether err is a forbidden-state rejection.
func IsStateError(err error) bool {
	var stateErr *StateError

	return errors.As(err, &stateErr)
}

// IsValidationError checks whether err carries a validation issue report.
func IsValidationError(err error) bool {
	var validationErr *ValidationError

	return errors.As(err, &validationErr)
}

// IssuesFrom extracts the issue report from a validation error, if any.
func IssuesFrom(err error) ([]models.ValidationIssue, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Issues, true
	}

	return nil, false
}

// IsNotFound checks whether err indicates a missing playbook or sub-resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrActionNotFound) ||
		errors.Is(err, ErrBindingNotFound)
}
