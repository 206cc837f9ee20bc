package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrPlaybookNotFound indicates a playbook was not found by the given identifier.
	ErrPlaybookNotFound = errors.New("playbook not found")

	// ErrPlaybookAlreadyExists indicates a playbook with the same identifier already exists.
	ErrPlaybookAlreadyExists = errors.New("playbook already exists")

	// ErrInvalidPlaybookStatus indicates an invalid playbook status was provided.
	ErrInvalidPlaybookStatus = errors.New("invalid playbook status")

	// ErrStaleVersion indicates a save raced with a newer version of the playbook.
	ErrStaleVersion = errors.New("playbook version is stale")
)

// PlaybookError wraps playbook storage errors with operation context.
type PlaybookError struct {
	Op         string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	PlaybookID string
	Err        error
	Message    string
}

func (e *PlaybookError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for playbook %s: %s (%v)", e.Op, e.PlaybookID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for playbook %s: %v", e.Op, e.PlaybookID, e.Err)
}

func (e *PlaybookError) Unwrap() error {
	return e.Err
}

func (e *PlaybookError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewPlaybookError creates a new playbook error with context.
func NewPlaybookError(op, playbookID string, err error) *PlaybookError {
	return &PlaybookError{
		Op:         op,
		PlaybookID: playbookID,
		Err:        err,
	}
}

// IsPlaybookNotFound checks if an error indicates a playbook was not found.
func IsPlaybookNotFound(err error) bool {
	return errors.Is(err, ErrPlaybookNotFound)
}

// IsStaleVersion checks if an error indicates a concurrent save conflict.
func IsStaleVersion(err error) bool {
	return errors.Is(err, ErrStaleVersion)
}
