// Package protocol defines the contracts between the runner, the registry and
// the action executors.
package protocol

import (
	"context"
	"log/slog"

	"github.com/cadencehq/cadence/pkg/models"
)

// Executor performs one action kind. Implementations are stateless with
// respect to individual runs; per-run data arrives through the execution
// context.
type Executor interface {
	Execute(ctx context.Context, executionCtx models.ExecutionContext, action *models.Action, logger *slog.Logger) (map[string]any, error)
}

// ExecutorFactory creates Executor instances for one action type.
type ExecutorFactory interface {
	// Create instantiates an executor with the given configuration. The
	// config map is validated against Schema() before this is called.
	Create(config map[string]any) (Executor, error)

	// ID returns the action type this factory serves.
	ID() string

	// Name returns a human-readable name for this executor.
	Name() string

	// Description explains what the executor does.
	Description() string

	// Schema returns a JSON Schema describing the executor configuration.
	Schema() map[string]any
}
