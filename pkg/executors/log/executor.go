// Package log provides the executor for outbound steps that, in this system,
// resolve to structured log records: emails, SMS, CRM updates, form sends and
// enrichment calls. The actual delivery integrations live outside the runner.
package log

import (
	"context"
	"log/slog"

	"github.com/cadencehq/cadence/pkg/models"
)

// Executor logs the dispatch of one action and records the outcome in the
// run results.
type Executor struct {
	actionType models.ActionType
	level      string
}

func NewExecutor(actionType models.ActionType, config map[string]any) (*Executor, error) {
	level := "info"
	if lvl, ok := config["level"].(string); ok {
		level = lvl
	}

	return &Executor{
		actionType: actionType,
		level:      level,
	}, nil
}

func (e *Executor) Execute(ctx context.Context, executionCtx models.ExecutionContext, action *models.Action, logger *slog.Logger) (map[string]any, error) {
	log := logger.With(
		"action_id", action.ID,
		"action_type", string(action.Type),
		"playbook_id", executionCtx.PlaybookID,
	)

	attrs := []any{"content", action.Content}
	if action.Name != "" {
		attrs = append(attrs, "action_name", action.Name)
	}

	switch e.level {
	case "debug":
		log.DebugContext(ctx, "Dispatching action", attrs...)
	case "warn":
		log.WarnContext(ctx, "Dispatching action", attrs...)
	default:
		log.InfoContext(ctx, "Dispatching action", attrs...)
	}

	// Registered types always have a category; an unknown type cannot reach
	// Execute because the factory lookup rejects it first.
	category, _ := action.Type.Category()

	return map[string]any{
		"dispatched": true,
		"channel":    string(category),
		"content":    action.Content,
	}, nil
}
