// Package wait provides the executor for delay actions.
package wait

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/protocol"
)

// Executor pauses a run for the duration configured on the action. The wait
// honors context cancellation.
type Executor struct {
	// maxDuration caps waits so a typo like "48000h" cannot park a runner
	// worker forever.
	maxDuration time.Duration
}

func NewExecutor(config map[string]any) (*Executor, error) {
	maxDuration := 30 * 24 * time.Hour
	if raw, ok := config["max_duration"].(string); ok {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid max_duration: %w", err)
		}

		maxDuration = parsed
	}

	return &Executor{maxDuration: maxDuration}, nil
}

func (e *Executor) Execute(ctx context.Context, executionCtx models.ExecutionContext, action *models.Action, logger *slog.Logger) (map[string]any, error) {
	if action.Wait == nil || action.Wait.Duration == "" {
		return nil, fmt.Errorf("wait action %s has no duration", action.ID)
	}

	duration, err := time.ParseDuration(action.Wait.Duration)
	if err != nil {
		return nil, fmt.Errorf("invalid duration on action %s: %w", action.ID, err)
	}

	if duration < 0 {
		return nil, fmt.Errorf("negative duration on action %s", action.ID)
	}

	if duration > e.maxDuration {
		return nil, fmt.Errorf("duration on action %s exceeds maximum %s", action.ID, e.maxDuration)
	}

	logger.InfoContext(ctx, "Waiting", "action_id", action.ID, "duration", duration.String())

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return map[string]any{
		"waited": duration.String(),
	}, nil
}

type Factory struct{}

func NewFactory() protocol.ExecutorFactory {
	return &Factory{}
}

func (f *Factory) Create(config map[string]any) (protocol.Executor, error) {
	return NewExecutor(config)
}

func (f *Factory) ID() string {
	return string(models.ActionWait)
}

func (f *Factory) Name() string {
	return "Wait"
}

func (f *Factory) Description() string {
	return "Pauses a run for the configured duration"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"max_duration": map[string]any{
				"type":        "string",
				"description": "Upper bound for a single wait, as a Go duration string",
				"default":     "720h",
			},
		},
	}
}
