package log

import (
	"fmt"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/protocol"
)

// Factory creates logging executors. One factory instance serves one action
// type, so the registry can carry a separate entry per outbound channel.
type Factory struct {
	actionType models.ActionType
}

func NewFactory(actionType models.ActionType) protocol.ExecutorFactory {
	return &Factory{actionType: actionType}
}

func (f *Factory) Create(config map[string]any) (protocol.Executor, error) {
	return NewExecutor(f.actionType, config)
}

func (f *Factory) ID() string {
	return string(f.actionType)
}

func (f *Factory) Name() string {
	return "Log dispatch"
}

func (f *Factory) Description() string {
	return fmt.Sprintf("Records the dispatch of a '%s' action as a structured log entry", f.actionType)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"level": map[string]any{
				"type":        "string",
				"description": "Log level for dispatch records",
				"enum":        []string{"debug", "info", "warn"},
				"default":     "info",
			},
		},
	}
}
