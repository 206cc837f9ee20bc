package ai

import (
	"errors"

	"github.com/cadencehq/cadence/pkg/knowledge"
	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/protocol"
)

// Factory creates AI executors bound to one completion backend.
type Factory struct {
	client   CompletionClient
	resolver *knowledge.Resolver
}

func NewFactory(client CompletionClient, resolver *knowledge.Resolver) protocol.ExecutorFactory {
	return &Factory{client: client, resolver: resolver}
}

func (f *Factory) Create(config map[string]any) (protocol.Executor, error) {
	if f.client == nil {
		return nil, errors.New("ai executor requires a completion client")
	}

	return NewExecutor(f.client, f.resolver), nil
}

func (f *Factory) ID() string {
	return string(models.ActionAIGenerate)
}

func (f *Factory) Name() string {
	return "AI generate"
}

func (f *Factory) Description() string {
	return "Generates content through the completion backend using the action's ranked knowledge sources"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}
