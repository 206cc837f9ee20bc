// Package ai provides the executor for generative actions. The completion
// backend is opaque to the runner; it receives the prompt together with the
// ranked knowledge sources resolved for the action.
package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cadencehq/cadence/pkg/knowledge"
	"github.com/cadencehq/cadence/pkg/models"
)

// RankedSourcesKey is the result key holding the typed knowledge handles the
// action consulted. The runner lifts it into the finished event's audit trail
// instead of storing it in the action result.
const RankedSourcesKey = "ranked_sources"

// CompletionRequest is what the runner hands to the completion backend.
type CompletionRequest struct {
	Prompt      string
	Model       string
	Temperature float64

	// Sources is the ranked knowledge list, highest priority first. The
	// backend consumes them in order.
	Sources []knowledge.SourceHandle
}

// CompletionResponse carries the generated text and accounting data.
type CompletionResponse struct {
	Text       string
	TokensUsed int
}

// CompletionClient is the contract for the completion backend.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// Executor resolves knowledge sources and calls the completion backend.
type Executor struct {
	client   CompletionClient
	resolver *knowledge.Resolver
}

func NewExecutor(client CompletionClient, resolver *knowledge.Resolver) *Executor {
	return &Executor{
		client:   client,
		resolver: resolver,
	}
}

func (e *Executor) Execute(ctx context.Context, executionCtx models.ExecutionContext, action *models.Action, logger *slog.Logger) (map[string]any, error) {
	if action.AI == nil || action.AI.Prompt == "" {
		return nil, fmt.Errorf("ai action %s has no prompt", action.ID)
	}

	sources := e.resolver.ResolveForAction(action, executionCtx.KnowledgeBindings)

	logger.InfoContext(ctx, "Requesting completion",
		"action_id", action.ID,
		"model", action.AI.Model,
		"sources", len(sources),
	)

	response, err := e.client.Complete(ctx, CompletionRequest{
		Prompt:      action.AI.Prompt,
		Model:       action.AI.Model,
		Temperature: action.AI.Temperature,
		Sources:     sources,
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed for action %s: %w", action.ID, err)
	}

	sourceIDs := make([]string, 0, len(sources))
	for _, source := range sources {
		sourceIDs = append(sourceIDs, source.KnowledgeBaseID)
	}

	return map[string]any{
		"text":            response.Text,
		"tokens_used":     response.TokensUsed,
		"sources":         sourceIDs,
		RankedSourcesKey: sources,
	}, nil
}
