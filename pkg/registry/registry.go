// Package registry maps action types to executor factories.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/cadencehq/cadence/pkg/protocol"
)

type Registry struct {
	logger            *slog.Logger
	executorFactories map[string]protocol.ExecutorFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:            log,
		executorFactories: make(map[string]protocol.ExecutorFactory),
	}
}

func (r *Registry) RegisterExecutor(factory protocol.ExecutorFactory) {
	r.executorFactories[factory.ID()] = factory
}

// CreateExecutor validates the config against the factory schema and builds
// the executor.
func (r *Registry) CreateExecutor(actionType string, config map[string]any) (protocol.Executor, error) {
	factory, ok := r.executorFactories[actionType]
	if !ok {
		return nil, &ConfigurationError{ActionType: actionType, Err: ErrExecutorNotRegistered}
	}

	err := r.ValidateConfig(actionType, config)
	if err != nil {
		return nil, err
	}

	executor, err := factory.Create(config)
	if err != nil {
		return nil, &ConfigurationError{ActionType: actionType, Err: err}
	}

	return executor, nil
}

// ValidateConfig checks an executor configuration against its JSON schema.
func (r *Registry) ValidateConfig(actionType string, config map[string]any) error {
	factory, ok := r.executorFactories[actionType]
	if !ok {
		return &ConfigurationError{ActionType: actionType, Err: ErrExecutorNotRegistered}
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(factory.Schema())
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate config for '%s': %w", actionType, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			messages = append(messages, resultError.String())
		}

		return &ConfigurationError{
			ActionType: actionType,
			Err:        fmt.Errorf("invalid config: %s", strings.Join(messages, "; ")),
		}
	}

	return nil
}

// IsExecutorRegistered reports whether an action type has a factory.
func (r *Registry) IsExecutorRegistered(actionType string) bool {
	_, exists := r.executorFactories[actionType]

	return exists
}

// AvailableExecutors returns the registered action types in sorted order.
func (r *Registry) AvailableExecutors() []string {
	types := make([]string, 0, len(r.executorFactories))
	for actionType := range r.executorFactories {
		types = append(types, actionType)
	}

	sort.Strings(types)

	return types
}

// ExecutorSchema returns the JSON schema for an action type.
func (r *Registry) ExecutorSchema(actionType string) (map[string]any, error) {
	factory, ok := r.executorFactories[actionType]
	if !ok {
		return nil, &ConfigurationError{ActionType: actionType, Err: ErrExecutorNotRegistered}
	}

	return factory.Schema(), nil
}
