// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"log/slog"

	"github.com/cadencehq/cadence/pkg/executors/ai"
	"github.com/cadencehq/cadence/pkg/registry"
)

// NewRegistry builds the executor registry with every built-in executor
// registered. The completion client may be nil on deployments without a
// generative backend.
func NewRegistry(log *slog.Logger, completionClient ai.CompletionClient) *registry.Registry {
	reg := registry.NewRegistry(log)
	reg.RegisterDefaultExecutors(completionClient)

	return reg
}
