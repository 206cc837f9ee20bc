// Package knowledge resolves prioritized knowledge-base bindings into the
// ranked source list handed to the retrieval collaborator of AI actions.
package knowledge

import (
	"log/slog"
	"sort"

	"github.com/cadencehq/cadence/pkg/models"
)

// Priority bounds. The editor's increment/decrement controls clamp to the
// same range; the resolver re-clamps so a hand-edited import cannot smuggle
// values past it.
const (
	MinPriority = 1
	MaxPriority = 10
)

// SourceHandle is one resolved, ranked knowledge source. The id is opaque to
// this model; the retrieval protocol belongs to the external collaborator.
type SourceHandle struct {
	KnowledgeBaseID string `json:"knowledge_base_id"`
	Priority        int    `json:"priority"`
	Rank            int    `json:"rank"` // 1-based resolution order
}

// Resolver turns binding sets into deterministic ranked source lists.
// Duplicate bindings and out-of-range priorities are configuration anomalies:
// validation rejects them at the store boundary, but the resolver corrects
// rather than crashes when handed them, logging for caller visibility.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil logger disables anomaly logging.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{logger: logger.With("module", "knowledge_resolver")}
}

// Resolve orders bindings by priority descending, insertion order ascending
// for equal priorities. The sort is stable, so repeated resolution of
// unchanged bindings yields an identical list.
func (r *Resolver) Resolve(bindings []models.KnowledgeBinding) []SourceHandle {
	type entry struct {
		id       string
		priority int
		position int // first-insertion position, the tie-breaker
	}

	index := make(map[string]int)

	var entries []entry

	for _, binding := range bindings {
		priority := clamp(binding.Priority)
		if priority != binding.Priority {
			r.logger.Warn("knowledge binding priority clamped",
				"knowledge_base_id", binding.KnowledgeBaseID,
				"priority", binding.Priority,
				"clamped", priority)
		}

		if pos, seen := index[binding.KnowledgeBaseID]; seen {
			// Last write wins for priority; the binding keeps its original slot.
			r.logger.Warn("duplicate knowledge binding, keeping last priority",
				"knowledge_base_id", binding.KnowledgeBaseID,
				"priority", priority)

			entries[pos].priority = priority

			continue
		}

		index[binding.KnowledgeBaseID] = len(entries)
		entries = append(entries, entry{id: binding.KnowledgeBaseID, priority: priority, position: len(entries)})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}

		return entries[i].position < entries[j].position
	})

	handles := make([]SourceHandle, len(entries))
	for i, e := range entries {
		handles[i] = SourceHandle{KnowledgeBaseID: e.id, Priority: e.priority, Rank: i + 1}
	}

	return handles
}

// ResolveForAction resolves an AI action's own knowledge override when
// present, falling back to the playbook-level bindings otherwise.
func (r *Resolver) ResolveForAction(action *models.Action, playbookBindings []models.KnowledgeBinding) []SourceHandle {
	if action != nil && action.AI != nil && len(action.AI.KnowledgeBases) > 0 {
		return r.Resolve(action.AI.KnowledgeBases)
	}

	return r.Resolve(playbookBindings)
}

func clamp(priority int) int {
	if priority < MinPriority {
		return MinPriority
	}

	if priority > MaxPriority {
		return MaxPriority
	}

	return priority
}
