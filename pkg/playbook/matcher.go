package playbook

import (
	"context"
	"log/slog"

	"github.com/cadencehq/cadence/pkg/condition"
	"github.com/cadencehq/cadence/pkg/models"
)

// Matcher decides which active playbooks an inbound event activates. It holds
// no state of its own; matching is a pure function of the trigger
// configuration and the event payload.
type Matcher struct {
	repository *Repository
	logger     *slog.Logger
}

func NewMatcher(repository *Repository, logger *slog.Logger) *Matcher {
	return &Matcher{
		repository: repository,
		logger:     logger.With("module", "playbook_matcher"),
	}
}

// Match returns every active playbook whose trigger accepts the event. The
// candidate set is pre-filtered by trigger category at the store, so only
// condition evaluation happens here.
func (m *Matcher) Match(ctx context.Context, category models.TriggerType, payload map[string]any) ([]*models.Playbook, error) {
	candidates, err := m.repository.FetchActiveByTrigger(ctx, category)
	if err != nil {
		return nil, err
	}

	var matched []*models.Playbook

	for _, candidate := range candidates {
		if condition.Matches(candidate.Trigger, category, payload) {
			matched = append(matched, candidate)
		}
	}

	m.logger.DebugContext(ctx, "Matched playbooks for event",
		"category", category,
		"candidates", len(candidates),
		"matched", len(matched),
	)

	return matched, nil
}
