package playbook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
)

// Repository is the read-side view of stored playbooks used by the activator
// and the runner. It never mutates; all writes go through the Store.
type Repository struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

func NewRepository(p persistence.Persistence, logger *slog.Logger) *Repository {
	return &Repository{
		persistence: p,
		logger:      logger.With("module", "playbook_repository"),
	}
}

// FetchAll returns every stored playbook.
func (r *Repository) FetchAll(ctx context.Context) ([]*models.Playbook, error) {
	return r.persistence.Playbooks(ctx)
}

// FetchByID returns one playbook or ErrNotFound.
func (r *Repository) FetchByID(ctx context.Context, id string) (*models.Playbook, error) {
	playbook, err := r.persistence.PlaybookByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if playbook == nil {
		return nil, fmt.Errorf("playbook %s: %w", id, ErrNotFound)
	}

	return playbook, nil
}

// FetchActiveByTrigger returns the active playbooks listening for the given
// trigger category. Drafts and archived playbooks are never matched.
func (r *Repository) FetchActiveByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.Playbook, error) {
	return r.persistence.ActivePlaybooksByTrigger(ctx, triggerType)
}

// HealthCheck reports the backing store's health as a message and a flag.
func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	err := r.persistence.HealthCheck(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Persistence health check failed", "error", err)

		return err.Error(), false
	}

	return "ok", true
}
