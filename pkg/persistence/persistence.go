// Package persistence provides the storage abstraction for playbooks.
package persistence

import (
	"context"

	"github.com/cadencehq/cadence/pkg/models"
)

// ListPlaybooksOptions controls filtering, sorting and pagination of playbook
// listings.
type ListPlaybooksOptions struct {
	Status    *models.PlaybookStatus
	Owner     string
	Limit     int
	Offset    int
	SortBy    string // created_at, updated_at or name
	SortOrder string // asc or desc
}

// PlaybookListResult is one page of a playbook listing.
type PlaybookListResult struct {
	Playbooks   []*models.Playbook
	TotalCount  int64
	HasNextPage bool
}

type Persistence interface {
	Playbooks(ctx context.Context) ([]*models.Playbook, error)
	ListPlaybooks(ctx context.Context, opts ListPlaybooksOptions) (*PlaybookListResult, error)
	PlaybookByID(ctx context.Context, id string) (*models.Playbook, error)
	SavePlaybook(ctx context.Context, playbook *models.Playbook) error
	DeletePlaybook(ctx context.Context, id string) error

	// ActivePlaybooksByTrigger returns the active playbooks whose trigger
	// category equals triggerType. Used by the activator on every inbound
	// source event.
	ActivePlaybooksByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.Playbook, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
