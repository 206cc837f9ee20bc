// Package file provides file-based persistence for playbooks. Each playbook is
// stored as one JSON document under <root>/playbooks/.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of the file system.
type Persistence struct {
	root         string
	playbookRepo *PlaybookRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// Accepts both plain paths and file:// URLs.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		playbookRepo: NewPlaybookRepository(cleanRoot),
	}
}

func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Playbooks(ctx context.Context) ([]*models.Playbook, error) {
	return fp.playbookRepo.GetAll(ctx)
}

func (fp *Persistence) ListPlaybooks(ctx context.Context, opts persistence.ListPlaybooksOptions) (*persistence.PlaybookListResult, error) {
	return fp.playbookRepo.List(ctx, opts)
}

func (fp *Persistence) PlaybookByID(ctx context.Context, id string) (*models.Playbook, error) {
	return fp.playbookRepo.GetByID(ctx, id)
}

func (fp *Persistence) SavePlaybook(ctx context.Context, playbook *models.Playbook) error {
	return fp.playbookRepo.Save(ctx, playbook)
}

func (fp *Persistence) DeletePlaybook(ctx context.Context, id string) error {
	return fp.playbookRepo.Delete(ctx, id)
}

func (fp *Persistence) ActivePlaybooksByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.Playbook, error) {
	return fp.playbookRepo.ActiveByTrigger(ctx, triggerType)
}
