package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
)

// PlaybookRepository handles playbook file operations. A single mutex
// serializes writers; file persistence targets local development, not
// multi-process deployments.
type PlaybookRepository struct {
	root string
	mu   sync.Mutex
}

func NewPlaybookRepository(root string) *PlaybookRepository {
	return &PlaybookRepository{root: root}
}

func (pr *PlaybookRepository) dir() string {
	return path.Join(pr.root, "playbooks")
}

// GetAll loads every playbook under the root directory.
func (pr *PlaybookRepository) GetAll(ctx context.Context) ([]*models.Playbook, error) {
	if _, err := os.Stat(pr.dir()); os.IsNotExist(err) {
		return make([]*models.Playbook, 0), nil
	}

	jsonFiles, err := fs.Glob(os.DirFS(pr.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list playbook files: %w", err)
	}

	playbooks := make([]*models.Playbook, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		playbook, err := pr.GetByID(ctx, strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		if playbook != nil {
			playbooks = append(playbooks, playbook)
		}
	}

	return playbooks, nil
}

// List returns paginated, filtered playbooks with in-memory sorting.
func (pr *PlaybookRepository) List(ctx context.Context, opts persistence.ListPlaybooksOptions) (*persistence.PlaybookListResult, error) {
	all, err := pr.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	return persistence.PageInMemory(all, opts)
}

// GetByID retrieves a playbook by its ID. Returns nil without error when the
// playbook does not exist, matching the behavior of the other drivers.
func (pr *PlaybookRepository) GetByID(_ context.Context, id string) (*models.Playbook, error) {
	filePath := filepath.Clean(path.Join(pr.dir(), id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, persistence.NewPlaybookError("GetByID", id, err)
	}

	var playbook models.Playbook

	err = json.Unmarshal(body, &playbook)
	if err != nil {
		return nil, persistence.NewPlaybookError("GetByID", id, err)
	}

	return &playbook, nil
}

// Save writes a playbook as an indented JSON document.
func (pr *PlaybookRepository) Save(_ context.Context, playbook *models.Playbook) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	err := os.MkdirAll(pr.dir(), 0750)
	if err != nil {
		return persistence.NewPlaybookError("Save", playbook.ID, err)
	}

	data, err := json.MarshalIndent(playbook, "", "  ")
	if err != nil {
		return persistence.NewPlaybookError("Save", playbook.ID, err)
	}

	filePath := path.Join(pr.dir(), playbook.ID+".json")

	err = os.WriteFile(filePath, data, 0600)
	if err != nil {
		return persistence.NewPlaybookError("Save", playbook.ID, err)
	}

	return nil
}

// Delete removes a playbook by its ID. Deleting an absent playbook is a no-op.
func (pr *PlaybookRepository) Delete(_ context.Context, id string) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	err := os.Remove(path.Join(pr.dir(), id+".json"))
	if err != nil && !os.IsNotExist(err) {
		return persistence.NewPlaybookError("Delete", id, err)
	}

	return nil
}

// ActiveByTrigger returns active playbooks whose trigger category matches.
func (pr *PlaybookRepository) ActiveByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.Playbook, error) {
	all, err := pr.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]*models.Playbook, 0)

	for _, playbook := range all {
		if playbook.Status != models.PlaybookStatusActive {
			continue
		}

		if playbook.Trigger == nil || playbook.Trigger.Type != triggerType {
			continue
		}

		matches = append(matches, playbook)
	}

	return matches, nil
}
