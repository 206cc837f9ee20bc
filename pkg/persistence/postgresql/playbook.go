package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
)

// PlaybookRepository handles playbook database operations. The structured
// parts of a playbook live in typed columns; the trigger, actions and
// knowledge bindings are stored as JSONB documents.
type PlaybookRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPlaybookRepository(db *sql.DB, logger *slog.Logger) *PlaybookRepository {
	return &PlaybookRepository{db: db, logger: logger}
}

const playbookColumns = `
	id
  , name
  , description
  , status
  , trigger_config
  , actions
  , knowledge_bindings
  , metadata
  , owner
  , version
  , created_at
  , updated_at
`

func (r *PlaybookRepository) GetAll(ctx context.Context) ([]*models.Playbook, error) {
	query := `
		SELECT ` + playbookColumns + `
		FROM playbooks
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playbooks: %w", err)
	}

	return r.collectRows(ctx, rows)
}

func (r *PlaybookRepository) List(ctx context.Context, opts persistence.ListPlaybooksOptions) (*persistence.PlaybookListResult, error) {
	all, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	return persistence.PageInMemory(all, opts)
}

func (r *PlaybookRepository) GetByID(ctx context.Context, id string) (*models.Playbook, error) {
	query := `
		SELECT ` + playbookColumns + `
		FROM playbooks
		WHERE id = $1 AND deleted_at IS NULL
	`

	playbook, err := r.scanPlaybook(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, persistence.NewPlaybookError("GetByID", id, err)
	}

	return playbook, nil
}

// Save upserts a playbook. A playbook without an id gets a fresh UUIDv7.
func (r *PlaybookRepository) Save(ctx context.Context, playbook *models.Playbook) error {
	if playbook.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewPlaybookError("Save", "", err)
		}

		playbook.ID = id.String()
	}

	triggerJSON, err := marshalNullable(playbook.Trigger)
	if err != nil {
		return persistence.NewPlaybookError("Save", playbook.ID, err)
	}

	actionsJSON, err := json.Marshal(playbook.Actions)
	if err != nil {
		return persistence.NewPlaybookError("Save", playbook.ID, err)
	}

	bindingsJSON, err := json.Marshal(playbook.KnowledgeBindings)
	if err != nil {
		return persistence.NewPlaybookError("Save", playbook.ID, err)
	}

	metadataJSON, err := marshalNullable(playbook.Metadata)
	if err != nil {
		return persistence.NewPlaybookError("Save", playbook.ID, err)
	}

	query := `
		INSERT INTO playbooks (
			id, name, description, status, trigger_config, actions,
			knowledge_bindings, metadata, owner, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			trigger_config = EXCLUDED.trigger_config,
			actions = EXCLUDED.actions,
			knowledge_bindings = EXCLUDED.knowledge_bindings,
			metadata = EXCLUDED.metadata,
			owner = EXCLUDED.owner,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`

	_, err = r.db.ExecContext(ctx, query,
		playbook.ID,
		playbook.Name,
		playbook.Description,
		string(playbook.Status),
		triggerJSON,
		actionsJSON,
		bindingsJSON,
		metadataJSON,
		playbook.Owner,
		playbook.Version,
		playbook.CreatedAt,
		playbook.UpdatedAt,
	)
	if err != nil {
		return persistence.NewPlaybookError("Save", playbook.ID, err)
	}

	return nil
}

// Delete soft deletes a playbook by setting deleted_at.
func (r *PlaybookRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE playbooks SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return persistence.NewPlaybookError("Delete", id, err)
	}

	return nil
}

// ActiveByTrigger filters on status and the trigger type inside the JSONB
// document, served by the expression index on trigger_config->>'type'.
func (r *PlaybookRepository) ActiveByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.Playbook, error) {
	query := `
		SELECT ` + playbookColumns + `
		FROM playbooks
		WHERE deleted_at IS NULL
		  AND status = $1
		  AND trigger_config->>'type' = $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, string(models.PlaybookStatusActive), string(triggerType))
	if err != nil {
		return nil, fmt.Errorf("failed to query playbooks by trigger: %w", err)
	}

	return r.collectRows(ctx, rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PlaybookRepository) collectRows(ctx context.Context, rows *sql.Rows) ([]*models.Playbook, error) {
	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	playbooks := make([]*models.Playbook, 0)

	for rows.Next() {
		playbook, err := r.scanPlaybook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playbook: %w", err)
		}

		playbooks = append(playbooks, playbook)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating playbooks: %w", err)
	}

	return playbooks, nil
}

func (r *PlaybookRepository) scanPlaybook(row rowScanner) (*models.Playbook, error) {
	var (
		playbook     models.Playbook
		status       string
		triggerJSON  []byte
		actionsJSON  []byte
		bindingsJSON []byte
		metadataJSON []byte
		owner        sql.NullString
	)

	err := row.Scan(
		&playbook.ID,
		&playbook.Name,
		&playbook.Description,
		&status,
		&triggerJSON,
		&actionsJSON,
		&bindingsJSON,
		&metadataJSON,
		&owner,
		&playbook.Version,
		&playbook.CreatedAt,
		&playbook.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	playbook.Status = models.PlaybookStatus(status)
	playbook.Owner = owner.String

	if len(triggerJSON) > 0 {
		err = json.Unmarshal(triggerJSON, &playbook.Trigger)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger config: %w", err)
		}
	}

	err = json.Unmarshal(actionsJSON, &playbook.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}

	err = json.Unmarshal(bindingsJSON, &playbook.KnowledgeBindings)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal knowledge bindings: %w", err)
	}

	if len(metadataJSON) > 0 {
		err = json.Unmarshal(metadataJSON, &playbook.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &playbook, nil
}

func marshalNullable(v any) ([]byte, error) {
	switch value := v.(type) {
	case *models.TriggerConfig:
		if value == nil {
			return nil, nil
		}
	case map[string]any:
		if value == nil {
			return nil, nil
		}
	}

	return json.Marshal(v)
}
