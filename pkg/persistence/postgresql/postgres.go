// Package postgresql provides PostgreSQL persistence for playbooks.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db           *sql.DB
	logger       *slog.Logger
	playbookRepo *PlaybookRepository
}

// NewPersistence opens a connection, runs pending migrations and returns a
// ready persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:           database,
		logger:       logger,
		playbookRepo: NewPlaybookRepository(database, logger),
	}, nil
}

func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Playbooks(ctx context.Context) ([]*models.Playbook, error) {
	return p.playbookRepo.GetAll(ctx)
}

func (p *Persistence) ListPlaybooks(ctx context.Context, opts persistence.ListPlaybooksOptions) (*persistence.PlaybookListResult, error) {
	return p.playbookRepo.List(ctx, opts)
}

func (p *Persistence) PlaybookByID(ctx context.Context, id string) (*models.Playbook, error) {
	return p.playbookRepo.GetByID(ctx, id)
}

func (p *Persistence) SavePlaybook(ctx context.Context, playbook *models.Playbook) error {
	return p.playbookRepo.Save(ctx, playbook)
}

func (p *Persistence) DeletePlaybook(ctx context.Context, id string) error {
	return p.playbookRepo.Delete(ctx, id)
}

func (p *Persistence) ActivePlaybooksByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.Playbook, error) {
	return p.playbookRepo.ActiveByTrigger(ctx, triggerType)
}
