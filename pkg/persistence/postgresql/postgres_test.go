package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDB(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"playbooks", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	require.NoError(t, db.Close())
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("cadence_test"),
			postgres.WithUsername("cadence"),
			postgres.WithPassword("cadence"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDB(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDB(ctx, t, databaseURL)
		require.NoError(t, p.Close(ctx))
		cancel()
	})

	return p, ctx
}

func fullPlaybook(id string, status models.PlaybookStatus) *models.Playbook {
	now := time.Now().UTC().Truncate(time.Microsecond)

	return &models.Playbook{
		ID:          id,
		Name:        "Lead Welcome",
		Description: "Greets fresh leads and routes big accounts to sales",
		Status:      status,
		Trigger: &models.TriggerConfig{
			Type: models.TriggerLeadCreated,
			Conditions: &models.CombinatorRule{
				Mode: models.CombinatorAll,
				Rules: []models.Rule{
					{Field: "source", Operator: models.OperatorEquals, Value: "webinar"},
				},
			},
		},
		Actions: []*models.Action{
			{ID: "size-check", Type: models.ActionBranch, Branch: &models.BranchConfig{
				Condition: models.Rule{Field: "company_size", Operator: models.OperatorGreaterThan, Value: 500},
				Yes:       []string{"assign"},
				No:        []string{"welcome"},
			}},
			{ID: "assign", Type: models.ActionAssignOwner, Content: "enterprise-team"},
			{ID: "welcome", Type: models.ActionSendEmail, Content: "Thanks for joining"},
		},
		KnowledgeBindings: []models.KnowledgeBinding{
			{KnowledgeBaseID: "kb-pricing", Priority: 5},
		},
		Metadata:  map[string]any{"campaign": "q3-webinar"},
		Owner:     "growth-team",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSaveAndGetByIDRoundTrip(t *testing.T) {
	p, ctx := setupTestDB(t)

	playbook := fullPlaybook("pb-1", models.PlaybookStatusDraft)
	require.NoError(t, p.SavePlaybook(ctx, playbook))

	loaded, err := p.PlaybookByID(ctx, "pb-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, playbook.Name, loaded.Name)
	assert.Equal(t, playbook.Status, loaded.Status)
	require.NotNil(t, loaded.Trigger)
	assert.Equal(t, models.TriggerLeadCreated, loaded.Trigger.Type)
	require.Len(t, loaded.Actions, 3)
	require.NotNil(t, loaded.Actions[0].Branch)
	assert.Equal(t, []string{"assign"}, loaded.Actions[0].Branch.Yes)
	assert.Equal(t, playbook.KnowledgeBindings, loaded.KnowledgeBindings)
	assert.Equal(t, "q3-webinar", loaded.Metadata["campaign"])
}

func TestGetByIDReturnsNilForMissing(t *testing.T) {
	p, ctx := setupTestDB(t)

	loaded, err := p.PlaybookByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveUpdatesExisting(t *testing.T) {
	p, ctx := setupTestDB(t)

	playbook := fullPlaybook("pb-1", models.PlaybookStatusDraft)
	require.NoError(t, p.SavePlaybook(ctx, playbook))

	playbook.Name = "Lead Welcome v2"
	playbook.Version = 2
	playbook.UpdatedAt = time.Now().UTC()
	require.NoError(t, p.SavePlaybook(ctx, playbook))

	loaded, err := p.PlaybookByID(ctx, "pb-1")
	require.NoError(t, err)
	assert.Equal(t, "Lead Welcome v2", loaded.Name)
	assert.Equal(t, int64(2), loaded.Version)
}

func TestDeleteIsSoft(t *testing.T) {
	p, ctx := setupTestDB(t)

	require.NoError(t, p.SavePlaybook(ctx, fullPlaybook("pb-1", models.PlaybookStatusDraft)))
	require.NoError(t, p.DeletePlaybook(ctx, "pb-1"))

	loaded, err := p.PlaybookByID(ctx, "pb-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	all, err := p.Playbooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestActivePlaybooksByTrigger(t *testing.T) {
	p, ctx := setupTestDB(t)

	active := fullPlaybook("pb-active", models.PlaybookStatusActive)
	draft := fullPlaybook("pb-draft", models.PlaybookStatusDraft)
	otherTrigger := fullPlaybook("pb-other", models.PlaybookStatusActive)
	otherTrigger.Trigger.Type = models.TriggerFormSubmission

	for _, playbook := range []*models.Playbook{active, draft, otherTrigger} {
		require.NoError(t, p.SavePlaybook(ctx, playbook))
	}

	matches, err := p.ActivePlaybooksByTrigger(ctx, models.TriggerLeadCreated)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "pb-active", matches[0].ID)
}

func TestListPlaybooks(t *testing.T) {
	p, ctx := setupTestDB(t)

	for _, id := range []string{"pb-1", "pb-2", "pb-3"} {
		playbook := fullPlaybook(id, models.PlaybookStatusDraft)
		require.NoError(t, p.SavePlaybook(ctx, playbook))
	}

	result, err := p.ListPlaybooks(ctx, persistence.ListPlaybooksOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, result.Playbooks, 2)
	assert.Equal(t, int64(3), result.TotalCount)
	assert.True(t, result.HasNextPage)
}

func TestSaveGeneratesID(t *testing.T) {
	p, ctx := setupTestDB(t)

	playbook := fullPlaybook("", models.PlaybookStatusDraft)
	require.NoError(t, p.SavePlaybook(ctx, playbook))
	assert.NotEmpty(t, playbook.ID)
}

func TestHealthCheckAfterMigrations(t *testing.T) {
	p, ctx := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}
