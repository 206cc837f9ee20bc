package redis_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/cadencehq/cadence/pkg/models"
	redispersistence "github.com/cadencehq/cadence/pkg/persistence/redis"
)

var redisContainer *tcredis.RedisContainer

func setupTestRedis(t *testing.T) (*redispersistence.Persistence, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if redisContainer == nil || !redisContainer.IsRunning() {
		var err error

		redisContainer, err = tcredis.Run(ctx, "redis:7-alpine")
		require.NoError(t, err)
	}

	redisURL, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := redispersistence.NewPersistence(ctx, logger, redisURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		playbooks, err := p.Playbooks(ctx)
		if err == nil {
			for _, playbook := range playbooks {
				_ = p.DeletePlaybook(ctx, playbook.ID)
			}
		}

		require.NoError(t, p.Close(ctx))
		cancel()
	})

	return p, ctx
}

func testPlaybook(id string, status models.PlaybookStatus, triggerType models.TriggerType) *models.Playbook {
	now := time.Now().UTC().Truncate(time.Second)

	return &models.Playbook{
		ID:     id,
		Name:   "Stage Change Routing",
		Status: status,
		Trigger: &models.TriggerConfig{
			Type: triggerType,
		},
		Actions: []*models.Action{
			{ID: "notify", Type: models.ActionSendEmail, Content: "Deal moved"},
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSaveAndGetByID(t *testing.T) {
	p, ctx := setupTestRedis(t)

	playbook := testPlaybook("pb-1", models.PlaybookStatusDraft, models.TriggerStageChange)
	require.NoError(t, p.SavePlaybook(ctx, playbook))

	loaded, err := p.PlaybookByID(ctx, "pb-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, playbook.Name, loaded.Name)
	assert.Equal(t, playbook.Trigger.Type, loaded.Trigger.Type)
}

func TestGetByIDMissing(t *testing.T) {
	p, ctx := setupTestRedis(t)

	loaded, err := p.PlaybookByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDeleteRemovesFromIndex(t *testing.T) {
	p, ctx := setupTestRedis(t)

	require.NoError(t, p.SavePlaybook(ctx, testPlaybook("pb-1", models.PlaybookStatusDraft, models.TriggerWebhook)))
	require.NoError(t, p.DeletePlaybook(ctx, "pb-1"))

	all, err := p.Playbooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestActivePlaybooksByTrigger(t *testing.T) {
	p, ctx := setupTestRedis(t)

	active := testPlaybook("pb-active", models.PlaybookStatusActive, models.TriggerSegmentEntered)
	draft := testPlaybook("pb-draft", models.PlaybookStatusDraft, models.TriggerSegmentEntered)
	other := testPlaybook("pb-other", models.PlaybookStatusActive, models.TriggerWebhook)

	for _, playbook := range []*models.Playbook{active, draft, other} {
		require.NoError(t, p.SavePlaybook(ctx, playbook))
	}

	matches, err := p.ActivePlaybooksByTrigger(ctx, models.TriggerSegmentEntered)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "pb-active", matches[0].ID)
}

func TestHealthCheck(t *testing.T) {
	p, ctx := setupTestRedis(t)

	assert.NoError(t, p.HealthCheck(ctx))
}
