package log

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/models"
)

func TestExecuteRecordsDispatch(t *testing.T) {
	executor, err := NewExecutor(models.ActionSendEmail, map[string]any{})
	require.NoError(t, err)

	action := &models.Action{
		ID:      "welcome",
		Type:    models.ActionSendEmail,
		Content: "Thanks for signing up",
	}

	result, err := executor.Execute(context.Background(), models.ExecutionContext{
		ID:         "run-1",
		PlaybookID: "pb-1",
	}, action, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, true, result["dispatched"])
	assert.Equal(t, string(models.CategoryCommunication), result["channel"])
	assert.Equal(t, "Thanks for signing up", result["content"])
}

func TestFactoryServesOneActionType(t *testing.T) {
	factory := NewFactory(models.ActionUpdateCRM)

	assert.Equal(t, "crm_update", factory.ID())

	executor, err := factory.Create(map[string]any{"level": "debug"})
	require.NoError(t, err)
	assert.NotNil(t, executor)
}
