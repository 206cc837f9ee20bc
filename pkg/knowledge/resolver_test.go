package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/models"
)

func ids(handles []SourceHandle) []string {
	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = h.KnowledgeBaseID
	}

	return out
}

func TestResolve_PriorityDescendingInsertionOrderTieBreak(t *testing.T) {
	resolver := NewResolver(nil)

	bindings := []models.KnowledgeBinding{
		{KnowledgeBaseID: "kb1", Priority: 2},
		{KnowledgeBaseID: "kb2", Priority: 5},
		{KnowledgeBaseID: "kb3", Priority: 5},
	}

	handles := resolver.Resolve(bindings)
	assert.Equal(t, []string{"kb2", "kb3", "kb1"}, ids(handles))
}

func TestResolve_RanksAreOneBasedAndSequential(t *testing.T) {
	resolver := NewResolver(nil)

	handles := resolver.Resolve([]models.KnowledgeBinding{
		{KnowledgeBaseID: "a", Priority: 9},
		{KnowledgeBaseID: "b", Priority: 1},
	})

	require.Len(t, handles, 2)
	assert.Equal(t, 1, handles[0].Rank)
	assert.Equal(t, 2, handles[1].Rank)
}

func TestResolve_ClampsPriorityToBounds(t *testing.T) {
	resolver := NewResolver(nil)

	handles := resolver.Resolve([]models.KnowledgeBinding{
		{KnowledgeBaseID: "low", Priority: -3},
		{KnowledgeBaseID: "high", Priority: 42},
	})

	require.Len(t, handles, 2)
	assert.Equal(t, "high", handles[0].KnowledgeBaseID)
	assert.Equal(t, MaxPriority, handles[0].Priority)
	assert.Equal(t, MinPriority, handles[1].Priority)
}

func TestResolve_DuplicatesLastWriteWins(t *testing.T) {
	resolver := NewResolver(nil)

	handles := resolver.Resolve([]models.KnowledgeBinding{
		{KnowledgeBaseID: "kb1", Priority: 8},
		{KnowledgeBaseID: "kb2", Priority: 5},
		{KnowledgeBaseID: "kb1", Priority: 2}, // demotes kb1
	})

	require.Len(t, handles, 2)
	assert.Equal(t, []string{"kb2", "kb1"}, ids(handles))
	assert.Equal(t, 2, handles[1].Priority)
}

func TestResolve_IsIdempotent(t *testing.T) {
	resolver := NewResolver(nil)

	bindings := []models.KnowledgeBinding{
		{KnowledgeBaseID: "kb1", Priority: 4},
		{KnowledgeBaseID: "kb2", Priority: 4},
		{KnowledgeBaseID: "kb3", Priority: 7},
	}

	first := resolver.Resolve(bindings)
	for range 5 {
		assert.Equal(t, first, resolver.Resolve(bindings))
	}
}

func TestResolve_EmptyBindings(t *testing.T) {
	resolver := NewResolver(nil)

	assert.Empty(t, resolver.Resolve(nil))
	assert.Empty(t, resolver.Resolve([]models.KnowledgeBinding{}))
}

func TestResolveForAction_OverrideAndFallback(t *testing.T) {
	resolver := NewResolver(nil)

	playbookBindings := []models.KnowledgeBinding{{KnowledgeBaseID: "global", Priority: 5}}

	withOverride := &models.Action{
		ID:   "ai-1",
		Type: models.ActionAIGenerate,
		AI: &models.AIConfig{
			Prompt:         "p",
			KnowledgeBases: []models.KnowledgeBinding{{KnowledgeBaseID: "local", Priority: 3}},
		},
	}

	handles := resolver.ResolveForAction(withOverride, playbookBindings)
	assert.Equal(t, []string{"local"}, ids(handles))

	withoutOverride := &models.Action{
		ID:   "ai-2",
		Type: models.ActionAIGenerate,
		AI:   &models.AIConfig{Prompt: "p"},
	}

	handles = resolver.ResolveForAction(withoutOverride, playbookBindings)
	assert.Equal(t, []string{"global"}, ids(handles))
}
