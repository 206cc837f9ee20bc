package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/models"
)

func leadTrigger() *models.TriggerConfig {
	return &models.TriggerConfig{
		Type: models.TriggerLeadCreated,
		Name: "New lead",
	}
}

func validPlaybook() *models.Playbook {
	return &models.Playbook{
		ID:      "pb-1",
		Name:    "Follow up",
		Status:  models.PlaybookStatusDraft,
		Trigger: leadTrigger(),
		Actions: []*models.Action{
			{ID: "welcome", Type: models.ActionSendEmail, Content: "hi", Next: []string{"size-check"}},
			{
				ID:   "size-check",
				Type: models.ActionBranch,
				Branch: &models.BranchConfig{
					Condition: models.Rule{Field: "company_size", Operator: models.OperatorGreaterThan, Value: 500},
					Yes:       []string{"enterprise"},
					No:        []string{"done"},
				},
			},
			{ID: "enterprise", Type: models.ActionAIGenerate, AI: &models.AIConfig{Prompt: "draft note"}, Next: []string{"done"}},
			{ID: "done", Type: models.ActionEnd},
		},
		KnowledgeBindings: []models.KnowledgeBinding{{KnowledgeBaseID: "kb-1", Priority: 5}},
	}
}

func TestValidate_CleanPlaybook(t *testing.T) {
	assert.Empty(t, Validate(validPlaybook()))
}

func TestValidate_DuplicateID(t *testing.T) {
	playbook := validPlaybook()
	playbook.Actions = append(playbook.Actions, &models.Action{ID: "welcome", Type: models.ActionEnd})

	issues := Validate(playbook)
	require.Len(t, issues, 1)
	assert.Equal(t, models.CodeDuplicateID, issues[0].Code)
	assert.Equal(t, "welcome", issues[0].NodeID)
}

func TestValidate_DanglingReference(t *testing.T) {
	playbook := validPlaybook()
	playbook.Actions[2].Next = []string{"ghost"}

	issues := Validate(playbook)
	require.Len(t, issues, 1)
	assert.Equal(t, models.CodeDanglingReference, issues[0].Code)
	assert.Equal(t, "enterprise", issues[0].NodeID)
}

// A→B, branch B yes:[C] no:[D], C→B is a back-edge: one CYCLE_DETECTED
// report naming B.
func TestValidate_CycleThroughBranch(t *testing.T) {
	playbook := &models.Playbook{
		ID:      "pb-cycle",
		Name:    "Cyclic",
		Trigger: leadTrigger(),
		Actions: []*models.Action{
			{ID: "A", Type: models.ActionSendEmail, Content: "x", Next: []string{"B"}},
			{
				ID:   "B",
				Type: models.ActionBranch,
				Branch: &models.BranchConfig{
					Condition: models.Rule{Field: "email", Operator: models.OperatorExists},
					Yes:       []string{"C"},
					No:        []string{"D"},
				},
			},
			{ID: "C", Type: models.ActionSendEmail, Content: "y", Next: []string{"B"}},
			{ID: "D", Type: models.ActionEnd},
		},
	}

	issues := Validate(playbook)
	require.Len(t, issues, 1)
	assert.Equal(t, models.CodeCycleDetected, issues[0].Code)
	assert.Equal(t, "B", issues[0].NodeID)
}

// Two branches converging on the same downstream action is legal.
func TestValidate_ReconvergenceIsNotACycle(t *testing.T) {
	playbook := &models.Playbook{
		ID:      "pb-merge",
		Name:    "Reconverging",
		Trigger: leadTrigger(),
		Actions: []*models.Action{
			{
				ID:   "b1",
				Type: models.ActionBranch,
				Branch: &models.BranchConfig{
					Condition: models.Rule{Field: "email", Operator: models.OperatorExists},
					Yes:       []string{"b2"},
					No:        []string{"shared"},
				},
			},
			{
				ID:   "b2",
				Type: models.ActionBranch,
				Branch: &models.BranchConfig{
					Condition: models.Rule{Field: "source", Operator: models.OperatorEquals, Value: "referral"},
					Yes:       []string{"shared"},
					No:        []string{"done"},
				},
			},
			{ID: "shared", Type: models.ActionSendEmail, Content: "x", Next: []string{"done"}},
			{ID: "done", Type: models.ActionEnd},
		},
	}

	assert.Empty(t, Validate(playbook))
}

func TestValidate_EmptyRuleset(t *testing.T) {
	playbook := validPlaybook()
	playbook.Trigger.Conditions = &models.CombinatorRule{Mode: models.CombinatorAll, Rules: []models.Rule{}}

	issues := Validate(playbook)
	require.Len(t, issues, 1)
	assert.Equal(t, models.CodeEmptyRuleset, issues[0].Code)
}

func TestValidate_InvalidPriorityAndDuplicateBinding(t *testing.T) {
	playbook := validPlaybook()
	playbook.KnowledgeBindings = []models.KnowledgeBinding{
		{KnowledgeBaseID: "kb-1", Priority: 5},
		{KnowledgeBaseID: "kb-1", Priority: 3},
		{KnowledgeBaseID: "kb-2", Priority: 12},
	}

	issues := Validate(playbook)
	require.Len(t, issues, 2)

	codes := []models.ValidationCode{issues[0].Code, issues[1].Code}
	assert.Contains(t, codes, models.CodeInvalidPriority)
	assert.Equal(t, issues[0].Code, issues[1].Code)
}

func TestValidate_BranchFieldNotGuaranteedByTrigger(t *testing.T) {
	playbook := validPlaybook()
	playbook.Actions[1].Branch.Condition.Field = "credit_score"

	issues := Validate(playbook)
	require.Len(t, issues, 1)
	assert.Equal(t, models.CodeMissingRequiredField, issues[0].Code)
	assert.Equal(t, "size-check", issues[0].NodeID)
}

func TestValidate_AggregatesAllIssues(t *testing.T) {
	playbook := validPlaybook()
	playbook.Actions = append(playbook.Actions,
		&models.Action{ID: "welcome", Type: models.ActionEnd},                         // duplicate
		&models.Action{ID: "broken", Type: models.ActionWebhook},                     // missing payload
		&models.Action{ID: "loose", Type: models.ActionSendSMS, Content: "x", Next: []string{"nowhere"}}, // dangling
	)

	issues := Validate(playbook)

	codes := make(map[models.ValidationCode]int)
	for _, issue := range issues {
		codes[issue.Code]++
	}

	assert.Equal(t, 1, codes[models.CodeDuplicateID])
	assert.Equal(t, 1, codes[models.CodeDanglingReference])
	assert.GreaterOrEqual(t, codes[models.CodeMissingRequiredField], 1)
}

func TestGraph_Entry(t *testing.T) {
	g := Build(validPlaybook())

	entry, ok := g.Entry()
	require.True(t, ok)
	assert.Equal(t, "welcome", entry)

	empty := Build(&models.Playbook{})
	_, ok = empty.Entry()
	assert.False(t, ok)
}
