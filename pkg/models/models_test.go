package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Playbook Model Tests

func TestPlaybook_Validation_ValidPlaybook(t *testing.T) {
	playbook := &Playbook{
		ID:     "pb-123",
		Name:   "Enterprise lead follow-up",
		Status: PlaybookStatusDraft,
		Trigger: &TriggerConfig{
			Type: TriggerLeadCreated,
			Name: "New enterprise lead",
		},
		Version:   1,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	validate := validator.New()
	err := validate.Struct(playbook)
	assert.NoError(t, err)
}

func TestPlaybook_Validation_NameTooShort(t *testing.T) {
	playbook := &Playbook{
		ID:     "pb-123",
		Name:   "ab",
		Status: PlaybookStatusDraft,
	}

	validate := validator.New()
	err := validate.Struct(playbook)
	require.Error(t, err)

	var validationErrors validator.ValidationErrors

	require.ErrorAs(t, err, &validationErrors)

	found := false

	for _, fieldErr := range validationErrors {
		if fieldErr.Field() == "Name" && fieldErr.Tag() == "min" {
			found = true
		}
	}

	assert.True(t, found, "expected min violation on Name")
}

func TestKnowledgeBinding_Validation_PriorityBounds(t *testing.T) {
	validate := validator.New()

	valid := KnowledgeBinding{KnowledgeBaseID: "kb-1", Priority: 5}
	assert.NoError(t, validate.Struct(valid))

	tooHigh := KnowledgeBinding{KnowledgeBaseID: "kb-1", Priority: 11}
	assert.Error(t, validate.Struct(tooHigh))

	tooLow := KnowledgeBinding{KnowledgeBaseID: "kb-1", Priority: 0}
	assert.Error(t, validate.Struct(tooLow))
}

func TestCombinatorRule_Validation_EmptyRules(t *testing.T) {
	validate := validator.New()

	rule := CombinatorRule{Mode: CombinatorAll, Rules: []Rule{}}
	assert.Error(t, validate.Struct(rule))
}

func TestPlaybook_ActionByID(t *testing.T) {
	playbook := &Playbook{
		Actions: []*Action{
			{ID: "a", Type: ActionSendEmail},
			{ID: "b", Type: ActionEnd},
		},
	}

	action, ok := playbook.ActionByID("b")
	require.True(t, ok)
	assert.Equal(t, ActionEnd, action.Type)

	_, ok = playbook.ActionByID("missing")
	assert.False(t, ok)
}

func TestPlaybook_Clone_IsDeep(t *testing.T) {
	original := &Playbook{
		ID:     "pb-1",
		Name:   "Outbound nurture",
		Status: PlaybookStatusDraft,
		Trigger: &TriggerConfig{
			Type: TriggerLeadCreated,
			Conditions: &CombinatorRule{
				Mode:  CombinatorAll,
				Rules: []Rule{{Field: "company_size", Operator: OperatorGreaterThan, Value: 500}},
			},
		},
		Actions: []*Action{
			{
				ID:   "branch-1",
				Type: ActionBranch,
				Branch: &BranchConfig{
					Condition: Rule{Field: "email", Operator: OperatorExists},
					Yes:       []string{"email-1"},
					No:        []string{"end-1"},
				},
			},
			{ID: "email-1", Type: ActionSendEmail, Content: "hello"},
			{ID: "end-1", Type: ActionEnd},
		},
		KnowledgeBindings: []KnowledgeBinding{{KnowledgeBaseID: "kb-1", Priority: 3}},
		Version:           2,
	}

	clone := original.Clone()

	clone.Trigger.Conditions.Rules[0].Field = "changed"
	clone.Actions[0].Branch.Yes[0] = "changed"
	clone.KnowledgeBindings[0].Priority = 9

	assert.Equal(t, "company_size", original.Trigger.Conditions.Rules[0].Field)
	assert.Equal(t, "email-1", original.Actions[0].Branch.Yes[0])
	assert.Equal(t, 3, original.KnowledgeBindings[0].Priority)
}

// Action Tests

func TestActionType_Category_Exhaustive(t *testing.T) {
	types := []ActionType{
		ActionSendEmail, ActionSendSMS, ActionUpdateCRM, ActionAssignOwner,
		ActionSendForm, ActionWait, ActionBranch, ActionEnd, ActionWebhook,
		ActionAIGenerate, ActionEnrich,
	}

	for _, actionType := range types {
		category, err := actionType.Category()
		require.NoError(t, err, "type %s", actionType)
		assert.NotEmpty(t, category)
	}

	_, err := ActionType("bogus").Category()
	assert.Error(t, err)
}

func TestAction_Successors_BranchUsesYesNo(t *testing.T) {
	action := &Action{
		ID:   "b",
		Type: ActionBranch,
		Next: []string{"ignored"},
		Branch: &BranchConfig{
			Condition: Rule{Field: "email", Operator: OperatorExists},
			Yes:       []string{"c"},
			No:        []string{"d"},
		},
	}

	assert.Equal(t, []string{"c", "d"}, action.Successors())
}

func TestAction_IsTerminal(t *testing.T) {
	assert.True(t, (&Action{ID: "leaf", Type: ActionSendEmail}).IsTerminal())
	assert.True(t, (&Action{ID: "end", Type: ActionEnd}).IsTerminal())
	assert.False(t, (&Action{ID: "a", Type: ActionSendEmail, Next: []string{"b"}}).IsTerminal())
}

func TestAction_ValidatePayload_PerType(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		valid  bool
	}{
		{"email with content", Action{ID: "a", Type: ActionSendEmail, Content: "hi"}, true},
		{"email without content", Action{ID: "a", Type: ActionSendEmail}, false},
		{"wait with duration", Action{ID: "a", Type: ActionWait, Wait: &WaitConfig{Duration: "48h"}}, true},
		{"wait without config", Action{ID: "a", Type: ActionWait}, false},
		{"end has no payload", Action{ID: "a", Type: ActionEnd}, true},
		{"webhook missing url", Action{ID: "a", Type: ActionWebhook, Integration: &IntegrationConfig{Method: "POST"}}, false},
		{"webhook complete", Action{ID: "a", Type: ActionWebhook, Integration: &IntegrationConfig{URL: "https://crm.example.com", Method: "POST"}}, true},
		{"ai missing prompt", Action{ID: "a", Type: ActionAIGenerate, AI: &AIConfig{Model: "m"}}, false},
		{"ai complete", Action{ID: "a", Type: ActionAIGenerate, AI: &AIConfig{Prompt: "summarize", Model: "m"}}, true},
		{"branch without config", Action{ID: "a", Type: ActionBranch}, false},
		{"branch unknown operator", Action{ID: "a", Type: ActionBranch, Branch: &BranchConfig{Condition: Rule{Field: "x", Operator: "regex"}}}, false},
		{"unknown type", Action{ID: "a", Type: "teleport"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			issues := tc.action.ValidatePayload()
			if tc.valid {
				assert.Empty(t, issues)
			} else {
				require.NotEmpty(t, issues)
				assert.Equal(t, CodeMissingRequiredField, issues[0].Code)
			}
		})
	}
}

// Trigger Tests

func TestKnownOperator(t *testing.T) {
	for _, op := range []Operator{
		OperatorEquals, OperatorContains, OperatorGreaterThan,
		OperatorLessThan, OperatorExists, OperatorNotExists,
	} {
		assert.True(t, KnownOperator(op), "operator %s", op)
	}

	assert.False(t, KnownOperator("regex"))
}

func TestTriggerType_GuaranteesField(t *testing.T) {
	assert.True(t, TriggerLeadCreated.GuaranteesField("company_size"))
	assert.False(t, TriggerLeadCreated.GuaranteesField("birthday"))
	assert.False(t, TriggerType("bogus").GuaranteesField("anything"))

	// Schedule fires carry no lead; only the fields the schedule source
	// itself injects are guaranteed.
	assert.True(t, TriggerCalendarEvent.GuaranteesField("event_id"))
	assert.True(t, TriggerCalendarEvent.GuaranteesField("starts_at"))
	assert.False(t, TriggerCalendarEvent.GuaranteesField("lead_id"))
}

// Serialization Tests

func TestPlaybook_JSONRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	original := &Playbook{
		ID:     "pb-round",
		Name:   "Round trip playbook",
		Status: PlaybookStatusActive,
		Trigger: &TriggerConfig{
			Type: TriggerFormSubmission,
			Name: "Demo request",
			Conditions: &CombinatorRule{
				Mode: CombinatorAny,
				Rules: []Rule{
					{Field: "form_id", Operator: OperatorEquals, Value: "demo"},
					{Field: "fields", Operator: OperatorExists},
				},
			},
		},
		Actions: []*Action{
			{
				ID:   "branch-1",
				Type: ActionBranch,
				Branch: &BranchConfig{
					Condition: Rule{Field: "lead_id", Operator: OperatorExists},
					Yes:       []string{"ai-1"},
					No:        []string{"end-1"},
				},
			},
			{
				ID:   "ai-1",
				Type: ActionAIGenerate,
				AI: &AIConfig{
					Prompt:         "Draft a follow-up",
					Model:          "gpt-4o",
					Temperature:    0.4,
					KnowledgeBases: []KnowledgeBinding{{KnowledgeBaseID: "kb-9", Priority: 7}},
				},
				Next: []string{"end-1"},
			},
			{ID: "end-1", Type: ActionEnd},
		},
		KnowledgeBindings: []KnowledgeBinding{
			{KnowledgeBaseID: "kb-1", Priority: 2},
			{KnowledgeBaseID: "kb-2", Priority: 5},
		},
		Version:   4,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Playbook

	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, &decoded)
}
