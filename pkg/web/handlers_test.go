package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/events"
	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence/file"
	"github.com/cadencehq/cadence/pkg/playbook"
	"github.com/cadencehq/cadence/pkg/registry"
	"github.com/cadencehq/cadence/pkg/web"
)

type capturingSourcePublisher struct {
	mu     sync.Mutex
	events []*events.SourceEvent
}

func (p *capturingSourcePublisher) PublishSourceEvent(_ context.Context, sourceEvent *events.SourceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, sourceEvent)

	return nil
}

type testAPI struct {
	app          *fiber.App
	store        *playbook.Store
	sourceEvents *capturingSourcePublisher
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	logger := slog.Default()
	p := file.NewPersistence(t.TempDir())
	store := playbook.NewStore(p, logger)
	repository := playbook.NewRepository(p, logger)

	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultExecutors(nil)

	sourceEvents := &capturingSourcePublisher{}

	handlers := web.NewAPIHandlers(
		store,
		repository,
		reg,
		validator.New(validator.WithRequiredStructEnabled()),
		nil,
		sourceEvents,
	)

	app := fiber.New()
	web.RegisterRoutes(app, handlers)

	return &testAPI{app: app, store: store, sourceEvents: sourceEvents}
}

func (a *testAPI) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	defer resp.Body.Close()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (a *testAPI) createPlaybook(t *testing.T) models.Playbook {
	t.Helper()

	resp := a.request(t, http.MethodPost, "/playbooks", map[string]any{
		"name": "Inbound lead follow-up",
		"trigger": map[string]any{
			"type": "lead_created",
		},
		"actions": []map[string]any{
			{"id": "welcome", "type": "send_email", "content": "Welcome", "next": []string{"done"}},
			{"id": "done", "type": "end"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Playbook

	decodeBody(t, resp, &created)

	return created
}

func TestCreatePlaybook(t *testing.T) {
	api := newTestAPI(t)

	created := api.createPlaybook(t)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.PlaybookStatusDraft, created.Status)
	assert.Equal(t, int64(1), created.Version)
}

func TestCreatePlaybookRejectsShortName(t *testing.T) {
	api := newTestAPI(t)

	resp := api.request(t, http.MethodPost, "/playbooks", map[string]any{"name": "ab"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetPlaybookNotFound(t *testing.T) {
	api := newTestAPI(t)

	resp := api.request(t, http.MethodGet, "/playbooks/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListPlaybooksPagination(t *testing.T) {
	api := newTestAPI(t)

	api.createPlaybook(t)
	api.createPlaybook(t)

	resp := api.request(t, http.MethodGet, "/playbooks/?limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Playbooks   []models.Playbook `json:"playbooks"`
		TotalCount  int64             `json:"total_count"`
		HasNextPage bool              `json:"has_next_page"`
	}

	decodeBody(t, resp, &body)
	assert.Len(t, body.Playbooks, 1)
	assert.Equal(t, int64(2), body.TotalCount)
	assert.True(t, body.HasNextPage)
}

func TestListPlaybooksRejectsNegativeOffset(t *testing.T) {
	api := newTestAPI(t)

	api.createPlaybook(t)

	resp := api.request(t, http.MethodGet, "/playbooks/?offset=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddDuplicateActionReturnsIssueReport(t *testing.T) {
	api := newTestAPI(t)
	created := api.createPlaybook(t)

	resp := api.request(t, http.MethodPost, "/playbooks/"+created.ID+"/actions", map[string]any{
		"id":   "welcome",
		"type": "end",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Status int                      `json:"status"`
		Type   string                   `json:"type"`
		Issues []models.ValidationIssue `json:"issues"`
	}

	decodeBody(t, resp, &body)
	assert.Equal(t, http.StatusUnprocessableEntity, body.Status)
	assert.Equal(t, "validation_failed", body.Type)
	require.NotEmpty(t, body.Issues)
	assert.Equal(t, models.CodeDuplicateID, body.Issues[0].Code)
}

func TestActivateRejectsDanglingReference(t *testing.T) {
	api := newTestAPI(t)
	created := api.createPlaybook(t)

	resp := api.request(t, http.MethodPost, "/playbooks/"+created.ID+"/actions", map[string]any{
		"id":      "orphan-link",
		"type":    "send_sms",
		"content": "hi",
		"next":    []string{"ghost"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = api.request(t, http.MethodPost, "/playbooks/"+created.ID+"/activate", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestLifecycleEndpoints(t *testing.T) {
	api := newTestAPI(t)
	created := api.createPlaybook(t)

	resp := api.request(t, http.MethodPost, "/playbooks/"+created.ID+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var active models.Playbook

	decodeBody(t, resp, &active)
	assert.Equal(t, models.PlaybookStatusActive, active.Status)

	// Double activation conflicts.
	resp = api.request(t, http.MethodPost, "/playbooks/"+created.ID+"/activate", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = api.request(t, http.MethodPost, "/playbooks/"+created.ID+"/archive", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Archived playbooks reject every mutation.
	resp = api.request(t, http.MethodPatch, "/playbooks/"+created.ID, map[string]any{
		"name": "renamed after archive",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestClonePlaybookEndpoint(t *testing.T) {
	api := newTestAPI(t)
	created := api.createPlaybook(t)

	resp := api.request(t, http.MethodPost, "/playbooks/"+created.ID+"/clone", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var clone models.Playbook

	decodeBody(t, resp, &clone)
	assert.NotEqual(t, created.ID, clone.ID)
	assert.Equal(t, models.PlaybookStatusDraft, clone.Status)
}

func TestAddActionRejectsUnknownType(t *testing.T) {
	api := newTestAPI(t)

	created := api.createPlaybook(t)

	resp := api.request(t, http.MethodPost, "/playbooks/"+created.ID+"/actions", map[string]any{
		"id":   "teleport-1",
		"type": "teleport",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportImportRoundTrip(t *testing.T) {
	api := newTestAPI(t)

	created := api.createPlaybook(t)

	resp := api.request(t, http.MethodGet, "/playbooks/"+created.ID+"/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), created.ID)

	var exported models.Playbook

	decodeBody(t, resp, &exported)
	require.Equal(t, created.ID, exported.ID)

	resp = api.request(t, http.MethodPost, "/playbooks/import", exported)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var imported models.Playbook

	decodeBody(t, resp, &imported)

	assert.NotEqual(t, created.ID, imported.ID)
	assert.Equal(t, models.PlaybookStatusDraft, imported.Status)
	assert.Equal(t, int64(1), imported.Version)
	assert.Equal(t, created.Name, imported.Name)
	require.Len(t, imported.Actions, len(created.Actions))
	assert.Equal(t, created.Actions[0].ID, imported.Actions[0].ID)
	require.NotNil(t, imported.Trigger)
	assert.Equal(t, created.Trigger.Type, imported.Trigger.Type)
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	api := newTestAPI(t)

	resp := api.request(t, http.MethodPost, "/playbooks/import", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestKnowledgeBaseEndpoints(t *testing.T) {
	api := newTestAPI(t)
	created := api.createPlaybook(t)

	resp := api.request(t, http.MethodPost, "/playbooks/"+created.ID+"/knowledge-bases", map[string]any{
		"knowledge_base_id": "kb-pricing",
		"priority":          7,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = api.request(t, http.MethodPatch, "/playbooks/"+created.ID+"/knowledge-bases/kb-pricing", map[string]any{
		"priority": 11,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = api.request(t, http.MethodDelete, "/playbooks/"+created.ID+"/knowledge-bases/kb-pricing", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.request(t, http.MethodDelete, "/playbooks/"+created.ID+"/knowledge-bases/kb-pricing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSetTriggerRejectsUnknownType(t *testing.T) {
	api := newTestAPI(t)
	created := api.createPlaybook(t)

	resp := api.request(t, http.MethodPut, "/playbooks/"+created.ID+"/trigger", map[string]any{
		"type": "carrier_pigeon",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidationReportEndpoint(t *testing.T) {
	api := newTestAPI(t)
	created := api.createPlaybook(t)

	resp := api.request(t, http.MethodGet, "/playbooks/"+created.ID+"/validation", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report web.ValidationReportResponse

	decodeBody(t, resp, &report)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Issues)
}

func TestSimulateEventEndpoint(t *testing.T) {
	api := newTestAPI(t)

	resp := api.request(t, http.MethodPost, "/events/simulate", map[string]any{
		"source_id": "manual-test",
		"category":  "lead_created",
		"payload":   map[string]any{"source": "web"},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Len(t, api.sourceEvents.events, 1)
	assert.Equal(t, models.TriggerLeadCreated, api.sourceEvents.events[0].Category)
}

func TestSimulateEventRejectsUnknownCategory(t *testing.T) {
	api := newTestAPI(t)

	resp := api.request(t, http.MethodPost, "/events/simulate", map[string]any{
		"source_id": "manual-test",
		"category":  "carrier_pigeon",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, api.sourceEvents.events)
}

func TestGetExecutorsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	resp := api.request(t, http.MethodGet, "/executors", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var executors []web.ExecutorResponse

	decodeBody(t, resp, &executors)
	require.NotEmpty(t, executors)

	types := make([]string, 0, len(executors))
	for _, executor := range executors {
		types = append(types, executor.Type)
	}

	assert.Contains(t, types, "send_email")
	assert.Contains(t, types, "webhook")
	assert.Contains(t, types, "ai_generate")
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)

	resp := api.request(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
