// Package httprequest provides the executor for webhook actions.
package httprequest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cadencehq/cadence/pkg/models"
)

const defaultTimeout = 30 * time.Second

// Executor performs the outbound HTTP call configured on a webhook action.
type Executor struct {
	client *http.Client
}

func NewExecutor(config map[string]any) (*Executor, error) {
	timeout := defaultTimeout
	if seconds, ok := config["timeout"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &Executor{
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (e *Executor) Execute(ctx context.Context, executionCtx models.ExecutionContext, action *models.Action, logger *slog.Logger) (map[string]any, error) {
	if action.Integration == nil {
		return nil, fmt.Errorf("webhook action %s has no integration config", action.ID)
	}

	integration := action.Integration

	method := strings.ToUpper(integration.Method)
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	if integration.Body != "" {
		body = strings.NewReader(integration.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, integration.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for action %s: %w", action.ID, err)
	}

	for key, value := range integration.Headers {
		req.Header.Set(key, value)
	}

	if req.Header.Get("Content-Type") == "" && integration.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.InfoContext(ctx, "Calling webhook",
		"action_id", action.ID,
		"url", integration.URL,
		"method", method,
	)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook call failed for action %s: %w", action.ID, err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook response for action %s: %w", action.ID, err)
	}

	result := map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(responseBody),
	}

	var parsed any
	if json.Unmarshal(responseBody, &parsed) == nil {
		result["json"] = parsed
	}

	if resp.StatusCode >= 400 {
		return result, fmt.Errorf("webhook for action %s returned status %d", action.ID, resp.StatusCode)
	}

	return result, nil
}
