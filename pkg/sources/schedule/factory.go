package schedule

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cadencehq/cadence/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// Create builds a schedule source from configuration. Entries arrive as the
// generic map the config layer produces and are decoded through JSON.
func (f *Factory) Create(config map[string]any, logger *slog.Logger) (protocol.Source, error) {
	raw, err := json.Marshal(config["schedules"])
	if err != nil {
		return nil, fmt.Errorf("invalid schedules config: %w", err)
	}

	var entries []Entry

	err = json.Unmarshal(raw, &entries)
	if err != nil {
		return nil, fmt.Errorf("invalid schedules config: %w", err)
	}

	source := NewSource(entries, logger)

	err = source.Validate()
	if err != nil {
		return nil, err
	}

	return source, nil
}

func (f *Factory) ID() string {
	return "schedule"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"schedules": map[string]any{
				"type":        "array",
				"description": "Cron entries to fire calendar events from",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"source_id": map[string]any{"type": "string"},
						"cron": map[string]any{
							"type":     "string",
							"examples": []string{"0 9 * * MON", "*/15 * * * *"},
						},
						"payload": map[string]any{"type": "object"},
					},
					"required": []string{"source_id", "cron"},
				},
				"minItems": 1,
			},
		},
		"required": []string{"schedules"},
	}
}

var _ protocol.SourceFactory = (*Factory)(nil)
