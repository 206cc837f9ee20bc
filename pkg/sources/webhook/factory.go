package webhook

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cadencehq/cadence/pkg/protocol"
)

const defaultPort = 8085

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(config map[string]any, logger *slog.Logger) (protocol.Source, error) {
	port := defaultPort
	if p, ok := config["port"].(float64); ok {
		port = int(p)
	}

	raw, err := json.Marshal(config["endpoints"])
	if err != nil {
		return nil, fmt.Errorf("invalid endpoints config: %w", err)
	}

	var endpoints []Endpoint

	err = json.Unmarshal(raw, &endpoints)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoints config: %w", err)
	}

	source := NewSource(port, endpoints, logger)

	err = source.Validate()
	if err != nil {
		return nil, err
	}

	return source, nil
}

func (f *Factory) ID() string {
	return "webhook"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"port": map[string]any{
				"type":    "integer",
				"default": defaultPort,
			},
			"endpoints": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"source_id": map[string]any{"type": "string"},
						"path":      map[string]any{"type": "string"},
						"category":  map[string]any{"type": "string"},
					},
					"required": []string{"source_id", "path", "category"},
				},
				"minItems": 1,
			},
		},
		"required": []string{"endpoints"},
	}
}

var _ protocol.SourceFactory = (*Factory)(nil)
