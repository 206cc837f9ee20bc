// Package webhook hosts an HTTP listener that turns inbound POSTs into source
// events. Each configured endpoint maps a path to a source id and a trigger
// category.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cadencehq/cadence/pkg/events"
	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/protocol"
)

const (
	readTimeout        = 30 * time.Second
	writeTimeout       = 30 * time.Second
	idleTimeout        = 60 * time.Second
	shutdownTimeout    = 5 * time.Second
	maxRequestBodySize = 1 << 20
)

var ErrNoEndpoints = errors.New("webhook source requires at least one endpoint")

// Endpoint maps one URL path to a source id and trigger category.
type Endpoint struct {
	SourceID string             `json:"source_id"`
	Path     string             `json:"path"`
	Category models.TriggerType `json:"category"`
}

// Source runs the webhook HTTP server.
type Source struct {
	port      int
	endpoints []Endpoint
	logger    *slog.Logger

	mu       sync.Mutex
	server   *http.Server
	callback protocol.SourceEventCallback
	started  bool
}

func NewSource(port int, endpoints []Endpoint, logger *slog.Logger) *Source {
	return &Source{
		port:      port,
		endpoints: endpoints,
		logger:    logger.With("module", "webhook_source", "port", port),
	}
}

func (s *Source) Validate() error {
	if len(s.endpoints) == 0 {
		return ErrNoEndpoints
	}

	seen := make(map[string]bool, len(s.endpoints))

	for _, endpoint := range s.endpoints {
		if endpoint.SourceID == "" || endpoint.Path == "" {
			return fmt.Errorf("webhook endpoint %q needs both source_id and path", endpoint.Path)
		}

		if seen[endpoint.Path] {
			return fmt.Errorf("webhook path %q configured twice", endpoint.Path)
		}

		seen[endpoint.Path] = true

		if !models.KnownTriggerType(endpoint.Category) {
			return fmt.Errorf("webhook endpoint %q: unknown category %q", endpoint.Path, endpoint.Category)
		}
	}

	return nil
}

func (s *Source) Start(ctx context.Context, callback protocol.SourceEventCallback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	err := s.Validate()
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(callback),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	s.started = true
	s.logger.Info("Starting webhook source", "endpoints", len(s.endpoints))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Webhook server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()

		_ = s.Stop(context.WithoutCancel(ctx))
	}()

	return nil
}

func (s *Source) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.started = false

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Handler exposes the route set for tests and embedding.
func (s *Source) Handler(callback protocol.SourceEventCallback) http.Handler {
	s.callback = callback

	mux := http.NewServeMux()
	for _, endpoint := range s.endpoints {
		endpoint := endpoint
		mux.HandleFunc("POST "+endpoint.Path, func(w http.ResponseWriter, r *http.Request) {
			s.handle(w, r, endpoint)
		})
	}

	return mux
}

func (s *Source) handle(w http.ResponseWriter, r *http.Request, endpoint Endpoint) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)

		return
	}

	payload := map[string]any{}

	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			http.Error(w, "body must be a JSON object", http.StatusBadRequest)

			return
		}
	}

	// Webhook payloads are wrapped so conditions address a stable field.
	if endpoint.Category == models.TriggerWebhook {
		payload = map[string]any{"payload": payload}
	}

	sourceEvent := events.NewSourceEvent(endpoint.SourceID, endpoint.Category, payload)

	err = s.callback(r.Context(), sourceEvent.SourceID, sourceEvent.Category, sourceEvent.Payload)
	if err != nil {
		s.logger.Error("Failed to publish webhook event",
			"source_id", endpoint.SourceID,
			"error", err,
		)
		http.Error(w, "failed to accept event", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{"event_id": sourceEvent.ID, "status": "accepted"})
}
