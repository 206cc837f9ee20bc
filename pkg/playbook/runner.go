package playbook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/cadencehq/cadence/pkg/condition"
	"github.com/cadencehq/cadence/pkg/eventbus"
	"github.com/cadencehq/cadence/pkg/events"
	"github.com/cadencehq/cadence/pkg/executors/ai"
	"github.com/cadencehq/cadence/pkg/graph"
	"github.com/cadencehq/cadence/pkg/knowledge"
	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/otelhelper"
	"github.com/cadencehq/cadence/pkg/registry"
)

const defaultMaxAttempts = 3

// Runner executes one playbook run per PlaybookTriggered event. Each run walks
// a cloned snapshot of the playbook, so concurrent edits to the stored
// playbook never change a run already in flight.
type Runner struct {
	repository  *Repository
	registry    *registry.Registry
	eventBus    eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
	maxAttempts int
}

func NewRunner(repository *Repository, reg *registry.Registry, bus eventbus.EventPublisher, logger *slog.Logger) *Runner {
	return &Runner{
		repository:  repository,
		registry:    reg,
		eventBus:    bus,
		logger:      logger.With("module", "playbook_runner"),
		tracer:      noop.NewTracerProvider().Tracer("playbook_runner"),
		maxAttempts: defaultMaxAttempts,
	}
}

// SetMaxAttempts overrides the per-action retry budget.
func (r *Runner) SetMaxAttempts(n int) {
	if n > 0 {
		r.maxAttempts = n
	}
}

// SetTracer replaces the no-op tracer installed by NewRunner.
func (r *Runner) SetTracer(tracer trace.Tracer) {
	if tracer != nil {
		r.tracer = tracer
	}
}

// HandleTriggered is wired as the event bus handler for PlaybookTriggered.
func (r *Runner) HandleTriggered(ctx context.Context, event any) error {
	triggered, ok := event.(*events.PlaybookTriggered)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	_, err := r.Run(ctx, triggered)

	return err
}

// Run executes a full playbook walk and returns the accumulated execution
// context. Action failures are retried up to the attempt budget; a final
// failure stops the run and fails it as a whole.
func (r *Runner) Run(ctx context.Context, triggered *events.PlaybookTriggered) (*models.ExecutionContext, error) {
	playbook, err := r.repository.FetchByID(ctx, triggered.PlaybookID)
	if err != nil {
		return nil, err
	}

	if playbook.Status != models.PlaybookStatusActive {
		r.logger.WarnContext(ctx, "Skipping run for inactive playbook",
			"playbook_id", playbook.ID,
			"status", playbook.Status,
		)

		return nil, nil
	}

	snapshot := playbook.Clone()

	execCtx := &models.ExecutionContext{
		ID:                uuid.New().String(),
		PlaybookID:        snapshot.ID,
		PlaybookVersion:   snapshot.Version,
		TriggerPayload:    triggered.Payload,
		ActionResults:     make(map[string]any),
		KnowledgeBindings: snapshot.KnowledgeBindings,
	}

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "runner.run",
		attribute.String(otelhelper.PlaybookIDKey, snapshot.ID),
		attribute.Int64(otelhelper.PlaybookVersionKey, snapshot.Version),
		attribute.String(otelhelper.TriggerTypeKey, string(triggered.TriggerType)),
		attribute.String(otelhelper.RunIDKey, execCtx.ID),
	)
	defer span.End()

	started := time.Now()

	r.logger.InfoContext(ctx, "Starting playbook run",
		"run_id", execCtx.ID,
		"playbook_id", snapshot.ID,
		"playbook_version", snapshot.Version,
	)

	err = r.walk(ctx, snapshot, execCtx)
	if err != nil {
		otelhelper.SetError(span, err)

		r.publish(ctx, snapshot.ID, events.PlaybookFailed{
			BaseEvent: events.NewBaseEvent(events.PlaybookFailedEvent, snapshot.ID),
			RunID:     execCtx.ID,
			Error:     err.Error(),
			Duration:  time.Since(started),
		})

		return execCtx, err
	}

	r.publish(ctx, snapshot.ID, events.PlaybookFinished{
		BaseEvent: events.NewBaseEvent(events.PlaybookFinishedEvent, snapshot.ID),
		RunID:     execCtx.ID,
		Duration:  time.Since(started),
	})

	r.logger.InfoContext(ctx, "Playbook run finished",
		"run_id", execCtx.ID,
		"playbook_id", snapshot.ID,
		"duration", time.Since(started),
	)

	return execCtx, nil
}

func (r *Runner) walk(ctx context.Context, snapshot *models.Playbook, execCtx *models.ExecutionContext) error {
	g := graph.Build(snapshot)

	entry, ok := g.Entry()
	if !ok {
		return fmt.Errorf("playbook %s has no entry action", snapshot.ID)
	}

	walker, err := graph.NewWalker(g, entry)
	if err != nil {
		return err
	}

	for {
		dispatch, more, err := walker.Next(ctx)
		if err != nil {
			return err
		}

		if !more {
			return nil
		}

		action := dispatch.Action

		r.publish(ctx, snapshot.ID, events.ActionDispatched{
			BaseEvent: events.NewBaseEvent(events.ActionDispatchedEvent, snapshot.ID),
			RunID:     execCtx.ID,
			ActionID:  action.ID,
			Kind:      action.Type,
			Attempt:   dispatch.Attempt,
		})

		switch action.Type {
		case models.ActionBranch:
			outcome := condition.Evaluate(action.Branch.Condition, execCtx.EvaluationScope())

			err = walker.ResolveBranch(outcome)
			if err != nil {
				return err
			}

			execCtx.ActionResults[action.ID] = map[string]any{"outcome": outcome}

			r.publish(ctx, snapshot.ID, events.ActionFinished{
				BaseEvent: events.NewBaseEvent(events.ActionFinishedEvent, snapshot.ID),
				RunID:     execCtx.ID,
				ActionID:  action.ID,
				Result:    map[string]any{"outcome": outcome},
			})
		case models.ActionEnd:
			execCtx.ActionResults[action.ID] = map[string]any{"ended": true}

			r.publish(ctx, snapshot.ID, events.ActionFinished{
				BaseEvent: events.NewBaseEvent(events.ActionFinishedEvent, snapshot.ID),
				RunID:     execCtx.ID,
				ActionID:  action.ID,
				Result:    map[string]any{"ended": true},
			})
		default:
			err = r.execute(ctx, snapshot, execCtx, walker, dispatch)
			if err != nil {
				return err
			}
		}
	}
}

// execute runs one non-flow-control action through its registered executor.
// Transient failures are requeued through the walker until the attempt budget
// is exhausted.
func (r *Runner) execute(ctx context.Context, snapshot *models.Playbook, execCtx *models.ExecutionContext, walker *graph.Walker, dispatch *graph.Dispatch) error {
	action := dispatch.Action

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "runner.action",
		attribute.String(otelhelper.RunIDKey, execCtx.ID),
		attribute.String(otelhelper.ActionIDKey, action.ID),
		attribute.String(otelhelper.ActionTypeKey, string(action.Type)),
		attribute.Int(otelhelper.AttemptKey, dispatch.Attempt),
	)
	defer span.End()

	executor, err := r.registry.CreateExecutor(string(action.Type), nil)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("action %s: %w", action.ID, err)
	}

	result, err := executor.Execute(ctx, *execCtx, action, r.logger)
	if err != nil {
		if dispatch.Attempt < r.maxAttempts {
			r.logger.WarnContext(ctx, "Action failed, retrying",
				"run_id", execCtx.ID,
				"action_id", action.ID,
				"attempt", dispatch.Attempt,
				"error", err,
			)

			walker.Retry(dispatch)

			return nil
		}

		otelhelper.SetError(span, err)

		r.publish(ctx, snapshot.ID, events.ActionFailed{
			BaseEvent: events.NewBaseEvent(events.ActionFailedEvent, snapshot.ID),
			RunID:     execCtx.ID,
			ActionID:  action.ID,
			Attempt:   dispatch.Attempt,
			Error:     err.Error(),
		})

		return fmt.Errorf("action %s failed after %d attempts: %w", action.ID, dispatch.Attempt, err)
	}

	finished := events.ActionFinished{
		BaseEvent: events.NewBaseEvent(events.ActionFinishedEvent, snapshot.ID),
		RunID:     execCtx.ID,
		ActionID:  action.ID,
	}

	// Generative actions report the knowledge they consulted; that audit
	// trail belongs on the event, not in the result map later actions see.
	if handles, ok := result[ai.RankedSourcesKey].([]knowledge.SourceHandle); ok {
		finished.Sources = handles

		delete(result, ai.RankedSourcesKey)
	}

	execCtx.ActionResults[action.ID] = result
	finished.Result = result

	r.publish(ctx, snapshot.ID, finished)

	return nil
}

// publish is best-effort: a run never fails because telemetry could not be
// delivered.
func (r *Runner) publish(ctx context.Context, key string, event eventbus.Event) {
	if r.eventBus == nil {
		return
	}

	err := r.eventBus.Publish(ctx, key, event)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish run event",
			"event_type", event.GetType(),
			"error", err,
		)
	}
}
