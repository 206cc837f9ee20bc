package playbook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cadencehq/cadence/pkg/graph"
	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
)

// Store owns every playbook mutation. Mutations are all-or-nothing: the
// stored playbook is cloned, the change is applied to the clone, the clone is
// checked, and only then does it replace the stored version with a bumped
// version number. A failed mutation leaves the stored playbook untouched.
type Store struct {
	persistence persistence.Persistence
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewStore(p persistence.Persistence, logger *slog.Logger) *Store {
	return &Store{
		persistence: p,
		validate:    validator.New(),
		logger:      logger.With("module", "playbook_store"),
	}
}

// Create persists a new playbook. Playbooks are born as drafts regardless of
// the status on the input; drafts may carry unfinished graphs, but duplicate
// action ids are rejected even here.
func (s *Store) Create(ctx context.Context, playbook *models.Playbook) (*models.Playbook, error) {
	if playbook == nil {
		return nil, ErrPlaybookNil
	}

	draft := playbook.Clone()

	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}

	draft.Status = models.PlaybookStatusDraft
	draft.Version = 1

	now := time.Now().UTC()
	draft.CreatedAt = now
	draft.UpdatedAt = now

	err := s.validate.Struct(draft)
	if err != nil {
		return nil, s.structIssues("Create", draft.ID, err)
	}

	if issues := duplicateIssues(draft); len(issues) > 0 {
		return nil, &ValidationError{Op: "Create", PlaybookID: draft.ID, Issues: issues}
	}

	err = s.persistence.SavePlaybook(ctx, draft)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Created playbook", "playbook_id", draft.ID, "name", draft.Name)

	return draft, nil
}

// Get returns a playbook by id.
func (s *Store) Get(ctx context.Context, id string) (*models.Playbook, error) {
	playbook, err := s.persistence.PlaybookByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if playbook == nil {
		return nil, fmt.Errorf("playbook %s: %w", id, ErrNotFound)
	}

	return playbook, nil
}

// List returns a page of playbooks.
func (s *Store) List(ctx context.Context, opts persistence.ListPlaybooksOptions) (*persistence.PlaybookListResult, error) {
	return s.persistence.ListPlaybooks(ctx, opts)
}

// Delete removes a playbook entirely.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	return s.persistence.DeletePlaybook(ctx, id)
}

// Validate returns the full issue report for a playbook without mutating it.
// An empty report means the playbook could be activated as-is.
func (s *Store) Validate(ctx context.Context, id string) ([]models.ValidationIssue, error) {
	playbook, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return graph.Validate(playbook), nil
}

// UpdateDetails changes name, description and metadata.
func (s *Store) UpdateDetails(ctx context.Context, id, name, description string, metadata map[string]any) (*models.Playbook, error) {
	return s.mutate(ctx, "UpdateDetails", id, func(p *models.Playbook) error {
		if name != "" {
			p.Name = name
		}

		p.Description = description

		if metadata != nil {
			p.Metadata = metadata
		}

		return s.validate.Struct(p)
	})
}

// SetTrigger replaces the trigger configuration.
func (s *Store) SetTrigger(ctx context.Context, id string, trigger *models.TriggerConfig) (*models.Playbook, error) {
	return s.mutate(ctx, "SetTrigger", id, func(p *models.Playbook) error {
		p.Trigger = trigger.Clone()

		return nil
	})
}

// AddAction appends an action. A duplicate action id is rejected whatever the
// playbook's status.
func (s *Store) AddAction(ctx context.Context, id string, action *models.Action) (*models.Playbook, error) {
	return s.mutate(ctx, "AddAction", id, func(p *models.Playbook) error {
		if action == nil || action.ID == "" {
			return fmt.Errorf("action id is required: %w", ErrActionNotFound)
		}

		if _, exists := p.ActionByID(action.ID); exists {
			return &ValidationError{
				Op:         "AddAction",
				PlaybookID: id,
				Issues: []models.ValidationIssue{{
					Code:    models.CodeDuplicateID,
					Message: fmt.Sprintf("action id %q already exists", action.ID),
					NodeID:  action.ID,
				}},
			}
		}

		p.Actions = append(p.Actions, action.Clone())

		return nil
	})
}

// UpdateAction replaces an existing action in place.
func (s *Store) UpdateAction(ctx context.Context, id string, action *models.Action) (*models.Playbook, error) {
	return s.mutate(ctx, "UpdateAction", id, func(p *models.Playbook) error {
		for i, existing := range p.Actions {
			if existing.ID == action.ID {
				p.Actions[i] = action.Clone()

				return nil
			}
		}

		return fmt.Errorf("action %s: %w", action.ID, ErrActionNotFound)
	})
}

// RemoveAction deletes an action and scrubs every reference to it from the
// remaining actions, so removal never leaves dangling edges behind.
func (s *Store) RemoveAction(ctx context.Context, id, actionID string) (*models.Playbook, error) {
	return s.mutate(ctx, "RemoveAction", id, func(p *models.Playbook) error {
		index := -1

		for i, action := range p.Actions {
			if action.ID == actionID {
				index = i

				break
			}
		}

		if index < 0 {
			return fmt.Errorf("action %s: %w", actionID, ErrActionNotFound)
		}

		p.Actions = append(p.Actions[:index], p.Actions[index+1:]...)

		for _, action := range p.Actions {
			action.Next = scrub(action.Next, actionID)

			if action.Branch != nil {
				action.Branch.Yes = scrub(action.Branch.Yes, actionID)
				action.Branch.No = scrub(action.Branch.No, actionID)
			}
		}

		return nil
	})
}

// BindKnowledgeBase attaches a knowledge base, or updates its priority when
// already bound. The clamp to the valid range happens at resolve time; the
// store rejects out-of-range priorities outright.
func (s *Store) BindKnowledgeBase(ctx context.Context, id string, binding models.KnowledgeBinding) (*models.Playbook, error) {
	return s.mutate(ctx, "BindKnowledgeBase", id, func(p *models.Playbook) error {
		if issues := priorityIssues(id, binding); len(issues) > 0 {
			return &ValidationError{Op: "BindKnowledgeBase", PlaybookID: id, Issues: issues}
		}

		for i, existing := range p.KnowledgeBindings {
			if existing.KnowledgeBaseID == binding.KnowledgeBaseID {
				p.KnowledgeBindings[i].Priority = binding.Priority

				return nil
			}
		}

		p.KnowledgeBindings = append(p.KnowledgeBindings, binding)

		return nil
	})
}

// UnbindKnowledgeBase detaches a knowledge base.
func (s *Store) UnbindKnowledgeBase(ctx context.Context, id, knowledgeBaseID string) (*models.Playbook, error) {
	return s.mutate(ctx, "UnbindKnowledgeBase", id, func(p *models.Playbook) error {
		for i, existing := range p.KnowledgeBindings {
			if existing.KnowledgeBaseID == knowledgeBaseID {
				p.KnowledgeBindings = append(p.KnowledgeBindings[:i], p.KnowledgeBindings[i+1:]...)

				return nil
			}
		}

		return fmt.Errorf("knowledge base %s: %w", knowledgeBaseID, ErrBindingNotFound)
	})
}

// ReprioritizeKnowledgeBase changes the priority of an existing binding.
func (s *Store) ReprioritizeKnowledgeBase(ctx context.Context, id, knowledgeBaseID string, priority int) (*models.Playbook, error) {
	return s.mutate(ctx, "ReprioritizeKnowledgeBase", id, func(p *models.Playbook) error {
		binding := models.KnowledgeBinding{KnowledgeBaseID: knowledgeBaseID, Priority: priority}
		if issues := priorityIssues(id, binding); len(issues) > 0 {
			return &ValidationError{Op: "ReprioritizeKnowledgeBase", PlaybookID: id, Issues: issues}
		}

		for i, existing := range p.KnowledgeBindings {
			if existing.KnowledgeBaseID == knowledgeBaseID {
				p.KnowledgeBindings[i].Priority = priority

				return nil
			}
		}

		return fmt.Errorf("knowledge base %s: %w", knowledgeBaseID, ErrBindingNotFound)
	})
}

// Activate promotes a draft to active. Activation requires a clean validation
// report; the playbook starts matching live events the moment it is stored.
func (s *Store) Activate(ctx context.Context, id string) (*models.Playbook, error) {
	return s.mutate(ctx, "Activate", id, func(p *models.Playbook) error {
		switch p.Status {
		case models.PlaybookStatusActive:
			return &StateError{Op: "Activate", PlaybookID: id, Status: p.Status, Err: ErrAlreadyActive}
		case models.PlaybookStatusDraft:
			p.Status = models.PlaybookStatusActive

			return nil
		default:
			return &StateError{Op: "Activate", PlaybookID: id, Status: p.Status, Err: ErrActivateFromDraft}
		}
	})
}

// Archive retires a playbook. The transition is terminal and legal from both
// draft and active.
func (s *Store) Archive(ctx context.Context, id string) (*models.Playbook, error) {
	return s.mutate(ctx, "Archive", id, func(p *models.Playbook) error {
		p.Status = models.PlaybookStatusArchived

		return nil
	})
}

// Revert moves an active playbook back toward editing. The direct
// active-to-draft transition is forbidden; callers clone into a new draft
// instead.
func (s *Store) Revert(ctx context.Context, id string) (*models.Playbook, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return nil, &StateError{Op: "Revert", PlaybookID: id, Status: current.Status, Err: ErrArchiveOnly}
}

// CloneAsDraft copies a playbook into a fresh draft with a new id, the
// supported path for editing an active playbook's graph.
func (s *Store) CloneAsDraft(ctx context.Context, id string) (*models.Playbook, error) {
	source, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	draft := source.Clone()
	draft.ID = ""
	draft.Name = source.Name + " (draft)"

	return s.Create(ctx, draft)
}

func (s *Store) mutate(ctx context.Context, op, id string, fn func(p *models.Playbook) error) (*models.Playbook, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.Status == models.PlaybookStatusArchived {
		return nil, &StateError{Op: op, PlaybookID: id, Status: current.Status, Err: ErrArchived}
	}

	draft := current.Clone()

	err = fn(draft)
	if err != nil {
		return nil, err
	}

	// An active playbook must stay clean through every mutation.
	if draft.Status == models.PlaybookStatusActive {
		if issues := graph.Validate(draft); len(issues) > 0 {
			return nil, &ValidationError{Op: op, PlaybookID: id, Issues: issues}
		}
	}

	draft.Version = current.Version + 1
	draft.UpdatedAt = time.Now().UTC()

	err = s.persistence.SavePlaybook(ctx, draft)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Mutated playbook",
		"op", op,
		"playbook_id", id,
		"version", draft.Version,
	)

	return draft, nil
}

func (s *Store) structIssues(op, id string, err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	issues := make([]models.ValidationIssue, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		issues = append(issues, models.ValidationIssue{
			Code:    models.CodeMissingRequiredField,
			Message: fmt.Sprintf("field %s failed on %q", fieldError.Field(), fieldError.Tag()),
		})
	}

	return &ValidationError{Op: op, PlaybookID: id, Issues: issues}
}

func duplicateIssues(playbook *models.Playbook) []models.ValidationIssue {
	seen := make(map[string]bool, len(playbook.Actions))

	var issues []models.ValidationIssue

	for _, action := range playbook.Actions {
		if seen[action.ID] {
			issues = append(issues, models.ValidationIssue{
				Code:    models.CodeDuplicateID,
				Message: fmt.Sprintf("action id %q declared more than once", action.ID),
				NodeID:  action.ID,
			})
		}

		seen[action.ID] = true
	}

	return issues
}

func priorityIssues(playbookID string, binding models.KnowledgeBinding) []models.ValidationIssue {
	if binding.Priority >= 1 && binding.Priority <= 10 {
		return nil
	}

	return []models.ValidationIssue{{
		Code:    models.CodeInvalidPriority,
		Message: fmt.Sprintf("priority %d for knowledge base %q is outside [1,10]", binding.Priority, binding.KnowledgeBaseID),
	}}
}

func scrub(ids []string, target string) []string {
	if ids == nil {
		return nil
	}

	kept := ids[:0]

	for _, id := range ids {
		if id != target {
			kept = append(kept, id)
		}
	}

	return kept
}
