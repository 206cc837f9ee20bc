// Package redis provides Redis-backed persistence for playbooks. Playbooks are
// stored as JSON documents keyed by id, with a set index for listings.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
)

const (
	playbookKeyPrefix = "cadence:playbook:"
	playbookIndexKey  = "cadence:playbooks"
)

// Persistence implements persistence.Persistence on top of Redis.
type Persistence struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewPersistence connects using a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{
		client: client,
		logger: logger.With("module", "redis_persistence"),
	}, nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Playbooks(ctx context.Context) ([]*models.Playbook, error) {
	ids, err := p.client.SMembers(ctx, playbookIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list playbook index: %w", err)
	}

	playbooks := make([]*models.Playbook, 0, len(ids))

	for _, id := range ids {
		playbook, err := p.PlaybookByID(ctx, id)
		if err != nil {
			return nil, err
		}

		// The index can briefly hold ids whose documents were already
		// deleted; skip them.
		if playbook != nil {
			playbooks = append(playbooks, playbook)
		}
	}

	return playbooks, nil
}

func (p *Persistence) ListPlaybooks(ctx context.Context, opts persistence.ListPlaybooksOptions) (*persistence.PlaybookListResult, error) {
	all, err := p.Playbooks(ctx)
	if err != nil {
		return nil, err
	}

	return persistence.PageInMemory(all, opts)
}

func (p *Persistence) PlaybookByID(ctx context.Context, id string) (*models.Playbook, error) {
	body, err := p.client.Get(ctx, playbookKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, persistence.NewPlaybookError("GetByID", id, err)
	}

	var playbook models.Playbook

	err = json.Unmarshal(body, &playbook)
	if err != nil {
		return nil, persistence.NewPlaybookError("GetByID", id, err)
	}

	return &playbook, nil
}

func (p *Persistence) SavePlaybook(ctx context.Context, playbook *models.Playbook) error {
	body, err := json.Marshal(playbook)
	if err != nil {
		return persistence.NewPlaybookError("Save", playbook.ID, err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, playbookKeyPrefix+playbook.ID, body, 0)
	pipe.SAdd(ctx, playbookIndexKey, playbook.ID)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return persistence.NewPlaybookError("Save", playbook.ID, err)
	}

	return nil
}

func (p *Persistence) DeletePlaybook(ctx context.Context, id string) error {
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, playbookKeyPrefix+id)
	pipe.SRem(ctx, playbookIndexKey, id)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return persistence.NewPlaybookError("Delete", id, err)
	}

	return nil
}

func (p *Persistence) ActivePlaybooksByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.Playbook, error) {
	all, err := p.Playbooks(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]*models.Playbook, 0)

	for _, playbook := range all {
		if playbook.Status != models.PlaybookStatusActive {
			continue
		}

		if playbook.Trigger == nil || playbook.Trigger.Type != triggerType {
			continue
		}

		matches = append(matches, playbook)
	}

	return matches, nil
}
