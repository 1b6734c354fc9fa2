package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxActorRepository struct {
	pool *pgxpool.Pool
}

// NewPgxActorRepository creates a new repository for actor documents.
func NewPgxActorRepository(pool *pgxpool.Pool) ports.ActorRepository {
	return &PgxActorRepository{pool: pool}
}

const actorColumns = `actor_id, world_id, name, kind, ownership, attributes, created_at, created_by, last_updated_at, last_updated_by`

func scanActor(row pgx.Row) (domain.Actor, error) {
	var actor domain.Actor
	err := row.Scan(
		&actor.ActorID,
		&actor.WorldID,
		&actor.Name,
		&actor.Kind,
		&actor.Ownership,
		&actor.Attributes,
		&actor.CreatedAt,
		&actor.CreatedBy,
		&actor.LastUpdatedAt,
		&actor.LastUpdatedBy,
	)
	return actor, err
}

// FindActorByID retrieves a single actor.
func (r *PgxActorRepository) FindActorByID(ctx context.Context, actorID string) (*domain.Actor, error) {
	query := `
		SELECT ` + actorColumns + `
		FROM actors
		WHERE actor_id = $1;
	`
	actor, err := scanActor(r.pool.QueryRow(ctx, query, actorID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find actor %s: %w", actorID, err)
	}
	return &actor, nil
}

// ListActorsByWorld retrieves every actor of a world, named characters first.
func (r *PgxActorRepository) ListActorsByWorld(ctx context.Context, worldID string) ([]domain.Actor, error) {
	query := `
		SELECT ` + actorColumns + `
		FROM actors
		WHERE world_id = $1
		ORDER BY kind, name;
	`
	rows, err := r.pool.Query(ctx, query, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to query actors for world %s: %w", worldID, err)
	}
	defer rows.Close()

	actors, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Actor, error) {
		return scanActor(row)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Actor{}, nil
		}
		return nil, fmt.Errorf("failed to scan actors: %w", err)
	}
	return actors, nil
}

// SetAttribute writes a single top-level attribute on the actor sheet.
func (r *PgxActorRepository) SetAttribute(ctx context.Context, actorID, key string, value json.RawMessage) error {
	now := time.Now().UTC()
	query := `
		UPDATE actors
		SET attributes = jsonb_set(COALESCE(attributes, '{}'::jsonb), ARRAY[$2], $3, true),
			last_updated_at = $4
		WHERE actor_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query, actorID, key, value, now)
	if err != nil {
		return fmt.Errorf("failed to set attribute %s on actor %s: %w", key, actorID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetFlag reads one key from the actor's module flag bag.
func (r *PgxActorRepository) GetFlag(ctx context.Context, actorID, key string) (json.RawMessage, error) {
	query := `
		SELECT flags -> $2
		FROM actors
		WHERE actor_id = $1;
	`
	var value json.RawMessage
	err := r.pool.QueryRow(ctx, query, actorID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read flag %s on actor %s: %w", key, actorID, err)
	}
	if value == nil {
		return nil, apperrors.ErrNotFound
	}
	return value, nil
}

// SetFlag writes one key into the actor's module flag bag.
func (r *PgxActorRepository) SetFlag(ctx context.Context, actorID, key string, value json.RawMessage) error {
	now := time.Now().UTC()
	query := `
		UPDATE actors
		SET flags = jsonb_set(COALESCE(flags, '{}'::jsonb), ARRAY[$2], $3, true),
			last_updated_at = $4
		WHERE actor_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query, actorID, key, value, now)
	if err != nil {
		return fmt.Errorf("failed to set flag %s on actor %s: %w", key, actorID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
