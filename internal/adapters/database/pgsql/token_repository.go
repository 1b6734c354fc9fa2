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

type PgxTokenRepository struct {
	pool *pgxpool.Pool
}

// NewPgxTokenRepository creates a new repository for placed tokens.
func NewPgxTokenRepository(pool *pgxpool.Pool) ports.TokenRepository {
	return &PgxTokenRepository{pool: pool}
}

// FindTokenByID retrieves a single placed token.
func (r *PgxTokenRepository) FindTokenByID(ctx context.Context, tokenID string) (*domain.Token, error) {
	query := `
		SELECT token_id, scene_id, world_id, actor_id, grid_x, grid_y, width, height, hidden,
			sight, light, detection_modes, created_at, created_by, last_updated_at, last_updated_by
		FROM tokens
		WHERE token_id = $1;
	`
	var token domain.Token
	err := r.pool.QueryRow(ctx, query, tokenID).Scan(
		&token.TokenID,
		&token.SceneID,
		&token.WorldID,
		&token.ActorID,
		&token.GridX,
		&token.GridY,
		&token.Width,
		&token.Height,
		&token.Hidden,
		&token.Sight,
		&token.Light,
		&token.DetectionModes,
		&token.CreatedAt,
		&token.CreatedBy,
		&token.LastUpdatedAt,
		&token.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find token %s: %w", tokenID, err)
	}
	return &token, nil
}

// SaveToken updates the mutable fields of a placed token.
func (r *PgxTokenRepository) SaveToken(ctx context.Context, token domain.Token) error {
	now := time.Now().UTC()
	query := `
		UPDATE tokens
		SET grid_x = $2,
			grid_y = $3,
			width = $4,
			height = $5,
			hidden = $6,
			sight = $7,
			light = $8,
			detection_modes = $9,
			last_updated_at = $10,
			last_updated_by = $11
		WHERE token_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query,
		token.TokenID,
		token.GridX,
		token.GridY,
		token.Width,
		token.Height,
		token.Hidden,
		token.Sight,
		token.Light,
		token.DetectionModes,
		now,
		token.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save token %s: %w", token.TokenID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetFlag reads one key from the token's module flag bag.
func (r *PgxTokenRepository) GetFlag(ctx context.Context, tokenID, key string) (json.RawMessage, error) {
	query := `
		SELECT flags -> $2
		FROM tokens
		WHERE token_id = $1;
	`
	var value json.RawMessage
	err := r.pool.QueryRow(ctx, query, tokenID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read flag %s on token %s: %w", key, tokenID, err)
	}
	if value == nil {
		return nil, apperrors.ErrNotFound
	}
	return value, nil
}

// SetFlag writes one key into the token's module flag bag.
func (r *PgxTokenRepository) SetFlag(ctx context.Context, tokenID, key string, value json.RawMessage) error {
	now := time.Now().UTC()
	query := `
		UPDATE tokens
		SET flags = jsonb_set(COALESCE(flags, '{}'::jsonb), ARRAY[$2], $3, true),
			last_updated_at = $4
		WHERE token_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query, tokenID, key, value, now)
	if err != nil {
		return fmt.Errorf("failed to set flag %s on token %s: %w", key, tokenID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
