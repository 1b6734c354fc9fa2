package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewPgxSettingsRepository creates a new repository for world settings.
func NewPgxSettingsRepository(pool *pgxpool.Pool) ports.SettingsRepository {
	return &PgxSettingsRepository{pool: pool}
}

// GetSetting retrieves a stored setting value. userID is empty for
// world-scoped keys.
func (r *PgxSettingsRepository) GetSetting(ctx context.Context, worldID, userID, key string) (json.RawMessage, error) {
	query := `
		SELECT value
		FROM world_settings
		WHERE world_id = $1 AND user_id = $2 AND key = $3;
	`
	var value json.RawMessage
	err := r.pool.QueryRow(ctx, query, worldID, userID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting upserts a setting value for the given scope.
func (r *PgxSettingsRepository) SetSetting(ctx context.Context, worldID, userID, key string, value json.RawMessage) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO world_settings (world_id, user_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (world_id, user_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at;
	`
	_, err := r.pool.Exec(ctx, query, worldID, userID, key, value, now)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}
