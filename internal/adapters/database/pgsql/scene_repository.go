package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSceneRepository struct {
	pool *pgxpool.Pool
}

// NewPgxSceneRepository creates a new repository for scene metadata.
func NewPgxSceneRepository(pool *pgxpool.Pool) ports.SceneRepository {
	return &PgxSceneRepository{pool: pool}
}

// FindSceneByID retrieves a scene's grid metadata.
func (r *PgxSceneRepository) FindSceneByID(ctx context.Context, sceneID string) (*domain.Scene, error) {
	query := `
		SELECT scene_id, world_id, name, grid_distance, grid_units,
			created_at, created_by, last_updated_at, last_updated_by
		FROM scenes
		WHERE scene_id = $1;
	`
	var scene domain.Scene
	err := r.pool.QueryRow(ctx, query, sceneID).Scan(
		&scene.SceneID,
		&scene.WorldID,
		&scene.Name,
		&scene.GridDistance,
		&scene.GridUnits,
		&scene.CreatedAt,
		&scene.CreatedBy,
		&scene.LastUpdatedAt,
		&scene.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find scene %s: %w", sceneID, err)
	}
	return &scene, nil
}
