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

type PgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgxUserRepository creates a new repository for world members.
func NewPgxUserRepository(pool *pgxpool.Pool) ports.UserRepository {
	return &PgxUserRepository{pool: pool}
}

const userColumns = `user_id, world_id, name, is_gm, join_secret_hash, created_at, created_by, last_updated_at, last_updated_by`

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.UserID,
		&user.WorldID,
		&user.Name,
		&user.IsGM,
		&user.JoinSecretHash,
		&user.CreatedAt,
		&user.CreatedBy,
		&user.LastUpdatedAt,
		&user.LastUpdatedBy,
	)
	return user, err
}

// FindUserByID retrieves a world member.
func (r *PgxUserRepository) FindUserByID(ctx context.Context, worldID, userID string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE world_id = $1 AND user_id = $2;
	`
	user, err := scanUser(r.pool.QueryRow(ctx, query, worldID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	return &user, nil
}

// ListUsersByWorld retrieves every member of a world.
func (r *PgxUserRepository) ListUsersByWorld(ctx context.Context, worldID string) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE world_id = $1
		ORDER BY name;
	`
	rows, err := r.pool.Query(ctx, query, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users for world %s: %w", worldID, err)
	}
	defer rows.Close()

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.User, error) {
		return scanUser(row)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.User{}, nil
		}
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	return users, nil
}
