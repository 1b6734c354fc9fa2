package ports

import (
	"context"
	"encoding/json"

	"github.com/calderis/companion_backend/internal/core/domain"
)

// SettingsRepository persists setting values scoped by world and, for
// client-scoped keys, by user. userID is empty for world scope. Unset keys
// surface apperrors.ErrNotFound.
type SettingsRepository interface {
	GetSetting(ctx context.Context, worldID, userID, key string) (json.RawMessage, error)
	SetSetting(ctx context.Context, worldID, userID, key string, value json.RawMessage) error
}

// ActorRepository persists actor documents and their module flag bag.
type ActorRepository interface {
	FindActorByID(ctx context.Context, actorID string) (*domain.Actor, error)
	ListActorsByWorld(ctx context.Context, worldID string) ([]domain.Actor, error)
	SetAttribute(ctx context.Context, actorID, key string, value json.RawMessage) error

	// GetFlag returns apperrors.ErrNotFound for unset keys.
	GetFlag(ctx context.Context, actorID, key string) (json.RawMessage, error)
	SetFlag(ctx context.Context, actorID, key string, value json.RawMessage) error
}

// TokenRepository persists placed tokens and their module flag bag.
type TokenRepository interface {
	FindTokenByID(ctx context.Context, tokenID string) (*domain.Token, error)
	SaveToken(ctx context.Context, token domain.Token) error

	GetFlag(ctx context.Context, tokenID, key string) (json.RawMessage, error)
	SetFlag(ctx context.Context, tokenID, key string, value json.RawMessage) error
}

// SceneRepository reads scene grid metadata.
type SceneRepository interface {
	FindSceneByID(ctx context.Context, sceneID string) (*domain.Scene, error)
}

// UserRepository reads world members.
type UserRepository interface {
	FindUserByID(ctx context.Context, worldID, userID string) (*domain.User, error)
	ListUsersByWorld(ctx context.Context, worldID string) ([]domain.User, error)
}
