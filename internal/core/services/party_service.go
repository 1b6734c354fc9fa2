package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
)

// PartyService builds the dock party overview: one row per player character
// with the configured stat columns read from the actor attribute bag.
type PartyService struct {
	actors   ports.ActorRepository
	settings ports.SettingsSvcFacade
}

func NewPartyService(actors ports.ActorRepository, settings ports.SettingsSvcFacade) *PartyService {
	return &PartyService{actors: actors, settings: settings}
}

func (s *PartyService) Overview(ctx context.Context, worldID string) ([]ports.PartyRow, []domain.PartyFieldKey, error) {
	keys := s.configuredKeys(ctx, worldID)

	actors, err := s.actors.ListActorsByWorld(ctx, worldID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list actors for world %s: %w", worldID, err)
	}

	rows := make([]ports.PartyRow, 0, len(actors))
	for _, actor := range actors {
		if actor.Kind != domain.ActorKindCharacter {
			continue
		}
		values := make(map[domain.PartyFieldKey]any, len(keys))
		for _, key := range keys {
			field, ok := domain.FindPartyField(key)
			if !ok {
				continue
			}
			values[key] = field.Read(actor.Attributes)
		}
		rows = append(rows, ports.PartyRow{ActorID: actor.ActorID, Name: actor.Name, Values: values})
	}
	return rows, keys, nil
}

// configuredKeys reads the dock field list setting; unknown keys are
// filtered out and a broken setting falls back to the catalog defaults.
func (s *PartyService) configuredKeys(ctx context.Context, worldID string) []domain.PartyFieldKey {
	raw, err := s.settings.Get(ctx, worldID, "", domain.SettingDockFields)
	if err != nil {
		return domain.ValidatePartyKeys(nil)
	}
	str, _ := raw.(string)
	var keys []string
	if err := json.Unmarshal([]byte(str), &keys); err != nil {
		keys = nil
	}
	validated := domain.ValidatePartyKeys(keys)
	if len(validated) == 0 {
		// Fall back to every catalog field.
		for _, f := range domain.PartyFields {
			validated = append(validated, f.Key)
		}
	}
	return validated
}
