package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/shopspring/decimal"
)

// DefinitionService manages the world currency definition list. The list is
// only ever rewritten as a whole; there is no per-definition update.
type DefinitionService struct {
	settings ports.SettingsSvcFacade
	channel  ports.Channel
	bus      ports.EventBus
	logger   *slog.Logger
}

func NewDefinitionService(settings ports.SettingsSvcFacade, channel ports.Channel, bus ports.EventBus, logger *slog.Logger) *DefinitionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefinitionService{settings: settings, channel: channel, bus: bus, logger: logger}
}

// List returns the stored definitions sorted by order, ties broken by list
// position. Malformed storage yields an empty list, never an error.
func (s *DefinitionService) List(ctx context.Context, worldID string) []domain.CurrencyDefinition {
	raw, err := s.settings.Get(ctx, worldID, "", domain.SettingCurrencyDefinitions)
	if err != nil {
		s.logger.Warn("failed to read currency definitions", slog.String("world_id", worldID), slog.String("error", err.Error()))
		return []domain.CurrencyDefinition{}
	}
	str, ok := raw.(string)
	if !ok {
		return []domain.CurrencyDefinition{}
	}
	defs := domain.ParseDefinitions(str)
	domain.SortDefinitions(defs)
	return defs
}

// ReplaceAll sanitizes and stores a full definition list, then broadcasts a
// definitions-changed notice so open forms refresh. Sanitization: every row
// gets a unique non-empty id (numeric suffixing on collision), name defaults
// to the id, negative order clamps to 0, negative reference values clamp
// to 0.
func (s *DefinitionService) ReplaceAll(ctx context.Context, worldID string, defs []domain.CurrencyDefinition) ([]domain.CurrencyDefinition, error) {
	sanitized := make([]domain.CurrencyDefinition, len(defs))
	taken := make(map[string]struct{}, len(defs))
	for i, d := range defs {
		d.ID = domain.UniqueDefinitionID(d.ID, taken)
		taken[d.ID] = struct{}{}
		if d.Name == "" {
			d.Name = d.ID
		}
		if d.Order < 0 {
			d.Order = 0
		}
		if d.ReferenceValue.IsNegative() {
			d.ReferenceValue = decimal.Zero
		}
		sanitized[i] = d
	}

	serialized, err := domain.SerializeDefinitions(sanitized)
	if err != nil {
		return nil, err
	}
	if err := s.settings.Set(ctx, worldID, "", domain.SettingCurrencyDefinitions, serialized); err != nil {
		return nil, fmt.Errorf("failed to store currency definitions: %w", err)
	}

	s.bus.Emit(ports.EventDefinitionsChanged, sanitized)
	env, err := domain.NewEnvelope(worldID, "", "", &domain.DefinitionsChangedMessage{Definitions: sanitized})
	if err != nil {
		return nil, err
	}
	if err := s.channel.Publish(ctx, env); err != nil {
		// The list is already persisted; a failed broadcast only delays refresh.
		s.logger.Warn("failed to broadcast definitions change", slog.String("world_id", worldID), slog.String("error", err.Error()))
	}
	return sanitized, nil
}
