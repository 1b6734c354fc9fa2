package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
)

// SettingsService is the registry-validated settings store. Only registered
// keys can be written; reads of unset or malformed values fall back to the
// registered default instead of failing.
type SettingsService struct {
	repo ports.SettingsRepository
}

func NewSettingsService(repo ports.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Registry() []domain.SettingSpec {
	out := make([]domain.SettingSpec, len(domain.SettingsRegistry))
	copy(out, domain.SettingsRegistry)
	return out
}

func (s *SettingsService) Get(ctx context.Context, worldID, userID, key string) (any, error) {
	spec, ok := domain.FindSettingSpec(key)
	if !ok {
		return nil, fmt.Errorf("%w: setting %q", apperrors.ErrNotFound, key)
	}
	raw, err := s.repo.GetSetting(ctx, worldID, s.scopeUser(spec, userID), key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return spec.Default, nil
		}
		return nil, fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	value, err := decodeSettingValue(spec, raw)
	if err != nil {
		// Malformed storage falls back to the default rather than failing.
		return spec.Default, nil
	}
	return value, nil
}

func (s *SettingsService) Set(ctx context.Context, worldID, userID, key string, value any) error {
	spec, ok := domain.FindSettingSpec(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", apperrors.ErrValidation, key)
	}
	normalized, err := normalizeSettingValue(spec, value)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("failed to encode setting %q: %w", key, err)
	}
	if err := s.repo.SetSetting(ctx, worldID, s.scopeUser(spec, userID), key, raw); err != nil {
		return fmt.Errorf("failed to persist setting %q: %w", key, err)
	}
	return nil
}

// scopeUser collapses the user dimension for world-scoped keys so every
// caller reads the same row.
func (s *SettingsService) scopeUser(spec domain.SettingSpec, userID string) string {
	if spec.Scope == domain.ScopeWorld {
		return ""
	}
	return userID
}

func decodeSettingValue(spec domain.SettingSpec, raw json.RawMessage) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return normalizeSettingValue(spec, v)
}

func normalizeSettingValue(spec domain.SettingSpec, value any) (any, error) {
	switch spec.Kind {
	case domain.KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: setting %q expects a boolean", apperrors.ErrValidation, spec.Key)
		}
		return b, nil
	case domain.KindNumber:
		n, ok := value.(float64)
		if !ok {
			switch t := value.(type) {
			case int:
				n, ok = float64(t), true
			case int64:
				n, ok = float64(t), true
			}
		}
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("%w: setting %q expects a finite number", apperrors.ErrValidation, spec.Key)
		}
		return n, nil
	case domain.KindString:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: setting %q expects a string", apperrors.ErrValidation, spec.Key)
		}
		if len(spec.Choices) > 0 {
			for _, c := range spec.Choices {
				if c == str {
					return str, nil
				}
			}
			return nil, fmt.Errorf("%w: setting %q does not allow %q", apperrors.ErrValidation, spec.Key, str)
		}
		return str, nil
	default:
		return nil, fmt.Errorf("%w: setting %q has no value kind", apperrors.ErrValidation, spec.Key)
	}
}
