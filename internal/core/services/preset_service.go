package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
)

const presetSnapshotFlagKey = "snapshot"

// PresetService applies and reverts token sight/light presets. Before a slot
// is first patched, its current state is snapshotted into the token flag bag
// so the preset can be reverted later; applying further presets keeps the
// original snapshot.
type PresetService struct {
	tokens ports.TokenRepository
}

func NewPresetService(tokens ports.TokenRepository) *PresetService {
	return &PresetService{tokens: tokens}
}

func (s *PresetService) Presets() []domain.Preset {
	out := make([]domain.Preset, len(domain.BuiltinPresets))
	copy(out, domain.BuiltinPresets)
	return out
}

// Apply patches the token with the named preset, snapshotting untouched
// slots first.
func (s *PresetService) Apply(ctx context.Context, sess domain.SessionContext, tokenID, presetID string) error {
	preset, ok := domain.FindPreset(presetID)
	if !ok {
		return fmt.Errorf("%w: preset %q", apperrors.ErrNotFound, presetID)
	}
	token, err := s.tokens.FindTokenByID(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("failed to load token %s: %w", tokenID, err)
	}
	if token.WorldID != sess.WorldID {
		return fmt.Errorf("%w: token belongs to another world", apperrors.ErrForbidden)
	}

	snap, err := s.getSnapshot(ctx, tokenID)
	if err != nil {
		return err
	}
	if preset.Sight != nil && snap.Sight == nil {
		sight := token.Sight
		snap.Sight = &sight
		snap.DetectionModes = token.DetectionModes
	}
	if preset.Light != nil && snap.Light == nil {
		light := token.Light
		snap.Light = &light
	}
	if err := s.setSnapshot(ctx, tokenID, snap); err != nil {
		return err
	}

	preset.Sight.Apply(&token.Sight)
	preset.Light.Apply(&token.Light)
	if err := s.tokens.SaveToken(ctx, *token); err != nil {
		return fmt.Errorf("failed to save token %s: %w", tokenID, err)
	}
	return nil
}

// Revert restores the snapshotted state of one slot ("sight" or "light")
// and clears it from the snapshot.
func (s *PresetService) Revert(ctx context.Context, sess domain.SessionContext, tokenID, slot string) error {
	if slot != "sight" && slot != "light" {
		return fmt.Errorf("%w: slot must be sight or light", apperrors.ErrValidation)
	}
	token, err := s.tokens.FindTokenByID(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("failed to load token %s: %w", tokenID, err)
	}
	if token.WorldID != sess.WorldID {
		return fmt.Errorf("%w: token belongs to another world", apperrors.ErrForbidden)
	}

	snap, err := s.getSnapshot(ctx, tokenID)
	if err != nil {
		return err
	}
	switch slot {
	case "sight":
		if snap.Sight == nil {
			return fmt.Errorf("%w: no sight snapshot for token %s", apperrors.ErrNotFound, tokenID)
		}
		token.Sight = *snap.Sight
		if snap.DetectionModes != nil {
			token.DetectionModes = snap.DetectionModes
		}
		snap.Sight = nil
		snap.DetectionModes = nil
	case "light":
		if snap.Light == nil {
			return fmt.Errorf("%w: no light snapshot for token %s", apperrors.ErrNotFound, tokenID)
		}
		token.Light = *snap.Light
		snap.Light = nil
	}

	if err := s.tokens.SaveToken(ctx, *token); err != nil {
		return fmt.Errorf("failed to save token %s: %w", tokenID, err)
	}
	return s.setSnapshot(ctx, tokenID, snap)
}

func (s *PresetService) getSnapshot(ctx context.Context, tokenID string) (domain.TokenSnapshot, error) {
	raw, err := s.tokens.GetFlag(ctx, tokenID, presetSnapshotFlagKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.TokenSnapshot{}, nil
		}
		return domain.TokenSnapshot{}, fmt.Errorf("failed to read snapshot for token %s: %w", tokenID, err)
	}
	var snap domain.TokenSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.TokenSnapshot{}, nil
	}
	return snap, nil
}

func (s *PresetService) setSnapshot(ctx context.Context, tokenID string, snap domain.TokenSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for token %s: %w", tokenID, err)
	}
	if err := s.tokens.SetFlag(ctx, tokenID, presetSnapshotFlagKey, raw); err != nil {
		return fmt.Errorf("failed to persist snapshot for token %s: %w", tokenID, err)
	}
	return nil
}
