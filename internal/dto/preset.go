package dto

import "github.com/calderis/companion_backend/internal/core/domain"

// ApplyPresetRequest names the preset to apply to a token.
type ApplyPresetRequest struct {
	PresetID string `json:"presetId" binding:"required"`
}

// RevertPresetRequest names the slot (sight or light) to restore on a token.
type RevertPresetRequest struct {
	Slot string `json:"slot" binding:"required,oneof=sight light"`
}

// PresetResponse defines the data returned for one catalog preset.
type PresetResponse struct {
	ID    string             `json:"id"`
	Label string             `json:"label"`
	Type  domain.PresetType  `json:"type"`
	Sight *domain.SightPatch `json:"sight,omitempty"`
	Light *domain.LightPatch `json:"light,omitempty"`
}

// ToPresetResponse converts a domain preset to its response DTO.
func ToPresetResponse(p domain.Preset) PresetResponse {
	return PresetResponse{
		ID:    p.ID,
		Label: p.Label,
		Type:  p.Type,
		Sight: p.Sight,
		Light: p.Light,
	}
}

// ToListPresetResponse converts a preset slice to response DTOs.
func ToListPresetResponse(presets []domain.Preset) []PresetResponse {
	res := make([]PresetResponse, len(presets))
	for i, p := range presets {
		res[i] = ToPresetResponse(p)
	}
	return res
}
