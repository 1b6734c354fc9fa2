package dto

import "github.com/calderis/companion_backend/internal/core/domain"

// UpdateSettingRequest carries the new value for one registered setting key.
type UpdateSettingRequest struct {
	Value any `json:"value" binding:"required"`
}

// SettingResponse defines the data returned for one setting value.
type SettingResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// SettingSpecResponse describes one registered setting key.
type SettingSpecResponse struct {
	Key     string              `json:"key"`
	Scope   domain.SettingScope `json:"scope"`
	Kind    domain.SettingKind  `json:"kind"`
	Default any                 `json:"default"`
	Choices []string            `json:"choices,omitempty"`
}

// ToSettingSpecResponse converts a registry spec to its response DTO.
func ToSettingSpecResponse(spec domain.SettingSpec) SettingSpecResponse {
	return SettingSpecResponse{
		Key:     spec.Key,
		Scope:   spec.Scope,
		Kind:    spec.Kind,
		Default: spec.Default,
		Choices: spec.Choices,
	}
}

// ToListSettingSpecResponse converts the registry to response DTOs.
func ToListSettingSpecResponse(specs []domain.SettingSpec) []SettingSpecResponse {
	res := make([]SettingSpecResponse, len(specs))
	for i, spec := range specs {
		res[i] = ToSettingSpecResponse(spec)
	}
	return res
}
