package dto

import "github.com/calderis/companion_backend/internal/core/ports"

// MeasureDistanceRequest names the two tokens to measure between. Bound from
// query parameters.
type MeasureDistanceRequest struct {
	FromTokenID string `form:"from" binding:"required"`
	ToTokenID   string `form:"to" binding:"required"`
}

// DistanceResponse defines the data returned for a measurement.
type DistanceResponse struct {
	Spaces   int     `json:"spaces"`
	Distance float64 `json:"distance"`
	Units    string  `json:"units"`
	Label    string  `json:"label"`
}

// ToDistanceResponse converts a measurement to its response DTO.
func ToDistanceResponse(m *ports.DistanceMeasurement) DistanceResponse {
	return DistanceResponse{
		Spaces:   m.Spaces,
		Distance: m.Distance,
		Units:    m.Units,
		Label:    m.Label,
	}
}
