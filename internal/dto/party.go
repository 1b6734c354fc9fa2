package dto

import (
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
)

// PartyRowResponse is one actor line of the party overview.
type PartyRowResponse struct {
	ActorID string         `json:"actorId"`
	Name    string         `json:"name"`
	Values  map[string]any `json:"values"`
}

// PartyOverviewResponse defines the data returned for the dock party view.
type PartyOverviewResponse struct {
	Fields []string           `json:"fields"`
	Rows   []PartyRowResponse `json:"rows"`
}

// ToPartyOverviewResponse converts the service result to its response DTO.
func ToPartyOverviewResponse(rows []ports.PartyRow, fields []domain.PartyFieldKey) PartyOverviewResponse {
	res := PartyOverviewResponse{
		Fields: make([]string, len(fields)),
		Rows:   make([]PartyRowResponse, len(rows)),
	}
	for i, f := range fields {
		res.Fields[i] = string(f)
	}
	for i, row := range rows {
		values := make(map[string]any, len(row.Values))
		for k, v := range row.Values {
			values[string(k)] = v
		}
		res.Rows[i] = PartyRowResponse{
			ActorID: row.ActorID,
			Name:    row.Name,
			Values:  values,
		}
	}
	return res
}
