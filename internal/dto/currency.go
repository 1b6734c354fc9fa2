package dto

import (
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CurrencyDefinitionRequest defines one currency row in a replace request.
// Missing ids and names are filled in server-side.
type CurrencyDefinitionRequest struct {
	ID             string          `json:"id" binding:"omitempty,currencyid"`
	Name           string          `json:"name"`
	Abbr           string          `json:"abbr"`
	Icon           string          `json:"icon"`
	Color          string          `json:"color"`
	Order          int             `json:"order"`
	ReferenceValue decimal.Decimal `json:"referenceValue"`
	Visible        *bool           `json:"visible"`
}

// ReplaceDefinitionsRequest carries the full new definition list for a world.
type ReplaceDefinitionsRequest struct {
	Definitions []CurrencyDefinitionRequest `json:"definitions" binding:"required"`
}

// CurrencyDefinitionResponse defines the data returned for one currency.
type CurrencyDefinitionResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Abbr           string          `json:"abbr"`
	Icon           string          `json:"icon"`
	Color          string          `json:"color"`
	Order          int             `json:"order"`
	ReferenceValue decimal.Decimal `json:"referenceValue"`
	Visible        bool            `json:"visible"`
}

// ToCurrencyDefinition converts a request row to the domain type.
func (r CurrencyDefinitionRequest) ToCurrencyDefinition() domain.CurrencyDefinition {
	visible := true
	if r.Visible != nil {
		visible = *r.Visible
	}
	return domain.CurrencyDefinition{
		ID:             r.ID,
		Name:           r.Name,
		Abbr:           r.Abbr,
		Icon:           r.Icon,
		Color:          r.Color,
		Order:          r.Order,
		ReferenceValue: r.ReferenceValue,
		Visible:        visible,
	}
}

// ToCurrencyDefinitionResponse converts a domain definition to its response DTO.
func ToCurrencyDefinitionResponse(def domain.CurrencyDefinition) CurrencyDefinitionResponse {
	return CurrencyDefinitionResponse{
		ID:             def.ID,
		Name:           def.Name,
		Abbr:           def.Abbr,
		Icon:           def.Icon,
		Color:          def.Color,
		Order:          def.Order,
		ReferenceValue: def.ReferenceValue,
		Visible:        def.Visible,
	}
}

// ToListCurrencyDefinitionResponse converts a definition slice to response DTOs.
func ToListCurrencyDefinitionResponse(defs []domain.CurrencyDefinition) []CurrencyDefinitionResponse {
	res := make([]CurrencyDefinitionResponse, len(defs))
	for i, def := range defs {
		res[i] = ToCurrencyDefinitionResponse(def)
	}
	return res
}
