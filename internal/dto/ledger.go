package dto

import (
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SetQuantityRequest sets the absolute held quantity of one currency.
type SetQuantityRequest struct {
	CurrencyID string `json:"currencyId" binding:"required,currencyid"`
	Quantity   int64  `json:"quantity"`
}

// AdjustQuantityRequest adds a signed delta to the held quantity of one
// currency.
type AdjustQuantityRequest struct {
	CurrencyID string `json:"currencyId" binding:"required,currencyid"`
	Delta      int64  `json:"delta" binding:"required"`
}

// LedgerResponse defines the data returned for one actor's holdings.
type LedgerResponse struct {
	ActorID        string           `json:"actorId"`
	Holdings       map[string]int64 `json:"holdings"`
	TotalReference *decimal.Decimal `json:"totalReference,omitempty"`
}

// ToLedgerResponse converts a domain ledger to its response DTO.
func ToLedgerResponse(actorID string, ledger domain.Ledger, total *decimal.Decimal) LedgerResponse {
	return LedgerResponse{
		ActorID:        actorID,
		Holdings:       ledger,
		TotalReference: total,
	}
}

// BulkLedgerOpResponse reports how many actors a world-wide ledger operation
// touched.
type BulkLedgerOpResponse struct {
	ActorsProcessed int `json:"actorsProcessed"`
}
