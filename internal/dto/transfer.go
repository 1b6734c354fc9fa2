package dto

import "github.com/calderis/companion_backend/internal/core/domain"

// TransferItemRequest is one (currency, amount) pair of a transfer.
type TransferItemRequest struct {
	CurrencyID string `json:"currencyId" binding:"required,currencyid"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
}

// TransferRequest initiates a currency transfer between two actors. The
// session id names the caller's live connection so the acknowledgement can
// be routed back. The legacy single-currency fields are accepted when Items
// is empty.
type TransferRequest struct {
	SessionID   string                `json:"sessionId" binding:"required"`
	FromActorID string                `json:"fromActorId" binding:"required"`
	ToActorID   string                `json:"toActorId" binding:"required"`
	Items       []TransferItemRequest `json:"items" binding:"omitempty,dive"`

	CurrencyID string `json:"currencyId"`
	Amount     int64  `json:"amount"`
}

// ToTransferPayload converts the request to the domain payload.
func (r TransferRequest) ToTransferPayload(fromName string) domain.TransferPayload {
	items := make([]domain.TransferItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = domain.TransferItem{CurrencyID: it.CurrencyID, Amount: it.Amount}
	}
	return domain.TransferPayload{
		FromActorID: r.FromActorID,
		ToActorID:   r.ToActorID,
		FromName:    fromName,
		Items:       items,
		CurrencyID:  r.CurrencyID,
		Amount:      r.Amount,
	}
}

// TransferResponse acknowledges that a transfer request was published.
type TransferResponse struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}
