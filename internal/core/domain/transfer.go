package domain

// TransferItem is one (currency, amount) pair inside a transfer request.
type TransferItem struct {
	CurrencyID string `json:"currencyId"`
	Amount     int64  `json:"amount"`
}

// TransferPayload is the caller-facing shape of a transfer. The legacy
// single-currency fields are accepted and folded into Items.
type TransferPayload struct {
	FromActorID string         `json:"fromActorId"`
	ToActorID   string         `json:"toActorId"`
	FromName    string         `json:"fromName"`
	Items       []TransferItem `json:"items"`

	// Legacy mono-currency shape.
	CurrencyID string `json:"currencyId,omitempty"`
	Amount     int64  `json:"amount,omitempty"`
}

// NormalizeItems reduces a payload to its effective item list: non-positive
// amounts and empty ids are dropped, and the legacy single-currency shape is
// folded in when the list is empty.
func (p TransferPayload) NormalizeItems() []TransferItem {
	if len(p.Items) > 0 {
		items := make([]TransferItem, 0, len(p.Items))
		for _, it := range p.Items {
			if it.CurrencyID == "" || it.Amount <= 0 {
				continue
			}
			items = append(items, it)
		}
		return items
	}
	if p.CurrencyID != "" && p.Amount > 0 {
		return []TransferItem{{CurrencyID: p.CurrencyID, Amount: p.Amount}}
	}
	return []TransferItem{}
}
