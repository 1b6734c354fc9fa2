package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// CurrencyDefinition describes one currency kind in a world. Definitions are
// stored as a serialized ordered list inside the world settings and are only
// ever rewritten as a whole (bulk replace).
type CurrencyDefinition struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Abbr           string          `json:"abbr,omitempty"`
	Icon           string          `json:"icon,omitempty"`
	Color          string          `json:"color,omitempty"`
	Order          int             `json:"order"`
	ReferenceValue decimal.Decimal `json:"referenceValue"`
	Visible        bool            `json:"visible"`
}

// Ledger maps a currency id to the quantity an actor holds. Quantities are
// non-negative; ids with no matching definition are retained but not shown.
type Ledger map[string]int64

// Quantity returns the held quantity for a currency id, zero when absent.
func (l Ledger) Quantity(currencyID string) int64 {
	return l[currencyID]
}

// Clone returns a copy safe to mutate.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// ClampQuantity imposes the stored-quantity invariant: negative values become 0.
func ClampQuantity(q int64) int64 {
	if q < 0 {
		return 0
	}
	return q
}

// ParseDefinitions deserializes a stored definition list. Malformed input and
// non-array payloads yield an empty list, never an error; individual fields
// are coerced element by element so one bad row cannot poison the rest.
func ParseDefinitions(raw string) []CurrencyDefinition {
	var items []map[string]any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []CurrencyDefinition{}
	}
	defs := make([]CurrencyDefinition, 0, len(items))
	for i, item := range items {
		def := CurrencyDefinition{
			ID:      coerceString(item["id"]),
			Name:    coerceString(item["name"]),
			Abbr:    coerceString(item["abbr"]),
			Icon:    coerceString(item["icon"]),
			Color:   coerceString(item["color"]),
			Order:   i * 10,
			Visible: true,
		}
		if n, ok := coerceFinite(item["order"]); ok {
			def.Order = int(n)
		}
		if n, ok := coerceFinite(item["referenceValue"]); ok {
			def.ReferenceValue = decimal.NewFromFloat(n)
		}
		if v, ok := item["visible"].(bool); ok {
			def.Visible = v
		}
		defs = append(defs, def)
	}
	return defs
}

// SerializeDefinitions renders the list back to its stored form.
func SerializeDefinitions(defs []CurrencyDefinition) (string, error) {
	b, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize currency definitions: %w", err)
	}
	return string(b), nil
}

// SortDefinitions orders by the order key, ties broken by list position.
func SortDefinitions(defs []CurrencyDefinition) {
	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].Order < defs[j].Order
	})
}

// UniqueDefinitionID returns base, suffixed with _N on collision with taken.
// An empty base falls back to "coin".
func UniqueDefinitionID(base string, taken map[string]struct{}) string {
	if base == "" {
		base = "coin"
	}
	id := base
	for n := 1; ; n++ {
		if _, exists := taken[id]; !exists {
			return id
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

func coerceString(v any) string {
	s, _ := v.(string)
	return s
}

func coerceFinite(v any) (float64, bool) {
	n, ok := v.(float64)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
