package ports

import (
	"context"

	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SettingsSvcFacade exposes the registry-validated settings store.
type SettingsSvcFacade interface {
	Registry() []domain.SettingSpec
	Get(ctx context.Context, worldID, userID, key string) (any, error)
	Set(ctx context.Context, worldID, userID, key string, value any) error
}

// DefinitionSvcFacade exposes the world currency definition registry.
type DefinitionSvcFacade interface {
	List(ctx context.Context, worldID string) []domain.CurrencyDefinition
	ReplaceAll(ctx context.Context, worldID string, defs []domain.CurrencyDefinition) ([]domain.CurrencyDefinition, error)
}

// LedgerSvcFacade exposes per-actor currency ledgers.
type LedgerSvcFacade interface {
	// CanView and CanModify answer permission questions for a caller: GMs
	// pass both, owners can always view, and owners can modify only when
	// the world allows player self-edit.
	CanView(ctx context.Context, actorID, userID string, isGM bool) (bool, error)
	CanModify(ctx context.Context, actorID, userID string, isGM bool) (bool, error)

	GetLedger(ctx context.Context, actorID string) (domain.Ledger, error)
	Set(ctx context.Context, actorID, currencyID string, quantity int64) error
	Add(ctx context.Context, actorID, currencyID string, delta int64) error
	// TotalReference returns nil when no held currency carries a positive
	// reference value, distinguishing "not applicable" from a zero total.
	TotalReference(ctx context.Context, actorID string) (*decimal.Decimal, error)
	SnapshotAll(ctx context.Context, worldID string) (int, error)
	RestoreAll(ctx context.Context, worldID string) (int, error)
}

// TransferSvcFacade coordinates cross-session currency transfers.
type TransferSvcFacade interface {
	RequestTransfer(ctx context.Context, sess domain.SessionContext, payload domain.TransferPayload) (requestID string, err error)
	// HandleEnvelope processes a channel delivery on behalf of a session.
	HandleEnvelope(ctx context.Context, sess domain.SessionContext, env domain.Envelope) error
}

// PresetSvcFacade applies and reverts token sight/light presets.
type PresetSvcFacade interface {
	Presets() []domain.Preset
	Apply(ctx context.Context, sess domain.SessionContext, tokenID, presetID string) error
	Revert(ctx context.Context, sess domain.SessionContext, tokenID, slot string) error
}

// PartyRow is one actor line of the party overview.
type PartyRow struct {
	ActorID string                       `json:"actorId"`
	Name    string                       `json:"name"`
	Values  map[domain.PartyFieldKey]any `json:"values"`
}

// PartySvcFacade builds the dock party overview.
type PartySvcFacade interface {
	Overview(ctx context.Context, worldID string) ([]PartyRow, []domain.PartyFieldKey, error)
}

// DistanceMeasurement is the result of a token-to-token measurement.
type DistanceMeasurement struct {
	Spaces   int     `json:"spaces"`
	Distance float64 `json:"distance"`
	Units    string  `json:"units"`
	Label    string  `json:"label"`
}

// DistanceSvcFacade measures grid distance between two tokens of a scene.
type DistanceSvcFacade interface {
	Measure(ctx context.Context, worldID, fromTokenID, toTokenID string) (*DistanceMeasurement, error)
}

// AuthSvcFacade verifies world members and issues session tokens.
type AuthSvcFacade interface {
	Join(ctx context.Context, worldID, userID, secret string) (token string, user *domain.User, err error)
}
