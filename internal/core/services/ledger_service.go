package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/shopspring/decimal"
)

const (
	ledgerFlagKey   = "currency"
	snapshotFlagKey = "currencySnapshotV1"
)

// CurrencyUpdate is the local event payload emitted on every ledger write.
type CurrencyUpdate struct {
	ActorID string           `json:"actorId"`
	Changes map[string]int64 `json:"changes"`
}

// LedgerService reads and writes per-actor currency ledgers stored in the
// actor flag bag. Every write persists the full ledger and fans out a local
// event plus a cross-client sync broadcast.
type LedgerService struct {
	actors      ports.ActorRepository
	definitions ports.DefinitionSvcFacade
	settings    ports.SettingsSvcFacade
	channel     ports.Channel
	bus         ports.EventBus
	logger      *slog.Logger
}

func NewLedgerService(actors ports.ActorRepository, definitions ports.DefinitionSvcFacade, settings ports.SettingsSvcFacade, channel ports.Channel, bus ports.EventBus, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{actors: actors, definitions: definitions, settings: settings, channel: channel, bus: bus, logger: logger}
}

// CanView reports whether the user may read an actor's ledger: GMs always,
// everyone else only for actors they own.
func (s *LedgerService) CanView(ctx context.Context, actorID, userID string, isGM bool) (bool, error) {
	if isGM {
		return true, nil
	}
	actor, err := s.actors.FindActorByID(ctx, actorID)
	if err != nil {
		return false, fmt.Errorf("failed to load actor %s: %w", actorID, err)
	}
	return actor.OwnedBy(userID), nil
}

// CanModify reports whether the user may write an actor's ledger: GMs
// always, owners only when the world allows player self-edit.
func (s *LedgerService) CanModify(ctx context.Context, actorID, userID string, isGM bool) (bool, error) {
	if isGM {
		return true, nil
	}
	actor, err := s.actors.FindActorByID(ctx, actorID)
	if err != nil {
		return false, fmt.Errorf("failed to load actor %s: %w", actorID, err)
	}
	if !actor.OwnedBy(userID) {
		return false, nil
	}
	allowed, err := s.settings.Get(ctx, actor.WorldID, "", domain.SettingCurrencyPlayerEdit)
	if err != nil {
		return false, err
	}
	enabled, _ := allowed.(bool)
	return enabled, nil
}

// GetLedger returns the stored mapping, or an empty mapping when unset or
// malformed. It never fails on flag content.
func (s *LedgerService) GetLedger(ctx context.Context, actorID string) (domain.Ledger, error) {
	raw, err := s.actors.GetFlag(ctx, actorID, ledgerFlagKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.Ledger{}, nil
		}
		return nil, fmt.Errorf("failed to read ledger for actor %s: %w", actorID, err)
	}
	var ledger domain.Ledger
	if err := json.Unmarshal(raw, &ledger); err != nil || ledger == nil {
		return domain.Ledger{}, nil
	}
	return ledger, nil
}

// Set clamps the quantity, merges the single key into the existing ledger,
// persists the whole mapping, and signals both the local bus and the world
// channel with the changed id and new value.
func (s *LedgerService) Set(ctx context.Context, actorID, currencyID string, quantity int64) error {
	actor, err := s.actors.FindActorByID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to load actor %s: %w", actorID, err)
	}

	ledger, err := s.GetLedger(ctx, actorID)
	if err != nil {
		return err
	}
	next := ledger.Clone()
	next[currencyID] = domain.ClampQuantity(quantity)

	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode ledger for actor %s: %w", actorID, err)
	}
	if err := s.actors.SetFlag(ctx, actorID, ledgerFlagKey, raw); err != nil {
		return fmt.Errorf("failed to persist ledger for actor %s: %w", actorID, err)
	}

	changes := map[string]int64{currencyID: next[currencyID]}
	s.bus.Emit(ports.EventCurrencyUpdated, CurrencyUpdate{ActorID: actorID, Changes: changes})

	env, err := domain.NewEnvelope(actor.WorldID, "", "", &domain.CurrencySyncMessage{ActorID: actorID, Changes: changes})
	if err != nil {
		return err
	}
	if err := s.channel.Publish(ctx, env); err != nil {
		// The write is already durable; a lost sync only delays remote refresh.
		s.logger.Warn("failed to broadcast currency sync", slog.String("actor_id", actorID), slog.String("error", err.Error()))
	}
	return nil
}

// Add is Set(current + delta).
func (s *LedgerService) Add(ctx context.Context, actorID, currencyID string, delta int64) error {
	ledger, err := s.GetLedger(ctx, actorID)
	if err != nil {
		return err
	}
	return s.Set(ctx, actorID, currencyID, ledger.Quantity(currencyID)+delta)
}

// TotalReference sums referenceValue * quantity across held entries whose
// definition carries a positive reference value. A nil result means no held
// currency contributes, distinguishing "not applicable" from a zero total.
func (s *LedgerService) TotalReference(ctx context.Context, actorID string) (*decimal.Decimal, error) {
	actor, err := s.actors.FindActorByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actor %s: %w", actorID, err)
	}
	ledger, err := s.GetLedger(ctx, actorID)
	if err != nil {
		return nil, err
	}

	refByID := make(map[string]decimal.Decimal)
	for _, def := range s.definitions.List(ctx, actor.WorldID) {
		refByID[def.ID] = def.ReferenceValue
	}

	total := decimal.Zero
	hasRef := false
	for id, qty := range ledger {
		ref, ok := refByID[id]
		if !ok || !ref.IsPositive() {
			continue
		}
		hasRef = true
		total = total.Add(ref.Mul(decimal.NewFromInt(domain.ClampQuantity(qty))))
	}
	if !hasRef {
		return nil, nil
	}
	return &total, nil
}

type currencySnapshot struct {
	Base map[string]any `json:"base"`
	At   time.Time      `json:"at"`
}

// SnapshotAll copies every actor's base system currency into a snapshot
// flag and returns how many actors were captured. Per-actor failures are
// logged and skipped.
func (s *LedgerService) SnapshotAll(ctx context.Context, worldID string) (int, error) {
	actors, err := s.actors.ListActorsByWorld(ctx, worldID)
	if err != nil {
		return 0, fmt.Errorf("failed to list actors for world %s: %w", worldID, err)
	}
	count := 0
	for _, actor := range actors {
		base, _ := actor.Attributes["currency"].(map[string]any)
		if base == nil {
			base = map[string]any{}
		}
		raw, err := json.Marshal(currencySnapshot{Base: base, At: time.Now().UTC()})
		if err != nil {
			s.logger.Warn("snapshot encode failed", slog.String("actor_id", actor.ActorID), slog.String("error", err.Error()))
			continue
		}
		if err := s.actors.SetFlag(ctx, actor.ActorID, snapshotFlagKey, raw); err != nil {
			s.logger.Warn("snapshot failed", slog.String("actor_id", actor.ActorID), slog.String("error", err.Error()))
			continue
		}
		count++
	}
	return count, nil
}

// RestoreAll writes each snapshotted base currency back into the actor's
// attributes. Actors without a snapshot are skipped.
func (s *LedgerService) RestoreAll(ctx context.Context, worldID string) (int, error) {
	actors, err := s.actors.ListActorsByWorld(ctx, worldID)
	if err != nil {
		return 0, fmt.Errorf("failed to list actors for world %s: %w", worldID, err)
	}
	count := 0
	for _, actor := range actors {
		raw, err := s.actors.GetFlag(ctx, actor.ActorID, snapshotFlagKey)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				s.logger.Warn("snapshot read failed", slog.String("actor_id", actor.ActorID), slog.String("error", err.Error()))
			}
			continue
		}
		var snap currencySnapshot
		if err := json.Unmarshal(raw, &snap); err != nil || snap.Base == nil {
			continue
		}
		base, err := json.Marshal(snap.Base)
		if err != nil {
			continue
		}
		if err := s.actors.SetAttribute(ctx, actor.ActorID, "currency", base); err != nil {
			s.logger.Warn("snapshot restore failed", slog.String("actor_id", actor.ActorID), slog.String("error", err.Error()))
			continue
		}
		count++
	}
	return count, nil
}
