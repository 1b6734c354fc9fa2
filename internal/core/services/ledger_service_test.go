package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/calderis/companion_backend/internal/adapters/channel/memory"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/calderis/companion_backend/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	actors      *fakeActorRepo
	settings    *services.SettingsService
	definitions *services.DefinitionService
	hub         *memory.Hub
	bus         *recordingBus
	svc         *services.LedgerService
	ctx         context.Context
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.actors = newFakeActorRepo(
		&domain.Actor{
			ActorID:   "actor-hero",
			WorldID:   "world-1",
			Name:      "Brennan",
			Kind:      domain.ActorKindCharacter,
			Ownership: map[string]domain.OwnershipLevel{"user-player": domain.OwnershipOwner},
			Attributes: map[string]any{
				"currency": map[string]any{"gp": float64(7), "sp": float64(3)},
			},
		},
		&domain.Actor{
			ActorID:    "actor-shopkeep",
			WorldID:    "world-1",
			Name:       "Orla",
			Kind:       domain.ActorKindNPC,
			Ownership:  map[string]domain.OwnershipLevel{},
			Attributes: map[string]any{},
		},
	)
	s.settings = services.NewSettingsService(newFakeSettingsRepo())
	s.hub = memory.NewHub()
	s.bus = newRecordingBus()
	s.definitions = services.NewDefinitionService(s.settings, s.hub, s.bus, nil)
	s.svc = services.NewLedgerService(s.actors, s.definitions, s.settings, s.hub, s.bus, nil)
	s.ctx = context.Background()
}

func (s *LedgerServiceTestSuite) TestGetLedgerUnsetIsEmpty() {
	ledger, err := s.svc.GetLedger(s.ctx, "actor-hero")
	require.NoError(s.T(), err)
	assert.Empty(s.T(), ledger)
	assert.NotNil(s.T(), ledger)
}

func (s *LedgerServiceTestSuite) TestGetLedgerMalformedFlagIsEmpty() {
	require.NoError(s.T(), s.actors.SetFlag(s.ctx, "actor-hero", "currency", []byte(`[1,2,3]`)))

	ledger, err := s.svc.GetLedger(s.ctx, "actor-hero")
	require.NoError(s.T(), err)
	assert.Empty(s.T(), ledger)
}

func (s *LedgerServiceTestSuite) TestSetThenGetRoundTrip() {
	require.NoError(s.T(), s.svc.Set(s.ctx, "actor-hero", "gp", 25))
	require.NoError(s.T(), s.svc.Set(s.ctx, "actor-hero", "sp", 4))

	ledger, err := s.svc.GetLedger(s.ctx, "actor-hero")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(25), ledger.Quantity("gp"))
	assert.Equal(s.T(), int64(4), ledger.Quantity("sp"))
}

func (s *LedgerServiceTestSuite) TestSetClampsNegativeToZero() {
	require.NoError(s.T(), s.svc.Set(s.ctx, "actor-hero", "gp", -12))

	ledger, err := s.svc.GetLedger(s.ctx, "actor-hero")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(0), ledger.Quantity("gp"))
}

func (s *LedgerServiceTestSuite) TestSetUnknownActorFails() {
	err := s.svc.Set(s.ctx, "actor-ghost", "gp", 10)
	assert.Error(s.T(), err)
}

func (s *LedgerServiceTestSuite) TestAddAccumulates() {
	require.NoError(s.T(), s.svc.Set(s.ctx, "actor-hero", "gp", 10))
	require.NoError(s.T(), s.svc.Add(s.ctx, "actor-hero", "gp", 5))
	require.NoError(s.T(), s.svc.Add(s.ctx, "actor-hero", "gp", -8))

	ledger, err := s.svc.GetLedger(s.ctx, "actor-hero")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(7), ledger.Quantity("gp"))
}

func (s *LedgerServiceTestSuite) TestSetEmitsAndBroadcasts() {
	var received []domain.Envelope
	unsubscribe := s.hub.Subscribe("world-1", func(_ context.Context, env domain.Envelope) {
		received = append(received, env)
	})
	defer unsubscribe()

	require.NoError(s.T(), s.svc.Set(s.ctx, "actor-hero", "gp", 9))

	events := s.bus.named(ports.EventCurrencyUpdated)
	require.Len(s.T(), events, 1)
	update, ok := events[0].payload.(services.CurrencyUpdate)
	require.True(s.T(), ok)
	assert.Equal(s.T(), "actor-hero", update.ActorID)
	assert.Equal(s.T(), map[string]int64{"gp": 9}, update.Changes)

	require.Len(s.T(), received, 1)
	assert.Equal(s.T(), domain.OpCurrencySync, received[0].Op)
}

func (s *LedgerServiceTestSuite) TestTotalReference() {
	_, err := s.definitions.ReplaceAll(s.ctx, "world-1", []domain.CurrencyDefinition{
		{ID: "gp", Order: 10, ReferenceValue: decimal.NewFromInt(1), Visible: true},
		{ID: "sp", Order: 20, ReferenceValue: decimal.RequireFromString("0.01"), Visible: true},
		{ID: "token", Order: 30, Visible: true},
	})
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.svc.Set(s.ctx, "actor-hero", "gp", 10))
	require.NoError(s.T(), s.svc.Set(s.ctx, "actor-hero", "sp", 100))
	require.NoError(s.T(), s.svc.Set(s.ctx, "actor-hero", "token", 50))
	require.NoError(s.T(), s.svc.Set(s.ctx, "actor-hero", "orphaned", 9))

	total, err := s.svc.TotalReference(s.ctx, "actor-hero")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), total)
	assert.True(s.T(), total.Equal(decimal.NewFromInt(11)), "got %s", total)
}

func (s *LedgerServiceTestSuite) TestTotalReferenceNilWithoutReferenceCurrencies() {
	require.NoError(s.T(), s.svc.Set(s.ctx, "actor-hero", "token", 50))

	total, err := s.svc.TotalReference(s.ctx, "actor-hero")
	require.NoError(s.T(), err)
	assert.Nil(s.T(), total)
}

func (s *LedgerServiceTestSuite) TestOrphanedIDsSurviveWrites() {
	require.NoError(s.T(), s.svc.Set(s.ctx, "actor-hero", "orphaned", 9))
	require.NoError(s.T(), s.svc.Set(s.ctx, "actor-hero", "gp", 1))

	ledger, err := s.svc.GetLedger(s.ctx, "actor-hero")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(9), ledger.Quantity("orphaned"))
}

func (s *LedgerServiceTestSuite) TestCanView() {
	ok, err := s.svc.CanView(s.ctx, "actor-hero", "user-anyone", true)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok, "GM can always view")

	ok, err = s.svc.CanView(s.ctx, "actor-hero", "user-player", false)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok, "owner can view")

	ok, err = s.svc.CanView(s.ctx, "actor-hero", "user-other", false)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
}

func (s *LedgerServiceTestSuite) TestCanModify() {
	ok, err := s.svc.CanModify(s.ctx, "actor-hero", "user-anyone", true)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok, "GM can always modify")

	ok, err = s.svc.CanModify(s.ctx, "actor-hero", "user-player", false)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok, "owner blocked while self-edit is off")

	require.NoError(s.T(), s.settings.Set(s.ctx, "world-1", "", domain.SettingCurrencyPlayerEdit, true))

	ok, err = s.svc.CanModify(s.ctx, "actor-hero", "user-player", false)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok, "owner allowed once self-edit is on")

	ok, err = s.svc.CanModify(s.ctx, "actor-hero", "user-other", false)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok, "non-owner stays blocked")
}

func (s *LedgerServiceTestSuite) TestSnapshotAndRestore() {
	count, err := s.svc.SnapshotAll(s.ctx, "world-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, count)

	// Overwrite the base currency, then restore the captured values.
	require.NoError(s.T(), s.actors.SetAttribute(s.ctx, "actor-hero", "currency", json.RawMessage(`{"gp":0,"sp":0}`)))

	count, err = s.svc.RestoreAll(s.ctx, "world-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, count)

	hero, err := s.actors.FindActorByID(s.ctx, "actor-hero")
	require.NoError(s.T(), err)
	base, ok := hero.Attributes["currency"].(map[string]any)
	require.True(s.T(), ok)
	assert.Equal(s.T(), float64(7), base["gp"])
	assert.Equal(s.T(), float64(3), base["sp"])
}

func (s *LedgerServiceTestSuite) TestSnapshotSkipsFailingActors() {
	s.actors.failFlagWrites["actor-shopkeep"] = true

	count, err := s.svc.SnapshotAll(s.ctx, "world-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, count)
}

func (s *LedgerServiceTestSuite) TestRestoreSkipsActorsWithoutSnapshot() {
	count, err := s.svc.RestoreAll(s.ctx, "world-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0, count)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
