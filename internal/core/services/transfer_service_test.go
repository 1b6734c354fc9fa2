package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/calderis/companion_backend/internal/adapters/channel/memory"
	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/calderis/companion_backend/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// The transfer suite runs both ends of a transfer against the real in-memory
// hub, so the request/acknowledge round trip exercises the same re-entrant
// publish path the websocket gateway drives in production.
type TransferServiceTestSuite struct {
	suite.Suite
	actors   *fakeActorRepo
	settings *services.SettingsService
	ledger   *services.LedgerService
	hub      *memory.Hub
	bus      *recordingBus
	svc      *services.TransferService
	ctx      context.Context

	senderSess    domain.Session
	recipientSess domain.Session
}

func (s *TransferServiceTestSuite) SetupTest() {
	s.actors = newFakeActorRepo(
		&domain.Actor{
			ActorID:   "actor-a",
			WorldID:   "world-1",
			Name:      "Aela",
			Kind:      domain.ActorKindCharacter,
			Ownership: map[string]domain.OwnershipLevel{"user-a": domain.OwnershipOwner},
		},
		&domain.Actor{
			ActorID:   "actor-b",
			WorldID:   "world-1",
			Name:      "Bram",
			Kind:      domain.ActorKindCharacter,
			Ownership: map[string]domain.OwnershipLevel{"user-b": domain.OwnershipOwner},
		},
		&domain.Actor{
			ActorID:   "actor-far",
			WorldID:   "world-2",
			Name:      "Stranger",
			Kind:      domain.ActorKindCharacter,
			Ownership: map[string]domain.OwnershipLevel{"user-a": domain.OwnershipOwner},
		},
	)
	s.settings = services.NewSettingsService(newFakeSettingsRepo())
	s.hub = memory.NewHub()
	s.bus = newRecordingBus()
	definitions := services.NewDefinitionService(s.settings, s.hub, s.bus, nil)
	s.ledger = services.NewLedgerService(s.actors, definitions, s.settings, s.hub, s.bus, nil)
	s.svc = services.NewTransferService(s.ledger, s.actors, s.hub, s.hub, s.bus, nil, 100*time.Millisecond)
	s.ctx = context.Background()

	s.senderSess = domain.Session{SessionID: "sess-a", UserID: "user-a", WorldID: "world-1", ConnectedAt: time.Now().UTC()}
	s.recipientSess = domain.Session{SessionID: "sess-b", UserID: "user-b", WorldID: "world-1", ConnectedAt: time.Now().UTC().Add(time.Millisecond)}
	require.NoError(s.T(), s.hub.Register(s.senderSess))
	require.NoError(s.T(), s.hub.Register(s.recipientSess))
}

// subscribeSession attaches the coordinator as a session's channel handler,
// mirroring what the gateway does per connection.
func (s *TransferServiceTestSuite) subscribeSession(sess domain.Session) func() {
	sc := sess.Context()
	return s.hub.Subscribe(sess.WorldID, func(ctx context.Context, env domain.Envelope) {
		_ = s.svc.HandleEnvelope(ctx, sc, env)
	})
}

func (s *TransferServiceTestSuite) fund(actorID string, currencyID string, qty int64) {
	require.NoError(s.T(), s.ledger.Set(s.ctx, actorID, currencyID, qty))
	// Funding noise is not part of the scenario under test.
	s.bus.mu.Lock()
	s.bus.events = nil
	s.bus.mu.Unlock()
}

func (s *TransferServiceTestSuite) quantity(actorID, currencyID string) int64 {
	ledger, err := s.ledger.GetLedger(s.ctx, actorID)
	require.NoError(s.T(), err)
	return ledger.Quantity(currencyID)
}

func (s *TransferServiceTestSuite) TestTransferSettles() {
	s.fund("actor-a", "gp", 10)
	defer s.subscribeSession(s.senderSess)()
	defer s.subscribeSession(s.recipientSess)()

	requestID, err := s.svc.RequestTransfer(s.ctx, s.senderSess.Context(), domain.TransferPayload{
		FromActorID: "actor-a",
		ToActorID:   "actor-b",
		Items:       []domain.TransferItem{{CurrencyID: "gp", Amount: 5}},
	})
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), requestID)

	assert.Equal(s.T(), int64(5), s.quantity("actor-a", "gp"))
	assert.Equal(s.T(), int64(5), s.quantity("actor-b", "gp"))

	settled := s.bus.named(ports.EventTransferSettled)
	require.Len(s.T(), settled, 1)
	outcome, ok := settled[0].payload.(services.TransferOutcome)
	require.True(s.T(), ok)
	assert.Equal(s.T(), requestID, outcome.RequestID)
	assert.True(s.T(), outcome.OK)

	received := s.bus.named(ports.EventCurrencyReceived)
	require.Len(s.T(), received, 1)
	notice, ok := received[0].payload.(services.ReceivedNotice)
	require.True(s.T(), ok)
	assert.Equal(s.T(), "Aela", notice.FromName)
	assert.Equal(s.T(), "actor-b", notice.ToActorID)
}

func (s *TransferServiceTestSuite) TestTransferMultipleItems() {
	s.fund("actor-a", "gp", 10)
	s.fund("actor-a", "sp", 40)
	defer s.subscribeSession(s.senderSess)()
	defer s.subscribeSession(s.recipientSess)()

	_, err := s.svc.RequestTransfer(s.ctx, s.senderSess.Context(), domain.TransferPayload{
		FromActorID: "actor-a",
		ToActorID:   "actor-b",
		Items: []domain.TransferItem{
			{CurrencyID: "gp", Amount: 3},
			{CurrencyID: "sp", Amount: 15},
		},
	})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int64(7), s.quantity("actor-a", "gp"))
	assert.Equal(s.T(), int64(25), s.quantity("actor-a", "sp"))
	assert.Equal(s.T(), int64(3), s.quantity("actor-b", "gp"))
	assert.Equal(s.T(), int64(15), s.quantity("actor-b", "sp"))
}

func (s *TransferServiceTestSuite) TestLegacySingleCurrencyShape() {
	s.fund("actor-a", "gp", 10)
	defer s.subscribeSession(s.senderSess)()
	defer s.subscribeSession(s.recipientSess)()

	_, err := s.svc.RequestTransfer(s.ctx, s.senderSess.Context(), domain.TransferPayload{
		FromActorID: "actor-a",
		ToActorID:   "actor-b",
		CurrencyID:  "gp",
		Amount:      4,
	})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int64(6), s.quantity("actor-a", "gp"))
	assert.Equal(s.T(), int64(4), s.quantity("actor-b", "gp"))
}

func (s *TransferServiceTestSuite) TestNothingToTransfer() {
	_, err := s.svc.RequestTransfer(s.ctx, s.senderSess.Context(), domain.TransferPayload{
		FromActorID: "actor-a",
		ToActorID:   "actor-b",
		Items:       []domain.TransferItem{{CurrencyID: "gp", Amount: 0}},
	})
	assert.ErrorIs(s.T(), err, apperrors.ErrValidation)
}

func (s *TransferServiceTestSuite) TestInsufficientFundsLeavesLedgersUntouched() {
	s.fund("actor-a", "gp", 3)
	defer s.subscribeSession(s.recipientSess)()

	_, err := s.svc.RequestTransfer(s.ctx, s.senderSess.Context(), domain.TransferPayload{
		FromActorID: "actor-a",
		ToActorID:   "actor-b",
		Items:       []domain.TransferItem{{CurrencyID: "gp", Amount: 5}},
	})
	assert.ErrorIs(s.T(), err, apperrors.ErrInsufficientFunds)

	assert.Equal(s.T(), int64(3), s.quantity("actor-a", "gp"))
	assert.Equal(s.T(), int64(0), s.quantity("actor-b", "gp"))
}

func (s *TransferServiceTestSuite) TestCrossWorldActorForbidden() {
	s.fund("actor-a", "gp", 10)

	_, err := s.svc.RequestTransfer(s.ctx, s.senderSess.Context(), domain.TransferPayload{
		FromActorID: "actor-a",
		ToActorID:   "actor-far",
		Items:       []domain.TransferItem{{CurrencyID: "gp", Amount: 1}},
	})
	assert.ErrorIs(s.T(), err, apperrors.ErrForbidden)
	assert.Equal(s.T(), int64(10), s.quantity("actor-a", "gp"))
}

func (s *TransferServiceTestSuite) TestNoRecipientSessionLeavesSourceUntouched() {
	s.fund("actor-a", "gp", 10)
	s.hub.Unregister("sess-b")

	_, err := s.svc.RequestTransfer(s.ctx, s.senderSess.Context(), domain.TransferPayload{
		FromActorID: "actor-a",
		ToActorID:   "actor-b",
		Items:       []domain.TransferItem{{CurrencyID: "gp", Amount: 5}},
	})
	assert.ErrorIs(s.T(), err, apperrors.ErrNoRecipient)
	assert.Equal(s.T(), int64(10), s.quantity("actor-a", "gp"))
}

func (s *TransferServiceTestSuite) TestGMSessionIsNotARecipient() {
	s.fund("actor-a", "gp", 10)
	s.hub.Unregister("sess-b")
	require.NoError(s.T(), s.hub.Register(domain.Session{
		SessionID:   "sess-gm",
		UserID:      "user-b",
		WorldID:     "world-1",
		IsGM:        true,
		ConnectedAt: time.Now().UTC(),
	}))

	_, err := s.svc.RequestTransfer(s.ctx, s.senderSess.Context(), domain.TransferPayload{
		FromActorID: "actor-a",
		ToActorID:   "actor-b",
		Items:       []domain.TransferItem{{CurrencyID: "gp", Amount: 5}},
	})
	assert.ErrorIs(s.T(), err, apperrors.ErrNoRecipient)
	assert.Equal(s.T(), int64(10), s.quantity("actor-a", "gp"))
}

func (s *TransferServiceTestSuite) TestFailedAcknowledgementRefundsSource() {
	s.fund("actor-a", "gp", 10)
	// Crediting the destination ledger will fail on flag write.
	s.actors.failFlagWrites["actor-b"] = true
	defer s.subscribeSession(s.senderSess)()
	defer s.subscribeSession(s.recipientSess)()

	requestID, err := s.svc.RequestTransfer(s.ctx, s.senderSess.Context(), domain.TransferPayload{
		FromActorID: "actor-a",
		ToActorID:   "actor-b",
		Items:       []domain.TransferItem{{CurrencyID: "gp", Amount: 5}},
	})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int64(10), s.quantity("actor-a", "gp"))
	assert.Equal(s.T(), int64(0), s.quantity("actor-b", "gp"))

	failed := s.bus.named(ports.EventTransferFailed)
	require.Len(s.T(), failed, 1)
	outcome, ok := failed[0].payload.(services.TransferOutcome)
	require.True(s.T(), ok)
	assert.Equal(s.T(), requestID, outcome.RequestID)
	assert.False(s.T(), outcome.OK)
	assert.Equal(s.T(), "credit failed", outcome.Reason)
}

func (s *TransferServiceTestSuite) TestAcknowledgementTimeoutRefundsSource() {
	s.fund("actor-a", "gp", 10)
	// The recipient session is registered but never subscribes, so the
	// request is published and no acknowledgement ever arrives.
	defer s.subscribeSession(s.senderSess)()

	_, err := s.svc.RequestTransfer(s.ctx, s.senderSess.Context(), domain.TransferPayload{
		FromActorID: "actor-a",
		ToActorID:   "actor-b",
		Items:       []domain.TransferItem{{CurrencyID: "gp", Amount: 5}},
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(5), s.quantity("actor-a", "gp"))

	require.Eventually(s.T(), func() bool {
		return len(s.bus.named(ports.EventTransferFailed)) == 1
	}, time.Second, 10*time.Millisecond, "debit should be refunded after the acknowledgement window")

	assert.Equal(s.T(), int64(10), s.quantity("actor-a", "gp"))
	failed := s.bus.named(ports.EventTransferFailed)
	outcome, ok := failed[0].payload.(services.TransferOutcome)
	require.True(s.T(), ok)
	assert.Equal(s.T(), "acknowledgement timeout", outcome.Reason)
}

func (s *TransferServiceTestSuite) TestRedeliveredRequestCreditsOnce() {
	s.fund("actor-a", "gp", 10)
	defer s.subscribeSession(s.senderSess)()

	// Capture the published request instead of handling it, so it can be
	// replayed by hand.
	var request domain.Envelope
	unsubscribe := s.hub.Subscribe("world-1", func(_ context.Context, env domain.Envelope) {
		if env.Op == domain.OpTransferRequest {
			request = env
		}
	})
	defer unsubscribe()

	_, err := s.svc.RequestTransfer(s.ctx, s.senderSess.Context(), domain.TransferPayload{
		FromActorID: "actor-a",
		ToActorID:   "actor-b",
		Items:       []domain.TransferItem{{CurrencyID: "gp", Amount: 5}},
	})
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), request.ID)

	recipientCtx := s.recipientSess.Context()
	require.NoError(s.T(), s.svc.HandleEnvelope(s.ctx, recipientCtx, request))
	require.NoError(s.T(), s.svc.HandleEnvelope(s.ctx, recipientCtx, request))

	assert.Equal(s.T(), int64(5), s.quantity("actor-b", "gp"))
	assert.Len(s.T(), s.bus.named(ports.EventCurrencyReceived), 1)
}

func (s *TransferServiceTestSuite) TestRequestForAnotherSessionIsIgnored() {
	env, err := domain.NewEnvelope("world-1", "sess-a", "sess-elsewhere", &domain.TransferRequestMessage{
		FromActorID: "actor-a",
		ToActorID:   "actor-b",
		Items:       []domain.TransferItem{{CurrencyID: "gp", Amount: 5}},
	})
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.svc.HandleEnvelope(s.ctx, s.recipientSess.Context(), env))
	assert.Equal(s.T(), int64(0), s.quantity("actor-b", "gp"))
}

func (s *TransferServiceTestSuite) TestRequestForUnownedActorIsRejected() {
	defer s.subscribeSession(s.senderSess)()

	// Addressed to the right session, but the session's user does not own
	// the destination actor.
	env, err := domain.NewEnvelope("world-1", "sess-b", "sess-a", &domain.TransferRequestMessage{
		FromActorID: "actor-b",
		ToActorID:   "actor-b",
		Items:       []domain.TransferItem{{CurrencyID: "gp", Amount: 5}},
	})
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.svc.HandleEnvelope(s.ctx, s.senderSess.Context(), env))
	assert.Equal(s.T(), int64(0), s.quantity("actor-b", "gp"))
}

func (s *TransferServiceTestSuite) TestUnknownOpIsRejected() {
	err := s.svc.HandleEnvelope(s.ctx, s.senderSess.Context(), domain.Envelope{
		ID:      "env-1",
		Op:      "teleport",
		WorldID: "world-1",
	})
	assert.ErrorIs(s.T(), err, apperrors.ErrUnknownOp)
}

func TestTransferServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransferServiceTestSuite))
}
