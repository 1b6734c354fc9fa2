package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/calderis/companion_backend/internal/core/domain"
	"github.com/calderis/companion_backend/internal/core/ports"
)

const defaultAckTimeout = 30 * time.Second

// appliedWindow remembers the most recent request ids credited on the
// receiving side so a re-delivered request cannot double-credit.
type appliedWindow struct {
	ids  map[string]struct{}
	ring []string
	next int
}

func newAppliedWindow(size int) *appliedWindow {
	return &appliedWindow{ids: make(map[string]struct{}, size), ring: make([]string, size)}
}

func (w *appliedWindow) seen(id string) bool {
	_, ok := w.ids[id]
	return ok
}

func (w *appliedWindow) mark(id string) {
	if old := w.ring[w.next]; old != "" {
		delete(w.ids, old)
	}
	w.ring[w.next] = id
	w.ids[id] = struct{}{}
	w.next = (w.next + 1) % len(w.ring)
}

// TransferOutcome is the local event payload for a settled or failed
// transfer on the initiating side.
type TransferOutcome struct {
	RequestID   string                `json:"requestId"`
	FromActorID string                `json:"fromActorId"`
	ToActorID   string                `json:"toActorId"`
	Items       []domain.TransferItem `json:"items"`
	OK          bool                  `json:"ok"`
	Reason      string                `json:"reason,omitempty"`
}

// ReceivedNotice is the local event payload surfaced on the receiving side.
type ReceivedNotice struct {
	RequestID string                `json:"requestId"`
	FromName  string                `json:"fromName"`
	ToActorID string                `json:"toActorId"`
	Items     []domain.TransferItem `json:"items"`
}

type pendingTransfer struct {
	fromActorID string
	toActorID   string
	items       []domain.TransferItem
	timer       *time.Timer
}

// TransferService coordinates moving currency between actors owned by
// different sessions over the shared world channel.
//
// A transfer runs Validating -> Debited -> AwaitingRecipient -> Settled or
// Failed. Unlike the naive flow, the recipient session is resolved before
// any debit, so a resolution failure mutates nothing; after the debit every
// failure path (publish error, failed acknowledgement, acknowledgement
// timeout) credits the debited items back to the source ledger.
type TransferService struct {
	ledger     ports.LedgerSvcFacade
	actors     ports.ActorRepository
	sessions   ports.SessionRegistry
	channel    ports.Channel
	bus        ports.EventBus
	logger     *slog.Logger
	ackTimeout time.Duration

	mu      sync.Mutex
	pending map[string]*pendingTransfer
	applied *appliedWindow
}

func NewTransferService(
	ledger ports.LedgerSvcFacade,
	actors ports.ActorRepository,
	sessions ports.SessionRegistry,
	channel ports.Channel,
	bus ports.EventBus,
	logger *slog.Logger,
	ackTimeout time.Duration,
) *TransferService {
	if logger == nil {
		logger = slog.Default()
	}
	if ackTimeout <= 0 {
		ackTimeout = defaultAckTimeout
	}
	return &TransferService{
		ledger:     ledger,
		actors:     actors,
		sessions:   sessions,
		channel:    channel,
		bus:        bus,
		logger:     logger,
		ackTimeout: ackTimeout,
		pending:    make(map[string]*pendingTransfer),
		applied:    newAppliedWindow(256),
	}
}

// RequestTransfer validates funds, resolves the recipient session, debits
// the source ledger, and publishes a transfer request addressed to the
// resolved session. It returns the request id used to correlate the
// acknowledgement.
func (s *TransferService) RequestTransfer(ctx context.Context, sess domain.SessionContext, payload domain.TransferPayload) (string, error) {
	items := payload.NormalizeItems()
	if len(items) == 0 {
		return "", fmt.Errorf("%w: nothing to transfer", apperrors.ErrValidation)
	}

	from, err := s.actors.FindActorByID(ctx, payload.FromActorID)
	if err != nil {
		return "", fmt.Errorf("source actor %s: %w", payload.FromActorID, err)
	}
	to, err := s.actors.FindActorByID(ctx, payload.ToActorID)
	if err != nil {
		return "", fmt.Errorf("destination actor %s: %w", payload.ToActorID, err)
	}
	if from.WorldID != sess.WorldID || to.WorldID != sess.WorldID {
		return "", fmt.Errorf("%w: actors belong to another world", apperrors.ErrForbidden)
	}

	ledger, err := s.ledger.GetLedger(ctx, from.ActorID)
	if err != nil {
		return "", err
	}
	for _, it := range items {
		if ledger.Quantity(it.CurrencyID) < it.Amount {
			return "", fmt.Errorf("%w: %s", apperrors.ErrInsufficientFunds, it.CurrencyID)
		}
	}

	// Resolve the recipient before touching any ledger so a resolution
	// failure leaves both sides untouched.
	recipient, ok := s.resolveRecipient(sess, to)
	if !ok {
		return "", apperrors.ErrNoRecipient
	}

	debited := make([]domain.TransferItem, 0, len(items))
	for _, it := range items {
		current, err := s.ledger.GetLedger(ctx, from.ActorID)
		if err == nil {
			err = s.ledger.Set(ctx, from.ActorID, it.CurrencyID, current.Quantity(it.CurrencyID)-it.Amount)
		}
		if err != nil {
			s.refund(ctx, from.ActorID, debited)
			return "", fmt.Errorf("failed to debit %s: %w", it.CurrencyID, err)
		}
		debited = append(debited, it)
	}

	fromName := payload.FromName
	if fromName == "" {
		fromName = from.Name
	}
	env, err := domain.NewEnvelope(sess.WorldID, sess.SessionID, recipient.SessionID, &domain.TransferRequestMessage{
		FromActorID: from.ActorID,
		ToActorID:   to.ActorID,
		FromName:    fromName,
		Items:       items,
	})
	if err != nil {
		s.refund(ctx, from.ActorID, items)
		return "", err
	}

	p := &pendingTransfer{fromActorID: from.ActorID, toActorID: to.ActorID, items: items}
	p.timer = time.AfterFunc(s.ackTimeout, func() { s.expire(env.ID) })
	s.mu.Lock()
	s.pending[env.ID] = p
	s.mu.Unlock()

	if err := s.channel.Publish(ctx, env); err != nil {
		if p := s.pop(env.ID); p != nil {
			s.refund(ctx, p.fromActorID, p.items)
		}
		return "", fmt.Errorf("failed to publish transfer request: %w", err)
	}
	return env.ID, nil
}

// HandleEnvelope processes one channel delivery on behalf of a session.
// Envelopes addressed to other sessions are ignored; unknown ops are
// rejected with an error.
func (s *TransferService) HandleEnvelope(ctx context.Context, sess domain.SessionContext, env domain.Envelope) error {
	msg, err := domain.DecodeMessage(env)
	if err != nil {
		return err
	}
	switch m := msg.(type) {
	case *domain.PingMessage:
		s.logger.Debug("ping received", slog.String("from", m.From), slog.String("session_id", sess.SessionID))
		return nil
	case *domain.TransferRequestMessage:
		if env.ToSession != sess.SessionID {
			return nil
		}
		return s.receive(ctx, sess, env, m)
	case *domain.TransferResultMessage:
		if env.ToSession != sess.SessionID {
			return nil
		}
		s.settle(ctx, m)
		return nil
	case *domain.CurrencySyncMessage, *domain.DefinitionsChangedMessage:
		// View refresh traffic; forwarded to clients by the gateway.
		return nil
	default:
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownOp, env.Op)
	}
}

// receive applies a transfer request addressed to this session: verify local
// ownership of the destination actor, credit every item, and acknowledge.
func (s *TransferService) receive(ctx context.Context, sess domain.SessionContext, env domain.Envelope, m *domain.TransferRequestMessage) error {
	s.mu.Lock()
	alreadyApplied := s.applied.seen(env.ID)
	s.mu.Unlock()
	if alreadyApplied {
		// Re-delivery: acknowledge again without crediting twice.
		return s.acknowledge(ctx, sess, env, true, "")
	}

	to, err := s.actors.FindActorByID(ctx, m.ToActorID)
	if err != nil {
		return s.acknowledge(ctx, sess, env, false, "destination actor not found")
	}
	// Defense in depth against a stale resolution on the sending side.
	if !to.OwnedBy(sess.UserID) {
		return s.acknowledge(ctx, sess, env, false, "session does not own destination actor")
	}

	for _, it := range m.Items {
		if it.CurrencyID == "" || it.Amount <= 0 {
			continue
		}
		if err := s.ledger.Add(ctx, to.ActorID, it.CurrencyID, it.Amount); err != nil {
			s.logger.Error("credit failed", slog.String("actor_id", to.ActorID), slog.String("currency_id", it.CurrencyID), slog.String("error", err.Error()))
			return s.acknowledge(ctx, sess, env, false, "credit failed")
		}
	}

	s.mu.Lock()
	s.applied.mark(env.ID)
	s.mu.Unlock()

	s.bus.Emit(ports.EventCurrencyReceived, ReceivedNotice{
		RequestID: env.ID,
		FromName:  m.FromName,
		ToActorID: to.ActorID,
		Items:     m.Items,
	})
	return s.acknowledge(ctx, sess, env, true, "")
}

func (s *TransferService) acknowledge(ctx context.Context, sess domain.SessionContext, req domain.Envelope, ok bool, reason string) error {
	ack, err := domain.NewEnvelope(sess.WorldID, sess.SessionID, req.FromSession, &domain.TransferResultMessage{
		RequestID: req.ID,
		OK:        ok,
		Error:     reason,
	})
	if err != nil {
		return err
	}
	if err := s.channel.Publish(ctx, ack); err != nil {
		return fmt.Errorf("failed to publish transfer result: %w", err)
	}
	return nil
}

// settle resolves a pending transfer on the initiating side. A failed
// acknowledgement credits the debited items back to the source.
func (s *TransferService) settle(ctx context.Context, m *domain.TransferResultMessage) {
	p := s.pop(m.RequestID)
	if p == nil {
		s.logger.Warn("acknowledgement for unknown transfer", slog.String("request_id", m.RequestID))
		return
	}
	p.timer.Stop()
	if m.OK {
		s.bus.Emit(ports.EventTransferSettled, TransferOutcome{
			RequestID:   m.RequestID,
			FromActorID: p.fromActorID,
			ToActorID:   p.toActorID,
			Items:       p.items,
			OK:          true,
		})
		return
	}
	s.refund(ctx, p.fromActorID, p.items)
	s.bus.Emit(ports.EventTransferFailed, TransferOutcome{
		RequestID:   m.RequestID,
		FromActorID: p.fromActorID,
		ToActorID:   p.toActorID,
		Items:       p.items,
		Reason:      m.Error,
	})
}

// expire fires when no acknowledgement arrived within the timeout window.
func (s *TransferService) expire(requestID string) {
	p := s.pop(requestID)
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Warn("transfer acknowledgement timed out", slog.String("request_id", requestID))
	s.refund(ctx, p.fromActorID, p.items)
	s.bus.Emit(ports.EventTransferFailed, TransferOutcome{
		RequestID:   requestID,
		FromActorID: p.fromActorID,
		ToActorID:   p.toActorID,
		Items:       p.items,
		Reason:      "acknowledgement timeout",
	})
}

func (s *TransferService) pop(requestID string) *pendingTransfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending[requestID]
	delete(s.pending, requestID)
	return p
}

// refund is the compensating credit applied whenever a transfer fails after
// the source was debited.
func (s *TransferService) refund(ctx context.Context, actorID string, items []domain.TransferItem) {
	for _, it := range items {
		if err := s.ledger.Add(ctx, actorID, it.CurrencyID, it.Amount); err != nil {
			s.logger.Error("compensating credit failed", slog.String("actor_id", actorID), slog.String("currency_id", it.CurrencyID), slog.String("error", err.Error()))
		}
	}
}

// resolveRecipient picks the session that should apply the credit: the
// first connected non-GM session whose user owns the destination actor.
func (s *TransferService) resolveRecipient(sess domain.SessionContext, to *domain.Actor) (domain.Session, bool) {
	for _, candidate := range s.sessions.Sessions(sess.WorldID) {
		if candidate.IsGM {
			continue
		}
		if to.OwnedBy(candidate.UserID) {
			return candidate, true
		}
	}
	return domain.Session{}, false
}
