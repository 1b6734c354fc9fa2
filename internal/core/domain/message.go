package domain

import (
	"encoding/json"
	"fmt"

	"github.com/calderis/companion_backend/internal/apperrors"
	"github.com/google/uuid"
)

// Op tags a channel envelope. The set is closed: envelopes carrying any
// other tag are rejected at decode time.
type Op string

const (
	OpPing               Op = "ping"
	OpTransferRequest    Op = "transfer-request"
	OpTransferResult     Op = "transfer-result"
	OpCurrencySync       Op = "currency-sync"
	OpDefinitionsChanged Op = "definitions-changed"
)

// Envelope is the wire unit of the shared world channel. An empty ToSession
// means world broadcast; targeted envelopes are still delivered to every
// session and filtered by the receiver, matching the host socket semantics.
type Envelope struct {
	ID          string          `json:"id"`
	Op          Op              `json:"op"`
	WorldID     string          `json:"worldId"`
	FromSession string          `json:"fromSession,omitempty"`
	ToSession   string          `json:"toSession,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Message is the closed set of payloads carried by envelopes.
type Message interface {
	Op() Op
}

// PingMessage is a connectivity probe.
type PingMessage struct {
	From string `json:"from"`
}

func (PingMessage) Op() Op { return OpPing }

// TransferRequestMessage asks the owning session of ToActorID to credit the
// listed items. Consumed exactly once by the session named in the envelope.
type TransferRequestMessage struct {
	FromActorID string         `json:"fromActorId"`
	ToActorID   string         `json:"toActorId"`
	FromName    string         `json:"fromName"`
	Items       []TransferItem `json:"items"`
}

func (TransferRequestMessage) Op() Op { return OpTransferRequest }

// TransferResultMessage acknowledges a transfer request back to its sender.
type TransferResultMessage struct {
	RequestID string `json:"requestId"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

func (TransferResultMessage) Op() Op { return OpTransferResult }

// CurrencySyncMessage broadcasts a ledger change so open views refresh.
type CurrencySyncMessage struct {
	ActorID string           `json:"actorId"`
	Changes map[string]int64 `json:"changes"`
}

func (CurrencySyncMessage) Op() Op { return OpCurrencySync }

// DefinitionsChangedMessage broadcasts a bulk definition replacement.
type DefinitionsChangedMessage struct {
	Definitions []CurrencyDefinition `json:"definitions"`
}

func (DefinitionsChangedMessage) Op() Op { return OpDefinitionsChanged }

// NewEnvelope wraps a message for the given world with a fresh random id.
func NewEnvelope(worldID, fromSession, toSession string, msg Message) (Envelope, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode %s payload: %w", msg.Op(), err)
	}
	return Envelope{
		ID:          uuid.NewString(),
		Op:          msg.Op(),
		WorldID:     worldID,
		FromSession: fromSession,
		ToSession:   toSession,
		Payload:     payload,
	}, nil
}

// DecodeMessage resolves an envelope into its typed payload. Unknown ops are
// rejected with apperrors.ErrUnknownOp rather than silently ignored.
func DecodeMessage(env Envelope) (Message, error) {
	var msg Message
	switch env.Op {
	case OpPing:
		msg = &PingMessage{}
	case OpTransferRequest:
		msg = &TransferRequestMessage{}
	case OpTransferResult:
		msg = &TransferResultMessage{}
	case OpCurrencySync:
		msg = &CurrencySyncMessage{}
	case OpDefinitionsChanged:
		msg = &DefinitionsChangedMessage{}
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownOp, env.Op)
	}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, msg); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", env.Op, err)
		}
	}
	return msg, nil
}
