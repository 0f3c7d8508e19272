package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"wealthwise/internal/core"
)

const (
	OpInsertTransaction = "insert_transaction"
	OpDeleteTransaction = "delete_transaction"
	OpUpsertBudget      = "upsert_budget"
)

// MirrorMessage carries one local mutation to the mirror worker. It is
// self-contained: the worker applies it to the remote store without reading
// local state, so delivery order only matters per ledger entry.
type MirrorMessage struct {
	Op            string            `json:"op"`
	UserID        string            `json:"user_id"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Transaction   *core.Transaction `json:"transaction,omitempty"`
	Budget        *core.Budget      `json:"budget,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

func NewInsertMessage(identity core.Identity, t core.Transaction) *MirrorMessage {
	return &MirrorMessage{
		Op:          OpInsertTransaction,
		UserID:      identity.UserID(),
		Transaction: &t,
		Timestamp:   time.Now(),
	}
}

func NewDeleteMessage(identity core.Identity, transactionID string) *MirrorMessage {
	return &MirrorMessage{
		Op:            OpDeleteTransaction,
		UserID:        identity.UserID(),
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

func NewUpsertBudgetMessage(identity core.Identity, b core.Budget) *MirrorMessage {
	return &MirrorMessage{
		Op:        OpUpsertBudget,
		UserID:    identity.UserID(),
		Budget:    &b,
		Timestamp: time.Now(),
	}
}

func (m *MirrorMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MirrorMessageFromJSON(data []byte) (*MirrorMessage, error) {
	var msg MirrorMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *MirrorMessage) validate() error {
	if m.UserID == "" {
		return fmt.Errorf("mirror message without user id")
	}
	switch m.Op {
	case OpInsertTransaction:
		if m.Transaction == nil {
			return fmt.Errorf("%s message without transaction", m.Op)
		}
	case OpDeleteTransaction:
		if m.TransactionID == "" {
			return fmt.Errorf("%s message without transaction id", m.Op)
		}
	case OpUpsertBudget:
		if m.Budget == nil {
			return fmt.Errorf("%s message without budget", m.Op)
		}
	default:
		return fmt.Errorf("unknown mirror operation: %s", m.Op)
	}
	return nil
}
