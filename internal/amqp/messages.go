package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeOp names the ledger mutation that produced a message.
type ChangeOp string

const (
	OpUpsert ChangeOp = "upsert"
	OpDelete ChangeOp = "delete"
)

// LedgerChangeMessage is a lightweight notification that the ledger changed.
// It carries no transaction payload; consumers reload the ledger from its slot.
type LedgerChangeMessage struct {
	Op        ChangeOp  `json:"op"`
	ID        string    `json:"id"`
	Revision  uint64    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangeMessage creates a change message stamped with the current time
func NewLedgerChangeMessage(op ChangeOp, id string, revision uint64) *LedgerChangeMessage {
	return &LedgerChangeMessage{
		Op:        op,
		ID:        id,
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON decodes a message and checks its operation
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpUpsert, OpDelete:
	default:
		return nil, fmt.Errorf("unknown op %q", msg.Op)
	}
	return &msg, nil
}
