package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangedMessage tells the snapshot worker which months a mutation
// touched. The worker matches months against persisted snapshot windows and
// recomputes the stale ones, so the payload stays small.
type LedgerChangedMessage struct {
	Months    []string  `json:"months"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a change notification for the given
// month keys.
func NewLedgerChangedMessage(months []string, reason string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Months:    months,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
