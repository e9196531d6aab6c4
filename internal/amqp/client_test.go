package amqp

import (
	"testing"
	"time"
)

func TestNewLedgerChangedMessage(t *testing.T) {
	months := []string{"2024-03", "2024-04"}

	msg := NewLedgerChangedMessage(months, "transactions_created")

	if len(msg.Months) != 2 {
		t.Fatalf("NewLedgerChangedMessage() Months = %v, want 2 entries", msg.Months)
	}
	if msg.Months[0] != "2024-03" || msg.Months[1] != "2024-04" {
		t.Errorf("NewLedgerChangedMessage() Months = %v, want %v", msg.Months, months)
	}
	if msg.Reason != "transactions_created" {
		t.Errorf("NewLedgerChangedMessage() Reason = %v, want transactions_created", msg.Reason)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewLedgerChangedMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewLedgerChangedMessage() Timestamp should be recent")
	}
}

func TestLedgerChangedMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &LedgerChangedMessage{
		Months:    []string{"2024-01"},
		Reason:    "statement_updated",
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := LedgerChangedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("LedgerChangedMessageFromJSON() error = %v", err)
	}

	if len(parsedMsg.Months) != 1 || parsedMsg.Months[0] != "2024-01" {
		t.Errorf("Parsed Months = %v, want [2024-01]", parsedMsg.Months)
	}
	if parsedMsg.Reason != msg.Reason {
		t.Errorf("Parsed Reason = %v, want %v", parsedMsg.Reason, msg.Reason)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestLedgerChangedMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"months": "not_a_list", "reason": 1}`)

	_, err := LedgerChangedMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("LedgerChangedMessageFromJSON() should fail with invalid JSON")
	}
}
