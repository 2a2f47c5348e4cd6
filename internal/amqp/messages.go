package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
)

// EntryRecordedMessage announces an entry that has been appended to the ledger.
// Fields carry the persisted string forms so the consumer re-validates exactly
// what the file holds.
type EntryRecordedMessage struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Amount    string    `json:"amount"`
	Category  string    `json:"category"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntryRecordedMessage stamps e with a fresh event ID.
func NewEntryRecordedMessage(e core.Entry) *EntryRecordedMessage {
	return &EntryRecordedMessage{
		ID:        uuid.NewString(),
		Kind:      e.Kind.String(),
		Amount:    core.FormatAmount(e.Amount),
		Category:  e.Category,
		Date:      e.Date.String(),
		Timestamp: time.Now().UTC(),
	}
}

// Entry rebuilds the entry through the same validation as user input.
func (m *EntryRecordedMessage) Entry() (core.Entry, error) {
	return core.NewEntry(m.Kind, m.Amount, m.Category, m.Date)
}

// ToJSON converts the message to JSON bytes
func (m *EntryRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryRecordedMessageFromJSON decodes a message body.
func EntryRecordedMessageFromJSON(data []byte) (*EntryRecordedMessage, error) {
	var msg EntryRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
