package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	KindOrder   = "order"
	KindExpense = "expense"
)

// LedgerSyncMessage asks the worker to export one record to the ledger
// spreadsheet. It carries only the kind and row ID; the worker fetches the
// full record from the database.
type LedgerSyncMessage struct {
	MessageID string    `json:"message_id"`
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerSyncMessage(kind string, id int64) *LedgerSyncMessage {
	return &LedgerSyncMessage{
		MessageID: uuid.NewString(),
		Kind:      kind,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *LedgerSyncMessage) Validate() error {
	switch m.Kind {
	case KindOrder, KindExpense:
	default:
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
	if m.ID <= 0 {
		return fmt.Errorf("invalid record id %d", m.ID)
	}
	return nil
}

func (m *LedgerSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSyncMessageFromJSON(data []byte) (*LedgerSyncMessage, error) {
	var msg LedgerSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
