package amqp

import "testing"

func TestLedgerSyncMessageRoundTrip(t *testing.T) {
	msg := NewLedgerSyncMessage(KindOrder, 42)
	if msg.MessageID == "" {
		t.Fatalf("expected message id to be set")
	}
	if msg.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := LedgerSyncMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.MessageID != msg.MessageID || got.Kind != KindOrder || got.ID != 42 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("timestamp mismatch: %v vs %v", got.Timestamp, msg.Timestamp)
	}
}

func TestLedgerSyncMessageValidate(t *testing.T) {
	cases := []struct {
		name string
		msg  LedgerSyncMessage
		ok   bool
	}{
		{"order", LedgerSyncMessage{Kind: KindOrder, ID: 1}, true},
		{"expense", LedgerSyncMessage{Kind: KindExpense, ID: 7}, true},
		{"unknown kind", LedgerSyncMessage{Kind: "refund", ID: 1}, false},
		{"empty kind", LedgerSyncMessage{ID: 1}, false},
		{"zero id", LedgerSyncMessage{Kind: KindOrder}, false},
		{"negative id", LedgerSyncMessage{Kind: KindOrder, ID: -3}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLedgerSyncMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := LedgerSyncMessageFromJSON([]byte("not json")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
	if _, err := LedgerSyncMessageFromJSON([]byte(`{"kind":"order","id":0}`)); err == nil {
		t.Fatalf("expected validation error for zero id")
	}
}
