package events

import (
	"context"
	"encoding/json"
	"testing"
)

func TestTransactionInitiatedEnvelope(t *testing.T) {
	event := NewTransactionInitiated(TransactionPayload{
		TransactionID: "txn-1",
		FromWallet:    "w1",
		ToWallet:      "w2",
		Amount:        100,
		Currency:      "USD",
		Timestamp:     1700000000,
	})

	if event.Type != EventTransactionInitiated {
		t.Fatalf("unexpected type: %s", event.Type)
	}
	if event.Timestamp != event.Payload.Timestamp {
		t.Fatal("envelope timestamp should mirror payload timestamp")
	}

	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["event_type"] != "TransactionInitiated" {
		t.Fatalf("unexpected event_type: %v", decoded["event_type"])
	}
	payload, ok := decoded["payload"].(map[string]any)
	if !ok {
		t.Fatalf("missing payload: %v", decoded)
	}
	for _, field := range []string{"transaction_id", "from_wallet", "to_wallet", "amount", "currency", "timestamp"} {
		if _, ok := payload[field]; !ok {
			t.Fatalf("payload missing %s: %v", field, payload)
		}
	}
}

func TestLogPublisherNeverFails(t *testing.T) {
	var p *LogPublisher
	if err := p.Publish(context.Background(), Event{}); err != nil {
		t.Fatalf("nil publisher: %v", err)
	}
	if err := NewLogPublisher(nil).Publish(context.Background(), Event{}); err != nil {
		t.Fatalf("nil logger: %v", err)
	}
}
