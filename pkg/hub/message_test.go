package hub

import (
	"encoding/json"
	"testing"
)

func TestNewMessage(t *testing.T) {
	msg, ok := NewMessage(KindEvent, map[string]string{"id": "abc"})
	if !ok {
		t.Fatal("payload should encode")
	}
	if msg.Kind != KindEvent {
		t.Errorf("kind: got %q, want %q", msg.Kind, KindEvent)
	}
	if msg.Time.IsZero() {
		t.Error("message has no timestamp")
	}

	var data map[string]string
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data["id"] != "abc" {
		t.Errorf("data: got %v", data)
	}
}

func TestNewMessage_UnencodablePayload(t *testing.T) {
	if _, ok := NewMessage(KindStatus, make(chan int)); ok {
		t.Error("channel payload should not encode")
	}
}

func TestMessage_Encode(t *testing.T) {
	msg, _ := NewMessage(KindSession, map[string]int{"total_events": 3})
	raw := msg.Encode()
	if raw == nil {
		t.Fatal("encode returned nil")
	}

	var decoded Message
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if decoded.Kind != KindSession {
		t.Errorf("kind: got %q, want %q", decoded.Kind, KindSession)
	}
}
