// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import (
	"encoding/json"
	"time"
)

// Kind labels what a broadcast message carries.
type Kind string

const (
	// KindEvent is an integrity event emitted by a monitor.
	KindEvent Kind = "event"
	// KindSession is a session lifecycle change.
	KindSession Kind = "session"
	// KindStatus is monitor status (started, stopped).
	KindStatus Kind = "status"
)

// Message is one broadcast payload, JSON on the wire.
type Message struct {
	Kind Kind            `json:"kind"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data"`
}

// NewMessage encodes a payload into a broadcast message.
// Unencodable payloads return ok=false and are dropped by callers.
func NewMessage(kind Kind, payload any) (Message, bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, false
	}
	return Message{Kind: kind, Time: time.Now(), Data: data}, true
}

// Encode renders the full message as JSON for the wire.
func (m Message) Encode() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return data
}
