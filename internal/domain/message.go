package domain

import "encoding/json"

// Message kinds recognized on the wire. Inbound kinds without special handling
// are echoed back (TypeEcho), never dropped.
const (
	TypeHeartbeat    = "heartbeat"     // updates liveness state
	TypeHeartbeatAck = "heartbeat_ack" // reply to heartbeat
	TypeSubscribe    = "subscribe"     // join a room
	TypeSubscribed   = "subscribed"    // reply to subscribe
	TypeUnsubscribe  = "unsubscribe"   // leave a room
	TypeUnsubscribed = "unsubscribed"  // reply to unsubscribe
	TypePing         = "ping"          // health probe, does not touch liveness
	TypePong         = "pong"          // reply to ping
	TypeEcho         = "echo"          // passthrough envelope for unknown kinds
	TypeError        = "error"         // error reply
	TypeWelcome      = "welcome"       // first message after connect
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Inbound is a parsed client frame. The broker inspects only Type and Room;
// Payload stays opaque.
type Inbound struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type WelcomePayload struct {
	ConnectionID string   `json:"connection_id"`
	Rooms        []string `json:"rooms,omitempty"`
}

type RoomPayload struct {
	Room string `json:"room"`
}

type ErrorPayload struct {
	Reason string `json:"reason"`
	Room   string `json:"room,omitempty"`
}

type EchoPayload struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
