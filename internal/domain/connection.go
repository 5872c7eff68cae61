package domain

import (
	"context"
	"time"
)

// Sink is the delivery capability for one connection. It is created by the
// transport layer and handed to the broker at connect time; only the broker
// invokes it, so write failures are handled in one place.
type Sink interface {
	Deliver(ctx context.Context, msg Message) error
}

// Connection is one live logical session with a remote party. A user may hold
// several connections at once (multiple tabs).
type Connection struct {
	ID              string
	UserID          string
	Attributes      map[string]string // routing hints, immutable after creation
	ConnectedAt     time.Time
	LastHeartbeatAt time.Time
	Sink            Sink
}
