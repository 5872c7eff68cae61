package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/relaypoint/push-service/internal/domain"
)

// Attribute keys the broker interprets at connect time for room auto-join.
// This convention is broker policy, not a registry/index concern.
const (
	AttrProjectID   = "project_id"
	AttrWorkspaceID = "workspace_id"
)

const defaultSendTimeout = 5 * time.Second

// Broker composes the connection registry and the room index under one
// consistency boundary and implements delivery, broadcast and liveness
// sweeping. One instance is constructed at startup and passed by handle to the
// transport layer, publishers and the sweep timer; there is no global state.
//
// Sink delivery is never performed while holding either internal lock:
// broadcasts snapshot membership first, then fan out.
type Broker struct {
	registry *Registry
	rooms    *RoomIndex

	sendTimeout time.Duration
}

func New(sendTimeout time.Duration) *Broker {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &Broker{
		registry:    NewRegistry(),
		rooms:       NewRoomIndex(),
		sendTimeout: sendTimeout,
	}
}

// Connect registers a new connection for the given user and returns its fresh
// connection ID. If the attributes carry a project or workspace hint, the
// connection is auto-joined to the matching room.
func (b *Broker) Connect(sink domain.Sink, userID string, attrs map[string]string) (string, error) {
	now := time.Now()
	conn := &domain.Connection{
		ID:              uuid.New().String(),
		UserID:          userID,
		Attributes:      copyAttrs(attrs),
		ConnectedAt:     now,
		LastHeartbeatAt: now,
		Sink:            sink,
	}

	if err := b.registry.Add(conn); err != nil {
		// Only reachable if the ID generator produced a collision.
		slog.Error("broker.Connect: register failed", "connID", conn.ID, "userID", userID, "err", err)
		return "", err
	}

	if v := conn.Attributes[AttrProjectID]; v != "" {
		b.rooms.Join(conn.ID, "project:"+v)
	}
	if v := conn.Attributes[AttrWorkspaceID]; v != "" {
		b.rooms.Join(conn.ID, "workspace:"+v)
	}

	slog.Debug("connection registered", "connID", conn.ID, "userID", userID)
	return conn.ID, nil
}

// Disconnect removes the connection from every room and from the registry.
// Safe to call redundantly (read-loop error path and close handler both call
// it) and with an empty ID; repeat calls are no-ops.
//
// The room index is released before the registry is touched, so an in-flight
// broadcast iterating a membership snapshot at most attempts one last delivery
// to a now-gone sink, which is reported as a delivery failure.
func (b *Broker) Disconnect(connID string) {
	if connID == "" {
		return
	}
	b.rooms.LeaveAll(connID)
	if conn, ok := b.registry.Remove(connID); ok {
		slog.Debug("connection removed", "connID", connID, "userID", conn.UserID)
	}
}

func (b *Broker) JoinRoom(connID, room string) error {
	if _, ok := b.registry.Get(connID); !ok {
		return fmt.Errorf("join %q: %w", room, domain.ErrUnknownConnection)
	}
	b.rooms.Join(connID, room)
	return nil
}

// LeaveRoom is idempotent for rooms the connection never joined; it only fails
// when the connection itself is unknown.
func (b *Broker) LeaveRoom(connID, room string) error {
	if _, ok := b.registry.Get(connID); !ok {
		return fmt.Errorf("leave %q: %w", room, domain.ErrUnknownConnection)
	}
	b.rooms.Leave(connID, room)
	return nil
}

// SendToConnection delivers one message to one connection. A failed delivery
// is surfaced, not escalated: the transport's read loop observes the same
// underlying closure and owns the disconnect decision, so a transient write
// error never removes a connection the transport still believes is live.
func (b *Broker) SendToConnection(connID string, msg domain.Message) error {
	conn, ok := b.registry.Get(connID)
	if !ok {
		return fmt.Errorf("send: %w", domain.ErrUnknownConnection)
	}
	return b.deliver(conn, msg)
}

func (b *Broker) deliver(conn *domain.Connection, msg domain.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.sendTimeout)
	defer cancel()

	if err := conn.Sink.Deliver(ctx, msg); err != nil {
		slog.Warn("delivery failed", "connID", conn.ID, "type", msg.Type, "err", err)
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	return nil
}

// BroadcastToRoom fans a message out to every current member of the room not
// listed in exclude. Membership is snapshotted up front; deliveries happen
// outside all locks and individual failures never block the rest.
func (b *Broker) BroadcastToRoom(room string, msg domain.Message, exclude map[string]struct{}) DeliveryReport {
	members := b.rooms.Members(room)
	report := newDeliveryReport(len(members))

	for _, connID := range members {
		if _, skip := exclude[connID]; skip {
			continue
		}
		b.sendTo(connID, msg, &report)
	}
	return report
}

// BroadcastToUser fans a message out to every connection the user currently
// holds, with the same best-effort semantics as BroadcastToRoom.
func (b *Broker) BroadcastToUser(userID string, msg domain.Message) DeliveryReport {
	conns := b.registry.ConnectionsForUser(userID)
	report := newDeliveryReport(len(conns))

	for _, connID := range conns {
		b.sendTo(connID, msg, &report)
	}
	return report
}

func (b *Broker) sendTo(connID string, msg domain.Message, report *DeliveryReport) {
	conn, ok := b.registry.Get(connID)
	if !ok {
		// Disconnected between snapshot and delivery.
		report.fail(connID, domain.ErrUnknownConnection)
		return
	}
	if err := b.deliver(conn, msg); err != nil {
		report.fail(connID, err)
		return
	}
	report.ok(connID)
}

func (b *Broker) UpdateHeartbeat(connID string) error {
	if !b.registry.UpdateHeartbeat(connID, time.Now()) {
		return fmt.Errorf("heartbeat: %w", domain.ErrUnknownConnection)
	}
	return nil
}

// HeartbeatSweep disconnects every connection whose last heartbeat is older
// than the threshold and returns the reaped IDs. The periodic timer driving it
// is owned by the caller.
func (b *Broker) HeartbeatSweep(threshold time.Duration) []string {
	stale := b.registry.AllStale(threshold, time.Now())
	for _, connID := range stale {
		b.Disconnect(connID)
	}
	if len(stale) > 0 {
		slog.Info("heartbeat sweep reaped stale connections", "count", len(stale), "threshold", threshold)
	}
	return stale
}

// RoomsFor reports which rooms the connection currently belongs to.
func (b *Broker) RoomsFor(connID string) []string {
	return b.rooms.RoomsFor(connID)
}

// Stats reports current connection and room counts.
func (b *Broker) Stats() (connections, rooms int) {
	connections = b.registry.Len()
	rooms = b.rooms.Len()
	return connections, rooms
}

// Shutdown disconnects every registered connection, closing sinks that
// support closing. Called once by the composition root.
func (b *Broker) Shutdown() {
	for _, connID := range b.registry.AllIDs() {
		conn, ok := b.registry.Get(connID)
		b.Disconnect(connID)
		if !ok {
			continue
		}
		if closer, ok := conn.Sink.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	slog.Info("broker shut down")
}

func copyAttrs(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
