package broker

import (
	"errors"
	"log/slog"

	"github.com/relaypoint/push-service/internal/domain"
)

// HandleInbound applies the control-plane policy for one received frame. The
// transport calls it once per message; replies go back through the
// connection's own sink.
//
// Recognized kinds: heartbeat, subscribe, unsubscribe, ping. Anything else is
// echoed back verbatim in an echo envelope so clients can layer ad hoc
// protocols on top without broker changes.
func (b *Broker) HandleInbound(connID string, in domain.Inbound) {
	switch in.Type {
	case domain.TypeHeartbeat:
		if err := b.UpdateHeartbeat(connID); err != nil {
			slog.Debug("heartbeat from unknown connection", "connID", connID)
			return
		}
		b.reply(connID, domain.Message{Type: domain.TypeHeartbeatAck})

	case domain.TypeSubscribe:
		if in.Room == "" {
			b.reply(connID, domain.Message{
				Type:    domain.TypeError,
				Payload: domain.ErrorPayload{Reason: "subscribe requires a room"},
			})
			return
		}
		if err := b.JoinRoom(connID, in.Room); err != nil {
			b.reply(connID, domain.Message{
				Type:    domain.TypeError,
				Payload: domain.ErrorPayload{Reason: err.Error(), Room: in.Room},
			})
			return
		}
		b.reply(connID, domain.Message{
			Type:    domain.TypeSubscribed,
			Payload: domain.RoomPayload{Room: in.Room},
		})

	case domain.TypeUnsubscribe:
		if in.Room == "" {
			b.reply(connID, domain.Message{
				Type:    domain.TypeError,
				Payload: domain.ErrorPayload{Reason: "unsubscribe requires a room"},
			})
			return
		}
		if err := b.LeaveRoom(connID, in.Room); err != nil {
			b.reply(connID, domain.Message{
				Type:    domain.TypeError,
				Payload: domain.ErrorPayload{Reason: err.Error(), Room: in.Room},
			})
			return
		}
		b.reply(connID, domain.Message{
			Type:    domain.TypeUnsubscribed,
			Payload: domain.RoomPayload{Room: in.Room},
		})

	case domain.TypePing:
		// Health probe only; unlike heartbeat it does not touch liveness.
		b.reply(connID, domain.Message{Type: domain.TypePong})

	default:
		b.reply(connID, domain.Message{
			Type:    domain.TypeEcho,
			Payload: domain.EchoPayload{Type: in.Type, Payload: in.Payload},
		})
	}
}

func (b *Broker) reply(connID string, msg domain.Message) {
	if err := b.SendToConnection(connID, msg); err != nil && !errors.Is(err, domain.ErrUnknownConnection) {
		slog.Debug("reply not delivered", "connID", connID, "type", msg.Type, "err", err)
	}
}
