package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relaypoint/push-service/internal/broker"
	"github.com/relaypoint/push-service/internal/domain"
	"github.com/relaypoint/push-service/internal/security"
)

type Config struct {
	ReadLimit    int64
	PingInterval time.Duration
	WriteTimeout time.Duration
}

// Server is the transport adapter: it owns the accept loop, framing and the
// per-socket read/write goroutines, and calls into the broker's thread-safe
// operations. The broker itself holds no loop and no per-connection task.
type Server struct {
	upgrader websocket.Upgrader
	broker   *broker.Broker
	verifier security.Verifier
	cfg      Config
}

func NewServer(b *broker.Broker, verifier security.Verifier, cfg Config) *Server {
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 1 << 20
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &Server{
		broker:   b,
		verifier: verifier,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// WS endpoint: GET /ws?access_token=...&project_id=...&workspace_id=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := strings.TrimSpace(q.Get("access_token"))
	if token == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	principal, err := s.verifier.Authenticate(token)
	if err != nil {
		slog.Warn("ws auth failed", "err", err)
		http.Error(w, "invalid access_token", http.StatusUnauthorized)
		return
	}

	attrs := make(map[string]string)
	if v := strings.TrimSpace(q.Get("project_id")); v != "" {
		attrs[broker.AttrProjectID] = v
	}
	if v := strings.TrimSpace(q.Get("workspace_id")); v != "" {
		attrs[broker.AttrWorkspaceID] = v
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWSConn(conn, s.cfg.WriteTimeout)
	connID, err := s.broker.Connect(c, principal.UserID, attrs)
	if err != nil {
		slog.Error("ws connect rejected", "userID", principal.UserID, "err", err)
		_ = c.Close()
		return
	}

	if err := s.broker.SendToConnection(connID, domain.Message{
		Type: domain.TypeWelcome,
		Payload: domain.WelcomePayload{
			ConnectionID: connID,
			Rooms:        s.broker.RoomsFor(connID),
		},
	}); err != nil {
		slog.Debug("ws welcome not delivered", "connID", connID, "err", err)
	}

	go s.writeLoop(c)
	s.readLoop(c, connID)

	// Disconnect is idempotent: the close path below and a concurrent
	// heartbeat sweep may both reach it.
	s.broker.Disconnect(connID)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "connID", connID, "err", err)
	}
}

func (s *Server) readLoop(c *wsConn, connID string) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(s.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingInterval))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingInterval))
		_ = s.broker.UpdateHeartbeat(connID)
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var in domain.Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}
		s.broker.HandleInbound(connID, in)
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout))
		case <-c.closed:
			return
		}
	}
}
