package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/relaypoint/push-service/internal/broker"
	"github.com/relaypoint/push-service/internal/domain"
)

// Handler exposes the publish API used by upstream business-logic publishers.
// The broker only moves already-formed messages; deciding what to publish and
// when stays with the callers of these endpoints.
type Handler struct {
	broker *broker.Broker
}

func NewHandler(b *broker.Broker) *Handler {
	return &Handler{broker: b}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /internal/rooms/{room}/publish
func (h *Handler) PublishToRoom(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	if room == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing room"})
		return
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("handler.PublishToRoom.Decode:", slog.Any("err", err))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.Type == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing type"})
		return
	}

	exclude := make(map[string]struct{}, len(req.Exclude))
	for _, id := range req.Exclude {
		exclude[id] = struct{}{}
	}

	report := h.broker.BroadcastToRoom(room, domain.Message{Type: req.Type, Payload: req.Payload}, exclude)
	writeJSON(w, http.StatusOK, publishResponseFrom(report))
}

// POST /internal/users/{id}/publish
func (h *Handler) PublishToUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing user id"})
		return
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("handler.PublishToUser.Decode:", slog.Any("err", err))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.Type == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing type"})
		return
	}

	report := h.broker.BroadcastToUser(userID, domain.Message{Type: req.Type, Payload: req.Payload})
	writeJSON(w, http.StatusOK, publishResponseFrom(report))
}

// GET /internal/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	conns, rooms := h.broker.Stats()
	writeJSON(w, http.StatusOK, StatsResponse{Connections: conns, Rooms: rooms})
}

func publishResponseFrom(report broker.DeliveryReport) PublishResponse {
	resp := PublishResponse{
		Delivered: report.DeliveredCount(),
		Failed:    make(map[string]string, report.FailedCount()),
	}
	for connID, err := range report.Failed {
		resp.Failed[connID] = err.Error()
	}
	return resp
}
