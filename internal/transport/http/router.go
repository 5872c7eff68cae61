package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"

	"github.com/relaypoint/push-service/internal/security"
	httpmw "github.com/relaypoint/push-service/internal/transport/http/middleware"
	"github.com/relaypoint/push-service/internal/transport/ws"
)

func NewRouter(h *Handler, wsServer *ws.Server, verifier security.Verifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	// WS endpoint; the handshake authenticates via access_token itself
	r.Get("/ws", wsServer.HandleWS)

	// Publisher API for business-logic services
	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(verifier))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/internal", func(in chi.Router) {
			in.Post("/rooms/{room}/publish", h.PublishToRoom)
			in.Post("/users/{id}/publish", h.PublishToUser)
			in.Get("/stats", h.Stats)
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
