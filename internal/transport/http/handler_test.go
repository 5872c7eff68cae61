package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaypoint/push-service/internal/broker"
	"github.com/relaypoint/push-service/internal/domain"
	"github.com/relaypoint/push-service/internal/security"
	"github.com/relaypoint/push-service/internal/transport/ws"
)

type recordSink struct {
	mu       sync.Mutex
	received []domain.Message
}

func (s *recordSink) Deliver(ctx context.Context, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, msg)
	return nil
}

func (s *recordSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func newTestRouter(t *testing.T, b *broker.Broker) http.Handler {
	t.Helper()

	verifier := security.InsecureVerifier{}
	wsServer := ws.NewServer(b, verifier, ws.Config{})
	return NewRouter(NewHandler(b), wsServer, verifier)
}

func TestPublishToRoom(t *testing.T) {
	b := broker.New(time.Second)
	router := newTestRouter(t, b)

	sink := &recordSink{}
	_, err := b.Connect(sink, "user1", map[string]string{broker.AttrProjectID: "42"})
	require.NoError(t, err)

	body := `{"type":"artifact_ready","payload":{"artifact_id":"a1"}}`
	req := httptest.NewRequest(http.MethodPost, "/internal/rooms/project:42/publish", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer publisher")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"delivered":1`)
	assert.Equal(t, 1, sink.count())
}

func TestPublishToRoom_Exclude(t *testing.T) {
	b := broker.New(time.Second)
	router := newTestRouter(t, b)

	sinkA := &recordSink{}
	sinkB := &recordSink{}
	c1, err := b.Connect(sinkA, "u1", map[string]string{broker.AttrProjectID: "42"})
	require.NoError(t, err)
	_, err = b.Connect(sinkB, "u2", map[string]string{broker.AttrProjectID: "42"})
	require.NoError(t, err)

	body := `{"type":"event","exclude":["` + c1 + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/internal/rooms/project:42/publish", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer publisher")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, sinkA.count())
	assert.Equal(t, 1, sinkB.count())
}

func TestPublishToUser(t *testing.T) {
	b := broker.New(time.Second)
	router := newTestRouter(t, b)

	sink := &recordSink{}
	_, err := b.Connect(sink, "user1", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/internal/users/user1/publish", strings.NewReader(`{"type":"notice"}`))
	req.Header.Set("Authorization", "Bearer publisher")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"delivered":1`)
	assert.Equal(t, 1, sink.count())
}

func TestPublish_BadRequests(t *testing.T) {
	b := broker.New(time.Second)
	router := newTestRouter(t, b)

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "missing type", body: `{"payload":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/internal/rooms/r/publish", strings.NewReader(tt.body))
			req.Header.Set("Authorization", "Bearer publisher")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPublish_RequiresToken(t *testing.T) {
	b := broker.New(time.Second)
	router := newTestRouter(t, b)

	req := httptest.NewRequest(http.MethodPost, "/internal/rooms/r/publish", strings.NewReader(`{"type":"event"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStats(t *testing.T) {
	b := broker.New(time.Second)
	router := newTestRouter(t, b)

	_, err := b.Connect(&recordSink{}, "u1", map[string]string{broker.AttrProjectID: "1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/internal/stats", nil)
	req.Header.Set("Authorization", "Bearer publisher")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connections":1`)
	assert.Contains(t, rec.Body.String(), `"rooms":1`)
}

func TestHealthz(t *testing.T) {
	b := broker.New(time.Second)
	router := newTestRouter(t, b)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
