package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"sonosdj/internal/core"
)

type stubHandler struct {
	outcome *core.Outcome
	texts   []string
}

func (s *stubHandler) HandleRequest(_ context.Context, text string) *core.Outcome {
	s.texts = append(s.texts, text)
	return s.outcome
}

type stubLimiter struct {
	allow bool
	calls []string
}

func (s *stubLimiter) Allow(clientID string) bool {
	s.calls = append(s.calls, clientID)
	return s.allow
}

// newTestServer builds a Server without touching the global Prometheus
// registry so tests stay independent.
func newTestServer(handler RequestHandler, gate Limiter) *Server {
	s := &Server{
		config:  &core.ServerConfig{Host: "127.0.0.1", Port: 0},
		logger:  zap.NewNop(),
		metrics: newMetrics(),
		gate:    gate,
		handler: handler,
	}
	return s
}

func TestHealthzEndpoint(t *testing.T) {
	s := newTestServer(nil, nil)
	mux := s.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestReadyzEndpoint(t *testing.T) {
	s := newTestServer(nil, nil)
	mux := s.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestHomeEndpoint(t *testing.T) {
	s := newTestServer(nil, nil)
	mux := s.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "SonosDJ") {
		t.Error("home page missing service name")
	}
}

func TestPlayEndpoint(t *testing.T) {
	handler := &stubHandler{
		outcome: &core.Outcome{
			Success: true,
			Message: "Now playing: Thunderstruck by AC/DC",
		},
	}
	s := newTestServer(handler, nil)
	mux := s.setupRoutes()

	body := strings.NewReader(`{"request": "play thunderstruck by ac/dc"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/play", body)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var outcome core.Outcome
	if err := json.NewDecoder(w.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !outcome.Success {
		t.Error("outcome not successful")
	}
	if outcome.Message != "Now playing: Thunderstruck by AC/DC" {
		t.Errorf("Message = %q", outcome.Message)
	}
	if len(handler.texts) != 1 || handler.texts[0] != "play thunderstruck by ac/dc" {
		t.Errorf("handler received %v", handler.texts)
	}
}

func TestPlayEndpointMethodNotAllowed(t *testing.T) {
	s := newTestServer(&stubHandler{}, nil)
	mux := s.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/v1/play", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestPlayEndpointBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid JSON", body: `{not json`},
		{name: "empty request text", body: `{"request": "  "}`},
		{name: "missing field", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&stubHandler{}, nil)
			mux := s.setupRoutes()

			req := httptest.NewRequest(http.MethodPost, "/v1/play", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestPlayEndpointRateLimited(t *testing.T) {
	gate := &stubLimiter{allow: false}
	s := newTestServer(&stubHandler{}, gate)
	mux := s.setupRoutes()

	body := strings.NewReader(`{"request": "play something"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/play", body)
	req.RemoteAddr = "203.0.113.7:51234"
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if len(gate.calls) != 1 || gate.calls[0] != "203.0.113.7" {
		t.Errorf("gate saw %v, want the client host", gate.calls)
	}
}

func TestPlayEndpointNoHandler(t *testing.T) {
	s := newTestServer(nil, nil)
	mux := s.setupRoutes()

	body := strings.NewReader(`{"request": "play something"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/play", body)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/play", nil)
	req.RemoteAddr = "192.0.2.1:4711"
	if got := clientID(req); got != "192.0.2.1" {
		t.Errorf("clientID = %q, want 192.0.2.1", got)
	}

	req.RemoteAddr = "no-port"
	if got := clientID(req); got != "no-port" {
		t.Errorf("clientID = %q, want the raw address", got)
	}
}
