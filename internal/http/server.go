// Package http provides the serve-mode HTTP surface: the play endpoint,
// health and readiness probes, and Prometheus metrics.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sonosdj/internal/core"
)

// RequestHandler processes one free-text music request.
type RequestHandler interface {
	HandleRequest(ctx context.Context, text string) *core.Outcome
}

// Limiter gates requests per client.
type Limiter interface {
	Allow(clientID string) bool
}

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
	gate    Limiter
	handler RequestHandler
}

type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	SelectionsTotal    *prometheus.CounterVec
	LLMCallsTotal      *prometheus.CounterVec
	SonosCommandsTotal *prometheus.CounterVec
	RateLimitedTotal   prometheus.Counter
	ProcessingTime     *prometheus.HistogramVec
	RecentlyPlayed     prometheus.Gauge
}

// NewServer registers metrics and routes. The request handler is attached
// later via SetHandler because the agent takes the server as its metrics sink.
func NewServer(config *core.ServerConfig, gate Limiter, logger *zap.Logger) *Server {
	metrics := newMetrics()

	prometheus.MustRegister(
		metrics.RequestsTotal,
		metrics.SelectionsTotal,
		metrics.LLMCallsTotal,
		metrics.SonosCommandsTotal,
		metrics.RateLimitedTotal,
		metrics.ProcessingTime,
		metrics.RecentlyPlayed,
	)

	s := &Server{
		config:  config,
		logger:  logger,
		metrics: metrics,
		gate:    gate,
	}
	s.server = createHTTPServer(config, s.setupRoutes())

	return s
}

// SetHandler attaches the request handler serving POST /v1/play.
func (s *Server) SetHandler(handler RequestHandler) {
	s.handler = handler
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sonosdj_requests_total",
				Help: "Total number of music requests processed",
			},
			[]string{"mode", "status"},
		),
		SelectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sonosdj_selections_total",
				Help: "Total number of candidate selections by method",
			},
			[]string{"method"},
		),
		LLMCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sonosdj_llm_calls_total",
				Help: "Total number of LLM API calls",
			},
			[]string{"op", "status"},
		),
		SonosCommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sonosdj_sonos_commands_total",
				Help: "Total number of player CLI invocations",
			},
			[]string{"command", "status"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sonosdj_rate_limited_total",
				Help: "Total number of requests rejected by the floodgate",
			},
		),
		ProcessingTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sonosdj_processing_duration_seconds",
				Help:    "Time spent processing music requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		RecentlyPlayed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sonosdj_recently_played",
				Help: "Number of tracks in the recently-played history",
			},
		),
	}
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok","service":"sonosdj"}`)); err != nil {
			s.logger.Debug("Failed to write healthz response", zap.Error(err))
		}
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ready","service":"sonosdj"}`)); err != nil {
			s.logger.Debug("Failed to write readyz response", zap.Error(err))
		}
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/play", s.playHandler)

	mux.HandleFunc("/", homeHandler(s.logger))

	return mux
}

type playRequest struct {
	Request string `json:"request"`
}

func (s *Server) playHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.handler == nil {
		http.Error(w, "service not ready", http.StatusServiceUnavailable)
		return
	}

	if s.gate != nil && !s.gate.Allow(clientID(r)) {
		s.metrics.RateLimitedTotal.Inc()
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Request) == "" {
		http.Error(w, "request text is required", http.StatusBadRequest)
		return
	}

	s.logger.Info("Handling play request", zap.String("request", req.Request))

	outcome := s.handler.HandleRequest(r.Context(), req.Request)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(outcome); err != nil {
		s.logger.Error("Failed to encode outcome", zap.Error(err))
	}
}

func homeHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>SonosDJ</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .header { color: #333; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
        .endpoint a:hover { text-decoration: underline; }
    </style>
</head>
<body>
    <h1 class="header">SonosDJ</h1>
    <p>Natural language requests to Sonos playback.</p>

    <h2>Endpoints</h2>
    <div class="endpoint">POST /v1/play - Handle a music request</div>
    <div class="endpoint"><a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div class="endpoint"><a href="/healthz">Health</a> - Health check</div>
    <div class="endpoint"><a href="/readyz">Ready</a> - Readiness check</div>
</body>
</html>`)); err != nil {
			logger.Debug("Failed to write home response", zap.Error(err))
		}
	}
}

func createHTTPServer(config *core.ServerConfig, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// RecordRequest implements core.Metrics.
func (s *Server) RecordRequest(mode, status string) {
	s.metrics.RequestsTotal.WithLabelValues(mode, status).Inc()
}

// RecordSelection implements core.Metrics.
func (s *Server) RecordSelection(method string) {
	s.metrics.SelectionsTotal.WithLabelValues(method).Inc()
}

// RecordLLMCall implements core.Metrics.
func (s *Server) RecordLLMCall(op, status string) {
	s.metrics.LLMCallsTotal.WithLabelValues(op, status).Inc()
}

// RecordProcessingTime implements core.Metrics.
func (s *Server) RecordProcessingTime(mode string, duration time.Duration) {
	s.metrics.ProcessingTime.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordSonosCommand is wired into the player client as its command recorder.
func (s *Server) RecordSonosCommand(command, status string) {
	s.metrics.SonosCommandsTotal.WithLabelValues(command, status).Inc()
}

// SetRecentlyPlayed updates the history gauge.
func (s *Server) SetRecentlyPlayed(size int) {
	s.metrics.RecentlyPlayed.Set(float64(size))
}
