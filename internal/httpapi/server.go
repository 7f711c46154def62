// Package httpapi serves the liveness endpoints and Prometheus metrics. It
// shares nothing with the scheduler beyond reading its running flag.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/matchalert/internal/httpapi/middleware"
)

// StatusReporter is satisfied by *scheduler.Loop.
type StatusReporter interface {
	IsRunning() bool
}

type Server struct {
	Logger      *zap.Logger
	Status      StatusReporter
	Gatherer    prometheus.Gatherer
	MetricsKeys []string // empty leaves /metrics open
}

func NewServer(l *zap.Logger, status StatusReporter, g prometheus.Gatherer) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Status: status, Gatherer: g}
}

// Router builds the handler. healthRPM <= 0 disables rate limiting.
func (s *Server) Router(healthRPM, healthBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(cors.AllowAll().Handler)
	r.Use(apimw.RateLimit(healthRPM, healthBurst))

	for _, p := range []string{"/", "/health", "/healthz"} {
		r.Get(p, s.handleHealth)
		r.Head(p, s.handleHealthHead)
	}
	if s.Gatherer != nil {
		r.With(apimw.RequireKey(s.MetricsKeys)).
			Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

type healthResponse struct {
	Status    string `json:"status"`
	Scheduler string `json:"scheduler,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.Status != nil {
		resp.Scheduler = "stopped"
		if s.Status.IsRunning() {
			resp.Scheduler = "running"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealthHead(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
