// Package eventapi exposes the HTTP surface: event ingestion, latest-event
// queries, aggregate stats, and the triage and health endpoints.
package eventapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fastjson"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/linnemanlabs/logtriage/internal/event"
	"github.com/linnemanlabs/logtriage/internal/triage"
)

// TriageService defines the triage operations the API needs.
type TriageService interface {
	Triage(ctx context.Context, req *triage.Request) (*triage.Result, error)
	Health(ctx context.Context) *triage.Health
}

// Metrics holds Prometheus metrics for the ingest path.
type Metrics struct {
	EventsIngested *prometheus.CounterVec
	EventsSkipped  *prometheus.CounterVec
	IngestBatches  *prometheus.CounterVec
}

// NewMetrics registers and returns API metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logtriage_events_ingested_total",
			Help: "Events newly inserted by ingestion, by log type.",
		}, []string{"log_type"}),
		EventsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logtriage_events_skipped_total",
			Help: "Ingested records skipped as duplicate or malformed, by log type.",
		}, []string{"log_type"}),
		IngestBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logtriage_ingest_batches_total",
			Help: "Ingest batches received, by log type.",
		}, []string{"log_type"}),
	}
	reg.MustRegister(m.EventsIngested, m.EventsSkipped, m.IngestBatches)
	return m
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger  log.Logger
	store   event.Store
	svc     TriageService
	metrics *Metrics
	parsers fastjson.ParserPool
}

// New creates a new API handler. logger and metrics may be nil.
func New(logger log.Logger, store event.Store, svc TriageService, metrics *Metrics) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if store == nil {
		panic(xerrors.New("event store is required"))
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	return &API{
		logger:  logger,
		store:   store,
		svc:     svc,
		metrics: metrics,
	}
}

// RegisterRoutes attaches API endpoints to the router. mutating wraps the
// write endpoints (ingest, triage) with auth middleware when configured.
func (a *API) RegisterRoutes(r chi.Router, mutating func(http.Handler) http.Handler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", a.handleLatest)
		r.Get("/stats", a.handleStats)
		r.Get("/triage/health", a.handleHealth)

		r.Group(func(r chi.Router) {
			if mutating != nil {
				r.Use(mutating)
			}
			r.Post("/events/{logType}", a.handleIngest)
			r.Post("/triage", a.handleTriage)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
