// Package http exposes the validate operation over a small REST surface,
// plus health and Prometheus metrics endpoints.
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/weft"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weft_validations_total",
		Help: "Validation requests by outcome.",
	}, []string{"outcome"})
	fixesAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weft_fixes_applied_total",
		Help: "Individual repairs applied by the repair pipeline.",
	})
)

// Server wires the engine into chi.
type Server struct {
	engine *weft.Engine
	log    *slog.Logger
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine *weft.Engine, log *slog.Logger) http.Handler {
	s := &Server{engine: engine, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/flows/validate", s.validate)
		r.Get("/catalog", s.listCatalog)
		r.Get("/catalog/{kind}", s.lookupKind)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": weft.Version})
}

// validate handles POST /v1/flows/validate. The request body is the flow
// document itself; ?fix=1 runs the repair pipeline.
func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	var doc any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "request body is not valid JSON", http.StatusBadRequest)
		return
	}

	fix := r.URL.Query().Get("fix") == "1" || r.URL.Query().Get("fix") == "true"
	report := s.engine.Check(doc, weft.CheckOptions{Fix: fix})

	outcome := "invalid"
	if report.Valid {
		outcome = "valid"
	}
	validationsTotal.WithLabelValues(outcome).Inc()
	fixesAppliedTotal.Add(float64(len(report.Fixes)))

	s.log.Debug("validate request served",
		"valid", report.Valid,
		"errors", len(report.Errors),
		"fixes", len(report.Fixes),
	)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Catalog().Entries())
}

func (s *Server) lookupKind(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	entry, ok := s.engine.Catalog().Lookup(kind)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown kind %q", kind), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
