package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/roeblinglabs/bridgewatch/internal/logging"
	"github.com/roeblinglabs/bridgewatch/internal/observability"
	"github.com/roeblinglabs/bridgewatch/internal/watch"
	"github.com/roeblinglabs/bridgewatch/model"
)

// DefaultTopN bounds the analyses listing when the caller does not ask
// for a specific cut.
const DefaultTopN = 20

// Server exposes the monitor's read-only JSON API.
type Server struct {
	state   *watch.State
	log     logging.Logger
	metrics *observability.WatchCollector
}

// NewServer builds the API server around shared watch state. The metrics
// collector is optional.
func NewServer(state *watch.State, log logging.Logger, metrics *observability.WatchCollector) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{state: state, log: log, metrics: metrics}
}

// Handler returns the fully wired route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "/api/v1/analyses", s.handleAnalyses)
	s.route(mux, "/api/v1/summary", s.handleSummary)
	s.route(mux, "/api/v1/vessels", s.handleVessels)
	s.route(mux, "/api/v1/piers", s.handlePiers)
	s.route(mux, "/healthz", s.handleHealth)
	return mux
}

func (s *Server) route(mux *http.ServeMux, path string, fn http.HandlerFunc) {
	var handler http.Handler = fn
	handler = TracingMiddleware(path, handler)
	handler = RequestIDMiddleware(s.log, path, handler)
	if s.metrics != nil {
		handler = s.metrics.Middleware(path, handler)
	}
	mux.Handle(path, handler)
}

type analysesResponse struct {
	Timestamp *time.Time             `json:"timestamp"`
	Count     int                    `json:"count"`
	Analyses  []model.ThreatAnalysis `json:"analyses"`
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	level, ok := parseLevel(r.URL.Query().Get("level"))
	if !ok {
		writeError(w, http.StatusBadRequest, "level must be one of CRITICAL, HIGH, MEDIUM, LOW")
		return
	}

	topN := DefaultTopN
	if raw := r.URL.Query().Get("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		topN = parsed
	}

	var analyses []model.ThreatAnalysis
	if raw := r.URL.Query().Get("project"); raw != "" {
		ahead, err := time.ParseDuration(raw)
		if err != nil || ahead < 0 {
			writeError(w, http.StatusBadRequest, "project must be a non-negative duration, e.g. 5m")
			return
		}
		analyses = filterAnalyses(s.state.ProjectedAnalyses(ahead), level, topN)
	} else {
		analyses = s.state.Analyses(level, topN)
	}
	writeJSON(w, r, s.log, http.StatusOK, analysesResponse{
		Timestamp: snapshotTimePtr(s.state),
		Count:     len(analyses),
		Analyses:  analyses,
	})
}

type summaryResponse struct {
	Timestamp  *time.Time         `json:"timestamp"`
	AnalyzedAt *time.Time         `json:"analyzed_at"`
	Summary    model.FleetSummary `json:"summary"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	snapTime, analyzedAt := s.state.SnapshotTime()
	writeJSON(w, r, s.log, http.StatusOK, summaryResponse{
		Timestamp:  timePtr(snapTime),
		AnalyzedAt: timePtr(analyzedAt),
		Summary:    s.state.Summary(),
	})
}

type vesselsResponse struct {
	Timestamp *time.Time           `json:"timestamp"`
	Count     int                  `json:"count"`
	Vessels   []model.VesselReport `json:"vessels"`
}

func (s *Server) handleVessels(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	vessels := s.state.Vessels()
	writeJSON(w, r, s.log, http.StatusOK, vesselsResponse{
		Timestamp: snapshotTimePtr(s.state),
		Count:     len(vessels),
		Vessels:   vessels,
	})
}

type piersResponse struct {
	Count int          `json:"count"`
	Piers []model.Pier `json:"piers"`
}

func (s *Server) handlePiers(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	piers := s.state.Piers()
	writeJSON(w, r, s.log, http.StatusOK, piersResponse{
		Count: len(piers),
		Piers: piers,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	writeJSON(w, r, s.log, http.StatusOK, map[string]string{"status": "ok"})
}

func filterAnalyses(analyses []model.ThreatAnalysis, level model.ThreatLevel, n int) []model.ThreatAnalysis {
	out := make([]model.ThreatAnalysis, 0, len(analyses))
	for _, a := range analyses {
		if level != "" && a.ThreatLevel != level {
			continue
		}
		out = append(out, a)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}

// parseLevel validates the ?level= filter. Empty input means no filter.
func parseLevel(raw string) (model.ThreatLevel, bool) {
	if raw == "" {
		return "", true
	}
	level := model.ThreatLevel(strings.ToUpper(raw))
	if level.Rank() < 0 {
		return "", false
	}
	return level, true
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, r *http.Request, log logging.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn(r.Context(), "response encode failed", logging.Err(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func snapshotTimePtr(state *watch.State) *time.Time {
	snapTime, _ := state.SnapshotTime()
	return timePtr(snapTime)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
