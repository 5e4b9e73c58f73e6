package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ogulcanaydogan/cloud-guardian/internal/config"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/metrics"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/monitor"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/storage"
)

// Runner executes monitoring jobs.
type Runner interface {
	RunCostCheck(ctx context.Context, threshold float64, now time.Time) monitor.Result
	RunInventoryCheck(ctx context.Context, threshold float64) monitor.Result
	Config() monitor.Config
}

// AlertLister reads the alert journal.
type AlertLister interface {
	ListAlerts(ctx context.Context, filter storage.AlertFilter) ([]storage.AlertRecord, error)
}

// Server exposes the monitoring jobs and the alert journal over HTTP.
type Server struct {
	runner  Runner
	journal AlertLister
	router  chi.Router
	logger  *slog.Logger
	now     func() time.Time
}

// NewServer creates an API server. journal may be nil when the journal is
// disabled.
func NewServer(runner Runner, journal AlertLister, logger *slog.Logger) *Server {
	s := &Server{
		runner:  runner,
		journal: journal,
		router:  chi.NewRouter(),
		logger:  logger,
		now:     time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/checks/cost", s.handleCostCheck)
		r.Post("/checks/inventory", s.handleInventoryCheck)
		r.Get("/alerts", s.handleAlerts)
	})
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// CheckResponse is the body returned by the check endpoints.
type CheckResponse struct {
	ExitCode       int                      `json:"exit_code"`
	Report         *model.AlertReport       `json:"report,omitempty"`
	Verdicts       []model.ThresholdVerdict `json:"verdicts,omitempty"`
	Error          string                   `json:"error,omitempty"`
	Classification string                   `json:"classification,omitempty"`
	DeliveryError  string                   `json:"delivery_error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCostCheck(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.threshold(w, r, s.runner.Config().CostThreshold)
	if !ok {
		return
	}
	s.writeResult(w, s.runner.RunCostCheck(r.Context(), limit, s.now()))
}

func (s *Server) handleInventoryCheck(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.threshold(w, r, s.runner.Config().CPUThreshold)
	if !ok {
		return
	}
	s.writeResult(w, s.runner.RunInventoryCheck(r.Context(), limit))
}

// threshold reads the optional ?threshold= override.
func (s *Server) threshold(w http.ResponseWriter, r *http.Request, def float64) (float64, bool) {
	raw := r.URL.Query().Get("threshold")
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err == nil {
		err = config.CheckThreshold("threshold", v)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "threshold must be a non-negative finite number")
		return 0, false
	}
	return v, true
}

func (s *Server) writeResult(w http.ResponseWriter, res monitor.Result) {
	resp := CheckResponse{
		ExitCode: res.ExitCode,
		Report:   res.Report,
		Verdicts: res.Verdicts,
	}
	if res.DeliveryErr != nil {
		resp.DeliveryError = res.DeliveryErr.Error()
	}

	status := http.StatusOK
	if res.Err != nil {
		resp.Error = res.Err.Error()
		resp.Classification = metrics.Classification(res.Err)
		status = http.StatusBadGateway
		if resp.Classification == metrics.ClassCredentialsMissing {
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "alert journal is disabled")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	filter := storage.AlertFilter{Kind: model.ReportKind(q.Get("kind"))}
	switch filter.Kind {
	case "", model.KindCost, model.KindInventory:
	default:
		writeError(w, http.StatusBadRequest, "kind must be cost or inventory")
		return
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	records, err := s.journal.ListAlerts(ctx, filter)
	if err != nil {
		s.logger.Error("list alerts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if records == nil {
		records = []storage.AlertRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
