// Package api exposes the HTTP interface for the scraper service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citypulse/event-scraper/internal/config"
	"github.com/citypulse/event-scraper/internal/metrics"
	"github.com/citypulse/event-scraper/internal/orchestrator"
	"github.com/citypulse/event-scraper/internal/scraper"
	"github.com/citypulse/event-scraper/internal/store"
)

// runTimeout bounds a crawl triggered over HTTP. A full three-city run
// with headless promotion stays well under this.
const runTimeout = 30 * time.Minute

// defaultRunLimit is the per-city cap applied to on-demand runs that do
// not ask for one. Manual triggers are usually smoke checks, so they get
// a smaller cap than the scheduled run's configured limit.
const defaultRunLimit = 20

// Trigger starts a crawl run.
type Trigger interface {
	Run(ctx context.Context, cities []string, perCityLimit int) (scraper.RunSummary, error)
}

// Server wires HTTP handlers to the crawl runner and the event store.
type Server struct {
	router  chi.Router
	trigger Trigger
	store   store.Store
	clock   scraper.Clock
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(trigger Trigger, st store.Store, clock scraper.Clock, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		trigger: trigger,
		store:   st,
		clock:   clock,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Route("/scraper", func(r chi.Router) {
			r.Post("/run", s.triggerRun)
			r.Get("/status", s.getStatus)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.CountEvents(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "event store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type runRequest struct {
	Cities []string `json:"cities"`
	Limit  int      `json:"limit"`
}

type cityResponse struct {
	City    string `json:"city"`
	Scraped int    `json:"scraped"`
	Saved   int    `json:"saved"`
	Error   string `json:"error,omitempty"`
}

type runResponse struct {
	RunID        string         `json:"runId"`
	TotalScraped int            `json:"totalScraped"`
	TotalSaved   int            `json:"totalSaved"`
	Cities       []cityResponse `json:"cities"`
	StartedAt    time.Time      `json:"startedAt"`
	FinishedAt   time.Time      `json:"finishedAt"`
}

// triggerRun starts a crawl synchronously and reports its totals. An
// empty body runs the configured default cities at defaultRunLimit events
// per city.
func (s *Server) triggerRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultRunLimit
	}

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	summary, err := s.trigger.Run(ctx, req.Cities, req.Limit)
	if errors.Is(err, orchestrator.ErrRunInProgress) {
		writeError(w, http.StatusConflict, "a crawl run is already in progress")
		return
	}
	if err != nil {
		s.logger.Error("crawl run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "crawl run failed")
		return
	}

	resp := runResponse{
		RunID:        summary.RunID,
		TotalScraped: summary.TotalScraped,
		TotalSaved:   summary.TotalSaved,
		StartedAt:    summary.StartedAt,
		FinishedAt:   summary.FinishedAt,
		Cities:       make([]cityResponse, 0, len(summary.Cities)),
	}
	for _, city := range summary.Cities {
		cr := cityResponse{City: city.City, Scraped: city.Scraped, Saved: city.Saved}
		if city.Err != nil {
			cr.Error = city.Err.Error()
		}
		resp.Cities = append(resp.Cities, cr)
	}
	writeJSON(w, http.StatusOK, resp)
}

type statusResponse struct {
	TotalEvents   int64     `json:"totalEvents"`
	ScrapedEvents int64     `json:"scrapedEvents"`
	ManualEvents  int64     `json:"manualEvents"`
	LastUpdate    time.Time `json:"lastUpdate"`
}

// getStatus reports how many events the store holds, split by origin.
func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	total, err := s.store.CountEvents(r.Context())
	if err != nil {
		s.logger.Error("event count failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "event store unreachable")
		return
	}
	scraped, err := s.store.CountEventsByPlatform(r.Context(), store.PlatformScrapedWeb)
	if err != nil {
		s.logger.Error("scraped event count failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "event store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		TotalEvents:   total,
		ScrapedEvents: scraped,
		ManualEvents:  total - scraped,
		LastUpdate:    s.clock.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)
			metrics.ObserveHTTPRequest(r.Method, r.URL.Path, ww.status, elapsed)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", elapsed.Milliseconds()))
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
