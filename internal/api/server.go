// Package api exposes the HTTP interface for the profile cache service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/profile-vault/internal/bulk"
	"github.com/JakeFAU/profile-vault/internal/config"
	"github.com/JakeFAU/profile-vault/internal/harvest"
	"github.com/JakeFAU/profile-vault/internal/metrics"
	"github.com/JakeFAU/profile-vault/internal/profile"
	"github.com/JakeFAU/profile-vault/internal/summarize"
)

// Refresher is the single-profile cache operation.
type Refresher interface {
	GetOrRefresh(ctx context.Context, linkedinURL string, freshnessDays int) (*profile.Record, error)
}

// BatchFetcher refreshes many profiles in one call.
type BatchFetcher interface {
	FetchMany(ctx context.Context, urls []string, freshnessDays int) []bulk.Result
}

// Searcher finds candidate profiles by person criteria.
type Searcher interface {
	Search(ctx context.Context, q harvest.Query) (*harvest.SearchResult, error)
}

// Summarizer produces a natural-language summary of a record.
type Summarizer interface {
	Summarize(ctx context.Context, data map[string]any) (string, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the cache, search and summary services.
type Server struct {
	router     chi.Router
	refresher  Refresher
	batch      BatchFetcher
	searcher   Searcher
	summarizer Summarizer
	pinger     Pinger
	cfg        config.Config
	logger     *zap.Logger
}

// NewServer constructs a Server with middleware and routes. summarizer
// may be nil when the summary feature is disabled.
func NewServer(
	refresher Refresher,
	batch BatchFetcher,
	searcher Searcher,
	summarizer Summarizer,
	pinger Pinger,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		refresher:  refresher,
		batch:      batch,
		searcher:   searcher,
		summarizer: summarizer,
		pinger:     pinger,
		cfg:        cfg,
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(2 * time.Minute))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/search", s.searchProfiles)
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", s.getProfile)
			r.Post("/batch", s.batchProfiles)
			r.Get("/summary", s.getProfileSummary)
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
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "store unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// getProfile serves GET /v1/profiles?url=…&freshness_days=N.
func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		writeError(w, http.StatusBadRequest, "url query parameter required")
		return
	}
	days, err := freshnessDays(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.refresher.GetOrRefresh(r.Context(), url, days)
	if err != nil {
		writeError(w, http.StatusBadGateway, "storage unavailable")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, rec.ToMap())
}

type batchRequest struct {
	URLs          []string `json:"urls"`
	FreshnessDays *int     `json:"freshness_days"`
}

// batchProfiles serves POST /v1/profiles/batch.
func (s *Server) batchProfiles(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls required")
		return
	}
	days := s.cfg.Cache.DefaultFreshnessDays
	if req.FreshnessDays != nil {
		if *req.FreshnessDays < 0 {
			writeError(w, http.StatusBadRequest, "freshness_days must be >= 0")
			return
		}
		days = *req.FreshnessDays
	}

	results := s.batch.FetchMany(r.Context(), req.URLs, days)
	out := make([]map[string]any, len(results))
	for i, res := range results {
		entry := map[string]any{"linkedin_url": res.URL}
		if res.Err != "" {
			entry["error"] = res.Err
		} else {
			entry["profile"] = res.Profile.ToMap()
		}
		out[i] = entry
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

// searchProfiles serves GET /v1/search.
func (s *Server) searchProfiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name query parameter required")
		return
	}
	page := 1
	if raw := q.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = parsed
	}

	result, err := s.searcher.Search(r.Context(), harvest.Query{
		Name:           name,
		CurrentCompany: q.Get("current_company"),
		PastCompany:    q.Get("past_company"),
		School:         q.Get("school"),
		Location:       q.Get("location"),
		Page:           page,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}

	candidates := make([]map[string]any, 0, len(result.Elements))
	for _, c := range result.Elements {
		url := c.ProfileURL()
		if url == "" {
			continue
		}
		candidates = append(candidates, map[string]any{
			"name":         c.Name,
			"headline":     c.Headline,
			"linkedin_url": url,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

// getProfileSummary serves GET /v1/profiles/summary. The record is
// refreshed through the cache first, then summarized.
func (s *Server) getProfileSummary(w http.ResponseWriter, r *http.Request) {
	if s.summarizer == nil {
		writeError(w, http.StatusServiceUnavailable, "summarizer disabled")
		return
	}
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		writeError(w, http.StatusBadRequest, "url query parameter required")
		return
	}
	days, err := freshnessDays(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.refresher.GetOrRefresh(r.Context(), url, days)
	if err != nil {
		writeError(w, http.StatusBadGateway, "storage unavailable")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	summary, err := s.summarizer.Summarize(r.Context(), rec.ToMap())
	if err != nil {
		if errors.Is(err, summarize.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "summarizer unavailable")
			return
		}
		writeError(w, http.StatusBadGateway, "summarization failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"linkedin_url": rec.LinkedInURL,
		"summary":      summary,
	})
}

// freshnessDays parses the freshness_days query parameter, falling back
// to -1 so the cache layer applies its configured default.
func freshnessDays(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("freshness_days")
	if raw == "" {
		return -1, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return 0, errors.New("freshness_days must be a non-negative integer")
	}
	return days, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			duration := time.Since(start)
			metrics.ObserveHTTPRequest(r.Method, r.URL.Path, ww.status, duration)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", duration.Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("panic", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
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
