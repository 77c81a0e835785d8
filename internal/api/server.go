// Package api exposes the HTTP interface for the crawl and extraction
// service.
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

	"github.com/thecodingpenguins/extractify/internal/config"
	"github.com/thecodingpenguins/extractify/internal/crawler"
	"github.com/thecodingpenguins/extractify/internal/extractor"
	"github.com/thecodingpenguins/extractify/internal/metrics"
)

// Runner is the job surface the HTTP layer drives. *Service implements it.
type Runner interface {
	Crawl(ctx context.Context, params CrawlParams) (crawler.CrawlSummary, error)
	Extract(ctx context.Context, params ExtractParams) (extractor.Result, error)
	Results() []extractor.Entity
	CancelExtraction() error
	SemanticAvailable() bool
	RespectRobots() bool
}

// Server wires HTTP handlers to the job runner.
type Server struct {
	router chi.Router
	runner Runner
	cfg    config.Config
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(runner Runner, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/crawl", s.crawl)
	r.Post("/extract", s.extract)
	r.Post("/crawl-and-extract", s.crawlAndExtract)
	r.Post("/cancel", s.cancelExtraction)
	r.Get("/results", s.results)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

type crawlRequest struct {
	Domain   string   `json:"domain"`
	Keywords []string `json:"keywords"`
	MaxPages int      `json:"max_pages"`
	MaxDepth *int     `json:"max_depth"`
}

type extractRequest struct {
	Keywords []string `json:"keywords"`
	Target   string   `json:"target"`
	MinScore float64  `json:"min_score"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"app":                "extractify",
		"respect_robots":     s.runner.RespectRobots(),
		"semantic_available": s.runner.SemanticAvailable(),
	})
}

func (s *Server) crawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	params, err := s.toCrawlParams(req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := s.runner.Crawl(r.Context(), params)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	params, err := s.toExtractParams(req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.runner.Extract(r.Context(), params)
	if err != nil {
		if errors.Is(err, ErrNoPages) {
			s.writeError(w, http.StatusBadRequest, ErrNoPages.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) crawlAndExtract(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	params, err := s.toCrawlParams(req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := s.runner.Crawl(r.Context(), params)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	result, err := s.runner.Extract(r.Context(), ExtractParams{
		Keywords: params.Keywords,
		Target:   "auto",
	})
	if err != nil {
		if errors.Is(err, ErrNoPages) {
			s.writeError(w, http.StatusBadRequest, ErrNoPages.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"crawl":   summary,
		"extract": result,
	})
}

func (s *Server) cancelExtraction(w http.ResponseWriter, _ *http.Request) {
	if err := s.runner.CancelExtraction(); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "canceling"})
}

// results never errors; a missing or corrupt entities file reads as [].
func (s *Server) results(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.runner.Results())
}

func (s *Server) toCrawlParams(req crawlRequest) (CrawlParams, error) {
	u, err := ValidateURL(req.Domain)
	if err != nil {
		return CrawlParams{}, err
	}
	keywords, err := SanitizeKeywords(req.Keywords)
	if err != nil {
		return CrawlParams{}, err
	}
	maxPages, err := ValidateMaxPages(req.MaxPages, s.cfg.Crawler.MaxPagesDefault)
	if err != nil {
		return CrawlParams{}, err
	}
	maxDepth, err := ValidateMaxDepth(req.MaxDepth, s.cfg.Crawler.MaxDepthDefault)
	if err != nil {
		return CrawlParams{}, err
	}
	return CrawlParams{
		URL:      u,
		Keywords: keywords,
		MaxPages: maxPages,
		MaxDepth: maxDepth,
	}, nil
}

func (s *Server) toExtractParams(req extractRequest) (ExtractParams, error) {
	keywords, err := SanitizeKeywords(req.Keywords)
	if err != nil {
		return ExtractParams{}, err
	}
	minScore, err := ValidateMinScore(req.MinScore)
	if err != nil {
		return ExtractParams{}, err
	}
	target := req.Target
	if target == "" {
		target = "auto"
	}
	return ExtractParams{
		Keywords: keywords,
		Target:   target,
		MinScore: minScore,
	}, nil
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
