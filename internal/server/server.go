// Package server exposes the verification pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sarasa-labs/sarasa-checker/internal/checker"
	"github.com/sarasa-labs/sarasa-checker/internal/model"
)

// unknownIdentity is the shared bucket for callers with no usable
// network-origin header. Coarse on purpose.
const unknownIdentity = "unknown"

// Pipeline runs one verification request.
type Pipeline interface {
	Check(ctx context.Context, req checker.Request) (*checker.Result, error)
}

// RecentLister reads the recent-checks feed.
type RecentLister interface {
	ListRecentChecks(ctx context.Context, limit int) ([]model.CheckRecord, error)
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	pipeline    Pipeline
	recent      RecentLister
	recentLimit int
	rateWindow  time.Duration
}

// New creates a Server.
func New(pipeline Pipeline, recent RecentLister, recentLimit int, rateWindow time.Duration) *Server {
	if recentLimit <= 0 {
		recentLimit = 3
	}
	return &Server{
		pipeline:    pipeline,
		recent:      recent,
		recentLimit: recentLimit,
		rateWindow:  rateWindow,
	}
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/check", s.handleCheck)
	r.Get("/api/recent", s.handleRecent)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type checkRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Invalid request body.",
		})
		return
	}

	identity := clientIdentity(r)
	result, err := s.pipeline.Check(r.Context(), checker.Request{
		RawQuery:       req.Query,
		ClientIdentity: identity,
	})

	switch {
	case errors.Is(err, checker.ErrEmptyQuery):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Nothing to check. Send a claim or a link.",
		})
	case errors.Is(err, checker.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error":   "Whoa! Ease up.",
			"details": "Too many checks in a short while. Come back in " + cooldownPhrase(s.rateWindow) + ".",
		})
	case err != nil:
		// Never leak provider internals to the caller.
		zap.L().Error("server: check failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Something broke on our side. Try again in a bit.",
		})
	default:
		writeJSON(w, http.StatusOK, result.Verdict)
	}
}

// recentEntry is the feed row shape: denormalized scalars only, no verdict
// re-parsing needed on the consumer side.
type recentEntry struct {
	Query         string    `json:"query"`
	VerdictStatus string    `json:"verdict_status"`
	SmokeLevel    int       `json:"smoke_level"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := s.recentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	records, err := s.recent.ListRecentChecks(r.Context(), limit)
	if err != nil {
		zap.L().Error("server: list recent failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Could not load recent checks.",
		})
		return
	}

	entries := make([]recentEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, recentEntry{
			Query:         rec.OriginalInput,
			VerdictStatus: rec.VerdictStatus,
			SmokeLevel:    rec.SmokeLevel,
			Title:         rec.Title,
			CreatedAt:     rec.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, entries)
}

// clientIdentity derives the rate-limiting identity from the best available
// network-origin header. Callers with none share one bucket.
func clientIdentity(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		return rip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return unknownIdentity
}

func cooldownPhrase(window time.Duration) string {
	hours := int(window.Hours())
	if hours <= 1 {
		return "an hour or so"
	}
	return "a few hours"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("server: write response", zap.Error(err))
	}
}
