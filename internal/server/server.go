package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rohmanhakim/pinned-repos/internal/resolver"
	"github.com/rohmanhakim/pinned-repos/pkg/failure"
	"github.com/rohmanhakim/pinned-repos/pkg/hashutil"
)

//go:embed usage.html
var usagePage []byte

const cacheStatusHeader = "X-Cache"

// PinnedResolver is what the HTTP surface needs from the resolver.
type PinnedResolver interface {
	Resolve(ctx context.Context, identifier string, forceRefresh bool) (resolver.Result, failure.ClassifiedError)
	Cached() int
}

// Server provides the HTTP handlers.
type Server struct {
	resolver PinnedResolver
	logger   zerolog.Logger
	ids      *requestIDs
}

func NewServer(r PinnedResolver, logger zerolog.Logger) *Server {
	return &Server{
		resolver: r,
		logger:   logger,
		ids:      newRequestIDs(),
	}
}

// Router returns the http.Handler for every route, wrapped with CORS and
// access logging.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.pinned)
	mux.HandleFunc("GET /healthz", s.health)

	return accessLogMiddleware(s.logger, s.ids, corsMiddleware(mux))
}

func (s *Server) pinned(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	identifier := query.Get("username")
	if identifier == "" {
		identifier = query.Get("identifier")
	}
	if strings.TrimSpace(identifier) == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(usagePage)
		return
	}

	result, err := s.resolver.Resolve(r.Context(), identifier, query.Has("refresh"))
	if err != nil {
		writeError(w, statusFor(err), messageFor(err))
		return
	}

	body, marshalErr := json.Marshal(result.Records)
	if marshalErr != nil {
		s.logger.Error().Err(marshalErr).Str("identifier", identifier).Msg("encode records")
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	etag := hashutil.ETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set(cacheStatusHeader, string(result.Status))
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cached": s.resolver.Cached(),
	})
}

// etagMatches implements the If-None-Match list comparison.
func etagMatches(header string, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
