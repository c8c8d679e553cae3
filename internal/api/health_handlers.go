package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/vytor/sillychess/internal/logger"
)

// Checker reports whether a dependency is usable.
type Checker func(ctx context.Context) error

// handleHealth returns a liveness probe - always returns 200 OK.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady runs every registered readiness check and returns 503 on the
// first failure.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	names := make([]string, 0, len(s.ReadyChecks))
	for name := range s.ReadyChecks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.ReadyChecks[name](ctx); err != nil {
			log.Warn("readiness check failed - %s: %v", name, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(name + " unavailable"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Ready"))
}
