package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/sillychess/internal/protocol"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Group(func(r chi.Router) {
		timeout := s.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		r.Use(timeoutMiddleware(timeout))

		r.Post(protocol.PathNewGame, s.handleNewGame)
		r.Post(protocol.PathMakeMove, s.handleMakeMove)
		r.Get(protocol.PathPGN, s.handlePGN)
		r.Get(protocol.PathGames, s.handleGames)
		r.Get(protocol.PathGames+"/{id}", s.handleGameDetail)
	})
	return r
}
