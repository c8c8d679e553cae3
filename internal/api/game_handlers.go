package api

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/sillychess/internal/errors"
	"github.com/vytor/sillychess/internal/logger"
	"github.com/vytor/sillychess/internal/models"
	"github.com/vytor/sillychess/internal/protocol"
	"github.com/vytor/sillychess/internal/services"
)

func toResponse(res *services.MoveResult) protocol.GameResponse {
	out := protocol.GameResponse{
		FEN:      res.FEN,
		GameOver: res.GameOver,
		Result:   res.Result,
	}
	if res.EngineMove != nil {
		out.EngineMove = &protocol.EngineMove{
			Move: res.EngineMove.SAN,
			From: res.EngineMove.From,
			To:   res.EngineMove.To,
		}
	}
	return out
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	color, err := bodyField(r, "color")
	if err != nil {
		handleError(w, r, err)
		return
	}

	res, err := s.GameService.NewGame(r.Context(), color)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("new game started: game_id=%s, player_color=%s", res.GameID, res.PlayerColor)

	s.setGameCookie(w, res.GameID)
	out := toResponse(res)
	out.GameID = res.GameID
	out.PlayerColor = res.PlayerColor
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMakeMove(w http.ResponseWriter, r *http.Request) {
	gameID := gameIDFromRequest(r)
	if gameID == "" {
		handleError(w, r, errors.NewNoActiveGameError())
		return
	}

	move, err := bodyField(r, "move")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if move == "" {
		handleError(w, r, errors.NewInvalidMoveError(nil))
		return
	}

	res, err := s.GameService.MakeMove(r.Context(), gameID, move)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) && appErr.Code == errors.ErrCodeNoActiveGame {
			clearGameCookie(w)
		}
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res))
}

func (s *Server) handlePGN(w http.ResponseWriter, r *http.Request) {
	pgn, err := s.GameService.PGN(r.Context(), gameIDFromRequest(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-chess-pgn")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(pgn))
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ArchiveFilter{
		PlayerColor: strings.ToLower(q.Get("player_color")),
		Outcome:     q.Get("result"),
		Method:      strings.ToLower(q.Get("method")),
		Limit:       queryInt(r, "limit", 50),
		Offset:      queryInt(r, "offset", 0),
		OrderDir:    strings.ToUpper(q.Get("order")),
	}

	games, total, err := s.GameService.ListArchived(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"games": games,
		"total": total,
	})
}

func (s *Server) handleGameDetail(w http.ResponseWriter, r *http.Request) {
	g, err := s.GameService.GetArchived(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
