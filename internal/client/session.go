// Package client is the player's side of a game: a local legality model
// that pre-validates moves, a connection to the move service, and the move
// history shown to the player.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/corentings/chess/v2"

	"github.com/vytor/sillychess/internal/logger"
	"github.com/vytor/sillychess/internal/protocol"
)

var (
	ErrIllegalMove        = errors.New("illegal move")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrGameInactive       = errors.New("no game in progress")
	ErrMoveInFlight       = errors.New("a move is already being submitted")
	ErrPromotionCancelled = errors.New("promotion cancelled")
)

// Candidate is a move proposed by the player. Promotion may be left empty;
// the chooser is then asked when the move reaches the last rank.
type Candidate struct {
	From      string
	To        string
	Promotion chess.PieceType
}

// SessionConfig is the player's side of the game and whether moves are
// accepted.
type SessionConfig struct {
	PlayerColor chess.Color
	Active      bool
}

// BoardView is what a Display draws.
type BoardView struct {
	FEN          string
	Position     *chess.Position
	Orientation  chess.Color
	Movable      bool
	Destinations map[string][]string
	LastMove     []string
	History      []string
}

// Display renders the session. Its methods are called with the session
// lock held and must not call back into the Session.
type Display interface {
	Render(view BoardView)
	Alert(msg string)
}

// PromotionChooser asks the player which piece a pawn promotes to. It must
// return one of queen, rook, bishop or knight, or an error to cancel.
type PromotionChooser interface {
	ChoosePromotion(ctx context.Context, from, to string) (chess.PieceType, error)
}

type PromotionChooserFunc func(ctx context.Context, from, to string) (chess.PieceType, error)

func (f PromotionChooserFunc) ChoosePromotion(ctx context.Context, from, to string) (chess.PieceType, error) {
	return f(ctx, from, to)
}

// Session owns the local game state and mediates between local move
// validation and the server's authoritative state.
type Session struct {
	api     GameAPI
	display Display
	chooser PromotionChooser

	mu       sync.Mutex
	game     *chess.Game
	fen      string
	config   SessionConfig
	history  *History
	lastMove []string
	result   string
	inFlight bool
}

func NewSession(api GameAPI, display Display, chooser PromotionChooser) *Session {
	g := chess.NewGame()
	return &Session{
		api:     api,
		display: display,
		chooser: chooser,
		game:    g,
		fen:     g.FEN(),
		config:  SessionConfig{PlayerColor: chess.White},
		history: NewHistory(),
	}
}

// StartGame asks the server for a new game and replaces the local state
// with the server's starting position. On failure the local state is left
// as it was and the error is alerted.
func (s *Session) StartGame(ctx context.Context, color string) error {
	log := logger.FromContext(ctx).WithPrefix("session")

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrMoveInFlight
	}
	s.inFlight = true
	s.mu.Unlock()

	resp, err := s.api.NewGame(ctx, color)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if err != nil {
		log.Warn("new game failed: %v", err)
		s.alert(alertText(err))
		return err
	}
	g, err := gameFromFEN(resp.FEN)
	if err != nil {
		log.Warn("new game returned bad position %q: %v", resp.FEN, err)
		s.alert(alertText(err))
		return err
	}
	playerColor, err := parseColor(resp.PlayerColor, color)
	if err != nil {
		s.alert(alertText(err))
		return err
	}

	s.game = g
	s.fen = resp.FEN
	s.config = SessionConfig{PlayerColor: playerColor, Active: true}
	s.history.Reset()
	s.lastMove = nil
	s.result = ""

	if resp.EngineMove != nil {
		s.logEngineMove(resp.EngineMove)
	}
	if resp.GameOver {
		s.endGame(resp.Result)
	}
	log.Info("game started as %s", colorName(playerColor))
	s.render()
	return nil
}

// SubmitMove validates a candidate locally, applies it speculatively and
// sends its SAN to the server. Illegal moves are reverted without a request.
// Any server or transport failure restores the pre-move state.
func (s *Session) SubmitMove(ctx context.Context, c Candidate) error {
	log := logger.FromContext(ctx).WithPrefix("session")

	s.mu.Lock()
	if err := s.checkCanMove(); err != nil {
		s.mu.Unlock()
		return err
	}

	matches := s.matchingMoves(c)
	if len(matches) == 0 {
		s.render()
		s.mu.Unlock()
		return fmt.Errorf("%w: %s%s", ErrIllegalMove, c.From, c.To)
	}

	s.inFlight = true
	move := matches[0]
	if isPromotion(matches) {
		if c.Promotion == chess.NoPieceType {
			s.render()
			s.mu.Unlock()
			chosen, err := s.choosePromotion(ctx, c)
			s.mu.Lock()
			if err != nil {
				s.inFlight = false
				s.render()
				s.mu.Unlock()
				return err
			}
			c.Promotion = chosen
		}
		found := false
		for _, m := range matches {
			if m.Promo() == c.Promotion {
				move, found = m, true
				break
			}
		}
		if !found {
			s.inFlight = false
			s.render()
			s.mu.Unlock()
			return fmt.Errorf("%w: cannot promote to %v", ErrIllegalMove, c.Promotion)
		}
	}

	prevGame, prevFEN, prevLast := s.game, s.fen, s.lastMove
	san := chess.AlgebraicNotation{}.Encode(s.game.Position(), &move)
	speculative := s.game.Clone()
	if err := speculative.Move(&move, nil); err != nil {
		s.inFlight = false
		s.render()
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	s.game = speculative
	s.fen = speculative.FEN()
	s.lastMove = []string{c.From, c.To}
	s.render()
	s.mu.Unlock()

	log.Debug("submitting %s", san)
	resp, err := s.api.MakeMove(ctx, san)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	var g *chess.Game
	if err == nil {
		g, err = gameFromFEN(resp.FEN)
	}
	if err != nil {
		log.Warn("move %s rejected: %v", san, err)
		s.game, s.fen, s.lastMove = prevGame, prevFEN, prevLast
		s.render()
		s.alert(alertText(err))
		return err
	}

	s.game = g
	s.fen = resp.FEN
	s.history.Add(MoveRecord{
		Color:     s.config.PlayerColor,
		From:      move.S1().String(),
		To:        move.S2().String(),
		Promotion: move.Promo(),
		SAN:       san,
	})
	if resp.EngineMove != nil {
		s.logEngineMove(resp.EngineMove)
	}
	if resp.GameOver {
		s.endGame(resp.Result)
	}
	s.render()
	return nil
}

func (s *Session) choosePromotion(ctx context.Context, c Candidate) (chess.PieceType, error) {
	if s.chooser == nil {
		return chess.NoPieceType, ErrPromotionCancelled
	}
	promo, err := s.chooser.ChoosePromotion(ctx, c.From, c.To)
	if err != nil {
		return chess.NoPieceType, fmt.Errorf("%w: %v", ErrPromotionCancelled, err)
	}
	switch promo {
	case chess.Queen, chess.Rook, chess.Bishop, chess.Knight:
		return promo, nil
	}
	return chess.NoPieceType, fmt.Errorf("%w: invalid piece %v", ErrPromotionCancelled, promo)
}

func (s *Session) checkCanMove() error {
	if !s.config.Active {
		return ErrGameInactive
	}
	if s.inFlight {
		return ErrMoveInFlight
	}
	if s.game.Position().Turn() != s.config.PlayerColor {
		return ErrNotYourTurn
	}
	return nil
}

func (s *Session) matchingMoves(c Candidate) []chess.Move {
	from := strings.ToLower(strings.TrimSpace(c.From))
	to := strings.ToLower(strings.TrimSpace(c.To))
	var out []chess.Move
	for _, m := range s.game.ValidMoves() {
		if m.S1().String() == from && m.S2().String() == to {
			out = append(out, m)
		}
	}
	return out
}

func isPromotion(moves []chess.Move) bool {
	return len(moves) > 0 && moves[0].Promo() != chess.NoPieceType
}

func (s *Session) logEngineMove(em *protocol.EngineMove) {
	s.history.Add(MoveRecord{
		Color:     s.config.PlayerColor.Other(),
		From:      em.From,
		To:        em.To,
		Promotion: promotionFromSAN(em.Move),
		SAN:       em.Move,
	})
	if em.From != "" && em.To != "" {
		s.lastMove = []string{em.From, em.To}
	}
}

func (s *Session) endGame(result string) {
	s.config.Active = false
	s.result = result
	s.history.GameOver(result)
	s.alert("Game Over! " + result)
}

func (s *Session) alert(msg string) {
	if s.display == nil {
		return
	}
	s.display.Alert(msg)
}

func (s *Session) render() {
	if s.display == nil {
		return
	}
	movable := s.config.Active && !s.inFlight && s.game.Position().Turn() == s.config.PlayerColor
	view := BoardView{
		FEN:         s.fen,
		Position:    s.game.Position(),
		Orientation: s.config.PlayerColor,
		Movable:     movable,
		LastMove:    append([]string(nil), s.lastMove...),
		History:     s.history.Lines(),
	}
	if movable {
		view.Destinations = destinations(s.game)
	}
	s.display.Render(view)
}

// Destinations returns the legal target squares per origin square for the
// player, or an empty map when the player cannot move.
func (s *Session) Destinations() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkCanMove() != nil {
		return map[string][]string{}
	}
	return destinations(s.game)
}

func destinations(g *chess.Game) map[string][]string {
	out := make(map[string][]string)
	seen := make(map[string]bool)
	for _, m := range g.ValidMoves() {
		from, to := m.S1().String(), m.S2().String()
		if seen[from+to] {
			continue
		}
		seen[from+to] = true
		out[from] = append(out[from], to)
	}
	return out
}

func (s *Session) FEN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fen
}

func (s *Session) Config() SessionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Lines()
}

func (s *Session) Moves() []MoveRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Records()
}

// Result is the last game's result line, empty while it is in progress.
func (s *Session) Result() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Position returns the current local position.
func (s *Session) Position() *chess.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Position()
}

func gameFromFEN(fen string) (*chess.Game, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid position from server: %w", err)
	}
	return chess.NewGame(opt), nil
}

func parseColor(got, requested string) (chess.Color, error) {
	name := strings.ToLower(strings.TrimSpace(got))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(requested))
	}
	switch name {
	case "white":
		return chess.White, nil
	case "black":
		return chess.Black, nil
	}
	return chess.NoColor, fmt.Errorf("server returned unknown player color %q", got)
}

func colorName(c chess.Color) string {
	if c == chess.Black {
		return "black"
	}
	return "white"
}

func alertText(err error) string {
	var se *ServerError
	if errors.As(err, &se) {
		return "Error: " + se.Message
	}
	var te *TransportError
	if errors.As(err, &te) {
		return "Network error: " + te.Err.Error()
	}
	return "Error: " + err.Error()
}
