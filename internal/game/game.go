// Package game holds the authoritative, server-side view of a single game
// between a human player and the engine.
package game

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corentings/chess/v2"

	"github.com/vytor/sillychess/internal/models"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrGameOver    = errors.New("game is over")
	ErrNotYourTurn = errors.New("not the player's turn")
)

// MoveInfo describes a move that was applied to the game.
type MoveInfo struct {
	SAN  string
	UCI  string
	From string
	To   string
}

type Game struct {
	id          string
	playerColor chess.Color
	g           *chess.Game
	moves       []string
	startedAt   time.Time
}

// New starts a game from the standard initial position.
func New(id string, playerColor chess.Color, startedAt time.Time) *Game {
	return &Game{
		id:          id,
		playerColor: playerColor,
		g:           chess.NewGame(),
		startedAt:   startedAt,
	}
}

// Replay rebuilds a game from its stored record.
func Replay(rec models.GameRecord) (*Game, error) {
	color, err := ParseColor(rec.PlayerColor)
	if err != nil {
		return nil, err
	}
	g := New(rec.ID, color, rec.StartedAt)
	notation := chess.UCINotation{}
	for _, mv := range rec.Moves {
		move, err := notation.Decode(g.g.Position(), strings.ToLower(strings.TrimSpace(mv)))
		if err != nil {
			return nil, fmt.Errorf("decode move %s: %w", mv, err)
		}
		if _, err := g.apply(move); err != nil {
			return nil, fmt.Errorf("apply move %s: %w", mv, err)
		}
	}
	return g, nil
}

// Record returns the storable form of the game.
func (g *Game) Record() models.GameRecord {
	return models.GameRecord{
		ID:          g.id,
		PlayerColor: ColorName(g.playerColor),
		Moves:       append([]string(nil), g.moves...),
		StartedAt:   g.startedAt,
		UpdatedAt:   time.Now(),
	}
}

func (g *Game) ID() string                { return g.id }
func (g *Game) PlayerColor() chess.Color  { return g.playerColor }
func (g *Game) EngineColor() chess.Color  { return g.playerColor.Other() }
func (g *Game) Position() *chess.Position { return g.g.Position() }
func (g *Game) FEN() string               { return g.g.FEN() }
func (g *Game) StartedAt() time.Time      { return g.startedAt }
func (g *Game) MoveCount() int            { return len(g.moves) }

// ValidMoves returns the legal moves in the current position.
func (g *Game) ValidMoves() []chess.Move {
	return g.g.ValidMoves()
}

// EngineToMove reports whether the engine should play next.
func (g *Game) EngineToMove() bool {
	return !g.IsOver() && g.g.Position().Turn() == g.EngineColor()
}

// ApplyPlayerMove parses a SAN move (UCI is accepted as a fallback) and
// applies it for the player.
func (g *Game) ApplyPlayerMove(text string) (MoveInfo, error) {
	if g.IsOver() {
		return MoveInfo{}, ErrGameOver
	}
	if g.g.Position().Turn() != g.playerColor {
		return MoveInfo{}, ErrNotYourTurn
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return MoveInfo{}, ErrIllegalMove
	}
	pos := g.g.Position()
	move, err := chess.AlgebraicNotation{}.Decode(pos, text)
	if err != nil {
		move, err = chess.UCINotation{}.Decode(pos, strings.ToLower(text))
		if err != nil {
			return MoveInfo{}, fmt.Errorf("%w: %s", ErrIllegalMove, text)
		}
	}
	return g.apply(move)
}

// ApplyEngineMove applies a move chosen by the engine.
func (g *Game) ApplyEngineMove(move *chess.Move) (MoveInfo, error) {
	if !g.EngineToMove() {
		return MoveInfo{}, ErrNotYourTurn
	}
	return g.apply(move)
}

func (g *Game) apply(move *chess.Move) (MoveInfo, error) {
	if move == nil {
		return MoveInfo{}, ErrIllegalMove
	}
	pos := g.g.Position()
	info := MoveInfo{
		SAN:  chess.AlgebraicNotation{}.Encode(pos, move),
		UCI:  strings.ToLower(chess.UCINotation{}.Encode(pos, move)),
		From: move.S1().String(),
		To:   move.S2().String(),
	}
	if err := g.g.Move(move, nil); err != nil {
		return MoveInfo{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	g.moves = append(g.moves, info.UCI)
	return info, nil
}

// IsOver reports whether the game reached a terminal state.
func (g *Game) IsOver() bool {
	switch g.g.Outcome() {
	case chess.WhiteWon, chess.BlackWon, chess.Draw:
		return true
	default:
		return false
	}
}

func (g *Game) Outcome() chess.Outcome { return g.g.Outcome() }
func (g *Game) Method() chess.Method   { return g.g.Method() }

// Result returns the human-readable result line shown to players.
func (g *Game) Result() string {
	switch g.g.Method() {
	case chess.Checkmate:
		if g.g.Position().Turn() == chess.White {
			return "0-1 (Black wins by checkmate)"
		}
		return "1-0 (White wins by checkmate)"
	case chess.Stalemate:
		return "1/2-1/2 (Stalemate)"
	case chess.InsufficientMaterial:
		return "1/2-1/2 (Insufficient material)"
	case chess.SeventyFiveMoveRule:
		return "1/2-1/2 (75-move rule)"
	case chess.FivefoldRepetition:
		return "1/2-1/2 (Fivefold repetition)"
	}
	return "Game in progress"
}

// PGN renders the game with its tag pairs.
func (g *Game) PGN() string {
	white, black := "Player", "Engine"
	if g.playerColor == chess.Black {
		white, black = black, white
	}
	g.g.AddTagPair("Event", "Silly Chess")
	g.g.AddTagPair("Date", g.startedAt.Format("2006.01.02"))
	g.g.AddTagPair("White", white)
	g.g.AddTagPair("Black", black)
	g.g.AddTagPair("Result", g.g.Outcome().String())
	return g.g.String()
}

// MethodName returns a lowercase name for the termination method.
func MethodName(m chess.Method) string {
	switch m {
	case chess.Checkmate:
		return "checkmate"
	case chess.Resignation:
		return "resignation"
	case chess.DrawOffer:
		return "draw_offer"
	case chess.Stalemate:
		return "stalemate"
	case chess.ThreefoldRepetition:
		return "threefold_repetition"
	case chess.FivefoldRepetition:
		return "fivefold_repetition"
	case chess.FiftyMoveRule:
		return "fifty_move_rule"
	case chess.SeventyFiveMoveRule:
		return "seventy_five_move_rule"
	case chess.InsufficientMaterial:
		return "insufficient_material"
	default:
		return ""
	}
}

// ColorName maps a color to "white" or "black".
func ColorName(c chess.Color) string {
	if c == chess.Black {
		return "black"
	}
	return "white"
}

// ParseColor maps "white"/"black" to a color.
func ParseColor(s string) (chess.Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white":
		return chess.White, nil
	case "black":
		return chess.Black, nil
	default:
		return chess.NoColor, fmt.Errorf("unknown color %q", s)
	}
}
