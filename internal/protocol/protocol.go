// Package protocol holds the JSON bodies exchanged between the chess
// client and the server.
package protocol

// Endpoint paths.
const (
	PathNewGame  = "/new_game"
	PathMakeMove = "/make_move"
	PathPGN      = "/pgn"
	PathGames    = "/games"

	// GameCookie binds a caller to its current game.
	GameCookie = "game_id"
)

type NewGameRequest struct {
	Color string `json:"color"`
}

type MakeMoveRequest struct {
	Move string `json:"move"`
}

// EngineMove is the engine's reply. Move is in SAN.
type EngineMove struct {
	Move string `json:"move"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// GameResponse answers both /new_game and /make_move. PlayerColor and
// GameID are only set by /new_game.
type GameResponse struct {
	GameID      string      `json:"game_id,omitempty"`
	FEN         string      `json:"fen"`
	PlayerColor string      `json:"player_color,omitempty"`
	GameOver    bool        `json:"game_over"`
	Result      string      `json:"result,omitempty"`
	EngineMove  *EngineMove `json:"engine_move,omitempty"`
	Error       string      `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
