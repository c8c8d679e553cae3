package models

import "time"

// GameRecord is the persisted form of a live game. The position is
// re-derived by replaying Moves (UCI) from the standard start.
type GameRecord struct {
	ID          string    `json:"id"`
	PlayerColor string    `json:"player_color"` // "white" or "black"
	Moves       []string  `json:"moves"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ArchivedGame is a finished game kept for later listing.
type ArchivedGame struct {
	ID          string    `json:"id"`
	PlayerColor string    `json:"player_color"`
	Outcome     string    `json:"outcome"` // "1-0", "0-1", "1/2-1/2"
	Method      string    `json:"method"`  // "checkmate", "stalemate", ...
	Result      string    `json:"result"`  // human-readable result line
	PGN         string    `json:"pgn"`
	MoveCount   int       `json:"move_count"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`

	// Filled from PGN for single-game responses only.
	Headers map[string]string `json:"headers,omitempty"`
	Moves   []string          `json:"moves,omitempty"`
}

type ArchiveFilter struct {
	PlayerColor string
	Outcome     string
	Method      string
	Limit       int
	Offset      int
	OrderDir    string
}
