package client

import (
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"
)

// MoveRecord is one logged ply.
type MoveRecord struct {
	Color     chess.Color
	From      string
	To        string
	Promotion chess.PieceType
	SAN       string
}

// History is the move list shown to the player, one line per move pair.
type History struct {
	lines   []string
	records []MoveRecord
	// open is set while the last line holds a lone white ply
	open bool
}

func NewHistory() *History {
	return &History{}
}

// Add logs a ply. A black ply joins a lone white ply on the last line;
// otherwise it gets its own "N. ... SAN" line.
func (h *History) Add(rec MoveRecord) {
	h.records = append(h.records, rec)
	if rec.Color == chess.White {
		h.lines = append(h.lines, fmt.Sprintf("%d. %s", len(h.lines)+1, rec.SAN))
		h.open = true
		return
	}
	if h.open {
		h.lines[len(h.lines)-1] += " " + rec.SAN
	} else {
		h.lines = append(h.lines, fmt.Sprintf("%d. ... %s", len(h.lines)+1, rec.SAN))
	}
	h.open = false
}

func (h *History) GameOver(result string) {
	h.lines = append(h.lines, "Game Over! "+result)
	h.open = false
}

func (h *History) Reset() {
	h.lines = nil
	h.records = nil
	h.open = false
}

func (h *History) Lines() []string {
	return append([]string(nil), h.lines...)
}

func (h *History) Records() []MoveRecord {
	return append([]MoveRecord(nil), h.records...)
}

func (h *History) Len() int { return len(h.lines) }

// promotionFromSAN reads the piece after "=" in a SAN string.
func promotionFromSAN(san string) chess.PieceType {
	i := strings.IndexByte(san, '=')
	if i < 0 || i+1 >= len(san) {
		return chess.NoPieceType
	}
	return pieceTypeFromLetter(san[i+1 : i+2])
}

func pieceTypeFromLetter(s string) chess.PieceType {
	switch strings.ToLower(s) {
	case "q":
		return chess.Queen
	case "r":
		return chess.Rook
	case "b":
		return chess.Bishop
	case "n":
		return chess.Knight
	default:
		return chess.NoPieceType
	}
}
