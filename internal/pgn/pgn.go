// Package pgn reads the tag pairs and SAN movetext of stored games.
package pgn

import (
	"regexp"
	"strings"
)

var (
	headerRe     = regexp.MustCompile(`^\[(\w+)\s+"([^"]*)"\]$`)
	commentRe    = regexp.MustCompile(`\{[^}]*\}`)
	moveNumberRe = regexp.MustCompile(`^\d+\.+`)
)

// Headers extracts the tag pairs of a PGN game.
func Headers(pgn string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(pgn, "\n") {
		m := headerRe.FindStringSubmatch(strings.TrimSpace(line))
		if len(m) == 3 {
			out[m[1]] = m[2]
		}
	}
	return out
}

// Moves returns the SAN moves of the main line, without move numbers,
// comments or the result token.
func Moves(pgn string) []string {
	var body strings.Builder
	for _, line := range strings.Split(pgn, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "[") {
			continue
		}
		body.WriteString(line)
		body.WriteByte(' ')
	}
	text := commentRe.ReplaceAllString(body.String(), " ")

	moves := []string{}
	for _, tok := range strings.Fields(text) {
		tok = moveNumberRe.ReplaceAllString(tok, "")
		switch tok {
		case "", "1-0", "0-1", "1/2-1/2", "*":
			continue
		}
		moves = append(moves, tok)
	}
	return moves
}
