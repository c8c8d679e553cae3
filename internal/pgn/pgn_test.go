package pgn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vytor/sillychess/internal/pgn"
)

const sample = `[Event "Silly Chess"]
[Date "2024.05.01"]
[White "Player"]
[Black "Engine"]
[Result "0-1"]

1. f3 e5 2. g4 {engine: SMART} Qh4# 0-1`

func TestHeaders(t *testing.T) {
	headers := pgn.Headers(sample)

	assert.Equal(t, "Silly Chess", headers["Event"])
	assert.Equal(t, "2024.05.01", headers["Date"])
	assert.Equal(t, "Player", headers["White"])
	assert.Equal(t, "Engine", headers["Black"])
	assert.Equal(t, "0-1", headers["Result"])
}

func TestHeaders_EmptyAndMissing(t *testing.T) {
	assert.Empty(t, pgn.Headers(""))
	assert.Empty(t, pgn.Headers("1. e4 e5 2. Nf3 Nc6"))
}

func TestMoves(t *testing.T) {
	assert.Equal(t, []string{"f3", "e5", "g4", "Qh4#"}, pgn.Moves(sample))
}

func TestMoves_CompactNumbersAndBlackContinuation(t *testing.T) {
	assert.Equal(t, []string{"e4", "e5", "Nf3"}, pgn.Moves("1.e4 e5 2.Nf3 *"))
	assert.Equal(t, []string{"Nc6", "Bb5"}, pgn.Moves("2... Nc6 3. Bb5"))
	assert.Empty(t, pgn.Moves("[Event \"x\"]\n\n*"))
}
