package main

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/corentings/chess/v2"
	"github.com/stretchr/testify/assert"

	"github.com/vytor/sillychess/internal/client"
)

func TestParseCandidate(t *testing.T) {
	tests := []struct {
		in   []string
		want client.Candidate
		ok   bool
	}{
		{[]string{"e2e4"}, client.Candidate{From: "e2", To: "e4"}, true},
		{[]string{"E2", "E4"}, client.Candidate{From: "e2", To: "e4"}, true},
		{[]string{"g1-f3"}, client.Candidate{From: "g1", To: "f3"}, true},
		{[]string{"e7e8n"}, client.Candidate{From: "e7", To: "e8", Promotion: chess.Knight}, true},
		{[]string{"e7e8k"}, client.Candidate{}, false},
		{[]string{"e4"}, client.Candidate{}, false},
	}
	for _, tt := range tests {
		got, ok := parseCandidate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPromptPromotion(t *testing.T) {
	var out bytes.Buffer
	in := bufio.NewScanner(strings.NewReader("r\n\n"))
	chooser := promptPromotion(in, &out)

	piece, err := chooser.ChoosePromotion(context.Background(), "a7", "a8")
	assert.NoError(t, err)
	assert.Equal(t, chess.Rook, piece)
	assert.Contains(t, out.String(), "promote a7-a8")

	_, err = chooser.ChoosePromotion(context.Background(), "a7", "a8")
	assert.Error(t, err)

	_, err = chooser.ChoosePromotion(context.Background(), "a7", "a8")
	assert.Error(t, err)
}
