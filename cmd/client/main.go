package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/corentings/chess/v2"

	"github.com/vytor/sillychess/internal/client"
	"github.com/vytor/sillychess/internal/config"
	"github.com/vytor/sillychess/internal/logger"
)

const help = `commands:
  new [white|black|random]  start a new game
  e2e4 | e2 e4 | e7e8q      play a move (from, to, optional promotion)
  moves                     list legal moves
  history                   show the move list
  pgn                       print the game as PGN
  quit                      exit`

// terminal draws the session on stdout.
type terminal struct {
	out io.Writer
}

func (t *terminal) Render(v client.BoardView) {
	fmt.Fprintln(t.out)
	fmt.Fprint(t.out, v.Position.Board().Draw())
	if len(v.LastMove) == 2 {
		fmt.Fprintf(t.out, "last move: %s-%s\n", v.LastMove[0], v.LastMove[1])
	}
	if n := len(v.History); n > 0 {
		start := n - 3
		if start < 0 {
			start = 0
		}
		for _, line := range v.History[start:] {
			fmt.Fprintln(t.out, "  "+line)
		}
	}
	if v.Movable {
		fmt.Fprintln(t.out, "your move")
	}
}

func (t *terminal) Alert(msg string) {
	fmt.Fprintln(t.out, "! "+msg)
}

// promptPromotion reads the promotion piece from the same input as the
// moves.
func promptPromotion(in *bufio.Scanner, out io.Writer) client.PromotionChooser {
	return client.PromotionChooserFunc(func(_ context.Context, from, to string) (chess.PieceType, error) {
		fmt.Fprintf(out, "promote %s-%s to [q]ueen, [r]ook, [b]ishop or k[n]ight (empty cancels): ", from, to)
		if !in.Scan() {
			return chess.NoPieceType, io.EOF
		}
		piece := promotionPiece(strings.TrimSpace(in.Text()))
		if piece == chess.NoPieceType {
			return chess.NoPieceType, errors.New("no piece chosen")
		}
		return piece, nil
	})
}

func promotionPiece(s string) chess.PieceType {
	switch strings.ToLower(s) {
	case "q", "queen":
		return chess.Queen
	case "r", "rook":
		return chess.Rook
	case "b", "bishop":
		return chess.Bishop
	case "n", "knight":
		return chess.Knight
	}
	return chess.NoPieceType
}

// parseCandidate accepts "e2e4", "e2 e4", "e2-e4" and "e7e8q".
func parseCandidate(fields []string) (client.Candidate, bool) {
	s := strings.ToLower(strings.ReplaceAll(strings.Join(fields, ""), "-", ""))
	if len(s) != 4 && len(s) != 5 {
		return client.Candidate{}, false
	}
	c := client.Candidate{From: s[0:2], To: s[2:4]}
	if len(s) == 5 {
		c.Promotion = promotionPiece(s[4:])
		if c.Promotion == chess.NoPieceType {
			return client.Candidate{}, false
		}
	}
	return c, true
}

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithOutput(os.Stderr),
	)
	logger.SetDefault(log)

	api, err := client.NewAPIClient(cfg.ServerURL, cfg.RequestTimeout)
	if err != nil {
		log.Error("failed to create client: %v", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logger.NewContext(ctx, log)

	in := bufio.NewScanner(os.Stdin)
	out := os.Stdout
	session := client.NewSession(api, &terminal{out: out}, promptPromotion(in, out))

	fmt.Fprintln(out, help)
	if err := session.StartGame(ctx, cfg.PlayerColor); err != nil {
		log.Warn("could not start game: %v", err)
	}

	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			return
		}
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "quit", "exit":
			return
		case "help":
			fmt.Fprintln(out, help)
		case "new":
			color := cfg.PlayerColor
			if len(fields) > 1 {
				color = strings.ToLower(fields[1])
			}
			_ = session.StartGame(ctx, color)
		case "moves":
			dests := session.Destinations()
			froms := make([]string, 0, len(dests))
			for from := range dests {
				froms = append(froms, from)
			}
			sort.Strings(froms)
			for _, from := range froms {
				fmt.Fprintf(out, "  %s: %s\n", from, strings.Join(dests[from], " "))
			}
		case "history":
			for _, line := range session.History() {
				fmt.Fprintln(out, "  "+line)
			}
		case "pgn":
			pgn, err := api.PGN(ctx)
			if err != nil {
				fmt.Fprintln(out, "! "+err.Error())
				continue
			}
			fmt.Fprintln(out, pgn)
		default:
			c, ok := parseCandidate(fields)
			if !ok {
				fmt.Fprintln(out, "! unrecognised input, type help")
				continue
			}
			err := session.SubmitMove(ctx, c)
			switch {
			case err == nil:
			case errors.Is(err, client.ErrIllegalMove):
				fmt.Fprintln(out, "! illegal move")
			case errors.Is(err, client.ErrNotYourTurn), errors.Is(err, client.ErrGameInactive),
				errors.Is(err, client.ErrPromotionCancelled):
				fmt.Fprintln(out, "! "+err.Error())
			}
		}
	}
}
