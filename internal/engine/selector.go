package engine

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/corentings/chess/v2"

	"github.com/vytor/sillychess/internal/logger"
)

var ErrNoLegalMoves = errors.New("no legal moves")

// MoveKind tells how a reply was chosen.
type MoveKind string

const (
	KindSmart  MoveKind = "SMART"
	KindSilly  MoveKind = "SILLY"
	KindRandom MoveKind = "RANDOM (fallback)"
)

// BestMover is anything that can search a FEN position; EnginePool and
// Engine both qualify.
type BestMover interface {
	BestMove(ctx context.Context, fen string, depth int) (SearchResult, error)
}

// Selector picks the engine's reply: usually the searched best move,
// sometimes a random legal move, and a random move whenever search fails.
type Selector struct {
	smart            BestMover
	depth            int
	smartProbability float64

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewSelector builds a selector. smart may be nil, in which case every
// reply is a random fallback.
func NewSelector(smart BestMover, depth int, smartProbability float64) *Selector {
	return &Selector{
		smart:            smart,
		depth:            depth,
		smartProbability: smartProbability,
		rand:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Selector) SetRandomSeed(seed int64) {
	s.randMu.Lock()
	s.rand = rand.New(rand.NewSource(seed))
	s.randMu.Unlock()
}

func (s *Selector) float64() float64 {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return s.rand.Float64()
}

func (s *Selector) intn(n int) int {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return s.rand.Intn(n)
}

// Choose returns a legal move for the side to move in pos. A done context
// is reported as its error rather than answered with a random move.
func (s *Selector) Choose(ctx context.Context, pos *chess.Position) (*chess.Move, MoveKind, error) {
	log := logger.FromContext(ctx).WithPrefix("selector")

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	moves := pos.ValidMoves()
	if len(moves) == 0 {
		return nil, "", ErrNoLegalMoves
	}

	var (
		move *chess.Move
		kind MoveKind
	)
	if s.float64() < s.smartProbability {
		move = s.searched(ctx, pos, moves)
		kind = KindSmart
	} else {
		move = s.random(moves)
		kind = KindSilly
	}
	if err := ctx.Err(); err != nil {
		log.Warn("request ended while choosing a reply: %v", err)
		return nil, "", err
	}
	if move == nil {
		move = s.random(moves)
		kind = KindRandom
	}

	log.Debug("engine reply chosen: kind=%s move=%s", kind, move.String())
	return move, kind, nil
}

func (s *Selector) searched(ctx context.Context, pos *chess.Position, legal []chess.Move) *chess.Move {
	if s.smart == nil {
		return nil
	}
	log := logger.FromContext(ctx).WithPrefix("selector")

	res, err := s.smart.BestMove(ctx, pos.String(), s.depth)
	if err != nil {
		log.Warn("engine search failed, falling back to random move: %v", err)
		return nil
	}
	best := strings.ToLower(strings.TrimSpace(res.BestMove))
	notation := chess.UCINotation{}
	for i := range legal {
		if strings.ToLower(notation.Encode(pos, &legal[i])) == best {
			return &legal[i]
		}
	}
	log.Warn("engine returned illegal move %q, falling back to random move", res.BestMove)
	return nil
}

func (s *Selector) random(legal []chess.Move) *chess.Move {
	if len(legal) == 0 {
		return nil
	}
	mv := legal[s.intn(len(legal))]
	return &mv
}
