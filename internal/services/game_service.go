package services

import (
	"context"
	"database/sql"
	stderrors "errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/corentings/chess/v2"
	"github.com/google/uuid"

	"github.com/vytor/sillychess/internal/engine"
	"github.com/vytor/sillychess/internal/errors"
	"github.com/vytor/sillychess/internal/game"
	"github.com/vytor/sillychess/internal/jobs"
	"github.com/vytor/sillychess/internal/logger"
	"github.com/vytor/sillychess/internal/models"
	"github.com/vytor/sillychess/internal/pgn"
	"github.com/vytor/sillychess/internal/repository"
	"github.com/vytor/sillychess/internal/sessions"
)

// MoveChooser picks the engine's reply in a position.
type MoveChooser interface {
	Choose(ctx context.Context, pos *chess.Position) (*chess.Move, engine.MoveKind, error)
}

// MoveResult is the state of a game after a request has been handled.
type MoveResult struct {
	GameID      string
	FEN         string
	PlayerColor string
	GameOver    bool
	Result      string
	PlayerMove  *game.MoveInfo
	EngineMove  *game.MoveInfo
	EngineKind  engine.MoveKind
}

// GameService plays games between a player and the engine
type GameService interface {
	NewGame(ctx context.Context, color string) (*MoveResult, error)
	MakeMove(ctx context.Context, gameID, move string) (*MoveResult, error)
	PGN(ctx context.Context, gameID string) (string, error)
	ListArchived(ctx context.Context, filter models.ArchiveFilter) ([]models.ArchivedGame, int, error)
	GetArchived(ctx context.Context, id string) (*models.ArchivedGame, error)
}

type gameService struct {
	store       sessions.Store
	chooser     MoveChooser
	archiveRepo repository.ArchiveRepository
	jobQueue    jobs.JobQueue
	locks       *keyedMutex

	newID func() string
	now   func() time.Time

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewGameService creates a new GameService
func NewGameService(store sessions.Store, chooser MoveChooser, archiveRepo repository.ArchiveRepository, jobQueue jobs.JobQueue) GameService {
	return &gameService{
		store:       store,
		chooser:     chooser,
		archiveRepo: archiveRepo,
		jobQueue:    jobQueue,
		locks:       newKeyedMutex(),
		newID:       uuid.NewString,
		now:         time.Now,
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *gameService) resolveColor(color string) (chess.Color, error) {
	color = strings.ToLower(strings.TrimSpace(color))
	switch color {
	case "", "white":
		return chess.White, nil
	case "random":
		s.randMu.Lock()
		defer s.randMu.Unlock()
		if s.rand.Intn(2) == 0 {
			return chess.White, nil
		}
		return chess.Black, nil
	}
	c, err := game.ParseColor(color)
	if err != nil {
		return chess.NoColor, errors.NewValidationError("color", "must be white, black or random")
	}
	return c, nil
}

func (s *gameService) NewGame(ctx context.Context, color string) (*MoveResult, error) {
	log := logger.FromContext(ctx)

	playerColor, err := s.resolveColor(color)
	if err != nil {
		return nil, err
	}

	g := game.New(s.newID(), playerColor, s.now())
	log = log.WithField("game_id", g.ID())
	log.Info("starting new game: player_color=%s", game.ColorName(playerColor))

	res := &MoveResult{GameID: g.ID(), PlayerColor: game.ColorName(playerColor)}
	if g.EngineToMove() {
		info, kind, err := s.engineReply(ctx, g)
		if err != nil {
			return nil, err
		}
		res.EngineMove, res.EngineKind = info, kind
	}

	if err := s.checkAlive(ctx); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, g.Record()); err != nil {
		log.Error("failed to save game: %v", err)
		return nil, errors.NewInternalError(err)
	}
	s.finish(ctx, g, res)
	return res, nil
}

func (s *gameService) MakeMove(ctx context.Context, gameID, move string) (*MoveResult, error) {
	if gameID == "" {
		return nil, errors.NewNoActiveGameError()
	}
	unlock := s.locks.Lock(gameID)
	defer unlock()

	log := logger.FromContext(ctx).WithField("game_id", gameID)

	g, err := s.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.IsOver() {
		return nil, errors.NewGameOverError(g.Result())
	}

	info, err := g.ApplyPlayerMove(move)
	if err != nil {
		log.Debug("rejected move %q: %v", move, err)
		return nil, errors.NewInvalidMoveError(err)
	}
	log.Debug("player played %s", info.SAN)

	res := &MoveResult{GameID: gameID, PlayerColor: game.ColorName(g.PlayerColor()), PlayerMove: &info}
	if g.EngineToMove() {
		reply, kind, err := s.engineReply(ctx, g)
		if err != nil {
			return nil, err
		}
		res.EngineMove, res.EngineKind = reply, kind
	}

	if err := s.checkAlive(ctx); err != nil {
		log.Warn("discarding move %s: %v", info.SAN, err)
		return nil, err
	}
	if err := s.store.Save(ctx, g.Record()); err != nil {
		log.Error("failed to save game: %v", err)
		return nil, errors.NewInternalError(err)
	}
	s.finish(ctx, g, res)
	return res, nil
}

// checkAlive refuses to commit work for a request whose caller has gone.
func (s *gameService) checkAlive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.NewTimeoutError(err)
	}
	return nil
}

func (s *gameService) load(ctx context.Context, gameID string) (*game.Game, error) {
	rec, err := s.store.Get(ctx, gameID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load game %s: %v", gameID, err)
		return nil, errors.NewInternalError(err)
	}
	if rec == nil {
		return nil, errors.NewNoActiveGameError()
	}
	g, err := game.Replay(*rec)
	if err != nil {
		logger.FromContext(ctx).Error("stored game %s is corrupt: %v", gameID, err)
		return nil, errors.NewInternalError(err)
	}
	return g, nil
}

func (s *gameService) engineReply(ctx context.Context, g *game.Game) (*game.MoveInfo, engine.MoveKind, error) {
	mv, kind, err := s.chooser.Choose(ctx, g.Position())
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", errors.NewTimeoutError(err)
		}
		return nil, "", errors.NewInternalError(err)
	}
	info, err := g.ApplyEngineMove(mv)
	if err != nil {
		return nil, "", errors.NewInternalError(err)
	}
	logger.FromContext(ctx).Info("engine replied %s (%s)", info.SAN, kind)
	return &info, kind, nil
}

// finish fills in the position and, for a finished game, the result and
// an archive job.
func (s *gameService) finish(ctx context.Context, g *game.Game, res *MoveResult) {
	res.FEN = g.FEN()
	if !g.IsOver() {
		return
	}
	res.GameOver = true
	res.Result = g.Result()

	log := logger.FromContext(ctx).WithField("game_id", g.ID())
	log.Info("game over: %s", res.Result)

	archived := models.ArchivedGame{
		ID:          g.ID(),
		PlayerColor: game.ColorName(g.PlayerColor()),
		Outcome:     string(g.Outcome()),
		Method:      game.MethodName(g.Method()),
		Result:      res.Result,
		PGN:         g.PGN(),
		MoveCount:   g.MoveCount(),
		StartedAt:   g.StartedAt(),
		FinishedAt:  s.now(),
	}
	if s.jobQueue == nil {
		return
	}
	if err := s.jobQueue.EnqueueArchive(archived); err != nil {
		log.Warn("failed to queue archive job: %v", err)
	}
}

func (s *gameService) PGN(ctx context.Context, gameID string) (string, error) {
	if gameID == "" {
		return "", errors.NewNoActiveGameError()
	}
	g, err := s.load(ctx, gameID)
	if err != nil {
		return "", err
	}
	return g.PGN(), nil
}

func (s *gameService) ListArchived(ctx context.Context, filter models.ArchiveFilter) ([]models.ArchivedGame, int, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing archived games: outcome=%s, player_color=%s", filter.Outcome, filter.PlayerColor)

	games, err := s.archiveRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list archived games: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	total, err := s.archiveRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count archived games: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	return games, total, nil
}

func (s *gameService) GetArchived(ctx context.Context, id string) (*models.ArchivedGame, error) {
	g, err := s.archiveRepo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("game", id)
		}
		logger.FromContext(ctx).Error("failed to get archived game: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if g == nil {
		return nil, errors.NewNotFoundError("game", id)
	}
	g.Headers = pgn.Headers(g.PGN)
	g.Moves = pgn.Moves(g.PGN)
	return g, nil
}
