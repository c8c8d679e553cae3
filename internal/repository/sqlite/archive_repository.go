package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/sillychess/internal/logger"
	"github.com/vytor/sillychess/internal/models"
	"github.com/vytor/sillychess/internal/repository"
)

const insertArchived = `
INSERT INTO finished_games (
    id, player_color, outcome, method, result, pgn, move_count, started_at, finished_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    outcome = excluded.outcome,
    method = excluded.method,
    result = excluded.result,
    pgn = excluded.pgn,
    move_count = excluded.move_count,
    finished_at = excluded.finished_at
`

var archiveColumns = []string{
	"id", "player_color", "outcome", "method", "result", "pgn", "move_count", "started_at", "finished_at",
}

type archiveRepository struct {
	db *sql.DB
}

// NewArchiveRepository creates a sqlite-backed ArchiveRepository.
func NewArchiveRepository(db *sql.DB) repository.ArchiveRepository {
	return &archiveRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArchived(row scanner) (models.ArchivedGame, error) {
	var g models.ArchivedGame
	err := row.Scan(&g.ID, &g.PlayerColor, &g.Outcome, &g.Method, &g.Result, &g.PGN, &g.MoveCount, &g.StartedAt, &g.FinishedAt)
	return g, err
}

func (r *archiveRepository) Get(ctx context.Context, id string) (*models.ArchivedGame, error) {
	log := logger.FromContext(ctx).WithPrefix("archive_repo")
	log.Debug("getting archived game: id=%s", id)

	query, args, err := sqlBuilder.Select(archiveColumns...).
		From("finished_games").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return nil, err
	}
	g, err := scanArchived(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("archived game not found: id=%s", id)
		} else {
			log.Error("failed to get archived game: %v", err)
		}
		return nil, err
	}
	return &g, nil
}

func (r *archiveRepository) List(ctx context.Context, filter models.ArchiveFilter) ([]models.ArchivedGame, error) {
	log := logger.FromContext(ctx).WithPrefix("archive_repo")
	log.Debug("listing archived games: player_color=%s, outcome=%s, method=%s",
		filter.PlayerColor, filter.Outcome, filter.Method)

	query := applyArchiveFilter(sqlBuilder.Select(archiveColumns...).From("finished_games"), filter)

	orderDir := "DESC"
	if filter.OrderDir == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy("finished_at " + orderDir)

	limit := filter.Limit
	switch {
	case limit <= 0:
		limit = 50
	case limit > 200:
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	stmt, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		log.Error("failed to list archived games: %v", err)
		return nil, err
	}
	defer rows.Close()

	games := []models.ArchivedGame{}
	for rows.Next() {
		g, err := scanArchived(rows)
		if err != nil {
			log.Error("failed to scan archived game row: %v", err)
			return nil, err
		}
		games = append(games, g)
	}
	log.Debug("found %d archived games", len(games))
	return games, rows.Err()
}

func (r *archiveRepository) Count(ctx context.Context, filter models.ArchiveFilter) (int, error) {
	stmt, args, err := applyArchiveFilter(sqlBuilder.Select("COUNT(*)").From("finished_games"), filter).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.QueryRowContext(ctx, stmt, args...).Scan(&n)
	return n, err
}

func (r *archiveRepository) Insert(ctx context.Context, g models.ArchivedGame) error {
	log := logger.FromContext(ctx).WithPrefix("archive_repo")
	log.Debug("archiving game: id=%s, result=%s", g.ID, g.Result)

	_, err := r.db.ExecContext(ctx, insertArchived,
		g.ID, g.PlayerColor, g.Outcome, g.Method, g.Result, g.PGN, g.MoveCount, g.StartedAt, g.FinishedAt)
	if err != nil {
		log.Error("failed to archive game: %v", err)
	}
	return err
}
