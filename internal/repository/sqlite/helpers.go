package sqlite

import (
	"github.com/Masterminds/squirrel"

	"github.com/vytor/sillychess/internal/models"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// applyArchiveFilter adds the WHERE clauses shared by List and Count.
func applyArchiveFilter(query squirrel.SelectBuilder, filter models.ArchiveFilter) squirrel.SelectBuilder {
	if filter.PlayerColor != "" {
		query = query.Where(squirrel.Eq{"player_color": filter.PlayerColor})
	}
	if filter.Outcome != "" {
		query = query.Where(squirrel.Eq{"outcome": filter.Outcome})
	}
	if filter.Method != "" {
		query = query.Where(squirrel.Eq{"method": filter.Method})
	}
	return query
}
