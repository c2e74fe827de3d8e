package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sfxdeve/padel-fantasy/models"
)

var ErrFantasyTeamNotFound = errors.New("fantasy team not found")

type FantasyTeamRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.FantasyTeam, error)
	ListByChampionship(ctx context.Context, exec SQLExecutor, championshipID int) ([]*models.FantasyTeam, error)
	UpdateTotalPoints(ctx context.Context, exec SQLExecutor, id int, totalPoints int) error
}

type postgresFantasyTeamRepository struct {
	db *sql.DB
}

func NewPostgresFantasyTeamRepository(db *sql.DB) FantasyTeamRepository {
	return &postgresFantasyTeamRepository{db: db}
}

func (r *postgresFantasyTeamRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const fantasyTeamColumns = `id, user_id, championship_id, name, total_points, created_at`

func (r *postgresFantasyTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.FantasyTeam, error) {
	query := `SELECT ` + fantasyTeamColumns + ` FROM fantasy_teams WHERE id = $1`

	team := &models.FantasyTeam{}
	err := r.executor(exec).QueryRowContext(ctx, query, id).Scan(
		&team.ID, &team.UserID, &team.ChampionshipID, &team.Name, &team.TotalPoints, &team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFantasyTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan fantasy team %d: %w", id, err)
	}
	return team, nil
}

func (r *postgresFantasyTeamRepository) ListByChampionship(ctx context.Context, exec SQLExecutor, championshipID int) ([]*models.FantasyTeam, error) {
	query := `SELECT ` + fantasyTeamColumns + ` FROM fantasy_teams WHERE championship_id = $1 ORDER BY id ASC`

	rows, err := r.executor(exec).QueryContext(ctx, query, championshipID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fantasy teams for championship %d: %w", championshipID, err)
	}
	defer rows.Close()

	teams := make([]*models.FantasyTeam, 0)
	for rows.Next() {
		team := &models.FantasyTeam{}
		if scanErr := rows.Scan(
			&team.ID, &team.UserID, &team.ChampionshipID, &team.Name, &team.TotalPoints, &team.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan fantasy team row: %w", scanErr)
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during fantasy team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresFantasyTeamRepository) UpdateTotalPoints(ctx context.Context, exec SQLExecutor, id int, totalPoints int) error {
	query := `UPDATE fantasy_teams SET total_points = $1 WHERE id = $2`
	result, err := r.executor(exec).ExecContext(ctx, query, totalPoints, id)
	if err != nil {
		return fmt.Errorf("failed to update total points for team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrFantasyTeamNotFound)
}
