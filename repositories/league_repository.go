package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sfxdeve/padel-fantasy/models"
)

var ErrLeagueNotFound = errors.New("league not found")

type LeagueRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.League, error)

	// ListActiveByChampionship lists the leagues the cascade must update:
	// completed leagues are excluded.
	ListActiveByChampionship(ctx context.Context, exec SQLExecutor, championshipID int) ([]*models.League, error)

	ListMembers(ctx context.Context, exec SQLExecutor, leagueID int) ([]*models.LeagueMember, error)
}

type postgresLeagueRepository struct {
	db *sql.DB
}

func NewPostgresLeagueRepository(db *sql.DB) LeagueRepository {
	return &postgresLeagueRepository{db: db}
}

func (r *postgresLeagueRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresLeagueRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.League, error) {
	query := `SELECT id, championship_id, name, status, created_at FROM leagues WHERE id = $1`

	league := &models.League{}
	err := r.executor(exec).QueryRowContext(ctx, query, id).Scan(
		&league.ID, &league.ChampionshipID, &league.Name, &league.Status, &league.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to scan league %d: %w", id, err)
	}
	return league, nil
}

func (r *postgresLeagueRepository) ListActiveByChampionship(ctx context.Context, exec SQLExecutor, championshipID int) ([]*models.League, error) {
	query := `
		SELECT id, championship_id, name, status, created_at
		FROM leagues
		WHERE championship_id = $1 AND status <> $2
		ORDER BY id ASC`

	rows, err := r.executor(exec).QueryContext(ctx, query, championshipID, models.LeagueStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query leagues for championship %d: %w", championshipID, err)
	}
	defer rows.Close()

	leagues := make([]*models.League, 0)
	for rows.Next() {
		league := &models.League{}
		if scanErr := rows.Scan(
			&league.ID, &league.ChampionshipID, &league.Name, &league.Status, &league.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan league row: %w", scanErr)
		}
		leagues = append(leagues, league)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during league rows iteration: %w", err)
	}
	return leagues, nil
}

func (r *postgresLeagueRepository) ListMembers(ctx context.Context, exec SQLExecutor, leagueID int) ([]*models.LeagueMember, error) {
	query := `
		SELECT league_id, fantasy_team_id, enrolled_at
		FROM league_members
		WHERE league_id = $1
		ORDER BY enrolled_at ASC, fantasy_team_id ASC`

	rows, err := r.executor(exec).QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members for league %d: %w", leagueID, err)
	}
	defer rows.Close()

	members := make([]*models.LeagueMember, 0)
	for rows.Next() {
		member := &models.LeagueMember{}
		if scanErr := rows.Scan(&member.LeagueID, &member.FantasyTeamID, &member.EnrolledAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", scanErr)
		}
		members = append(members, member)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during member rows iteration: %w", err)
	}
	return members, nil
}
