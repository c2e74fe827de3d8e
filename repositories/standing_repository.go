package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sfxdeve/padel-fantasy/models"
)

type StandingRepository interface {
	// Upsert writes one (league, tournament, team) row; cascade re-runs
	// overwrite the previous values.
	Upsert(ctx context.Context, exec SQLExecutor, standing *models.GameweekStanding) error

	// Rerank reassigns ranks for a (league, tournament) pair: rank 1 goes to
	// the highest gameweek score, ties keep row insertion order.
	Rerank(ctx context.Context, exec SQLExecutor, leagueID, tournamentID int) error

	ListByLeagueAndTournament(ctx context.Context, leagueID, tournamentID int) ([]*models.GameweekStanding, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) Upsert(ctx context.Context, exec SQLExecutor, standing *models.GameweekStanding) error {
	query := `
		INSERT INTO gameweek_standings
			(league_id, tournament_id, fantasy_team_id, gameweek_points, cumulative_points, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (league_id, tournament_id, fantasy_team_id)
		DO UPDATE SET gameweek_points = EXCLUDED.gameweek_points,
		              cumulative_points = EXCLUDED.cumulative_points,
		              updated_at = NOW()
		RETURNING id, updated_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		standing.LeagueID,
		standing.TournamentID,
		standing.FantasyTeamID,
		standing.GameweekPoints,
		standing.CumulativePoints,
	).Scan(&standing.ID, &standing.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert standing for league %d tournament %d team %d: %w",
			standing.LeagueID, standing.TournamentID, standing.FantasyTeamID, err)
	}
	return nil
}

func (r *postgresStandingRepository) Rerank(ctx context.Context, exec SQLExecutor, leagueID, tournamentID int) error {
	// ROW_NUMBER ordered by points desc with id as tiebreaker gives every row
	// a distinct rank with insertion order deciding ties.
	query := `
		UPDATE gameweek_standings gs
		SET rank = ranked.rnk
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY gameweek_points DESC, id ASC) AS rnk
			FROM gameweek_standings
			WHERE league_id = $1 AND tournament_id = $2
		) ranked
		WHERE gs.id = ranked.id`

	if _, err := r.executor(exec).ExecContext(ctx, query, leagueID, tournamentID); err != nil {
		return fmt.Errorf("failed to rerank standings for league %d tournament %d: %w", leagueID, tournamentID, err)
	}
	return nil
}

func (r *postgresStandingRepository) ListByLeagueAndTournament(ctx context.Context, leagueID, tournamentID int) ([]*models.GameweekStanding, error) {
	query := `
		SELECT id, league_id, tournament_id, fantasy_team_id, gameweek_points, cumulative_points, rank, updated_at
		FROM gameweek_standings
		WHERE league_id = $1 AND tournament_id = $2
		ORDER BY rank ASC NULLS LAST, id ASC`

	rows, err := r.db.QueryContext(ctx, query, leagueID, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings for league %d tournament %d: %w", leagueID, tournamentID, err)
	}
	defer rows.Close()

	standings := make([]*models.GameweekStanding, 0)
	for rows.Next() {
		s := &models.GameweekStanding{}
		if scanErr := rows.Scan(
			&s.ID, &s.LeagueID, &s.TournamentID, &s.FantasyTeamID,
			&s.GameweekPoints, &s.CumulativePoints, &s.Rank, &s.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", scanErr)
		}
		standings = append(standings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during standing rows iteration: %w", err)
	}
	return standings, nil
}
