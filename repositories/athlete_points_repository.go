package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sfxdeve/padel-fantasy/models"
)

type AthletePointsRepository interface {
	// Upsert writes a (match, athlete) points row, overwriting any previous
	// run's values. This is what makes cascade re-runs idempotent.
	Upsert(ctx context.Context, exec SQLExecutor, points *models.AthleteMatchPoints) error

	// SeasonAverage is the mean of all of an athlete's match totals to date.
	SeasonAverage(ctx context.Context, exec SQLExecutor, athleteID int) (float64, error)

	// TournamentTotal sums an athlete's totals within one tournament.
	TournamentTotal(ctx context.Context, exec SQLExecutor, tournamentID, athleteID int) (int, error)

	// TournamentTotals returns every scoring athlete's total for a tournament.
	TournamentTotals(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]int, error)

	ListByMatch(ctx context.Context, matchID int) ([]*models.AthleteMatchPoints, error)
}

type postgresAthletePointsRepository struct {
	db *sql.DB
}

func NewPostgresAthletePointsRepository(db *sql.DB) AthletePointsRepository {
	return &postgresAthletePointsRepository{db: db}
}

func (r *postgresAthletePointsRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAthletePointsRepository) Upsert(ctx context.Context, exec SQLExecutor, points *models.AthleteMatchPoints) error {
	query := `
		INSERT INTO athlete_match_points (match_id, athlete_id, base_points, bonus_points, total_points)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (match_id, athlete_id)
		DO UPDATE SET base_points = EXCLUDED.base_points,
		              bonus_points = EXCLUDED.bonus_points,
		              total_points = EXCLUDED.total_points
		RETURNING id`

	err := r.executor(exec).QueryRowContext(ctx, query,
		points.MatchID,
		points.AthleteID,
		points.BasePoints,
		points.BonusPoints,
		points.TotalPoints,
	).Scan(&points.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert points for match %d athlete %d: %w", points.MatchID, points.AthleteID, err)
	}
	return nil
}

func (r *postgresAthletePointsRepository) SeasonAverage(ctx context.Context, exec SQLExecutor, athleteID int) (float64, error) {
	query := `
		SELECT COALESCE(AVG(total_points), 0)
		FROM athlete_match_points
		WHERE athlete_id = $1`

	var avg float64
	if err := r.executor(exec).QueryRowContext(ctx, query, athleteID).Scan(&avg); err != nil {
		return 0, fmt.Errorf("failed to compute season average for athlete %d: %w", athleteID, err)
	}
	return avg, nil
}

func (r *postgresAthletePointsRepository) TournamentTotal(ctx context.Context, exec SQLExecutor, tournamentID, athleteID int) (int, error) {
	query := `
		SELECT COALESCE(SUM(amp.total_points), 0)
		FROM athlete_match_points amp
		JOIN matches m ON m.id = amp.match_id
		WHERE m.tournament_id = $1 AND amp.athlete_id = $2`

	var total int
	if err := r.executor(exec).QueryRowContext(ctx, query, tournamentID, athleteID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to compute tournament %d total for athlete %d: %w", tournamentID, athleteID, err)
	}
	return total, nil
}

func (r *postgresAthletePointsRepository) TournamentTotals(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]int, error) {
	query := `
		SELECT amp.athlete_id, SUM(amp.total_points)
		FROM athlete_match_points amp
		JOIN matches m ON m.id = amp.match_id
		WHERE m.tournament_id = $1
		GROUP BY amp.athlete_id`

	rows, err := r.executor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournament %d totals: %w", tournamentID, err)
	}
	defer rows.Close()

	totals := make(map[int]int)
	for rows.Next() {
		var athleteID, total int
		if scanErr := rows.Scan(&athleteID, &total); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament total row: %w", scanErr)
		}
		totals[athleteID] = total
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament total rows iteration: %w", err)
	}
	return totals, nil
}

func (r *postgresAthletePointsRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.AthleteMatchPoints, error) {
	query := `
		SELECT id, match_id, athlete_id, base_points, bonus_points, total_points
		FROM athlete_match_points
		WHERE match_id = $1
		ORDER BY athlete_id ASC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query points for match %d: %w", matchID, err)
	}
	defer rows.Close()

	out := make([]*models.AthleteMatchPoints, 0, 4)
	for rows.Next() {
		p := &models.AthleteMatchPoints{}
		if scanErr := rows.Scan(&p.ID, &p.MatchID, &p.AthleteID, &p.BasePoints, &p.BonusPoints, &p.TotalPoints); scanErr != nil {
			return nil, fmt.Errorf("failed to scan points row: %w", scanErr)
		}
		out = append(out, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during points rows iteration: %w", err)
	}
	return out, nil
}
