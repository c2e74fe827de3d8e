package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sfxdeve/padel-fantasy/models"
)

var (
	ErrLineupNotFound     = errors.New("lineup not found")
	ErrLineupSlotNotFound = errors.New("lineup slot not found")
	ErrLineupConflict     = errors.New("lineup already exists for this team and tournament")
)

type LineupRepository interface {
	GetByTeamAndTournament(ctx context.Context, exec SQLExecutor, teamID, tournamentID int) (*models.Lineup, error)

	// GetLatestByTeam returns the team's most recently created lineup outside
	// the given tournament, used as a clone source by the lock job.
	GetLatestByTeam(ctx context.Context, exec SQLExecutor, teamID, excludeTournamentID int) (*models.Lineup, error)

	CreateWithSlots(ctx context.Context, exec SQLExecutor, lineup *models.Lineup) error
	ReplaceSlots(ctx context.Context, exec SQLExecutor, lineupID int, slots []models.LineupSlot) error
	Lock(ctx context.Context, exec SQLExecutor, lineupID int, lockedAt time.Time) error
	UpdateSlotRole(ctx context.Context, exec SQLExecutor, slotID int, role models.SlotRole, substitutedIn bool) error

	// SetSlotPointsForAthlete pushes a tournament point total into every
	// effective slot holding the athlete across the tournament's locked
	// lineups. Returns the ids of the fantasy teams touched.
	SetSlotPointsForAthlete(ctx context.Context, exec SQLExecutor, tournamentID, athleteID, points int) ([]int, error)

	// Effective point sums over locked lineups; the cascade recomputes team
	// totals and standings from these rather than applying deltas.
	SumEffectiveSeason(ctx context.Context, exec SQLExecutor, teamID int) (int, error)
	SumEffectiveForTournament(ctx context.Context, exec SQLExecutor, teamID, tournamentID int) (int, error)
	SumEffectiveExcludingTournament(ctx context.Context, exec SQLExecutor, teamID, tournamentID int) (int, error)
}

type postgresLineupRepository struct {
	db *sql.DB
}

func NewPostgresLineupRepository(db *sql.DB) LineupRepository {
	return &postgresLineupRepository{db: db}
}

func (r *postgresLineupRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const lineupColumns = `id, fantasy_team_id, tournament_id, is_locked, locked_at, auto_generated, created_at`

func (r *postgresLineupRepository) GetByTeamAndTournament(ctx context.Context, exec SQLExecutor, teamID, tournamentID int) (*models.Lineup, error) {
	query := `SELECT ` + lineupColumns + ` FROM lineups WHERE fantasy_team_id = $1 AND tournament_id = $2`
	lineup, err := r.scanOne(r.executor(exec).QueryRowContext(ctx, query, teamID, tournamentID))
	if err != nil {
		return nil, err
	}
	if err := r.loadSlots(ctx, exec, lineup); err != nil {
		return nil, err
	}
	return lineup, nil
}

func (r *postgresLineupRepository) GetLatestByTeam(ctx context.Context, exec SQLExecutor, teamID, excludeTournamentID int) (*models.Lineup, error) {
	query := `
		SELECT ` + lineupColumns + `
		FROM lineups
		WHERE fantasy_team_id = $1 AND tournament_id <> $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	lineup, err := r.scanOne(r.executor(exec).QueryRowContext(ctx, query, teamID, excludeTournamentID))
	if err != nil {
		return nil, err
	}
	if err := r.loadSlots(ctx, exec, lineup); err != nil {
		return nil, err
	}
	return lineup, nil
}

func (r *postgresLineupRepository) CreateWithSlots(ctx context.Context, exec SQLExecutor, lineup *models.Lineup) error {
	query := `
		INSERT INTO lineups (fantasy_team_id, tournament_id, is_locked, locked_at, auto_generated)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		lineup.FantasyTeamID,
		lineup.TournamentID,
		lineup.IsLocked,
		lineup.LockedAt,
		lineup.AutoGenerated,
	).Scan(&lineup.ID, &lineup.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "lineups_fantasy_team_id_tournament_id_key" {
			return ErrLineupConflict
		}
		return fmt.Errorf("failed to create lineup for team %d tournament %d: %w", lineup.FantasyTeamID, lineup.TournamentID, err)
	}

	for i := range lineup.Slots {
		lineup.Slots[i].LineupID = lineup.ID
		if err := r.insertSlot(ctx, exec, &lineup.Slots[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresLineupRepository) ReplaceSlots(ctx context.Context, exec SQLExecutor, lineupID int, slots []models.LineupSlot) error {
	if _, err := r.executor(exec).ExecContext(ctx, `DELETE FROM lineup_slots WHERE lineup_id = $1`, lineupID); err != nil {
		return fmt.Errorf("failed to clear slots for lineup %d: %w", lineupID, err)
	}
	for i := range slots {
		slots[i].LineupID = lineupID
		if err := r.insertSlot(ctx, exec, &slots[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresLineupRepository) insertSlot(ctx context.Context, exec SQLExecutor, slot *models.LineupSlot) error {
	query := `
		INSERT INTO lineup_slots (lineup_id, athlete_id, role, bench_order, substituted_in, points)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.executor(exec).QueryRowContext(ctx, query,
		slot.LineupID,
		slot.AthleteID,
		slot.Role,
		slot.BenchOrder,
		slot.SubstitutedIn,
		slot.Points,
	).Scan(&slot.ID)
	if err != nil {
		return fmt.Errorf("failed to insert slot for lineup %d athlete %d: %w", slot.LineupID, slot.AthleteID, err)
	}
	return nil
}

func (r *postgresLineupRepository) Lock(ctx context.Context, exec SQLExecutor, lineupID int, lockedAt time.Time) error {
	query := `UPDATE lineups SET is_locked = TRUE, locked_at = $1 WHERE id = $2`
	result, err := r.executor(exec).ExecContext(ctx, query, lockedAt, lineupID)
	if err != nil {
		return fmt.Errorf("failed to lock lineup %d: %w", lineupID, err)
	}
	return checkAffectedRows(result, ErrLineupNotFound)
}

func (r *postgresLineupRepository) UpdateSlotRole(ctx context.Context, exec SQLExecutor, slotID int, role models.SlotRole, substitutedIn bool) error {
	query := `UPDATE lineup_slots SET role = $1, substituted_in = $2 WHERE id = $3`
	result, err := r.executor(exec).ExecContext(ctx, query, role, substitutedIn, slotID)
	if err != nil {
		return fmt.Errorf("failed to update slot %d: %w", slotID, err)
	}
	return checkAffectedRows(result, ErrLineupSlotNotFound)
}

func (r *postgresLineupRepository) SetSlotPointsForAthlete(ctx context.Context, exec SQLExecutor, tournamentID, athleteID, points int) ([]int, error) {
	query := `
		UPDATE lineup_slots ls
		SET points = $1
		FROM lineups l
		WHERE ls.lineup_id = l.id
		  AND l.tournament_id = $2
		  AND l.is_locked = TRUE
		  AND ls.athlete_id = $3
		  AND (ls.role = 'starter' OR ls.substituted_in = TRUE)
		RETURNING l.fantasy_team_id`

	rows, err := r.executor(exec).QueryContext(ctx, query, points, tournamentID, athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to set slot points for athlete %d in tournament %d: %w", athleteID, tournamentID, err)
	}
	defer rows.Close()

	teamIDs := make([]int, 0)
	for rows.Next() {
		var teamID int
		if scanErr := rows.Scan(&teamID); scanErr != nil {
			return nil, fmt.Errorf("failed to scan touched team row: %w", scanErr)
		}
		teamIDs = append(teamIDs, teamID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during touched team rows iteration: %w", err)
	}
	return teamIDs, nil
}

const effectiveSlotCondition = `l.is_locked = TRUE AND (ls.role = 'starter' OR ls.substituted_in = TRUE)`

func (r *postgresLineupRepository) SumEffectiveSeason(ctx context.Context, exec SQLExecutor, teamID int) (int, error) {
	query := `
		SELECT COALESCE(SUM(ls.points), 0)
		FROM lineup_slots ls
		JOIN lineups l ON l.id = ls.lineup_id
		WHERE l.fantasy_team_id = $1 AND ` + effectiveSlotCondition
	return r.sum(ctx, exec, query, teamID)
}

func (r *postgresLineupRepository) SumEffectiveForTournament(ctx context.Context, exec SQLExecutor, teamID, tournamentID int) (int, error) {
	query := `
		SELECT COALESCE(SUM(ls.points), 0)
		FROM lineup_slots ls
		JOIN lineups l ON l.id = ls.lineup_id
		WHERE l.fantasy_team_id = $1 AND l.tournament_id = $2 AND ` + effectiveSlotCondition
	return r.sum(ctx, exec, query, teamID, tournamentID)
}

func (r *postgresLineupRepository) SumEffectiveExcludingTournament(ctx context.Context, exec SQLExecutor, teamID, tournamentID int) (int, error) {
	query := `
		SELECT COALESCE(SUM(ls.points), 0)
		FROM lineup_slots ls
		JOIN lineups l ON l.id = ls.lineup_id
		WHERE l.fantasy_team_id = $1 AND l.tournament_id <> $2 AND ` + effectiveSlotCondition
	return r.sum(ctx, exec, query, teamID, tournamentID)
}

func (r *postgresLineupRepository) sum(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (int, error) {
	var total int
	if err := r.executor(exec).QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum lineup points: %w", err)
	}
	return total, nil
}

func (r *postgresLineupRepository) scanOne(row *sql.Row) (*models.Lineup, error) {
	lineup := &models.Lineup{}
	err := row.Scan(
		&lineup.ID,
		&lineup.FantasyTeamID,
		&lineup.TournamentID,
		&lineup.IsLocked,
		&lineup.LockedAt,
		&lineup.AutoGenerated,
		&lineup.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLineupNotFound
		}
		return nil, fmt.Errorf("failed to scan lineup: %w", err)
	}
	return lineup, nil
}

func (r *postgresLineupRepository) loadSlots(ctx context.Context, exec SQLExecutor, lineup *models.Lineup) error {
	query := `
		SELECT id, lineup_id, athlete_id, role, bench_order, substituted_in, points
		FROM lineup_slots
		WHERE lineup_id = $1
		ORDER BY role DESC, bench_order ASC NULLS LAST, id ASC`

	rows, err := r.executor(exec).QueryContext(ctx, query, lineup.ID)
	if err != nil {
		return fmt.Errorf("failed to query slots for lineup %d: %w", lineup.ID, err)
	}
	defer rows.Close()

	lineup.Slots = make([]models.LineupSlot, 0, models.StarterSlots+models.BenchSlots)
	for rows.Next() {
		var slot models.LineupSlot
		if scanErr := rows.Scan(
			&slot.ID,
			&slot.LineupID,
			&slot.AthleteID,
			&slot.Role,
			&slot.BenchOrder,
			&slot.SubstitutedIn,
			&slot.Points,
		); scanErr != nil {
			return fmt.Errorf("failed to scan slot row: %w", scanErr)
		}
		lineup.Slots = append(lineup.Slots, slot)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error during slot rows iteration: %w", err)
	}
	return nil
}
