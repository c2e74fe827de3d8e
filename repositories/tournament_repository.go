package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sfxdeve/padel-fantasy/models"
)

var (
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrChampionshipNotFound = errors.New("championship not found")
)

const tournamentColumns = `
	id, championship_id, name, location, start_date, end_date,
	lineup_lock_at, lineups_locked, status, price_volatility, created_at`

type TournamentRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	GetChampionship(ctx context.Context, exec SQLExecutor, id int) (*models.Championship, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	SetLineupsLocked(ctx context.Context, exec SQLExecutor, id int) error

	// ListDueForLock finds tournaments past their lineup lock time whose
	// lineups have not yet been locked.
	ListDueForLock(ctx context.Context, now time.Time) ([]*models.Tournament, error)

	// ListDueForFinalize finds tournaments past their end date that have not
	// been finalized yet.
	ListDueForFinalize(ctx context.Context, now time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.scanOne(r.executor(exec).QueryRowContext(ctx, query, id), id)
}

func (r *postgresTournamentRepository) GetChampionship(ctx context.Context, exec SQLExecutor, id int) (*models.Championship, error) {
	query := `
		SELECT id, name, season, price_floor, price_cap, created_at
		FROM championships
		WHERE id = $1`

	c := &models.Championship{}
	err := r.executor(exec).QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Season, &c.PriceFloor, &c.PriceCap, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChampionshipNotFound
		}
		return nil, fmt.Errorf("failed to scan championship %d: %w", id, err)
	}
	return c, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := r.executor(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetLineupsLocked(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE tournaments SET lineups_locked = TRUE WHERE id = $1`
	result, err := r.executor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark lineups locked for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListDueForLock(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := `
		SELECT` + tournamentColumns + `
		FROM tournaments
		WHERE lineups_locked = FALSE AND lineup_lock_at <= $1
		ORDER BY lineup_lock_at ASC`
	return r.list(ctx, query, now)
}

func (r *postgresTournamentRepository) ListDueForFinalize(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := `
		SELECT` + tournamentColumns + `
		FROM tournaments
		WHERE status <> $1 AND end_date <= $2
		ORDER BY end_date ASC`
	return r.list(ctx, query, models.TournamentStatusFinalized, now)
}

func (r *postgresTournamentRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Tournament, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t := &models.Tournament{}
		if scanErr := rows.Scan(
			&t.ID, &t.ChampionshipID, &t.Name, &t.Location, &t.StartDate, &t.EndDate,
			&t.LineupLockAt, &t.LineupsLocked, &t.Status, &t.PriceVolatility, &t.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) scanOne(row *sql.Row, id int) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.ChampionshipID, &t.Name, &t.Location, &t.StartDate, &t.EndDate,
		&t.LineupLockAt, &t.LineupsLocked, &t.Status, &t.PriceVolatility, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %d: %w", id, err)
	}
	return t, nil
}
