package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sfxdeve/padel-fantasy/models"
)

var ErrAthleteNotFound = errors.New("athlete not found")

type AthleteRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Athlete, error)
	ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]*models.Athlete, error)
	UpdateMovingAvg(ctx context.Context, exec SQLExecutor, id int, movingAvg float64) error
	UpdatePriceAndAvg(ctx context.Context, exec SQLExecutor, id int, price int, movingAvg float64) error
	UpdatePhotoKey(ctx context.Context, id int, photoKey *string) error

	// EnteredInTournament lists the athletes actually playing a tournament,
	// derived from the pairs its matches reference.
	EnteredInTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]int, error)
}

type postgresAthleteRepository struct {
	db *sql.DB
}

func NewPostgresAthleteRepository(db *sql.DB) AthleteRepository {
	return &postgresAthleteRepository{db: db}
}

func (r *postgresAthleteRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAthleteRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Athlete, error) {
	query := `
		SELECT id, first_name, last_name, price, moving_avg, photo_key, created_at
		FROM athletes
		WHERE id = $1`

	athlete := &models.Athlete{}
	err := r.executor(exec).QueryRowContext(ctx, query, id).Scan(
		&athlete.ID,
		&athlete.FirstName,
		&athlete.LastName,
		&athlete.Price,
		&athlete.MovingAvg,
		&athlete.PhotoKey,
		&athlete.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAthleteNotFound
		}
		return nil, fmt.Errorf("failed to scan athlete %d: %w", id, err)
	}
	return athlete, nil
}

func (r *postgresAthleteRepository) ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]*models.Athlete, error) {
	query := `
		SELECT id, first_name, last_name, price, moving_avg, photo_key, created_at
		FROM athletes
		WHERE id = ANY($1)
		ORDER BY id ASC`

	rows, err := r.executor(exec).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query athletes: %w", err)
	}
	defer rows.Close()

	athletes := make([]*models.Athlete, 0, len(ids))
	for rows.Next() {
		athlete := &models.Athlete{}
		if scanErr := rows.Scan(
			&athlete.ID,
			&athlete.FirstName,
			&athlete.LastName,
			&athlete.Price,
			&athlete.MovingAvg,
			&athlete.PhotoKey,
			&athlete.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan athlete row: %w", scanErr)
		}
		athletes = append(athletes, athlete)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during athlete rows iteration: %w", err)
	}
	return athletes, nil
}

func (r *postgresAthleteRepository) UpdateMovingAvg(ctx context.Context, exec SQLExecutor, id int, movingAvg float64) error {
	query := `UPDATE athletes SET moving_avg = $1 WHERE id = $2`
	result, err := r.executor(exec).ExecContext(ctx, query, movingAvg, id)
	if err != nil {
		return fmt.Errorf("failed to update moving average for athlete %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrAthleteNotFound)
}

func (r *postgresAthleteRepository) UpdatePriceAndAvg(ctx context.Context, exec SQLExecutor, id int, price int, movingAvg float64) error {
	query := `UPDATE athletes SET price = $1, moving_avg = $2 WHERE id = $3`
	result, err := r.executor(exec).ExecContext(ctx, query, price, movingAvg, id)
	if err != nil {
		return fmt.Errorf("failed to update price for athlete %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrAthleteNotFound)
}

func (r *postgresAthleteRepository) UpdatePhotoKey(ctx context.Context, id int, photoKey *string) error {
	query := `UPDATE athletes SET photo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, photoKey, id)
	if err != nil {
		return fmt.Errorf("failed to update photo key for athlete %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrAthleteNotFound)
}

func (r *postgresAthleteRepository) EnteredInTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]int, error) {
	query := `
		SELECT DISTINCT a.id
		FROM athletes a
		JOIN pairs p ON a.id IN (p.athlete1_id, p.athlete2_id)
		JOIN matches m ON p.id IN (m.pair_a_id, m.pair_b_id)
		WHERE m.tournament_id = $1
		ORDER BY a.id ASC`

	rows, err := r.executor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournament %d entrants: %w", tournamentID, err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan entrant row: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during entrant rows iteration: %w", err)
	}
	return ids, nil
}
