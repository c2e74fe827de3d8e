package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/sfxdeve/padel-fantasy/models"
)

type PairRepository interface {
	GetByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Pair, error)
}

type postgresPairRepository struct {
	db *sql.DB
}

func NewPostgresPairRepository(db *sql.DB) PairRepository {
	return &postgresPairRepository{db: db}
}

func (r *postgresPairRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPairRepository) GetByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Pair, error) {
	query := `SELECT id, athlete1_id, athlete2_id FROM pairs WHERE id = ANY($1)`

	rows, err := r.executor(exec).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query pairs: %w", err)
	}
	defer rows.Close()

	pairs := make(map[int]*models.Pair, len(ids))
	for rows.Next() {
		pair := &models.Pair{}
		if scanErr := rows.Scan(&pair.ID, &pair.Athlete1ID, &pair.Athlete2ID); scanErr != nil {
			return nil, fmt.Errorf("failed to scan pair row: %w", scanErr)
		}
		pairs[pair.ID] = pair
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during pair rows iteration: %w", err)
	}
	return pairs, nil
}
