package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/sfxdeve/padel-fantasy/models"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchPairInvalid       = errors.New("match pair conflict or invalid")
	ErrMatchSlotConflict      = errors.New("match bracket slot already occupied")
	ErrMatchSeatInvalid       = errors.New("match seat must be A or B")
)

const matchColumns = `
	id, tournament_id, phase, round, slot_id, pair_a_id, pair_b_id,
	seat_a_source_slot, seat_a_source_outcome, seat_b_source_slot, seat_b_source_outcome,
	sets, result_tag, retired, winner_pair_id, loser_pair_id,
	version, scoring_done, status, match_time, created_at`

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, phase *models.MatchPhase) ([]*models.Match, error)
	GetBySlot(ctx context.Context, exec SQLExecutor, tournamentID int, slot string) (*models.Match, error)

	SetSeatPair(ctx context.Context, exec SQLExecutor, matchID int, seat string, pairID int) error

	// SubmitResult writes a result, bumps the version and re-arms scoring.
	// The new version is written back into match.
	SubmitResult(ctx context.Context, exec SQLExecutor, match *models.Match) error

	// MarkScoringDone is the compare-and-swap idempotency guard: it succeeds
	// only if the stored version still matches and scoring is not yet done.
	MarkScoringDone(ctx context.Context, exec SQLExecutor, matchID, version int) (bool, error)

	AppendCorrection(ctx context.Context, exec SQLExecutor, correction *models.MatchCorrection) error
	ListCorrections(ctx context.Context, matchID int) ([]*models.MatchCorrection, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	setsJSON, err := marshalSets(match.Sets)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO matches
			(tournament_id, phase, round, slot_id, pair_a_id, pair_b_id,
			 seat_a_source_slot, seat_a_source_outcome, seat_b_source_slot, seat_b_source_outcome,
			 sets, result_tag, retired, winner_pair_id, loser_pair_id,
			 version, scoring_done, status, match_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at`

	err = r.executor(exec).QueryRowContext(ctx, query,
		match.TournamentID,
		match.Phase,
		match.Round,
		match.SlotID,
		match.PairAID,
		match.PairBID,
		match.SeatASourceSlot,
		match.SeatASourceOutcome,
		match.SeatBSourceSlot,
		match.SeatBSourceOutcome,
		setsJSON,
		match.ResultTag,
		match.Retired,
		match.WinnerPairID,
		match.LoserPairID,
		match.Version,
		match.ScoringDone,
		match.Status,
		match.MatchTime,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanOne(r.executor(exec).QueryRowContext(ctx, query, id), id)
}

func (r *postgresMatchRepository) GetBySlot(ctx context.Context, exec SQLExecutor, tournamentID int, slot string) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1 AND slot_id = $2`
	return r.scanOne(r.executor(exec).QueryRowContext(ctx, query, tournamentID, slot), tournamentID)
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, phase *models.MatchPhase) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	if phase != nil {
		queryBuilder.WriteString(" AND phase = $" + strconv.Itoa(len(args)+1))
		args = append(args, *phase)
	}
	queryBuilder.WriteString(" ORDER BY match_time ASC, id ASC")

	rows, err := r.executor(exec).QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

func (r *postgresMatchRepository) SetSeatPair(ctx context.Context, exec SQLExecutor, matchID int, seat string, pairID int) error {
	var column string
	switch seat {
	case "A":
		column = "pair_a_id"
	case "B":
		column = "pair_b_id"
	default:
		return fmt.Errorf("%w: %q", ErrMatchSeatInvalid, seat)
	}

	query := fmt.Sprintf(`UPDATE matches SET %s = $1 WHERE id = $2`, column)
	result, err := r.executor(exec).ExecContext(ctx, query, pairID, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SubmitResult(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	setsJSON, err := marshalSets(match.Sets)
	if err != nil {
		return err
	}

	query := `
		UPDATE matches
		SET sets = $1, result_tag = $2, retired = $3,
		    winner_pair_id = $4, loser_pair_id = $5, status = $6,
		    version = version + 1, scoring_done = FALSE
		WHERE id = $7
		RETURNING version`

	err = r.executor(exec).QueryRowContext(ctx, query,
		setsJSON,
		match.ResultTag,
		match.Retired,
		match.WinnerPairID,
		match.LoserPairID,
		match.Status,
		match.ID,
	).Scan(&match.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMatchNotFound
		}
		return r.handleMatchError(err)
	}
	match.ScoringDone = false
	return nil
}

func (r *postgresMatchRepository) MarkScoringDone(ctx context.Context, exec SQLExecutor, matchID, version int) (bool, error) {
	query := `
		UPDATE matches
		SET scoring_done = TRUE
		WHERE id = $1 AND version = $2 AND scoring_done = FALSE`

	result, err := r.executor(exec).ExecContext(ctx, query, matchID, version)
	if err != nil {
		return false, fmt.Errorf("failed to mark scoring done for match %d: %w", matchID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return affected == 1, nil
}

func (r *postgresMatchRepository) AppendCorrection(ctx context.Context, exec SQLExecutor, correction *models.MatchCorrection) error {
	prevSetsJSON, err := marshalSets(correction.PrevSets)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO match_corrections (id, match_id, prev_sets, prev_result_tag, actor_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err = r.executor(exec).QueryRowContext(ctx, query,
		correction.ID,
		correction.MatchID,
		prevSetsJSON,
		correction.PrevResultTag,
		correction.ActorID,
	).Scan(&correction.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append correction for match %d: %w", correction.MatchID, err)
	}
	return nil
}

func (r *postgresMatchRepository) ListCorrections(ctx context.Context, matchID int) ([]*models.MatchCorrection, error) {
	query := `
		SELECT id, match_id, prev_sets, prev_result_tag, actor_id, created_at
		FROM match_corrections
		WHERE match_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections for match %d: %w", matchID, err)
	}
	defer rows.Close()

	corrections := make([]*models.MatchCorrection, 0)
	for rows.Next() {
		var c models.MatchCorrection
		var prevSetsJSON []byte
		if scanErr := rows.Scan(&c.ID, &c.MatchID, &prevSetsJSON, &c.PrevResultTag, &c.ActorID, &c.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan correction row: %w", scanErr)
		}
		if err := unmarshalSets(prevSetsJSON, &c.PrevSets); err != nil {
			return nil, err
		}
		corrections = append(corrections, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during correction rows iteration: %w", err)
	}
	return corrections, nil
}

func (r *postgresMatchRepository) scanOne(row *sql.Row, id int) (*models.Match, error) {
	match := &models.Match{}
	var setsJSON []byte

	err := row.Scan(
		&match.ID,
		&match.TournamentID,
		&match.Phase,
		&match.Round,
		&match.SlotID,
		&match.PairAID,
		&match.PairBID,
		&match.SeatASourceSlot,
		&match.SeatASourceOutcome,
		&match.SeatBSourceSlot,
		&match.SeatBSourceOutcome,
		&setsJSON,
		&match.ResultTag,
		&match.Retired,
		&match.WinnerPairID,
		&match.LoserPairID,
		&match.Version,
		&match.ScoringDone,
		&match.Status,
		&match.MatchTime,
		&match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	if err := unmarshalSets(setsJSON, &match.Sets); err != nil {
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) scanMany(rows *sql.Rows) ([]*models.Match, error) {
	matches := make([]*models.Match, 0)
	for rows.Next() {
		match := &models.Match{}
		var setsJSON []byte
		if scanErr := rows.Scan(
			&match.ID,
			&match.TournamentID,
			&match.Phase,
			&match.Round,
			&match.SlotID,
			&match.PairAID,
			&match.PairBID,
			&match.SeatASourceSlot,
			&match.SeatASourceOutcome,
			&match.SeatBSourceSlot,
			&match.SeatBSourceOutcome,
			&setsJSON,
			&match.ResultTag,
			&match.Retired,
			&match.WinnerPairID,
			&match.LoserPairID,
			&match.Version,
			&match.ScoringDone,
			&match.Status,
			&match.MatchTime,
			&match.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		if err := unmarshalSets(setsJSON, &match.Sets); err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_pair_a_id_fkey", "matches_pair_b_id_fkey",
			"matches_winner_pair_id_fkey", "matches_loser_pair_id_fkey":
			return ErrMatchPairInvalid
		case "matches_tournament_id_slot_id_key":
			return ErrMatchSlotConflict
		}
	}
	return err
}

func marshalSets(sets []models.SetScore) ([]byte, error) {
	if sets == nil {
		sets = []models.SetScore{}
	}
	data, err := json.Marshal(sets)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal set scores: %w", err)
	}
	return data, nil
}

func unmarshalSets(data []byte, dst *[]models.SetScore) error {
	if len(data) == 0 {
		*dst = nil
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal set scores: %w", err)
	}
	return nil
}
