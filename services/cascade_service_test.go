package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/sfxdeve/padel-fantasy/repositories"
)

// fakeMatchRepository serves a single match from memory. Only the read path
// matters here; the guard tests never reach a transaction.
type fakeMatchRepository struct {
	match *models.Match
}

func (f *fakeMatchRepository) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	return nil
}

func (f *fakeMatchRepository) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	if f.match == nil || f.match.ID != id {
		return nil, repositories.ErrMatchNotFound
	}
	clone := *f.match
	return &clone, nil
}

func (f *fakeMatchRepository) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, phase *models.MatchPhase) ([]*models.Match, error) {
	return nil, nil
}

func (f *fakeMatchRepository) GetBySlot(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, slot string) (*models.Match, error) {
	return nil, repositories.ErrMatchNotFound
}

func (f *fakeMatchRepository) SetSeatPair(ctx context.Context, exec repositories.SQLExecutor, matchID int, seat string, pairID int) error {
	return nil
}

func (f *fakeMatchRepository) SubmitResult(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	return nil
}

func (f *fakeMatchRepository) MarkScoringDone(ctx context.Context, exec repositories.SQLExecutor, matchID, version int) (bool, error) {
	return false, nil
}

func (f *fakeMatchRepository) AppendCorrection(ctx context.Context, exec repositories.SQLExecutor, correction *models.MatchCorrection) error {
	return nil
}

func (f *fakeMatchRepository) ListCorrections(ctx context.Context, matchID int) ([]*models.MatchCorrection, error) {
	return nil, nil
}

func guardTestService(match *models.Match) CascadeService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCascadeService(
		nil,
		&fakeMatchRepository{match: match},
		nil, nil, nil, nil, nil, nil, nil, nil,
		nil, nil,
		logger,
	)
}

func completedMatch() *models.Match {
	pairA, pairB := 10, 20
	return &models.Match{
		ID:           1,
		TournamentID: 7,
		Phase:        models.PhaseFinal,
		PairAID:      &pairA,
		PairBID:      &pairB,
		WinnerPairID: &pairA,
		LoserPairID:  &pairB,
		Sets:         []models.SetScore{{A: 6, B: 3}, {A: 6, B: 4}},
		Version:      2,
		Status:       models.MatchStatusCompleted,
	}
}

func TestCascadeSkipsMissingMatch(t *testing.T) {
	svc := guardTestService(nil)
	err := svc.Run(context.Background(), CascadeTask{MatchID: 99, Version: 1})
	assert.NoError(t, err)
}

func TestCascadeSkipsStaleVersion(t *testing.T) {
	// A correction bumped the version after this trigger was enqueued; the
	// newer trigger owns the recompute.
	svc := guardTestService(completedMatch())
	err := svc.Run(context.Background(), CascadeTask{MatchID: 1, Version: 1})
	assert.NoError(t, err)
}

func TestCascadeSkipsAlreadyScored(t *testing.T) {
	match := completedMatch()
	match.ScoringDone = true
	svc := guardTestService(match)
	err := svc.Run(context.Background(), CascadeTask{MatchID: 1, Version: 2})
	assert.NoError(t, err)
}

func TestCascadeSkipsMatchWithoutResult(t *testing.T) {
	match := completedMatch()
	match.Status = models.MatchStatusScheduled
	match.WinnerPairID = nil
	match.LoserPairID = nil
	svc := guardTestService(match)
	err := svc.Run(context.Background(), CascadeTask{MatchID: 1, Version: 2})
	assert.NoError(t, err)
}

func TestCascadeSkipsUnseededSeats(t *testing.T) {
	match := completedMatch()
	match.PairBID = nil
	svc := guardTestService(match)
	err := svc.Run(context.Background(), CascadeTask{MatchID: 1, Version: 2})
	assert.NoError(t, err)
}

func TestScoreSummary(t *testing.T) {
	match := completedMatch()
	match.Sets = append(match.Sets, models.SetScore{A: 7, B: 5})
	tag := "2-1"
	match.ResultTag = &tag
	assert.Equal(t, "6-3 6-4 7-5 (2-1)", scoreSummary(match))

	match.ResultTag = nil
	assert.Equal(t, "6-3 6-4 7-5", scoreSummary(match))
}
