package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/sfxdeve/padel-fantasy/repositories"
)

// recordingMatchRepository also captures the match written by SubmitResult.
type recordingMatchRepository struct {
	fakeMatchRepository
	submitted *models.Match
}

func (f *recordingMatchRepository) SubmitResult(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	clone := *match
	f.submitted = &clone
	match.Version++
	match.ScoringDone = false
	return nil
}

func matchTestService(match *models.Match) (MatchService, *recordingMatchRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := &recordingMatchRepository{fakeMatchRepository: fakeMatchRepository{match: match}}
	runner := NewCascadeRunner(guardTestService(nil), 1, 4, logger)
	return NewMatchService(nil, repo, nil, runner, logger), repo
}

func scheduledMatch() *models.Match {
	pairA, pairB := 10, 20
	return &models.Match{
		ID:           1,
		TournamentID: 7,
		Phase:        models.PhasePool,
		PairAID:      &pairA,
		PairBID:      &pairB,
		Version:      0,
		Status:       models.MatchStatusScheduled,
	}
}

func TestSubmitResultDerivesWinnerFromSets(t *testing.T) {
	svc, repo := matchTestService(scheduledMatch())

	match, err := svc.SubmitResult(context.Background(), 1, SubmitResultInput{
		Sets:    []models.SetScore{{A: 3, B: 6}, {A: 6, B: 4}, {A: 4, B: 6}},
		ActorID: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.submitted)

	assert.Equal(t, models.MatchStatusCompleted, match.Status)
	assert.Equal(t, 20, *match.WinnerPairID)
	assert.Equal(t, 10, *match.LoserPairID)
	require.NotNil(t, match.ResultTag)
	assert.Equal(t, "2-1", *match.ResultTag)
}

func TestSubmitResultRejectsUnscheduledMatch(t *testing.T) {
	match := scheduledMatch()
	match.Status = models.MatchStatusCompleted
	svc, _ := matchTestService(match)

	_, err := svc.SubmitResult(context.Background(), 1, SubmitResultInput{
		Sets: []models.SetScore{{A: 6, B: 3}, {A: 6, B: 4}},
	})
	assert.ErrorIs(t, err, ErrMatchNotScheduled)
}

func TestSubmitResultRejectsUnseededSeats(t *testing.T) {
	match := scheduledMatch()
	match.PairBID = nil
	svc, _ := matchTestService(match)

	_, err := svc.SubmitResult(context.Background(), 1, SubmitResultInput{
		Sets: []models.SetScore{{A: 6, B: 3}, {A: 6, B: 4}},
	})
	assert.ErrorIs(t, err, ErrMatchSeatsUnseeded)
}

func TestSubmitResultRejectsBadSetCount(t *testing.T) {
	svc, _ := matchTestService(scheduledMatch())

	_, err := svc.SubmitResult(context.Background(), 1, SubmitResultInput{
		Sets: []models.SetScore{{A: 6, B: 3}},
	})
	assert.ErrorIs(t, err, ErrInvalidSetScores)

	_, err = svc.SubmitResult(context.Background(), 1, SubmitResultInput{
		Sets: []models.SetScore{{A: 6, B: 3}, {A: 6, B: 4}, {A: 6, B: 4}, {A: 6, B: 4}},
	})
	assert.ErrorIs(t, err, ErrInvalidSetScores)
}

func TestSubmitResultRetirementNeedsExplicitWinner(t *testing.T) {
	svc, _ := matchTestService(scheduledMatch())

	_, err := svc.SubmitResult(context.Background(), 1, SubmitResultInput{
		Sets:    []models.SetScore{{A: 6, B: 3}, {A: 2, B: 1}},
		Retired: true,
	})
	assert.ErrorIs(t, err, ErrRetirementNeedsSide)

	bogus := "C"
	_, err = svc.SubmitResult(context.Background(), 1, SubmitResultInput{
		Sets:       []models.SetScore{{A: 6, B: 3}, {A: 2, B: 1}},
		Retired:    true,
		WinnerSide: &bogus,
	})
	assert.ErrorIs(t, err, ErrRetirementNeedsSide)
}

func TestSubmitResultRetirementUsesGivenWinner(t *testing.T) {
	svc, _ := matchTestService(scheduledMatch())

	side := "A"
	match, err := svc.SubmitResult(context.Background(), 1, SubmitResultInput{
		Sets:       []models.SetScore{{A: 6, B: 3}, {A: 2, B: 1}},
		Retired:    true,
		WinnerSide: &side,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, *match.WinnerPairID)
	assert.True(t, match.Retired)
}
