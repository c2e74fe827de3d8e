package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfxdeve/padel-fantasy/brackets"
	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/sfxdeve/padel-fantasy/repositories"
)

// bracketFakeRepository keeps the tournament's matches in memory keyed by
// slot, enough to drive the progression walk.
type bracketFakeRepository struct {
	fakeMatchRepository
	nextID  int
	bySlot  map[string]*models.Match
	byID    map[int]*models.Match
	created []string
}

func newBracketFakeRepository() *bracketFakeRepository {
	return &bracketFakeRepository{
		nextID: 1,
		bySlot: make(map[string]*models.Match),
		byID:   make(map[int]*models.Match),
	}
}

func (f *bracketFakeRepository) add(match *models.Match) *models.Match {
	match.ID = f.nextID
	f.nextID++
	if match.SlotID != nil {
		f.bySlot[*match.SlotID] = match
	}
	f.byID[match.ID] = match
	return match
}

func (f *bracketFakeRepository) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	f.add(match)
	f.created = append(f.created, *match.SlotID)
	return nil
}

func (f *bracketFakeRepository) GetBySlot(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, slot string) (*models.Match, error) {
	match, ok := f.bySlot[slot]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return match, nil
}

func (f *bracketFakeRepository) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, phase *models.MatchPhase) ([]*models.Match, error) {
	var out []*models.Match
	for _, match := range f.byID {
		if phase == nil || match.Phase == *phase {
			out = append(out, match)
		}
	}
	return out, nil
}

func (f *bracketFakeRepository) SetSeatPair(ctx context.Context, exec repositories.SQLExecutor, matchID int, seat string, pairID int) error {
	match, ok := f.byID[matchID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if seat == "A" {
		match.PairAID = &pairID
	} else {
		match.PairBID = &pairID
	}
	return nil
}

func playedMatch(slot string, phase models.MatchPhase, winner, loser int) *models.Match {
	return &models.Match{
		TournamentID: 1,
		Phase:        phase,
		SlotID:       &slot,
		PairAID:      &winner,
		PairBID:      &loser,
		WinnerPairID: &winner,
		LoserPairID:  &loser,
		Sets:         []models.SetScore{{A: 6, B: 3}, {A: 6, B: 4}},
		Status:       models.MatchStatusCompleted,
	}
}

func progressionTestService(t *testing.T, repo repositories.MatchRepository) ProgressionService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewProgressionService(repo, brackets.StandardDraw(), logger)
	require.NoError(t, err)
	return svc
}

func TestAdvanceSemifinalFeedsFinalAndThird(t *testing.T) {
	repo := newBracketFakeRepository()
	sf1 := repo.add(playedMatch("SF1", models.PhaseSemifinal, 100, 200))
	svc := progressionTestService(t, repo)

	require.NoError(t, svc.Advance(context.Background(), nil, sf1))

	final := repo.bySlot["FINAL"]
	require.NotNil(t, final)
	assert.Equal(t, models.PhaseFinal, final.Phase)
	require.NotNil(t, final.PairAID)
	assert.Equal(t, 100, *final.PairAID)
	assert.Nil(t, final.PairBID)

	third := repo.bySlot["THIRD"]
	require.NotNil(t, third)
	assert.Equal(t, models.PhaseThirdPlace, third.Phase)
	require.NotNil(t, third.PairAID)
	assert.Equal(t, 200, *third.PairAID)
}

func TestAdvanceBothSemifinalsCompleteTheFinal(t *testing.T) {
	repo := newBracketFakeRepository()
	sf1 := repo.add(playedMatch("SF1", models.PhaseSemifinal, 100, 200))
	sf2 := repo.add(playedMatch("SF2", models.PhaseSemifinal, 300, 400))
	svc := progressionTestService(t, repo)

	require.NoError(t, svc.Advance(context.Background(), nil, sf1))
	require.NoError(t, svc.Advance(context.Background(), nil, sf2))

	final := repo.bySlot["FINAL"]
	require.NotNil(t, final)
	assert.Equal(t, 100, *final.PairAID)
	assert.Equal(t, 300, *final.PairBID)

	third := repo.bySlot["THIRD"]
	require.NotNil(t, third)
	assert.Equal(t, 200, *third.PairAID)
	assert.Equal(t, 400, *third.PairBID)

	// The successor matches are created once, not per advancement.
	assert.ElementsMatch(t, []string{"FINAL", "THIRD"}, repo.created)
}

func TestAdvanceTerminalPhasesStop(t *testing.T) {
	repo := newBracketFakeRepository()
	final := repo.add(playedMatch("FINAL", models.PhaseFinal, 100, 300))
	svc := progressionTestService(t, repo)

	require.NoError(t, svc.Advance(context.Background(), nil, final))
	assert.Empty(t, repo.created)
}

func TestAdvanceCreatesSuccessorWithSeatSources(t *testing.T) {
	repo := newBracketFakeRepository()
	qf1 := repo.add(playedMatch("QF1", models.PhaseQuarterfinal, 100, 200))
	svc := progressionTestService(t, repo)

	require.NoError(t, svc.Advance(context.Background(), nil, qf1))

	sf1 := repo.bySlot["SF1"]
	require.NotNil(t, sf1)
	require.NotNil(t, sf1.SeatASourceSlot)
	assert.Equal(t, "QF1", *sf1.SeatASourceSlot)
	assert.Equal(t, "winner", *sf1.SeatASourceOutcome)
	require.NotNil(t, sf1.SeatBSourceSlot)
	assert.Equal(t, "QF2", *sf1.SeatBSourceSlot)
}

func TestAdvanceCorrectionDoesNotRewritePlayedSuccessor(t *testing.T) {
	repo := newBracketFakeRepository()
	sf1 := repo.add(playedMatch("SF1", models.PhaseSemifinal, 100, 200))
	finalMatch := repo.add(playedMatch("FINAL", models.PhaseFinal, 100, 300))
	svc := progressionTestService(t, repo)

	// Correct SF1 so pair 200 now wins; the already-played final keeps its
	// original seats.
	sf1.WinnerPairID = intPtr(200)
	sf1.LoserPairID = intPtr(100)
	require.NoError(t, svc.Advance(context.Background(), nil, sf1))

	assert.Equal(t, 100, *finalMatch.PairAID)
}
