package scoring

import (
	"testing"

	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreBasePointsFirstTwoSetsOnly(t *testing.T) {
	sets := []models.SetScore{{A: 6, B: 3}, {A: 4, B: 6}, {A: 7, B: 5}}

	got, err := Score(models.PhasePool, sets, SideA, false)
	require.NoError(t, err)

	// floor(6/3)+floor(4/3) = 3, floor(3/3)+floor(6/3) = 3; the third set
	// contributes nothing.
	assert.Equal(t, 3, got.PairA.BasePoints)
	assert.Equal(t, 3, got.PairB.BasePoints)
}

func TestScoreDeterministic(t *testing.T) {
	sets := []models.SetScore{{A: 6, B: 4}, {A: 3, B: 6}, {A: 6, B: 2}}

	first, err := Score(models.PhaseSemifinal, sets, SideA, false)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Score(models.PhaseSemifinal, sets, SideA, false)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestScoreBonusMonotonicByPhase(t *testing.T) {
	sets := []models.SetScore{{A: 6, B: 2}, {A: 6, B: 3}}

	phases := []models.MatchPhase{
		models.PhasePool,
		models.PhaseQuarterfinal,
		models.PhaseSemifinal,
		models.PhaseThirdPlace,
		models.PhaseFinal,
	}

	prev := -1
	for _, phase := range phases {
		got, err := Score(phase, sets, SideA, false)
		require.NoError(t, err)
		assert.Greater(t, got.PairA.BonusPoints, prev, "bonus for %s should exceed the previous phase", phase)
		prev = got.PairA.BonusPoints
	}
}

func TestScoreSweepBonusAtLeastThreeSetter(t *testing.T) {
	sweep := []models.SetScore{{A: 6, B: 2}, {A: 6, B: 3}}
	threeSets := []models.SetScore{{A: 6, B: 2}, {A: 3, B: 6}, {A: 6, B: 4}}

	for _, phase := range []models.MatchPhase{models.PhasePool, models.PhaseQuarterfinal, models.PhaseFinal} {
		swept, err := Score(phase, sweep, SideA, false)
		require.NoError(t, err)
		fought, err := Score(phase, threeSets, SideA, false)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, swept.PairA.BonusPoints, fought.PairA.BonusPoints)
	}
}

func TestScoreRetirementPenalty(t *testing.T) {
	sets := []models.SetScore{{A: 6, B: 1}, {A: 3, B: 0}}

	got, err := Score(models.PhaseQuarterfinal, sets, SideA, true)
	require.NoError(t, err)

	assert.Negative(t, got.PairB.BonusPoints)
	assert.Equal(t, got.PairB.BasePoints+got.PairB.BonusPoints, got.PairB.TotalPoints)

	// A clean loss at the same phase carries no penalty.
	clean, err := Score(models.PhaseQuarterfinal, sets, SideA, false)
	require.NoError(t, err)
	assert.Zero(t, clean.PairB.BonusPoints)
}

func TestScoreRejectsBadInput(t *testing.T) {
	_, err := Score(models.PhasePool, []models.SetScore{{A: 6, B: 3}}, SideA, false)
	assert.ErrorIs(t, err, ErrNoSets)

	_, err = Score(models.PhasePool, []models.SetScore{{A: 6, B: 3}, {A: 6, B: 4}}, "C", false)
	assert.ErrorIs(t, err, ErrUnknownSide)

	_, err = Score("group_stage", []models.SetScore{{A: 6, B: 3}, {A: 6, B: 4}}, SideA, false)
	assert.ErrorIs(t, err, ErrUnknownPhase)
}

func TestWinnerFromSets(t *testing.T) {
	side, err := WinnerFromSets([]models.SetScore{{A: 6, B: 3}, {A: 4, B: 6}, {A: 7, B: 5}})
	require.NoError(t, err)
	assert.Equal(t, SideA, side)

	side, err = WinnerFromSets([]models.SetScore{{A: 2, B: 6}, {A: 4, B: 6}})
	require.NoError(t, err)
	assert.Equal(t, SideB, side)

	_, err = WinnerFromSets([]models.SetScore{{A: 6, B: 3}, {A: 4, B: 6}})
	assert.Error(t, err)

	_, err = WinnerFromSets([]models.SetScore{{A: 5, B: 5}, {A: 6, B: 4}})
	assert.Error(t, err)
}

func TestResultTag(t *testing.T) {
	assert.Equal(t, "2-0", ResultTag([]models.SetScore{{A: 6, B: 3}, {A: 6, B: 4}}))
	assert.Equal(t, "2-1", ResultTag([]models.SetScore{{A: 6, B: 3}, {A: 4, B: 6}, {A: 6, B: 2}}))
}
