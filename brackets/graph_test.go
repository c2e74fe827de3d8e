package brackets

import (
	"testing"

	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardDrawValidates(t *testing.T) {
	require.NoError(t, StandardDraw().Validate())
}

func TestValidateRejectsDoubleFedSeat(t *testing.T) {
	g := StandardDraw()
	g.addEdge(SlotQF2, OutcomeWinner, SlotFinal, SeatA)

	assert.Error(t, g.Validate())
}

func TestValidateRejectsUnknownSlot(t *testing.T) {
	g := StandardDraw()
	g.addEdge("QF9", OutcomeWinner, SlotFinal, SeatA)

	assert.Error(t, g.Validate())
}

func TestSemifinalLosersFeedThirdPlace(t *testing.T) {
	g := StandardDraw()

	edges := g.Successors(SlotSF1, OutcomeLoser)
	require.Len(t, edges, 1)
	assert.Equal(t, SlotThird, edges[0].To)
	assert.Equal(t, SeatA, edges[0].ToSeat)

	edges = g.Successors(SlotSF2, OutcomeLoser)
	require.Len(t, edges, 1)
	assert.Equal(t, SlotThird, edges[0].To)
	assert.Equal(t, SeatB, edges[0].ToSeat)
}

func TestTerminalSlotsHaveNoSuccessors(t *testing.T) {
	g := StandardDraw()

	for _, slot := range []SlotID{SlotFinal, SlotThird} {
		assert.Empty(t, g.Successors(slot, OutcomeWinner))
		assert.Empty(t, g.Successors(slot, OutcomeLoser))
	}
}

func TestQualificationRoundOneFeedsGroupFinal(t *testing.T) {
	g := StandardDraw()

	edges := g.Successors(QualiR1M1("Q2"), OutcomeWinner)
	require.Len(t, edges, 1)
	assert.Equal(t, QualiR2("Q2"), edges[0].To)
	assert.Equal(t, SeatA, edges[0].ToSeat)

	edges = g.Successors(QualiR1M2("Q2"), OutcomeWinner)
	require.Len(t, edges, 1)
	assert.Equal(t, QualiR2("Q2"), edges[0].To)
	assert.Equal(t, SeatB, edges[0].ToSeat)
}

func TestPoolInitialMatchesFeedWinnersAndLosers(t *testing.T) {
	g := StandardDraw()

	winner := g.Successors(PoolInitialA("P3"), OutcomeWinner)
	require.Len(t, winner, 1)
	assert.Equal(t, PoolWinners("P3"), winner[0].To)

	loser := g.Successors(PoolInitialA("P3"), OutcomeLoser)
	require.Len(t, loser, 1)
	assert.Equal(t, PoolLosers("P3"), loser[0].To)
}

func TestSeatSources(t *testing.T) {
	g := StandardDraw()

	seatA, seatB := g.SeatSources(SlotFinal)
	require.NotNil(t, seatA)
	require.NotNil(t, seatB)
	assert.Equal(t, SourceRef{Slot: SlotSF1, Outcome: OutcomeWinner}, *seatA)
	assert.Equal(t, SourceRef{Slot: SlotSF2, Outcome: OutcomeWinner}, *seatB)

	// QF seat A is filled by pool seeding, not by an edge.
	seatA, seatB = g.SeatSources(SlotQF1)
	assert.Nil(t, seatA)
	require.NotNil(t, seatB)
	assert.Equal(t, SourceRef{Slot: SlotR12M3, Outcome: OutcomeWinner}, *seatB)
}

func TestPhaseOf(t *testing.T) {
	g := StandardDraw()

	phase, ok := g.PhaseOf(SlotSF2)
	require.True(t, ok)
	assert.Equal(t, models.PhaseSemifinal, phase)

	_, ok = g.PhaseOf("NOPE")
	assert.False(t, ok)
}
