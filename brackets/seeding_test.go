package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullyRankedPools() map[PoolID]PoolRanking {
	// Pair ids 1-16: pool P1 holds 1-4, P2 5-8, etc.
	ranks := make(map[PoolID]PoolRanking)
	next := 1
	for _, pool := range Pools {
		ranks[pool] = PoolRanking{next, next + 1, next + 2, next + 3}
		next += 4
	}
	return ranks
}

func TestRankPoolFixedMapping(t *testing.T) {
	ranking := RankPool(10, 20, 30, 40)

	assert.Equal(t, PoolRanking{10, 20, 30, 40}, ranking)
}

func TestSeedMainDrawInvariant(t *testing.T) {
	seedings, err := SeedMainDraw(fullyRankedPools())
	require.NoError(t, err)

	var byes, r12 int
	seenPairs := make(map[int]bool)
	seenSeats := make(map[string]bool)

	for _, s := range seedings {
		assert.False(t, seenPairs[s.PairID], "pair %d seeded twice", s.PairID)
		seenPairs[s.PairID] = true

		seat := string(s.Slot) + "/" + string(s.Seat)
		assert.False(t, seenSeats[seat], "seat %s filled twice", seat)
		seenSeats[seat] = true

		if s.Bye {
			byes++
		} else {
			r12++
		}
	}

	assert.Equal(t, 4, byes, "exactly four quarterfinal byes")
	assert.Equal(t, 8, r12, "exactly eight round-of-12 seats")
}

func TestSeedMainDrawByesAreQuarterfinalSeatA(t *testing.T) {
	seedings, err := SeedMainDraw(fullyRankedPools())
	require.NoError(t, err)

	for _, s := range seedings {
		if s.Bye {
			assert.Contains(t, []SlotID{SlotQF1, SlotQF2, SlotQF3, SlotQF4}, s.Slot)
			assert.Equal(t, SeatA, s.Seat)
		} else {
			assert.Contains(t, []SlotID{SlotR12M1, SlotR12M2, SlotR12M3, SlotR12M4}, s.Slot)
		}
	}
}

func TestSeedMainDrawRequiresAllPools(t *testing.T) {
	ranks := fullyRankedPools()
	delete(ranks, "P4")

	_, err := SeedMainDraw(ranks)
	assert.Error(t, err)
}

func TestSeedMainDrawRejectsUnassignedRank(t *testing.T) {
	ranks := fullyRankedPools()
	r := ranks["P2"]
	r[2] = 0
	ranks["P2"] = r

	_, err := SeedMainDraw(ranks)
	assert.Error(t, err)
}

func TestSeedMainDrawRejectsDuplicatePair(t *testing.T) {
	ranks := fullyRankedPools()
	r := ranks["P3"]
	r[1] = 2 // already ranked in P1
	ranks["P3"] = r

	_, err := SeedMainDraw(ranks)
	assert.Error(t, err)
}
