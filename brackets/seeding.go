package brackets

import "fmt"

// PoolRanking holds a pool's four final ranks after its winners and losers
// matches complete. Index 0 is rank 1.
type PoolRanking [4]int

// RankPool applies the fixed rank mapping: winners-match winner takes rank 1,
// winners-match loser rank 2, losers-match winner rank 3, losers-match loser
// rank 4.
func RankPool(winnersWinner, winnersLoser, losersWinner, losersLoser int) PoolRanking {
	return PoolRanking{winnersWinner, winnersLoser, losersWinner, losersLoser}
}

// Seeding places one pair into a main draw seat. Bye marks the quarterfinal
// seats pool winners take directly.
type Seeding struct {
	Slot   SlotID
	Seat   Seat
	PairID int
	Bye    bool
}

// Pool winners skip the round of 12 entirely.
var qfByeSeat = map[PoolID]SlotID{
	"P1": SlotQF1,
	"P2": SlotQF2,
	"P3": SlotQF3,
	"P4": SlotQF4,
}

// Second and third places cross into the round of 12: each match pairs a
// runner-up with a third place from another pool.
var r12Seat = map[PoolID][2]struct {
	Slot SlotID
	Seat Seat
}{
	"P1": {{SlotR12M1, SeatA}, {SlotR12M2, SeatB}}, // rank 2, rank 3
	"P2": {{SlotR12M2, SeatA}, {SlotR12M1, SeatB}},
	"P3": {{SlotR12M3, SeatA}, {SlotR12M4, SeatB}},
	"P4": {{SlotR12M4, SeatA}, {SlotR12M3, SeatB}},
}

// SeedMainDraw turns the four completed pool rankings into the main draw
// seeding: exactly four quarterfinal byes for the pool winners and eight
// round-of-12 seats for the second and third places. It requires all four
// pools fully ranked and rejects any pair appearing twice.
func SeedMainDraw(ranks map[PoolID]PoolRanking) ([]Seeding, error) {
	if len(ranks) != len(Pools) {
		return nil, fmt.Errorf("main draw seeding requires %d ranked pools, have %d", len(Pools), len(ranks))
	}

	seen := make(map[int]PoolID)
	var out []Seeding

	for _, pool := range Pools {
		ranking, ok := ranks[pool]
		if !ok {
			return nil, fmt.Errorf("pool %s is not ranked", pool)
		}
		for i, pairID := range ranking {
			if pairID == 0 {
				return nil, fmt.Errorf("pool %s rank %d is unassigned", pool, i+1)
			}
			if prev, dup := seen[pairID]; dup {
				return nil, fmt.Errorf("pair %d ranked in both pool %s and pool %s", pairID, prev, pool)
			}
			seen[pairID] = pool
		}

		out = append(out, Seeding{Slot: qfByeSeat[pool], Seat: SeatA, PairID: ranking[0], Bye: true})
		targets := r12Seat[pool]
		out = append(out,
			Seeding{Slot: targets[0].Slot, Seat: targets[0].Seat, PairID: ranking[1]},
			Seeding{Slot: targets[1].Slot, Seat: targets[1].Seat, PairID: ranking[2]},
		)
	}

	return out, nil
}
