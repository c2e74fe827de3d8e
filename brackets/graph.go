package brackets

import (
	"fmt"

	"github.com/sfxdeve/padel-fantasy/models"
)

// SlotID names a position in the tournament draw, e.g. "QF1" or "R12_M3".
type SlotID string

type Outcome string

const (
	OutcomeWinner Outcome = "winner"
	OutcomeLoser  Outcome = "loser"
)

// Seat identifies a side of a match.
type Seat string

const (
	SeatA Seat = "A"
	SeatB Seat = "B"
)

// SourceRef is a typed reference a successor match stores per seat: which
// upstream slot, and which of its outcomes, fills the seat.
type SourceRef struct {
	Slot    SlotID
	Outcome Outcome
}

// Edge feeds one outcome of a slot into a seat of a downstream slot.
type Edge struct {
	From    SlotID
	Outcome Outcome
	To      SlotID
	ToSeat  Seat
}

type slotSpec struct {
	phase models.MatchPhase

	// Expected number of outgoing winner/loser edges; validated at startup.
	// Rank-assigning and terminal slots expect zero of both.
	winnerEdges int
	loserEdges  int
}

// Graph is the full draw shape of a tournament: qualification groups, four
// pools, and the main draw from the round of 12 to the final.
type Graph struct {
	slots map[SlotID]slotSpec
	edges []Edge
}

// Main draw slot identifiers.
const (
	SlotR12M1 SlotID = "R12_M1"
	SlotR12M2 SlotID = "R12_M2"
	SlotR12M3 SlotID = "R12_M3"
	SlotR12M4 SlotID = "R12_M4"
	SlotQF1   SlotID = "QF1"
	SlotQF2   SlotID = "QF2"
	SlotQF3   SlotID = "QF3"
	SlotQF4   SlotID = "QF4"
	SlotSF1   SlotID = "SF1"
	SlotSF2   SlotID = "SF2"
	SlotFinal SlotID = "FINAL"
	SlotThird SlotID = "THIRD"
)

// PoolID names one of the four pools.
type PoolID string

var Pools = []PoolID{"P1", "P2", "P3", "P4"}

// Qualification groups, each two round-1 matches feeding a round-2 match.
var QualiGroups = []string{"Q1", "Q2", "Q3", "Q4"}

// Pool slot helpers. Each pool plays two initial matches (A, B); their
// winners meet in the W match and their losers in the L match.
func PoolInitialA(p PoolID) SlotID { return SlotID(string(p) + "_A") }
func PoolInitialB(p PoolID) SlotID { return SlotID(string(p) + "_B") }
func PoolWinners(p PoolID) SlotID  { return SlotID(string(p) + "_W") }
func PoolLosers(p PoolID) SlotID   { return SlotID(string(p) + "_L") }

func QualiR1M1(group string) SlotID { return SlotID(group + "_M1") }
func QualiR1M2(group string) SlotID { return SlotID(group + "_M2") }
func QualiR2(group string) SlotID   { return SlotID(group + "_F") }

// StandardDraw builds the full progression graph. The shape is static
// configuration; Validate should be called once at startup.
func StandardDraw() *Graph {
	g := &Graph{slots: make(map[SlotID]slotSpec)}

	for _, group := range QualiGroups {
		g.addSlot(QualiR1M1(group), models.PhaseQualiR1, 1, 0)
		g.addSlot(QualiR1M2(group), models.PhaseQualiR1, 1, 0)
		g.addSlot(QualiR2(group), models.PhaseQualiR2, 0, 0)

		g.addEdge(QualiR1M1(group), OutcomeWinner, QualiR2(group), SeatA)
		g.addEdge(QualiR1M2(group), OutcomeWinner, QualiR2(group), SeatB)
	}

	for _, pool := range Pools {
		g.addSlot(PoolInitialA(pool), models.PhasePool, 1, 1)
		g.addSlot(PoolInitialB(pool), models.PhasePool, 1, 1)
		g.addSlot(PoolWinners(pool), models.PhasePool, 0, 0)
		g.addSlot(PoolLosers(pool), models.PhasePool, 0, 0)

		g.addEdge(PoolInitialA(pool), OutcomeWinner, PoolWinners(pool), SeatA)
		g.addEdge(PoolInitialB(pool), OutcomeWinner, PoolWinners(pool), SeatB)
		g.addEdge(PoolInitialA(pool), OutcomeLoser, PoolLosers(pool), SeatA)
		g.addEdge(PoolInitialB(pool), OutcomeLoser, PoolLosers(pool), SeatB)
	}

	for _, slot := range []SlotID{SlotR12M1, SlotR12M2, SlotR12M3, SlotR12M4} {
		g.addSlot(slot, models.PhaseRoundOf12, 1, 0)
	}
	for _, slot := range []SlotID{SlotQF1, SlotQF2, SlotQF3, SlotQF4} {
		g.addSlot(slot, models.PhaseQuarterfinal, 1, 0)
	}
	g.addSlot(SlotSF1, models.PhaseSemifinal, 1, 1)
	g.addSlot(SlotSF2, models.PhaseSemifinal, 1, 1)
	g.addSlot(SlotFinal, models.PhaseFinal, 0, 0)
	g.addSlot(SlotThird, models.PhaseThirdPlace, 0, 0)

	// Round-of-12 winners join the pool winners (seat A byes) in the
	// quarterfinals, crossed so pool mates cannot meet again immediately.
	g.addEdge(SlotR12M1, OutcomeWinner, SlotQF3, SeatB)
	g.addEdge(SlotR12M2, OutcomeWinner, SlotQF4, SeatB)
	g.addEdge(SlotR12M3, OutcomeWinner, SlotQF1, SeatB)
	g.addEdge(SlotR12M4, OutcomeWinner, SlotQF2, SeatB)

	g.addEdge(SlotQF1, OutcomeWinner, SlotSF1, SeatA)
	g.addEdge(SlotQF2, OutcomeWinner, SlotSF1, SeatB)
	g.addEdge(SlotQF3, OutcomeWinner, SlotSF2, SeatA)
	g.addEdge(SlotQF4, OutcomeWinner, SlotSF2, SeatB)

	g.addEdge(SlotSF1, OutcomeWinner, SlotFinal, SeatA)
	g.addEdge(SlotSF2, OutcomeWinner, SlotFinal, SeatB)
	g.addEdge(SlotSF1, OutcomeLoser, SlotThird, SeatA)
	g.addEdge(SlotSF2, OutcomeLoser, SlotThird, SeatB)

	return g
}

func (g *Graph) addSlot(id SlotID, phase models.MatchPhase, winnerEdges, loserEdges int) {
	g.slots[id] = slotSpec{phase: phase, winnerEdges: winnerEdges, loserEdges: loserEdges}
}

func (g *Graph) addEdge(from SlotID, outcome Outcome, to SlotID, seat Seat) {
	g.edges = append(g.edges, Edge{From: from, Outcome: outcome, To: to, ToSeat: seat})
}

// PhaseOf returns the match phase a slot belongs to.
func (g *Graph) PhaseOf(slot SlotID) (models.MatchPhase, bool) {
	spec, ok := g.slots[slot]
	return spec.phase, ok
}

// Successors returns the edges leaving a slot for the given outcome.
func (g *Graph) Successors(slot SlotID, outcome Outcome) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == slot && e.Outcome == outcome {
			out = append(out, e)
		}
	}
	return out
}

// SeatSources returns the source references a successor match at the given
// slot should declare for its two seats. A seat fed by pool seeding rather
// than an edge is returned as nil.
func (g *Graph) SeatSources(slot SlotID) (seatA, seatB *SourceRef) {
	for _, e := range g.edges {
		if e.To != slot {
			continue
		}
		ref := &SourceRef{Slot: e.From, Outcome: e.Outcome}
		if e.ToSeat == SeatA {
			seatA = ref
		} else {
			seatB = ref
		}
	}
	return seatA, seatB
}

// Validate checks the full draw shape: every edge connects known slots, every
// slot has exactly the outgoing edges its phase expects, and no seat is fed
// by more than one edge.
func (g *Graph) Validate() error {
	type seatKey struct {
		slot SlotID
		seat Seat
	}
	winnerCount := make(map[SlotID]int)
	loserCount := make(map[SlotID]int)
	seatFed := make(map[seatKey]SlotID)

	for _, e := range g.edges {
		if _, ok := g.slots[e.From]; !ok {
			return fmt.Errorf("edge from unknown slot %q", e.From)
		}
		if _, ok := g.slots[e.To]; !ok {
			return fmt.Errorf("edge into unknown slot %q", e.To)
		}
		switch e.Outcome {
		case OutcomeWinner:
			winnerCount[e.From]++
		case OutcomeLoser:
			loserCount[e.From]++
		default:
			return fmt.Errorf("edge from %q has unknown outcome %q", e.From, e.Outcome)
		}
		key := seatKey{slot: e.To, seat: e.ToSeat}
		if prev, dup := seatFed[key]; dup {
			return fmt.Errorf("seat %s of slot %q fed by both %q and %q", e.ToSeat, e.To, prev, e.From)
		}
		seatFed[key] = e.From
	}

	for id, spec := range g.slots {
		if got := winnerCount[id]; got != spec.winnerEdges {
			return fmt.Errorf("slot %q has %d winner edges, want %d", id, got, spec.winnerEdges)
		}
		if got := loserCount[id]; got != spec.loserEdges {
			return fmt.Errorf("slot %q has %d loser edges, want %d", id, got, spec.loserEdges)
		}
	}
	return nil
}
