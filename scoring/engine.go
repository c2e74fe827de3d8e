package scoring

import (
	"errors"
	"fmt"

	"github.com/sfxdeve/padel-fantasy/models"
)

type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

var (
	ErrNoSets       = errors.New("scoring requires at least two sets")
	ErrUnknownSide  = errors.New("unknown winner side")
	ErrUnknownPhase = errors.New("unknown match phase")
)

// SidePoints is the scoring outcome for one pair of a match.
type SidePoints struct {
	BasePoints  int `json:"base_points"`
	BonusPoints int `json:"bonus_points"`
	TotalPoints int `json:"total_points"`
}

// MatchPoints holds both sides' points for a single match.
type MatchPoints struct {
	PairA SidePoints `json:"pair_a"`
	PairB SidePoints `json:"pair_b"`
}

// Winner bonus model, keyed by match phase. A flat baseline applies to every
// win; the increment grows with round significance, and a straight-sets win
// earns a little extra over a three-setter.
const (
	winBaseline       = 3
	sweepExtra        = 1
	retirementPenalty = -2
)

var phaseIncrement = map[models.MatchPhase]int{
	models.PhaseQualiR1:      0,
	models.PhaseQualiR2:      0,
	models.PhasePool:         0,
	models.PhaseRoundOf12:    1,
	models.PhaseQuarterfinal: 2,
	models.PhaseSemifinal:    4,
	models.PhaseThirdPlace:   5,
	models.PhaseFinal:        7,
}

// Score computes fantasy points for both pairs of a completed match.
//
// Base points per side are earned in the first two sets only: each side gets
// floor(gamesWon/3) per set. The winning side receives the phase bonus; on a
// retirement the non-winning side receives a fixed penalty instead of zero.
// The function is deterministic and has no side effects.
func Score(phase models.MatchPhase, sets []models.SetScore, winner Side, retired bool) (MatchPoints, error) {
	if len(sets) < 2 {
		return MatchPoints{}, ErrNoSets
	}
	if winner != SideA && winner != SideB {
		return MatchPoints{}, fmt.Errorf("%w: %q", ErrUnknownSide, winner)
	}
	increment, ok := phaseIncrement[phase]
	if !ok {
		return MatchPoints{}, fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
	}

	var a, b SidePoints
	for _, set := range sets[:2] {
		a.BasePoints += set.A / 3
		b.BasePoints += set.B / 3
	}

	bonus := winBaseline + increment
	if len(sets) == 2 {
		bonus += sweepExtra
	}

	switch winner {
	case SideA:
		a.BonusPoints = bonus
		if retired {
			b.BonusPoints = retirementPenalty
		}
	case SideB:
		b.BonusPoints = bonus
		if retired {
			a.BonusPoints = retirementPenalty
		}
	}

	a.TotalPoints = a.BasePoints + a.BonusPoints
	b.TotalPoints = b.BasePoints + b.BonusPoints

	return MatchPoints{PairA: a, PairB: b}, nil
}

// ResultTag derives the "2-0"/"2-1" summary from the number of sets played.
func ResultTag(sets []models.SetScore) string {
	if len(sets) <= 2 {
		return "2-0"
	}
	return "2-1"
}

// WinnerFromSets derives the winning side of a best-of-three result, or an
// error if neither side took exactly two sets.
func WinnerFromSets(sets []models.SetScore) (Side, error) {
	var aSets, bSets int
	for _, set := range sets {
		switch {
		case set.A > set.B:
			aSets++
		case set.B > set.A:
			bSets++
		default:
			return "", fmt.Errorf("drawn set %d-%d is not a valid padel score", set.A, set.B)
		}
	}
	switch {
	case aSets == 2 && bSets < 2:
		return SideA, nil
	case bSets == 2 && aSets < 2:
		return SideB, nil
	}
	return "", fmt.Errorf("no side won exactly two sets (%d-%d)", aSets, bSets)
}
