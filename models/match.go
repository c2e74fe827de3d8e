package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusCorrected MatchStatus = "corrected"
)

type MatchPhase string

const (
	PhaseQualiR1      MatchPhase = "quali_r1"
	PhaseQualiR2      MatchPhase = "quali_r2"
	PhasePool         MatchPhase = "pool"
	PhaseRoundOf12    MatchPhase = "round_of_12"
	PhaseQuarterfinal MatchPhase = "quarterfinal"
	PhaseSemifinal    MatchPhase = "semifinal"
	PhaseThirdPlace   MatchPhase = "third_place"
	PhaseFinal        MatchPhase = "final"
)

// Terminal reports whether the phase performs no further bracket advancement.
func (p MatchPhase) Terminal() bool {
	return p == PhaseFinal || p == PhaseThirdPlace
}

// SetScore holds the games won by each side in one set.
type SetScore struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Match is a single contest between two pairs. Once it carries a result it is
// never deleted; corrections append to its history and bump the version.
type Match struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	Phase        MatchPhase `json:"phase" db:"phase"`
	Round        *int       `json:"round,omitempty" db:"round"`

	// SlotID is the bracket position this match occupies, assigned once seeded.
	SlotID *string `json:"slot_id,omitempty" db:"slot_id"`

	PairAID *int `json:"pair_a_id,omitempty" db:"pair_a_id"`
	PairBID *int `json:"pair_b_id,omitempty" db:"pair_b_id"`

	// Seat sources declare which upstream outcome each seat is waiting for,
	// e.g. seat A of the final waits for {SF1, winner}.
	SeatASourceSlot    *string `json:"seat_a_source_slot,omitempty" db:"seat_a_source_slot"`
	SeatASourceOutcome *string `json:"seat_a_source_outcome,omitempty" db:"seat_a_source_outcome"`
	SeatBSourceSlot    *string `json:"seat_b_source_slot,omitempty" db:"seat_b_source_slot"`
	SeatBSourceOutcome *string `json:"seat_b_source_outcome,omitempty" db:"seat_b_source_outcome"`

	Sets        []SetScore  `json:"sets,omitempty" db:"sets"`
	ResultTag   *string     `json:"result_tag,omitempty" db:"result_tag"`
	Retired     bool        `json:"retired" db:"retired"`
	WinnerPairID *int       `json:"winner_pair_id,omitempty" db:"winner_pair_id"`
	LoserPairID  *int       `json:"loser_pair_id,omitempty" db:"loser_pair_id"`

	Version     int         `json:"version" db:"version"`
	ScoringDone bool        `json:"scoring_done" db:"scoring_done"`
	Status      MatchStatus `json:"status" db:"status"`

	MatchTime time.Time `json:"match_time" db:"match_time"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HasResult reports whether the match carries a usable result for scoring.
func (m *Match) HasResult() bool {
	return (m.Status == MatchStatusCompleted || m.Status == MatchStatusCorrected) &&
		m.WinnerPairID != nil && m.LoserPairID != nil && len(m.Sets) >= 2
}

// MatchCorrection is an immutable history record of a result that was
// replaced by a correction.
type MatchCorrection struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	MatchID       int        `json:"match_id" db:"match_id"`
	PrevSets      []SetScore `json:"prev_sets" db:"prev_sets"`
	PrevResultTag *string    `json:"prev_result_tag,omitempty" db:"prev_result_tag"`
	ActorID       int        `json:"actor_id" db:"actor_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
