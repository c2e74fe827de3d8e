package models

import "time"

type TournamentStatus string

const (
	TournamentStatusScheduled TournamentStatus = "scheduled"
	TournamentStatusActive    TournamentStatus = "active"
	TournamentStatusCompleted TournamentStatus = "completed"
	TournamentStatusFinalized TournamentStatus = "finalized"
)

// Tournament is one gameweek of a championship.
type Tournament struct {
	ID             int              `json:"id" db:"id"`
	ChampionshipID int              `json:"championship_id" db:"championship_id"`
	Name           string           `json:"name" db:"name"`
	Location       *string          `json:"location,omitempty" db:"location"`
	StartDate      time.Time        `json:"start_date" db:"start_date"`
	EndDate        time.Time        `json:"end_date" db:"end_date"`
	LineupLockAt   time.Time        `json:"lineup_lock_at" db:"lineup_lock_at"`
	LineupsLocked  bool             `json:"lineups_locked" db:"lineups_locked"`
	Status         TournamentStatus `json:"status" db:"status"`

	// PriceVolatility scales the price delta applied at finalization.
	PriceVolatility float64 `json:"price_volatility" db:"price_volatility"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Championship groups tournaments into a season and carries the market
// price bounds shared by all of them.
type Championship struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Season     string    `json:"season" db:"season"`
	PriceFloor int       `json:"price_floor" db:"price_floor"`
	PriceCap   int       `json:"price_cap" db:"price_cap"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
