package models

import "time"

// Athlete holds the market state mutated by the cascade and the
// tournament-finalization price evolution.
type Athlete struct {
	ID        int     `json:"id" db:"id"`
	FirstName string  `json:"first_name" db:"first_name"`
	LastName  string  `json:"last_name" db:"last_name"`
	Price     int     `json:"price" db:"price"`
	MovingAvg float64 `json:"moving_avg" db:"moving_avg"`

	PhotoKey *string `json:"-" db:"photo_key"`
	PhotoURL *string `json:"photo_url,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Pair is a fixed duo of athletes. Immutable once matches reference it.
type Pair struct {
	ID         int `json:"id" db:"id"`
	Athlete1ID int `json:"athlete1_id" db:"athlete1_id"`
	Athlete2ID int `json:"athlete2_id" db:"athlete2_id"`
}

// AthleteIDs returns both members of the pair.
func (p *Pair) AthleteIDs() [2]int {
	return [2]int{p.Athlete1ID, p.Athlete2ID}
}

// AthleteMatchPoints is the per-(match, athlete) scoring row. The unique key
// on (match_id, athlete_id) makes cascade re-runs overwrite, not duplicate.
type AthleteMatchPoints struct {
	ID          int `json:"id" db:"id"`
	MatchID     int `json:"match_id" db:"match_id"`
	AthleteID   int `json:"athlete_id" db:"athlete_id"`
	BasePoints  int `json:"base_points" db:"base_points"`
	BonusPoints int `json:"bonus_points" db:"bonus_points"`
	TotalPoints int `json:"total_points" db:"total_points"`
}
