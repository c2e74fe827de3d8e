package models

import "time"

type SlotRole string

const (
	RoleStarter SlotRole = "starter"
	RoleBench   SlotRole = "bench"
)

// Lineup roster shape: four starters and up to three bench athletes.
const (
	StarterSlots = 4
	BenchSlots   = 3
)

// Lineup is one fantasy team's roster for one tournament.
type Lineup struct {
	ID            int        `json:"id" db:"id"`
	FantasyTeamID int        `json:"fantasy_team_id" db:"fantasy_team_id"`
	TournamentID  int        `json:"tournament_id" db:"tournament_id"`
	IsLocked      bool       `json:"is_locked" db:"is_locked"`
	LockedAt      *time.Time `json:"locked_at,omitempty" db:"locked_at"`

	// AutoGenerated marks lineups the lock job cloned or created because the
	// user never submitted one.
	AutoGenerated bool      `json:"auto_generated" db:"auto_generated"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	Slots []LineupSlot `json:"slots,omitempty" db:"-"`
}

// LineupSlot places one athlete in a lineup. Points are attributed by the
// cascade for the lineup's gameweek.
type LineupSlot struct {
	ID            int      `json:"id" db:"id"`
	LineupID      int      `json:"lineup_id" db:"lineup_id"`
	AthleteID     int      `json:"athlete_id" db:"athlete_id"`
	Role          SlotRole `json:"role" db:"role"`
	BenchOrder    *int     `json:"bench_order,omitempty" db:"bench_order"`
	SubstitutedIn bool     `json:"substituted_in" db:"substituted_in"`
	Points        int      `json:"points" db:"points"`
}

// Effective reports whether the slot counts toward the lineup's score.
func (s *LineupSlot) Effective() bool {
	return s.Role == RoleStarter || s.SubstitutedIn
}

// EffectivePoints sums the scoring slots of a lineup.
func (l *Lineup) EffectivePoints() int {
	total := 0
	for i := range l.Slots {
		if l.Slots[i].Effective() {
			total += l.Slots[i].Points
		}
	}
	return total
}
