package models

import "time"

// FantasyTeam aggregates a user's season-to-date points. TotalPoints is fully
// recomputed by the cascade, never incremented.
type FantasyTeam struct {
	ID             int       `json:"id" db:"id"`
	UserID         int       `json:"user_id" db:"user_id"`
	ChampionshipID int       `json:"championship_id" db:"championship_id"`
	Name           string    `json:"name" db:"name"`
	TotalPoints    int       `json:"total_points" db:"total_points"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type LeagueStatus string

const (
	LeagueStatusActive    LeagueStatus = "active"
	LeagueStatusCompleted LeagueStatus = "completed"
)

// League is a standings competition scoped to one championship.
type League struct {
	ID             int          `json:"id" db:"id"`
	ChampionshipID int          `json:"championship_id" db:"championship_id"`
	Name           string       `json:"name" db:"name"`
	Status         LeagueStatus `json:"status" db:"status"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

// LeagueMember ties a fantasy team to a league. EnrolledAt drives the
// anti-retroactive scoring rule: tournaments that ended before enrollment
// never contribute standings rows for this team.
type LeagueMember struct {
	LeagueID      int       `json:"league_id" db:"league_id"`
	FantasyTeamID int       `json:"fantasy_team_id" db:"fantasy_team_id"`
	EnrolledAt    time.Time `json:"enrolled_at" db:"enrolled_at"`
}

// GameweekStanding is one team's row in one (league, tournament) table.
// Rank 1 is the highest gameweek score; ties keep insertion order.
type GameweekStanding struct {
	ID               int       `json:"id" db:"id"`
	LeagueID         int       `json:"league_id" db:"league_id"`
	TournamentID     int       `json:"tournament_id" db:"tournament_id"`
	FantasyTeamID    int       `json:"fantasy_team_id" db:"fantasy_team_id"`
	GameweekPoints   int       `json:"gameweek_points" db:"gameweek_points"`
	CumulativePoints int       `json:"cumulative_points" db:"cumulative_points"`
	Rank             *int      `json:"rank,omitempty" db:"rank"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
