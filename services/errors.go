package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Authentication and authorization
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Match result entry
	ErrMatchNotScheduled   = errors.New("match is not in a state that accepts a result")
	ErrMatchNotCompleted   = errors.New("match has no result to correct")
	ErrMatchSeatsUnseeded  = errors.New("match seats are not seeded yet")
	ErrInvalidSetScores    = errors.New("set scores do not form a valid best-of-three result")
	ErrRetirementNeedsSide = errors.New("a retirement result must name the winning side")

	// Lineups
	ErrLineupLocked       = errors.New("lineup is locked for this tournament")
	ErrLineupRosterShape  = errors.New("lineup must have four starters and at most three bench slots")
	ErrLineupDuplicate    = errors.New("lineup places the same athlete twice")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrLeagueNotFound     = errors.New("league not found")

	// Conflicts
	ErrUserEmailConflict = errors.New("email address is already in use")
)
