package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/sfxdeve/padel-fantasy/repositories"
)

type LineupService interface {
	GetLineup(ctx context.Context, teamID, tournamentID int) (*models.Lineup, error)

	// SubmitLineup creates or replaces a team's lineup before the lock time.
	// Only the team's owner may submit.
	SubmitLineup(ctx context.Context, userID, teamID, tournamentID int, slots []models.LineupSlot) (*models.Lineup, error)

	// LockAndSubstitute runs at the tournament's lineup lock deadline: teams
	// without a submitted lineup get their previous one cloned (or an empty
	// one), absent starters are covered from the bench in priority order,
	// and every lineup is locked.
	LockAndSubstitute(ctx context.Context, tournamentID int) error
}

type lineupService struct {
	db             *sql.DB
	lineupRepo     repositories.LineupRepository
	teamRepo       repositories.FantasyTeamRepository
	athleteRepo    repositories.AthleteRepository
	tournamentRepo repositories.TournamentRepository
	logger         *slog.Logger
}

func NewLineupService(
	db *sql.DB,
	lineupRepo repositories.LineupRepository,
	teamRepo repositories.FantasyTeamRepository,
	athleteRepo repositories.AthleteRepository,
	tournamentRepo repositories.TournamentRepository,
	logger *slog.Logger,
) LineupService {
	return &lineupService{
		db:             db,
		lineupRepo:     lineupRepo,
		teamRepo:       teamRepo,
		athleteRepo:    athleteRepo,
		tournamentRepo: tournamentRepo,
		logger:         logger,
	}
}

func (s *lineupService) GetLineup(ctx context.Context, teamID, tournamentID int) (*models.Lineup, error) {
	lineup, err := s.lineupRepo.GetByTeamAndTournament(ctx, nil, teamID, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrLineupNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return lineup, nil
}

func (s *lineupService) SubmitLineup(ctx context.Context, userID, teamID, tournamentID int, slots []models.LineupSlot) (*models.Lineup, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrFantasyTeamNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if team.UserID != userID {
		return nil, ErrForbiddenOperation
	}

	if err := validateRoster(slots); err != nil {
		return nil, err
	}

	existing, err := s.lineupRepo.GetByTeamAndTournament(ctx, nil, teamID, tournamentID)
	switch {
	case err == nil:
		if existing.IsLocked {
			return nil, ErrLineupLocked
		}
		if err := s.lineupRepo.ReplaceSlots(ctx, nil, existing.ID, slots); err != nil {
			return nil, err
		}
		existing.Slots = slots
		return existing, nil
	case errors.Is(err, repositories.ErrLineupNotFound):
		lineup := &models.Lineup{
			FantasyTeamID: teamID,
			TournamentID:  tournamentID,
			Slots:         slots,
		}
		if err := s.lineupRepo.CreateWithSlots(ctx, nil, lineup); err != nil {
			return nil, err
		}
		return lineup, nil
	default:
		return nil, err
	}
}

func (s *lineupService) LockAndSubstitute(ctx context.Context, tournamentID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if tournament.LineupsLocked {
		return nil
	}

	entrantIDs, err := s.athleteRepo.EnteredInTournament(ctx, nil, tournamentID)
	if err != nil {
		return err
	}
	entrants := make(map[int]bool, len(entrantIDs))
	for _, id := range entrantIDs {
		entrants[id] = true
	}

	teams, err := s.teamRepo.ListByChampionship(ctx, nil, tournament.ChampionshipID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin lineup lock transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, team := range teams {
		if err := s.lockTeamLineup(ctx, tx, team.ID, tournamentID, entrants, now); err != nil {
			return fmt.Errorf("failed to lock lineup for team %d: %w", team.ID, err)
		}
	}
	if err := s.tournamentRepo.SetLineupsLocked(ctx, tx, tournamentID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lineup lock for tournament %d: %w", tournamentID, err)
	}

	s.logger.Info("lineups locked",
		slog.Int("tournament_id", tournamentID),
		slog.Int("teams", len(teams)),
	)
	return nil
}

func (s *lineupService) lockTeamLineup(ctx context.Context, tx *sql.Tx, teamID, tournamentID int, entrants map[int]bool, now time.Time) error {
	lineup, err := s.lineupRepo.GetByTeamAndTournament(ctx, tx, teamID, tournamentID)
	if errors.Is(err, repositories.ErrLineupNotFound) {
		lineup, err = s.generateLineup(ctx, tx, teamID, tournamentID)
	}
	if err != nil {
		return err
	}
	if lineup.IsLocked {
		return nil
	}

	promoted := applyAutoSubstitutions(lineup.Slots, entrants)
	for _, idx := range promoted {
		slot := lineup.Slots[idx]
		if err := s.lineupRepo.UpdateSlotRole(ctx, tx, slot.ID, models.RoleStarter, true); err != nil {
			return err
		}
	}

	return s.lineupRepo.Lock(ctx, tx, lineup.ID, now)
}

// generateLineup clones the team's most recent lineup composition, or creates
// an empty lineup when the team never had one.
func (s *lineupService) generateLineup(ctx context.Context, tx *sql.Tx, teamID, tournamentID int) (*models.Lineup, error) {
	lineup := &models.Lineup{
		FantasyTeamID: teamID,
		TournamentID:  tournamentID,
		AutoGenerated: true,
	}

	previous, err := s.lineupRepo.GetLatestByTeam(ctx, tx, teamID, tournamentID)
	if err != nil && !errors.Is(err, repositories.ErrLineupNotFound) {
		return nil, err
	}
	if previous != nil {
		lineup.Slots = make([]models.LineupSlot, 0, len(previous.Slots))
		for _, slot := range previous.Slots {
			role := slot.Role
			if slot.SubstitutedIn {
				// A promotion belongs to its gameweek; the clone restores the
				// original bench role.
				role = models.RoleBench
			}
			lineup.Slots = append(lineup.Slots, models.LineupSlot{
				AthleteID:  slot.AthleteID,
				Role:       role,
				BenchOrder: slot.BenchOrder,
			})
		}
	}

	if err := s.lineupRepo.CreateWithSlots(ctx, tx, lineup); err != nil {
		return nil, err
	}
	return lineup, nil
}

// applyAutoSubstitutions promotes bench athletes into starter roles for every
// starter absent from the entrant set, scanning the bench in ascending
// priority order. The scan pointer never revisits a consumed bench slot, so
// each bench athlete covers at most one vacancy. Slots are mutated in place;
// the returned indices identify the promoted bench slots.
func applyAutoSubstitutions(slots []models.LineupSlot, entrants map[int]bool) []int {
	bench := make([]int, 0, models.BenchSlots)
	for i, slot := range slots {
		if slot.Role == models.RoleBench && !slot.SubstitutedIn {
			bench = append(bench, i)
		}
	}
	sort.SliceStable(bench, func(a, b int) bool {
		return benchOrder(slots[bench[a]]) < benchOrder(slots[bench[b]])
	})

	var promoted []int
	cursor := 0
	for _, slot := range slots {
		if slot.Role != models.RoleStarter || entrants[slot.AthleteID] {
			continue
		}
		for cursor < len(bench) {
			candidate := bench[cursor]
			cursor++
			if entrants[slots[candidate].AthleteID] {
				slots[candidate].Role = models.RoleStarter
				slots[candidate].SubstitutedIn = true
				promoted = append(promoted, candidate)
				break
			}
		}
		if cursor >= len(bench) {
			// Bench exhausted; remaining absent starters stay in place and
			// score zero.
			break
		}
	}
	return promoted
}

func benchOrder(slot models.LineupSlot) int {
	if slot.BenchOrder == nil {
		return 1 << 30
	}
	return *slot.BenchOrder
}

func validateRoster(slots []models.LineupSlot) error {
	starters, bench := 0, 0
	seen := make(map[int]bool, len(slots))
	for _, slot := range slots {
		if seen[slot.AthleteID] {
			return ErrLineupDuplicate
		}
		seen[slot.AthleteID] = true
		switch slot.Role {
		case models.RoleStarter:
			starters++
		case models.RoleBench:
			bench++
		default:
			return fmt.Errorf("%w: unknown role %q", ErrValidationFailed, slot.Role)
		}
	}
	if starters != models.StarterSlots || bench > models.BenchSlots {
		return ErrLineupRosterShape
	}
	return nil
}
