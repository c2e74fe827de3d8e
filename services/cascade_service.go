package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/sfxdeve/padel-fantasy/repositories"
	"github.com/sfxdeve/padel-fantasy/scoring"
)

// CascadeTask triggers one recomputation run for one match state. The version
// pins the state: a trigger issued before a later correction is stale and
// must be skipped.
type CascadeTask struct {
	MatchID int `json:"match_id"`
	Version int `json:"version"`
}

// AthleteTournamentPoints is one athlete's running total for the tournament,
// part of the cascade result payload.
type AthleteTournamentPoints struct {
	AthleteID   int `json:"athlete_id"`
	TotalPoints int `json:"total_points"`
}

// CascadeResult is emitted after a committed cascade run for consumption by
// the realtime notification layer.
type CascadeResult struct {
	RunID         string                    `json:"run_id"`
	MatchID       int                       `json:"match_id"`
	TournamentID  int                       `json:"tournament_id"`
	ScoreSummary  string                    `json:"score_summary"`
	LeagueIDs     []int                     `json:"league_ids"`
	AthletePoints []AthleteTournamentPoints `json:"athlete_points"`
}

// CascadeNotifier receives committed cascade results. Delivery failures must
// not fail the cascade.
type CascadeNotifier interface {
	NotifyCascadeResult(ctx context.Context, result *CascadeResult)
}

type CascadeService interface {
	// Run executes the full recomputation cascade for one match-completion
	// (or correction) event. Stale and duplicate triggers are silent no-ops;
	// all writes happen in a single transaction.
	Run(ctx context.Context, task CascadeTask) error
}

type cascadeService struct {
	db             repositories.TxBeginner
	matchRepo      repositories.MatchRepository
	pairRepo       repositories.PairRepository
	athleteRepo    repositories.AthleteRepository
	pointsRepo     repositories.AthletePointsRepository
	lineupRepo     repositories.LineupRepository
	teamRepo       repositories.FantasyTeamRepository
	leagueRepo     repositories.LeagueRepository
	standingRepo   repositories.StandingRepository
	tournamentRepo repositories.TournamentRepository
	progression    ProgressionService
	notifier       CascadeNotifier
	logger         *slog.Logger
}

func NewCascadeService(
	db repositories.TxBeginner,
	matchRepo repositories.MatchRepository,
	pairRepo repositories.PairRepository,
	athleteRepo repositories.AthleteRepository,
	pointsRepo repositories.AthletePointsRepository,
	lineupRepo repositories.LineupRepository,
	teamRepo repositories.FantasyTeamRepository,
	leagueRepo repositories.LeagueRepository,
	standingRepo repositories.StandingRepository,
	tournamentRepo repositories.TournamentRepository,
	progression ProgressionService,
	notifier CascadeNotifier,
	logger *slog.Logger,
) CascadeService {
	return &cascadeService{
		db:             db,
		matchRepo:      matchRepo,
		pairRepo:       pairRepo,
		athleteRepo:    athleteRepo,
		pointsRepo:     pointsRepo,
		lineupRepo:     lineupRepo,
		teamRepo:       teamRepo,
		leagueRepo:     leagueRepo,
		standingRepo:   standingRepo,
		tournamentRepo: tournamentRepo,
		progression:    progression,
		notifier:       notifier,
		logger:         logger,
	}
}

func (s *cascadeService) Run(ctx context.Context, task CascadeTask) error {
	log := s.logger.With(
		slog.String("run_id", uuid.NewString()),
		slog.Int("match_id", task.MatchID),
		slog.Int("version", task.Version),
	)

	match, err := s.matchRepo.GetByID(ctx, nil, task.MatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			log.Warn("cascade skipped, match not found")
			return nil
		}
		return fmt.Errorf("cascade: failed to load match %d: %w", task.MatchID, err)
	}

	// Idempotency guard. A version mismatch means a later correction
	// superseded this trigger; a set done-flag means a concurrent trigger
	// already processed this exact state.
	if match.Version != task.Version {
		log.Info("cascade skipped, stale trigger", slog.Int("current_version", match.Version))
		return nil
	}
	if match.ScoringDone {
		log.Info("cascade skipped, scoring already done")
		return nil
	}
	if !match.HasResult() || match.PairAID == nil || match.PairBID == nil {
		// The trigger can legitimately race ahead of data availability.
		log.Info("cascade skipped, match has no usable result yet")
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cascade: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := s.runInTx(ctx, tx, match, log)
	if err != nil {
		if errors.Is(err, errPairsUnresolved) {
			// Not a failure: the trigger raced ahead of seeding.
			return nil
		}
		return err
	}
	if result == nil {
		// Lost the compare-and-swap against a concurrent run or a newer
		// correction; roll back quietly.
		log.Info("cascade skipped, superseded during execution")
		return nil
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cascade: failed to commit for match %d: %w", match.ID, err)
	}

	log.Info("cascade completed",
		slog.Int("tournament_id", result.TournamentID),
		slog.Int("leagues", len(result.LeagueIDs)),
	)
	if s.notifier != nil {
		s.notifier.NotifyCascadeResult(ctx, result)
	}
	return nil
}

// runInTx executes the six cascade steps plus bracket progression on one
// transaction. A nil result with nil error means the idempotency guard lost
// the final compare-and-swap.
func (s *cascadeService) runInTx(ctx context.Context, tx repositories.Tx, match *models.Match, log *slog.Logger) (*CascadeResult, error) {
	// Step 1: resolve the four athlete identities.
	pairs, err := s.pairRepo.GetByIDs(ctx, tx, []int{*match.PairAID, *match.PairBID})
	if err != nil {
		return nil, fmt.Errorf("cascade: failed to load pairs: %w", err)
	}
	pairA, pairB := pairs[*match.PairAID], pairs[*match.PairBID]
	if pairA == nil || pairB == nil {
		log.Warn("cascade aborted, pairs unresolved")
		return nil, errPairsUnresolved
	}

	winnerSide := scoring.SideA
	if *match.WinnerPairID == pairB.ID {
		winnerSide = scoring.SideB
	}

	// Step 2: score and upsert per-athlete match points.
	points, err := scoring.Score(match.Phase, match.Sets, winnerSide, match.Retired)
	if err != nil {
		return nil, fmt.Errorf("cascade: scoring failed for match %d: %w", match.ID, err)
	}

	perAthlete := make(map[int]scoring.SidePoints, 4)
	for _, athleteID := range pairA.AthleteIDs() {
		perAthlete[athleteID] = points.PairA
	}
	for _, athleteID := range pairB.AthleteIDs() {
		perAthlete[athleteID] = points.PairB
	}

	athleteIDs := make([]int, 0, len(perAthlete))
	for athleteID := range perAthlete {
		athleteIDs = append(athleteIDs, athleteID)
	}
	sort.Ints(athleteIDs)

	for _, athleteID := range athleteIDs {
		sp := perAthlete[athleteID]
		row := &models.AthleteMatchPoints{
			MatchID:     match.ID,
			AthleteID:   athleteID,
			BasePoints:  sp.BasePoints,
			BonusPoints: sp.BonusPoints,
			TotalPoints: sp.TotalPoints,
		}
		if err := s.pointsRepo.Upsert(ctx, tx, row); err != nil {
			return nil, err
		}
	}

	// Step 3: season-wide moving averages of the affected athletes.
	for _, athleteID := range athleteIDs {
		avg, err := s.pointsRepo.SeasonAverage(ctx, tx, athleteID)
		if err != nil {
			return nil, err
		}
		if err := s.athleteRepo.UpdateMovingAvg(ctx, tx, athleteID, avg); err != nil {
			return nil, err
		}
	}

	// Step 4: push tournament totals into locked lineup slots.
	touchedTeams := make(map[int]bool)
	athleteTotals := make([]AthleteTournamentPoints, 0, len(athleteIDs))
	for _, athleteID := range athleteIDs {
		total, err := s.pointsRepo.TournamentTotal(ctx, tx, match.TournamentID, athleteID)
		if err != nil {
			return nil, err
		}
		athleteTotals = append(athleteTotals, AthleteTournamentPoints{AthleteID: athleteID, TotalPoints: total})

		teamIDs, err := s.lineupRepo.SetSlotPointsForAthlete(ctx, tx, match.TournamentID, athleteID, total)
		if err != nil {
			return nil, err
		}
		for _, teamID := range teamIDs {
			touchedTeams[teamID] = true
		}
	}

	// Step 5: full season recompute of touched team totals. Recomputing from
	// source rows instead of applying deltas is what keeps re-runs and
	// corrections from double counting.
	teamIDs := make([]int, 0, len(touchedTeams))
	for teamID := range touchedTeams {
		teamIDs = append(teamIDs, teamID)
	}
	sort.Ints(teamIDs)
	for _, teamID := range teamIDs {
		total, err := s.lineupRepo.SumEffectiveSeason(ctx, tx, teamID)
		if err != nil {
			return nil, err
		}
		if err := s.teamRepo.UpdateTotalPoints(ctx, tx, teamID, total); err != nil {
			return nil, err
		}
	}

	// Step 6: standings for every active league of the championship.
	tournament, err := s.tournamentRepo.GetByID(ctx, tx, match.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("cascade: failed to load tournament %d: %w", match.TournamentID, err)
	}
	leagueIDs, err := s.recomputeStandings(ctx, tx, tournament)
	if err != nil {
		return nil, err
	}

	if err := s.progression.Advance(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("cascade: bracket progression failed: %w", err)
	}

	done, err := s.matchRepo.MarkScoringDone(ctx, tx, match.ID, match.Version)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, nil
	}

	return &CascadeResult{
		RunID:         uuid.NewString(),
		MatchID:       match.ID,
		TournamentID:  match.TournamentID,
		ScoreSummary:  scoreSummary(match),
		LeagueIDs:     leagueIDs,
		AthletePoints: athleteTotals,
	}, nil
}

func (s *cascadeService) recomputeStandings(ctx context.Context, tx repositories.Tx, tournament *models.Tournament) ([]int, error) {
	leagues, err := s.leagueRepo.ListActiveByChampionship(ctx, tx, tournament.ChampionshipID)
	if err != nil {
		return nil, err
	}

	leagueIDs := make([]int, 0, len(leagues))
	for _, league := range leagues {
		members, err := s.leagueRepo.ListMembers(ctx, tx, league.ID)
		if err != nil {
			return nil, err
		}
		for _, member := range members {
			// Anti-retroactive rule: no standings credit for tournaments
			// that ended before the team joined the league.
			if tournament.EndDate.Before(member.EnrolledAt) {
				continue
			}
			gameweek, err := s.lineupRepo.SumEffectiveForTournament(ctx, tx, member.FantasyTeamID, tournament.ID)
			if err != nil {
				return nil, err
			}
			others, err := s.lineupRepo.SumEffectiveExcludingTournament(ctx, tx, member.FantasyTeamID, tournament.ID)
			if err != nil {
				return nil, err
			}
			standing := &models.GameweekStanding{
				LeagueID:         league.ID,
				TournamentID:     tournament.ID,
				FantasyTeamID:    member.FantasyTeamID,
				GameweekPoints:   gameweek,
				CumulativePoints: gameweek + others,
			}
			if err := s.standingRepo.Upsert(ctx, tx, standing); err != nil {
				return nil, err
			}
		}
		if err := s.standingRepo.Rerank(ctx, tx, league.ID, tournament.ID); err != nil {
			return nil, err
		}
		leagueIDs = append(leagueIDs, league.ID)
	}
	return leagueIDs, nil
}

var errPairsUnresolved = errors.New("match pairs could not be resolved")

func scoreSummary(match *models.Match) string {
	parts := make([]string, 0, len(match.Sets)+1)
	for _, set := range match.Sets {
		parts = append(parts, fmt.Sprintf("%d-%d", set.A, set.B))
	}
	summary := strings.Join(parts, " ")
	if match.ResultTag != nil {
		summary += " (" + *match.ResultTag + ")"
	}
	return summary
}
