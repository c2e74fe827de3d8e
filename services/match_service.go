package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/sfxdeve/padel-fantasy/repositories"
	"github.com/sfxdeve/padel-fantasy/scoring"
)

// SubmitResultInput carries an entered or corrected match result.
type SubmitResultInput struct {
	Sets    []models.SetScore
	Retired bool
	// WinnerSide ("A"/"B") is required for retirements, where the set scores
	// alone cannot decide the match.
	WinnerSide *string
	ActorID    int
}

type MatchService interface {
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, phase *models.MatchPhase) ([]*models.Match, error)
	ListCorrections(ctx context.Context, matchID int) ([]*models.MatchCorrection, error)
	ListMatchPoints(ctx context.Context, matchID int) ([]*models.AthleteMatchPoints, error)

	// SubmitResult records the first result of a scheduled match and triggers
	// the scoring cascade asynchronously.
	SubmitResult(ctx context.Context, matchID int, input SubmitResultInput) (*models.Match, error)

	// CorrectResult replaces a completed match's result: the prior scores are
	// appended to the immutable correction history, the version is bumped,
	// scoring is re-armed and the cascade re-triggered.
	CorrectResult(ctx context.Context, matchID int, input SubmitResultInput) (*models.Match, error)
}

type matchService struct {
	db         *sql.DB
	matchRepo  repositories.MatchRepository
	pointsRepo repositories.AthletePointsRepository
	runner     *CascadeRunner
	logger     *slog.Logger
}

func NewMatchService(db *sql.DB, matchRepo repositories.MatchRepository, pointsRepo repositories.AthletePointsRepository, runner *CascadeRunner, logger *slog.Logger) MatchService {
	return &matchService{
		db:         db,
		matchRepo:  matchRepo,
		pointsRepo: pointsRepo,
		runner:     runner,
		logger:     logger,
	}
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		if err == repositories.ErrMatchNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int, phase *models.MatchPhase) ([]*models.Match, error) {
	return s.matchRepo.ListByTournament(ctx, nil, tournamentID, phase)
}

func (s *matchService) ListCorrections(ctx context.Context, matchID int) ([]*models.MatchCorrection, error) {
	return s.matchRepo.ListCorrections(ctx, matchID)
}

func (s *matchService) ListMatchPoints(ctx context.Context, matchID int) ([]*models.AthleteMatchPoints, error) {
	return s.pointsRepo.ListByMatch(ctx, matchID)
}

func (s *matchService) SubmitResult(ctx context.Context, matchID int, input SubmitResultInput) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if err == repositories.ErrMatchNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if match.Status != models.MatchStatusScheduled {
		return nil, ErrMatchNotScheduled
	}

	if err := s.applyResult(ctx, nil, match, input, models.MatchStatusCompleted); err != nil {
		return nil, err
	}

	s.runner.Enqueue(CascadeTask{MatchID: match.ID, Version: match.Version})
	return match, nil
}

func (s *matchService) CorrectResult(ctx context.Context, matchID int, input SubmitResultInput) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if err == repositories.ErrMatchNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if match.Status != models.MatchStatusCompleted && match.Status != models.MatchStatusCorrected {
		return nil, ErrMatchNotCompleted
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin correction transaction: %w", err)
	}
	defer tx.Rollback()

	correction := &models.MatchCorrection{
		ID:            uuid.New(),
		MatchID:       match.ID,
		PrevSets:      match.Sets,
		PrevResultTag: match.ResultTag,
		ActorID:       input.ActorID,
	}
	if err := s.matchRepo.AppendCorrection(ctx, tx, correction); err != nil {
		return nil, err
	}

	if err := s.applyResult(ctx, tx, match, input, models.MatchStatusCorrected); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit correction for match %d: %w", matchID, err)
	}

	s.logger.Info("match result corrected",
		slog.Int("match_id", match.ID),
		slog.Int("version", match.Version),
		slog.Int("actor_id", input.ActorID),
	)
	s.runner.Enqueue(CascadeTask{MatchID: match.ID, Version: match.Version})
	return match, nil
}

// applyResult validates the input, resolves winner and loser pairs and writes
// the result through the repository, bumping the version and re-arming the
// cascade.
func (s *matchService) applyResult(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, input SubmitResultInput, status models.MatchStatus) error {
	if match.PairAID == nil || match.PairBID == nil {
		return ErrMatchSeatsUnseeded
	}
	if len(input.Sets) < 2 || len(input.Sets) > 3 {
		return ErrInvalidSetScores
	}

	var winnerSide scoring.Side
	if input.Retired {
		if input.WinnerSide == nil {
			return ErrRetirementNeedsSide
		}
		winnerSide = scoring.Side(*input.WinnerSide)
		if winnerSide != scoring.SideA && winnerSide != scoring.SideB {
			return ErrRetirementNeedsSide
		}
	} else {
		side, err := scoring.WinnerFromSets(input.Sets)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSetScores, err)
		}
		winnerSide = side
	}

	winnerPairID, loserPairID := *match.PairAID, *match.PairBID
	if winnerSide == scoring.SideB {
		winnerPairID, loserPairID = loserPairID, winnerPairID
	}

	resultTag := scoring.ResultTag(input.Sets)
	match.Sets = input.Sets
	match.ResultTag = &resultTag
	match.Retired = input.Retired
	match.WinnerPairID = &winnerPairID
	match.LoserPairID = &loserPairID
	match.Status = status

	return s.matchRepo.SubmitResult(ctx, exec, match)
}
