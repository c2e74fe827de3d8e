package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/sfxdeve/padel-fantasy/repositories"
	"github.com/sfxdeve/padel-fantasy/scoring"
)

type PriceService interface {
	// FinalizeTournament applies the post-tournament price evolution to every
	// athlete who scored points in the tournament and marks the tournament
	// finalized. Entrants without a single scored match keep their price and
	// moving average untouched.
	FinalizeTournament(ctx context.Context, tournamentID int) error
}

type priceService struct {
	db             repositories.TxBeginner
	tournamentRepo repositories.TournamentRepository
	athleteRepo    repositories.AthleteRepository
	pointsRepo     repositories.AthletePointsRepository
	logger         *slog.Logger
}

func NewPriceService(
	db repositories.TxBeginner,
	tournamentRepo repositories.TournamentRepository,
	athleteRepo repositories.AthleteRepository,
	pointsRepo repositories.AthletePointsRepository,
	logger *slog.Logger,
) PriceService {
	return &priceService{
		db:             db,
		tournamentRepo: tournamentRepo,
		athleteRepo:    athleteRepo,
		pointsRepo:     pointsRepo,
		logger:         logger,
	}
}

func (s *priceService) FinalizeTournament(ctx context.Context, tournamentID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if tournament.Status == models.TournamentStatusFinalized {
		return nil
	}

	championship, err := s.tournamentRepo.GetChampionship(ctx, nil, tournament.ChampionshipID)
	if err != nil {
		return err
	}
	params := scoring.PriceParams{
		Volatility: tournament.PriceVolatility,
		Floor:      championship.PriceFloor,
		Cap:        championship.PriceCap,
	}

	totals, err := s.pointsRepo.TournamentTotals(ctx, nil, tournamentID)
	if err != nil {
		return err
	}
	scorerIDs := make([]int, 0, len(totals))
	for athleteID := range totals {
		scorerIDs = append(scorerIDs, athleteID)
	}
	sort.Ints(scorerIDs)

	athletes, err := s.athleteRepo.ListByIDs(ctx, nil, scorerIDs)
	if err != nil {
		return err
	}
	sort.Slice(athletes, func(i, j int) bool { return athletes[i].ID < athletes[j].ID })

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin price evolution transaction: %w", err)
	}
	defer tx.Rollback()

	for _, athlete := range athletes {
		newPrice, newAvg := scoring.EvolvePrice(athlete.Price, totals[athlete.ID], athlete.MovingAvg, params)
		if err := s.athleteRepo.UpdatePriceAndAvg(ctx, tx, athlete.ID, newPrice, newAvg); err != nil {
			return fmt.Errorf("failed to update price for athlete %d: %w", athlete.ID, err)
		}
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.TournamentStatusFinalized); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price evolution for tournament %d: %w", tournamentID, err)
	}

	s.logger.Info("tournament finalized",
		slog.Int("tournament_id", tournamentID),
		slog.Int("athletes", len(athletes)),
	)
	return nil
}
