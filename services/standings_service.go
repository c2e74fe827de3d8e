package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/sfxdeve/padel-fantasy/repositories"
)

type LeagueTable struct {
	League    *models.League             `json:"league"`
	Standings []*models.GameweekStanding `json:"standings"`
}

type StandingsService interface {
	// GetLeagueTable returns a league's gameweek standings ordered by rank.
	GetLeagueTable(ctx context.Context, leagueID, tournamentID int) (*LeagueTable, error)
}

type standingsService struct {
	leagueRepo   repositories.LeagueRepository
	standingRepo repositories.StandingRepository
}

func NewStandingsService(leagueRepo repositories.LeagueRepository, standingRepo repositories.StandingRepository) StandingsService {
	return &standingsService{
		leagueRepo:   leagueRepo,
		standingRepo: standingRepo,
	}
}

func (s *standingsService) GetLeagueTable(ctx context.Context, leagueID, tournamentID int) (*LeagueTable, error) {
	var (
		league    *models.League
		standings []*models.GameweekStanding
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		league, err = s.leagueRepo.GetByID(gctx, nil, leagueID)
		return err
	})
	g.Go(func() error {
		var err error
		standings, err = s.standingRepo.ListByLeagueAndTournament(gctx, leagueID, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}

	return &LeagueTable{League: league, Standings: standings}, nil
}
