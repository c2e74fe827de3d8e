package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sfxdeve/padel-fantasy/repositories"
)

// Scheduler drives the time-based tournament transitions: locking lineups at
// each tournament's deadline and finalizing tournaments after their end date.
type Scheduler struct {
	cron           *cron.Cron
	tournamentRepo repositories.TournamentRepository
	lineups        LineupService
	prices         PriceService
	logger         *slog.Logger
}

func NewScheduler(
	tournamentRepo repositories.TournamentRepository,
	lineups LineupService,
	prices PriceService,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		tournamentRepo: tournamentRepo,
		lineups:        lineups,
		prices:         prices,
		logger:         logger,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.tick); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now().UTC()
	s.lockDueLineups(ctx, now)
	s.finalizeDueTournaments(ctx, now)
}

func (s *Scheduler) lockDueLineups(ctx context.Context, now time.Time) {
	due, err := s.tournamentRepo.ListDueForLock(ctx, now)
	if err != nil {
		s.logger.Error("failed to list tournaments due for lineup lock", slog.String("error", err.Error()))
		return
	}
	for _, tournament := range due {
		if err := s.lineups.LockAndSubstitute(ctx, tournament.ID); err != nil {
			s.logger.Error("failed to lock lineups",
				slog.Int("tournament_id", tournament.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *Scheduler) finalizeDueTournaments(ctx context.Context, now time.Time) {
	due, err := s.tournamentRepo.ListDueForFinalize(ctx, now)
	if err != nil {
		s.logger.Error("failed to list tournaments due for finalization", slog.String("error", err.Error()))
		return
	}
	for _, tournament := range due {
		if err := s.prices.FinalizeTournament(ctx, tournament.ID); err != nil {
			s.logger.Error("failed to finalize tournament",
				slog.Int("tournament_id", tournament.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}
