package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sfxdeve/padel-fantasy/brackets"
	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/sfxdeve/padel-fantasy/repositories"
)

// ProgressionService advances the tournament bracket when a match completes:
// it fills successor seats, creates successor matches on demand, and seeds
// the main draw once all four pools are fully ranked.
type ProgressionService interface {
	Advance(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error
}

type progressionService struct {
	matchRepo repositories.MatchRepository
	graph     *brackets.Graph
	logger    *slog.Logger
}

func NewProgressionService(matchRepo repositories.MatchRepository, graph *brackets.Graph, logger *slog.Logger) (ProgressionService, error) {
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bracket graph: %w", err)
	}
	return &progressionService{
		matchRepo: matchRepo,
		graph:     graph,
		logger:    logger,
	}, nil
}

func (s *progressionService) Advance(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	if match.SlotID == nil || match.Phase.Terminal() {
		return nil
	}
	if !match.HasResult() {
		return nil
	}
	slot := brackets.SlotID(*match.SlotID)

	outcomes := []struct {
		outcome brackets.Outcome
		pairID  int
	}{
		{brackets.OutcomeWinner, *match.WinnerPairID},
		{brackets.OutcomeLoser, *match.LoserPairID},
	}

	for _, o := range outcomes {
		for _, edge := range s.graph.Successors(slot, o.outcome) {
			if err := s.fillSeat(ctx, exec, match, edge, o.pairID); err != nil {
				return err
			}
		}
	}

	if match.Phase == models.PhasePool {
		if err := s.maybeSeedMainDraw(ctx, exec, match); err != nil {
			return err
		}
	}
	return nil
}

func (s *progressionService) fillSeat(ctx context.Context, exec repositories.SQLExecutor, completed *models.Match, edge brackets.Edge, pairID int) error {
	successor, err := s.findOrCreateSlotMatch(ctx, exec, completed, edge.To)
	if err != nil {
		return err
	}

	// A correction can arrive after the successor was already played; history
	// cannot be rewritten at that point, only reported.
	if successor.Status != models.MatchStatusScheduled {
		s.logger.Warn("successor match already played, seat not rewritten",
			slog.Int("match_id", completed.ID),
			slog.Int("successor_id", successor.ID),
			slog.String("slot", string(edge.To)),
		)
		return nil
	}

	if err := s.matchRepo.SetSeatPair(ctx, exec, successor.ID, string(edge.ToSeat), pairID); err != nil {
		return fmt.Errorf("failed to fill seat %s of slot %s: %w", edge.ToSeat, edge.To, err)
	}
	return nil
}

func (s *progressionService) findOrCreateSlotMatch(ctx context.Context, exec repositories.SQLExecutor, completed *models.Match, slot brackets.SlotID) (*models.Match, error) {
	existing, err := s.matchRepo.GetBySlot(ctx, exec, completed.TournamentID, string(slot))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrMatchNotFound) {
		return nil, err
	}

	phase, ok := s.graph.PhaseOf(slot)
	if !ok {
		return nil, fmt.Errorf("slot %q is not part of the draw", slot)
	}

	slotStr := string(slot)
	created := &models.Match{
		TournamentID: completed.TournamentID,
		Phase:        phase,
		SlotID:       &slotStr,
		Status:       models.MatchStatusScheduled,
		MatchTime:    completed.MatchTime,
	}
	seatA, seatB := s.graph.SeatSources(slot)
	if seatA != nil {
		created.SeatASourceSlot = stringPtr(string(seatA.Slot))
		created.SeatASourceOutcome = stringPtr(string(seatA.Outcome))
	}
	if seatB != nil {
		created.SeatBSourceSlot = stringPtr(string(seatB.Slot))
		created.SeatBSourceOutcome = stringPtr(string(seatB.Outcome))
	}

	if err := s.matchRepo.Create(ctx, exec, created); err != nil {
		return nil, fmt.Errorf("failed to create successor match at slot %s: %w", slot, err)
	}
	s.logger.Info("successor match created",
		slog.Int("tournament_id", completed.TournamentID),
		slog.String("slot", slotStr),
	)
	return created, nil
}

// maybeSeedMainDraw runs after a pool match completes. Once every pool has
// its winners and losers matches decided, pool winners take quarterfinal byes
// and the second and third places fill the round of 12. Seeding happens
// exactly once per tournament.
func (s *progressionService) maybeSeedMainDraw(ctx context.Context, exec repositories.SQLExecutor, completed *models.Match) error {
	_, err := s.matchRepo.GetBySlot(ctx, exec, completed.TournamentID, string(brackets.SlotR12M1))
	if err == nil {
		return nil // already seeded
	}
	if !errors.Is(err, repositories.ErrMatchNotFound) {
		return err
	}

	phase := models.PhasePool
	poolMatches, err := s.matchRepo.ListByTournament(ctx, exec, completed.TournamentID, &phase)
	if err != nil {
		return err
	}
	bySlot := make(map[brackets.SlotID]*models.Match, len(poolMatches))
	for _, m := range poolMatches {
		if m.SlotID != nil {
			bySlot[brackets.SlotID(*m.SlotID)] = m
		}
	}

	ranks := make(map[brackets.PoolID]brackets.PoolRanking, len(brackets.Pools))
	for _, pool := range brackets.Pools {
		winners := bySlot[brackets.PoolWinners(pool)]
		losers := bySlot[brackets.PoolLosers(pool)]
		if winners == nil || losers == nil || !winners.HasResult() || !losers.HasResult() {
			return nil // pools not finished yet
		}
		ranks[pool] = brackets.RankPool(
			*winners.WinnerPairID, *winners.LoserPairID,
			*losers.WinnerPairID, *losers.LoserPairID,
		)
	}

	seedings, err := brackets.SeedMainDraw(ranks)
	if err != nil {
		return fmt.Errorf("pool seeding failed for tournament %d: %w", completed.TournamentID, err)
	}

	for _, seeding := range seedings {
		target, err := s.findOrCreateSlotMatch(ctx, exec, completed, seeding.Slot)
		if err != nil {
			return err
		}
		if err := s.matchRepo.SetSeatPair(ctx, exec, target.ID, string(seeding.Seat), seeding.PairID); err != nil {
			return fmt.Errorf("failed to seed pair %d into slot %s: %w", seeding.PairID, seeding.Slot, err)
		}
	}

	s.logger.Info("main draw seeded",
		slog.Int("tournament_id", completed.TournamentID),
		slog.Int("seedings", len(seedings)),
	)
	return nil
}

func stringPtr(s string) *string { return &s }
