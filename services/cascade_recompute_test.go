package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfxdeve/padel-fantasy/models"
	"github.com/sfxdeve/padel-fantasy/repositories"
)

// fakeTx satisfies repositories.Tx without a database; the memory fakes
// ignore their executor argument.
type fakeTx struct{}

func (fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (fakeTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (fakeTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

type fakeTxBeginner struct{}

func (fakeTxBeginner) BeginTx(ctx context.Context, opts *sql.TxOptions) (repositories.Tx, error) {
	return fakeTx{}, nil
}

// recordingMatchStore extends the single-match fake with the done-flag
// compare-and-swap the recompute's final write relies on.
type recordingMatchStore struct {
	fakeMatchRepository
}

func (f *recordingMatchStore) MarkScoringDone(ctx context.Context, exec repositories.SQLExecutor, matchID, version int) (bool, error) {
	m := f.match
	if m == nil || m.ID != matchID || m.Version != version || m.ScoringDone {
		return false, nil
	}
	m.ScoringDone = true
	return true, nil
}

type memoryPairRepository struct {
	pairs map[int]*models.Pair
}

func (f *memoryPairRepository) GetByIDs(ctx context.Context, exec repositories.SQLExecutor, ids []int) (map[int]*models.Pair, error) {
	out := make(map[int]*models.Pair, len(ids))
	for _, id := range ids {
		if pair, ok := f.pairs[id]; ok {
			out[id] = pair
		}
	}
	return out, nil
}

type pointsKey struct {
	matchID   int
	athleteID int
}

// memoryPointsRepository models a single-tournament season, which is all the
// recompute tests need.
type memoryPointsRepository struct {
	rows map[pointsKey]models.AthleteMatchPoints
}

func newMemoryPointsRepository() *memoryPointsRepository {
	return &memoryPointsRepository{rows: make(map[pointsKey]models.AthleteMatchPoints)}
}

func (f *memoryPointsRepository) Upsert(ctx context.Context, exec repositories.SQLExecutor, points *models.AthleteMatchPoints) error {
	f.rows[pointsKey{points.MatchID, points.AthleteID}] = *points
	return nil
}

func (f *memoryPointsRepository) SeasonAverage(ctx context.Context, exec repositories.SQLExecutor, athleteID int) (float64, error) {
	sum, count := 0, 0
	for key, row := range f.rows {
		if key.athleteID == athleteID {
			sum += row.TotalPoints
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return float64(sum) / float64(count), nil
}

func (f *memoryPointsRepository) TournamentTotal(ctx context.Context, exec repositories.SQLExecutor, tournamentID, athleteID int) (int, error) {
	total := 0
	for key, row := range f.rows {
		if key.athleteID == athleteID {
			total += row.TotalPoints
		}
	}
	return total, nil
}

func (f *memoryPointsRepository) TournamentTotals(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (map[int]int, error) {
	totals := make(map[int]int)
	for key, row := range f.rows {
		totals[key.athleteID] += row.TotalPoints
	}
	return totals, nil
}

func (f *memoryPointsRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.AthleteMatchPoints, error) {
	var out []*models.AthleteMatchPoints
	for key, row := range f.rows {
		if key.matchID == matchID {
			clone := row
			out = append(out, &clone)
		}
	}
	return out, nil
}

// memoryLineupRepository holds locked lineup slots as an athlete-to-teams
// index plus the per-slot points the recompute pushes in.
type memoryLineupRepository struct {
	teamsByAthlete map[int][]int
	slotPoints     map[int]map[int]int
}

func newMemoryLineupRepository(teamsByAthlete map[int][]int) *memoryLineupRepository {
	return &memoryLineupRepository{
		teamsByAthlete: teamsByAthlete,
		slotPoints:     make(map[int]map[int]int),
	}
}

func (f *memoryLineupRepository) GetByTeamAndTournament(ctx context.Context, exec repositories.SQLExecutor, teamID, tournamentID int) (*models.Lineup, error) {
	return nil, repositories.ErrLineupNotFound
}

func (f *memoryLineupRepository) GetLatestByTeam(ctx context.Context, exec repositories.SQLExecutor, teamID, excludeTournamentID int) (*models.Lineup, error) {
	return nil, repositories.ErrLineupNotFound
}

func (f *memoryLineupRepository) CreateWithSlots(ctx context.Context, exec repositories.SQLExecutor, lineup *models.Lineup) error {
	return nil
}

func (f *memoryLineupRepository) ReplaceSlots(ctx context.Context, exec repositories.SQLExecutor, lineupID int, slots []models.LineupSlot) error {
	return nil
}

func (f *memoryLineupRepository) Lock(ctx context.Context, exec repositories.SQLExecutor, lineupID int, lockedAt time.Time) error {
	return nil
}

func (f *memoryLineupRepository) UpdateSlotRole(ctx context.Context, exec repositories.SQLExecutor, slotID int, role models.SlotRole, substitutedIn bool) error {
	return nil
}

func (f *memoryLineupRepository) SetSlotPointsForAthlete(ctx context.Context, exec repositories.SQLExecutor, tournamentID, athleteID, points int) ([]int, error) {
	teams := f.teamsByAthlete[athleteID]
	for _, teamID := range teams {
		if f.slotPoints[teamID] == nil {
			f.slotPoints[teamID] = make(map[int]int)
		}
		f.slotPoints[teamID][athleteID] = points
	}
	return teams, nil
}

func (f *memoryLineupRepository) SumEffectiveSeason(ctx context.Context, exec repositories.SQLExecutor, teamID int) (int, error) {
	total := 0
	for _, points := range f.slotPoints[teamID] {
		total += points
	}
	return total, nil
}

func (f *memoryLineupRepository) SumEffectiveForTournament(ctx context.Context, exec repositories.SQLExecutor, teamID, tournamentID int) (int, error) {
	return f.SumEffectiveSeason(ctx, exec, teamID)
}

func (f *memoryLineupRepository) SumEffectiveExcludingTournament(ctx context.Context, exec repositories.SQLExecutor, teamID, tournamentID int) (int, error) {
	return 0, nil
}

type memoryTeamRepository struct {
	totals map[int]int
}

func (f *memoryTeamRepository) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.FantasyTeam, error) {
	return nil, repositories.ErrFantasyTeamNotFound
}

func (f *memoryTeamRepository) ListByChampionship(ctx context.Context, exec repositories.SQLExecutor, championshipID int) ([]*models.FantasyTeam, error) {
	return nil, nil
}

func (f *memoryTeamRepository) UpdateTotalPoints(ctx context.Context, exec repositories.SQLExecutor, id int, totalPoints int) error {
	f.totals[id] = totalPoints
	return nil
}

type memoryLeagueRepository struct {
	leagues []*models.League
	members map[int][]*models.LeagueMember
}

func (f *memoryLeagueRepository) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.League, error) {
	for _, league := range f.leagues {
		if league.ID == id {
			return league, nil
		}
	}
	return nil, repositories.ErrLeagueNotFound
}

func (f *memoryLeagueRepository) ListActiveByChampionship(ctx context.Context, exec repositories.SQLExecutor, championshipID int) ([]*models.League, error) {
	var out []*models.League
	for _, league := range f.leagues {
		if league.ChampionshipID == championshipID && league.Status == models.LeagueStatusActive {
			out = append(out, league)
		}
	}
	return out, nil
}

func (f *memoryLeagueRepository) ListMembers(ctx context.Context, exec repositories.SQLExecutor, leagueID int) ([]*models.LeagueMember, error) {
	return f.members[leagueID], nil
}

type standingKey struct {
	leagueID     int
	tournamentID int
	teamID       int
}

type memoryStandingRepository struct {
	rows    map[standingKey]models.GameweekStanding
	reranks int
}

func newMemoryStandingRepository() *memoryStandingRepository {
	return &memoryStandingRepository{rows: make(map[standingKey]models.GameweekStanding)}
}

func (f *memoryStandingRepository) Upsert(ctx context.Context, exec repositories.SQLExecutor, standing *models.GameweekStanding) error {
	f.rows[standingKey{standing.LeagueID, standing.TournamentID, standing.FantasyTeamID}] = *standing
	return nil
}

func (f *memoryStandingRepository) Rerank(ctx context.Context, exec repositories.SQLExecutor, leagueID, tournamentID int) error {
	f.reranks++
	return nil
}

func (f *memoryStandingRepository) ListByLeagueAndTournament(ctx context.Context, leagueID, tournamentID int) ([]*models.GameweekStanding, error) {
	var out []*models.GameweekStanding
	for key, row := range f.rows {
		if key.leagueID == leagueID && key.tournamentID == tournamentID {
			clone := row
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memoryTournamentRepository struct {
	tournament   *models.Tournament
	championship *models.Championship
}

func (f *memoryTournamentRepository) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	if f.tournament == nil || f.tournament.ID != id {
		return nil, repositories.ErrTournamentNotFound
	}
	return f.tournament, nil
}

func (f *memoryTournamentRepository) GetChampionship(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Championship, error) {
	if f.championship == nil || f.championship.ID != id {
		return nil, repositories.ErrChampionshipNotFound
	}
	return f.championship, nil
}

func (f *memoryTournamentRepository) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	f.tournament.Status = status
	return nil
}

func (f *memoryTournamentRepository) SetLineupsLocked(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	return nil
}

func (f *memoryTournamentRepository) ListDueForLock(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	return nil, nil
}

func (f *memoryTournamentRepository) ListDueForFinalize(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	return nil, nil
}

type memoryAthleteRepository struct {
	athletes   map[int]*models.Athlete
	movingAvgs map[int]float64
	repriced   []int
}

func newMemoryAthleteRepository(athletes ...*models.Athlete) *memoryAthleteRepository {
	byID := make(map[int]*models.Athlete, len(athletes))
	for _, a := range athletes {
		byID[a.ID] = a
	}
	return &memoryAthleteRepository{athletes: byID, movingAvgs: make(map[int]float64)}
}

func (f *memoryAthleteRepository) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Athlete, error) {
	athlete, ok := f.athletes[id]
	if !ok {
		return nil, repositories.ErrAthleteNotFound
	}
	return athlete, nil
}

func (f *memoryAthleteRepository) ListByIDs(ctx context.Context, exec repositories.SQLExecutor, ids []int) ([]*models.Athlete, error) {
	var out []*models.Athlete
	for _, id := range ids {
		if athlete, ok := f.athletes[id]; ok {
			out = append(out, athlete)
		}
	}
	return out, nil
}

func (f *memoryAthleteRepository) UpdateMovingAvg(ctx context.Context, exec repositories.SQLExecutor, id int, movingAvg float64) error {
	f.movingAvgs[id] = movingAvg
	return nil
}

func (f *memoryAthleteRepository) UpdatePriceAndAvg(ctx context.Context, exec repositories.SQLExecutor, id int, price int, movingAvg float64) error {
	athlete, ok := f.athletes[id]
	if !ok {
		return repositories.ErrAthleteNotFound
	}
	athlete.Price = price
	athlete.MovingAvg = movingAvg
	f.repriced = append(f.repriced, id)
	return nil
}

func (f *memoryAthleteRepository) UpdatePhotoKey(ctx context.Context, id int, photoKey *string) error {
	return nil
}

func (f *memoryAthleteRepository) EnteredInTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]int, error) {
	return nil, nil
}

type stubProgression struct{}

func (stubProgression) Advance(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	return nil
}

type captureNotifier struct {
	results []*CascadeResult
}

func (n *captureNotifier) NotifyCascadeResult(ctx context.Context, result *CascadeResult) {
	n.results = append(n.results, result)
}

// cascadeFixture wires the recompute over memory fakes. Pairs 10 and 20 hold
// athletes 1,2 and 3,4; team 100 fields athlete 1, team 200 fields athlete 3.
type cascadeFixture struct {
	matchRepo *recordingMatchStore
	points    *memoryPointsRepository
	lineups   *memoryLineupRepository
	teams     *memoryTeamRepository
	leagues   *memoryLeagueRepository
	standings *memoryStandingRepository
	notifier  *captureNotifier
	svc       CascadeService
}

func newCascadeFixture(match *models.Match, leagues *memoryLeagueRepository) *cascadeFixture {
	f := &cascadeFixture{
		matchRepo: &recordingMatchStore{fakeMatchRepository{match: match}},
		points:    newMemoryPointsRepository(),
		lineups: newMemoryLineupRepository(map[int][]int{
			1: {100},
			3: {200},
		}),
		teams:     &memoryTeamRepository{totals: make(map[int]int)},
		leagues:   leagues,
		standings: newMemoryStandingRepository(),
		notifier:  &captureNotifier{},
	}
	if f.leagues == nil {
		f.leagues = &memoryLeagueRepository{}
	}
	pairs := &memoryPairRepository{pairs: map[int]*models.Pair{
		10: {ID: 10, Athlete1ID: 1, Athlete2ID: 2},
		20: {ID: 20, Athlete1ID: 3, Athlete2ID: 4},
	}}
	tournaments := &memoryTournamentRepository{
		tournament: &models.Tournament{
			ID:             7,
			ChampionshipID: 5,
			EndDate:        time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
			Status:         models.TournamentStatusActive,
		},
	}
	athletes := newMemoryAthleteRepository(
		&models.Athlete{ID: 1}, &models.Athlete{ID: 2},
		&models.Athlete{ID: 3}, &models.Athlete{ID: 4},
	)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewCascadeService(
		fakeTxBeginner{},
		f.matchRepo,
		pairs,
		athletes,
		f.points,
		f.lineups,
		f.teams,
		f.leagues,
		f.standings,
		tournaments,
		stubProgression{},
		f.notifier,
		logger,
	)
	return f
}

func TestCascadeRerunLeavesPointsUnchanged(t *testing.T) {
	match := completedMatch()
	f := newCascadeFixture(match, nil)

	require.NoError(t, f.svc.Run(context.Background(), CascadeTask{MatchID: 1, Version: 2}))

	firstRows := make(map[pointsKey]models.AthleteMatchPoints, len(f.points.rows))
	for key, row := range f.points.rows {
		firstRows[key] = row
	}
	firstTotals := map[int]int{100: f.teams.totals[100], 200: f.teams.totals[200]}

	// A duplicate trigger for the same version runs again after the done flag
	// is cleared, as happens when a crashed worker's task is redelivered.
	match.ScoringDone = false
	require.NoError(t, f.svc.Run(context.Background(), CascadeTask{MatchID: 1, Version: 2}))

	assert.Equal(t, firstRows, f.points.rows)
	assert.Equal(t, firstTotals[100], f.teams.totals[100])
	assert.Equal(t, firstTotals[200], f.teams.totals[200])
	assert.True(t, match.ScoringDone)
}

func TestCascadeStopsDuplicateTriggerAtDoneFlag(t *testing.T) {
	match := completedMatch()
	f := newCascadeFixture(match, nil)

	require.NoError(t, f.svc.Run(context.Background(), CascadeTask{MatchID: 1, Version: 2}))
	require.Len(t, f.notifier.results, 1)

	// Same trigger again without a reset: the guard stops it before scoring.
	require.NoError(t, f.svc.Run(context.Background(), CascadeTask{MatchID: 1, Version: 2}))
	assert.Len(t, f.notifier.results, 1)
}

func TestCascadeCorrectionOverwritesPoints(t *testing.T) {
	match := completedMatch()
	corrected := newCascadeFixture(match, nil)
	require.NoError(t, corrected.svc.Run(context.Background(), CascadeTask{MatchID: 1, Version: 2}))

	// Correction flips the result: pair 20 actually won in three sets.
	match.Sets = []models.SetScore{{A: 6, B: 3}, {A: 4, B: 6}, {A: 5, B: 7}}
	match.WinnerPairID = match.PairBID
	match.LoserPairID = match.PairAID
	match.Version = 3
	match.ScoringDone = false
	require.NoError(t, corrected.svc.Run(context.Background(), CascadeTask{MatchID: 1, Version: 3}))

	// A history that only ever saw the corrected result must agree.
	cleanMatch := completedMatch()
	cleanMatch.Sets = match.Sets
	cleanMatch.WinnerPairID = cleanMatch.PairBID
	cleanMatch.LoserPairID = cleanMatch.PairAID
	cleanMatch.Version = 3
	clean := newCascadeFixture(cleanMatch, nil)
	require.NoError(t, clean.svc.Run(context.Background(), CascadeTask{MatchID: 1, Version: 3}))

	assert.Equal(t, clean.points.rows, corrected.points.rows)
	assert.Equal(t, clean.teams.totals, corrected.teams.totals)
}

func TestCascadeSkipsStandingsForLateEnrollment(t *testing.T) {
	endDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	leagues := &memoryLeagueRepository{
		leagues: []*models.League{{ID: 1, ChampionshipID: 5, Status: models.LeagueStatusActive}},
		members: map[int][]*models.LeagueMember{
			1: {
				{LeagueID: 1, FantasyTeamID: 100, EnrolledAt: endDate.AddDate(0, 0, -30)},
				{LeagueID: 1, FantasyTeamID: 200, EnrolledAt: endDate.AddDate(0, 0, 1)},
			},
		},
	}
	f := newCascadeFixture(completedMatch(), leagues)

	require.NoError(t, f.svc.Run(context.Background(), CascadeTask{MatchID: 1, Version: 2}))

	_, early := f.standings.rows[standingKey{1, 7, 100}]
	_, late := f.standings.rows[standingKey{1, 7, 200}]
	assert.True(t, early, "team enrolled before the tournament ended gets a standings row")
	assert.False(t, late, "team enrolled after the tournament ended must not score it")
	assert.Equal(t, 1, f.standings.reranks)

	require.Len(t, f.notifier.results, 1)
	assert.Equal(t, []int{1}, f.notifier.results[0].LeagueIDs)
}
