package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/matchday/internal/coordinator"
	"github.com/AdamBeresnev/matchday/internal/db"
	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/AdamBeresnev/matchday/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.InitDB(db.DriverSQLite, "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database), "Failed to apply migrations")
	return database
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recorder struct {
	mu          sync.Mutex
	invalidated map[uuid.UUID][][]coordinator.View
	clockLabels map[uuid.UUID]string
}

func newRecorder() *recorder {
	return &recorder{invalidated: map[uuid.UUID][][]coordinator.View{}, clockLabels: map[uuid.UUID]string{}}
}

func (r *recorder) Invalidated(matchID uuid.UUID, views []coordinator.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated[matchID] = append(r.invalidated[matchID], views)
}

func (r *recorder) ClockTicked(matchID uuid.UUID, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clockLabels[matchID] = label
}

type testEnv struct {
	db       *sqlx.DB
	fixtures *FixtureService
	matches  *MatchService
	clock    *testClock
	events   *recorder
	teamA    uuid.UUID
	teamB    uuid.UUID
}

func squadInputs(prefix string) []PlayerInput {
	counts := []struct {
		cat match.Category
		n   int
	}{
		{match.CategoryGoalkeeper, 2},
		{match.CategoryDefender, 6},
		{match.CategoryMidfielder, 6},
		{match.CategoryForward, 4},
	}
	var inputs []PlayerInput
	number := 1
	for _, c := range counts {
		for i := 0; i < c.n; i++ {
			n := number
			inputs = append(inputs, PlayerInput{Name: prefix + " " + string(c.cat), Number: &n, Category: c.cat})
			number++
		}
	}
	return inputs
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	database := setupTestDB(t)

	tournaments := store.NewTournamentStore(database)
	teams := store.NewTeamStore(database)
	matches := store.NewMatchStore(database)

	events := newRecorder()
	coord := coordinator.New(matches, coordinator.NewCache(), events)
	svc := NewMatchService(Repositories{
		Matches:       matches,
		Goals:         store.NewGoalStore(database),
		Cards:         store.NewCardStore(database),
		Substitutions: store.NewSubstitutionStore(database),
		Lineups:       store.NewLineupStore(database),
		Teams:         teams,
		Tournaments:   tournaments,
	}, coord)
	svc.AddClockListener(events)

	clk := &testClock{now: time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)}
	svc.now = clk.Now

	env := &testEnv{
		db:       database,
		fixtures: NewFixtureService(database, tournaments, teams, matches),
		matches:  svc,
		clock:    clk,
		events:   events,
	}

	ctx := context.Background()
	var err error
	env.teamA, err = env.fixtures.CreateTeam(ctx, "Rovers", squadInputs("Rovers"))
	require.NoError(t, err)
	env.teamB, err = env.fixtures.CreateTeam(ctx, "United", squadInputs("United"))
	require.NoError(t, err)
	return env
}

// fillLineups commits eleven starters and one substitute per team.
func (env *testEnv) fillLineups(t *testing.T, matchID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	editor, err := env.matches.LineupEditor(ctx, matchID)
	require.NoError(t, err)
	m, err := env.matches.GetMatch(ctx, matchID)
	require.NoError(t, err)

	for _, side := range []match.Side{match.SideA, match.SideB} {
		team, err := store.NewTeamStore(env.db).GetTeam(ctx, m.TeamID(side))
		require.NoError(t, err)
		var players []match.Player
		players = append(players, team.Roster.Goalkeepers...)
		players = append(players, team.Roster.Defenders...)
		players = append(players, team.Roster.Midfielders...)
		players = append(players, team.Roster.Forwards...)
		for slot := 0; slot < 11; slot++ {
			require.NoError(t, editor.AssignSlot(side, slot, players[slot+1].ID))
		}
		require.NoError(t, editor.AddToBench(side, players[0].ID))
	}
	require.NoError(t, editor.ValidateKickoff())

	_, err = env.matches.CommitLineup(ctx, editor)
	require.NoError(t, err)
}

func (env *testEnv) scheduleMatch(t *testing.T, twoLegged bool, stage string) (tournamentID, matchID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	tournamentID, err := env.fixtures.CreateTournament(ctx, "Spring Cup", twoLegged)
	require.NoError(t, err)
	matchID, err = env.fixtures.ScheduleMatch(ctx, tournamentID, FixtureInput{
		TeamAID: env.teamA,
		TeamBID: env.teamB,
		Stage:   stage,
	})
	require.NoError(t, err)
	return tournamentID, matchID
}
