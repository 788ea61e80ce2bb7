package lineup

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/AdamBeresnev/matchday/internal/match/matchtest"
	"github.com/AdamBeresnev/matchday/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMatch() *match.Match {
	return &match.Match{
		ID:         uuid.New(),
		TeamAID:    uuid.New(),
		TeamBID:    uuid.New(),
		Status:     match.StatusScheduled,
		FormationB: utils.Ptr("3-5-2"),
	}
}

// fillEleven starts the first 11 players of a squad in the editor.
func fillEleven(t *testing.T, e *Editor, side match.Side, players []match.Player) {
	t.Helper()
	for slot := 0; slot < StartingSlots; slot++ {
		require.NoError(t, e.AssignSlot(side, slot, players[slot].ID))
	}
}

func TestFormationTable(t *testing.T) {
	for _, f := range Formations() {
		cats := f.Categories()
		assert.Equal(t, match.CategoryGoalkeeper, cats[0], f)

		total := 1
		for _, n := range f.Lines() {
			total += n
		}
		assert.Equal(t, StartingSlots, total, f)
	}

	cats := Formation4231.Categories()
	assert.Equal(t, match.CategoryDefender, cats[4])
	assert.Equal(t, match.CategoryMidfielder, cats[5])
	assert.Equal(t, match.CategoryMidfielder, cats[9])
	assert.Equal(t, match.CategoryForward, cats[10])

	_, err := ParseFormation("2-3-5")
	assert.ErrorIs(t, err, match.ErrUnknownFormation)

	_, ok := Formation442.Category(11)
	assert.False(t, ok)
}

func TestNewEditorUsesStoredFormations(t *testing.T) {
	e := NewEditor(newMatch())
	assert.Equal(t, DefaultFormation, e.Formation(match.SideA))
	assert.Equal(t, Formation352, e.Formation(match.SideB))
}

func TestAssignSlotExclusivity(t *testing.T) {
	e := NewEditor(newMatch())
	p1, p2 := uuid.New(), uuid.New()

	require.NoError(t, e.AssignSlot(match.SideA, 0, p1))
	require.NoError(t, e.AssignSlot(match.SideA, 0, p1), "same slot again is a no-op")

	err := e.AssignSlot(match.SideA, 3, p1)
	assert.ErrorIs(t, err, match.ErrPlayerAssigned)

	require.NoError(t, e.AddToBench(match.SideA, p2))
	err = e.AssignSlot(match.SideA, 5, p2)
	assert.ErrorIs(t, err, match.ErrPlayerAssigned)

	err = e.AddToBench(match.SideA, p1)
	assert.ErrorIs(t, err, match.ErrPlayerAssigned)

	err = e.AddToBench(match.SideA, p2)
	assert.ErrorIs(t, err, match.ErrPlayerAssigned)

	// Rejections left the state as it was
	assert.Equal(t, map[int]uuid.UUID{0: p1}, e.Starting(match.SideA))
	assert.Equal(t, []uuid.UUID{p2}, e.Bench(match.SideA))

	// The other team is independent
	require.NoError(t, e.AssignSlot(match.SideB, 3, p1))
}

func TestAssignSlotReplacesOccupant(t *testing.T) {
	e := NewEditor(newMatch())
	p1, p2 := uuid.New(), uuid.New()

	require.NoError(t, e.AssignSlot(match.SideA, 4, p1))
	require.NoError(t, e.AssignSlot(match.SideA, 4, p2))

	role, _ := e.Role(match.SideA, p1)
	assert.Equal(t, RoleNone, role)
	role, slot := e.Role(match.SideA, p2)
	assert.Equal(t, RoleStarting, role)
	assert.Equal(t, 4, slot)

	// p1 is free again and can go to the bench
	require.NoError(t, e.AddToBench(match.SideA, p1))
}

func TestAssignSlotBounds(t *testing.T) {
	e := NewEditor(newMatch())
	assert.ErrorIs(t, e.AssignSlot(match.SideA, -1, uuid.New()), match.ErrInvalidSlot)
	assert.ErrorIs(t, e.AssignSlot(match.SideA, StartingSlots, uuid.New()), match.ErrInvalidSlot)
	assert.ErrorIs(t, e.AssignSlot(match.SideA, 1, uuid.Nil), match.ErrMissingPlayer)
}

func TestBenchRoundTrip(t *testing.T) {
	e := NewEditor(newMatch())
	p := uuid.New()

	require.NoError(t, e.AddToBench(match.SideB, p))
	assert.True(t, e.RemoveFromBench(match.SideB, p))
	assert.False(t, e.RemoveFromBench(match.SideB, p))
	require.NoError(t, e.AssignSlot(match.SideB, 2, p))
}

func TestRosterMembership(t *testing.T) {
	m := newMatch()
	squad := matchtest.Squad(m.TeamAID)
	e := NewEditor(m)
	e.SetRoster(match.SideA, match.NewRoster(squad))

	assert.ErrorIs(t, e.AssignSlot(match.SideA, 0, uuid.New()), match.ErrPlayerNotInRoster)
	assert.ErrorIs(t, e.AddToBench(match.SideA, uuid.New()), match.ErrPlayerNotInRoster)
	assert.NoError(t, e.AssignSlot(match.SideA, 0, squad[0].ID))
}

func TestMismatches(t *testing.T) {
	m := newMatch()
	squad := matchtest.Squad(m.TeamAID)
	e := NewEditor(m)
	e.SetRoster(match.SideA, match.NewRoster(squad))

	// squad[0] is a goalkeeper, squad[17] a forward
	require.NoError(t, e.AssignSlot(match.SideA, 0, squad[0].ID))
	require.NoError(t, e.AssignSlot(match.SideA, 1, squad[17].ID))

	mismatches := e.Mismatches(match.SideA)
	require.Len(t, mismatches, 1)
	assert.Equal(t, 1, mismatches[0].Slot)
	assert.Equal(t, match.CategoryDefender, mismatches[0].Slotted)
	assert.Equal(t, match.CategoryForward, mismatches[0].Rostered)
}

func TestEntriesAndValidateKickoff(t *testing.T) {
	m := newMatch()
	e := NewEditor(m)
	squadA, squadB := matchtest.Squad(m.TeamAID), matchtest.Squad(m.TeamBID)

	fillEleven(t, e, match.SideA, squadA)
	for slot := 0; slot < 10; slot++ {
		require.NoError(t, e.AssignSlot(match.SideB, slot, squadB[slot].ID))
	}
	require.NoError(t, e.AddToBench(match.SideB, squadB[12].ID))

	err := e.ValidateKickoff()
	assert.ErrorIs(t, err, match.ErrIncompleteLineup)
	assert.ErrorIs(t, err, match.ErrValidation)

	require.NoError(t, e.AssignSlot(match.SideB, 10, squadB[10].ID))
	require.NoError(t, e.ValidateKickoff())

	entries := e.Entries()
	require.Len(t, entries, 23)
	assert.Equal(t, 0, *entries[0].SlotIndex)
	assert.Equal(t, m.TeamAID, entries[0].TeamID)
	bench := entries[22]
	assert.False(t, bench.IsStarting)
	assert.Nil(t, bench.SlotIndex)
	assert.Equal(t, squadB[12].ID, bench.PlayerID)
}

func TestLoadRebuildsState(t *testing.T) {
	m := newMatch()
	e := NewEditor(m)
	squad := matchtest.Squad(m.TeamAID)
	fillEleven(t, e, match.SideA, squad)
	require.NoError(t, e.AddToBench(match.SideA, squad[11].ID))

	other := NewEditor(m)
	require.NoError(t, other.Load(e.Entries()))
	assert.Equal(t, e.Starting(match.SideA), other.Starting(match.SideA))
	assert.Equal(t, e.Bench(match.SideA), other.Bench(match.SideA))

	unslotted := []match.Lineup{
		{TeamID: m.TeamBID, PlayerID: uuid.New(), IsStarting: true},
		{TeamID: m.TeamBID, PlayerID: uuid.New(), IsStarting: true, SlotIndex: utils.Ptr(0)},
	}
	require.NoError(t, other.Load(unslotted))
	assert.Len(t, other.Starting(match.SideB), 2)
	assert.Equal(t, unslotted[1].PlayerID, other.Starting(match.SideB)[0])
	assert.Empty(t, other.Starting(match.SideA), "load replaces previous contents")

	before := other.Starting(match.SideB)
	dup := uuid.New()
	err := other.Load([]match.Lineup{
		{TeamID: m.TeamAID, PlayerID: dup, IsStarting: true, SlotIndex: utils.Ptr(1)},
		{TeamID: m.TeamAID, PlayerID: dup},
	})
	assert.ErrorIs(t, err, match.ErrPlayerAssigned)
	assert.Equal(t, before, other.Starting(match.SideB), "failed load keeps state")

	err = other.Load([]match.Lineup{{TeamID: uuid.New(), PlayerID: uuid.New()}})
	assert.ErrorIs(t, err, match.ErrTeamNotInMatch)
}

func TestCommit(t *testing.T) {
	ctx := context.Background()
	m := newMatch()
	repo := matchtest.NewLineups()
	e := NewEditor(m)
	require.NoError(t, e.SetFormation(match.SideA, "4-4-2"))
	assert.ErrorIs(t, e.SetFormation(match.SideA, "1-1-8"), match.ErrUnknownFormation)
	require.NoError(t, e.AssignSlot(match.SideA, 0, uuid.New()))

	saved, err := e.Commit(ctx, repo, m)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, match.Formations{A: "4-4-2", B: "3-5-2"}, repo.Formations[m.ID])

	m.Status = match.StatusFinished
	_, err = e.Commit(ctx, repo, m)
	assert.ErrorIs(t, err, match.ErrMatchLocked)
}
