// Package lineup edits the two starting formations and benches of a match.
package lineup

import (
	"context"
	"fmt"
	"sort"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/AdamBeresnev/matchday/internal/utils"
	"github.com/google/uuid"
)

type Role int

const (
	RoleNone Role = iota
	RoleStarting
	RoleBench
)

type teamSheet struct {
	teamID    uuid.UUID
	formation Formation
	starting  map[int]uuid.UUID
	bench     []uuid.UUID
	roster    *match.Roster
}

func (t *teamSheet) role(playerID uuid.UUID) (Role, int) {
	for slot, id := range t.starting {
		if id == playerID {
			return RoleStarting, slot
		}
	}
	for _, id := range t.bench {
		if id == playerID {
			return RoleBench, -1
		}
	}
	return RoleNone, -1
}

func (t *teamSheet) checkRoster(playerID uuid.UUID) error {
	if t.roster == nil {
		return nil
	}
	if _, ok := t.roster.CategoryOf(playerID); !ok {
		return match.ErrPlayerNotInRoster
	}
	return nil
}

// Editor holds the unsaved lineups of one match. A player holds at most one
// role per team: one starting slot, one bench seat, or nothing. Every rejected
// operation leaves the editor unchanged. An Editor is not safe for concurrent use.
type Editor struct {
	matchID uuid.UUID
	sheets  [2]*teamSheet
}

func NewEditor(m *match.Match) *Editor {
	e := &Editor{matchID: m.ID}
	for _, side := range []match.Side{match.SideA, match.SideB} {
		formation := DefaultFormation
		code := m.FormationA
		if side == match.SideB {
			code = m.FormationB
		}
		if f, err := ParseFormation(utils.OrZero(code)); err == nil {
			formation = f
		}
		e.sheets[side] = &teamSheet{
			teamID:    m.TeamID(side),
			formation: formation,
			starting:  make(map[int]uuid.UUID),
		}
	}
	return e
}

func (e *Editor) MatchID() uuid.UUID {
	return e.matchID
}

func (e *Editor) sheet(side match.Side) *teamSheet {
	return e.sheets[side]
}

// SetRoster enables roster membership checks for side.
func (e *Editor) SetRoster(side match.Side, roster match.Roster) {
	e.sheet(side).roster = &roster
}

// Load replaces the editor contents with persisted lineup entries.
func (e *Editor) Load(entries []match.Lineup) error {
	fresh := [2]*teamSheet{}
	for i, s := range e.sheets {
		fresh[i] = &teamSheet{teamID: s.teamID, formation: s.formation, starting: make(map[int]uuid.UUID), roster: s.roster}
	}
	loaded := &Editor{matchID: e.matchID, sheets: fresh}

	// Slotted starters first so unslotted ones can fill the gaps
	sorted := append([]match.Lineup(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SlotIndex != nil && sorted[j].SlotIndex == nil
	})

	for _, entry := range sorted {
		side, ok := loaded.sideOf(entry.TeamID)
		if !ok {
			return match.ErrTeamNotInMatch
		}
		var err error
		switch {
		case !entry.IsStarting:
			err = loaded.AddToBench(side, entry.PlayerID)
		case entry.SlotIndex != nil:
			err = loaded.AssignSlot(side, *entry.SlotIndex, entry.PlayerID)
		default:
			slot, free := loaded.freeSlot(side)
			if !free {
				err = match.ErrInvalidSlot
				break
			}
			err = loaded.AssignSlot(side, slot, entry.PlayerID)
		}
		if err != nil {
			return fmt.Errorf("failed to load lineup for player %s: %w", entry.PlayerID, err)
		}
	}

	e.sheets = loaded.sheets
	return nil
}

func (e *Editor) sideOf(teamID uuid.UUID) (match.Side, bool) {
	for _, side := range []match.Side{match.SideA, match.SideB} {
		if e.sheets[side].teamID == teamID {
			return side, true
		}
	}
	return match.SideA, false
}

func (e *Editor) freeSlot(side match.Side) (int, bool) {
	for slot := 0; slot < StartingSlots; slot++ {
		if _, taken := e.sheet(side).starting[slot]; !taken {
			return slot, true
		}
	}
	return 0, false
}

func (e *Editor) SetFormation(side match.Side, code string) error {
	f, err := ParseFormation(code)
	if err != nil {
		return err
	}
	e.sheet(side).formation = f
	return nil
}

func (e *Editor) Formation(side match.Side) Formation {
	return e.sheet(side).formation
}

// AssignSlot puts playerID in slot, replacing whoever held it. It fails if the
// player already holds a different slot or sits on the bench.
func (e *Editor) AssignSlot(side match.Side, slot int, playerID uuid.UUID) error {
	if slot < 0 || slot >= StartingSlots {
		return match.ErrInvalidSlot
	}
	if playerID == uuid.Nil {
		return match.ErrMissingPlayer
	}
	t := e.sheet(side)
	if err := t.checkRoster(playerID); err != nil {
		return err
	}
	switch role, current := t.role(playerID); role {
	case RoleStarting:
		if current == slot {
			return nil
		}
		return fmt.Errorf("%w: starting in slot %d", match.ErrPlayerAssigned, current)
	case RoleBench:
		return fmt.Errorf("%w: on the bench", match.ErrPlayerAssigned)
	}
	t.starting[slot] = playerID
	return nil
}

func (e *Editor) ClearSlot(side match.Side, slot int) {
	delete(e.sheet(side).starting, slot)
}

func (e *Editor) AddToBench(side match.Side, playerID uuid.UUID) error {
	if playerID == uuid.Nil {
		return match.ErrMissingPlayer
	}
	t := e.sheet(side)
	if err := t.checkRoster(playerID); err != nil {
		return err
	}
	switch role, slot := t.role(playerID); role {
	case RoleStarting:
		return fmt.Errorf("%w: starting in slot %d", match.ErrPlayerAssigned, slot)
	case RoleBench:
		return fmt.Errorf("%w: already on the bench", match.ErrPlayerAssigned)
	}
	t.bench = append(t.bench, playerID)
	return nil
}

// RemoveFromBench reports whether the player was on the bench.
func (e *Editor) RemoveFromBench(side match.Side, playerID uuid.UUID) bool {
	t := e.sheet(side)
	for i, id := range t.bench {
		if id == playerID {
			t.bench = append(t.bench[:i], t.bench[i+1:]...)
			return true
		}
	}
	return false
}

// Role reports what playerID does for side; slot is -1 unless starting.
func (e *Editor) Role(side match.Side, playerID uuid.UUID) (Role, int) {
	return e.sheet(side).role(playerID)
}

func (e *Editor) Starting(side match.Side) map[int]uuid.UUID {
	out := make(map[int]uuid.UUID, len(e.sheet(side).starting))
	for slot, id := range e.sheet(side).starting {
		out[slot] = id
	}
	return out
}

func (e *Editor) Bench(side match.Side) []uuid.UUID {
	return append([]uuid.UUID(nil), e.sheet(side).bench...)
}

func (e *Editor) Formations() match.Formations {
	return match.Formations{
		A: string(e.sheet(match.SideA).formation),
		B: string(e.sheet(match.SideB).formation),
	}
}

// Entries flattens both teams into lineup records: starters by slot, then the bench in order.
func (e *Editor) Entries() []match.Lineup {
	var entries []match.Lineup
	for _, side := range []match.Side{match.SideA, match.SideB} {
		t := e.sheet(side)
		slots := make([]int, 0, len(t.starting))
		for slot := range t.starting {
			slots = append(slots, slot)
		}
		sort.Ints(slots)
		for _, slot := range slots {
			entries = append(entries, match.Lineup{
				MatchID:    e.matchID,
				TeamID:     t.teamID,
				PlayerID:   t.starting[slot],
				IsStarting: true,
				SlotIndex:  utils.Ptr(slot),
			})
		}
		for _, id := range t.bench {
			entries = append(entries, match.Lineup{
				MatchID:  e.matchID,
				TeamID:   t.teamID,
				PlayerID: id,
			})
		}
	}
	return entries
}

// ValidateKickoff fails unless both teams field 11 distinct starters.
func (e *Editor) ValidateKickoff() error {
	return ValidateKickoff(e.Entries(), e.sheets[match.SideA].teamID, e.sheets[match.SideB].teamID)
}

// ValidateKickoff checks persisted or pending entries for two full starting elevens.
func ValidateKickoff(entries []match.Lineup, teamA, teamB uuid.UUID) error {
	counts := match.StartersByTeam(entries)
	for _, team := range []uuid.UUID{teamA, teamB} {
		if counts[team] != StartingSlots {
			return fmt.Errorf("%w: team %s has %d", match.ErrIncompleteLineup, team, counts[team])
		}
	}
	return nil
}

type Mismatch struct {
	Slot     int            `json:"slot"`
	PlayerID uuid.UUID      `json:"player_id"`
	Slotted  match.Category `json:"slotted"`
	Rostered match.Category `json:"rostered"`
}

// Mismatches lists starters whose roster category differs from their slot's.
// Out of position picks are allowed, this only reports them.
func (e *Editor) Mismatches(side match.Side) []Mismatch {
	t := e.sheet(side)
	if t.roster == nil {
		return nil
	}
	var out []Mismatch
	for slot := 0; slot < StartingSlots; slot++ {
		id, ok := t.starting[slot]
		if !ok {
			continue
		}
		want, _ := t.formation.Category(slot)
		got, ok := t.roster.CategoryOf(id)
		if ok && got != want {
			out = append(out, Mismatch{Slot: slot, PlayerID: id, Slotted: want, Rostered: got})
		}
	}
	return out
}

// Commit persists both lineups and formations in one call. m must be freshly read.
func (e *Editor) Commit(ctx context.Context, repo match.LineupRepository, m *match.Match) ([]match.Lineup, error) {
	if m.IsLocked() {
		return nil, match.ErrMatchLocked
	}
	if m.ID != e.matchID {
		return nil, fmt.Errorf("lineup belongs to match %s, not %s: %w", e.matchID, m.ID, match.ErrValidation)
	}
	saved, err := repo.SetLineups(ctx, m.ID, e.Entries(), e.Formations())
	if err != nil {
		return nil, match.Transport(err)
	}
	return saved, nil
}
