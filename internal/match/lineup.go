package match

import "github.com/google/uuid"

// Lineup is one player's place in a match: a starting slot or a bench seat.
type Lineup struct {
	ID         uuid.UUID `db:"id" json:"id"`
	MatchID    uuid.UUID `db:"match_id" json:"match_id"`
	TeamID     uuid.UUID `db:"team_id" json:"team_id"`
	PlayerID   uuid.UUID `db:"player_id" json:"player_id"`
	IsStarting bool      `db:"is_starting" json:"is_starting"`
	SlotIndex  *int      `db:"slot_index" json:"slot_index,omitempty"`
}

type Formations struct {
	A string `json:"formation_a"`
	B string `json:"formation_b"`
}

// StartersByTeam counts distinct starting players per team.
func StartersByTeam(entries []Lineup) map[uuid.UUID]int {
	seen := make(map[uuid.UUID]map[uuid.UUID]bool)
	for _, e := range entries {
		if !e.IsStarting {
			continue
		}
		if seen[e.TeamID] == nil {
			seen[e.TeamID] = make(map[uuid.UUID]bool)
		}
		seen[e.TeamID][e.PlayerID] = true
	}
	counts := make(map[uuid.UUID]int, len(seen))
	for team, players := range seen {
		counts[team] = len(players)
	}
	return counts
}
