package match

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryGoalkeeper Category = "goalkeeper"
	CategoryDefender   Category = "defender"
	CategoryMidfielder Category = "midfielder"
	CategoryForward    Category = "forward"
)

type Player struct {
	ID     uuid.UUID `db:"id" json:"id"`
	TeamID uuid.UUID `db:"team_id" json:"team_id"`
	Name   string    `db:"name" json:"name"`
	Number *int      `db:"number" json:"number,omitempty"`
	// Broad position, used to group the roster
	Category Category `db:"category" json:"category"`
}

// Roster is a team's squad partitioned by position category.
type Roster struct {
	Goalkeepers []Player `json:"goalkeepers"`
	Defenders   []Player `json:"defenders"`
	Midfielders []Player `json:"midfielders"`
	Forwards    []Player `json:"forwards"`
}

func NewRoster(players []Player) Roster {
	var r Roster
	for _, p := range players {
		switch p.Category {
		case CategoryGoalkeeper:
			r.Goalkeepers = append(r.Goalkeepers, p)
		case CategoryDefender:
			r.Defenders = append(r.Defenders, p)
		case CategoryMidfielder:
			r.Midfielders = append(r.Midfielders, p)
		case CategoryForward:
			r.Forwards = append(r.Forwards, p)
		}
	}
	return r
}

func (r Roster) CategoryOf(playerID uuid.UUID) (Category, bool) {
	groups := []struct {
		cat     Category
		players []Player
	}{
		{CategoryGoalkeeper, r.Goalkeepers},
		{CategoryDefender, r.Defenders},
		{CategoryMidfielder, r.Midfielders},
		{CategoryForward, r.Forwards},
	}
	for _, g := range groups {
		for _, p := range g.players {
			if p.ID == playerID {
				return g.cat, true
			}
		}
	}
	return "", false
}

func (r Roster) Size() int {
	return len(r.Goalkeepers) + len(r.Defenders) + len(r.Midfielders) + len(r.Forwards)
}

type Team struct {
	ID      uuid.UUID `db:"id" json:"id"`
	Name    string    `db:"name" json:"name"`
	LogoURL *string   `db:"logo_url" json:"logo_url,omitempty"`
	Roster  Roster    `db:"-" json:"roster"`
}

type Tournament struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
	// Knockout ties are played over two legs
	TwoLegged bool      `db:"two_legged" json:"two_legged"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
