package match

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	KindGoal         EventKind = "goal"
	KindCard         EventKind = "card"
	KindSubstitution EventKind = "substitution"
)

// Event is implemented by every record kept in a match ledger.
type Event interface {
	EventID() uuid.UUID
	EventMatchID() uuid.UUID
	EventTeamID() uuid.UUID
	EventMinute() int
	EventCreatedAt() time.Time
	Kind() EventKind
}

type Goal struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	MatchID     uuid.UUID  `db:"match_id" json:"match_id"`
	TeamID      uuid.UUID  `db:"team_id" json:"team_id"`
	Minute      int        `db:"minute" json:"minute"`
	ScorerID    uuid.UUID  `db:"scorer_id" json:"scorer_id"`
	AssistantID *uuid.UUID `db:"assistant_id" json:"assistant_id,omitempty"`
	// TeamID is the scorer's team. An own goal counts for the other side.
	IsOwnGoal bool      `db:"is_own_goal" json:"is_own_goal"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (g Goal) EventID() uuid.UUID        { return g.ID }
func (g Goal) EventMatchID() uuid.UUID   { return g.MatchID }
func (g Goal) EventTeamID() uuid.UUID    { return g.TeamID }
func (g Goal) EventMinute() int          { return g.Minute }
func (g Goal) EventCreatedAt() time.Time { return g.CreatedAt }
func (g Goal) Kind() EventKind           { return KindGoal }

type CardColor string

const (
	CardYellow CardColor = "yellow"
	CardRed    CardColor = "red"
)

func (c CardColor) Valid() bool {
	return c == CardYellow || c == CardRed
}

type Card struct {
	ID        uuid.UUID `db:"id" json:"id"`
	MatchID   uuid.UUID `db:"match_id" json:"match_id"`
	TeamID    uuid.UUID `db:"team_id" json:"team_id"`
	Minute    int       `db:"minute" json:"minute"`
	PlayerID  uuid.UUID `db:"player_id" json:"player_id"`
	Color     CardColor `db:"color" json:"color"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (c Card) EventID() uuid.UUID        { return c.ID }
func (c Card) EventMatchID() uuid.UUID   { return c.MatchID }
func (c Card) EventTeamID() uuid.UUID    { return c.TeamID }
func (c Card) EventMinute() int          { return c.Minute }
func (c Card) EventCreatedAt() time.Time { return c.CreatedAt }
func (c Card) Kind() EventKind           { return KindCard }

type Substitution struct {
	ID          uuid.UUID `db:"id" json:"id"`
	MatchID     uuid.UUID `db:"match_id" json:"match_id"`
	TeamID      uuid.UUID `db:"team_id" json:"team_id"`
	Minute      int       `db:"minute" json:"minute"`
	PlayerInID  uuid.UUID `db:"player_in_id" json:"player_in_id"`
	PlayerOutID uuid.UUID `db:"player_out_id" json:"player_out_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func (s Substitution) EventID() uuid.UUID        { return s.ID }
func (s Substitution) EventMatchID() uuid.UUID   { return s.MatchID }
func (s Substitution) EventTeamID() uuid.UUID    { return s.TeamID }
func (s Substitution) EventMinute() int          { return s.Minute }
func (s Substitution) EventCreatedAt() time.Time { return s.CreatedAt }
func (s Substitution) Kind() EventKind           { return KindSubstitution }
