package match

import (
	"context"

	"github.com/google/uuid"
)

// The interfaces below are the persistence collaborators the engine consumes.
// internal/store provides the SQL implementations.

type MatchRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*Match, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*Match, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter Filter) ([]Match, error)
}

type EventRepository[T Event] interface {
	ListByMatch(ctx context.Context, matchID uuid.UUID) ([]T, error)
	Create(ctx context.Context, event T) (T, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type LineupRepository interface {
	SetLineups(ctx context.Context, matchID uuid.UUID, entries []Lineup, formations Formations) ([]Lineup, error)
	ListByMatch(ctx context.Context, matchID uuid.UUID) ([]Lineup, error)
}

type TeamReader interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*Team, error)
}

type TournamentReader interface {
	GetTournament(ctx context.Context, id uuid.UUID) (*Tournament, error)
}
