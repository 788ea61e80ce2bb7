// Package ledger keeps the goals, cards and substitutions recorded against a match.
package ledger

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/google/uuid"
)

// Ledger is one append/delete collection of match events. Events are never
// edited in place; a correction is a delete followed by a new Add.
type Ledger[T match.Event] struct {
	matches  match.MatchRepository
	repo     match.EventRepository[T]
	bind     func(event T, matchID uuid.UUID) T
	validate func(m *match.Match, event T) error
}

func NewGoals(matches match.MatchRepository, repo match.EventRepository[match.Goal]) *Ledger[match.Goal] {
	return &Ledger[match.Goal]{
		matches: matches,
		repo:    repo,
		bind: func(g match.Goal, matchID uuid.UUID) match.Goal {
			g.MatchID = matchID
			return g
		},
		validate: ValidateGoal,
	}
}

func NewCards(matches match.MatchRepository, repo match.EventRepository[match.Card]) *Ledger[match.Card] {
	return &Ledger[match.Card]{
		matches: matches,
		repo:    repo,
		bind: func(c match.Card, matchID uuid.UUID) match.Card {
			c.MatchID = matchID
			return c
		},
		validate: ValidateCard,
	}
}

func NewSubstitutions(matches match.MatchRepository, repo match.EventRepository[match.Substitution]) *Ledger[match.Substitution] {
	return &Ledger[match.Substitution]{
		matches: matches,
		repo:    repo,
		bind: func(s match.Substitution, matchID uuid.UUID) match.Substitution {
			s.MatchID = matchID
			return s
		},
		validate: ValidateSubstitution,
	}
}

func (l *Ledger[T]) List(ctx context.Context, matchID uuid.UUID) ([]T, error) {
	events, err := l.repo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, match.Transport(err)
	}
	if events == nil {
		return []T{}, nil
	}
	return events, nil
}

// Add reads the match and records event against it.
func (l *Ledger[T]) Add(ctx context.Context, matchID uuid.UUID, event T) (T, error) {
	var zero T
	if event.EventMinute() <= 0 {
		return zero, match.ErrInvalidMinute
	}
	m, err := l.matches.Get(ctx, matchID)
	if err != nil {
		return zero, match.Transport(err)
	}
	return l.AddTo(ctx, m, event)
}

// AddTo records event against m, which the caller must have read just before.
// The minute is only checked for being positive; a minute ahead of the running
// clock is accepted so officials can enter corrections.
func (l *Ledger[T]) AddTo(ctx context.Context, m *match.Match, event T) (T, error) {
	var zero T
	if event.EventMinute() <= 0 {
		return zero, match.ErrInvalidMinute
	}
	if m.IsLocked() {
		return zero, match.ErrMatchLocked
	}
	event = l.bind(event, m.ID)
	if err := l.validate(m, event); err != nil {
		return zero, err
	}

	created, err := l.repo.Create(ctx, event)
	if err != nil {
		return zero, match.Transport(err)
	}
	return created, nil
}

// Delete reads the match and removes one of its events.
func (l *Ledger[T]) Delete(ctx context.Context, matchID, eventID uuid.UUID) error {
	m, err := l.matches.Get(ctx, matchID)
	if err != nil {
		return match.Transport(err)
	}
	return l.DeleteFrom(ctx, m, eventID)
}

func (l *Ledger[T]) DeleteFrom(ctx context.Context, m *match.Match, eventID uuid.UUID) error {
	if m.IsLocked() {
		return match.ErrMatchLocked
	}

	events, err := l.repo.ListByMatch(ctx, m.ID)
	if err != nil {
		return match.Transport(err)
	}
	owned := false
	for _, e := range events {
		if e.EventID() == eventID {
			owned = true
			break
		}
	}
	if !owned {
		return fmt.Errorf("event %s in match %s: %w", eventID, m.ID, match.ErrNotFound)
	}

	if err := l.repo.Delete(ctx, eventID); err != nil {
		return match.Transport(err)
	}
	return nil
}
