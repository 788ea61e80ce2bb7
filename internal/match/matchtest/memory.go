// Package matchtest provides in-memory repositories for tests.
package matchtest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/google/uuid"
)

type Matches struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]match.Match
	order []uuid.UUID

	Gets    atomic.Int32
	Updates atomic.Int32

	// Set to make the next calls fail
	UpdateErr error
	// Runs inside Update before the patch is applied
	BeforeUpdate func()
}

func NewMatches(matches ...match.Match) *Matches {
	r := &Matches{byID: make(map[uuid.UUID]match.Match)}
	for _, m := range matches {
		r.Put(m)
	}
	return r
}

func (r *Matches) Put(m match.Match) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[m.ID]; !ok {
		r.order = append(r.order, m.ID)
	}
	r.byID[m.ID] = m
}

func (r *Matches) Get(ctx context.Context, id uuid.UUID) (*match.Match, error) {
	r.Gets.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, match.ErrNotFound)
	}
	return &m, nil
}

func (r *Matches) Update(ctx context.Context, id uuid.UUID, patch match.Patch) (*match.Match, error) {
	r.Updates.Add(1)
	if r.BeforeUpdate != nil {
		r.BeforeUpdate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return nil, r.UpdateErr
	}
	m, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, match.ErrNotFound)
	}
	m = patch.Apply(m)
	r.byID[id] = m
	return &m, nil
}

func (r *Matches) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("match %s: %w", id, match.ErrNotFound)
	}
	delete(r.byID, id)
	return nil
}

func (r *Matches) List(ctx context.Context, filter match.Filter) ([]match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []match.Match
	for _, id := range r.order {
		m, ok := r.byID[id]
		if !ok {
			continue
		}
		if filter.TournamentID != nil && m.TournamentID != *filter.TournamentID {
			continue
		}
		if filter.Stage != nil && (m.Stage == nil || *m.Stage != *filter.Stage) {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		if filter.MatchDay != nil && m.MatchDay != *filter.MatchDay {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

type Events[T match.Event] struct {
	mu    sync.Mutex
	items []T
	stamp func(T, uuid.UUID, time.Time) T

	Creates   atomic.Int32
	CreateErr error
	DeleteErr error
}

func NewGoals() *Events[match.Goal] {
	return &Events[match.Goal]{stamp: func(g match.Goal, id uuid.UUID, at time.Time) match.Goal {
		g.ID, g.CreatedAt = id, at
		return g
	}}
}

func NewCards() *Events[match.Card] {
	return &Events[match.Card]{stamp: func(c match.Card, id uuid.UUID, at time.Time) match.Card {
		c.ID, c.CreatedAt = id, at
		return c
	}}
}

func NewSubstitutions() *Events[match.Substitution] {
	return &Events[match.Substitution]{stamp: func(s match.Substitution, id uuid.UUID, at time.Time) match.Substitution {
		s.ID, s.CreatedAt = id, at
		return s
	}}
}

func (r *Events[T]) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for _, e := range r.items {
		if e.EventMatchID() == matchID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *Events[T]) Create(ctx context.Context, event T) (T, error) {
	r.Creates.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		var zero T
		return zero, r.CreateErr
	}
	// Strictly increasing stamps keep creation order observable
	at := time.Unix(0, 0).Add(time.Duration(len(r.items)+1) * time.Second)
	event = r.stamp(event, uuid.New(), at)
	r.items = append(r.items, event)
	return event, nil
}

func (r *Events[T]) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	for i, e := range r.items {
		if e.EventID() == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("event %s: %w", id, match.ErrNotFound)
}

type Lineups struct {
	mu         sync.Mutex
	byMatch    map[uuid.UUID][]match.Lineup
	Formations map[uuid.UUID]match.Formations

	SetErr error
}

func NewLineups() *Lineups {
	return &Lineups{
		byMatch:    make(map[uuid.UUID][]match.Lineup),
		Formations: make(map[uuid.UUID]match.Formations),
	}
}

func (r *Lineups) SetLineups(ctx context.Context, matchID uuid.UUID, entries []match.Lineup, formations match.Formations) ([]match.Lineup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SetErr != nil {
		return nil, r.SetErr
	}
	stored := make([]match.Lineup, len(entries))
	for i, e := range entries {
		e.ID = uuid.New()
		e.MatchID = matchID
		stored[i] = e
	}
	r.byMatch[matchID] = stored
	r.Formations[matchID] = formations
	return stored, nil
}

func (r *Lineups) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]match.Lineup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]match.Lineup(nil), r.byMatch[matchID]...), nil
}

type Teams map[uuid.UUID]match.Team

func (t Teams) GetTeam(ctx context.Context, id uuid.UUID) (*match.Team, error) {
	team, ok := t[id]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, match.ErrNotFound)
	}
	return &team, nil
}

type Tournaments map[uuid.UUID]match.Tournament

func (t Tournaments) GetTournament(ctx context.Context, id uuid.UUID) (*match.Tournament, error) {
	tournament, ok := t[id]
	if !ok {
		return nil, fmt.Errorf("tournament %s: %w", id, match.ErrNotFound)
	}
	return &tournament, nil
}

// Squad builds an 18 player roster: 2 goalkeepers, 6 defenders, 6 midfielders and 4 forwards.
func Squad(teamID uuid.UUID) []match.Player {
	counts := []struct {
		cat match.Category
		n   int
	}{
		{match.CategoryGoalkeeper, 2},
		{match.CategoryDefender, 6},
		{match.CategoryMidfielder, 6},
		{match.CategoryForward, 4},
	}
	var players []match.Player
	for _, c := range counts {
		for i := 0; i < c.n; i++ {
			players = append(players, match.Player{
				ID:       uuid.New(),
				TeamID:   teamID,
				Name:     fmt.Sprintf("%s %d", c.cat, i+1),
				Category: c.cat,
			})
		}
	}
	return players
}
