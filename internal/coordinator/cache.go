package coordinator

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type View string

const (
	ViewMatch         View = "match"
	ViewGoals         View = "goals"
	ViewCards         View = "cards"
	ViewSubstitutions View = "substitutions"
	ViewLineups       View = "lineups"
)

// AllViews is every cached view of a match.
var AllViews = []View{ViewMatch, ViewGoals, ViewCards, ViewSubstitutions, ViewLineups}

type cacheKey struct {
	matchID uuid.UUID
	view    View
}

type cacheEntry struct {
	value any
	gen   uint64
}

// Cache keeps the last loaded value of each match view until it is invalidated.
// Concurrent loads of the same view share one call to the loader.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	gens    map[cacheKey]uint64
	fill    singleflight.Group
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[cacheKey]cacheEntry),
		gens:    make(map[cacheKey]uint64),
	}
}

// Load returns a copy of the cached view, filling it with load first when it is
// missing. The loader runs detached from ctx so one reader giving up does not
// fail the others waiting on the same fill.
func Load[T any](ctx context.Context, c *Cache, matchID uuid.UUID, view View, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	key := cacheKey{matchID: matchID, view: view}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		v, _ := e.value.(T)
		return clone(v), nil
	}
	gen := c.gens[key]
	c.mu.Unlock()

	// A load that started before an invalidation must not be joined afterwards
	flight := fmt.Sprintf("%s/%s/%d", matchID, view, gen)
	detached := context.WithoutCancel(ctx)
	ch := c.fill.DoChan(flight, func() (any, error) {
		value, err := load(detached)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gens[key] == gen {
			c.entries[key] = cacheEntry{value: value, gen: gen}
		}
		c.mu.Unlock()
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		value, _ := res.Val.(T)
		return clone(value), nil
	}
}

// clone copies the views the engine caches so callers cannot change the
// cached value. Pointer fields inside the structs are still shared.
func clone[T any](v T) T {
	var out any
	switch x := any(v).(type) {
	case *match.Match:
		if x == nil {
			return v
		}
		m := *x
		out = &m
	case []match.Goal:
		out = slices.Clone(x)
	case []match.Card:
		out = slices.Clone(x)
	case []match.Substitution:
		out = slices.Clone(x)
	case []match.Lineup:
		out = slices.Clone(x)
	default:
		return v
	}
	return out.(T)
}

// Peek returns a cached value without loading.
func (c *Cache) Peek(matchID uuid.UUID, view View) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[cacheKey{matchID: matchID, view: view}]
	return e.value, ok
}

func (c *Cache) Invalidate(matchID uuid.UUID, views ...View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, view := range views {
		key := cacheKey{matchID: matchID, view: view}
		delete(c.entries, key)
		c.gens[key]++
	}
}
