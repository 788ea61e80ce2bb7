// Package coordinator runs state-changing match operations. Mutations of one
// match run one at a time, identical overlapping mutations run once, mutations
// of a finished match are rejected, and cached views are invalidated once a
// mutation has reached the persistence layer.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type Mutation string

const (
	MutationStart          Mutation = "start"
	MutationHalftime       Mutation = "halftime"
	MutationSecondHalf     Mutation = "second_half"
	MutationFinish         Mutation = "finish"
	MutationAddGoal        Mutation = "add_goal"
	MutationDeleteGoal     Mutation = "delete_goal"
	MutationAddCard        Mutation = "add_card"
	MutationDeleteCard     Mutation = "delete_card"
	MutationAddSub         Mutation = "add_substitution"
	MutationDeleteSub      Mutation = "delete_substitution"
	MutationLineups        Mutation = "lineups"
	MutationAdditionalTime Mutation = "additional_time"
	MutationScore          Mutation = "score"
	MutationPenalties      Mutation = "penalties"
)

// Key identifies a logical mutation. Calls with equal keys that overlap in time
// are coalesced into one. Target separates mutations of the same kind that are
// not duplicates, such as deleting two different goals.
type Key struct {
	MatchID  uuid.UUID
	Mutation Mutation
	Target   string
}

func (k Key) String() string {
	if k.Target == "" {
		return fmt.Sprintf("%s/%s", k.MatchID, k.Mutation)
	}
	return fmt.Sprintf("%s/%s/%s", k.MatchID, k.Mutation, k.Target)
}

// Notifier hears about views that changed after a mutation.
type Notifier interface {
	Invalidated(matchID uuid.UUID, views []View)
}

type Coordinator struct {
	matches   match.MatchRepository
	cache     *Cache
	inflight  singleflight.Group
	locks     *matchLocks
	notifiers []Notifier
}

func New(matches match.MatchRepository, cache *Cache, notifiers ...Notifier) *Coordinator {
	if cache == nil {
		cache = NewCache()
	}
	return &Coordinator{matches: matches, cache: cache, locks: newMatchLocks(), notifiers: notifiers}
}

func (c *Coordinator) Cache() *Cache {
	return c.cache
}

func (c *Coordinator) AddNotifier(n Notifier) {
	c.notifiers = append(c.notifiers, n)
}

// Run executes fn as the mutation identified by key and returns its result.
//
// A match already cached as finished is rejected without any call. Otherwise Run
// waits until no other mutation of the match is running, reads the match fresh
// and passes that copy to fn; a finished match is rejected with match.ErrMatchLocked. fn runs detached from ctx's
// cancellation: a caller that gives up gets ctx.Err() but the mutation still completes.
// A caller arriving while an identical mutation is in flight shares its result.
func Run[T any](ctx context.Context, c *Coordinator, key Key, views []View, fn func(ctx context.Context, m *match.Match) (T, error)) (T, error) {
	var zero T

	if cached, ok := c.cache.Peek(key.MatchID, ViewMatch); ok {
		if m, ok := cached.(*match.Match); ok && m.IsLocked() {
			slog.Warn("mutation rejected", "match_id", key.MatchID, "mutation", key.Mutation, "reason", "locked")
			return zero, match.ErrMatchLocked
		}
	}

	detached := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(key.String(), func() (any, error) {
		return c.dispatch(detached, key, views, func(ctx context.Context, m *match.Match) (any, error) {
			return fn(ctx, m)
		})
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			slog.Debug("mutation coalesced", "key", key.String())
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

func (c *Coordinator) dispatch(ctx context.Context, key Key, views []View, fn func(ctx context.Context, m *match.Match) (any, error)) (any, error) {
	unlock := c.locks.lock(key.MatchID)
	defer unlock()

	m, err := c.matches.Get(ctx, key.MatchID)
	if err != nil {
		return nil, match.Transport(err)
	}
	if m.IsLocked() {
		c.cache.Invalidate(key.MatchID, ViewMatch)
		slog.Warn("mutation rejected", "match_id", key.MatchID, "mutation", key.Mutation, "reason", "locked")
		return nil, match.ErrMatchLocked
	}

	result, err := fn(ctx, m)
	if err != nil {
		// Rejected before reaching the store, nothing to refresh
		if errors.Is(err, match.ErrValidation) {
			return nil, err
		}
		// The store saw the match finished, so the cached copy is stale
		if errors.Is(err, match.ErrMatchLocked) {
			c.cache.Invalidate(key.MatchID, ViewMatch)
			return nil, err
		}
		// The store may or may not have applied it, so drop what we have
		c.invalidate(key.MatchID, views)
		slog.Error("mutation failed", "match_id", key.MatchID, "mutation", key.Mutation, "error", err)
		return nil, err
	}

	c.invalidate(key.MatchID, views)
	return result, nil
}

func (c *Coordinator) invalidate(matchID uuid.UUID, views []View) {
	c.cache.Invalidate(matchID, views...)
	for _, n := range c.notifiers {
		n.Invalidated(matchID, views)
	}
}
