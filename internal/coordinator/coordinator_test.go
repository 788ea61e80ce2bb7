package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/AdamBeresnev/matchday/internal/match/matchtest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]View
}

func (r *recorder) Invalidated(matchID uuid.UUID, views []View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, views)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newLive() match.Match {
	return match.Match{ID: uuid.New(), TeamAID: uuid.New(), TeamBID: uuid.New(), Status: match.StatusLive}
}

func cacheMatch(t *testing.T, c *Cache, m match.Match) {
	t.Helper()
	_, err := Load(context.Background(), c, m.ID, ViewMatch, func(context.Context) (*match.Match, error) {
		return &m, nil
	})
	require.NoError(t, err)
}

func TestRunRejectsLockedMatch(t *testing.T) {
	m := newLive()
	m.Status = match.StatusFinished
	matches := matchtest.NewMatches(m)
	c := New(matches, nil)

	called := false
	_, err := Run(context.Background(), c, Key{MatchID: m.ID, Mutation: MutationAddGoal}, []View{ViewGoals},
		func(ctx context.Context, m *match.Match) (int, error) {
			called = true
			return 0, nil
		})
	assert.ErrorIs(t, err, match.ErrMatchLocked)
	assert.False(t, called)
	assert.EqualValues(t, 0, matches.Updates.Load())
}

func TestRunShortCircuitsOnCachedLock(t *testing.T) {
	m := newLive()
	m.Status = match.StatusFinished
	matches := matchtest.NewMatches(m)
	c := New(matches, nil)
	cacheMatch(t, c.Cache(), m)

	_, err := Run(context.Background(), c, Key{MatchID: m.ID, Mutation: MutationFinish}, nil,
		func(ctx context.Context, m *match.Match) (int, error) { return 0, nil })
	assert.ErrorIs(t, err, match.ErrMatchLocked)
	assert.EqualValues(t, 0, matches.Gets.Load(), "no round trip when the cache already shows the lock")
}

func TestRunRereadsLockBeforeActing(t *testing.T) {
	m := newLive()
	matches := matchtest.NewMatches(m)
	c := New(matches, nil)
	cacheMatch(t, c.Cache(), m)

	// Finished elsewhere after we cached it as live
	finished := m
	finished.Status = match.StatusFinished
	matches.Put(finished)

	_, err := Run(context.Background(), c, Key{MatchID: m.ID, Mutation: MutationAddCard}, nil,
		func(ctx context.Context, m *match.Match) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, match.ErrMatchLocked)
	_, cached := c.Cache().Peek(m.ID, ViewMatch)
	assert.False(t, cached, "stale match view dropped")
}

func TestRunCoalescesIdenticalMutations(t *testing.T) {
	m := newLive()
	c := New(matchtest.NewMatches(m), nil)
	key := Key{MatchID: m.ID, Mutation: MutationStart}

	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	var runs atomic.Int32
	fn := func(ctx context.Context, m *match.Match) (string, error) {
		runs.Add(1)
		entered <- struct{}{}
		<-release
		return "started", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 2)
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = Run(context.Background(), c, key, []View{ViewMatch}, fn)
	}()
	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = Run(context.Background(), c, key, []View{ViewMatch}, fn)
	}()
	// Give the second caller time to join the flight
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, []string{"started", "started"}, results)
	assert.EqualValues(t, 1, runs.Load())
}

func TestRunDoesNotCoalesceDifferentTargets(t *testing.T) {
	m := newLive()
	c := New(matchtest.NewMatches(m), nil)

	var runs atomic.Int32
	fn := func(ctx context.Context, m *match.Match) (int, error) {
		return int(runs.Add(1)), nil
	}
	_, err := Run(context.Background(), c, Key{MatchID: m.ID, Mutation: MutationDeleteGoal, Target: "a"}, nil, fn)
	require.NoError(t, err)
	_, err = Run(context.Background(), c, Key{MatchID: m.ID, Mutation: MutationDeleteGoal, Target: "b"}, nil, fn)
	require.NoError(t, err)
	assert.EqualValues(t, 2, runs.Load())
}

func TestRunInvalidatesAfterSuccess(t *testing.T) {
	m := newLive()
	rec := &recorder{}
	c := New(matchtest.NewMatches(m), nil, rec)
	cacheMatch(t, c.Cache(), m)

	_, err := Run(context.Background(), c, Key{MatchID: m.ID, Mutation: MutationHalftime}, []View{ViewMatch},
		func(ctx context.Context, m *match.Match) (bool, error) { return true, nil })
	require.NoError(t, err)

	_, cached := c.Cache().Peek(m.ID, ViewMatch)
	assert.False(t, cached)
	assert.Equal(t, 1, rec.count())
}

func TestRunKeepsCacheOnValidationError(t *testing.T) {
	m := newLive()
	rec := &recorder{}
	c := New(matchtest.NewMatches(m), nil, rec)
	cacheMatch(t, c.Cache(), m)

	_, err := Run(context.Background(), c, Key{MatchID: m.ID, Mutation: MutationAddGoal}, []View{ViewMatch},
		func(ctx context.Context, m *match.Match) (int, error) { return 0, match.ErrInvalidMinute })
	assert.ErrorIs(t, err, match.ErrInvalidMinute)

	_, cached := c.Cache().Peek(m.ID, ViewMatch)
	assert.True(t, cached)
	assert.Zero(t, rec.count())
}

func TestRunSurfacesTransportErrors(t *testing.T) {
	m := newLive()
	c := New(matchtest.NewMatches(m), nil)
	cause := match.Transport(errors.New("502 bad gateway"))

	_, err := Run(context.Background(), c, Key{MatchID: m.ID, Mutation: MutationFinish}, []View{ViewMatch},
		func(ctx context.Context, m *match.Match) (int, error) { return 0, cause })
	assert.ErrorIs(t, err, match.ErrTransport)

	_, err = Run(context.Background(), c, Key{MatchID: uuid.New(), Mutation: MutationFinish}, nil,
		func(ctx context.Context, m *match.Match) (int, error) { return 0, nil })
	assert.ErrorIs(t, err, match.ErrNotFound)
}

func TestRunCompletesAfterCallerGivesUp(t *testing.T) {
	m := newLive()
	c := New(matchtest.NewMatches(m), nil)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan error, 1)

	go func() {
		_, err := Run(ctx, c, Key{MatchID: m.ID, Mutation: MutationLineups}, nil,
			func(ctx context.Context, m *match.Match) (int, error) {
				close(started)
				<-release
				finished <- ctx.Err()
				return 1, nil
			})
		assert.ErrorIs(t, err, context.Canceled)
	}()

	<-started
	cancel()
	time.Sleep(10 * time.Millisecond)
	close(release)

	select {
	case err := <-finished:
		assert.NoError(t, err, "the mutation context is not cancelled with the caller")
	case <-time.After(time.Second):
		t.Fatal("mutation did not complete")
	}
}

func TestRunSerializesMutationsOfOneMatch(t *testing.T) {
	m := newLive()
	matches := matchtest.NewMatches(m)
	c := New(matches, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	goalDone := make(chan error, 1)
	go func() {
		_, err := Run(context.Background(), c, Key{MatchID: m.ID, Mutation: MutationAddGoal, Target: "9"}, nil,
			func(ctx context.Context, m *match.Match) (int, error) {
				close(entered)
				<-release
				return 1, nil
			})
		goalDone <- err
	}()
	<-entered

	finishDone := make(chan *match.Match, 1)
	go func() {
		finished, err := Run(context.Background(), c, Key{MatchID: m.ID, Mutation: MutationFinish}, nil,
			func(ctx context.Context, m *match.Match) (*match.Match, error) {
				patch, _ := m.Finish(time.Now())
				return matches.Update(ctx, m.ID, patch)
			})
		assert.NoError(t, err)
		finishDone <- finished
	}()

	select {
	case <-finishDone:
		t.Fatal("finish ran while another mutation of the match was in flight")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-goalDone)
	finished := <-finishDone
	assert.Equal(t, match.StatusFinished, finished.Status)
	assert.Zero(t, c.locks.len(), "released locks are dropped")

	// Anything queued behind the finish now sees the lock
	_, err := Run(context.Background(), c, Key{MatchID: m.ID, Mutation: MutationAddGoal, Target: "10"}, nil,
		func(ctx context.Context, m *match.Match) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, match.ErrMatchLocked)
}

func TestRunDoesNotBlockOtherMatches(t *testing.T) {
	first, second := newLive(), newLive()
	c := New(matchtest.NewMatches(first, second), nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	go func() {
		_, _ = Run(context.Background(), c, Key{MatchID: first.ID, Mutation: MutationLineups}, nil,
			func(ctx context.Context, m *match.Match) (int, error) {
				close(entered)
				<-release
				return 1, nil
			})
	}()
	<-entered

	v, err := Run(context.Background(), c, Key{MatchID: second.ID, Mutation: MutationLineups}, nil,
		func(ctx context.Context, m *match.Match) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestRunDropsMatchViewWhenStoreReportsLock(t *testing.T) {
	m := newLive()
	rec := &recorder{}
	c := New(matchtest.NewMatches(m), nil, rec)
	cacheMatch(t, c.Cache(), m)

	_, err := Run(context.Background(), c, Key{MatchID: m.ID, Mutation: MutationAddCard}, []View{ViewCards},
		func(ctx context.Context, m *match.Match) (int, error) {
			return 0, fmt.Errorf("match %s: %w", m.ID, match.ErrMatchLocked)
		})
	assert.ErrorIs(t, err, match.ErrMatchLocked)
	_, cached := c.Cache().Peek(m.ID, ViewMatch)
	assert.False(t, cached)
	assert.Zero(t, rec.count())
}
