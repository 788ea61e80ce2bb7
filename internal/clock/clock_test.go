package clock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/AdamBeresnev/matchday/internal/utils"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 5, 17, 16, 30, 0, 0, time.UTC)

func liveMatch() *match.Match {
	return &match.Match{Status: match.StatusLive, TotalTime: 90}
}

func ago(d time.Duration) *time.Time {
	return utils.Ptr(now.Add(-d))
}

func TestDisplayNotLive(t *testing.T) {
	for _, status := range []match.Status{match.StatusScheduled, match.StatusFinished} {
		m := &match.Match{Status: status, FirstHalfStart: ago(10 * time.Minute), IsHalftime: true}
		label, ok := Display(m, now)
		assert.False(t, ok, status)
		assert.Empty(t, label)
	}
	_, ok := Display(nil, now)
	assert.False(t, ok)
}

func TestDisplayHalftimeIgnoresStamps(t *testing.T) {
	m := liveMatch()
	m.IsHalftime = true
	m.FirstHalfStart = ago(200 * time.Minute)
	m.SecondHalfStart = ago(5 * time.Minute)

	label, ok := Display(m, now)
	assert.True(t, ok)
	assert.Equal(t, "HT", label)
}

func TestDisplayFirstHalf(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		added   int
		want    string
	}{
		{"kickoff", 0, 0, "1'"},
		{"just under a minute", 59 * time.Second, 0, "1'"},
		{"one minute", time.Minute, 0, "2'"},
		{"last regulation minute", 44*time.Minute + 59*time.Second, 0, "45'"},
		{"into stoppage without added time", 45 * time.Minute, 0, "45+"},
		{"well past the half", 50 * time.Minute, 0, "45+"},
		{"inside added time", 46 * time.Minute, 2, "47'"},
		{"last added minute", 46*time.Minute + 30*time.Second, 2, "47'"},
		{"past added time", 47 * time.Minute, 2, "45+"},
		{"clock skew", -time.Minute, 0, "1'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := liveMatch()
			m.FirstHalfStart = ago(tt.elapsed)
			m.AdditionalTimeFirstHalf = tt.added

			label, ok := Display(m, now)
			assert.True(t, ok)
			assert.Equal(t, tt.want, label)
		})
	}
}

func TestDisplaySecondHalf(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		added   int
		want    string
	}{
		{"restart", 0, 0, "45'"},
		{"ten minutes in", 10 * time.Minute, 0, "55'"},
		{"ninety", 45 * time.Minute, 0, "90'"},
		{"past ninety", 46 * time.Minute, 0, "90+"},
		{"inside added time", 48 * time.Minute, 3, "93'"},
		{"past added time", 49 * time.Minute, 3, "90+"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := liveMatch()
			m.FirstHalfStart = ago(2 * time.Hour)
			m.SecondHalfStart = ago(tt.elapsed)
			m.AdditionalTimeSecondHalf = tt.added

			label, ok := Display(m, now)
			assert.True(t, ok)
			assert.Equal(t, tt.want, label)
		})
	}
}

func TestDisplayShortFormat(t *testing.T) {
	m := &match.Match{Status: match.StatusLive, TotalTime: 60, FirstHalfStart: ago(31 * time.Minute)}
	label, _ := Display(m, now)
	assert.Equal(t, "30+", label)

	m.SecondHalfStart = ago(31 * time.Minute)
	label, _ = Display(m, now)
	assert.Equal(t, "60+", label)
}

func TestDisplayLiveWithoutStamps(t *testing.T) {
	label, ok := Display(liveMatch(), now)
	assert.True(t, ok)
	assert.Equal(t, "1'", label)
}

func TestMinute(t *testing.T) {
	m := liveMatch()
	assert.Equal(t, 1, Minute(m, now))

	m.FirstHalfStart = ago(47 * time.Minute)
	assert.Equal(t, 48, Minute(m, now), "minute is not capped")

	m.IsHalftime = true
	assert.Equal(t, 45, Minute(m, now))

	m.IsHalftime = false
	m.SecondHalfStart = ago(10 * time.Minute)
	assert.Equal(t, 55, Minute(m, now))

	m.Status = match.StatusFinished
	assert.Equal(t, 0, Minute(m, now))
}

func TestSchedulerTickRunsEveryJob(t *testing.T) {
	var calls []time.Time
	s := NewScheduler(time.Second,
		func(ctx context.Context, at time.Time) error {
			calls = append(calls, at)
			return errors.New("boom")
		},
		func(ctx context.Context, at time.Time) error {
			calls = append(calls, at)
			return nil
		},
	)
	s.now = func() time.Time { return now }

	failed := s.Tick(context.Background())
	assert.Equal(t, 1, failed)
	assert.Equal(t, []time.Time{now, now}, calls)
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan struct{}, 10)
	s := NewScheduler(5*time.Millisecond, func(ctx context.Context, _ time.Time) error {
		ticks <- struct{}{}
		return nil
	})

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	<-ticks
	<-ticks
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
