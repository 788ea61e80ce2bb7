// Package clock derives the running match clock from stored half stamps.
//
// Nothing here keeps state between calls: the label is a function of the
// match record and the wall-clock time passed in, so a periodic tick can
// simply call Display again.
package clock

import (
	"fmt"
	"time"

	"github.com/AdamBeresnev/matchday/internal/match"
)

const Halftime = "HT"

// Display returns the clock label for a live match, e.g. "23'", "45+", "HT", "55'" or "90+".
// ok is false when the match is not live.
//
// First half minutes are 1-indexed (kickoff shows 1'). Second half minutes count
// on from the half mark (restart shows 45'). A half that runs past its regulation
// length plus the configured added time shows the half mark with a plus sign.
func Display(m *match.Match, now time.Time) (label string, ok bool) {
	if m == nil || m.Status != match.StatusLive {
		return "", false
	}
	if m.IsHalftime {
		return Halftime, true
	}

	total := m.RegulationMinutes()
	half := total / 2

	switch {
	case m.SecondHalfStart != nil:
		minute := half + elapsedMinutes(*m.SecondHalfStart, now)
		if minute > total+nonNegative(m.AdditionalTimeSecondHalf) {
			return fmt.Sprintf("%d+", total), true
		}
		return minuteLabel(minute), true
	case m.FirstHalfStart != nil:
		minute := elapsedMinutes(*m.FirstHalfStart, now) + 1
		if minute > half+nonNegative(m.AdditionalTimeFirstHalf) {
			return fmt.Sprintf("%d+", half), true
		}
		return minuteLabel(minute), true
	}
	// Live without a kickoff stamp. Should not happen, but the clock still has to show something.
	return minuteLabel(1), true
}

// Minute is the uncapped running minute, used to seed the minute of a new event.
// It is 0 when the match is not live and the half mark during halftime.
func Minute(m *match.Match, now time.Time) int {
	if m == nil || m.Status != match.StatusLive {
		return 0
	}
	half := m.RegulationMinutes() / 2
	switch {
	case m.IsHalftime:
		return half
	case m.SecondHalfStart != nil:
		return half + elapsedMinutes(*m.SecondHalfStart, now)
	case m.FirstHalfStart != nil:
		return elapsedMinutes(*m.FirstHalfStart, now) + 1
	}
	return 1
}

// elapsedMinutes is floor((now - since) / 1m), clamped at zero for clock skew.
func elapsedMinutes(since, now time.Time) int {
	d := now.Sub(since)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

func minuteLabel(minute int) string {
	return fmt.Sprintf("%d'", minute)
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
