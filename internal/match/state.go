package match

import "time"

// Phase is the lifecycle state derived from status, is_halftime and the half stamps.
type Phase string

const (
	PhaseScheduled  Phase = "scheduled"
	PhaseFirstHalf  Phase = "first_half"
	PhaseHalftime   Phase = "halftime"
	PhaseSecondHalf Phase = "second_half"
	PhaseFinished   Phase = "finished"
)

func (m *Match) Phase() Phase {
	switch m.Status {
	case StatusFinished:
		return PhaseFinished
	case StatusLive:
		if m.IsHalftime {
			return PhaseHalftime
		}
		if m.SecondHalfStart != nil {
			return PhaseSecondHalf
		}
		return PhaseFirstHalf
	}
	return PhaseScheduled
}

// IsLocked reports whether the match rejects mutation.
func (m *Match) IsLocked() bool {
	return m.Status == StatusFinished
}

// The transitions below never modify m. They return the patch to persist and
// false when the precondition does not hold, in which case nothing should be sent.

func (m *Match) Start(now time.Time) (Patch, bool) {
	if m.Status != StatusScheduled {
		return Patch{}, false
	}
	status := StatusLive
	now = now.UTC()
	return Patch{Status: &status, FirstHalfStart: &now}, true
}

// SetHalftime toggles the halftime flag of a live match. There is only one
// break, so it cannot be switched on again once the second half has started.
func (m *Match) SetHalftime(flag bool) (Patch, bool) {
	if m.Status != StatusLive || m.IsHalftime == flag {
		return Patch{}, false
	}
	if flag && m.SecondHalfStart != nil {
		return Patch{}, false
	}
	return Patch{IsHalftime: &flag}, true
}

func (m *Match) StartSecondHalf(now time.Time) (Patch, bool) {
	if m.Status != StatusLive || !m.IsHalftime || m.SecondHalfStart != nil {
		return Patch{}, false
	}
	off := false
	now = now.UTC()
	return Patch{IsHalftime: &off, SecondHalfStart: &now}, true
}

func (m *Match) Finish(now time.Time) (Patch, bool) {
	if m.Status == StatusFinished {
		return Patch{}, false
	}
	status := StatusFinished
	off := false
	now = now.UTC()
	p := Patch{Status: &status, FinishedAt: &now}
	if m.IsHalftime {
		p.IsHalftime = &off
	}
	return p, true
}
