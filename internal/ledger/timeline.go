package ledger

import (
	"sort"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/google/uuid"
)

type Entry struct {
	Kind         match.EventKind     `json:"kind"`
	Minute       int                 `json:"minute"`
	TeamID       uuid.UUID           `json:"team_id"`
	Goal         *match.Goal         `json:"goal,omitempty"`
	Card         *match.Card         `json:"card,omitempty"`
	Substitution *match.Substitution `json:"substitution,omitempty"`
}

func (e Entry) event() match.Event {
	switch {
	case e.Goal != nil:
		return e.Goal
	case e.Card != nil:
		return e.Card
	default:
		return e.Substitution
	}
}

// Merge builds the match timeline from the three ledgers, ordered by minute.
// Events in the same minute keep creation order. The result is rebuilt on every
// call and never stored.
func Merge(goals []match.Goal, cards []match.Card, subs []match.Substitution) []Entry {
	entries := make([]Entry, 0, len(goals)+len(cards)+len(subs))
	for i := range goals {
		g := goals[i]
		entries = append(entries, Entry{Kind: match.KindGoal, Minute: g.Minute, TeamID: g.TeamID, Goal: &g})
	}
	for i := range cards {
		c := cards[i]
		entries = append(entries, Entry{Kind: match.KindCard, Minute: c.Minute, TeamID: c.TeamID, Card: &c})
	}
	for i := range subs {
		s := subs[i]
		entries = append(entries, Entry{Kind: match.KindSubstitution, Minute: s.Minute, TeamID: s.TeamID, Substitution: &s})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Minute != entries[j].Minute {
			return entries[i].Minute < entries[j].Minute
		}
		return entries[i].event().EventCreatedAt().Before(entries[j].event().EventCreatedAt())
	})
	return entries
}

// Tally counts goals per side. Own goals count for the opposing side.
func Tally(m *match.Match, goals []match.Goal) (scoreA, scoreB int) {
	for _, g := range goals {
		side, ok := m.SideOf(g.TeamID)
		if !ok {
			continue
		}
		if g.IsOwnGoal {
			side = side.Other()
		}
		if side == match.SideA {
			scoreA++
		} else {
			scoreB++
		}
	}
	return scoreA, scoreB
}
