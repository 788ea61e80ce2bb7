package ledger

import (
	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/google/uuid"
)

func ValidateGoal(m *match.Match, g match.Goal) error {
	if !m.HasTeam(g.TeamID) {
		return match.ErrTeamNotInMatch
	}
	if g.ScorerID == uuid.Nil {
		return match.ErrMissingPlayer
	}
	if g.AssistantID != nil && *g.AssistantID == g.ScorerID {
		return match.ErrSamePlayer
	}
	return nil
}

func ValidateCard(m *match.Match, c match.Card) error {
	if !m.HasTeam(c.TeamID) {
		return match.ErrTeamNotInMatch
	}
	if c.PlayerID == uuid.Nil {
		return match.ErrMissingPlayer
	}
	if !c.Color.Valid() {
		return match.ErrInvalidCardColor
	}
	return nil
}

func ValidateSubstitution(m *match.Match, s match.Substitution) error {
	if !m.HasTeam(s.TeamID) {
		return match.ErrTeamNotInMatch
	}
	if s.PlayerInID == uuid.Nil || s.PlayerOutID == uuid.Nil {
		return match.ErrMissingPlayer
	}
	if s.PlayerInID == s.PlayerOutID {
		return match.ErrSamePlayer
	}
	return nil
}
