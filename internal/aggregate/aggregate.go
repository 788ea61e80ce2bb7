// Package aggregate computes two-legged knockout tie scores.
package aggregate

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/AdamBeresnev/matchday/internal/utils"
	"github.com/google/uuid"
)

// Aggregate is the combined score of a tie, oriented to the match it was resolved for:
// TeamA and TeamB are that match's team A and team B.
type Aggregate struct {
	TeamA  uuid.UUID `json:"team_a_id"`
	TeamB  uuid.UUID `json:"team_b_id"`
	ScoreA int       `json:"score_a"`
	ScoreB int       `json:"score_b"`

	LegID     uuid.UUID `json:"leg_id"`
	SiblingID uuid.UUID `json:"sibling_id"`
	// Set when both legs are finished
	Complete bool `json:"complete"`
}

// Leader returns the team ahead on aggregate, false when level.
func (a Aggregate) Leader() (uuid.UUID, bool) {
	switch {
	case a.ScoreA > a.ScoreB:
		return a.TeamA, true
	case a.ScoreB > a.ScoreA:
		return a.TeamB, true
	}
	return uuid.Nil, false
}

type Resolver struct {
	matches     match.MatchRepository
	tournaments match.TournamentReader
}

func NewResolver(matches match.MatchRepository, tournaments match.TournamentReader) *Resolver {
	return &Resolver{matches: matches, tournaments: tournaments}
}

// Resolve returns nil without error when the match is not part of a two-legged tie
// or its other leg does not exist.
func (r *Resolver) Resolve(ctx context.Context, m *match.Match) (*Aggregate, error) {
	if !m.IsKnockout() {
		return nil, nil
	}

	tournament, err := r.tournaments.GetTournament(ctx, m.TournamentID)
	if err != nil {
		if errors.Is(err, match.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tournament: %w", match.Transport(err))
	}
	if !tournament.TwoLegged {
		return nil, nil
	}

	tournamentID := m.TournamentID
	candidates, err := r.matches.List(ctx, match.Filter{TournamentID: &tournamentID, Stage: m.Stage})
	if err != nil {
		return nil, fmt.Errorf("failed to list stage matches: %w", match.Transport(err))
	}

	sibling := FindSibling(m, candidates)
	if sibling == nil {
		return nil, nil
	}
	agg := Combine(m, sibling)
	return &agg, nil
}

// FindSibling picks the other leg of m's tie among candidates: a different match
// of the same tournament and stage between the same two teams, in either orientation.
func FindSibling(m *match.Match, candidates []match.Match) *match.Match {
	if !m.IsKnockout() {
		return nil
	}
	for i := range candidates {
		c := &candidates[i]
		if c.ID == m.ID || c.TournamentID != m.TournamentID || !utils.SameString(c.Stage, m.Stage) {
			continue
		}
		reversed := c.TeamAID == m.TeamBID && c.TeamBID == m.TeamAID
		same := c.TeamAID == m.TeamAID && c.TeamBID == m.TeamBID
		if reversed || same {
			return c
		}
	}
	return nil
}

// Combine adds up both legs by team identity, whichever side each team played on.
func Combine(leg, sibling *match.Match) Aggregate {
	return Aggregate{
		TeamA:     leg.TeamAID,
		TeamB:     leg.TeamBID,
		ScoreA:    leg.ScoreFor(leg.TeamAID) + sibling.ScoreFor(leg.TeamAID),
		ScoreB:    leg.ScoreFor(leg.TeamBID) + sibling.ScoreFor(leg.TeamBID),
		LegID:     leg.ID,
		SiblingID: sibling.ID,
		Complete:  leg.Status == match.StatusFinished && sibling.Status == match.StatusFinished,
	}
}
