package match

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusFinished  Status = "finished"
)

// DefaultTotalTime is the regulation length in minutes used when a match has none configured.
const DefaultTotalTime = 90

type Side int

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideA {
		return "a"
	}
	return "b"
}

func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`

	TeamAID uuid.UUID `db:"team_a_id" json:"team_a_id"`
	TeamBID uuid.UUID `db:"team_b_id" json:"team_b_id"`

	ScoreA int `db:"score_a" json:"score_a"`
	ScoreB int `db:"score_b" json:"score_b"`

	// Only meaningful for knockout stages that ended level
	PenaltyScoreA int `db:"penalty_score_a" json:"penalty_score_a"`
	PenaltyScoreB int `db:"penalty_score_b" json:"penalty_score_b"`

	Status     Status `db:"status" json:"status"`
	IsHalftime bool   `db:"is_halftime" json:"is_halftime"`

	FirstHalfStart  *time.Time `db:"first_half_start" json:"first_half_start,omitempty"`
	SecondHalfStart *time.Time `db:"second_half_start" json:"second_half_start,omitempty"`
	FinishedAt      *time.Time `db:"finished_at" json:"finished_at,omitempty"`

	TotalTime                int `db:"total_time" json:"total_time"`
	AdditionalTimeFirstHalf  int `db:"additional_time_first_half" json:"additional_time_first_half"`
	AdditionalTimeSecondHalf int `db:"additional_time_second_half" json:"additional_time_second_half"`

	MatchDay   int     `db:"match_day" json:"match_day"`
	Stage      *string `db:"stage" json:"stage,omitempty"`
	FormationA *string `db:"formation_a" json:"formation_a,omitempty"`
	FormationB *string `db:"formation_b" json:"formation_b,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RegulationMinutes falls back to DefaultTotalTime for unset or broken configuration.
func (m *Match) RegulationMinutes() int {
	if m.TotalTime <= 0 {
		return DefaultTotalTime
	}
	return m.TotalTime
}

func (m *Match) HasTeam(teamID uuid.UUID) bool {
	return teamID == m.TeamAID || teamID == m.TeamBID
}

func (m *Match) SideOf(teamID uuid.UUID) (Side, bool) {
	switch teamID {
	case m.TeamAID:
		return SideA, true
	case m.TeamBID:
		return SideB, true
	}
	return SideA, false
}

func (m *Match) TeamID(side Side) uuid.UUID {
	if side == SideA {
		return m.TeamAID
	}
	return m.TeamBID
}

// ScoreFor returns the goals scored by teamID in this match, whichever side it played on.
func (m *Match) ScoreFor(teamID uuid.UUID) int {
	switch teamID {
	case m.TeamAID:
		return m.ScoreA
	case m.TeamBID:
		return m.ScoreB
	}
	return 0
}

func (m *Match) IsKnockout() bool {
	return m.Stage != nil && *m.Stage != ""
}

func (m *Match) IsLevel() bool {
	return m.ScoreA == m.ScoreB
}

// Patch holds the fields to change on a match. Nil fields are left untouched.
type Patch struct {
	Status          *Status    `json:"status,omitempty"`
	IsHalftime      *bool      `json:"is_halftime,omitempty"`
	FirstHalfStart  *time.Time `json:"first_half_start,omitempty"`
	SecondHalfStart *time.Time `json:"second_half_start,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`

	ScoreA        *int `json:"score_a,omitempty"`
	ScoreB        *int `json:"score_b,omitempty"`
	PenaltyScoreA *int `json:"penalty_score_a,omitempty"`
	PenaltyScoreB *int `json:"penalty_score_b,omitempty"`

	AdditionalTimeFirstHalf  *int `json:"additional_time_first_half,omitempty"`
	AdditionalTimeSecondHalf *int `json:"additional_time_second_half,omitempty"`

	FormationA *string `json:"formation_a,omitempty"`
	FormationB *string `json:"formation_b,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Apply returns a copy of m with the patch applied.
func (p Patch) Apply(m Match) Match {
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.IsHalftime != nil {
		m.IsHalftime = *p.IsHalftime
	}
	if p.FirstHalfStart != nil {
		m.FirstHalfStart = p.FirstHalfStart
	}
	if p.SecondHalfStart != nil {
		m.SecondHalfStart = p.SecondHalfStart
	}
	if p.FinishedAt != nil {
		m.FinishedAt = p.FinishedAt
	}
	if p.ScoreA != nil {
		m.ScoreA = *p.ScoreA
	}
	if p.ScoreB != nil {
		m.ScoreB = *p.ScoreB
	}
	if p.PenaltyScoreA != nil {
		m.PenaltyScoreA = *p.PenaltyScoreA
	}
	if p.PenaltyScoreB != nil {
		m.PenaltyScoreB = *p.PenaltyScoreB
	}
	if p.AdditionalTimeFirstHalf != nil {
		m.AdditionalTimeFirstHalf = *p.AdditionalTimeFirstHalf
	}
	if p.AdditionalTimeSecondHalf != nil {
		m.AdditionalTimeSecondHalf = *p.AdditionalTimeSecondHalf
	}
	if p.FormationA != nil {
		m.FormationA = p.FormationA
	}
	if p.FormationB != nil {
		m.FormationB = p.FormationB
	}
	return m
}

// Filter narrows a match listing. Nil fields match everything.
type Filter struct {
	TournamentID *uuid.UUID
	Stage        *string
	Status       *Status
	MatchDay     *int
}
