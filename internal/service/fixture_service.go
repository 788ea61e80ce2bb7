package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/AdamBeresnev/matchday/internal/store"
	"github.com/AdamBeresnev/matchday/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// FixtureService sets up the tournaments, teams and matches the engine runs on.
type FixtureService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	teams       *store.TeamStore
	matches     *store.MatchStore
}

func NewFixtureService(db *sqlx.DB, tournaments *store.TournamentStore, teams *store.TeamStore, matches *store.MatchStore) *FixtureService {
	return &FixtureService{db: db, tournaments: tournaments, teams: teams, matches: matches}
}

type PlayerInput struct {
	Name     string         `json:"name"`
	Number   *int           `json:"number,omitempty"`
	Category match.Category `json:"category"`
}

type FixtureInput struct {
	TeamAID   uuid.UUID `json:"team_a_id"`
	TeamBID   uuid.UUID `json:"team_b_id"`
	MatchDay  int       `json:"match_day"`
	Stage     string    `json:"stage,omitempty"`
	TotalTime int       `json:"total_time,omitempty"`
}

type TournamentData struct {
	Tournament *match.Tournament `json:"tournament"`
	Matches    []match.Match     `json:"matches"`
}

func (s *FixtureService) GetTournamentData(ctx context.Context, id uuid.UUID) (*TournamentData, error) {
	tournament, err := s.tournaments.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	matches, err := s.matches.List(ctx, match.Filter{TournamentID: &id})
	if err != nil {
		return nil, err
	}
	return &TournamentData{Tournament: tournament, Matches: matches}, nil
}

func (s *FixtureService) CreateTournament(ctx context.Context, name string, twoLegged bool) (uuid.UUID, error) {
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: tournament name is required", match.ErrValidation)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	tournament := match.Tournament{ID: uuid.New(), Name: name, TwoLegged: twoLegged}
	if err := s.tournaments.CreateTournament(ctx, tx, &tournament); err != nil {
		return uuid.Nil, err
	}
	return tournament.ID, tx.Commit()
}

// CreateTeam stores a team together with its roster.
func (s *FixtureService) CreateTeam(ctx context.Context, name string, inputs []PlayerInput) (uuid.UUID, error) {
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: team name is required", match.ErrValidation)
	}
	team := match.Team{ID: uuid.New(), Name: name}

	players := make([]match.Player, 0, len(inputs))
	for _, input := range inputs {
		switch input.Category {
		case match.CategoryGoalkeeper, match.CategoryDefender, match.CategoryMidfielder, match.CategoryForward:
		default:
			return uuid.Nil, fmt.Errorf("%w: unknown player category %q", match.ErrValidation, input.Category)
		}
		players = append(players, match.Player{
			ID:       uuid.New(),
			TeamID:   team.ID,
			Name:     input.Name,
			Number:   input.Number,
			Category: input.Category,
		})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	if err := s.teams.CreateTeam(ctx, tx, &team); err != nil {
		return uuid.Nil, err
	}
	if err := s.teams.CreatePlayers(ctx, tx, players); err != nil {
		return uuid.Nil, err
	}
	return team.ID, tx.Commit()
}

func newFixture(tournamentID uuid.UUID, input FixtureInput) (match.Match, error) {
	if input.TeamAID == uuid.Nil || input.TeamBID == uuid.Nil || input.TeamAID == input.TeamBID {
		return match.Match{}, fmt.Errorf("%w: a match needs two different teams", match.ErrValidation)
	}
	if input.TotalTime < 0 || input.MatchDay < 0 {
		return match.Match{}, match.ErrNegativeValue
	}
	m := match.Match{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		TeamAID:      input.TeamAID,
		TeamBID:      input.TeamBID,
		Status:       match.StatusScheduled,
		TotalTime:    input.TotalTime,
		MatchDay:     input.MatchDay,
		Stage:        utils.StringOrNil(input.Stage),
	}
	if m.TotalTime == 0 {
		m.TotalTime = match.DefaultTotalTime
	}
	if m.MatchDay == 0 {
		m.MatchDay = 1
	}
	return m, nil
}

func (s *FixtureService) ScheduleMatch(ctx context.Context, tournamentID uuid.UUID, input FixtureInput) (uuid.UUID, error) {
	m, err := newFixture(tournamentID, input)
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	if err := s.matches.CreateMatches(ctx, tx, []match.Match{m}); err != nil {
		return uuid.Nil, err
	}
	return m.ID, tx.Commit()
}

// ScheduleTwoLeggedTie creates both legs of a knockout tie. The return leg swaps
// home and away and is played on the following match day.
func (s *FixtureService) ScheduleTwoLeggedTie(ctx context.Context, tournamentID uuid.UUID, input FixtureInput) ([2]uuid.UUID, error) {
	if input.Stage == "" {
		return [2]uuid.UUID{}, fmt.Errorf("%w: a two-legged tie needs a stage", match.ErrValidation)
	}
	first, err := newFixture(tournamentID, input)
	if err != nil {
		return [2]uuid.UUID{}, err
	}
	second := first
	second.ID = uuid.New()
	second.TeamAID, second.TeamBID = first.TeamBID, first.TeamAID
	second.MatchDay = first.MatchDay + 1

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return [2]uuid.UUID{}, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, tournamentID)
	if err != nil {
		return [2]uuid.UUID{}, err
	}
	if !tournament.TwoLegged {
		return [2]uuid.UUID{}, fmt.Errorf("%w: tournament %s is single-legged", match.ErrValidation, tournamentID)
	}

	if err := s.matches.CreateMatches(ctx, tx, []match.Match{first, second}); err != nil {
		return [2]uuid.UUID{}, err
	}
	return [2]uuid.UUID{first.ID, second.ID}, tx.Commit()
}
