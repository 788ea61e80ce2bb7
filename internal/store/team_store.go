package store

import (
	"context"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	getTeamQuery        = "SELECT * FROM teams WHERE id = ?"
	getTeamPlayersQuery = "SELECT * FROM players WHERE team_id = ? ORDER BY number, name"
	createTeamQuery     = `INSERT INTO teams (id, name, logo_url) VALUES (:id, :name, :logo_url)`
	createPlayersQuery  = `
		INSERT INTO players (id, team_id, name, number, category) VALUES
		(:id, :team_id, :name, :number, :category)
	`
)

// TeamStore reads teams with their rosters. The engine never changes them;
// the create methods exist for fixtures.
type TeamStore struct {
	db *sqlx.DB
}

func NewTeamStore(db *sqlx.DB) *TeamStore {
	return &TeamStore{db: db}
}

func (s *TeamStore) CreateTeam(ctx context.Context, tx *sqlx.Tx, team *match.Team) error {
	_, err := tx.NamedExecContext(ctx, createTeamQuery, team)
	return err
}

func (s *TeamStore) CreatePlayers(ctx context.Context, tx *sqlx.Tx, players []match.Player) error {
	if len(players) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createPlayersQuery, players)
	return err
}

func (s *TeamStore) GetTeam(ctx context.Context, id uuid.UUID) (*match.Team, error) {
	var team match.Team
	if err := s.db.GetContext(ctx, &team, s.db.Rebind(getTeamQuery), id); err != nil {
		return nil, notFound(err, "team", id)
	}

	var players []match.Player
	if err := s.db.SelectContext(ctx, &players, s.db.Rebind(getTeamPlayersQuery), id); err != nil {
		return nil, err
	}
	team.Roster = match.NewRoster(players)
	return &team, nil
}
