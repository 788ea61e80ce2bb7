package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchStore struct {
	db *sqlx.DB
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

func (s *MatchStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []match.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO matches (id, tournament_id, team_a_id, team_b_id, status, total_time,
		additional_time_first_half, additional_time_second_half, match_day, stage, formation_a, formation_b)
		VALUES (:id, :tournament_id, :team_a_id, :team_b_id, :status, :total_time,
		:additional_time_first_half, :additional_time_second_half, :match_day, :stage, :formation_a, :formation_b)`, matches)
	return err
}

func (s *MatchStore) Get(ctx context.Context, id uuid.UUID) (*match.Match, error) {
	var m match.Match
	if err := s.db.GetContext(ctx, &m, s.db.Rebind("SELECT * FROM matches WHERE id = ?"), id); err != nil {
		return nil, notFound(err, "match", id)
	}
	return &m, nil
}

// patchColumns lists the columns set by p as named parameters.
func patchColumns(p match.Patch) (sets []string, args map[string]any) {
	args = map[string]any{}
	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = :%s", column, column))
		args[column] = value
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.IsHalftime != nil {
		add("is_halftime", *p.IsHalftime)
	}
	if p.FirstHalfStart != nil {
		add("first_half_start", *p.FirstHalfStart)
	}
	if p.SecondHalfStart != nil {
		add("second_half_start", *p.SecondHalfStart)
	}
	if p.FinishedAt != nil {
		add("finished_at", *p.FinishedAt)
	}
	if p.ScoreA != nil {
		add("score_a", *p.ScoreA)
	}
	if p.ScoreB != nil {
		add("score_b", *p.ScoreB)
	}
	if p.PenaltyScoreA != nil {
		add("penalty_score_a", *p.PenaltyScoreA)
	}
	if p.PenaltyScoreB != nil {
		add("penalty_score_b", *p.PenaltyScoreB)
	}
	if p.AdditionalTimeFirstHalf != nil {
		add("additional_time_first_half", *p.AdditionalTimeFirstHalf)
	}
	if p.AdditionalTimeSecondHalf != nil {
		add("additional_time_second_half", *p.AdditionalTimeSecondHalf)
	}
	if p.FormationA != nil {
		add("formation_a", *p.FormationA)
	}
	if p.FormationB != nil {
		add("formation_b", *p.FormationB)
	}
	return sets, args
}

// Update applies patch and returns the stored match. An empty patch only reads.
// A finished match is never written and fails with match.ErrMatchLocked.
func (s *MatchStore) Update(ctx context.Context, id uuid.UUID, patch match.Patch) (*match.Match, error) {
	sets, args := patchColumns(patch)
	if len(sets) == 0 {
		return s.Get(ctx, id)
	}
	args["id"] = id
	args["finished"] = match.StatusFinished

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query, params, err := sqlx.Named("UPDATE matches SET "+strings.Join(sets, ", ")+" WHERE id = :id AND status <> :finished", args)
	if err != nil {
		return nil, fmt.Errorf("failed to build match update: %w", err)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(query), params...)
	if err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}
	if err := checkOpenMatch(ctx, tx, result, id); err != nil {
		return nil, err
	}

	var m match.Match
	if err := tx.GetContext(ctx, &m, tx.Rebind("SELECT * FROM matches WHERE id = ?"), id); err != nil {
		return nil, notFound(err, "match", id)
	}
	return &m, tx.Commit()
}

func (s *MatchStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM matches WHERE id = ?"), id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, "match", id)
}

func (s *MatchStore) List(ctx context.Context, filter match.Filter) ([]match.Match, error) {
	var (
		where []string
		args  []any
	)
	if filter.TournamentID != nil {
		where = append(where, "tournament_id = ?")
		args = append(args, *filter.TournamentID)
	}
	if filter.Stage != nil {
		where = append(where, "stage = ?")
		args = append(args, *filter.Stage)
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.MatchDay != nil {
		where = append(where, "match_day = ?")
		args = append(args, *filter.MatchDay)
	}

	query := "SELECT * FROM matches"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY match_day ASC, created_at ASC, id ASC"

	var matches []match.Match
	if err := s.db.SelectContext(ctx, &matches, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return matches, nil
}
