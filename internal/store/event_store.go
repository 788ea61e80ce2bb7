package store

import (
	"context"
	"fmt"
	"time"

	"github.com/AdamBeresnev/matchday/internal/ledger"
	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EventStore persists one kind of match event in its own table. Writes lock the
// match row first and are refused once the match is finished.
type EventStore[T match.Event] struct {
	db     *sqlx.DB
	table  string
	insert string
	stamp  func(event T, id uuid.UUID, at time.Time) T
	// Runs inside the write transaction after the event row changed
	after func(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) error
}

// NewGoalStore keeps the match score equal to the tally of its goals.
func NewGoalStore(db *sqlx.DB) *EventStore[match.Goal] {
	return &EventStore[match.Goal]{
		db:    db,
		after: syncScore,
		table: "goals",
		insert: `INSERT INTO goals (id, match_id, team_id, minute, scorer_id, assistant_id, is_own_goal, created_at)
			VALUES (:id, :match_id, :team_id, :minute, :scorer_id, :assistant_id, :is_own_goal, :created_at)`,
		stamp: func(g match.Goal, id uuid.UUID, at time.Time) match.Goal {
			g.ID, g.CreatedAt = id, at
			return g
		},
	}
}

func NewCardStore(db *sqlx.DB) *EventStore[match.Card] {
	return &EventStore[match.Card]{
		db:    db,
		table: "cards",
		insert: `INSERT INTO cards (id, match_id, team_id, minute, player_id, color, created_at)
			VALUES (:id, :match_id, :team_id, :minute, :player_id, :color, :created_at)`,
		stamp: func(c match.Card, id uuid.UUID, at time.Time) match.Card {
			c.ID, c.CreatedAt = id, at
			return c
		},
	}
}

func NewSubstitutionStore(db *sqlx.DB) *EventStore[match.Substitution] {
	return &EventStore[match.Substitution]{
		db:    db,
		table: "substitutions",
		insert: `INSERT INTO substitutions (id, match_id, team_id, minute, player_in_id, player_out_id, created_at)
			VALUES (:id, :match_id, :team_id, :minute, :player_in_id, :player_out_id, :created_at)`,
		stamp: func(s match.Substitution, id uuid.UUID, at time.Time) match.Substitution {
			s.ID, s.CreatedAt = id, at
			return s
		},
	}
}

func (s *EventStore[T]) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]T, error) {
	var events []T
	query := fmt.Sprintf("SELECT * FROM %s WHERE match_id = ? ORDER BY created_at ASC, id ASC", s.table)
	if err := s.db.SelectContext(ctx, &events, s.db.Rebind(query), matchID); err != nil {
		return nil, err
	}
	return events, nil
}

// Create assigns the id and creation time.
func (s *EventStore[T]) Create(ctx context.Context, event T) (T, error) {
	var zero T
	event = s.stamp(event, uuid.New(), time.Now().UTC())

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer tx.Rollback()

	if err := lockOpenMatch(ctx, tx, event.EventMatchID()); err != nil {
		return zero, err
	}
	if _, err := tx.NamedExecContext(ctx, s.insert, event); err != nil {
		return zero, fmt.Errorf("failed to insert into %s: %w", s.table, err)
	}
	if s.after != nil {
		if err := s.after(ctx, tx, event.EventMatchID()); err != nil {
			return zero, err
		}
	}
	return event, tx.Commit()
}

func (s *EventStore[T]) Delete(ctx context.Context, id uuid.UUID) error {
	what := s.table[:len(s.table)-1]

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var matchID uuid.UUID
	query := fmt.Sprintf("SELECT match_id FROM %s WHERE id = ?", s.table)
	if err := tx.GetContext(ctx, &matchID, tx.Rebind(query), id); err != nil {
		return notFound(err, what, id)
	}
	if err := lockOpenMatch(ctx, tx, matchID); err != nil {
		return err
	}

	query = fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table)
	result, err := tx.ExecContext(ctx, tx.Rebind(query), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", s.table, err)
	}
	if err := checkAffectedRows(result, what, id); err != nil {
		return err
	}
	if s.after != nil {
		if err := s.after(ctx, tx, matchID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// syncScore recounts the score of the match from its goals within tx.
func syncScore(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) error {
	var m match.Match
	if err := tx.GetContext(ctx, &m, tx.Rebind("SELECT * FROM matches WHERE id = ?"), matchID); err != nil {
		return notFound(err, "match", matchID)
	}
	var goals []match.Goal
	if err := tx.SelectContext(ctx, &goals, tx.Rebind("SELECT * FROM goals WHERE match_id = ?"), matchID); err != nil {
		return fmt.Errorf("failed to list goals: %w", err)
	}
	scoreA, scoreB := ledger.Tally(&m, goals)
	if scoreA == m.ScoreA && scoreB == m.ScoreB {
		return nil
	}
	_, err := tx.ExecContext(ctx, tx.Rebind("UPDATE matches SET score_a = ?, score_b = ? WHERE id = ?"), scoreA, scoreB, matchID)
	if err != nil {
		return fmt.Errorf("failed to sync score: %w", err)
	}
	return nil
}
