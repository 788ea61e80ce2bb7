package store

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type LineupStore struct {
	db *sqlx.DB
}

func NewLineupStore(db *sqlx.DB) *LineupStore {
	return &LineupStore{db: db}
}

// SetLineups replaces every lineup entry of the match and stores both formations
// in one transaction. The lineups of a finished match are not replaced.
func (s *LineupStore) SetLineups(ctx context.Context, matchID uuid.UUID, entries []match.Lineup, formations match.Formations) ([]match.Lineup, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, tx.Rebind("UPDATE matches SET formation_a = ?, formation_b = ? WHERE id = ? AND status <> ?"),
		formations.A, formations.B, matchID, match.StatusFinished)
	if err != nil {
		return nil, fmt.Errorf("failed to update formations: %w", err)
	}
	if err := checkOpenMatch(ctx, tx, result, matchID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM lineups WHERE match_id = ?"), matchID); err != nil {
		return nil, fmt.Errorf("failed to clear lineups: %w", err)
	}

	saved := make([]match.Lineup, len(entries))
	for i, e := range entries {
		e.ID = uuid.New()
		e.MatchID = matchID
		if !e.IsStarting {
			e.SlotIndex = nil
		}
		saved[i] = e
	}
	if len(saved) > 0 {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO lineups (id, match_id, team_id, player_id, is_starting, slot_index)
			VALUES (:id, :match_id, :team_id, :player_id, :is_starting, :slot_index)`, saved)
		if err != nil {
			return nil, fmt.Errorf("failed to insert lineups: %w", err)
		}
	}

	return saved, tx.Commit()
}

func (s *LineupStore) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]match.Lineup, error) {
	var entries []match.Lineup
	err := s.db.SelectContext(ctx, &entries, s.db.Rebind(`SELECT * FROM lineups WHERE match_id = ?
		ORDER BY team_id, is_starting DESC, slot_index ASC`), matchID)
	return entries, err
}
