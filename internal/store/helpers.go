package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// notFound maps a missing row onto match.ErrNotFound and leaves other errors alone.
func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, match.ErrNotFound)
	}
	return err
}

func checkAffectedRows(result sql.Result, what string, id any) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %v: %w", what, id, match.ErrNotFound)
	}
	return nil
}

// lockOpenMatch takes the match row for the rest of tx. It fails with
// match.ErrMatchLocked once the match is finished.
func lockOpenMatch(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	result, err := tx.ExecContext(ctx, tx.Rebind("UPDATE matches SET status = status WHERE id = ? AND status <> ?"),
		id, match.StatusFinished)
	if err != nil {
		return fmt.Errorf("failed to lock match: %w", err)
	}
	return checkOpenMatch(ctx, tx, result, id)
}

// checkOpenMatch tells a missing match from a finished one when a write guarded
// on the match status touched no row.
func checkOpenMatch(ctx context.Context, tx *sqlx.Tx, result sql.Result, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}
	var status match.Status
	if err := tx.GetContext(ctx, &status, tx.Rebind("SELECT status FROM matches WHERE id = ?"), id); err != nil {
		return notFound(err, "match", id)
	}
	return fmt.Errorf("match %v: %w", id, match.ErrMatchLocked)
}
