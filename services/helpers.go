package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/gamejam/models"
)

// withTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise (including on panic).
func withTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()
	return fn(tx)
}

func requireAdmin(actor models.Identity) error {
	if !actor.IsAdmin() {
		return ErrForbiddenOperation
	}
	return nil
}

// dedupeIDs validates ids and drops repeats, keeping first occurrences.
func dedupeIDs(ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, ErrNoCandidates
	}
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, ErrInvalidID
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func stripCredentials(users []models.User) {
	for i := range users {
		users[i].PasswordHash = nil
	}
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
