package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// withTx выполняет fn в одной транзакции: commit при успехе, rollback при любой ошибке.
// Ошибки бд классифицируются в apperror, уже типизированные ошибки fn проходят как есть.
func withTx(ctx context.Context, db *sqlx.DB, action string, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(action, fmt.Errorf("begin transaction: %w", err))
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return classify(action, err)
	}

	if err := tx.Commit(); err != nil {
		return classify(action, fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
