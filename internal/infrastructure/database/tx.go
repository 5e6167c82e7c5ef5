package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrUnexpectedRollback is returned by WithTx when the transaction was
// rolled back without a propagated error: fn reported success but the
// commit found the transaction already finished. This surfaces an
// otherwise-silent consistency failure to the caller.
var ErrUnexpectedRollback = errors.New("database: transaction rolled back without a propagated error")

// WithTx runs fn inside a transaction.
//
// If fn returns an error the transaction is rolled back and the error
// is returned unchanged, so callers can match domain sentinels with
// errors.Is. If fn returns nil the transaction is committed; a commit
// that fails because the transaction was already rolled back inside fn
// yields ErrUnexpectedRollback.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback() //nolint:errcheck // Original error takes precedence
		return err
	}

	if err := tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return ErrUnexpectedRollback
		}
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
