package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxFunc receives the executor bound to the running transaction.
type TxFunc func(ctx context.Context, exec sqlx.ExtContext) error

// TxRunner executes functions inside database transactions.
type TxRunner struct {
	db        *sqlx.DB
	isolation sql.IsolationLevel
}

// NewTxRunner builds a runner using serializable isolation.
func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{db: db, isolation: sql.LevelSerializable}
}

// WithinTx begins a transaction, runs fn and commits; any error or panic rolls back.
func (r *TxRunner) WithinTx(ctx context.Context, fn TxFunc) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: r.isolation})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
