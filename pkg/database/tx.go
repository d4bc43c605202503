package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// Transactor runs functions inside a database transaction. The open
// transaction travels in the context so repositories pick it up
// transparently through Ext.
type Transactor struct {
	db *sqlx.DB
}

// NewTransactor constructs a Transactor bound to the given database.
func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

// Within executes fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise, so multi-row workflows are
// all-or-nothing.
func (t *Transactor) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		// Already inside a transaction; join it.
		return fn(ctx)
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ext returns the transaction stored in ctx when present, falling back to db.
func Ext(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}
