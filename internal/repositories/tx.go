package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrStatusConflict = errors.New("status changed concurrently")
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RollbackError is returned when a failed transaction could not be rolled back.
// Err is the failure that triggered the rollback.
type RollbackError struct {
	Err         error
	RollbackErr error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed (%v) after: %v", e.RollbackErr, e.Err)
}

func (e *RollbackError) Unwrap() error { return e.Err }

type txKey struct{}

type txValue struct {
	tx   pgx.Tx
	pool *pgxpool.Pool
}

type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx runs fn in a transaction carried by the context passed to it. Repositories
// built on the same pool pick the transaction up automatically. Nested calls join the
// outer transaction.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if v, ok := ctx.Value(txKey{}).(txValue); ok && v.pool == m.pool {
		return fn(ctx)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(context.WithValue(ctx, txKey{}, txValue{tx: tx, pool: m.pool})); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return &RollbackError{Err: err, RollbackErr: rbErr}
		}
		return err
	}

	return tx.Commit(ctx)
}

// conn returns the context's transaction if it was opened on pool, else pool itself.
func conn(ctx context.Context, pool *pgxpool.Pool) Querier {
	if v, ok := ctx.Value(txKey{}).(txValue); ok && v.pool == pool {
		return v.tx
	}
	return pool
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
