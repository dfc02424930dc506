package bundle

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinrec/clinrec/internal/platform/db"
)

// PGStore opens bundle transaction scopes on a PostgreSQL pool. When the
// incoming context already carries a transaction (a bundle submitted
// within a larger caller transaction), the scope nests as a savepoint on
// it instead of opening a second transaction.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Begin(ctx context.Context) (Tx, context.Context, error) {
	if outer := db.TxFromContext(ctx); outer != nil {
		stack := db.NewSavepointStack(outer)
		name, err := stack.Push(ctx)
		if err != nil {
			return nil, ctx, fmt.Errorf("open nested scope: %w", err)
		}
		return &nestedTx{stack: stack, name: name}, ctx, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, ctx, fmt.Errorf("begin transaction: %w", err)
	}
	return &pgTx{tx: tx, stack: db.NewSavepointStack(tx)}, db.ContextWithTx(ctx, tx), nil
}

// pgTx owns a real database transaction.
type pgTx struct {
	tx    pgx.Tx
	stack *db.SavepointStack
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && errors.Is(err, pgx.ErrTxClosed) {
		// Already closed counts as rolled back.
		return nil
	}
	return err
}

func (t *pgTx) Savepoint(ctx context.Context) (Savepoint, error) {
	name, err := t.stack.Push(ctx)
	if err != nil {
		return nil, err
	}
	return &pgSavepoint{stack: t.stack, name: name}, nil
}

// nestedTx scopes a bundle to a savepoint on a caller-owned transaction.
// Commit releases the savepoint; the caller still owns the real commit.
type nestedTx struct {
	stack *db.SavepointStack
	name  string
}

func (t *nestedTx) Commit(ctx context.Context) error {
	return t.stack.Release(ctx, t.name)
}

func (t *nestedTx) Rollback(ctx context.Context) error {
	err := t.stack.Rollback(ctx, t.name)
	if err != nil && errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (t *nestedTx) Savepoint(ctx context.Context) (Savepoint, error) {
	name, err := t.stack.Push(ctx)
	if err != nil {
		return nil, err
	}
	return &pgSavepoint{stack: t.stack, name: name}, nil
}

type pgSavepoint struct {
	stack *db.SavepointStack
	name  string
}

func (s *pgSavepoint) Release(ctx context.Context) error {
	return s.stack.Release(ctx, s.name)
}

func (s *pgSavepoint) Rollback(ctx context.Context) error {
	return s.stack.Rollback(ctx, s.name)
}
