package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// ContextWithTx returns a context carrying the given transaction.
// Repositories pick it up via TxFromContext so their statements join the
// enclosing rollback scope.
func ContextWithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// TxFromContext retrieves the transaction from context, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

// WithTx begins a transaction on the pool and returns a derived context
// carrying it. The caller owns the transaction and must Commit or Rollback.
func WithTx(ctx context.Context, pool *pgxpool.Pool) (context.Context, pgx.Tx, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", err)
	}
	return ContextWithTx(ctx, tx), tx, nil
}

// execer is the slice of pgx.Tx the savepoint stack needs.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// SavepointStack manages named savepoints inside one open transaction as
// an explicit stack. Names are generated internally (sp_1, sp_2, ...), so
// no caller input ever reaches the SQL text.
type SavepointStack struct {
	conn  execer
	names []string
	seq   int
}

func NewSavepointStack(conn execer) *SavepointStack {
	return &SavepointStack{conn: conn}
}

// Push creates a new savepoint and returns its name.
func (s *SavepointStack) Push(ctx context.Context) (string, error) {
	s.seq++
	name := fmt.Sprintf("sp_%d", s.seq)
	if _, err := s.conn.Exec(ctx, "SAVEPOINT "+name); err != nil {
		s.seq--
		return "", fmt.Errorf("create savepoint %s: %w", name, err)
	}
	s.names = append(s.names, name)
	return name, nil
}

// Release commits the named savepoint, discarding it and anything nested
// above it.
func (s *SavepointStack) Release(ctx context.Context, name string) error {
	idx, err := s.find(name)
	if err != nil {
		return err
	}
	if _, err := s.conn.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint %s: %w", name, err)
	}
	s.names = s.names[:idx]
	return nil
}

// Rollback undoes all work since the named savepoint and discards it,
// along with anything nested above it.
func (s *SavepointStack) Rollback(ctx context.Context, name string) error {
	idx, err := s.find(name)
	if err != nil {
		return err
	}
	if _, err := s.conn.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
		return fmt.Errorf("rollback to savepoint %s: %w", name, err)
	}
	// ROLLBACK TO keeps the savepoint defined; release it so the stack
	// and the server agree on depth.
	if _, err := s.conn.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint %s after rollback: %w", name, err)
	}
	s.names = s.names[:idx]
	return nil
}

// Depth returns the number of open savepoints.
func (s *SavepointStack) Depth() int {
	return len(s.names)
}

func (s *SavepointStack) find(name string) (int, error) {
	for i := len(s.names) - 1; i >= 0; i-- {
		if s.names[i] == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown savepoint %s", name)
}
