package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

type recordingExecer struct {
	statements []string
	failOn     string
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if r.failOn != "" && sql == r.failOn {
		return pgconn.CommandTag{}, context.DeadlineExceeded
	}
	r.statements = append(r.statements, sql)
	return pgconn.CommandTag{}, nil
}

func TestTxFromContext_Nil(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Errorf("expected nil tx from empty context, got %v", tx)
	}
}

func TestSavepointStack_PushRelease(t *testing.T) {
	rec := &recordingExecer{}
	stack := NewSavepointStack(rec)
	ctx := context.Background()

	name, err := stack.Push(ctx)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if name != "sp_1" {
		t.Errorf("expected sp_1, got %s", name)
	}
	if stack.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", stack.Depth())
	}

	if err := stack.Release(ctx, name); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if stack.Depth() != 0 {
		t.Errorf("expected depth 0 after release, got %d", stack.Depth())
	}

	want := []string{"SAVEPOINT sp_1", "RELEASE SAVEPOINT sp_1"}
	if len(rec.statements) != len(want) {
		t.Fatalf("expected %d statements, got %v", len(want), rec.statements)
	}
	for i, s := range want {
		if rec.statements[i] != s {
			t.Errorf("statement %d: expected %q, got %q", i, s, rec.statements[i])
		}
	}
}

func TestSavepointStack_RollbackDiscardsNested(t *testing.T) {
	rec := &recordingExecer{}
	stack := NewSavepointStack(rec)
	ctx := context.Background()

	outer, _ := stack.Push(ctx)
	if _, err := stack.Push(ctx); err != nil {
		t.Fatalf("Push nested: %v", err)
	}
	if stack.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", stack.Depth())
	}

	if err := stack.Rollback(ctx, outer); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if stack.Depth() != 0 {
		t.Errorf("expected rollback to pop nested savepoints, depth=%d", stack.Depth())
	}

	last := rec.statements[len(rec.statements)-1]
	if last != "RELEASE SAVEPOINT sp_1" {
		t.Errorf("expected trailing release of sp_1, got %q", last)
	}
}

func TestSavepointStack_NamesKeepIncrementing(t *testing.T) {
	rec := &recordingExecer{}
	stack := NewSavepointStack(rec)
	ctx := context.Background()

	first, _ := stack.Push(ctx)
	_ = stack.Release(ctx, first)
	second, _ := stack.Push(ctx)

	if second != "sp_2" {
		t.Errorf("expected sp_2 after releasing sp_1, got %s", second)
	}
}

func TestSavepointStack_UnknownName(t *testing.T) {
	stack := NewSavepointStack(&recordingExecer{})
	if err := stack.Release(context.Background(), "sp_9"); err == nil {
		t.Fatal("expected error for unknown savepoint")
	}
}

func TestSavepointStack_PushFailureKeepsDepth(t *testing.T) {
	rec := &recordingExecer{failOn: "SAVEPOINT sp_1"}
	stack := NewSavepointStack(rec)

	if _, err := stack.Push(context.Background()); err == nil {
		t.Fatal("expected push error")
	}
	if stack.Depth() != 0 {
		t.Errorf("expected depth 0 after failed push, got %d", stack.Depth())
	}

	// The sequence number is reclaimed so the next push reuses sp_1.
	rec.failOn = ""
	name, err := stack.Push(context.Background())
	if err != nil {
		t.Fatalf("Push after failure: %v", err)
	}
	if name != "sp_1" {
		t.Errorf("expected sp_1 reuse, got %s", name)
	}
}
