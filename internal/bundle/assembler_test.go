package bundle

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAssemble_StatusDerivation(t *testing.T) {
	a := NewAssembler()
	ok := &OperationResult{Status: ResultCreated}
	bad := FailureResult(ResultInvalid, DiagInvalid, "nope")

	cases := []struct {
		name    string
		results []*OperationResult
		status  BundleStatus
	}{
		{"all success", []*OperationResult{ok, ok}, StatusSuccess},
		{"all failed", []*OperationResult{bad, bad}, StatusFailed},
		{"mixed", []*OperationResult{ok, bad}, StatusPartialSuccess},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := a.Assemble(ModeBatch, len(tc.results), tc.results)
			if err != nil {
				t.Fatalf("assemble: %v", err)
			}
			if resp.Status != tc.status {
				t.Errorf("expected %s, got %s", tc.status, resp.Status)
			}
			if resp.Mode != "batch-response" {
				t.Errorf("expected batch-response mode, got %s", resp.Mode)
			}
			if len(resp.Entries) != len(tc.results) {
				t.Errorf("parity broken: %d entries for %d results", len(resp.Entries), len(tc.results))
			}
		})
	}
}

func TestAssemble_ParityViolation(t *testing.T) {
	a := NewAssembler()
	_, err := a.Assemble(ModeTransaction, 3, []*OperationResult{{Status: ResultCreated}})
	if !errors.Is(err, ErrIntegrityViolation) {
		t.Fatalf("expected ErrIntegrityViolation, got %v", err)
	}
}

func TestAssemble_CarriesResultFields(t *testing.T) {
	a := NewAssembler()
	now := time.Now()
	resp, err := a.Assemble(ModeTransaction, 1, []*OperationResult{{
		Status:       ResultCreated,
		Location:     "Patient/p-1",
		ETag:         `W/"1"`,
		LastModified: now,
	}})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	entry := resp.Entries[0]
	if entry.Status != "201" {
		t.Errorf("expected status 201, got %s", entry.Status)
	}
	if entry.Location != "Patient/p-1" {
		t.Errorf("location = %q", entry.Location)
	}
	if entry.LastModified == nil || !entry.LastModified.Equal(now) {
		t.Errorf("lastModified = %v", entry.LastModified)
	}
}

func TestAssemble_OmitsZeroLastModified(t *testing.T) {
	a := NewAssembler()
	resp, err := a.Assemble(ModeTransaction, 1, []*OperationResult{{Status: ResultDeleted}})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if resp.Entries[0].LastModified != nil {
		t.Error("expected nil lastModified for zero time")
	}
}

func TestAssembleRollback_UniformConflict(t *testing.T) {
	a := NewAssembler()
	cause := FailureResult(ResultNotFound, DiagNotFound, "Patient/p-9 not found")

	resp, err := a.AssembleRollback(ModeTransaction, 3, 1, cause)
	if err != nil {
		t.Fatalf("assemble rollback: %v", err)
	}
	if resp.Status != StatusFailed {
		t.Errorf("expected failed, got %s", resp.Status)
	}
	if len(resp.Entries) != 3 {
		t.Fatalf("parity broken: %d entries", len(resp.Entries))
	}
	for i, entry := range resp.Entries {
		if entry.Status != "409" {
			t.Errorf("entry %d: expected 409, got %s", i, entry.Status)
		}
		if entry.Diagnostics == nil || entry.Diagnostics.Code != DiagRolledBack {
			t.Errorf("entry %d: expected rolled-back diagnostic, got %+v", i, entry.Diagnostics)
		}
		if !strings.Contains(entry.Diagnostics.Message, "entry 1 failed") {
			t.Errorf("entry %d: message should name the failed entry, got %q", i, entry.Diagnostics.Message)
		}
		if !strings.Contains(entry.Diagnostics.Message, "Patient/p-9 not found") {
			t.Errorf("entry %d: message should carry the cause, got %q", i, entry.Diagnostics.Message)
		}
	}
}

func TestAssembleError_UniformServerError(t *testing.T) {
	a := NewAssembler()
	resp, err := a.AssembleError(ModeTransaction, 2, &Diagnostics{Code: DiagException, Message: "commit failed"})
	if err != nil {
		t.Fatalf("assemble error: %v", err)
	}
	if resp.Status != StatusFailed {
		t.Errorf("expected failed, got %s", resp.Status)
	}
	for i, entry := range resp.Entries {
		if entry.Status != "500" {
			t.Errorf("entry %d: expected 500, got %s", i, entry.Status)
		}
	}
}
