package bundle

import "fmt"

// Assembler builds response bundles from per-entry results. Every assembly
// path verifies the parity invariant — exactly one response entry per
// request entry — before returning; a mismatch is a coordinator bug and
// raises ErrIntegrityViolation rather than returning a short bundle.
type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble maps completed per-entry results to a response bundle,
// preserving request order, and derives the overall bundle status.
func (a *Assembler) Assemble(mode Mode, requestCount int, results []*OperationResult) (*ResponseBundle, error) {
	if len(results) != requestCount {
		return nil, fmt.Errorf("%w: %d request entries, %d results",
			ErrIntegrityViolation, requestCount, len(results))
	}

	entries := make([]ResponseEntry, len(results))
	successes := 0
	for i, r := range results {
		entries[i] = responseEntryFromResult(r)
		if r.Status.Success() {
			successes++
		}
	}

	var status BundleStatus
	switch {
	case successes == len(results):
		status = StatusSuccess
	case successes == 0:
		status = StatusFailed
	default:
		status = StatusPartialSuccess
	}

	return a.finish(mode, requestCount, status, entries)
}

// AssembleRollback synthesizes the uniform transaction-rollback response:
// every entry reports a conflict with a rollback diagnostic, including
// entries whose operation had transiently succeeded before the abort.
func (a *Assembler) AssembleRollback(mode Mode, requestCount, failedIndex int, cause *OperationResult) (*ResponseBundle, error) {
	msg := fmt.Sprintf("transaction rolled back: entry %d failed", failedIndex)
	if cause != nil && cause.Diagnostics != nil {
		msg = fmt.Sprintf("%s: %s", msg, cause.Diagnostics.Message)
	}

	entries := make([]ResponseEntry, requestCount)
	for i := range entries {
		entries[i] = ResponseEntry{
			Status:      ResultConflict.HTTPStatus(),
			Diagnostics: &Diagnostics{Code: DiagRolledBack, Message: msg},
		}
	}

	return a.finish(mode, requestCount, StatusFailed, entries)
}

// AssembleError synthesizes a uniform server-error response, used when the
// transaction itself could not be finalized.
func (a *Assembler) AssembleError(mode Mode, requestCount int, diag *Diagnostics) (*ResponseBundle, error) {
	entries := make([]ResponseEntry, requestCount)
	for i := range entries {
		entries[i] = ResponseEntry{
			Status:      ResultServerError.HTTPStatus(),
			Diagnostics: diag,
		}
	}

	return a.finish(mode, requestCount, StatusFailed, entries)
}

func (a *Assembler) finish(mode Mode, requestCount int, status BundleStatus, entries []ResponseEntry) (*ResponseBundle, error) {
	if len(entries) != requestCount {
		return nil, fmt.Errorf("%w: %d request entries, %d response entries",
			ErrIntegrityViolation, requestCount, len(entries))
	}
	return &ResponseBundle{
		Mode:    mode.ResponseMode(),
		Status:  status,
		Entries: entries,
	}, nil
}

func responseEntryFromResult(r *OperationResult) ResponseEntry {
	entry := ResponseEntry{
		Status:      r.Status.HTTPStatus(),
		Location:    r.Location,
		ETag:        r.ETag,
		Diagnostics: r.Diagnostics,
	}
	if !r.LastModified.IsZero() {
		t := r.LastModified
		entry.LastModified = &t
	}
	return entry
}
