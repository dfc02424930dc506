package bundle

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Savepoint is a nested, independently rollback-able scope within an open
// transaction.
type Savepoint interface {
	// Release commits the savepoint's work into the enclosing transaction.
	Release(ctx context.Context) error
	// Rollback undoes the savepoint's work; the enclosing transaction
	// remains usable.
	Rollback(ctx context.Context) error
}

// Tx is the store transaction handle owned by one bundle invocation.
// Rollback on an already-closed transaction must return nil: a closed
// transaction is an acceptable rollback outcome, not an error.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Savepoint(ctx context.Context) (Savepoint, error)
}

// Store opens the transaction scope for one bundle invocation. Begin
// returns a derived context carrying the transaction so resource handlers
// join the rollback scope. Implementations nest inside an already-open
// caller transaction by scoping to a savepoint instead.
type Store interface {
	Begin(ctx context.Context) (Tx, context.Context, error)
}

// Coordinator orchestrates bundle processing. It holds no per-invocation
// state: the reference map and transaction handle are created fresh for
// every call, so concurrent bundles are safe as long as each owns its own
// store connection.
type Coordinator struct {
	store      Store
	dispatcher *Dispatcher
	validator  *Validator
	assembler  *Assembler
	audit      AuditSink
	logger     zerolog.Logger
}

func NewCoordinator(store Store, registry *Registry, audit AuditSink, logger zerolog.Logger) *Coordinator {
	if audit == nil {
		audit = NopAuditSink{}
	}
	return &Coordinator{
		store:      store,
		dispatcher: NewDispatcher(registry, logger),
		validator:  NewValidator(),
		assembler:  NewAssembler(),
		audit:      audit,
		logger:     logger,
	}
}

// Process validates and executes one bundle, returning a response bundle
// with exactly one entry per request entry. Structural violations reject
// the call before any store access with a *StructuralError; infrastructure
// failures opening the transaction surface as a *StorageError.
func (c *Coordinator) Process(ctx context.Context, b *Bundle) (*ResponseBundle, error) {
	if violations := c.validator.Validate(b); len(violations) > 0 {
		return nil, &StructuralError{Violations: violations}
	}

	c.recordAudit(ctx, AuditBundleStart, b, "")

	switch b.Mode {
	case ModeTransaction:
		return c.processTransaction(ctx, b)
	default:
		return c.processBatch(ctx, b)
	}
}

// processTransaction applies all entries atomically under one store
// transaction. The first non-success result aborts the loop; the
// transaction is rolled back in full and every entry — including those
// that transiently succeeded — reports a rollback conflict. Partial
// success is never visible to the caller in transaction mode.
func (c *Coordinator) processTransaction(ctx context.Context, b *Bundle) (*ResponseBundle, error) {
	tx, txCtx, err := c.store.Begin(ctx)
	if err != nil {
		return nil, &StorageError{Op: "begin", Err: err}
	}

	// Scoped acquisition: whatever happens below, the transaction is
	// closed on every exit path, including caller cancellation.
	open := true
	defer func() {
		if open {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				c.logger.Error().Err(rbErr).Msg("transaction cleanup rollback failed")
			}
		}
	}()

	c.logger.Debug().Int("entries", len(b.Entries)).Msg("transaction opened")

	refs := make(ReferenceMap)
	results := make([]*OperationResult, 0, len(b.Entries))
	failedIndex := -1

	for i, entry := range b.Entries {
		payload, unresolvedRefs := Resolve(entry.Payload, refs)
		res := c.dispatcher.Apply(txCtx, entry, payload)
		if len(unresolvedRefs) > 0 {
			attachUnresolved(res, unresolvedRefs)
		}
		results = append(results, res)

		if !res.Status.Success() {
			failedIndex = i
			break
		}

		// Later entries resolve this entry's placeholder against the
		// location it was just assigned.
		if entry.TemporaryID != "" && res.Location != "" {
			refs.Register(entry.TemporaryID, res.Location)
		}
	}

	if failedIndex >= 0 {
		open = false
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			// The entry failure is the caller-visible outcome; the
			// rollback failure is logged, not surfaced over it.
			c.logger.Error().Err(rbErr).Int("failed_entry", failedIndex).
				Msg("transaction rollback failed")
		}
		c.logger.Info().
			Int("entries", len(b.Entries)).
			Int("failed_entry", failedIndex).
			Msg("transaction rolled back")
		c.recordAudit(ctx, AuditBundleRollback, b, StatusFailed)
		return c.assembler.AssembleRollback(b.Mode, len(b.Entries), failedIndex, results[failedIndex])
	}

	open = false
	if err := tx.Commit(ctx); err != nil {
		c.logger.Error().Err(err).Msg("transaction commit failed")
		// Best-effort close; a commit failure usually leaves the
		// transaction already closed, which Rollback treats as success.
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			c.logger.Error().Err(rbErr).Msg("rollback after failed commit also failed")
		}
		c.recordAudit(ctx, AuditBundleRollback, b, StatusFailed)
		return c.assembler.AssembleError(b.Mode, len(b.Entries), &Diagnostics{
			Code:    DiagException,
			Message: "transaction commit failed; no entry was persisted",
		})
	}

	c.logger.Info().Int("entries", len(b.Entries)).Msg("transaction committed")
	c.recordAudit(ctx, AuditBundleCommit, b, StatusSuccess)
	return c.assembler.Assemble(b.Mode, len(b.Entries), results)
}

// processBatch applies each entry independently inside its own savepoint
// on one shared transaction. A failed entry rolls back only its savepoint;
// the transaction stays usable for the remaining entries. Reference
// resolution does not run: batch entries must not depend on each other's
// identifiers, by contract.
func (c *Coordinator) processBatch(ctx context.Context, b *Bundle) (*ResponseBundle, error) {
	tx, txCtx, err := c.store.Begin(ctx)
	if err != nil {
		return nil, &StorageError{Op: "begin", Err: err}
	}

	open := true
	defer func() {
		if open {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				c.logger.Error().Err(rbErr).Msg("batch cleanup rollback failed")
			}
		}
	}()

	c.logger.Debug().Int("entries", len(b.Entries)).Msg("batch opened")

	results := make([]*OperationResult, len(b.Entries))

	for i, entry := range b.Entries {
		sp, err := tx.Savepoint(txCtx)
		if err != nil {
			c.logger.Error().Err(err).Int("entry", i).Msg("savepoint open failed")
			results[i] = FailureResult(ResultServerError, DiagException,
				"could not open savepoint for entry %d", i)
			continue
		}

		res := c.dispatcher.Apply(txCtx, entry, entry.Payload)

		if res.Status.Success() {
			if err := sp.Release(txCtx); err != nil {
				c.logger.Error().Err(err).Int("entry", i).Msg("savepoint release failed")
				res = FailureResult(ResultServerError, DiagException,
					"could not finalize entry %d", i)
			}
		} else {
			if err := sp.Rollback(txCtx); err != nil {
				// The entry's own failure stays the reported outcome.
				c.logger.Error().Err(err).Int("entry", i).Msg("savepoint rollback failed")
			}
		}
		results[i] = res
	}

	open = false
	if err := tx.Commit(ctx); err != nil {
		c.logger.Error().Err(err).Msg("batch commit failed")
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			c.logger.Error().Err(rbErr).Msg("rollback after failed batch commit also failed")
		}
		// Entries that reported success did not actually persist.
		for i, r := range results {
			if r.Status.Success() {
				results[i] = FailureResult(ResultServerError, DiagException,
					"batch commit failed; entry %d was not persisted", i)
			}
		}
		c.recordAudit(ctx, AuditBundleRollback, b, StatusFailed)
		return c.assembler.Assemble(b.Mode, len(b.Entries), results)
	}

	resp, err := c.assembler.Assemble(b.Mode, len(b.Entries), results)
	if err != nil {
		return nil, err
	}
	c.logger.Info().
		Int("entries", len(b.Entries)).
		Str("status", string(resp.Status)).
		Msg("batch committed")
	c.recordAudit(ctx, AuditBundleCommit, b, resp.Status)
	return resp, nil
}

// recordAudit is fire-and-forget: sink failures are logged and swallowed.
func (c *Coordinator) recordAudit(ctx context.Context, action string, b *Bundle, outcome BundleStatus) {
	ev := AuditEvent{
		Action:     action,
		Mode:       b.Mode,
		EntryCount: len(b.Entries),
		Outcome:    outcome,
		Recorded:   time.Now().UTC(),
	}
	if err := c.audit.Record(ctx, ev); err != nil {
		c.logger.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}

// attachUnresolved surfaces unresolved placeholder references on an entry
// outcome without failing it.
func attachUnresolved(res *OperationResult, refs []string) {
	msg := "unresolved placeholder reference(s): " + joinRefs(refs)
	if res.Diagnostics == nil {
		res.Diagnostics = &Diagnostics{Code: DiagUnresolvedRef, Message: msg}
		return
	}
	res.Diagnostics.Message += "; " + msg
}

func joinRefs(refs []string) string {
	out := ""
	for i, r := range refs {
		if i > 0 {
			out += ", "
		}
		out += r
	}
	return out
}
