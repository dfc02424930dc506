// Package audit persists bundle lifecycle events for compliance logging.
package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinrec/clinrec/internal/bundle"
)

// PGSink writes audit events to the audit_event table. Events are written
// on the pool, outside any bundle transaction, so a rollback does not
// erase the trail of the rollback itself.
type PGSink struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPGSink(pool *pgxpool.Pool, logger zerolog.Logger) *PGSink {
	return &PGSink{pool: pool, logger: logger}
}

// Record implements bundle.AuditSink.
func (s *PGSink) Record(ctx context.Context, ev bundle.AuditEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_event (id, action, bundle_mode, entry_count, outcome, recorded)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), ev.Action, string(ev.Mode), ev.EntryCount, string(ev.Outcome), ev.Recorded)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// LogSink writes audit events to the structured log only. Used when no
// database is available (tests, dry runs).
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Record implements bundle.AuditSink.
func (s *LogSink) Record(_ context.Context, ev bundle.AuditEvent) error {
	s.logger.Info().
		Str("action", ev.Action).
		Str("mode", string(ev.Mode)).
		Int("entry_count", ev.EntryCount).
		Str("outcome", string(ev.Outcome)).
		Time("recorded", ev.Recorded).
		Msg("audit")
	return nil
}
