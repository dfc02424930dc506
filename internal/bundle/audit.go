package bundle

import (
	"context"
	"time"
)

// Audit actions recorded at bundle lifecycle transitions.
const (
	AuditBundleStart    = "bundle.start"
	AuditBundleCommit   = "bundle.commit"
	AuditBundleRollback = "bundle.rollback"
)

// AuditEvent describes one bundle lifecycle transition for compliance
// logging.
type AuditEvent struct {
	Action     string
	Mode       Mode
	EntryCount int
	Outcome    BundleStatus // empty for bundle.start
	Recorded   time.Time
}

// AuditSink receives bundle lifecycle events. Recording is fire-and-forget:
// a sink failure must never fail the bundle operation.
type AuditSink interface {
	Record(ctx context.Context, ev AuditEvent) error
}

// NopAuditSink discards all events.
type NopAuditSink struct{}

func (NopAuditSink) Record(context.Context, AuditEvent) error { return nil }
