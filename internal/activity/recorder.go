// Package activity writes the audit trail of invitation lifecycle transitions.
//
// Entries are written after the business transaction commits. A failed write
// is logged and dropped; it never reaches the caller.
package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/logging"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

// Audit actions.
const (
	ActionSessionCreated   = "SESSION_CREATED"
	ActionInvitationSent   = "INVITATION_SENT"
	ActionSessionUpdated   = "SESSION_UPDATED"
	ActionSessionDeleted   = "SESSION_DELETED"
	ActionResponseAccepted = "FACULTY_RESPONSE_ACCEPTED"
	ActionResponseDeclined = "FACULTY_RESPONSE_DECLINED"
)

// DefaultTimeout bounds a single audit write.
const DefaultTimeout = 2 * time.Second

// Entry is what callers know about a transition. The recorder adds the ID,
// the timestamp and the trace identifiers.
type Entry struct {
	EventID   string
	SessionID string
	ActorID   string
	ActorRole string
	Action    string
	Details   map[string]any
}

// Recorder appends audit entries outside any transaction.
type Recorder struct {
	sink        persistence.ActivityRepository
	idGenerator func() string
	now         func() time.Time
	timeout     time.Duration
	logger      *slog.Logger
}

// NewRecorder constructs a recorder writing to sink. Nil hooks fall back to
// uuid.NewString, time.Now and DefaultTimeout.
func NewRecorder(sink persistence.ActivityRepository, idGenerator func() string, now func() time.Time, timeout time.Duration, logger *slog.Logger) *Recorder {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{sink: sink, idGenerator: idGenerator, now: now, timeout: timeout, logger: logger}
}

// Record appends entry. It survives cancellation of ctx so a client hanging
// up after commit cannot drop the audit row.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.sink == nil {
		return
	}

	sc := trace.SpanContextFromContext(ctx)
	log := persistence.ActivityLog{
		ID:        r.idGenerator(),
		EventID:   entry.EventID,
		SessionID: entry.SessionID,
		ActorID:   entry.ActorID,
		ActorRole: entry.ActorRole,
		Action:    entry.Action,
		Details:   entry.Details,
		CreatedAt: r.now().UTC(),
	}
	if sc.IsValid() {
		log.TraceID = sc.TraceID().String()
		log.SpanID = sc.SpanID().String()
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if err := r.sink.AppendActivity(writeCtx, log); err != nil {
		logger := logging.FromContext(ctx)
		if logger == nil {
			logger = r.logger
		}
		logger.WarnContext(ctx, "failed to record activity",
			"action", entry.Action,
			"session_id", entry.SessionID,
			"error", err,
			"error_kind", "logging_failure",
		)
	}
}

// List returns audit entries oldest first.
func (r *Recorder) List(ctx context.Context, filter persistence.ActivityFilter) ([]persistence.ActivityLog, error) {
	return r.sink.ListActivity(ctx, filter)
}
