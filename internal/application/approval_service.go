package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

// ApprovalService aggregates invitation responses for organizer dashboards.
type ApprovalService struct {
	store  persistence.Store
	now    func() time.Time
	logger *slog.Logger
}

// NewApprovalService constructs an approval service.
func NewApprovalService(store persistence.Store, now func() time.Time) *ApprovalService {
	return NewApprovalServiceWithLogger(store, now, nil)
}

// NewApprovalServiceWithLogger constructs an approval service with a specified logger.
func NewApprovalServiceWithLogger(store persistence.Store, now func() time.Time, logger *slog.Logger) *ApprovalService {
	if now == nil {
		now = time.Now
	}
	return &ApprovalService{store: store, now: now, logger: defaultLogger(logger)}
}

// EventSummary counts every invitation of an event.
func (s *ApprovalService) EventSummary(ctx context.Context, eventID string) (summary ApprovalSummary, err error) {
	ctx, span := startSpan(ctx, "ApprovalService", "EventSummary")
	defer func() { endSpan(span, err) }()

	q := s.store.Queries()
	if err = ensureEvent(ctx, q, eventID); err != nil {
		err = classifyStoreError("ApprovalService.EventSummary", err)
		s.logFailure(ctx, "EventSummary", err, "event_id", eventID)
		return
	}
	summary, err = s.summarize(ctx, q, persistence.InvitationFilter{EventID: eventID})
	if err != nil {
		err = classifyStoreError("ApprovalService.EventSummary", err)
		s.logFailure(ctx, "EventSummary", err, "event_id", eventID)
	}
	return
}

// SessionSummary counts the invitation of a single session.
func (s *ApprovalService) SessionSummary(ctx context.Context, sessionID string) (summary ApprovalSummary, err error) {
	ctx, span := startSpan(ctx, "ApprovalService", "SessionSummary")
	defer func() { endSpan(span, err) }()

	q := s.store.Queries()
	if _, err = q.GetSession(ctx, sessionID); err != nil {
		err = classifyStoreError("ApprovalService.SessionSummary", err)
		s.logFailure(ctx, "SessionSummary", err, "session_id", sessionID)
		return
	}
	summary, err = s.summarize(ctx, q, persistence.InvitationFilter{SessionID: sessionID})
	if err != nil {
		err = classifyStoreError("ApprovalService.SessionSummary", err)
		s.logFailure(ctx, "SessionSummary", err, "session_id", sessionID)
	}
	return
}

func (s *ApprovalService) summarize(ctx context.Context, q persistence.Queries, filter persistence.InvitationFilter) (ApprovalSummary, error) {
	counts, err := q.CountInvitationsByStatus(ctx, filter)
	if err != nil {
		return ApprovalSummary{}, fmt.Errorf("count invitations: %w", err)
	}

	summary := ApprovalSummary{
		Pending:            counts[persistence.InviteStatusPending],
		Accepted:           counts[persistence.InviteStatusAccepted],
		Declined:           counts[persistence.InviteStatusDeclined],
		PendingInvitations: []PendingInvitation{},
	}
	summary.Total = summary.Pending + summary.Accepted + summary.Declined
	summary.AcceptanceRate = percentage(summary.Accepted, summary.Total)
	summary.ResponseRate = percentage(summary.Accepted+summary.Declined, summary.Total)

	if summary.Pending == 0 {
		return summary, nil
	}

	invitations, err := q.ListInvitations(ctx, filter)
	if err != nil {
		return ApprovalSummary{}, fmt.Errorf("list invitations: %w", err)
	}
	now := s.now().UTC()
	for _, inv := range invitations {
		if inv.InviteStatus != persistence.InviteStatusPending {
			continue
		}
		summary.PendingInvitations = append(summary.PendingInvitations, PendingInvitation{
			SessionID:    inv.SessionID,
			Title:        inv.SessionTitle,
			FacultyEmail: inv.FacultyEmail,
			SentAt:       inv.CreatedAt,
			DaysPending:  daysBetween(inv.CreatedAt, now),
		})
	}
	return summary, nil
}

func (s *ApprovalService) logFailure(ctx context.Context, operation string, err error, attrs ...any) {
	serviceLogger(ctx, s.logger, "ApprovalService", operation, attrs...).
		ErrorContext(ctx, "failed to summarise approvals", "error", err, "error_kind", ErrorKind(err))
}

// percentage returns part/total as a percentage rounded to two decimals, or 0
// for an empty total.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*10000/float64(total)) / 100
}

// daysBetween counts whole elapsed days, never negative.
func daysBetween(sent, now time.Time) int {
	if !now.After(sent) {
		return 0
	}
	return int(now.Sub(sent) / (24 * time.Hour))
}
