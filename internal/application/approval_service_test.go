package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/application"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/testfixtures"
)

// Pending+Accepted+Declined always equals Total.
func TestApprovalServiceEventSummary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	event := h.seed.Event()
	other := h.seed.Event()
	faculty := h.seed.Faculty()

	accepted, _ := h.seed.InvitedSession(event.ID, faculty)
	declined, _ := h.seed.InvitedSession(event.ID, faculty)
	pending, _ := h.seed.InvitedSession(event.ID, faculty)
	h.seed.InvitedSession(other.ID, faculty)

	if _, err := h.responses.Respond(ctx, application.RespondParams{
		SessionID: accepted.ID, InviteStatus: persistence.InviteStatusAccepted,
	}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := h.responses.Respond(ctx, application.RespondParams{
		SessionID: declined.ID, InviteStatus: persistence.InviteStatusDeclined, RejectionReason: persistence.RejectionNotInterested,
	}); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	h.factory.Clock.Advance(50 * time.Hour)

	summary, err := h.approvals.EventSummary(ctx, event.ID)
	if err != nil {
		t.Fatalf("EventSummary failed: %v", err)
	}
	if summary.Total != 3 || summary.Pending != 1 || summary.Accepted != 1 || summary.Declined != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.Pending+summary.Accepted+summary.Declined != summary.Total {
		t.Fatalf("counts do not add up: %+v", summary)
	}
	if summary.AcceptanceRate != 33.33 || summary.ResponseRate != 66.67 {
		t.Fatalf("unexpected rates: acceptance=%v response=%v", summary.AcceptanceRate, summary.ResponseRate)
	}
	if len(summary.PendingInvitations) != 1 {
		t.Fatalf("expected one pending invitation, got %+v", summary.PendingInvitations)
	}
	p := summary.PendingInvitations[0]
	if p.SessionID != pending.ID || p.Title != pending.Title || p.FacultyEmail != faculty.Email || p.DaysPending != 2 {
		t.Fatalf("unexpected pending invitation: %+v", p)
	}
}

func TestApprovalServiceEmptyEvent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	event := h.seed.Event()

	summary, err := h.approvals.EventSummary(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("EventSummary failed: %v", err)
	}
	if summary.Total != 0 || summary.AcceptanceRate != 0 || summary.ResponseRate != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.PendingInvitations == nil {
		t.Fatalf("pending invitations should be an empty slice")
	}

	if _, err := h.approvals.EventSummary(context.Background(), "missing"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApprovalServiceSessionSummary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	event := h.seed.Event()
	faculty := h.seed.Faculty()
	session, _ := h.seed.InvitedSession(event.ID, faculty)
	h.seed.InvitedSession(event.ID, faculty)

	summary, err := h.approvals.SessionSummary(ctx, session.ID)
	if err != nil {
		t.Fatalf("SessionSummary failed: %v", err)
	}
	if summary.Total != 1 || summary.Pending != 1 || summary.PendingInvitations[0].DaysPending != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if _, err := h.responses.Respond(ctx, application.RespondParams{
		SessionID: session.ID, InviteStatus: persistence.InviteStatusAccepted,
	}); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	summary, err = h.approvals.SessionSummary(ctx, session.ID)
	if err != nil {
		t.Fatalf("SessionSummary failed: %v", err)
	}
	if summary.AcceptanceRate != 100 || summary.ResponseRate != 100 || len(summary.PendingInvitations) != 0 {
		t.Fatalf("unexpected summary after accept: %+v", summary)
	}

	if _, err := h.approvals.SessionSummary(ctx, "missing"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApprovalServiceStorageFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	event := h.seed.Event()
	h.memStore(t).InjectFault("CountInvitationsByStatus", errors.New("boom"))

	_, err := h.approvals.EventSummary(context.Background(), event.ID)
	var txErr *application.TransactionError
	if !errors.As(err, &txErr) {
		t.Fatalf("expected TransactionError, got %v", err)
	}
}

func TestApprovalServiceIgnoresSessionsWithoutFaculty(t *testing.T) {
	t.Parallel()

	for _, backend := range testfixtures.StoreFactories() {
		t.Run(backend.Name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			h := newHarness(t, testfixtures.WithStore(backend.Open(t)))
			event := h.seed.Event()
			invited, _ := h.seed.InvitedSession(event.ID, h.seed.Faculty())
			if _, err := h.sessions.Create(ctx, application.CreateSessionParams{
				SessionID: "coffee-break",
				EventID:   event.ID,
				Title:     "Coffee break",
				StartsAt:  slot(11, 0),
				EndsAt:    slot(11, 30),
			}); err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			summary, err := h.approvals.EventSummary(ctx, event.ID)
			if err != nil {
				t.Fatalf("EventSummary failed: %v", err)
			}
			if summary.Total != 1 || summary.Pending != 1 {
				t.Fatalf("only the sent invitation may count: %+v", summary)
			}
			if len(summary.PendingInvitations) != 1 || summary.PendingInvitations[0].SessionID != invited.ID {
				t.Fatalf("unexpected pending invitations: %+v", summary.PendingInvitations)
			}

			summary, err = h.approvals.SessionSummary(ctx, "coffee-break")
			if err != nil {
				t.Fatalf("SessionSummary failed: %v", err)
			}
			if summary.Total != 0 || summary.ResponseRate != 0 || len(summary.PendingInvitations) != 0 {
				t.Fatalf("session without faculty has nothing to summarise: %+v", summary)
			}
		})
	}
}
