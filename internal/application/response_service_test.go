package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/activity"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/application"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/testfixtures"
)

func ptr[T any](v T) *T { return &v }

func createInvitedSession(t *testing.T, h *harness, email string) application.CreateSessionResult {
	t.Helper()
	event := h.seed.Event()
	room := h.seed.Room(testfixtures.WithRoomName("R1"))
	result, err := h.sessions.Create(context.Background(), application.CreateSessionParams{
		SessionID:    "S1",
		EventID:      event.ID,
		Title:        "Cardiology update",
		StartsAt:     slot(9, 0),
		EndsAt:       slot(10, 0),
		RoomID:       room.ID,
		FacultyEmail: email,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return result
}

func TestResponseServiceDeclineThenAccept(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	created := createInvitedSession(t, h, "a@x.edu")

	declined, err := h.responses.Respond(ctx, application.RespondParams{
		SessionID:          created.SessionID,
		InviteStatus:       persistence.InviteStatusDeclined,
		RejectionReason:    persistence.RejectionTimeConflict,
		SuggestedTimeStart: ptr(slot(14, 0)),
		SuggestedTimeEnd:   ptr(slot(15, 0)),
		Actor:              application.Actor{ID: created.Faculty.FacultyID, Role: "Faculty"},
	})
	if err != nil {
		t.Fatalf("decline failed: %v", err)
	}
	if !declined.Changed || declined.Invitation.InviteStatus != persistence.InviteStatusDeclined {
		t.Fatalf("unexpected decline result: %+v", declined)
	}
	inv := declined.Invitation
	if inv.RejectionReason == nil || *inv.RejectionReason != persistence.RejectionTimeConflict {
		t.Fatalf("unexpected rejection reason: %v", inv.RejectionReason)
	}
	if inv.SuggestedTimeStart == nil || !inv.SuggestedTimeStart.Equal(slot(14, 0)) || inv.RespondedAt == nil {
		t.Fatalf("decline details not stored: %+v", inv)
	}

	again, err := h.responses.Respond(ctx, application.RespondParams{
		SessionID:       created.SessionID,
		InviteStatus:    persistence.InviteStatusDeclined,
		RejectionReason: persistence.RejectionNotInterested,
	})
	if err != nil {
		t.Fatalf("repeated decline failed: %v", err)
	}
	if again.Changed || *again.Invitation.RejectionReason != persistence.RejectionTimeConflict {
		t.Fatalf("repeated decline must be a no-op, got %+v", again)
	}

	_, err = h.responses.Respond(ctx, application.RespondParams{
		SessionID:    created.SessionID,
		InviteStatus: persistence.InviteStatusAccepted,
	})
	var transition *application.InvalidTransitionError
	if !errors.As(err, &transition) || !errors.Is(err, application.ErrConflict) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transition.Current != persistence.InviteStatusDeclined || transition.Requested != persistence.InviteStatusAccepted {
		t.Fatalf("unexpected transition: %+v", transition)
	}

	got := h.actions(t, created.SessionID)
	want := []string{activity.ActionInvitationSent, activity.ActionResponseDeclined}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("activity = %v, want %v", got, want)
	}
}

// Once an invitation leaves Pending it cannot move to the other terminal status.
func TestResponseServiceTerminalStatusesAreFinal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	created := createInvitedSession(t, h, "b@x.edu")

	first, err := h.responses.Respond(ctx, application.RespondParams{
		SessionID:    created.SessionID,
		InviteStatus: persistence.InviteStatusAccepted,
	})
	if err != nil || !first.Changed {
		t.Fatalf("accept = %+v, %v", first, err)
	}
	if first.Invitation.RejectionReason != nil {
		t.Fatalf("accepted invitation must carry no rejection reason")
	}

	second, err := h.responses.Respond(ctx, application.RespondParams{
		SessionID:    created.SessionID,
		InviteStatus: persistence.InviteStatusAccepted,
	})
	if err != nil || second.Changed {
		t.Fatalf("repeated accept = %+v, %v", second, err)
	}

	_, err = h.responses.Respond(ctx, application.RespondParams{
		SessionID:       created.SessionID,
		InviteStatus:    persistence.InviteStatusDeclined,
		RejectionReason: persistence.RejectionNotInterested,
	})
	if !errors.Is(err, application.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	stored, _ := h.sessions.GetInvitation(ctx, created.SessionID)
	if stored.InviteStatus != persistence.InviteStatusAccepted {
		t.Fatalf("stored status changed to %s", stored.InviteStatus)
	}
}

func TestResponseServiceConcurrentResponses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	created := createInvitedSession(t, h, "c@x.edu")

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changed int
		failed  []error
	)
	for i := 0; i < workers; i++ {
		params := application.RespondParams{SessionID: created.SessionID, InviteStatus: persistence.InviteStatusAccepted}
		if i%2 == 1 {
			params.InviteStatus = persistence.InviteStatusDeclined
			params.RejectionReason = persistence.RejectionNotInterested
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.responses.Respond(ctx, params)
			mu.Lock()
			defer mu.Unlock()
			if err != nil && !errors.Is(err, application.ErrConflict) {
				failed = append(failed, err)
			}
			if res.Changed {
				changed++
			}
		}()
	}
	wg.Wait()

	if len(failed) > 0 {
		t.Fatalf("unexpected errors: %v", failed)
	}
	if changed != 1 {
		t.Fatalf("expected exactly one winning response, got %d", changed)
	}
	if got := h.actions(t, created.SessionID); len(got) != 2 {
		t.Fatalf("expected one response activity after the invitation, got %v", got)
	}
}

func TestResponseServiceValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)

	cases := []struct {
		name   string
		params application.RespondParams
		field  string
	}{
		{"missing session", application.RespondParams{InviteStatus: persistence.InviteStatusAccepted}, "session_id"},
		{"pending is not a response", application.RespondParams{SessionID: "s", InviteStatus: persistence.InviteStatusPending}, "invite_status"},
		{"decline without reason", application.RespondParams{SessionID: "s", InviteStatus: persistence.InviteStatusDeclined}, "rejection_reason"},
		{"unknown reason", application.RespondParams{SessionID: "s", InviteStatus: persistence.InviteStatusDeclined, RejectionReason: "Busy"}, "rejection_reason"},
		{
			"inverted suggestion",
			application.RespondParams{
				SessionID: "s", InviteStatus: persistence.InviteStatusDeclined, RejectionReason: persistence.RejectionTimeConflict,
				SuggestedTimeStart: ptr(slot(15, 0)), SuggestedTimeEnd: ptr(slot(14, 0)),
			},
			"suggested_time_end",
		},
	}
	for _, tc := range cases {
		_, err := h.responses.Respond(ctx, tc.params)
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if _, ok := vErr.FieldErrors[tc.field]; !ok {
			t.Fatalf("%s: expected error on %s, got %v", tc.name, tc.field, vErr.FieldErrors)
		}
	}
}

func TestResponseServiceUnknownSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.responses.Respond(context.Background(), application.RespondParams{
		SessionID:    "missing",
		InviteStatus: persistence.InviteStatusAccepted,
	})
	if !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResponseServiceSoftExpectationStillStores(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	created := createInvitedSession(t, h, "d@x.edu")

	res, err := h.responses.Respond(context.Background(), application.RespondParams{
		SessionID:       created.SessionID,
		InviteStatus:    persistence.InviteStatusDeclined,
		RejectionReason: persistence.RejectionSuggestedTopic,
	})
	if err != nil || !res.Changed {
		t.Fatalf("Respond = %+v, %v", res, err)
	}
	if res.Invitation.SuggestedTopic != nil {
		t.Fatalf("no topic was suggested")
	}
}

func TestResponseServiceStorageFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	created := createInvitedSession(t, h, "e@x.edu")
	h.memStore(t).InjectFault("RecordResponse", errors.New("io error"))

	_, err := h.responses.Respond(context.Background(), application.RespondParams{
		SessionID:    created.SessionID,
		InviteStatus: persistence.InviteStatusAccepted,
	})
	if !errors.Is(err, application.ErrTransactionFailed) {
		t.Fatalf("expected ErrTransactionFailed, got %v", err)
	}

	stored, _ := h.sessions.GetInvitation(context.Background(), created.SessionID)
	if stored.InviteStatus != persistence.InviteStatusPending {
		t.Fatalf("status must stay Pending, got %s", stored.InviteStatus)
	}
}

func TestResponseServiceOnSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, testfixtures.WithStore(testfixtures.NewSQLiteStore(t)))
	created := createInvitedSession(t, h, "a@x.edu")

	res, err := h.responses.Respond(ctx, application.RespondParams{
		SessionID:       created.SessionID,
		InviteStatus:    persistence.InviteStatusDeclined,
		RejectionReason: persistence.RejectionSuggestedTopic,
		SuggestedTopic:  ptr("  Heart failure  "),
	})
	if err != nil || !res.Changed {
		t.Fatalf("Respond = %+v, %v", res, err)
	}
	if res.Invitation.SuggestedTopic == nil || *res.Invitation.SuggestedTopic != "Heart failure" {
		t.Fatalf("unexpected suggested topic: %v", res.Invitation.SuggestedTopic)
	}

	_, err = h.responses.Respond(ctx, application.RespondParams{
		SessionID:    created.SessionID,
		InviteStatus: persistence.InviteStatusAccepted,
	})
	if !errors.Is(err, application.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestResponseServiceRejectsInvitationWithoutFaculty(t *testing.T) {
	t.Parallel()

	for _, backend := range testfixtures.StoreFactories() {
		t.Run(backend.Name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			h := newHarness(t, testfixtures.WithStore(backend.Open(t)))
			event := h.seed.Event()
			if _, err := h.sessions.Create(ctx, application.CreateSessionParams{
				SessionID: "tbd-speaker",
				EventID:   event.ID,
				Title:     "Speaker to be announced",
				StartsAt:  slot(9, 0),
				EndsAt:    slot(10, 0),
			}); err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			_, err := h.responses.Respond(ctx, application.RespondParams{
				SessionID:    "tbd-speaker",
				InviteStatus: persistence.InviteStatusAccepted,
			})
			if !errors.Is(err, application.ErrNotFound) {
				t.Fatalf("expected ErrNotFound for an invitation nobody received, got %v", err)
			}

			stored, err := h.sessions.GetInvitation(ctx, "tbd-speaker")
			if err != nil {
				t.Fatalf("GetInvitation failed: %v", err)
			}
			if stored.InviteStatus != persistence.InviteStatusPending || stored.RespondedAt != nil {
				t.Fatalf("invitation must stay untouched: %+v", stored)
			}
			if got := h.actions(t, "tbd-speaker"); len(got) != 1 || got[0] != activity.ActionSessionCreated {
				t.Fatalf("no response may be logged, got %v", got)
			}
		})
	}
}

func TestResponseServiceSuggestedWindowUsesMillisecondPrecision(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	created := createInvitedSession(t, h, "f@x.edu")

	_, err := h.responses.Respond(context.Background(), application.RespondParams{
		SessionID:          created.SessionID,
		InviteStatus:       persistence.InviteStatusDeclined,
		RejectionReason:    persistence.RejectionTimeConflict,
		SuggestedTimeStart: ptr(slot(14, 0).Add(200 * time.Microsecond)),
		SuggestedTimeEnd:   ptr(slot(14, 0).Add(700 * time.Microsecond)),
	})
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["suggested_time_end"] == "" {
		t.Fatalf("expected suggested window validation error, got %v", err)
	}
}
