package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/activity"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/application"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence/memory"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/testfixtures"
)

type harness struct {
	factory   *testfixtures.ServiceFactory
	store     persistence.Store
	seed      *testfixtures.Seed
	recorder  *activity.Recorder
	sessions  *application.SessionService
	responses *application.ResponseService
	approvals *application.ApprovalService
}

func newHarness(t *testing.T, opts ...testfixtures.ServiceFactoryOption) *harness {
	t.Helper()
	factory := testfixtures.NewServiceFactory(t, opts...)
	recorder := factory.Recorder()
	return &harness{
		factory:   factory,
		store:     factory.Store,
		seed:      factory.Seed(t),
		recorder:  recorder,
		sessions:  factory.Sessions(recorder),
		responses: factory.Responses(recorder),
		approvals: factory.Approvals(),
	}
}

func (h *harness) memStore(t *testing.T) *memory.Store {
	t.Helper()
	store, ok := h.store.(*memory.Store)
	if !ok {
		t.Fatalf("harness is not backed by the memory store")
	}
	return store
}

func (h *harness) actions(t *testing.T, sessionID string) []string {
	t.Helper()
	entries, err := h.recorder.List(context.Background(), persistence.ActivityFilter{SessionID: sessionID})
	if err != nil {
		t.Fatalf("List activity failed: %v", err)
	}
	actions := make([]string, 0, len(entries))
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

func slot(hour, minute int) time.Time {
	return time.Date(2025, time.September, 20, hour, minute, 0, 0, time.UTC)
}

func TestSessionServiceCreate(t *testing.T) {
	t.Parallel()

	t.Run("creates session, faculty, membership and pending invitation", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := newHarness(t)
		event := h.seed.Event()
		room := h.seed.Room()

		result, err := h.sessions.Create(ctx, application.CreateSessionParams{
			EventID:      event.ID,
			Title:        "  Opening keynote ",
			StartsAt:     slot(9, 0),
			EndsAt:       slot(10, 0),
			RoomID:       room.ID,
			FacultyEmail: " Ada.Lovelace@Example.EDU ",
			Place:        "Main hall",
			Travel:       true,
			Actor:        application.Actor{ID: "organizer-1", Role: "Organizer"},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		if result.Session.Title != "Opening keynote" {
			t.Fatalf("expected trimmed title, got %q", result.Session.Title)
		}
		if result.Invitation.InviteStatus != persistence.InviteStatusPending || result.Invitation.Status != persistence.SessionStatusDraft {
			t.Fatalf("unexpected invitation defaults: %+v", result.Invitation)
		}
		if result.Faculty == nil || !result.Faculty.Created || !result.Faculty.MembershipCreated {
			t.Fatalf("expected new faculty and membership, got %+v", result.Faculty)
		}
		if result.Faculty.Email != "ada.lovelace@example.edu" || result.Faculty.DisplayName != "Ada Lovelace" {
			t.Fatalf("unexpected faculty identity: %+v", result.Faculty)
		}

		q := h.store.Queries()
		stored, err := q.GetInvitation(ctx, result.SessionID)
		if err != nil {
			t.Fatalf("GetInvitation failed: %v", err)
		}
		if stored.FacultyID == nil || *stored.FacultyID != result.Faculty.FacultyID || !stored.Travel {
			t.Fatalf("unexpected stored invitation: %+v", stored)
		}
		identity, err := q.GetFaculty(ctx, result.Faculty.FacultyID)
		if err != nil {
			t.Fatalf("GetFaculty failed: %v", err)
		}
		if identity.CredentialHash == "" {
			t.Fatalf("expected placeholder credential on provisioned faculty")
		}

		if got := h.actions(t, result.SessionID); len(got) != 1 || got[0] != activity.ActionInvitationSent {
			t.Fatalf("expected INVITATION_SENT, got %v", got)
		}
	})

	t.Run("session without faculty still gets an invitation row", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := newHarness(t)
		event := h.seed.Event()

		result, err := h.sessions.Create(ctx, application.CreateSessionParams{
			SessionID: "plenary",
			EventID:   event.ID,
			Title:     "Plenary",
			StartsAt:  slot(9, 0),
			EndsAt:    slot(10, 0),
			Status:    persistence.SessionStatusConfirmed,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if result.SessionID != "plenary" || result.Faculty != nil {
			t.Fatalf("unexpected result: %+v", result)
		}
		invitation, err := h.sessions.GetInvitation(ctx, "plenary")
		if err != nil {
			t.Fatalf("GetInvitation failed: %v", err)
		}
		if invitation.FacultyID != nil || invitation.Status != persistence.SessionStatusConfirmed {
			t.Fatalf("unexpected invitation: %+v", invitation)
		}
		if got := h.actions(t, "plenary"); len(got) != 1 || got[0] != activity.ActionSessionCreated {
			t.Fatalf("expected SESSION_CREATED, got %v", got)
		}
	})

	t.Run("validation failures write nothing", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := newHarness(t)
		event := h.seed.Event()

		cases := []struct {
			name   string
			params application.CreateSessionParams
			field  string
		}{
			{"missing title", application.CreateSessionParams{EventID: event.ID, StartsAt: slot(9, 0), EndsAt: slot(10, 0)}, "title"},
			{"inverted window", application.CreateSessionParams{EventID: event.ID, Title: "x", StartsAt: slot(10, 0), EndsAt: slot(9, 0)}, "end"},
			{"missing end", application.CreateSessionParams{EventID: event.ID, Title: "x", StartsAt: slot(10, 0)}, "end"},
			{"bad email", application.CreateSessionParams{EventID: event.ID, Title: "x", StartsAt: slot(9, 0), EndsAt: slot(10, 0), FacultyEmail: "not-an-email"}, "faculty_email"},
			{"bad status", application.CreateSessionParams{EventID: event.ID, Title: "x", StartsAt: slot(9, 0), EndsAt: slot(10, 0), Status: "Final"}, "status"},
		}
		for _, tc := range cases {
			_, err := h.sessions.Create(ctx, tc.params)
			var vErr *application.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("%s: expected error on %s, got %v", tc.name, tc.field, vErr.FieldErrors)
			}
		}

		sessions, err := h.sessions.ListEventSessions(ctx, event.ID)
		if err != nil || len(sessions) != 0 {
			t.Fatalf("expected no sessions, got %+v, %v", sessions, err)
		}
	})

	t.Run("unknown event and room", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := newHarness(t)
		event := h.seed.Event()

		_, err := h.sessions.Create(ctx, application.CreateSessionParams{
			EventID: "missing", Title: "x", StartsAt: slot(9, 0), EndsAt: slot(10, 0),
		})
		if !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for event, got %v", err)
		}

		_, err = h.sessions.Create(ctx, application.CreateSessionParams{
			EventID: event.ID, Title: "x", StartsAt: slot(9, 0), EndsAt: slot(10, 0), RoomID: "nowhere",
		})
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["room_id"] != "room does not exist" {
			t.Fatalf("expected room validation error, got %v", err)
		}
	})

	t.Run("conflict check rejects overlapping booking", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		h := newHarness(t)
		event := h.seed.Event()
		room := h.seed.Room()
		existing := h.seed.Session(event.ID,
			testfixtures.WithSessionRoom(room.ID),
			testfixtures.WithSessionWindow(slot(10, 0), slot(11, 0)))

		_, err := h.sessions.Create(ctx, application.CreateSessionParams{
			EventID: event.ID, Title: "Clash", StartsAt: slot(10, 30), EndsAt: slot(11, 30),
			RoomID: room.ID, CheckConflicts: true,
		})
		var conflict *application.ConflictError
		if !errors.As(err, &conflict) || !errors.Is(err, application.ErrConflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].SessionID != existing.ID {
			t.Fatalf("unexpected conflicts: %+v", conflict.Conflicts)
		}

		if _, err := h.sessions.Create(ctx, application.CreateSessionParams{
			EventID: event.ID, Title: "Adjacent", StartsAt: slot(11, 0), EndsAt: slot(12, 0),
			RoomID: room.ID, CheckConflicts: true,
		}); err != nil {
			t.Fatalf("adjacent slot must be free: %v", err)
		}
	})
}

// A storage failure on the invitation insert rolls back the session insert.
func TestSessionServiceCreateIsAtomic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	event := h.seed.Event()
	h.memStore(t).InjectFault("CreateInvitation", errors.New("disk full"))

	_, err := h.sessions.Create(ctx, application.CreateSessionParams{
		SessionID:    "doomed",
		EventID:      event.ID,
		Title:        "Doomed",
		StartsAt:     slot(9, 0),
		EndsAt:       slot(10, 0),
		FacultyEmail: "new.speaker@example.edu",
	})
	var txErr *application.TransactionError
	if !errors.As(err, &txErr) || !txErr.Retryable() {
		t.Fatalf("expected retryable TransactionError, got %v", err)
	}

	if _, err := h.sessions.GetSession(ctx, "doomed"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("session survived rollback: %v", err)
	}
	if _, err := h.store.Queries().GetFacultyByEmail(ctx, "new.speaker@example.edu"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("faculty survived rollback: %v", err)
	}
	memberships, _ := h.store.Queries().ListEventMemberships(ctx, event.ID)
	if len(memberships) != 0 {
		t.Fatalf("membership survived rollback: %+v", memberships)
	}
	if got := h.actions(t, "doomed"); len(got) != 0 {
		t.Fatalf("no activity expected for a rolled back create, got %v", got)
	}
}

func TestSessionServiceCreateIgnoresActivityFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	event := h.seed.Event()
	h.memStore(t).InjectFault("AppendActivity", errors.New("audit table locked"))

	result, err := h.sessions.Create(context.Background(), application.CreateSessionParams{
		EventID: event.ID, Title: "Still created", StartsAt: slot(9, 0), EndsAt: slot(10, 0),
	})
	if err != nil {
		t.Fatalf("activity failure must not fail Create: %v", err)
	}
	if _, err := h.sessions.GetSession(context.Background(), result.SessionID); err != nil {
		t.Fatalf("session missing: %v", err)
	}
}

func TestSessionServiceUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	event := h.seed.Event()
	roomA := h.seed.Room()
	roomB := h.seed.Room()
	faculty := h.seed.Faculty()

	target, _ := h.seed.InvitedSession(event.ID, faculty,
		testfixtures.WithSessionRoom(roomA.ID),
		testfixtures.WithSessionWindow(slot(9, 0), slot(10, 0)))
	h.seed.Session(event.ID,
		testfixtures.WithSessionRoom(roomB.ID),
		testfixtures.WithSessionWindow(slot(9, 30), slot(10, 30)))

	t.Run("extending within own slot does not conflict with itself", func(t *testing.T) {
		end := slot(10, 15)
		updated, err := h.sessions.Update(ctx, application.UpdateSessionParams{
			SessionID: target.ID, EndsAt: &end, CheckConflicts: true,
		})
		if err != nil || !updated {
			t.Fatalf("Update = %v, %v", updated, err)
		}
	})

	t.Run("moving into a busy room conflicts", func(t *testing.T) {
		_, err := h.sessions.Update(ctx, application.UpdateSessionParams{
			SessionID: target.ID, RoomID: &roomB.ID, CheckConflicts: true,
		})
		if !errors.Is(err, application.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("merged window must stay ordered", func(t *testing.T) {
		start := slot(11, 0)
		_, err := h.sessions.Update(ctx, application.UpdateSessionParams{SessionID: target.ID, StartsAt: &start})
		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("partial update keeps other fields and invite status", func(t *testing.T) {
		title := "Renamed"
		place := "Annex"
		confirmed := persistence.SessionStatusConfirmed
		updated, err := h.sessions.Update(ctx, application.UpdateSessionParams{
			SessionID: target.ID, Title: &title, Place: &place, Status: &confirmed, ClearRoom: true,
			Actor: application.Actor{ID: "organizer-1", Role: "Organizer"},
		})
		if err != nil || !updated {
			t.Fatalf("Update = %v, %v", updated, err)
		}

		session, _ := h.sessions.GetSession(ctx, target.ID)
		if session.Title != "Renamed" || session.RoomID != nil || !session.EndsAt.Equal(slot(10, 15)) {
			t.Fatalf("unexpected session: %+v", session)
		}
		invitation, _ := h.sessions.GetInvitation(ctx, target.ID)
		if invitation.Place != "Annex" || invitation.Status != confirmed || invitation.InviteStatus != persistence.InviteStatusPending {
			t.Fatalf("unexpected invitation: %+v", invitation)
		}
	})

	t.Run("unknown session reports false", func(t *testing.T) {
		title := "x"
		updated, err := h.sessions.Update(ctx, application.UpdateSessionParams{SessionID: "missing", Title: &title})
		if err != nil || updated {
			t.Fatalf("Update = %v, %v", updated, err)
		}
	})

	got := h.actions(t, target.ID)
	if len(got) != 2 || got[0] != activity.ActionSessionUpdated || got[1] != activity.ActionSessionUpdated {
		t.Fatalf("expected two SESSION_UPDATED entries, got %v", got)
	}
}

// Deleting a session removes its invitation in the same transaction.
func TestSessionServiceDeleteCascades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	event := h.seed.Event()
	faculty := h.seed.Faculty()
	session, _ := h.seed.InvitedSession(event.ID, faculty)

	deleted, err := h.sessions.Delete(ctx, application.DeleteSessionParams{
		SessionID: session.ID, ActingUserID: "admin-1", ActingUserRole: "Admin",
	})
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}

	if _, err := h.sessions.GetInvitation(ctx, session.ID); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for invitation, got %v", err)
	}
	if _, err := h.sessions.GetSession(ctx, session.ID); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for session, got %v", err)
	}

	entries, _ := h.recorder.List(ctx, persistence.ActivityFilter{SessionID: session.ID})
	if len(entries) != 1 || entries[0].Action != activity.ActionSessionDeleted || entries[0].ActorRole != "Admin" {
		t.Fatalf("unexpected activity: %+v", entries)
	}

	deleted, err = h.sessions.Delete(ctx, application.DeleteSessionParams{SessionID: session.ID})
	if err != nil || deleted {
		t.Fatalf("second Delete = %v, %v", deleted, err)
	}
}

func TestSessionServiceListEventSessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	event := h.seed.Event()
	late := h.seed.Session(event.ID, testfixtures.WithSessionWindow(slot(15, 0), slot(16, 0)))
	early := h.seed.Session(event.ID, testfixtures.WithSessionWindow(slot(8, 0), slot(9, 0)))

	sessions, err := h.sessions.ListEventSessions(ctx, event.ID)
	if err != nil {
		t.Fatalf("ListEventSessions failed: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != early.ID || sessions[1].ID != late.ID {
		t.Fatalf("unexpected order: %+v", sessions)
	}

	if _, err := h.sessions.ListEventSessions(ctx, "missing"); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionServiceOnSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t, testfixtures.WithStore(testfixtures.NewSQLiteStore(t)))
	event := h.seed.Event()
	room := h.seed.Room()

	result, err := h.sessions.Create(ctx, application.CreateSessionParams{
		EventID: event.ID, Title: "SQLite", StartsAt: slot(9, 0), EndsAt: slot(10, 0),
		RoomID: room.ID, FacultyEmail: "b@x.edu", CheckConflicts: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = h.sessions.Create(ctx, application.CreateSessionParams{
		EventID: event.ID, Title: "Clash", StartsAt: slot(9, 30), EndsAt: slot(10, 30),
		RoomID: room.ID, CheckConflicts: true,
	})
	if !errors.Is(err, application.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	deleted, err := h.sessions.Delete(ctx, application.DeleteSessionParams{SessionID: result.SessionID})
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	if _, err := h.sessions.GetInvitation(ctx, result.SessionID); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionServiceWindowsUseMillisecondPrecision(t *testing.T) {
	t.Parallel()

	for _, backend := range testfixtures.StoreFactories() {
		t.Run(backend.Name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			h := newHarness(t, testfixtures.WithStore(backend.Open(t)))
			event := h.seed.Event()
			room := h.seed.Room()

			_, err := h.sessions.Create(ctx, application.CreateSessionParams{
				EventID:  event.ID,
				Title:    "Blink",
				StartsAt: slot(9, 0).Add(100 * time.Microsecond),
				EndsAt:   slot(9, 0).Add(900 * time.Microsecond),
			})
			var vErr *application.ValidationError
			if !errors.As(err, &vErr) || vErr.FieldErrors["end"] != "must be after start" {
				t.Fatalf("expected window validation error, got %v", err)
			}

			morning, err := h.sessions.Create(ctx, application.CreateSessionParams{
				EventID:  event.ID,
				Title:    "Morning",
				StartsAt: slot(9, 0),
				EndsAt:   slot(10, 0).Add(400 * time.Microsecond),
				RoomID:   room.ID,
			})
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			stored, err := h.sessions.GetSession(ctx, morning.SessionID)
			if err != nil {
				t.Fatalf("GetSession failed: %v", err)
			}
			if !stored.EndsAt.Equal(slot(10, 0)) {
				t.Fatalf("expected end truncated to 10:00, got %v", stored.EndsAt)
			}

			// After truncation the two windows only touch.
			if _, err := h.sessions.Create(ctx, application.CreateSessionParams{
				EventID:        event.ID,
				Title:          "Late morning",
				StartsAt:       slot(10, 0).Add(200 * time.Microsecond),
				EndsAt:         slot(11, 0),
				RoomID:         room.ID,
				CheckConflicts: true,
			}); err != nil {
				t.Fatalf("touching windows must not conflict: %v", err)
			}

			_, err = h.factory.Conflicts().Check(ctx, application.ConflictCheckParams{
				RoomID:   room.ID,
				StartsAt: slot(12, 0).Add(time.Microsecond),
				EndsAt:   slot(12, 0).Add(999 * time.Microsecond),
			})
			if !errors.As(err, &vErr) {
				t.Fatalf("expected conflict check validation error, got %v", err)
			}

			end := slot(9, 0).Add(500 * time.Microsecond)
			_, err = h.sessions.Update(ctx, application.UpdateSessionParams{SessionID: morning.SessionID, EndsAt: &end})
			if !errors.As(err, &vErr) {
				t.Fatalf("expected update validation error, got %v", err)
			}
		})
	}
}
