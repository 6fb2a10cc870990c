package scheduler

import (
	"testing"
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, time.September, 20, hour, minute, 0, 0, time.UTC)
}

func TestOverlapsIsSymmetricAndHalfOpen(t *testing.T) {
	a := Window{Start: at(10, 0), End: at(11, 0)}
	b := Window{Start: at(10, 30), End: at(11, 30)}
	c := Window{Start: at(11, 0), End: at(12, 0)}

	cases := []struct {
		name string
		x, y Window
		want bool
	}{
		{"A overlaps B", a, b, true},
		{"B overlaps A", b, a, true},
		{"A touches C", a, c, false},
		{"C touches A", c, a, false},
		{"B overlaps C", b, c, true},
		{"contained window", a, Window{Start: at(10, 15), End: at(10, 45)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.x, tc.y); got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWindowValid(t *testing.T) {
	if !(Window{Start: at(9, 0), End: at(10, 0)}).Valid() {
		t.Fatal("expected ordered window to be valid")
	}
	if (Window{Start: at(10, 0), End: at(10, 0)}).Valid() {
		t.Fatal("expected empty window to be invalid")
	}
	if (Window{End: at(10, 0)}).Valid() {
		t.Fatal("expected missing start to be invalid")
	}
}

func TestDetectRoomConflicts(t *testing.T) {
	room := "room-1"
	existing := []persistence.RoomSession{
		{Session: persistence.Session{ID: "pending", Title: "P", StartsAt: at(10, 0), EndsAt: at(11, 0), RoomID: &room},
			InviteStatus: persistence.InviteStatusPending},
		{Session: persistence.Session{ID: "accepted", Title: "A", StartsAt: at(10, 30), EndsAt: at(11, 30), RoomID: &room},
			InviteStatus: persistence.InviteStatusAccepted},
		{Session: persistence.Session{ID: "declined", Title: "D", StartsAt: at(10, 0), EndsAt: at(11, 0), RoomID: &room},
			InviteStatus: persistence.InviteStatusDeclined},
		{Session: persistence.Session{ID: "uninvited", Title: "U", StartsAt: at(10, 45), EndsAt: at(11, 15), RoomID: &room}},
		{Session: persistence.Session{ID: "later", Title: "L", StartsAt: at(11, 30), EndsAt: at(12, 0), RoomID: &room},
			InviteStatus: persistence.InviteStatusPending},
	}

	t.Run("declined sessions release the room", func(t *testing.T) {
		got := DetectRoomConflicts(existing, Window{Start: at(10, 0), End: at(11, 0)}, "")
		ids := make([]string, 0, len(got))
		for _, c := range got {
			ids = append(ids, c.SessionID)
		}
		want := []string{"pending", "accepted", "uninvited"}
		if len(ids) != len(want) {
			t.Fatalf("got %v, want %v", ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Fatalf("got %v, want %v", ids, want)
			}
		}
	})

	t.Run("excluded session never conflicts with itself", func(t *testing.T) {
		got := DetectRoomConflicts(existing[:1], Window{Start: at(10, 0), End: at(11, 0)}, "pending")
		if len(got) != 0 {
			t.Fatalf("expected no conflicts, got %+v", got)
		}
	})

	t.Run("touching boundary is free", func(t *testing.T) {
		got := DetectRoomConflicts(existing, Window{Start: at(12, 0), End: at(13, 0)}, "")
		if len(got) != 0 {
			t.Fatalf("expected no conflicts, got %+v", got)
		}
	})
}
