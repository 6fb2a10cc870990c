// Package scheduler holds the pure room double-booking rules shared by every
// caller that needs to know whether a session window is free.
package scheduler

import (
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window has both bounds and Start < End.
func (w Window) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && w.Start.Before(w.End)
}

// Overlaps reports whether a and b share any instant. Windows that only
// touch at a boundary do not overlap.
func Overlaps(a, b Window) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Conflict is an existing session that would be double-booked by the candidate.
type Conflict struct {
	SessionID    string
	Title        string
	StartsAt     time.Time
	EndsAt       time.Time
	InviteStatus persistence.InviteStatus
}

// Blocks reports whether a session with the given invite status occupies its
// room. Declined sessions release the slot; Pending, Accepted, and sessions
// without an invitation keep it.
func Blocks(status persistence.InviteStatus) bool {
	return status != persistence.InviteStatusDeclined
}

// DetectRoomConflicts filters existing room occupants down to the ones that
// overlap candidate and still block the room. excludeSessionID is skipped so
// a session never conflicts with itself.
func DetectRoomConflicts(existing []persistence.RoomSession, candidate Window, excludeSessionID string) []Conflict {
	conflicts := make([]Conflict, 0)
	for _, session := range existing {
		if excludeSessionID != "" && session.ID == excludeSessionID {
			continue
		}
		if !Blocks(session.InviteStatus) {
			continue
		}
		if !Overlaps(candidate, Window{Start: session.StartsAt, End: session.EndsAt}) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			SessionID:    session.ID,
			Title:        session.Title,
			StartsAt:     session.StartsAt,
			EndsAt:       session.EndsAt,
			InviteStatus: session.InviteStatus,
		})
	}
	return conflicts
}
