package persistence

import (
	"context"
	"time"
)

// EventRepository exposes event reference data.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
}

// RoomRepository exposes room reference data.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
}

// FacultyRepository stores faculty identities and their event memberships.
type FacultyRepository interface {
	CreateFaculty(ctx context.Context, faculty FacultyIdentity) error
	GetFaculty(ctx context.Context, id string) (FacultyIdentity, error)
	GetFacultyByEmail(ctx context.Context, email string) (FacultyIdentity, error)
	UpdateFacultyRole(ctx context.Context, id string, role FacultyRole, updatedAt time.Time) error
	// EnsureEventMembership inserts the membership unless it already exists and
	// reports whether a row was created.
	EnsureEventMembership(ctx context.Context, membership EventMembership) (bool, error)
	ListEventMemberships(ctx context.Context, eventID string) ([]EventMembership, error)
}

// SessionPatch carries a partial session update. Nil fields keep their stored value.
type SessionPatch struct {
	Title       *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	RoomID      *string
	ClearRoom   bool
	UpdatedAt   time.Time
}

// RoomSessionFilter selects sessions in a room that overlap a window.
type RoomSessionFilter struct {
	RoomID           string
	StartsAt         time.Time
	EndsAt           time.Time
	ExcludeSessionID string
}

// SessionRepository stores sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	// UpdateSession applies the patch and reports whether a row matched.
	UpdateSession(ctx context.Context, id string, patch SessionPatch) (bool, error)
	// DeleteSession reports whether a row was removed.
	DeleteSession(ctx context.Context, id string) (bool, error)
	ListEventSessions(ctx context.Context, eventID string) ([]Session, error)
	ListRoomSessions(ctx context.Context, filter RoomSessionFilter) ([]RoomSession, error)
}

// InvitationPatch carries organizer edits to the administrative invitation fields.
type InvitationPatch struct {
	Place         *string
	Status        *SessionStatus
	Travel        *bool
	Accommodation *bool
	UpdatedAt     time.Time
}

// InvitationResponse is the faculty decision applied with a compare-and-swap.
type InvitationResponse struct {
	Expected           InviteStatus
	InviteStatus       InviteStatus
	RejectionReason    *RejectionReason
	SuggestedTopic     *string
	SuggestedTimeStart *time.Time
	SuggestedTimeEnd   *time.Time
	OptionalQuery      *string
	RespondedAt        time.Time
}

// InvitationFilter narrows invitation reads to an event, a session, or a faculty.
// Rows without a faculty email were never sent and are never listed or counted.
type InvitationFilter struct {
	EventID          string
	SessionID        string
	FacultyID        string
	ExcludeSessionID string
}

// InvitationRepository stores session invitations.
type InvitationRepository interface {
	CreateInvitation(ctx context.Context, invitation SessionInvitation) error
	GetInvitation(ctx context.Context, sessionID string) (SessionInvitation, error)
	UpdateInvitationDetails(ctx context.Context, sessionID string, patch InvitationPatch) (bool, error)
	// RecordResponse updates the invite status only while it still equals
	// response.Expected and a faculty email is set. It reports whether the
	// swap happened.
	RecordResponse(ctx context.Context, sessionID string, response InvitationResponse) (bool, error)
	DeleteInvitation(ctx context.Context, sessionID string) (bool, error)
	ListInvitations(ctx context.Context, filter InvitationFilter) ([]EventInvitation, error)
	CountInvitationsByStatus(ctx context.Context, filter InvitationFilter) (StatusCounts, error)
}

// ActivityFilter narrows activity log reads.
type ActivityFilter struct {
	EventID   string
	SessionID string
}

// ActivityRepository appends and lists audit entries.
type ActivityRepository interface {
	AppendActivity(ctx context.Context, entry ActivityLog) error
	ListActivity(ctx context.Context, filter ActivityFilter) ([]ActivityLog, error)
}

// Queries is the full set of row operations. The same value type serves reads
// outside a transaction and writes inside one.
type Queries interface {
	EventRepository
	RoomRepository
	FacultyRepository
	SessionRepository
	InvitationRepository
	ActivityRepository
}

// Store owns the datastore handle and its transaction boundary.
type Store interface {
	// Queries returns row operations that run outside any transaction.
	Queries() Queries
	// WithTx runs fn inside one transaction. A non-nil error from fn rolls
	// back every write fn made.
	WithTx(ctx context.Context, fn func(q Queries) error) error
	Close() error
}
