package application

import (
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

// Actor identifies who triggered an operation. It is recorded, never checked.
type Actor struct {
	ID   string
	Role string
}

// SessionConflict is an existing session overlapping a candidate window.
type SessionConflict struct {
	SessionID    string
	Title        string
	StartsAt     time.Time
	EndsAt       time.Time
	InviteStatus persistence.InviteStatus
}

// ConflictCheckParams describes a candidate room booking.
type ConflictCheckParams struct {
	RoomID           string
	StartsAt         time.Time
	EndsAt           time.Time
	ExcludeSessionID string
}

// ConflictReport is the outcome of a room availability check.
type ConflictReport struct {
	HasConflicts bool
	Conflicts    []SessionConflict
}

// ResolveFacultyParams identifies the faculty to attach to an event.
type ResolveFacultyParams struct {
	Email       string
	IDHint      string
	DisplayName string
	EventID     string
}

// FacultyResolution describes the identity a resolution settled on.
type FacultyResolution struct {
	FacultyID         string
	Email             string
	DisplayName       string
	Role              persistence.FacultyRole
	Created           bool
	MembershipCreated bool
}

// HistorySummary aggregates a faculty member's earlier invitations in an event.
type HistorySummary struct {
	Total        int
	Counts       persistence.StatusCounts
	MostFrequent persistence.InviteStatus
}

// CreateSessionParams carries the input of SessionService.Create.
type CreateSessionParams struct {
	SessionID      string
	EventID        string
	Title          string
	Description    string
	StartsAt       time.Time
	EndsAt         time.Time
	RoomID         string
	FacultyEmail   string
	FacultyIDHint  string
	FacultyName    string
	Place          string
	Status         persistence.SessionStatus
	Travel         bool
	Accommodation  bool
	CheckConflicts bool
	Actor          Actor
}

// CreateSessionResult is returned by SessionService.Create.
type CreateSessionResult struct {
	SessionID  string
	Session    persistence.Session
	Invitation persistence.SessionInvitation
	Faculty    *FacultyResolution
	History    HistorySummary
}

// UpdateSessionParams is a partial update. Nil fields keep their stored value.
type UpdateSessionParams struct {
	SessionID      string
	Title          *string
	Description    *string
	StartsAt       *time.Time
	EndsAt         *time.Time
	RoomID         *string
	ClearRoom      bool
	Place          *string
	Status         *persistence.SessionStatus
	Travel         *bool
	Accommodation  *bool
	CheckConflicts bool
	Actor          Actor
}

// DeleteSessionParams identifies the session to remove and who removed it.
type DeleteSessionParams struct {
	SessionID      string
	ActingUserID   string
	ActingUserRole string
}

// RespondParams is a faculty decision on an invitation.
type RespondParams struct {
	SessionID          string
	InviteStatus       persistence.InviteStatus
	RejectionReason    persistence.RejectionReason
	SuggestedTopic     *string
	SuggestedTimeStart *time.Time
	SuggestedTimeEnd   *time.Time
	OptionalQuery      *string
	Actor              Actor
}

// RespondResult reports the stored invitation and whether this call changed it.
type RespondResult struct {
	Invitation persistence.SessionInvitation
	Changed    bool
}

// PendingInvitation is an unanswered invitation on the organizer dashboard.
type PendingInvitation struct {
	SessionID    string
	Title        string
	FacultyEmail string
	SentAt       time.Time
	DaysPending  int
}

// ApprovalSummary counts invitations by response status.
type ApprovalSummary struct {
	Total              int
	Pending            int
	Accepted           int
	Declined           int
	AcceptanceRate     float64
	ResponseRate       float64
	PendingInvitations []PendingInvitation
}
