package persistence

import "time"

// EventStatus is the organizer controlled lifecycle of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "Draft"
	EventStatusPublished EventStatus = "Published"
	EventStatusOngoing   EventStatus = "Ongoing"
	EventStatusCompleted EventStatus = "Completed"
	EventStatusCancelled EventStatus = "Cancelled"
)

// FacultyRole tags a faculty identity. Organizer, EventManager and Admin are elevated.
type FacultyRole string

const (
	RoleFaculty      FacultyRole = "Faculty"
	RoleOrganizer    FacultyRole = "Organizer"
	RoleEventManager FacultyRole = "EventManager"
	RoleAdmin        FacultyRole = "Admin"
)

// Elevated reports whether the role must never be replaced by Faculty.
func (r FacultyRole) Elevated() bool {
	switch r {
	case RoleOrganizer, RoleEventManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// MembershipRoleSpeaker is the default role of an invited faculty inside an event.
const MembershipRoleSpeaker = "Speaker"

// SessionStatus tracks administrative completeness of a session's invitation.
type SessionStatus string

const (
	SessionStatusDraft     SessionStatus = "Draft"
	SessionStatusConfirmed SessionStatus = "Confirmed"
)

// InviteStatus is the faculty response state of an invitation.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "Pending"
	InviteStatusAccepted InviteStatus = "Accepted"
	InviteStatusDeclined InviteStatus = "Declined"
)

// RejectionReason categorises a declined invitation.
type RejectionReason string

const (
	RejectionNotInterested  RejectionReason = "NotInterested"
	RejectionSuggestedTopic RejectionReason = "SuggestedTopic"
	RejectionTimeConflict   RejectionReason = "TimeConflict"
)

// Event is the conference an organizer created. Read-only for this service.
type Event struct {
	ID        string
	Name      string
	Status    EventStatus
	StartsAt  time.Time
	EndsAt    time.Time
	Location  string
	CreatedAt time.Time
}

// Room represents a hall that sessions can be scheduled into.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	Location  string
	CreatedAt time.Time
}

// FacultyIdentity is an invited speaker, moderator or chair.
type FacultyIdentity struct {
	ID             string
	Email          string
	DisplayName    string
	Role           FacultyRole
	CredentialHash string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EventMembership associates a faculty identity with an event.
type EventMembership struct {
	EventID   string
	FacultyID string
	Role      string
	CreatedAt time.Time
}

// Session is a slot in the event programme. A nil RoomID means TBD.
type Session struct {
	ID          string
	EventID     string
	Title       string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
	RoomID      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionInvitation is the one-to-one invitation record of a session.
type SessionInvitation struct {
	SessionID          string
	FacultyID          *string
	FacultyEmail       string
	Place              string
	Status             SessionStatus
	InviteStatus       InviteStatus
	RejectionReason    *RejectionReason
	SuggestedTopic     *string
	SuggestedTimeStart *time.Time
	SuggestedTimeEnd   *time.Time
	OptionalQuery      *string
	Travel             bool
	Accommodation      bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
	RespondedAt        *time.Time
}

// ActivityLog is an audit trail entry for an invitation lifecycle transition.
type ActivityLog struct {
	ID        string
	EventID   string
	SessionID string
	ActorID   string
	ActorRole string
	Action    string
	Details   map[string]any
	TraceID   string
	SpanID    string
	CreatedAt time.Time
}

// RoomSession is a session scheduled in a room, joined with its invitation state.
type RoomSession struct {
	Session
	InviteStatus InviteStatus
}

// EventInvitation is an invitation joined with the title and schedule of its session.
type EventInvitation struct {
	SessionInvitation
	EventID       string
	SessionTitle  string
	SessionStarts time.Time
}

// StatusCounts groups invitations by invite status.
type StatusCounts map[InviteStatus]int
