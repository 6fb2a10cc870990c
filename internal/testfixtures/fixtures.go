package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

var (
	eventCounter   uint64
	roomCounter    uint64
	facultyCounter uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Event fixtures -----------------------------

// EventFixture is a deterministic conference record.
type EventFixture struct {
	ID       string
	Name     string
	Status   persistence.EventStatus
	StartsAt time.Time
	EndsAt   time.Time
	Location string
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a published three day event with optional overrides.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	fixture := EventFixture{
		ID:       fmt.Sprintf("event-%03d", idx),
		Name:     fmt.Sprintf("Conference %03d", idx),
		Status:   persistence.EventStatusPublished,
		StartsAt: referenceTime,
		EndsAt:   referenceTime.Add(72 * time.Hour),
		Location: "Main Campus",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) { f.ID = id }
}

// WithEventStatus overrides the lifecycle status.
func WithEventStatus(status persistence.EventStatus) EventOption {
	return func(f *EventFixture) { f.Status = status }
}

// Persistence converts the fixture into its stored form.
func (f EventFixture) Persistence() persistence.Event {
	return persistence.Event{
		ID:        f.ID,
		Name:      f.Name,
		Status:    f.Status,
		StartsAt:  f.StartsAt,
		EndsAt:    f.EndsAt,
		Location:  f.Location,
		CreatedAt: referenceTime.Add(-30 * 24 * time.Hour),
	}
}

// ----------------------------- Room fixtures ------------------------------

// RoomFixture is a deterministic hall record.
type RoomFixture struct {
	ID       string
	Name     string
	Capacity int
	Location string
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:       fmt.Sprintf("room-%03d", idx),
		Name:     fmt.Sprintf("Hall %03d", idx),
		Capacity: 120,
		Location: fmt.Sprintf("Block %d", idx%4+1),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) { f.ID = id }
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) { f.Name = name }
}

// Persistence converts the fixture into its stored form.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Capacity:  f.Capacity,
		Location:  f.Location,
		CreatedAt: referenceTime.Add(-30 * 24 * time.Hour),
	}
}

// ---------------------------- Faculty fixtures ----------------------------

// FacultyFixture is a deterministic faculty identity.
type FacultyFixture struct {
	ID          string
	Email       string
	DisplayName string
	Role        persistence.FacultyRole
}

// FacultyOption configures the generated faculty fixture.
type FacultyOption func(*FacultyFixture)

// NewFacultyFixture returns a plain Faculty identity with optional overrides.
func NewFacultyFixture(opts ...FacultyOption) FacultyFixture {
	idx := atomic.AddUint64(&facultyCounter, 1)
	id := fmt.Sprintf("faculty-%03d", idx)
	fixture := FacultyFixture{
		ID:          id,
		Email:       fmt.Sprintf("%s@example.edu", id),
		DisplayName: fmt.Sprintf("Dr. Faculty %03d", idx),
		Role:        persistence.RoleFaculty,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithFacultyID overrides the generated faculty ID.
func WithFacultyID(id string) FacultyOption {
	return func(f *FacultyFixture) { f.ID = id }
}

// WithFacultyEmail overrides the generated email address.
func WithFacultyEmail(email string) FacultyOption {
	return func(f *FacultyFixture) { f.Email = email }
}

// WithFacultyRole overrides the role tag.
func WithFacultyRole(role persistence.FacultyRole) FacultyOption {
	return func(f *FacultyFixture) { f.Role = role }
}

// Persistence converts the fixture into its stored form.
func (f FacultyFixture) Persistence() persistence.FacultyIdentity {
	created := referenceTime.Add(-7 * 24 * time.Hour)
	return persistence.FacultyIdentity{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Role:        f.Role,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture is a deterministic programme slot.
type SessionFixture struct {
	ID       string
	EventID  string
	Title    string
	StartsAt time.Time
	EndsAt   time.Time
	RoomID   *string
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a one hour TBD-room session for eventID.
func NewSessionFixture(eventID string, opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:       fmt.Sprintf("session-%03d", idx),
		EventID:  eventID,
		Title:    fmt.Sprintf("Session %03d", idx),
		StartsAt: referenceTime.Add(time.Hour),
		EndsAt:   referenceTime.Add(2 * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) { f.ID = id }
}

// WithSessionRoom places the session in a room.
func WithSessionRoom(roomID string) SessionOption {
	return func(f *SessionFixture) { f.RoomID = &roomID }
}

// WithSessionWindow overrides the scheduled window.
func WithSessionWindow(start, end time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.StartsAt = start
		f.EndsAt = end
	}
}

// Persistence converts the fixture into its stored form.
func (f SessionFixture) Persistence() persistence.Session {
	var roomID *string
	if f.RoomID != nil {
		id := *f.RoomID
		roomID = &id
	}
	return persistence.Session{
		ID:        f.ID,
		EventID:   f.EventID,
		Title:     f.Title,
		StartsAt:  f.StartsAt,
		EndsAt:    f.EndsAt,
		RoomID:    roomID,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

// Invitation returns a Draft/Pending invitation of the session for faculty.
func (f SessionFixture) Invitation(faculty persistence.FacultyIdentity) persistence.SessionInvitation {
	facultyID := faculty.ID
	return persistence.SessionInvitation{
		SessionID:    f.ID,
		FacultyID:    &facultyID,
		FacultyEmail: faculty.Email,
		Status:       persistence.SessionStatusDraft,
		InviteStatus: persistence.InviteStatusPending,
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
}

// ------------------------------- Seeding ----------------------------------

// Seed inserts reference data through q and fails the test on error.
type Seed struct {
	tb testing.TB
	q  persistence.Queries
}

// NewSeed binds seeding helpers to q.
func NewSeed(tb testing.TB, q persistence.Queries) *Seed {
	return &Seed{tb: tb, q: q}
}

// Event stores a new event fixture.
func (s *Seed) Event(opts ...EventOption) persistence.Event {
	s.tb.Helper()
	event := NewEventFixture(opts...).Persistence()
	if err := s.q.CreateEvent(context.Background(), event); err != nil {
		s.tb.Fatalf("seed event: %v", err)
	}
	return event
}

// Room stores a new room fixture.
func (s *Seed) Room(opts ...RoomOption) persistence.Room {
	s.tb.Helper()
	room := NewRoomFixture(opts...).Persistence()
	if err := s.q.CreateRoom(context.Background(), room); err != nil {
		s.tb.Fatalf("seed room: %v", err)
	}
	return room
}

// Faculty stores a new faculty fixture.
func (s *Seed) Faculty(opts ...FacultyOption) persistence.FacultyIdentity {
	s.tb.Helper()
	faculty := NewFacultyFixture(opts...).Persistence()
	if err := s.q.CreateFaculty(context.Background(), faculty); err != nil {
		s.tb.Fatalf("seed faculty: %v", err)
	}
	return faculty
}

// Session stores a new session fixture in eventID.
func (s *Seed) Session(eventID string, opts ...SessionOption) SessionFixture {
	s.tb.Helper()
	fixture := NewSessionFixture(eventID, opts...)
	if err := s.q.CreateSession(context.Background(), fixture.Persistence()); err != nil {
		s.tb.Fatalf("seed session: %v", err)
	}
	return fixture
}

// InvitedSession stores a session and its Pending invitation for faculty.
func (s *Seed) InvitedSession(eventID string, faculty persistence.FacultyIdentity, opts ...SessionOption) (SessionFixture, persistence.SessionInvitation) {
	s.tb.Helper()
	fixture := s.Session(eventID, opts...)
	invitation := fixture.Invitation(faculty)
	if err := s.q.CreateInvitation(context.Background(), invitation); err != nil {
		s.tb.Fatalf("seed invitation: %v", err)
	}
	return fixture, invitation
}
