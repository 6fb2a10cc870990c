// Package memory provides a map backed persistence.Store. Transactions are
// serialised and roll back by restoring a snapshot of the whole state.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

// Store is an in-memory persistence.Store.
type Store struct {
	mu     sync.Mutex
	state  *state
	faults map[string]error
}

type membershipKey struct {
	eventID   string
	facultyID string
}

type state struct {
	events      map[string]persistence.Event
	rooms       map[string]persistence.Room
	faculty     map[string]persistence.FacultyIdentity
	memberships map[membershipKey]persistence.EventMembership
	sessions    map[string]persistence.Session
	invitations map[string]persistence.SessionInvitation
	activity    []persistence.ActivityLog
}

var _ persistence.Store = (*Store)(nil)

// Open returns an empty Store.
func Open() *Store {
	return &Store{
		state: &state{
			events:      make(map[string]persistence.Event),
			rooms:       make(map[string]persistence.Room),
			faculty:     make(map[string]persistence.FacultyIdentity),
			memberships: make(map[membershipKey]persistence.EventMembership),
			sessions:    make(map[string]persistence.Session),
			invitations: make(map[string]persistence.SessionInvitation),
		},
		faults: make(map[string]error),
	}
}

// Close is a no-op for the in-memory implementation.
func (s *Store) Close() error {
	return nil
}

// InjectFault makes the next call of the named operation (for example
// "CreateInvitation") fail with err.
func (s *Store) InjectFault(operation string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[operation] = err
}

// Queries returns row operations that lock the store per call.
func (s *Store) Queries() persistence.Queries {
	return &queries{store: s}
}

// WithTx runs fn with exclusive access to the store and restores the previous
// state when fn fails or panics.
func (s *Store) WithTx(ctx context.Context, fn func(q persistence.Queries) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	q := &queries{store: s, inTx: true}
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
	}()

	if err = fn(q); err != nil {
		s.state = snapshot
		return err
	}
	if err = ctx.Err(); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// takeFault must be called with the store lock held.
func (s *Store) takeFault(operation string) error {
	err, ok := s.faults[operation]
	if !ok {
		return nil
	}
	delete(s.faults, operation)
	return err
}

type queries struct {
	store *Store
	inTx  bool
}

var _ persistence.Queries = (*queries)(nil)

func (q *queries) begin(operation string) (*state, func(), error) {
	release := func() {}
	if !q.inTx {
		q.store.mu.Lock()
		release = q.store.mu.Unlock
	}
	if err := q.store.takeFault(operation); err != nil {
		release()
		return nil, func() {}, err
	}
	return q.store.state, release, nil
}

// --- EventRepository ---

func (q *queries) CreateEvent(ctx context.Context, event persistence.Event) error {
	st, release, err := q.begin("CreateEvent")
	defer release()
	if err != nil {
		return err
	}
	if _, ok := st.events[event.ID]; ok {
		return persistence.ErrDuplicate
	}
	st.events[event.ID] = event
	return nil
}

func (q *queries) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	st, release, err := q.begin("GetEvent")
	defer release()
	if err != nil {
		return persistence.Event{}, err
	}
	event, ok := st.events[id]
	if !ok {
		return persistence.Event{}, persistence.ErrNotFound
	}
	return event, nil
}

// --- RoomRepository ---

func (q *queries) CreateRoom(ctx context.Context, room persistence.Room) error {
	st, release, err := q.begin("CreateRoom")
	defer release()
	if err != nil {
		return err
	}
	if _, ok := st.rooms[room.ID]; ok {
		return persistence.ErrDuplicate
	}
	st.rooms[room.ID] = room
	return nil
}

func (q *queries) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	st, release, err := q.begin("GetRoom")
	defer release()
	if err != nil {
		return persistence.Room{}, err
	}
	room, ok := st.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

// --- FacultyRepository ---

func (q *queries) CreateFaculty(ctx context.Context, faculty persistence.FacultyIdentity) error {
	st, release, err := q.begin("CreateFaculty")
	defer release()
	if err != nil {
		return err
	}
	if _, ok := st.faculty[faculty.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range st.faculty {
		if strings.EqualFold(existing.Email, faculty.Email) {
			return persistence.ErrDuplicate
		}
	}
	st.faculty[faculty.ID] = faculty
	return nil
}

func (q *queries) GetFaculty(ctx context.Context, id string) (persistence.FacultyIdentity, error) {
	st, release, err := q.begin("GetFaculty")
	defer release()
	if err != nil {
		return persistence.FacultyIdentity{}, err
	}
	faculty, ok := st.faculty[id]
	if !ok {
		return persistence.FacultyIdentity{}, persistence.ErrNotFound
	}
	return faculty, nil
}

func (q *queries) GetFacultyByEmail(ctx context.Context, email string) (persistence.FacultyIdentity, error) {
	st, release, err := q.begin("GetFacultyByEmail")
	defer release()
	if err != nil {
		return persistence.FacultyIdentity{}, err
	}
	for _, faculty := range st.faculty {
		if strings.EqualFold(faculty.Email, email) {
			return faculty, nil
		}
	}
	return persistence.FacultyIdentity{}, persistence.ErrNotFound
}

func (q *queries) UpdateFacultyRole(ctx context.Context, id string, role persistence.FacultyRole, updatedAt time.Time) error {
	st, release, err := q.begin("UpdateFacultyRole")
	defer release()
	if err != nil {
		return err
	}
	faculty, ok := st.faculty[id]
	if !ok {
		return persistence.ErrNotFound
	}
	faculty.Role = role
	faculty.UpdatedAt = updatedAt
	st.faculty[id] = faculty
	return nil
}

func (q *queries) EnsureEventMembership(ctx context.Context, membership persistence.EventMembership) (bool, error) {
	st, release, err := q.begin("EnsureEventMembership")
	defer release()
	if err != nil {
		return false, err
	}
	if _, ok := st.events[membership.EventID]; !ok {
		return false, persistence.ErrForeignKeyViolation
	}
	if _, ok := st.faculty[membership.FacultyID]; !ok {
		return false, persistence.ErrForeignKeyViolation
	}
	key := membershipKey{eventID: membership.EventID, facultyID: membership.FacultyID}
	if _, ok := st.memberships[key]; ok {
		return false, nil
	}
	st.memberships[key] = membership
	return true, nil
}

func (q *queries) ListEventMemberships(ctx context.Context, eventID string) ([]persistence.EventMembership, error) {
	st, release, err := q.begin("ListEventMemberships")
	defer release()
	if err != nil {
		return nil, err
	}
	memberships := make([]persistence.EventMembership, 0)
	for key, membership := range st.memberships {
		if key.eventID == eventID {
			memberships = append(memberships, membership)
		}
	}
	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].FacultyID < memberships[j].FacultyID
	})
	return memberships, nil
}

// --- SessionRepository ---

func (q *queries) CreateSession(ctx context.Context, session persistence.Session) error {
	st, release, err := q.begin("CreateSession")
	defer release()
	if err != nil {
		return err
	}
	if !session.StartsAt.Before(session.EndsAt) {
		return persistence.ErrConstraintViolation
	}
	if _, ok := st.sessions[session.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := st.events[session.EventID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if session.RoomID != nil {
		if _, ok := st.rooms[*session.RoomID]; !ok {
			return persistence.ErrForeignKeyViolation
		}
	}
	st.sessions[session.ID] = cloneSession(session)
	return nil
}

func (q *queries) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	st, release, err := q.begin("GetSession")
	defer release()
	if err != nil {
		return persistence.Session{}, err
	}
	session, ok := st.sessions[id]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return cloneSession(session), nil
}

func (q *queries) UpdateSession(ctx context.Context, id string, patch persistence.SessionPatch) (bool, error) {
	st, release, err := q.begin("UpdateSession")
	defer release()
	if err != nil {
		return false, err
	}
	session, ok := st.sessions[id]
	if !ok {
		return false, nil
	}
	if patch.Title != nil {
		session.Title = *patch.Title
	}
	if patch.Description != nil {
		session.Description = *patch.Description
	}
	if patch.StartsAt != nil {
		session.StartsAt = *patch.StartsAt
	}
	if patch.EndsAt != nil {
		session.EndsAt = *patch.EndsAt
	}
	switch {
	case patch.ClearRoom:
		session.RoomID = nil
	case patch.RoomID != nil:
		if _, ok := st.rooms[*patch.RoomID]; !ok {
			return false, persistence.ErrForeignKeyViolation
		}
		session.RoomID = cloneString(patch.RoomID)
	}
	if !session.StartsAt.Before(session.EndsAt) {
		return false, persistence.ErrConstraintViolation
	}
	session.UpdatedAt = patch.UpdatedAt
	st.sessions[id] = session
	return true, nil
}

func (q *queries) DeleteSession(ctx context.Context, id string) (bool, error) {
	st, release, err := q.begin("DeleteSession")
	defer release()
	if err != nil {
		return false, err
	}
	if _, ok := st.sessions[id]; !ok {
		return false, nil
	}
	if _, ok := st.invitations[id]; ok {
		return false, persistence.ErrForeignKeyViolation
	}
	delete(st.sessions, id)
	return true, nil
}

func (q *queries) ListEventSessions(ctx context.Context, eventID string) ([]persistence.Session, error) {
	st, release, err := q.begin("ListEventSessions")
	defer release()
	if err != nil {
		return nil, err
	}
	sessions := make([]persistence.Session, 0)
	for _, session := range st.sessions {
		if session.EventID == eventID {
			sessions = append(sessions, cloneSession(session))
		}
	}
	sortSessions(sessions)
	return sessions, nil
}

func (q *queries) ListRoomSessions(ctx context.Context, filter persistence.RoomSessionFilter) ([]persistence.RoomSession, error) {
	st, release, err := q.begin("ListRoomSessions")
	defer release()
	if err != nil {
		return nil, err
	}
	sessions := make([]persistence.Session, 0)
	for _, session := range st.sessions {
		if session.RoomID == nil || *session.RoomID != filter.RoomID {
			continue
		}
		if session.ID == filter.ExcludeSessionID {
			continue
		}
		if !session.StartsAt.Before(filter.EndsAt) || !filter.StartsAt.Before(session.EndsAt) {
			continue
		}
		sessions = append(sessions, cloneSession(session))
	}
	sortSessions(sessions)

	result := make([]persistence.RoomSession, 0, len(sessions))
	for _, session := range sessions {
		var status persistence.InviteStatus
		if invitation, ok := st.invitations[session.ID]; ok {
			status = invitation.InviteStatus
		}
		result = append(result, persistence.RoomSession{Session: session, InviteStatus: status})
	}
	return result, nil
}

// --- InvitationRepository ---

func (q *queries) CreateInvitation(ctx context.Context, invitation persistence.SessionInvitation) error {
	st, release, err := q.begin("CreateInvitation")
	defer release()
	if err != nil {
		return err
	}
	if _, ok := st.sessions[invitation.SessionID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if invitation.FacultyID != nil {
		if _, ok := st.faculty[*invitation.FacultyID]; !ok {
			return persistence.ErrForeignKeyViolation
		}
	}
	if _, ok := st.invitations[invitation.SessionID]; ok {
		return persistence.ErrDuplicate
	}
	st.invitations[invitation.SessionID] = cloneInvitation(invitation)
	return nil
}

func (q *queries) GetInvitation(ctx context.Context, sessionID string) (persistence.SessionInvitation, error) {
	st, release, err := q.begin("GetInvitation")
	defer release()
	if err != nil {
		return persistence.SessionInvitation{}, err
	}
	invitation, ok := st.invitations[sessionID]
	if !ok {
		return persistence.SessionInvitation{}, persistence.ErrNotFound
	}
	return cloneInvitation(invitation), nil
}

func (q *queries) UpdateInvitationDetails(ctx context.Context, sessionID string, patch persistence.InvitationPatch) (bool, error) {
	st, release, err := q.begin("UpdateInvitationDetails")
	defer release()
	if err != nil {
		return false, err
	}
	invitation, ok := st.invitations[sessionID]
	if !ok {
		return false, nil
	}
	if patch.Place != nil {
		invitation.Place = *patch.Place
	}
	if patch.Status != nil {
		invitation.Status = *patch.Status
	}
	if patch.Travel != nil {
		invitation.Travel = *patch.Travel
	}
	if patch.Accommodation != nil {
		invitation.Accommodation = *patch.Accommodation
	}
	invitation.UpdatedAt = patch.UpdatedAt
	st.invitations[sessionID] = invitation
	return true, nil
}

func (q *queries) RecordResponse(ctx context.Context, sessionID string, response persistence.InvitationResponse) (bool, error) {
	st, release, err := q.begin("RecordResponse")
	defer release()
	if err != nil {
		return false, err
	}
	invitation, ok := st.invitations[sessionID]
	if !ok || invitation.InviteStatus != response.Expected || invitation.FacultyEmail == "" {
		return false, nil
	}
	respondedAt := response.RespondedAt
	invitation.InviteStatus = response.InviteStatus
	invitation.RejectionReason = cloneReason(response.RejectionReason)
	invitation.SuggestedTopic = cloneString(response.SuggestedTopic)
	invitation.SuggestedTimeStart = cloneTime(response.SuggestedTimeStart)
	invitation.SuggestedTimeEnd = cloneTime(response.SuggestedTimeEnd)
	invitation.OptionalQuery = cloneString(response.OptionalQuery)
	invitation.RespondedAt = &respondedAt
	invitation.UpdatedAt = respondedAt
	st.invitations[sessionID] = invitation
	return true, nil
}

func (q *queries) DeleteInvitation(ctx context.Context, sessionID string) (bool, error) {
	st, release, err := q.begin("DeleteInvitation")
	defer release()
	if err != nil {
		return false, err
	}
	if _, ok := st.invitations[sessionID]; !ok {
		return false, nil
	}
	delete(st.invitations, sessionID)
	return true, nil
}

func (q *queries) ListInvitations(ctx context.Context, filter persistence.InvitationFilter) ([]persistence.EventInvitation, error) {
	st, release, err := q.begin("ListInvitations")
	defer release()
	if err != nil {
		return nil, err
	}
	return st.matchingInvitations(filter), nil
}

func (q *queries) CountInvitationsByStatus(ctx context.Context, filter persistence.InvitationFilter) (persistence.StatusCounts, error) {
	st, release, err := q.begin("CountInvitationsByStatus")
	defer release()
	if err != nil {
		return nil, err
	}
	counts := make(persistence.StatusCounts)
	for _, invitation := range st.matchingInvitations(filter) {
		counts[invitation.InviteStatus]++
	}
	return counts, nil
}

// --- ActivityRepository ---

func (q *queries) AppendActivity(ctx context.Context, entry persistence.ActivityLog) error {
	st, release, err := q.begin("AppendActivity")
	defer release()
	if err != nil {
		return err
	}
	for _, existing := range st.activity {
		if existing.ID == entry.ID {
			return persistence.ErrDuplicate
		}
	}
	st.activity = append(st.activity, cloneActivity(entry))
	return nil
}

func (q *queries) ListActivity(ctx context.Context, filter persistence.ActivityFilter) ([]persistence.ActivityLog, error) {
	st, release, err := q.begin("ListActivity")
	defer release()
	if err != nil {
		return nil, err
	}
	entries := make([]persistence.ActivityLog, 0)
	for _, entry := range st.activity {
		if filter.EventID != "" && entry.EventID != filter.EventID {
			continue
		}
		if filter.SessionID != "" && entry.SessionID != filter.SessionID {
			continue
		}
		entries = append(entries, cloneActivity(entry))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// --- Helpers ---

func (st *state) matchingInvitations(filter persistence.InvitationFilter) []persistence.EventInvitation {
	result := make([]persistence.EventInvitation, 0)
	for sessionID, invitation := range st.invitations {
		session, ok := st.sessions[sessionID]
		if !ok || invitation.FacultyEmail == "" {
			continue
		}
		if filter.EventID != "" && session.EventID != filter.EventID {
			continue
		}
		if filter.SessionID != "" && sessionID != filter.SessionID {
			continue
		}
		if filter.ExcludeSessionID != "" && sessionID == filter.ExcludeSessionID {
			continue
		}
		if filter.FacultyID != "" && (invitation.FacultyID == nil || *invitation.FacultyID != filter.FacultyID) {
			continue
		}
		result = append(result, persistence.EventInvitation{
			SessionInvitation: cloneInvitation(invitation),
			EventID:           session.EventID,
			SessionTitle:      session.Title,
			SessionStarts:     session.StartsAt,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].SessionID < result[j].SessionID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (st *state) clone() *state {
	out := &state{
		events:      make(map[string]persistence.Event, len(st.events)),
		rooms:       make(map[string]persistence.Room, len(st.rooms)),
		faculty:     make(map[string]persistence.FacultyIdentity, len(st.faculty)),
		memberships: make(map[membershipKey]persistence.EventMembership, len(st.memberships)),
		sessions:    make(map[string]persistence.Session, len(st.sessions)),
		invitations: make(map[string]persistence.SessionInvitation, len(st.invitations)),
		activity:    make([]persistence.ActivityLog, 0, len(st.activity)),
	}
	for id, event := range st.events {
		out.events[id] = event
	}
	for id, room := range st.rooms {
		out.rooms[id] = room
	}
	for id, faculty := range st.faculty {
		out.faculty[id] = faculty
	}
	for key, membership := range st.memberships {
		out.memberships[key] = membership
	}
	for id, session := range st.sessions {
		out.sessions[id] = cloneSession(session)
	}
	for id, invitation := range st.invitations {
		out.invitations[id] = cloneInvitation(invitation)
	}
	for _, entry := range st.activity {
		out.activity = append(out.activity, cloneActivity(entry))
	}
	return out
}

func sortSessions(sessions []persistence.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].StartsAt.Equal(sessions[j].StartsAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].StartsAt.Before(sessions[j].StartsAt)
	})
}

func cloneSession(session persistence.Session) persistence.Session {
	session.RoomID = cloneString(session.RoomID)
	return session
}

func cloneInvitation(invitation persistence.SessionInvitation) persistence.SessionInvitation {
	invitation.FacultyID = cloneString(invitation.FacultyID)
	invitation.RejectionReason = cloneReason(invitation.RejectionReason)
	invitation.SuggestedTopic = cloneString(invitation.SuggestedTopic)
	invitation.SuggestedTimeStart = cloneTime(invitation.SuggestedTimeStart)
	invitation.SuggestedTimeEnd = cloneTime(invitation.SuggestedTimeEnd)
	invitation.OptionalQuery = cloneString(invitation.OptionalQuery)
	invitation.RespondedAt = cloneTime(invitation.RespondedAt)
	return invitation
}

func cloneActivity(entry persistence.ActivityLog) persistence.ActivityLog {
	if entry.Details != nil {
		details := make(map[string]any, len(entry.Details))
		for key, value := range entry.Details {
			details[key] = value
		}
		entry.Details = details
	}
	return entry
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copy := *value
	return &copy
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copy := *value
	return &copy
}

func cloneReason(value *persistence.RejectionReason) *persistence.RejectionReason {
	if value == nil {
		return nil
	}
	copy := *value
	return &copy
}
