package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/activity"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/scheduler"
)

// ActivityRecorder writes audit entries after a transaction commits.
type ActivityRecorder interface {
	Record(ctx context.Context, entry activity.Entry)
}

// SessionService creates, edits and removes a session together with its
// invitation as one atomic unit.
type SessionService struct {
	store       persistence.Store
	conflicts   *ConflictService
	faculty     *FacultyResolver
	history     InvitationHistory
	activity    ActivityRecorder
	validate    *validator.Validate
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSessionService constructs a session service with the provided dependencies.
func NewSessionService(store persistence.Store, conflicts *ConflictService, faculty *FacultyResolver, recorder ActivityRecorder, idGenerator func() string, now func() time.Time) *SessionService {
	return NewSessionServiceWithLogger(store, conflicts, faculty, recorder, idGenerator, now, nil)
}

// NewSessionServiceWithLogger constructs a session service with a specified logger.
func NewSessionServiceWithLogger(store persistence.Store, conflicts *ConflictService, faculty *FacultyResolver, recorder ActivityRecorder, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SessionService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	if conflicts == nil {
		conflicts = NewConflictServiceWithLogger(store, logger)
	}
	if faculty == nil {
		faculty = NewFacultyResolverWithLogger(store, idGenerator, now, logger)
	}
	return &SessionService{
		store:       store,
		conflicts:   conflicts,
		faculty:     faculty,
		activity:    recorder,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

// Create validates input, then in one transaction inserts the session,
// resolves the faculty and inserts the invitation. Nothing is written when
// any step fails.
func (s *SessionService) Create(ctx context.Context, params CreateSessionParams) (result CreateSessionResult, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	ctx, span := startSpan(ctx, "SessionService", "Create",
		attribute.String("event_id", params.EventID),
		attribute.String("room_id", params.RoomID),
	)
	defer func() { endSpan(span, err) }()

	logger := s.loggerWith(ctx, "Create",
		"event_id", params.EventID,
		"actor_id", params.Actor.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session created",
			"session_id", result.SessionID,
			"invite_status", result.Invitation.InviteStatus,
			"history_total", result.History.Total,
			"history_most_frequent", result.History.MostFrequent,
		)
	}()

	params.Title = strings.TrimSpace(params.Title)
	params.EventID = strings.TrimSpace(params.EventID)
	params.RoomID = strings.TrimSpace(params.RoomID)
	params.FacultyEmail = normalizeEmail(params.FacultyEmail)
	params.StartsAt = storedTime(params.StartsAt)
	params.EndsAt = storedTime(params.EndsAt)
	if params.Status == "" {
		params.Status = persistence.SessionStatusDraft
	}
	if vErr := s.validateCreate(params); vErr.HasErrors() {
		err = vErr
		return
	}

	sessionID := strings.TrimSpace(params.SessionID)
	if sessionID == "" {
		sessionID = s.idGenerator()
	}
	now := s.now().UTC()

	session := persistence.Session{
		ID:          sessionID,
		EventID:     params.EventID,
		Title:       params.Title,
		Description: strings.TrimSpace(params.Description),
		StartsAt:    params.StartsAt,
		EndsAt:      params.EndsAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if params.RoomID != "" {
		roomID := params.RoomID
		session.RoomID = &roomID
	}

	var (
		invitation persistence.SessionInvitation
		faculty    *FacultyResolution
		history    HistorySummary
	)
	err = s.store.WithTx(ctx, func(q persistence.Queries) error {
		if err := ensureEvent(ctx, q, params.EventID); err != nil {
			return err
		}
		if err := ensureRoom(ctx, q, params.RoomID); err != nil {
			return err
		}
		if params.CheckConflicts {
			if err := s.rejectConflicts(ctx, q, params.RoomID, session.StartsAt, session.EndsAt, ""); err != nil {
				return err
			}
		}

		if err := q.CreateSession(ctx, session); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}

		faculty, history = nil, HistorySummary{Counts: persistence.StatusCounts{}}
		if params.FacultyEmail != "" {
			res, err := s.faculty.Resolve(ctx, q, ResolveFacultyParams{
				Email:       params.FacultyEmail,
				IDHint:      params.FacultyIDHint,
				DisplayName: params.FacultyName,
				EventID:     params.EventID,
			})
			if err != nil {
				return err
			}
			faculty = &res

			history, err = s.history.Summarize(ctx, q, res.FacultyID, params.EventID, sessionID)
			if err != nil {
				return err
			}
		}

		invitation = persistence.SessionInvitation{
			SessionID:     sessionID,
			FacultyEmail:  params.FacultyEmail,
			Place:         strings.TrimSpace(params.Place),
			Status:        params.Status,
			InviteStatus:  InitialInviteStatus(history),
			Travel:        params.Travel,
			Accommodation: params.Accommodation,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if faculty != nil {
			facultyID := faculty.FacultyID
			invitation.FacultyID = &facultyID
			invitation.FacultyEmail = faculty.Email
		}
		if err := q.CreateInvitation(ctx, invitation); err != nil {
			return fmt.Errorf("insert invitation: %w", err)
		}
		return nil
	})
	if err = classifyStoreError("SessionService.Create", err); err != nil {
		return
	}

	action := activity.ActionSessionCreated
	details := map[string]any{
		"title":         session.Title,
		"starts_at":     session.StartsAt.Format(time.RFC3339),
		"ends_at":       session.EndsAt.Format(time.RFC3339),
		"room_id":       params.RoomID,
		"status":        string(invitation.Status),
		"invite_status": string(invitation.InviteStatus),
	}
	if faculty != nil {
		action = activity.ActionInvitationSent
		details["faculty_id"] = faculty.FacultyID
		details["faculty_email"] = faculty.Email
		details["faculty_created"] = faculty.Created
		details["history_total"] = history.Total
	}
	s.record(ctx, activity.Entry{
		EventID:   session.EventID,
		SessionID: session.ID,
		ActorID:   params.Actor.ID,
		ActorRole: params.Actor.Role,
		Action:    action,
		Details:   details,
	})

	result = CreateSessionResult{
		SessionID:  session.ID,
		Session:    session,
		Invitation: invitation,
		Faculty:    faculty,
		History:    history,
	}
	return
}

// Update applies a partial change to the session and its invitation's
// administrative fields. It reports false when no session matched. The
// invite status is never touched here.
func (s *SessionService) Update(ctx context.Context, params UpdateSessionParams) (updated bool, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	ctx, span := startSpan(ctx, "SessionService", "Update", attribute.String("session_id", params.SessionID))
	defer func() { endSpan(span, err) }()

	logger := s.loggerWith(ctx, "Update",
		"session_id", params.SessionID,
		"actor_id", params.Actor.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session update finished", "updated", updated)
	}()

	params.StartsAt = storedTimePtr(params.StartsAt)
	params.EndsAt = storedTimePtr(params.EndsAt)
	if vErr := validateUpdate(params); vErr.HasErrors() {
		err = vErr
		return
	}

	var eventID string
	changes := map[string]any{}
	err = s.store.WithTx(ctx, func(q persistence.Queries) error {
		updated = false
		current, err := q.GetSession(ctx, params.SessionID)
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		eventID = current.EventID

		start, end := current.StartsAt, current.EndsAt
		if params.StartsAt != nil {
			start = *params.StartsAt
		}
		if params.EndsAt != nil {
			end = *params.EndsAt
		}
		if !start.Before(end) {
			return newValidationError("ends_at", "must be after starts_at")
		}

		roomID := ""
		if current.RoomID != nil {
			roomID = *current.RoomID
		}
		switch {
		case params.ClearRoom:
			roomID = ""
		case params.RoomID != nil:
			roomID = strings.TrimSpace(*params.RoomID)
			if err := ensureRoom(ctx, q, roomID); err != nil {
				return err
			}
		}

		if params.CheckConflicts {
			if err := s.rejectConflicts(ctx, q, roomID, start, end, current.ID); err != nil {
				return err
			}
		}

		now := s.now().UTC()
		patch := persistence.SessionPatch{
			Title:       trimmedPtr(params.Title),
			Description: trimmedPtr(params.Description),
			StartsAt:    params.StartsAt,
			EndsAt:      params.EndsAt,
			ClearRoom:   params.ClearRoom,
			UpdatedAt:   now,
		}
		if params.RoomID != nil && !params.ClearRoom {
			patch.RoomID = &roomID
		}
		ok, err := q.UpdateSession(ctx, current.ID, patch)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		if !ok {
			return nil
		}
		updated = true
		collectSessionChanges(changes, params)

		if params.Place != nil || params.Status != nil || params.Travel != nil || params.Accommodation != nil {
			if _, err := q.UpdateInvitationDetails(ctx, current.ID, persistence.InvitationPatch{
				Place:         trimmedPtr(params.Place),
				Status:        params.Status,
				Travel:        params.Travel,
				Accommodation: params.Accommodation,
				UpdatedAt:     now,
			}); err != nil {
				return fmt.Errorf("update invitation details: %w", err)
			}
		}
		return nil
	})
	if err = classifyStoreError("SessionService.Update", err); err != nil {
		updated = false
		return
	}

	if updated {
		s.record(ctx, activity.Entry{
			EventID:   eventID,
			SessionID: params.SessionID,
			ActorID:   params.Actor.ID,
			ActorRole: params.Actor.Role,
			Action:    activity.ActionSessionUpdated,
			Details:   changes,
		})
	}
	return
}

// Delete removes the invitation and then the session in one transaction and
// reports whether the session existed.
func (s *SessionService) Delete(ctx context.Context, params DeleteSessionParams) (deleted bool, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	ctx, span := startSpan(ctx, "SessionService", "Delete", attribute.String("session_id", params.SessionID))
	defer func() { endSpan(span, err) }()

	logger := s.loggerWith(ctx, "Delete",
		"session_id", params.SessionID,
		"actor_id", params.ActingUserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session delete finished", "deleted", deleted)
	}()

	if strings.TrimSpace(params.SessionID) == "" {
		err = newValidationError("session_id", "is required")
		return
	}

	var session persistence.Session
	err = s.store.WithTx(ctx, func(q persistence.Queries) error {
		deleted = false
		current, err := q.GetSession(ctx, params.SessionID)
		if errors.Is(err, persistence.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		session = current

		if _, err := q.DeleteInvitation(ctx, params.SessionID); err != nil {
			return fmt.Errorf("delete invitation: %w", err)
		}
		ok, err := q.DeleteSession(ctx, params.SessionID)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		deleted = ok
		return nil
	})
	if err = classifyStoreError("SessionService.Delete", err); err != nil {
		deleted = false
		return
	}

	if deleted {
		s.record(ctx, activity.Entry{
			EventID:   session.EventID,
			SessionID: session.ID,
			ActorID:   params.ActingUserID,
			ActorRole: params.ActingUserRole,
			Action:    activity.ActionSessionDeleted,
			Details:   map[string]any{"title": session.Title},
		})
	}
	return
}

// GetSession returns a stored session.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (persistence.Session, error) {
	session, err := s.store.Queries().GetSession(ctx, sessionID)
	if err != nil {
		return persistence.Session{}, classifyStoreError("SessionService.GetSession", err)
	}
	return session, nil
}

// GetInvitation returns the invitation of a session.
func (s *SessionService) GetInvitation(ctx context.Context, sessionID string) (persistence.SessionInvitation, error) {
	invitation, err := s.store.Queries().GetInvitation(ctx, sessionID)
	if err != nil {
		return persistence.SessionInvitation{}, classifyStoreError("SessionService.GetInvitation", err)
	}
	return invitation, nil
}

// ListEventSessions returns the programme of an event ordered by start time.
func (s *SessionService) ListEventSessions(ctx context.Context, eventID string) (sessions []persistence.Session, err error) {
	q := s.store.Queries()
	if err = ensureEvent(ctx, q, eventID); err != nil {
		err = classifyStoreError("SessionService.ListEventSessions", err)
		return
	}
	sessions, err = q.ListEventSessions(ctx, eventID)
	if err != nil {
		err = classifyStoreError("SessionService.ListEventSessions", err)
		return
	}
	if sessions == nil {
		sessions = []persistence.Session{}
	}
	return
}

func (s *SessionService) rejectConflicts(ctx context.Context, q persistence.Queries, roomID string, start, end time.Time, excludeSessionID string) error {
	report, err := s.conflicts.check(ctx, q, ConflictCheckParams{
		RoomID:           roomID,
		StartsAt:         start,
		EndsAt:           end,
		ExcludeSessionID: excludeSessionID,
	})
	if err != nil {
		return err
	}
	if report.HasConflicts {
		return &ConflictError{RoomID: roomID, Conflicts: report.Conflicts}
	}
	return nil
}

func (s *SessionService) record(ctx context.Context, entry activity.Entry) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, entry)
}

func (s *SessionService) validateCreate(params CreateSessionParams) *ValidationError {
	vErr := &ValidationError{}
	if params.EventID == "" {
		vErr.add("event_id", "is required")
	}
	if params.Title == "" {
		vErr.add("title", "is required")
	}
	window := validateWindow(scheduler.Window{Start: params.StartsAt, End: params.EndsAt})
	for field, msg := range window.FieldErrors {
		vErr.add(field, msg)
	}
	if !validSessionStatus(params.Status) {
		vErr.add("status", "must be Draft or Confirmed")
	}
	if params.FacultyEmail != "" {
		if err := s.validate.Var(params.FacultyEmail, "email"); err != nil {
			vErr.add("faculty_email", "must be a valid email address")
		}
	}
	return vErr
}

func validateUpdate(params UpdateSessionParams) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.SessionID) == "" {
		vErr.add("session_id", "is required")
	}
	if params.Title != nil && strings.TrimSpace(*params.Title) == "" {
		vErr.add("title", "must not be empty")
	}
	if params.StartsAt != nil && params.StartsAt.IsZero() {
		vErr.add("starts_at", "must not be zero")
	}
	if params.EndsAt != nil && params.EndsAt.IsZero() {
		vErr.add("ends_at", "must not be zero")
	}
	if params.ClearRoom && params.RoomID != nil {
		vErr.add("room_id", "cannot be set while clearing the room")
	}
	if params.RoomID != nil && strings.TrimSpace(*params.RoomID) == "" {
		vErr.add("room_id", "must not be empty")
	}
	if params.Status != nil && !validSessionStatus(*params.Status) {
		vErr.add("status", "must be Draft or Confirmed")
	}
	return vErr
}

func validSessionStatus(status persistence.SessionStatus) bool {
	return status == persistence.SessionStatusDraft || status == persistence.SessionStatusConfirmed
}

func ensureEvent(ctx context.Context, q persistence.Queries, eventID string) error {
	if _, err := q.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return fmt.Errorf("%w: event %s", ErrNotFound, eventID)
		}
		return fmt.Errorf("load event: %w", err)
	}
	return nil
}

func ensureRoom(ctx context.Context, q persistence.Queries, roomID string) error {
	if roomID == "" {
		return nil
	}
	if _, err := q.GetRoom(ctx, roomID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return newValidationError("room_id", "room does not exist")
		}
		return fmt.Errorf("load room: %w", err)
	}
	return nil
}

func collectSessionChanges(changes map[string]any, params UpdateSessionParams) {
	if params.Title != nil {
		changes["title"] = strings.TrimSpace(*params.Title)
	}
	if params.StartsAt != nil {
		changes["starts_at"] = params.StartsAt.UTC().Format(time.RFC3339)
	}
	if params.EndsAt != nil {
		changes["ends_at"] = params.EndsAt.UTC().Format(time.RFC3339)
	}
	if params.RoomID != nil {
		changes["room_id"] = strings.TrimSpace(*params.RoomID)
	}
	if params.ClearRoom {
		changes["room_id"] = nil
	}
	if params.Status != nil {
		changes["status"] = string(*params.Status)
	}
	if params.Place != nil {
		changes["place"] = strings.TrimSpace(*params.Place)
	}
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

// storedTime is t as both stores keep it: UTC at millisecond precision.
// Windows are validated after truncation.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func storedTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	t := storedTime(*value)
	return &t
}
