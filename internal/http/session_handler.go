package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/application"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

type sessionService interface {
	Create(ctx context.Context, params application.CreateSessionParams) (application.CreateSessionResult, error)
	Update(ctx context.Context, params application.UpdateSessionParams) (bool, error)
	Delete(ctx context.Context, params application.DeleteSessionParams) (bool, error)
	GetSession(ctx context.Context, sessionID string) (persistence.Session, error)
	GetInvitation(ctx context.Context, sessionID string) (persistence.SessionInvitation, error)
}

type activityLister interface {
	List(ctx context.Context, filter persistence.ActivityFilter) ([]persistence.ActivityLog, error)
}

type sessionSummarizer interface {
	SessionSummary(ctx context.Context, sessionID string) (application.ApprovalSummary, error)
}

// SessionHandler serves the session lifecycle endpoints.
type SessionHandler struct {
	service   sessionService
	approvals sessionSummarizer
	activity  activityLister
	validator requestValidator
	responder responder
}

// NewSessionHandler wires the session endpoints. approvals and activity may be
// nil, in which case their routes answer 500.
func NewSessionHandler(service sessionService, approvals sessionSummarizer, activity activityLister, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		service:   service,
		approvals: approvals,
		activity:  activity,
		validator: newRequestValidator(),
		responder: newResponder(logger),
	}
}

type createSessionRequest struct {
	SessionID      string    `json:"session_id"`
	EventID        string    `json:"event_id" validate:"required"`
	Title          string    `json:"title" validate:"required"`
	Description    string    `json:"description"`
	StartsAt       time.Time `json:"start_time"`
	EndsAt         time.Time `json:"end_time"`
	RoomID         string    `json:"room_id"`
	FacultyEmail   string    `json:"faculty_email" validate:"omitempty,email"`
	FacultyID      string    `json:"faculty_id"`
	FacultyName    string    `json:"faculty_name"`
	Place          string    `json:"place"`
	Status         string    `json:"status" validate:"omitempty,oneof=Draft Confirmed"`
	Travel         bool      `json:"travel"`
	Accommodation  bool      `json:"accommodation"`
	CheckConflicts bool      `json:"check_conflicts"`
}

type createSessionResponse struct {
	SessionID  string        `json:"session_id"`
	Session    sessionDTO    `json:"session"`
	Invitation invitationDTO `json:"invitation"`
	Faculty    *facultyDTO   `json:"faculty,omitempty"`
	History    historyDTO    `json:"history"`
}

type updateSessionRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	StartsAt       *time.Time `json:"start_time"`
	EndsAt         *time.Time `json:"end_time"`
	RoomID         *string    `json:"room_id"`
	ClearRoom      bool       `json:"clear_room"`
	Place          *string    `json:"place"`
	Status         *string    `json:"status" validate:"omitempty,oneof=Draft Confirmed"`
	Travel         *bool      `json:"travel"`
	Accommodation  *bool      `json:"accommodation"`
	CheckConflicts bool       `json:"check_conflicts"`
}

// Create handles POST /sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createSessionRequest
	if err := h.validator.decode(r, &req); err != nil {
		h.rejectBody(ctx, w, err)
		return
	}

	result, err := h.service.Create(ctx, application.CreateSessionParams{
		SessionID:      req.SessionID,
		EventID:        req.EventID,
		Title:          req.Title,
		Description:    req.Description,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		RoomID:         req.RoomID,
		FacultyEmail:   req.FacultyEmail,
		FacultyIDHint:  req.FacultyID,
		FacultyName:    req.FacultyName,
		Place:          req.Place,
		Status:         persistence.SessionStatus(req.Status),
		Travel:         req.Travel,
		Accommodation:  req.Accommodation,
		CheckConflicts: req.CheckConflicts,
		Actor:          ActorFromContext(ctx),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	resp := createSessionResponse{
		SessionID:  result.SessionID,
		Session:    toSessionDTO(result.Session),
		Invitation: toInvitationDTO(result.Invitation),
		History:    toHistoryDTO(result.History),
	}
	if result.Faculty != nil {
		faculty := toFacultyDTO(*result.Faculty)
		resp.Faculty = &faculty
	}
	h.responder.writeJSON(ctx, w, http.StatusCreated, resp)
}

// Get handles GET /sessions/{sessionID}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := h.service.GetSession(ctx, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toSessionDTO(session))
}

// Update handles PATCH /sessions/{sessionID}.
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateSessionRequest
	if err := h.validator.decode(r, &req); err != nil {
		h.rejectBody(ctx, w, err)
		return
	}

	params := application.UpdateSessionParams{
		SessionID:      chi.URLParam(r, "sessionID"),
		Title:          req.Title,
		Description:    req.Description,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		RoomID:         req.RoomID,
		ClearRoom:      req.ClearRoom,
		Place:          req.Place,
		Travel:         req.Travel,
		Accommodation:  req.Accommodation,
		CheckConflicts: req.CheckConflicts,
		Actor:          ActorFromContext(ctx),
	}
	if req.Status != nil {
		status := persistence.SessionStatus(*req.Status)
		params.Status = &status
	}

	updated, err := h.service.Update(ctx, params)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	if !updated {
		h.responder.handleServiceError(ctx, w, application.ErrNotFound)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, map[string]bool{"updated": true})
}

// Delete handles DELETE /sessions/{sessionID}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := ActorFromContext(ctx)
	deleted, err := h.service.Delete(ctx, application.DeleteSessionParams{
		SessionID:      chi.URLParam(r, "sessionID"),
		ActingUserID:   actor.ID,
		ActingUserRole: actor.Role,
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	if !deleted {
		h.responder.handleServiceError(ctx, w, application.ErrNotFound)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

// Invitation handles GET /sessions/{sessionID}/invitation.
func (h *SessionHandler) Invitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	invitation, err := h.service.GetInvitation(ctx, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toInvitationDTO(invitation))
}

// Approvals handles GET /sessions/{sessionID}/approvals.
func (h *SessionHandler) Approvals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.approvals == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, "INTERNAL", errors.New("approval summaries are not configured"))
		return
	}
	summary, err := h.approvals.SessionSummary(ctx, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toApprovalSummaryDTO(summary))
}

// Activity handles GET /sessions/{sessionID}/activity.
func (h *SessionHandler) Activity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.activity == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, "INTERNAL", errors.New("activity log is not configured"))
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	entries, err := h.activity.List(ctx, persistence.ActivityFilter{SessionID: sessionID})
	if err != nil {
		h.responder.loggerFor(ctx).ErrorContext(ctx, "failed to list activity", "session_id", sessionID, "error", err)
		h.responder.writeError(ctx, w, http.StatusInternalServerError, "INTERNAL", errors.New("failed to list activity"))
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, map[string]any{"activity": toActivityDTOs(entries)})
}

func (h *SessionHandler) rejectBody(ctx context.Context, w http.ResponseWriter, err error) {
	rejectBody(ctx, h.responder, w, err)
}

// rejectBody answers a request whose body failed to decode or validate.
func rejectBody(ctx context.Context, resp responder, w http.ResponseWriter, err error) {
	if errors.Is(err, errBadRequestBody) {
		resp.writeError(ctx, w, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	resp.handleServiceError(ctx, w, err)
}
