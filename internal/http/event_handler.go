package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/application"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

type eventSessionLister interface {
	ListEventSessions(ctx context.Context, eventID string) ([]persistence.Session, error)
}

type eventSummarizer interface {
	EventSummary(ctx context.Context, eventID string) (application.ApprovalSummary, error)
}

// EventHandler serves per-event programme and dashboard reads.
type EventHandler struct {
	sessions  eventSessionLister
	approvals eventSummarizer
	responder responder
}

func NewEventHandler(sessions eventSessionLister, approvals eventSummarizer, logger *slog.Logger) *EventHandler {
	return &EventHandler{sessions: sessions, approvals: approvals, responder: newResponder(logger)}
}

// Sessions handles GET /events/{eventID}/sessions.
func (h *EventHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := h.sessions.ListEventSessions(ctx, chi.URLParam(r, "eventID"))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, map[string]any{"sessions": toSessionDTOs(sessions)})
}

// Approvals handles GET /events/{eventID}/approvals.
func (h *EventHandler) Approvals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := h.approvals.EventSummary(ctx, chi.URLParam(r, "eventID"))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toApprovalSummaryDTO(summary))
}
