package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/application"
)

type conflictChecker interface {
	Check(ctx context.Context, params application.ConflictCheckParams) (application.ConflictReport, error)
}

// ConflictHandler answers room availability queries.
type ConflictHandler struct {
	service   conflictChecker
	responder responder
}

func NewConflictHandler(service conflictChecker, logger *slog.Logger) *ConflictHandler {
	return &ConflictHandler{service: service, responder: newResponder(logger)}
}

type conflictReportResponse struct {
	HasConflicts bool          `json:"has_conflicts"`
	Conflicts    []conflictDTO `json:"conflicts"`
}

// Check handles GET /conflicts?room_id=&start=&end=&exclude_session_id=.
func (h *ConflictHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	start, err := parseTimeParam(query.Get("start"))
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	end, err := parseTimeParam(query.Get("end"))
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, "BAD_REQUEST", err)
		return
	}

	report, err := h.service.Check(ctx, application.ConflictCheckParams{
		RoomID:           query.Get("room_id"),
		StartsAt:         start,
		EndsAt:           end,
		ExcludeSessionID: query.Get("exclude_session_id"),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, conflictReportResponse{
		HasConflicts: report.HasConflicts,
		Conflicts:    toConflictDTOs(report.Conflicts),
	})
}
