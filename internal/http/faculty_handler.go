package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/application"
)

type facultyResolver interface {
	ResolveFaculty(ctx context.Context, params application.ResolveFacultyParams) (application.FacultyResolution, error)
}

// FacultyHandler exposes standalone faculty resolution.
type FacultyHandler struct {
	service   facultyResolver
	validator requestValidator
	responder responder
}

func NewFacultyHandler(service facultyResolver, logger *slog.Logger) *FacultyHandler {
	return &FacultyHandler{service: service, validator: newRequestValidator(), responder: newResponder(logger)}
}

type resolveFacultyRequest struct {
	Email       string `json:"email" validate:"required,email"`
	EventID     string `json:"event_id" validate:"required"`
	FacultyID   string `json:"faculty_id"`
	DisplayName string `json:"display_name"`
}

// Resolve handles POST /faculty/resolve.
func (h *FacultyHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req resolveFacultyRequest
	if err := h.validator.decode(r, &req); err != nil {
		rejectBody(ctx, h.responder, w, err)
		return
	}

	res, err := h.service.ResolveFaculty(ctx, application.ResolveFacultyParams{
		Email:       req.Email,
		IDHint:      req.FacultyID,
		DisplayName: req.DisplayName,
		EventID:     req.EventID,
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toFacultyDTO(res))
}
