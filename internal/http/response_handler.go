package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/application"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

type responseService interface {
	Respond(ctx context.Context, params application.RespondParams) (application.RespondResult, error)
}

// ResponseHandler accepts faculty decisions on invitations.
type ResponseHandler struct {
	service   responseService
	validator requestValidator
	responder responder
}

// NewResponseHandler constructs the faculty response handler.
func NewResponseHandler(service responseService, logger *slog.Logger) *ResponseHandler {
	return &ResponseHandler{service: service, validator: newRequestValidator(), responder: newResponder(logger)}
}

type respondRequest struct {
	SessionID          string     `json:"session_id" validate:"required"`
	InviteStatus       string     `json:"invite_status" validate:"required,oneof=Accepted Declined"`
	RejectionReason    string     `json:"rejection_reason" validate:"omitempty,oneof=NotInterested SuggestedTopic TimeConflict"`
	SuggestedTopic     *string    `json:"suggested_topic"`
	SuggestedTimeStart *time.Time `json:"suggested_time_start"`
	SuggestedTimeEnd   *time.Time `json:"suggested_time_end"`
	OptionalQuery      *string    `json:"optional_query"`
}

type respondResponse struct {
	Invitation invitationDTO `json:"invitation"`
	Changed    bool          `json:"changed"`
}

// Respond handles POST /sessions/respond.
func (h *ResponseHandler) Respond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req respondRequest
	if err := h.validator.decode(r, &req); err != nil {
		rejectBody(ctx, h.responder, w, err)
		return
	}

	result, err := h.service.Respond(ctx, application.RespondParams{
		SessionID:          req.SessionID,
		InviteStatus:       persistence.InviteStatus(req.InviteStatus),
		RejectionReason:    persistence.RejectionReason(req.RejectionReason),
		SuggestedTopic:     req.SuggestedTopic,
		SuggestedTimeStart: req.SuggestedTimeStart,
		SuggestedTimeEnd:   req.SuggestedTimeEnd,
		OptionalQuery:      req.OptionalQuery,
		Actor:              ActorFromContext(ctx),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, respondResponse{
		Invitation: toInvitationDTO(result.Invitation),
		Changed:    result.Changed,
	})
}
