package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/activity"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

// ResponseService records a faculty member's accept or decline decision.
type ResponseService struct {
	store    persistence.Store
	activity ActivityRecorder
	now      func() time.Time
	logger   *slog.Logger
}

// NewResponseService constructs a response service with the provided dependencies.
func NewResponseService(store persistence.Store, recorder ActivityRecorder, now func() time.Time) *ResponseService {
	return NewResponseServiceWithLogger(store, recorder, now, nil)
}

// NewResponseServiceWithLogger constructs a response service with a specified logger.
func NewResponseServiceWithLogger(store persistence.Store, recorder ActivityRecorder, now func() time.Time, logger *slog.Logger) *ResponseService {
	if now == nil {
		now = time.Now
	}
	return &ResponseService{store: store, activity: recorder, now: now, logger: defaultLogger(logger)}
}

// Respond moves a Pending invitation to Accepted or Declined. Repeating the
// status the invitation already holds succeeds with Changed=false and leaves
// the stored decline details alone; any other move out of a terminal status
// is an *InvalidTransitionError.
func (s *ResponseService) Respond(ctx context.Context, params RespondParams) (result RespondResult, err error) {
	if s == nil {
		err = fmt.Errorf("ResponseService is nil")
		return
	}

	ctx, span := startSpan(ctx, "ResponseService", "Respond",
		attribute.String("session_id", params.SessionID),
		attribute.String("invite_status", string(params.InviteStatus)),
	)
	defer func() { endSpan(span, err) }()

	logger := serviceLogger(ctx, s.logger, "ResponseService", "Respond",
		"session_id", params.SessionID,
		"invite_status", params.InviteStatus,
		"actor_id", params.Actor.ID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record response", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "response processed", "changed", result.Changed)
	}()

	params.SuggestedTimeStart = storedTimePtr(params.SuggestedTimeStart)
	params.SuggestedTimeEnd = storedTimePtr(params.SuggestedTimeEnd)
	if vErr := validateResponse(params); vErr.HasErrors() {
		err = vErr
		return
	}
	warnSoftExpectations(ctx, logger, params)

	response := persistence.InvitationResponse{
		Expected:     persistence.InviteStatusPending,
		InviteStatus: params.InviteStatus,
		RespondedAt:  s.now().UTC(),
	}
	if params.InviteStatus == persistence.InviteStatusDeclined {
		reason := params.RejectionReason
		response.RejectionReason = &reason
		response.SuggestedTopic = trimmedPtr(params.SuggestedTopic)
		response.SuggestedTimeStart = params.SuggestedTimeStart
		response.SuggestedTimeEnd = params.SuggestedTimeEnd
		response.OptionalQuery = trimmedPtr(params.OptionalQuery)
	}

	var eventID string
	err = s.store.WithTx(ctx, func(q persistence.Queries) error {
		result = RespondResult{}

		swapped, err := q.RecordResponse(ctx, params.SessionID, response)
		if err != nil {
			return fmt.Errorf("record response: %w", err)
		}

		current, err := q.GetInvitation(ctx, params.SessionID)
		if errors.Is(err, persistence.ErrNotFound) {
			return fmt.Errorf("%w: invitation for session %s", ErrNotFound, params.SessionID)
		}
		if err != nil {
			return fmt.Errorf("reload invitation: %w", err)
		}
		if current.FacultyEmail == "" {
			return fmt.Errorf("%w: session %s has no invited faculty", ErrNotFound, params.SessionID)
		}

		if !swapped && current.InviteStatus != params.InviteStatus {
			return &InvalidTransitionError{
				SessionID: params.SessionID,
				Current:   current.InviteStatus,
				Requested: params.InviteStatus,
			}
		}

		session, err := q.GetSession(ctx, params.SessionID)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		eventID = session.EventID

		result = RespondResult{Invitation: current, Changed: swapped}
		return nil
	})
	if err = classifyStoreError("ResponseService.Respond", err); err != nil {
		result = RespondResult{}
		return
	}

	if result.Changed {
		s.recordResponse(ctx, eventID, params, result.Invitation)
	}
	return
}

func (s *ResponseService) recordResponse(ctx context.Context, eventID string, params RespondParams, invitation persistence.SessionInvitation) {
	if s.activity == nil {
		return
	}

	action := activity.ActionResponseAccepted
	details := map[string]any{"faculty_email": invitation.FacultyEmail}
	if invitation.InviteStatus == persistence.InviteStatusDeclined {
		action = activity.ActionResponseDeclined
		if invitation.RejectionReason != nil {
			details["rejection_reason"] = string(*invitation.RejectionReason)
		}
		if invitation.SuggestedTopic != nil {
			details["suggested_topic"] = *invitation.SuggestedTopic
		}
		if invitation.SuggestedTimeStart != nil {
			details["suggested_time_start"] = invitation.SuggestedTimeStart.Format(time.RFC3339)
		}
		if invitation.SuggestedTimeEnd != nil {
			details["suggested_time_end"] = invitation.SuggestedTimeEnd.Format(time.RFC3339)
		}
		if invitation.OptionalQuery != nil {
			details["optional_query"] = *invitation.OptionalQuery
		}
	}

	s.activity.Record(ctx, activity.Entry{
		EventID:   eventID,
		SessionID: params.SessionID,
		ActorID:   params.Actor.ID,
		ActorRole: params.Actor.Role,
		Action:    action,
		Details:   details,
	})
}

func validateResponse(params RespondParams) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(params.SessionID) == "" {
		vErr.add("session_id", "is required")
	}

	switch params.InviteStatus {
	case persistence.InviteStatusAccepted:
	case persistence.InviteStatusDeclined:
		if params.RejectionReason == "" {
			vErr.add("rejection_reason", "is required when declining")
		}
	default:
		vErr.add("invite_status", "must be Accepted or Declined")
	}

	if params.RejectionReason != "" && !validRejectionReason(params.RejectionReason) {
		vErr.add("rejection_reason", "must be NotInterested, SuggestedTopic or TimeConflict")
	}

	if params.SuggestedTimeStart != nil && params.SuggestedTimeEnd != nil &&
		!params.SuggestedTimeStart.Before(*params.SuggestedTimeEnd) {
		vErr.add("suggested_time_end", "must be after suggested_time_start")
	}
	return vErr
}

// warnSoftExpectations flags declines whose reason is missing its supporting
// detail. The response is stored regardless.
func warnSoftExpectations(ctx context.Context, logger *slog.Logger, params RespondParams) {
	if params.InviteStatus != persistence.InviteStatusDeclined {
		return
	}
	switch params.RejectionReason {
	case persistence.RejectionSuggestedTopic:
		if params.SuggestedTopic == nil || strings.TrimSpace(*params.SuggestedTopic) == "" {
			logger.WarnContext(ctx, "decline suggests a topic but none was given")
		}
	case persistence.RejectionTimeConflict:
		if params.SuggestedTimeStart == nil && params.SuggestedTimeEnd == nil {
			logger.WarnContext(ctx, "decline cites a time conflict but suggests no time")
		}
	}
}

func validRejectionReason(reason persistence.RejectionReason) bool {
	switch reason {
	case persistence.RejectionNotInterested, persistence.RejectionSuggestedTopic, persistence.RejectionTimeConflict:
		return true
	default:
		return false
	}
}
