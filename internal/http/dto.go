package http

import (
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/application"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

type conflictDTO struct {
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title"`
	StartsAt     time.Time `json:"start_time"`
	EndsAt       time.Time `json:"end_time"`
	InviteStatus string    `json:"invite_status,omitempty"`
}

type sessionDTO struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartsAt    time.Time `json:"start_time"`
	EndsAt      time.Time `json:"end_time"`
	RoomID      *string   `json:"room_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type invitationDTO struct {
	SessionID          string     `json:"session_id"`
	FacultyID          *string    `json:"faculty_id"`
	FacultyEmail       string     `json:"faculty_email,omitempty"`
	Place              string     `json:"place,omitempty"`
	Status             string     `json:"status"`
	InviteStatus       string     `json:"invite_status"`
	RejectionReason    *string    `json:"rejection_reason,omitempty"`
	SuggestedTopic     *string    `json:"suggested_topic,omitempty"`
	SuggestedTimeStart *time.Time `json:"suggested_time_start,omitempty"`
	SuggestedTimeEnd   *time.Time `json:"suggested_time_end,omitempty"`
	OptionalQuery      *string    `json:"optional_query,omitempty"`
	Travel             bool       `json:"travel"`
	Accommodation      bool       `json:"accommodation"`
	RespondedAt        *time.Time `json:"responded_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type facultyDTO struct {
	FacultyID         string `json:"faculty_id"`
	Email             string `json:"email"`
	DisplayName       string `json:"display_name"`
	Role              string `json:"role"`
	Created           bool   `json:"created"`
	MembershipCreated bool   `json:"membership_created"`
}

type historyDTO struct {
	Total        int            `json:"total"`
	Counts       map[string]int `json:"counts"`
	MostFrequent string         `json:"most_frequent,omitempty"`
}

type pendingInvitationDTO struct {
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title"`
	FacultyEmail string    `json:"faculty_email,omitempty"`
	SentAt       time.Time `json:"sent_at"`
	DaysPending  int       `json:"days_pending"`
}

type approvalSummaryDTO struct {
	Total              int                    `json:"total"`
	Pending            int                    `json:"pending"`
	Accepted           int                    `json:"accepted"`
	Declined           int                    `json:"declined"`
	AcceptanceRate     float64                `json:"acceptance_rate"`
	ResponseRate       float64                `json:"response_rate"`
	PendingInvitations []pendingInvitationDTO `json:"pending_invitations"`
}

type activityDTO struct {
	ID        string         `json:"id"`
	EventID   string         `json:"event_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	ActorID   string         `json:"actor_id,omitempty"`
	ActorRole string         `json:"actor_role,omitempty"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	TraceID   string         `json:"trace_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func toConflictDTOs(conflicts []application.SessionConflict) []conflictDTO {
	out := make([]conflictDTO, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, conflictDTO{
			SessionID:    c.SessionID,
			Title:        c.Title,
			StartsAt:     c.StartsAt,
			EndsAt:       c.EndsAt,
			InviteStatus: string(c.InviteStatus),
		})
	}
	return out
}

func toSessionDTO(s persistence.Session) sessionDTO {
	return sessionDTO{
		ID:          s.ID,
		EventID:     s.EventID,
		Title:       s.Title,
		Description: s.Description,
		StartsAt:    s.StartsAt,
		EndsAt:      s.EndsAt,
		RoomID:      s.RoomID,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toSessionDTOs(sessions []persistence.Session) []sessionDTO {
	out := make([]sessionDTO, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionDTO(s))
	}
	return out
}

func toInvitationDTO(inv persistence.SessionInvitation) invitationDTO {
	dto := invitationDTO{
		SessionID:          inv.SessionID,
		FacultyID:          inv.FacultyID,
		FacultyEmail:       inv.FacultyEmail,
		Place:              inv.Place,
		Status:             string(inv.Status),
		InviteStatus:       string(inv.InviteStatus),
		SuggestedTopic:     inv.SuggestedTopic,
		SuggestedTimeStart: inv.SuggestedTimeStart,
		SuggestedTimeEnd:   inv.SuggestedTimeEnd,
		OptionalQuery:      inv.OptionalQuery,
		Travel:             inv.Travel,
		Accommodation:      inv.Accommodation,
		RespondedAt:        inv.RespondedAt,
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
	}
	if inv.RejectionReason != nil {
		reason := string(*inv.RejectionReason)
		dto.RejectionReason = &reason
	}
	return dto
}

func toFacultyDTO(res application.FacultyResolution) facultyDTO {
	return facultyDTO{
		FacultyID:         res.FacultyID,
		Email:             res.Email,
		DisplayName:       res.DisplayName,
		Role:              string(res.Role),
		Created:           res.Created,
		MembershipCreated: res.MembershipCreated,
	}
}

func toHistoryDTO(h application.HistorySummary) historyDTO {
	counts := make(map[string]int, len(h.Counts))
	for status, n := range h.Counts {
		counts[string(status)] = n
	}
	return historyDTO{Total: h.Total, Counts: counts, MostFrequent: string(h.MostFrequent)}
}

func toApprovalSummaryDTO(s application.ApprovalSummary) approvalSummaryDTO {
	pending := make([]pendingInvitationDTO, 0, len(s.PendingInvitations))
	for _, p := range s.PendingInvitations {
		pending = append(pending, pendingInvitationDTO{
			SessionID:    p.SessionID,
			Title:        p.Title,
			FacultyEmail: p.FacultyEmail,
			SentAt:       p.SentAt,
			DaysPending:  p.DaysPending,
		})
	}
	return approvalSummaryDTO{
		Total:              s.Total,
		Pending:            s.Pending,
		Accepted:           s.Accepted,
		Declined:           s.Declined,
		AcceptanceRate:     s.AcceptanceRate,
		ResponseRate:       s.ResponseRate,
		PendingInvitations: pending,
	}
}

func toActivityDTOs(entries []persistence.ActivityLog) []activityDTO {
	out := make([]activityDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityDTO{
			ID:        e.ID,
			EventID:   e.EventID,
			SessionID: e.SessionID,
			ActorID:   e.ActorID,
			ActorRole: e.ActorRole,
			Action:    e.Action,
			Details:   e.Details,
			TraceID:   e.TraceID,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
