package application

import (
	"context"
	"fmt"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

// InvitationHistory is a read-only analytics query over a faculty member's
// earlier invitations. Nothing it returns changes what gets stored.
type InvitationHistory struct{}

// statusPrecedence breaks ties when picking the most frequent status.
var statusPrecedence = []persistence.InviteStatus{
	persistence.InviteStatusPending,
	persistence.InviteStatusAccepted,
	persistence.InviteStatusDeclined,
}

// Summarize counts facultyID's invitations in eventID, skipping excludeSessionID.
func (InvitationHistory) Summarize(ctx context.Context, q persistence.Queries, facultyID, eventID, excludeSessionID string) (HistorySummary, error) {
	summary := HistorySummary{Counts: persistence.StatusCounts{}}
	if facultyID == "" {
		return summary, nil
	}

	counts, err := q.CountInvitationsByStatus(ctx, persistence.InvitationFilter{
		EventID:          eventID,
		FacultyID:        facultyID,
		ExcludeSessionID: excludeSessionID,
	})
	if err != nil {
		return summary, fmt.Errorf("count faculty invitations: %w", err)
	}

	best := 0
	for _, status := range statusPrecedence {
		n := counts[status]
		summary.Counts[status] = n
		summary.Total += n
		if n > best {
			best = n
			summary.MostFrequent = status
		}
	}
	return summary, nil
}

// InitialInviteStatus decides the status of a new invitation. History is
// informational only, so every invitation starts Pending.
func InitialInviteStatus(HistorySummary) persistence.InviteStatus {
	return persistence.InviteStatusPending
}
