package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

const invitationColumns = `i.session_id, i.faculty_id, i.faculty_email, i.place, i.status, i.invite_status,
	i.rejection_reason, i.suggested_topic, i.suggested_time_start, i.suggested_time_end, i.optional_query,
	i.travel, i.accommodation, i.created_at, i.updated_at, i.responded_at`

func (q *queries) CreateInvitation(ctx context.Context, inv persistence.SessionInvitation) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO session_invitations (
			session_id, faculty_id, faculty_email, place, status, invite_status,
			rejection_reason, suggested_topic, suggested_time_start, suggested_time_end, optional_query,
			travel, accommodation, created_at, updated_at, responded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.SessionID, nullString(inv.FacultyID), inv.FacultyEmail, inv.Place,
		string(inv.Status), string(inv.InviteStatus),
		nullReason(inv.RejectionReason), nullString(inv.SuggestedTopic),
		nullMillis(inv.SuggestedTimeStart), nullMillis(inv.SuggestedTimeEnd), nullString(inv.OptionalQuery),
		inv.Travel, inv.Accommodation,
		toMillis(inv.CreatedAt), toMillis(inv.UpdatedAt), nullMillis(inv.RespondedAt),
	)
	return q.mapper.MapError(err)
}

func (q *queries) GetInvitation(ctx context.Context, sessionID string) (persistence.SessionInvitation, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM session_invitations i WHERE i.session_id = ?`, sessionID)
	var inv persistence.SessionInvitation
	if err := scanInvitation(row, &inv); err != nil {
		return persistence.SessionInvitation{}, q.mapper.MapError(err)
	}
	return inv, nil
}

func (q *queries) UpdateInvitationDetails(ctx context.Context, sessionID string, patch persistence.InvitationPatch) (bool, error) {
	sets := []string{"updated_at = ?"}
	args := []any{toMillis(patch.UpdatedAt)}

	if patch.Place != nil {
		sets = append(sets, "place = ?")
		args = append(args, *patch.Place)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.Travel != nil {
		sets = append(sets, "travel = ?")
		args = append(args, *patch.Travel)
	}
	if patch.Accommodation != nil {
		sets = append(sets, "accommodation = ?")
		args = append(args, *patch.Accommodation)
	}

	args = append(args, sessionID)
	result, err := q.db.ExecContext(ctx,
		`UPDATE session_invitations SET `+strings.Join(sets, ", ")+` WHERE session_id = ?`, args...)
	if err != nil {
		return false, q.mapper.MapError(err)
	}
	return affected(result)
}

// RecordResponse is a conditional update: it only matches while invite_status
// still holds the expected value and the invitation names a faculty member.
func (q *queries) RecordResponse(ctx context.Context, sessionID string, response persistence.InvitationResponse) (bool, error) {
	result, err := q.db.ExecContext(ctx, `
		UPDATE session_invitations
		SET invite_status = ?, rejection_reason = ?, suggested_topic = ?,
		    suggested_time_start = ?, suggested_time_end = ?, optional_query = ?,
		    responded_at = ?, updated_at = ?
		WHERE session_id = ? AND invite_status = ? AND faculty_email <> ''`,
		string(response.InviteStatus), nullReason(response.RejectionReason), nullString(response.SuggestedTopic),
		nullMillis(response.SuggestedTimeStart), nullMillis(response.SuggestedTimeEnd), nullString(response.OptionalQuery),
		toMillis(response.RespondedAt), toMillis(response.RespondedAt),
		sessionID, string(response.Expected),
	)
	if err != nil {
		return false, q.mapper.MapError(err)
	}
	return affected(result)
}

func (q *queries) DeleteInvitation(ctx context.Context, sessionID string) (bool, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM session_invitations WHERE session_id = ?`, sessionID)
	if err != nil {
		return false, q.mapper.MapError(err)
	}
	return affected(result)
}

func (q *queries) ListInvitations(ctx context.Context, filter persistence.InvitationFilter) ([]persistence.EventInvitation, error) {
	where, args := invitationWhere(filter)
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+invitationColumns+`, s.event_id, s.title, s.starts_at
		FROM session_invitations i
		JOIN sessions s ON s.id = i.session_id`+where+`
		ORDER BY i.created_at, i.session_id`, args...)
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	invitations := make([]persistence.EventInvitation, 0)
	for rows.Next() {
		var (
			ei     persistence.EventInvitation
			starts int64
		)
		if err := scanInvitation(rows, &ei.SessionInvitation, &ei.EventID, &ei.SessionTitle, &starts); err != nil {
			return nil, err
		}
		ei.SessionStarts = fromMillis(starts)
		invitations = append(invitations, ei)
	}
	return invitations, rows.Err()
}

func (q *queries) CountInvitationsByStatus(ctx context.Context, filter persistence.InvitationFilter) (persistence.StatusCounts, error) {
	where, args := invitationWhere(filter)
	rows, err := q.db.QueryContext(ctx, `
		SELECT i.invite_status, COUNT(*)
		FROM session_invitations i
		JOIN sessions s ON s.id = i.session_id`+where+`
		GROUP BY i.invite_status`, args...)
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	counts := make(persistence.StatusCounts)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[persistence.InviteStatus(status)] = n
	}
	return counts, rows.Err()
}

func invitationWhere(filter persistence.InvitationFilter) (string, []any) {
	clauses := []string{"i.faculty_email <> ''"}
	var args []any
	if filter.EventID != "" {
		clauses = append(clauses, "s.event_id = ?")
		args = append(args, filter.EventID)
	}
	if filter.SessionID != "" {
		clauses = append(clauses, "i.session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.FacultyID != "" {
		clauses = append(clauses, "i.faculty_id = ?")
		args = append(args, filter.FacultyID)
	}
	if filter.ExcludeSessionID != "" {
		clauses = append(clauses, "i.session_id <> ?")
		args = append(args, filter.ExcludeSessionID)
	}
	return "\n\t\tWHERE " + strings.Join(clauses, " AND "), args
}

func scanInvitation(row rowScanner, inv *persistence.SessionInvitation, extra ...any) error {
	var (
		facultyID, reason, topic, query sql.NullString
		status, inviteStatus            string
		suggestedStart, suggestedEnd    sql.NullInt64
		respondedAt                     sql.NullInt64
		created, updated                int64
	)
	dest := []any{
		&inv.SessionID, &facultyID, &inv.FacultyEmail, &inv.Place, &status, &inviteStatus,
		&reason, &topic, &suggestedStart, &suggestedEnd, &query,
		&inv.Travel, &inv.Accommodation, &created, &updated, &respondedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	inv.FacultyID = stringPtr(facultyID)
	inv.Status = persistence.SessionStatus(status)
	inv.InviteStatus = persistence.InviteStatus(inviteStatus)
	if reason.Valid {
		r := persistence.RejectionReason(reason.String)
		inv.RejectionReason = &r
	} else {
		inv.RejectionReason = nil
	}
	inv.SuggestedTopic = stringPtr(topic)
	inv.SuggestedTimeStart = timePtr(suggestedStart)
	inv.SuggestedTimeEnd = timePtr(suggestedEnd)
	inv.OptionalQuery = stringPtr(query)
	inv.CreatedAt = fromMillis(created)
	inv.UpdatedAt = fromMillis(updated)
	inv.RespondedAt = timePtr(respondedAt)
	return nil
}

func nullReason(r *persistence.RejectionReason) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*r), Valid: true}
}
