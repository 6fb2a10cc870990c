package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

const sessionColumns = `s.id, s.event_id, s.title, s.description, s.starts_at, s.ends_at, s.room_id, s.created_at, s.updated_at`

func (q *queries) CreateSession(ctx context.Context, session persistence.Session) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO sessions (id, event_id, title, description, starts_at, ends_at, room_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.EventID, session.Title, session.Description,
		toMillis(session.StartsAt), toMillis(session.EndsAt), nullString(session.RoomID),
		toMillis(session.CreatedAt), toMillis(session.UpdatedAt),
	)
	return q.mapper.MapError(err)
}

func (q *queries) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id)
	var session persistence.Session
	if err := scanSession(row, &session); err != nil {
		return persistence.Session{}, q.mapper.MapError(err)
	}
	return session, nil
}

func (q *queries) UpdateSession(ctx context.Context, id string, patch persistence.SessionPatch) (bool, error) {
	sets := []string{"updated_at = ?"}
	args := []any{toMillis(patch.UpdatedAt)}

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.StartsAt != nil {
		sets = append(sets, "starts_at = ?")
		args = append(args, toMillis(*patch.StartsAt))
	}
	if patch.EndsAt != nil {
		sets = append(sets, "ends_at = ?")
		args = append(args, toMillis(*patch.EndsAt))
	}
	switch {
	case patch.ClearRoom:
		sets = append(sets, "room_id = NULL")
	case patch.RoomID != nil:
		sets = append(sets, "room_id = ?")
		args = append(args, *patch.RoomID)
	}

	args = append(args, id)
	result, err := q.db.ExecContext(ctx,
		`UPDATE sessions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return false, q.mapper.MapError(err)
	}
	return affected(result)
}

// DeleteSession fails with ErrForeignKeyViolation while an invitation still
// references the session.
func (q *queries) DeleteSession(ctx context.Context, id string) (bool, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, q.mapper.MapError(err)
	}
	return affected(result)
}

func (q *queries) ListEventSessions(ctx context.Context, eventID string) ([]persistence.Session, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions s
		WHERE s.event_id = ?
		ORDER BY s.starts_at, s.id`, eventID)
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	var sessions []persistence.Session
	for rows.Next() {
		var session persistence.Session
		if err := scanSession(rows, &session); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// ListRoomSessions returns sessions in the room whose window overlaps
// [filter.StartsAt, filter.EndsAt), joined with their invite status. Sessions
// without an invitation carry an empty status.
func (q *queries) ListRoomSessions(ctx context.Context, filter persistence.RoomSessionFilter) ([]persistence.RoomSession, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`, COALESCE(i.invite_status, '')
		FROM sessions s
		LEFT JOIN session_invitations i ON i.session_id = s.id
		WHERE s.room_id = ?
		  AND s.starts_at < ?
		  AND s.ends_at > ?
		  AND s.id <> ?
		ORDER BY s.starts_at, s.id`,
		filter.RoomID, toMillis(filter.EndsAt), toMillis(filter.StartsAt), filter.ExcludeSessionID,
	)
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	var sessions []persistence.RoomSession
	for rows.Next() {
		var (
			rs     persistence.RoomSession
			status string
		)
		if err := scanSession(rows, &rs.Session, &status); err != nil {
			return nil, err
		}
		rs.InviteStatus = persistence.InviteStatus(status)
		sessions = append(sessions, rs)
	}
	return sessions, rows.Err()
}

func scanSession(row rowScanner, session *persistence.Session, extra ...any) error {
	var (
		roomID                          sql.NullString
		starts, ends, created, updated int64
	)
	dest := []any{
		&session.ID, &session.EventID, &session.Title, &session.Description,
		&starts, &ends, &roomID, &created, &updated,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	session.StartsAt = fromMillis(starts)
	session.EndsAt = fromMillis(ends)
	session.RoomID = stringPtr(roomID)
	session.CreatedAt = fromMillis(created)
	session.UpdatedAt = fromMillis(updated)
	return nil
}
