package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

func (q *queries) AppendActivity(ctx context.Context, entry persistence.ActivityLog) error {
	details := []byte("{}")
	if len(entry.Details) > 0 {
		encoded, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("encode activity details: %w", err)
		}
		details = encoded
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, event_id, session_id, actor_id, actor_role, action, details, trace_id, span_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.EventID, entry.SessionID, entry.ActorID, entry.ActorRole,
		entry.Action, string(details), entry.TraceID, entry.SpanID, toMillis(entry.CreatedAt),
	)
	return q.mapper.MapError(err)
}

func (q *queries) ListActivity(ctx context.Context, filter persistence.ActivityFilter) ([]persistence.ActivityLog, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.EventID != "" {
		clauses = append(clauses, "event_id = ?")
		args = append(args, filter.EventID)
	}
	if filter.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	rows, err := q.db.QueryContext(ctx, `
		SELECT id, event_id, session_id, actor_id, actor_role, action, details, trace_id, span_id, created_at
		FROM activity_logs`+where+`
		ORDER BY created_at, rowid`, args...)
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	entries := make([]persistence.ActivityLog, 0)
	for rows.Next() {
		var (
			entry   persistence.ActivityLog
			details string
			created int64
		)
		if err := rows.Scan(&entry.ID, &entry.EventID, &entry.SessionID, &entry.ActorID, &entry.ActorRole,
			&entry.Action, &details, &entry.TraceID, &entry.SpanID, &created); err != nil {
			return nil, err
		}
		if details != "" && details != "{}" {
			if err := json.Unmarshal([]byte(details), &entry.Details); err != nil {
				return nil, fmt.Errorf("decode activity details %s: %w", entry.ID, err)
			}
		}
		entry.CreatedAt = fromMillis(created)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
