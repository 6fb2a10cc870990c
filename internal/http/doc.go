// Package http exposes the session invitation workflow over a chi router.
//
// Endpoints:
//   - POST /sessions: creates a session and its invitation. Body: createSessionRequest
//     (session_handler.go). Response 201 with session, invitation, faculty and history.
//   - GET, PATCH, DELETE /sessions/{id}: read, partially update (200 {"updated":true})
//     or delete (204) a session. A missing session answers 404.
//   - GET /sessions/{id}/invitation, /approvals, /activity: the invitation row, the
//     response summary and the audit trail of one session.
//   - POST /sessions/respond: a faculty accept or decline, rate limited per client.
//     Response 200 {"invitation","changed"}.
//   - GET /conflicts?room_id=&start=&end=&exclude_session_id=: room availability.
//   - GET /events/{id}/sessions, /events/{id}/approvals: programme and dashboard reads.
//   - POST /faculty/resolve: finds or provisions a faculty identity for an event.
//
// The X-Acting-User-ID and X-Acting-User-Role headers are set by the upstream
// authentication layer and only recorded. Times are RFC3339. Errors share the
// body {"error_code","message","errors"}; a transaction failure answers 503
// with Retry-After.
package http
