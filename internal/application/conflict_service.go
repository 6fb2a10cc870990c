package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/scheduler"
)

// ConflictService answers whether a room is free for a window.
type ConflictService struct {
	store  persistence.Store
	logger *slog.Logger
}

// NewConflictService constructs a conflict service reading from store.
func NewConflictService(store persistence.Store) *ConflictService {
	return NewConflictServiceWithLogger(store, nil)
}

// NewConflictServiceWithLogger constructs a conflict service with a specified logger.
func NewConflictServiceWithLogger(store persistence.Store, logger *slog.Logger) *ConflictService {
	return &ConflictService{store: store, logger: defaultLogger(logger)}
}

// Check reports the sessions in params.RoomID that overlap the window and
// still hold the room. A storage failure is returned, never an empty report.
func (s *ConflictService) Check(ctx context.Context, params ConflictCheckParams) (report ConflictReport, err error) {
	if s == nil {
		err = fmt.Errorf("ConflictService is nil")
		return
	}

	ctx, span := startSpan(ctx, "ConflictService", "Check", attribute.String("room_id", params.RoomID))
	defer func() { endSpan(span, err) }()

	logger := serviceLogger(ctx, s.logger, "ConflictService", "Check",
		"room_id", params.RoomID,
		"exclude_session_id", params.ExcludeSessionID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "conflict check failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "conflict check completed", "conflicts", len(report.Conflicts))
	}()

	report, err = s.check(ctx, s.store.Queries(), params)
	err = classifyStoreError("ConflictService.Check", err)
	return
}

// check runs against q so callers inside a transaction see their own writes.
func (s *ConflictService) check(ctx context.Context, q persistence.Queries, params ConflictCheckParams) (ConflictReport, error) {
	report := ConflictReport{Conflicts: []SessionConflict{}}

	window := scheduler.Window{Start: storedTime(params.StartsAt), End: storedTime(params.EndsAt)}
	if vErr := validateWindow(window); vErr.HasErrors() {
		return report, vErr
	}

	roomID := strings.TrimSpace(params.RoomID)
	if roomID == "" {
		return report, nil
	}

	existing, err := q.ListRoomSessions(ctx, persistence.RoomSessionFilter{
		RoomID:           roomID,
		StartsAt:         window.Start,
		EndsAt:           window.End,
		ExcludeSessionID: params.ExcludeSessionID,
	})
	if err != nil {
		return report, fmt.Errorf("list room sessions: %w", err)
	}

	for _, c := range scheduler.DetectRoomConflicts(existing, window, params.ExcludeSessionID) {
		report.Conflicts = append(report.Conflicts, SessionConflict{
			SessionID:    c.SessionID,
			Title:        c.Title,
			StartsAt:     c.StartsAt,
			EndsAt:       c.EndsAt,
			InviteStatus: c.InviteStatus,
		})
	}
	report.HasConflicts = len(report.Conflicts) > 0
	return report, nil
}

func validateWindow(window scheduler.Window) *ValidationError {
	vErr := &ValidationError{}
	if window.Start.IsZero() {
		vErr.add("start", "is required")
	}
	if window.End.IsZero() {
		vErr.add("end", "is required")
	}
	if vErr.HasErrors() {
		return vErr
	}
	if !window.Valid() {
		vErr.add("end", "must be after start")
	}
	return vErr
}
