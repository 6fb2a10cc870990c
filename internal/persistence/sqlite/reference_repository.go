package sqlite

import (
	"context"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

func (q *queries) CreateEvent(ctx context.Context, event persistence.Event) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO events (id, name, status, starts_at, ends_at, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Name, string(event.Status),
		toMillis(event.StartsAt), toMillis(event.EndsAt),
		event.Location, toMillis(event.CreatedAt),
	)
	return q.mapper.MapError(err)
}

func (q *queries) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	var (
		event             persistence.Event
		status            string
		starts, ends, ctd int64
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, name, status, starts_at, ends_at, location, created_at
		FROM events WHERE id = ?`, id,
	).Scan(&event.ID, &event.Name, &status, &starts, &ends, &event.Location, &ctd)
	if err != nil {
		return persistence.Event{}, q.mapper.MapError(err)
	}
	event.Status = persistence.EventStatus(status)
	event.StartsAt = fromMillis(starts)
	event.EndsAt = fromMillis(ends)
	event.CreatedAt = fromMillis(ctd)
	return event, nil
}

func (q *queries) CreateRoom(ctx context.Context, room persistence.Room) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO rooms (id, name, capacity, location, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		room.ID, room.Name, room.Capacity, room.Location, toMillis(room.CreatedAt),
	)
	return q.mapper.MapError(err)
}

func (q *queries) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	var (
		room    persistence.Room
		created int64
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, name, capacity, location, created_at FROM rooms WHERE id = ?`, id,
	).Scan(&room.ID, &room.Name, &room.Capacity, &room.Location, &created)
	if err != nil {
		return persistence.Room{}, q.mapper.MapError(err)
	}
	room.CreatedAt = fromMillis(created)
	return room, nil
}
