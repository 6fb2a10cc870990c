package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

// seedFile is the reference data loaded at startup. Events and rooms have no
// write API of their own.
type seedFile struct {
	Events []seedEvent `json:"events"`
	Rooms  []seedRoom  `json:"rooms"`
}

type seedEvent struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Location string    `json:"location"`
}

type seedRoom struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Location string `json:"location"`
}

// loadSeedFile inserts the events and rooms listed in path. Records that
// already exist are skipped so restarts against the same database are safe.
func loadSeedFile(ctx context.Context, q persistence.Queries, path string, now func() time.Time, logger *slog.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("decode seed file %s: %w", path, err)
	}

	created, skipped := 0, 0
	for i, e := range seed.Events {
		if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("seed event %d: id and name are required", i)
		}
		status := persistence.EventStatus(e.Status)
		if status == "" {
			status = persistence.EventStatusPublished
		}
		err := q.CreateEvent(ctx, persistence.Event{
			ID:        e.ID,
			Name:      e.Name,
			Status:    status,
			StartsAt:  e.StartsAt.UTC(),
			EndsAt:    e.EndsAt.UTC(),
			Location:  e.Location,
			CreatedAt: now().UTC(),
		})
		switch {
		case errors.Is(err, persistence.ErrDuplicate):
			skipped++
		case err != nil:
			return fmt.Errorf("seed event %s: %w", e.ID, err)
		default:
			created++
		}
	}

	for i, r := range seed.Rooms {
		if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("seed room %d: id and name are required", i)
		}
		err := q.CreateRoom(ctx, persistence.Room{
			ID:        r.ID,
			Name:      r.Name,
			Capacity:  r.Capacity,
			Location:  r.Location,
			CreatedAt: now().UTC(),
		})
		switch {
		case errors.Is(err, persistence.ErrDuplicate):
			skipped++
		case err != nil:
			return fmt.Errorf("seed room %s: %w", r.ID, err)
		default:
			created++
		}
	}

	logger.Info("seed data loaded", "path", path, "created", created, "skipped", skipped)
	return nil
}
