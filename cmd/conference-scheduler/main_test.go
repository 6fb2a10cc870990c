package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/config"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/testfixtures"
)

const seedJSON = `{
  "events": [
    {"id": "ev-1", "name": "Cardiology Summit", "starts_at": "2025-09-19T00:00:00Z", "ends_at": "2025-09-21T00:00:00Z", "location": "Pune"}
  ],
  "rooms": [
    {"id": "hall-a", "name": "Hall A", "capacity": 300},
    {"id": "hall-b", "name": "Hall B", "capacity": 120, "location": "West wing"}
  ]
}`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestLoadSeedFile(t *testing.T) {
	t.Parallel()

	for _, backend := range testfixtures.StoreFactories() {
		t.Run(backend.Name, func(t *testing.T) {
			t.Parallel()
			store := backend.Open(t)
			clock := testfixtures.NewClock(testfixtures.ReferenceTime())
			path := writeSeed(t, seedJSON)
			ctx := context.Background()

			if err := loadSeedFile(ctx, store.Queries(), path, clock.NowFunc(), testfixtures.DiscardLogger()); err != nil {
				t.Fatalf("load seed: %v", err)
			}
			// A second load against the same store skips existing rows.
			if err := loadSeedFile(ctx, store.Queries(), path, clock.NowFunc(), testfixtures.DiscardLogger()); err != nil {
				t.Fatalf("reload seed: %v", err)
			}

			event, err := store.Queries().GetEvent(ctx, "ev-1")
			if err != nil {
				t.Fatalf("get event: %v", err)
			}
			if event.Status != persistence.EventStatusPublished || event.Name != "Cardiology Summit" {
				t.Fatalf("unexpected event: %+v", event)
			}
			room, err := store.Queries().GetRoom(ctx, "hall-b")
			if err != nil {
				t.Fatalf("get room: %v", err)
			}
			if room.Capacity != 120 || room.Location != "West wing" {
				t.Fatalf("unexpected room: %+v", room)
			}
		})
	}
}

func TestLoadSeedFileErrors(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore(t)
	now := testfixtures.NewClock(testfixtures.ReferenceTime()).NowFunc()
	logger := testfixtures.DiscardLogger()
	ctx := context.Background()

	err := loadSeedFile(ctx, store.Queries(), filepath.Join(t.TempDir(), "missing.json"), now, logger)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	err = loadSeedFile(ctx, store.Queries(), writeSeed(t, "{"), now, logger)
	if err == nil || !strings.Contains(err.Error(), "decode seed file") {
		t.Fatalf("expected decode error, got %v", err)
	}

	err = loadSeedFile(ctx, store.Queries(), writeSeed(t, `{"rooms":[{"name":"No ID"}]}`), now, logger)
	if err == nil || !strings.Contains(err.Error(), "id and name are required") {
		t.Fatalf("expected required error, got %v", err)
	}
}

func TestOpenStoreMemory(t *testing.T) {
	t.Parallel()

	store, err := openStore(context.Background(), config.Config{StorageDriver: config.DriverMemory}, testfixtures.DiscardLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if _, err := store.Queries().GetEvent(context.Background(), "nope"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewHandlerServesSeededData(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewSQLiteStore(t)
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	ids := testfixtures.NewIDGenerator("run")
	logger := testfixtures.DiscardLogger()
	if err := loadSeedFile(context.Background(), store.Queries(), writeSeed(t, seedJSON), clock.NowFunc(), logger); err != nil {
		t.Fatalf("load seed: %v", err)
	}

	cfg := config.Config{RespondRatePerMinute: 30, RespondBurst: 10}
	server := httptest.NewServer(newHandler(cfg, store, ids.NextFunc(), clock.NowFunc(), logger))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /health, got %d", resp.StatusCode)
	}

	body := `{"event_id":"ev-1","title":"Keynote","start_time":"2025-09-20T09:00:00Z","end_time":"2025-09-20T10:00:00Z","room_id":"hall-a","faculty_email":"keynote@example.edu"}`
	resp, err = http.Post(server.URL+"/sessions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp, err = http.Get(server.URL + "/events/ev-1/sessions")
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	defer resp.Body.Close()
	var listed struct {
		Sessions []struct {
			ID string `json:"id"`
		} `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Sessions) != 1 || listed.Sessions[0].ID != created.SessionID {
		t.Fatalf("unexpected listing: %+v (created %q)", listed, created.SessionID)
	}
}
