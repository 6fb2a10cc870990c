package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/activity"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/application"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/config"
	httptransport "github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/http"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence/memory"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence/sqlite"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/telemetry"
)

func main() {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if cfg.SeedFile != "" {
		if err := loadSeedFile(ctx, store.Queries(), cfg.SeedFile, time.Now, logger); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           newHandler(cfg, store, uuid.NewString, time.Now, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("conference scheduler listening",
		"addr", server.Addr,
		"storage", cfg.StorageDriver,
		"respond_refill", cfg.RespondInterval().String(),
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		return memory.Open(), nil
	default:
		store, err := sqlite.Open(ctx, cfg.SQLite(), logger)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		return store, nil
	}
}

// newHandler wires services and transport over store.
func newHandler(cfg config.Config, store persistence.Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) http.Handler {
	recorder := activity.NewRecorder(store.Queries(), idGenerator, now, cfg.ActivityTimeout, logger)

	conflicts := application.NewConflictServiceWithLogger(store, logger)
	faculty := application.NewFacultyResolverWithLogger(store, idGenerator, now, logger)
	sessions := application.NewSessionServiceWithLogger(store, conflicts, faculty, recorder, idGenerator, now, logger)
	responses := application.NewResponseServiceWithLogger(store, recorder, now, logger)
	approvals := application.NewApprovalServiceWithLogger(store, now, logger)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Sessions:       httptransport.NewSessionHandler(sessions, approvals, recorder, logger),
		Responses:      httptransport.NewResponseHandler(responses, logger),
		Events:         httptransport.NewEventHandler(sessions, approvals, logger),
		Conflicts:      httptransport.NewConflictHandler(conflicts, logger),
		Faculty:        httptransport.NewFacultyHandler(faculty, logger),
		RespondLimiter: httptransport.NewClientRateLimiter(cfg.RespondRatePerMinute, cfg.RespondBurst, 0),
		Logger:         logger,
	})
}
