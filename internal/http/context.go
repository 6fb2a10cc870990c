package http

import (
	"context"
	"log/slog"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/application"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/logging"
)

type contextKey string

const actorContextKey contextKey = "actor"

// ContextWithActor returns a derived context carrying the acting user.
func ContextWithActor(ctx context.Context, actor application.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext extracts the acting user. The zero Actor is returned when
// the upstream layer supplied none.
func ActorFromContext(ctx context.Context) application.Actor {
	actor, _ := ctx.Value(actorContextKey).(application.Actor)
	return actor
}

// ContextWithLogger stores the request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
