package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouterConfig collects the handlers mounted by NewRouter. Nil handlers leave
// their routes unregistered.
type RouterConfig struct {
	Sessions       *SessionHandler
	Responses      *ResponseHandler
	Events         *EventHandler
	Conflicts      *ConflictHandler
	Faculty        *FacultyHandler
	RespondLimiter *ClientRateLimiter
	Logger         *slog.Logger
	Middleware     []func(http.Handler) http.Handler
}

// NewRouter builds the API routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(Tracing, RequestLogger(cfg.Logger), ActingUser)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		newResponder(cfg.Logger).writeJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Responses != nil {
		respond := r.With()
		if cfg.RespondLimiter != nil {
			respond = r.With(cfg.RespondLimiter.Middleware(cfg.Logger))
		}
		respond.Post("/sessions/respond", cfg.Responses.Respond)
	}

	if cfg.Sessions != nil {
		r.Post("/sessions", cfg.Sessions.Create)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", cfg.Sessions.Get)
			r.Patch("/", cfg.Sessions.Update)
			r.Delete("/", cfg.Sessions.Delete)
			r.Get("/invitation", cfg.Sessions.Invitation)
			r.Get("/approvals", cfg.Sessions.Approvals)
			r.Get("/activity", cfg.Sessions.Activity)
		})
	}

	if cfg.Events != nil {
		r.Get("/events/{eventID}/sessions", cfg.Events.Sessions)
		r.Get("/events/{eventID}/approvals", cfg.Events.Approvals)
	}

	if cfg.Conflicts != nil {
		r.Get("/conflicts", cfg.Conflicts.Check)
	}

	if cfg.Faculty != nil {
		r.Post("/faculty/resolve", cfg.Faculty.Resolve)
	}

	return r
}
