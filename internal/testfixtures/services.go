package testfixtures

import (
	"log/slog"
	"testing"
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/activity"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/application"
	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

// ServiceFactory wires the application services over one store with a
// deterministic clock and identifier sequence.
type ServiceFactory struct {
	Store       persistence.Store
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory builds a factory over a fresh memory store unless
// WithStore supplies another backend.
func NewServiceFactory(tb testing.TB, opts ...ServiceFactoryOption) *ServiceFactory {
	tb.Helper()
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      DiscardLogger(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Store == nil {
		factory.Store = NewMemoryStore(tb)
	}
	return factory
}

// WithStore overrides the backing store.
func WithStore(store persistence.Store) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Store = store
	}
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithLogger overrides the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Seed returns seeding helpers bound to the factory store.
func (f *ServiceFactory) Seed(tb testing.TB) *Seed {
	return NewSeed(tb, f.Store.Queries())
}

// Recorder builds an activity recorder writing to the factory store.
func (f *ServiceFactory) Recorder() *activity.Recorder {
	return activity.NewRecorder(f.Store.Queries(), NewIDGenerator("act").NextFunc(), f.Clock.NowFunc(), time.Second, f.Logger)
}

// Conflicts builds a conflict service.
func (f *ServiceFactory) Conflicts() *application.ConflictService {
	return application.NewConflictServiceWithLogger(f.Store, f.Logger)
}

// Faculty builds a faculty resolver.
func (f *ServiceFactory) Faculty() *application.FacultyResolver {
	return application.NewFacultyResolverWithLogger(f.Store, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// Sessions builds a session service recording activity through recorder.
func (f *ServiceFactory) Sessions(recorder application.ActivityRecorder) *application.SessionService {
	return application.NewSessionServiceWithLogger(
		f.Store,
		f.Conflicts(),
		f.Faculty(),
		recorder,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		f.Logger,
	)
}

// Responses builds a response service recording activity through recorder.
func (f *ServiceFactory) Responses(recorder application.ActivityRecorder) *application.ResponseService {
	return application.NewResponseServiceWithLogger(f.Store, recorder, f.Clock.NowFunc(), f.Logger)
}

// Approvals builds an approval service.
func (f *ServiceFactory) Approvals() *application.ApprovalService {
	return application.NewApprovalServiceWithLogger(f.Store, f.Clock.NowFunc(), f.Logger)
}
