package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

// FacultyResolver finds or lazily provisions the faculty identity behind an
// email and makes sure it is a member of the event.
type FacultyResolver struct {
	store       persistence.Store
	validate    *validator.Validate
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewFacultyResolver constructs a resolver with the provided dependencies.
func NewFacultyResolver(store persistence.Store, idGenerator func() string, now func() time.Time) *FacultyResolver {
	return NewFacultyResolverWithLogger(store, idGenerator, now, nil)
}

// NewFacultyResolverWithLogger constructs a resolver with a specified logger.
func NewFacultyResolverWithLogger(store persistence.Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *FacultyResolver {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &FacultyResolver{
		store:       store,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// ResolveFaculty runs Resolve in its own transaction.
func (r *FacultyResolver) ResolveFaculty(ctx context.Context, params ResolveFacultyParams) (res FacultyResolution, err error) {
	if r == nil {
		err = fmt.Errorf("FacultyResolver is nil")
		return
	}

	ctx, span := startSpan(ctx, "FacultyResolver", "ResolveFaculty")
	defer func() { endSpan(span, err) }()

	logger := serviceLogger(ctx, r.logger, "FacultyResolver", "ResolveFaculty", "event_id", params.EventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to resolve faculty", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "faculty resolved",
			"faculty_id", res.FacultyID,
			"created", res.Created,
			"membership_created", res.MembershipCreated,
		)
	}()

	if strings.TrimSpace(params.EventID) == "" {
		err = newValidationError("event_id", "is required")
		return
	}

	err = r.store.WithTx(ctx, func(q persistence.Queries) error {
		if _, err := q.GetEvent(ctx, params.EventID); err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return fmt.Errorf("%w: event %s", ErrNotFound, params.EventID)
			}
			return err
		}
		var err error
		res, err = r.Resolve(ctx, q, params)
		return err
	})
	err = classifyStoreError("FacultyResolver.ResolveFaculty", err)
	return
}

// Resolve runs inside the caller's transaction. An existing identity is reused
// and never downgraded from an elevated role; an unknown email gets a new
// Faculty identity with an unusable credential.
func (r *FacultyResolver) Resolve(ctx context.Context, q persistence.Queries, params ResolveFacultyParams) (FacultyResolution, error) {
	email := normalizeEmail(params.Email)
	if err := r.validateEmail(email); err != nil {
		return FacultyResolution{}, err
	}

	now := r.now().UTC()
	res := FacultyResolution{Email: email}

	existing, err := q.GetFacultyByEmail(ctx, email)
	switch {
	case err == nil:
		res.FacultyID = existing.ID
		res.DisplayName = existing.DisplayName
		res.Role = existing.Role
		if !existing.Role.Elevated() && existing.Role != persistence.RoleFaculty {
			if err := q.UpdateFacultyRole(ctx, existing.ID, persistence.RoleFaculty, now); err != nil {
				return FacultyResolution{}, fmt.Errorf("update faculty role: %w", err)
			}
			res.Role = persistence.RoleFaculty
		}
	case errors.Is(err, persistence.ErrNotFound):
		identity, err := r.provision(email, params, now)
		if err != nil {
			return FacultyResolution{}, err
		}
		if err := q.CreateFaculty(ctx, identity); err != nil {
			return FacultyResolution{}, fmt.Errorf("create faculty: %w", err)
		}
		res.FacultyID = identity.ID
		res.DisplayName = identity.DisplayName
		res.Role = identity.Role
		res.Created = true
	default:
		return FacultyResolution{}, fmt.Errorf("lookup faculty: %w", err)
	}

	created, err := q.EnsureEventMembership(ctx, persistence.EventMembership{
		EventID:   params.EventID,
		FacultyID: res.FacultyID,
		Role:      persistence.MembershipRoleSpeaker,
		CreatedAt: now,
	})
	if err != nil {
		return FacultyResolution{}, fmt.Errorf("ensure event membership: %w", err)
	}
	res.MembershipCreated = created
	return res, nil
}

func (r *FacultyResolver) validateEmail(email string) error {
	if err := r.validate.Var(email, "required,email"); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "required" {
			return newValidationError("faculty_email", "is required")
		}
		return newValidationError("faculty_email", "must be a valid email address")
	}
	return nil
}

func (r *FacultyResolver) provision(email string, params ResolveFacultyParams, now time.Time) (persistence.FacultyIdentity, error) {
	id := strings.TrimSpace(params.IDHint)
	if id == "" {
		id = r.idGenerator()
	}
	name := strings.TrimSpace(params.DisplayName)
	if name == "" {
		name = displayNameFromEmail(email)
	}
	credential, err := newPlaceholderCredential()
	if err != nil {
		return persistence.FacultyIdentity{}, fmt.Errorf("generate placeholder credential: %w", err)
	}
	return persistence.FacultyIdentity{
		ID:             id,
		Email:          email,
		DisplayName:    name,
		Role:           persistence.RoleFaculty,
		CredentialHash: credential,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// displayNameFromEmail turns "ada.lovelace@x.edu" into "Ada Lovelace".
func displayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	if len(words) == 0 {
		return email
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
