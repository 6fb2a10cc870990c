package sqlite

import (
	"context"
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence"
)

const facultyColumns = `id, email, display_name, role, credential_hash, created_at, updated_at`

func (q *queries) CreateFaculty(ctx context.Context, faculty persistence.FacultyIdentity) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO faculty (`+facultyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		faculty.ID, faculty.Email, faculty.DisplayName, string(faculty.Role),
		faculty.CredentialHash, toMillis(faculty.CreatedAt), toMillis(faculty.UpdatedAt),
	)
	return q.mapper.MapError(err)
}

func (q *queries) GetFaculty(ctx context.Context, id string) (persistence.FacultyIdentity, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+facultyColumns+` FROM faculty WHERE id = ?`, id)
	return q.scanFaculty(row)
}

// GetFacultyByEmail relies on the NOCASE collation of the email column.
func (q *queries) GetFacultyByEmail(ctx context.Context, email string) (persistence.FacultyIdentity, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+facultyColumns+` FROM faculty WHERE email = ?`, email)
	return q.scanFaculty(row)
}

func (q *queries) UpdateFacultyRole(ctx context.Context, id string, role persistence.FacultyRole, updatedAt time.Time) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE faculty SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), toMillis(updatedAt), id,
	)
	if err != nil {
		return q.mapper.MapError(err)
	}
	ok, err := affected(result)
	if err != nil {
		return err
	}
	if !ok {
		return persistence.ErrNotFound
	}
	return nil
}

func (q *queries) EnsureEventMembership(ctx context.Context, membership persistence.EventMembership) (bool, error) {
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO event_memberships (event_id, faculty_id, role, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (event_id, faculty_id) DO NOTHING`,
		membership.EventID, membership.FacultyID, membership.Role, toMillis(membership.CreatedAt),
	)
	if err != nil {
		return false, q.mapper.MapError(err)
	}
	return affected(result)
}

func (q *queries) ListEventMemberships(ctx context.Context, eventID string) ([]persistence.EventMembership, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT event_id, faculty_id, role, created_at
		FROM event_memberships WHERE event_id = ?
		ORDER BY created_at, faculty_id`, eventID)
	if err != nil {
		return nil, q.mapper.MapError(err)
	}
	defer rows.Close()

	var memberships []persistence.EventMembership
	for rows.Next() {
		var (
			m       persistence.EventMembership
			created int64
		)
		if err := rows.Scan(&m.EventID, &m.FacultyID, &m.Role, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = fromMillis(created)
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (q *queries) scanFaculty(row rowScanner) (persistence.FacultyIdentity, error) {
	var (
		f                persistence.FacultyIdentity
		role             string
		created, updated int64
	)
	if err := row.Scan(&f.ID, &f.Email, &f.DisplayName, &role, &f.CredentialHash, &created, &updated); err != nil {
		return persistence.FacultyIdentity{}, q.mapper.MapError(err)
	}
	f.Role = persistence.FacultyRole(role)
	f.CreatedAt = fromMillis(created)
	f.UpdatedAt = fromMillis(updated)
	return f, nil
}
