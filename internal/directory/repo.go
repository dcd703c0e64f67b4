package directory

import (
	"context"
	"database/sql"
	"errors"
)

// Repository reads directory data from Postgres. The people and
// school_periods tables are owned by the back-office CRUD service; this
// repository never writes them.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a read-only directory repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// PersonByToken returns the person owning the scanned token, active or not.
func (r *Repository) PersonByToken(ctx context.Context, token string) (*Person, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, full_name, role_class, is_active, qr_token
		FROM people
		WHERE qr_token = $1
	`, token)
	return scanPerson(row)
}

// PersonByID returns a single person by id.
func (r *Repository) PersonByID(ctx context.Context, id string) (*Person, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, full_name, role_class, is_active, qr_token
		FROM people
		WHERE id = $1
	`, id)
	return scanPerson(row)
}

func scanPerson(row *sql.Row) (*Person, error) {
	var p Person
	var role string
	if err := row.Scan(&p.ID, &p.FullName, &role, &p.Active, &p.QRToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.RoleClass = RoleClass(role)
	return &p, nil
}

// ListActive returns active people, optionally restricted to a set of role
// classes, ordered by name for stable report output.
func (r *Repository) ListActive(ctx context.Context, filter RoleClassSet) ([]Person, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, full_name, role_class, is_active, qr_token
		FROM people
		WHERE is_active
		ORDER BY full_name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []Person
	for rows.Next() {
		var p Person
		var role string
		if err := rows.Scan(&p.ID, &p.FullName, &role, &p.Active, &p.QRToken); err != nil {
			return nil, err
		}
		p.RoleClass = RoleClass(role)
		if !filter.Allows(p.RoleClass) {
			continue
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

// ActivePeriods returns every school period currently flagged active.
func (r *Repository) ActivePeriods(ctx context.Context) ([]SchoolPeriod, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, starts_on, ends_on
		FROM school_periods
		WHERE is_active
		ORDER BY starts_on
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []SchoolPeriod
	for rows.Next() {
		var p SchoolPeriod
		if err := rows.Scan(&p.ID, &p.Name, &p.StartsOn, &p.EndsOn); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}
