package engine

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// EventStore is the append-only persistence boundary for attendance
// events. Implementations never update or delete rows.
type EventStore interface {
	// EventsForDay returns a person's events for one date inside one school
	// period, ascending by scanned_at with id as the stable tie-break. The
	// gate and the type resolver both read this single snapshot.
	EventsForDay(ctx context.Context, personID, periodID, date string) ([]Event, error)

	// Insert appends one event. The only write operation.
	Insert(ctx context.Context, evt Event) (Event, error)

	// EventsForPersonRange returns a person's events across [from, to]
	// inclusive, ordered by date, scanned_at, id.
	EventsForPersonRange(ctx context.Context, personID, from, to string) ([]Event, error)

	// EventsForDate returns every event on a date, grouped by person in the
	// ordering, for daily reporting.
	EventsForDate(ctx context.Context, date string) ([]Event, error)
}

// PostgresStore persists attendance events in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates an event store over the given connection.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const eventColumns = `id, person_id, supervisor_id, school_period_id, date, scanned_at, event_type, late_minutes, early_departure_minutes, raw_token, created_at`

// EventsForDay returns the day's events for one person, oldest first.
func (s *PostgresStore) EventsForDay(ctx context.Context, personID, periodID, date string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM attendance_events
		WHERE person_id = $1 AND school_period_id = $2 AND date = $3
		ORDER BY scanned_at ASC, id ASC
	`, personID, periodID, date)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// Insert writes a new event.
func (s *PostgresStore) Insert(ctx context.Context, evt Event) (Event, error) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.ScannedAt.IsZero() {
		evt.ScannedAt = time.Now().UTC()
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO attendance_events (id, person_id, supervisor_id, school_period_id, date, scanned_at, event_type, late_minutes, early_departure_minutes, raw_token)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at
	`, evt.ID, evt.PersonID, evt.SupervisorID, evt.SchoolPeriodID, evt.Date, evt.ScannedAt, evt.Type, evt.LateMinutes, evt.EarlyDepartureMinutes, evt.RawToken)
	if err := row.Scan(&evt.CreatedAt); err != nil {
		return Event{}, err
	}
	return evt, nil
}

// EventByID returns a single event. Used by the notification worker.
func (s *PostgresStore) EventByID(ctx context.Context, id string) (Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM attendance_events
		WHERE id = $1
	`, id)
	var evt Event
	var typ string
	if err := row.Scan(&evt.ID, &evt.PersonID, &evt.SupervisorID, &evt.SchoolPeriodID, &evt.Date, &evt.ScannedAt, &typ, &evt.LateMinutes, &evt.EarlyDepartureMinutes, &evt.RawToken, &evt.CreatedAt); err != nil {
		return Event{}, err
	}
	evt.Type = EventType(typ)
	return evt, nil
}

// EventsForPersonRange returns a person's events across a date range.
func (s *PostgresStore) EventsForPersonRange(ctx context.Context, personID, from, to string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM attendance_events
		WHERE person_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC, scanned_at ASC, id ASC
	`, personID, from, to)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// EventsForDate returns all events recorded on one date.
func (s *PostgresStore) EventsForDate(ctx context.Context, date string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM attendance_events
		WHERE date = $1
		ORDER BY person_id ASC, scanned_at ASC, id ASC
	`, date)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()
	var events []Event
	for rows.Next() {
		var evt Event
		var typ string
		if err := rows.Scan(&evt.ID, &evt.PersonID, &evt.SupervisorID, &evt.SchoolPeriodID, &evt.Date, &evt.ScannedAt, &typ, &evt.LateMinutes, &evt.EarlyDepartureMinutes, &evt.RawToken, &evt.CreatedAt); err != nil {
			return nil, err
		}
		evt.Type = EventType(typ)
		events = append(events, evt)
	}
	return events, rows.Err()
}
