package sqlite

import (
	"careBooker/internal/models"
	"careBooker/internal/storage"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/mattn/go-sqlite3"
	"strings"
	"time"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries implements storage.Queries on top of either *sql.DB or *sql.Tx.
type Queries struct {
	db dbtx
}

var _ storage.Queries = (*Queries)(nil)

const eventColumns = `e.id, e.title, e.description, e.location, e.start_ts, e.end_ts, e.capacity, e.created_ts,
	(SELECT COUNT(*) FROM bookings b WHERE b.event_id = e.id AND b.status = 'confirmed')`

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (models.Event, error) {
	var (
		e                          models.Event
		startTS, endTS, createdTS int64
	)
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Location,
		&startTS,
		&endTS,
		&e.Capacity,
		&createdTS,
		&e.BookedSeats,
	)
	if err != nil {
		return models.Event{}, err
	}
	e.Start = time.Unix(startTS, 0).UTC()
	e.End = time.Unix(endTS, 0).UTC()
	e.CreatedAt = time.Unix(createdTS, 0).UTC()
	return e, nil
}

func scanProfile(row scanner) (models.Profile, error) {
	var (
		p         models.Profile
		role      string
		caregiver sql.NullString
		createdTS int64
	)
	if err := row.Scan(&p.Handle, &role, &p.FullName, &p.Phone, &p.ChatID, &caregiver, &createdTS); err != nil {
		return models.Profile{}, err
	}
	p.Role = models.Role(role)
	p.Caregiver = caregiver.String
	p.CreatedAt = time.Unix(createdTS, 0).UTC()
	return p, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (q *Queries) Profile(ctx context.Context, handle string) (models.Profile, error) {
	const op = "storage.sqlite.Profile"

	row := q.db.QueryRowContext(ctx, `
		SELECT handle, role, full_name, phone, chat_id, caregiver_handle, created_ts
		FROM profiles
		WHERE handle = ?`, handle)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, storage.ErrProfileNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

func (q *Queries) InsertProfile(ctx context.Context, p models.Profile) error {
	const op = "storage.sqlite.InsertProfile"

	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO profiles (handle, role, full_name, phone, chat_id, caregiver_handle, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Handle, string(p.Role), p.FullName, p.Phone, p.ChatID, nullable(p.Caregiver), created.Unix(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return storage.ErrProfileExists
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (q *Queries) UpdateProfile(ctx context.Context, p models.Profile) error {
	const op = "storage.sqlite.UpdateProfile"

	res, err := q.db.ExecContext(ctx, `
		UPDATE profiles
		SET role = ?, full_name = ?, phone = ?, caregiver_handle = ?
		WHERE handle = ?`,
		string(p.Role), p.FullName, p.Phone, nullable(p.Caregiver), p.Handle,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return expectRow(res, op, storage.ErrProfileNotFound)
}

func (q *Queries) SetChatID(ctx context.Context, handle string, chatID int64) error {
	const op = "storage.sqlite.SetChatID"

	res, err := q.db.ExecContext(ctx, `UPDATE profiles SET chat_id = ? WHERE handle = ?`, chatID, handle)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return expectRow(res, op, storage.ErrProfileNotFound)
}

func (q *Queries) LinkedIndividuals(ctx context.Context, caregiver string) ([]models.Profile, error) {
	const op = "storage.sqlite.LinkedIndividuals"

	rows, err := q.db.QueryContext(ctx, `
		SELECT handle, role, full_name, phone, chat_id, caregiver_handle, created_ts
		FROM profiles
		WHERE caregiver_handle = ?
		ORDER BY handle`, caregiver)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (q *Queries) InsertEvent(ctx context.Context, e models.Event) (int64, error) {
	const op = "storage.sqlite.InsertEvent"

	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO events (title, description, location, start_ts, end_ts, capacity, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.Description, e.Location, e.Start.Unix(), e.End.Unix(), e.Capacity, created.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: last insert id: %w", op, err)
	}

	return id, nil
}

func (q *Queries) Event(ctx context.Context, id int64) (models.Event, error) {
	const op = "storage.sqlite.Event"

	row := q.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = ?`, id)

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, storage.ErrEventNotFound
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	return e, nil
}

func (q *Queries) EventsStartingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	const op = "storage.sqlite.EventsStartingBetween"

	rows, err := q.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		WHERE e.start_ts >= ? AND e.start_ts < ?
		ORDER BY e.start_ts ASC, e.id ASC`, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectEvents(rows, op)
}

func (q *Queries) CountEvents(ctx context.Context) (int, error) {
	const op = "storage.sqlite.CountEvents"

	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (q *Queries) Booking(ctx context.Context, eventID int64, attendee string) (models.Booking, error) {
	const op = "storage.sqlite.Booking"

	var (
		b         models.Booking
		status    string
		createdTS int64
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, event_id, holder_handle, attendee_handle, status, created_ts
		FROM bookings
		WHERE event_id = ? AND attendee_handle = ?`, eventID, attendee,
	).Scan(&b.ID, &b.EventID, &b.Holder, &b.Attendee, &status, &createdTS)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, storage.ErrBookingNotFound
	}
	if err != nil {
		return models.Booking{}, fmt.Errorf("%s: %w", op, err)
	}

	b.Status = models.BookingStatus(status)
	b.CreatedAt = time.Unix(createdTS, 0).UTC()

	return b, nil
}

func (q *Queries) InsertBooking(ctx context.Context, b models.Booking) (int64, error) {
	const op = "storage.sqlite.InsertBooking"

	created := b.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO bookings (event_id, holder_handle, attendee_handle, status, created_ts)
		VALUES (?, ?, ?, ?, ?)`,
		b.EventID, b.Holder, b.Attendee, string(b.Status), created.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: last insert id: %w", op, err)
	}

	return id, nil
}

func (q *Queries) UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	const op = "storage.sqlite.UpdateBookingStatus"

	res, err := q.db.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return expectRow(res, op, storage.ErrBookingNotFound)
}

func (q *Queries) DeleteBooking(ctx context.Context, eventID int64, attendee string) error {
	const op = "storage.sqlite.DeleteBooking"

	res, err := q.db.ExecContext(ctx, `
		DELETE FROM bookings
		WHERE event_id = ? AND attendee_handle = ?`, eventID, attendee)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return expectRow(res, op, storage.ErrBookingNotFound)
}

func (q *Queries) CountConfirmed(ctx context.Context, eventID int64) (int, error) {
	const op = "storage.sqlite.CountConfirmed"

	var n int
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM bookings
		WHERE event_id = ? AND status = 'confirmed'`, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (q *Queries) ConfirmedEventsFor(ctx context.Context, attendee string) ([]models.Event, error) {
	const op = "storage.sqlite.ConfirmedEventsFor"

	rows, err := q.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM bookings bk
		JOIN events e ON e.id = bk.event_id
		WHERE bk.attendee_handle = ? AND bk.status = 'confirmed'
		ORDER BY e.start_ts ASC`, attendee)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectEvents(rows, op)
}

func (q *Queries) BookingsFor(ctx context.Context, attendees []string) ([]models.BookingView, error) {
	const op = "storage.sqlite.BookingsFor"

	if len(attendees) == 0 {
		return nil, nil
	}

	args := make([]any, len(attendees))
	for i, a := range attendees {
		args[i] = a
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(attendees)), ",")

	rows, err := q.db.QueryContext(ctx, `
		SELECT bk.id, bk.event_id, bk.holder_handle, bk.attendee_handle, bk.status, bk.created_ts, `+eventColumns+`
		FROM bookings bk
		JOIN events e ON e.id = bk.event_id
		WHERE bk.attendee_handle IN (`+placeholders+`)
		ORDER BY e.start_ts ASC, bk.attendee_handle ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.BookingView
	for rows.Next() {
		var (
			v                          models.BookingView
			status                     string
			createdTS                  int64
			startTS, endTS, evCreateTS int64
		)
		err = rows.Scan(
			&v.ID, &v.EventID, &v.Holder, &v.Attendee, &status, &createdTS,
			&v.Event.ID, &v.Event.Title, &v.Event.Description, &v.Event.Location,
			&startTS, &endTS, &v.Event.Capacity, &evCreateTS, &v.Event.BookedSeats,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		v.Status = models.BookingStatus(status)
		v.CreatedAt = time.Unix(createdTS, 0).UTC()
		v.Event.Start = time.Unix(startTS, 0).UTC()
		v.Event.End = time.Unix(endTS, 0).UTC()
		v.Event.CreatedAt = time.Unix(evCreateTS, 0).UTC()
		out = append(out, v)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (q *Queries) Attendance(ctx context.Context, eventID int64) ([]models.Attendance, error) {
	const op = "storage.sqlite.Attendance"

	rows, err := q.db.QueryContext(ctx, `
		SELECT p.handle, p.full_name, p.role, bk.status, bk.holder_handle
		FROM bookings bk
		JOIN profiles p ON p.handle = bk.attendee_handle
		WHERE bk.event_id = ?
		ORDER BY bk.status ASC, p.handle ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Attendance
	for rows.Next() {
		var (
			a            models.Attendance
			role, status string
		)
		if err = rows.Scan(&a.Handle, &a.FullName, &role, &status, &a.Holder); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		a.Role = models.Role(role)
		a.Status = models.BookingStatus(status)
		out = append(out, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func collectEvents(rows *sql.Rows, op string) ([]models.Event, error) {
	var out []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func expectRow(res sql.Result, op string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
