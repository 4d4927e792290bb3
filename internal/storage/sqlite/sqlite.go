package sqlite

import (
	"careBooker/internal/storage"
	"context"
	"database/sql"
	"fmt"
	_ "github.com/mattn/go-sqlite3"
	"net/url"
	"os"
	"path/filepath"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	handle           TEXT PRIMARY KEY,
	role             TEXT NOT NULL DEFAULT '' CHECK(role IN ('', 'individual', 'caregiver')),
	full_name        TEXT NOT NULL DEFAULT '',
	phone            TEXT NOT NULL DEFAULT '',
	chat_id          INTEGER NOT NULL DEFAULT 0,
	caregiver_handle TEXT REFERENCES profiles(handle),
	created_ts       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profiles_caregiver ON profiles(caregiver_handle);

CREATE TABLE IF NOT EXISTS events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	start_ts    INTEGER NOT NULL,
	end_ts      INTEGER NOT NULL,
	capacity    INTEGER NOT NULL CHECK(capacity > 0),
	created_ts  INTEGER NOT NULL,
	CHECK(start_ts < end_ts)
);

CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_ts);

CREATE TABLE IF NOT EXISTS bookings (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id        INTEGER NOT NULL REFERENCES events(id),
	holder_handle   TEXT NOT NULL REFERENCES profiles(handle),
	attendee_handle TEXT NOT NULL REFERENCES profiles(handle),
	status          TEXT NOT NULL CHECK(status IN ('confirmed', 'pending_caregiver_confirmation', 'declined')),
	created_ts      INTEGER NOT NULL,
	UNIQUE(event_id, attendee_handle)
);

CREATE INDEX IF NOT EXISTS idx_bookings_attendee ON bookings(attendee_handle, status);
`

type Storage struct {
	*Queries
	db *sql.DB
}

// New opens (creating if needed) the database file at path and applies the
// schema. Write transactions take the database lock on BEGIN.
func New(path string) (*Storage, error) {
	const op = "storage.sqlite.New"

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%s: create dir: %w", op, err)
		}
	}

	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", "5000")
	params.Set("_journal_mode", "WAL")
	params.Set("_txlock", "immediate")

	db, err := sql.Open("sqlite3", path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: apply schema: %w", op, err)
	}

	return &Storage{Queries: &Queries{db: db}, db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Atomic(ctx context.Context, fn func(q storage.Queries) error) error {
	const op = "storage.sqlite.Atomic"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err = fn(&Queries{db: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}
