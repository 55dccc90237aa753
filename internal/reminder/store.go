package reminder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is the wall-clock encoding used in the database. Timestamps are
// civil times in the store's configured timezone; no offset is stored.
const timeLayout = "2006-01-02 15:04:05"

// Store provides SQLite-backed storage for reminders and notes. It is the
// sole mutator of both tables; callers never run ad hoc queries.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

// NewStore opens (or creates) the SQLite database at dbPath and ensures the
// schema exists. All timestamps are read and written as wall-clock times in
// loc.
func NewStore(dbPath string, loc *time.Location) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes all writes and keeps :memory: databases
	// coherent across the pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, loc: loc}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reminders (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL,
			text       TEXT    NOT NULL,
			due_at     TEXT    NOT NULL,
			status     TEXT    NOT NULL DEFAULT 'pending',
			tags       TEXT    NOT NULL DEFAULT '',
			created_at TEXT    NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create reminders table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL,
			text       TEXT    NOT NULL,
			tags       TEXT    NOT NULL DEFAULT '',
			created_at TEXT    NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create notes table: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database reachability.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateReminder inserts a pending reminder and returns its assigned ID.
func (s *Store) CreateReminder(ctx context.Context, userID int64, text string, dueAt time.Time, tags []string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (user_id, text, due_at, status, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, userID, text, s.format(dueAt), StatusPending, joinTags(tags), s.format(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to insert reminder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted ID: %w", err)
	}
	return id, nil
}

// ListPending returns the user's pending reminders, soonest first.
func (s *Store) ListPending(ctx context.Context, userID int64) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, text, due_at, status, tags, created_at
		FROM reminders WHERE user_id = ? AND status = ? ORDER BY due_at ASC
	`, userID, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	return s.scanReminders(rows)
}

// ListDue returns every pending reminder, across all users, whose due time is
// at or before now. Used solely by the scheduler sweep.
func (s *Store) ListDue(ctx context.Context, now time.Time) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, text, due_at, status, tags, created_at
		FROM reminders WHERE status = ? AND due_at <= ? ORDER BY due_at ASC
	`, StatusPending, s.format(now))
	if err != nil {
		return nil, fmt.Errorf("failed to get due reminders: %w", err)
	}
	defer rows.Close()

	return s.scanReminders(rows)
}

// MarkSent transitions a pending reminder to sent. It reports false if no
// pending reminder with that ID existed, which keeps delivery at most once.
func (s *Store) MarkSent(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reminders SET status = ? WHERE id = ? AND status = ?
	`, StatusSent, id, StatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkDone transitions a reminder owned by userID to done. Done is terminal;
// a reminder that was already sent can still be completed.
func (s *Store) MarkDone(ctx context.Context, id, userID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reminders SET status = ? WHERE id = ? AND user_id = ? AND status != ?
	`, StatusDone, id, userID, StatusDone)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder done: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteReminder removes a reminder owned by userID.
func (s *Store) DeleteReminder(ctx context.Context, id, userID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM reminders WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete reminder: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ExistsDuplicate reports whether the user already has a pending reminder
// with the same text and due time.
func (s *Store) ExistsDuplicate(ctx context.Context, userID int64, text string, dueAt time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM reminders
			WHERE user_id = ? AND text = ? AND due_at = ? AND status = ?
		)
	`, userID, text, s.format(dueAt), StatusPending).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate: %w", err)
	}
	return exists, nil
}

// CreateNote inserts a note and returns its assigned ID.
func (s *Store) CreateNote(ctx context.Context, userID int64, text string, tags []string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (user_id, text, tags, created_at) VALUES (?, ?, ?, ?)
	`, userID, text, joinTags(tags), s.format(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to insert note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted ID: %w", err)
	}
	return id, nil
}

// ListNotes returns the user's notes, newest first.
func (s *Store) ListNotes(ctx context.Context, userID int64) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, text, tags, created_at
		FROM notes WHERE user_id = ? ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		var tags, createdAt string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Text, &tags, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		n.Tags = splitTags(tags)
		n.CreatedAt = s.parse(createdAt)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *Store) scanReminders(rows *sql.Rows) ([]Reminder, error) {
	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		var dueAt, tags, createdAt string

		if err := rows.Scan(&r.ID, &r.UserID, &r.Text, &dueAt, &r.Status, &tags, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}

		r.DueAt = s.parse(dueAt)
		r.Tags = splitTags(tags)
		r.CreatedAt = s.parse(createdAt)

		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func (s *Store) format(t time.Time) string {
	return t.In(s.loc).Format(timeLayout)
}

func (s *Store) parse(v string) time.Time {
	t, _ := time.ParseInLocation(timeLayout, v, s.loc)
	return t
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}
