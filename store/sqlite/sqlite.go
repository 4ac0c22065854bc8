/*
Package sqlite provides the SQLite-backed implementation of calendar.Store.

PURPOSE:
  Persists the append-only entry ledger, the materialized day projections,
  validation status with its transition history, the company holiday index
  and per-user notifications.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements touch calendar_versions or
    status_history; corrections happen by appending new versions.
  - calendar_projections is the only mutable table and is rewritten
    inside the same transaction that appends versions, so the projection
    can never diverge from the history.

KEY TABLES:
  calendar_versions:    Immutable ledger of all day edits
  calendar_projections: Current value per (owner, date), materialized
  calendar_status:      Validation status per owner
  status_history:       Immutable workflow transition log
  company_holidays:     Propagated holiday index (date -> flag)
  notifications:        Per-user message queue

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  Opened with WAL (Write-Ahead Logging): readers don't block, single
  writer, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/calendar.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - calendar/store.go: Interface definition
  - calendar/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/calendar-engine/calendar"
)

// Store implements calendar.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ calendar.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Entry versions (append-only ledger)
	CREATE TABLE IF NOT EXISTS calendar_versions (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		date TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		actor TEXT NOT NULL,
		actor_name TEXT NOT NULL,
		actor_role TEXT NOT NULL,
		action TEXT NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		flag TEXT NOT NULL DEFAULT '',
		hours TEXT NOT NULL DEFAULT '0',
		propagated_by TEXT NOT NULL DEFAULT ''
	);

	-- Hot path: history and projection lookups per day
	CREATE INDEX IF NOT EXISTS idx_versions_owner_date
		ON calendar_versions(owner, date);

	-- Materialized current value per day; written only inside the same
	-- transaction that appends versions
	CREATE TABLE IF NOT EXISTS calendar_projections (
		owner TEXT NOT NULL,
		date TEXT NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		flag TEXT NOT NULL DEFAULT '',
		hours TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (owner, date)
	);

	CREATE INDEX IF NOT EXISTS idx_projections_owner_flag
		ON calendar_projections(owner, flag);

	-- Validation status per owner
	CREATE TABLE IF NOT EXISTS calendar_status (
		owner TEXT PRIMARY KEY,
		status TEXT NOT NULL
	);

	-- Workflow transitions (append-only)
	CREATE TABLE IF NOT EXISTS status_history (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		from_status TEXT NOT NULL,
		to_status TEXT NOT NULL,
		actor TEXT NOT NULL,
		actor_name TEXT NOT NULL,
		actor_role TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_status_history_owner
		ON status_history(owner);

	-- Company holiday index (date -> flag, upserted by propagation)
	CREATE TABLE IF NOT EXISTS company_holidays (
		date TEXT PRIMARY KEY,
		flag TEXT NOT NULL
	);

	-- Per-user notification queue
	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		message TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_owner
		ON notifications(owner);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER
// =============================================================================

// AppendVersions appends a batch atomically and rewrites the projection of
// every touched day in the same transaction.
func (s *Store) AppendVersions(ctx context.Context, versions []calendar.EntryVersion) error {
	if len(versions) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertVersion := `
		INSERT INTO calendar_versions
		(id, owner, date, timestamp, actor, actor_name, actor_role, action,
		 comment, flag, hours, propagated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	upsertProjection := `
		INSERT INTO calendar_projections (owner, date, comment, flag, hours)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner, date) DO UPDATE SET
			comment = excluded.comment,
			flag = excluded.flag,
			hours = excluded.hours
	`

	for _, v := range versions {
		if _, err := tx.ExecContext(ctx, insertVersion,
			string(v.ID),
			string(v.Owner),
			v.Date.String(),
			v.Timestamp.UTC().Format(time.RFC3339Nano),
			string(v.Actor),
			v.ActorName,
			string(v.ActorRole),
			v.Action,
			v.Comment,
			string(v.Flag),
			v.Hours.String(),
			v.PropagatedBy,
		); err != nil {
			return fmt.Errorf("failed to append version: %w", err)
		}
		if _, err := tx.ExecContext(ctx, upsertProjection,
			string(v.Owner),
			v.Date.String(),
			v.Comment,
			string(v.Flag),
			v.Hours.String(),
		); err != nil {
			return fmt.Errorf("failed to update projection: %w", err)
		}
	}

	return tx.Commit()
}

// History returns all versions for (owner, date), most recent first.
func (s *Store) History(ctx context.Context, owner calendar.UserID, date calendar.Date) ([]calendar.EntryVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, date, timestamp, actor, actor_name, actor_role,
		       action, comment, flag, hours, propagated_by
		FROM calendar_versions
		WHERE owner = ? AND date = ?
		ORDER BY rowid DESC
	`, string(owner), date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var versions []calendar.EntryVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Projection returns the current value of a day.
func (s *Store) Projection(ctx context.Context, owner calendar.UserID, date calendar.Date) (calendar.DayProjection, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT comment, flag, hours FROM calendar_projections
		WHERE owner = ? AND date = ?
	`, string(owner), date.String())

	var comment, flag, hours string
	if err := row.Scan(&comment, &flag, &hours); err != nil {
		if err == sql.ErrNoRows {
			return calendar.DayProjection{}, false, nil
		}
		return calendar.DayProjection{}, false, fmt.Errorf("failed to query projection: %w", err)
	}
	h, err := decimal.NewFromString(hours)
	if err != nil {
		return calendar.DayProjection{}, false, fmt.Errorf("corrupt hours value %q: %w", hours, err)
	}
	return calendar.DayProjection{
		Owner:   owner,
		Date:    date,
		Comment: comment,
		Flag:    calendar.Flag(flag),
		Hours:   h,
	}, true, nil
}

// ProjectedDays returns every day of owner with history, in date order.
func (s *Store) ProjectedDays(ctx context.Context, owner calendar.UserID) ([]calendar.DayProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, comment, flag, hours FROM calendar_projections
		WHERE owner = ?
		ORDER BY date
	`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to query projections: %w", err)
	}
	defer rows.Close()

	var days []calendar.DayProjection
	for rows.Next() {
		var dateStr, comment, flag, hours string
		if err := rows.Scan(&dateStr, &comment, &flag, &hours); err != nil {
			return nil, err
		}
		date, err := calendar.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt date %q: %w", dateStr, err)
		}
		h, err := decimal.NewFromString(hours)
		if err != nil {
			return nil, fmt.Errorf("corrupt hours value %q: %w", hours, err)
		}
		days = append(days, calendar.DayProjection{
			Owner:   owner,
			Date:    date,
			Comment: comment,
			Flag:    calendar.Flag(flag),
			Hours:   h,
		})
	}
	return days, rows.Err()
}

// CountFlagDays counts owner's days whose projected flag equals flag.
func (s *Store) CountFlagDays(ctx context.Context, owner calendar.UserID, flag calendar.Flag) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM calendar_projections
		WHERE owner = ? AND flag = ?
	`, string(owner), string(flag)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count flag days: %w", err)
	}
	return count, nil
}

// =============================================================================
// VALIDATION STATUS
// =============================================================================

// Status returns the owner's validation status, lazily materializing draft.
func (s *Store) Status(ctx context.Context, owner calendar.UserID) (calendar.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM calendar_status WHERE owner = ?`, string(owner),
	).Scan(&status)
	if err == sql.ErrNoRows {
		return calendar.StatusDraft, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query status: %w", err)
	}
	return calendar.Status(status), nil
}

// SetStatus changes the owner's status and appends the change record.
func (s *Store) SetStatus(ctx context.Context, owner calendar.UserID, to calendar.Status, change calendar.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO calendar_status (owner, status) VALUES (?, ?)
		ON CONFLICT(owner) DO UPDATE SET status = excluded.status
	`, string(owner), string(to)); err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO status_history
		(id, owner, timestamp, from_status, to_status, actor, actor_name, actor_role, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		change.ID,
		string(owner),
		change.Timestamp.UTC().Format(time.RFC3339Nano),
		string(change.From),
		string(change.To),
		string(change.Actor),
		change.ActorName,
		string(change.ActorRole),
		change.Summary,
	); err != nil {
		return fmt.Errorf("failed to append status change: %w", err)
	}

	return tx.Commit()
}

// StatusHistory returns the owner's status changes, most recent first.
func (s *Store) StatusHistory(ctx context.Context, owner calendar.UserID) ([]calendar.StatusChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, from_status, to_status, actor, actor_name, actor_role, summary
		FROM status_history
		WHERE owner = ?
		ORDER BY rowid DESC
	`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var changes []calendar.StatusChange
	for rows.Next() {
		var c calendar.StatusChange
		var ts, from, to, actor, role string
		if err := rows.Scan(&c.ID, &ts, &from, &to, &actor, &c.ActorName, &role, &c.Summary); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("corrupt timestamp %q: %w", ts, err)
		}
		c.Timestamp = t
		c.From = calendar.Status(from)
		c.To = calendar.Status(to)
		c.Actor = calendar.UserID(actor)
		c.ActorRole = calendar.Role(role)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// =============================================================================
// HOLIDAYS AND NOTIFICATIONS
// =============================================================================

// RecordHoliday upserts a (date -> flag) entry in the holiday index.
func (s *Store) RecordHoliday(ctx context.Context, holiday calendar.CompanyHoliday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO company_holidays (date, flag) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET flag = excluded.flag
	`, holiday.Date.String(), string(holiday.Flag))
	if err != nil {
		return fmt.Errorf("failed to record holiday: %w", err)
	}
	return nil
}

// Holidays returns the holiday index sorted by date.
func (s *Store) Holidays(ctx context.Context) ([]calendar.CompanyHoliday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, flag FROM company_holidays ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []calendar.CompanyHoliday
	for rows.Next() {
		var dateStr, flag string
		if err := rows.Scan(&dateStr, &flag); err != nil {
			return nil, err
		}
		date, err := calendar.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt date %q: %w", dateStr, err)
		}
		holidays = append(holidays, calendar.CompanyHoliday{Date: date, Flag: calendar.Flag(flag)})
	}
	return holidays, rows.Err()
}

// PushNotification queues a message for owner.
func (s *Store) PushNotification(ctx context.Context, owner calendar.UserID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (owner, timestamp, message) VALUES (?, ?, ?)
	`, string(owner), time.Now().UTC().Format(time.RFC3339Nano), message)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	return nil
}

// Notifications returns owner's queued messages, oldest first.
func (s *Store) Notifications(ctx context.Context, owner calendar.UserID) ([]calendar.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, message FROM notifications
		WHERE owner = ?
		ORDER BY id
	`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notes []calendar.Notification
	for rows.Next() {
		var ts, message string
		if err := rows.Scan(&ts, &message); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("corrupt timestamp %q: %w", ts, err)
		}
		notes = append(notes, calendar.Notification{Timestamp: t, Message: message})
	}
	return notes, rows.Err()
}

// ClearNotifications empties owner's queue.
func (s *Store) ClearNotifications(ctx context.Context, owner calendar.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE owner = ?`, string(owner))
	if err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (calendar.EntryVersion, error) {
	var v calendar.EntryVersion
	var id, owner, dateStr, ts, actor, role, flag, hours string
	if err := row.Scan(&id, &owner, &dateStr, &ts, &actor, &v.ActorName, &role,
		&v.Action, &v.Comment, &flag, &hours, &v.PropagatedBy); err != nil {
		return calendar.EntryVersion{}, err
	}

	date, err := calendar.ParseDate(dateStr)
	if err != nil {
		return calendar.EntryVersion{}, fmt.Errorf("corrupt date %q: %w", dateStr, err)
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return calendar.EntryVersion{}, fmt.Errorf("corrupt timestamp %q: %w", ts, err)
	}
	h, err := decimal.NewFromString(hours)
	if err != nil {
		return calendar.EntryVersion{}, fmt.Errorf("corrupt hours value %q: %w", hours, err)
	}

	v.ID = calendar.VersionID(id)
	v.Owner = calendar.UserID(owner)
	v.Date = date
	v.Timestamp = t
	v.Actor = calendar.UserID(actor)
	v.ActorRole = calendar.Role(role)
	v.Flag = calendar.Flag(flag)
	v.Hours = h
	return v, nil
}
