/*
store.go - Persistence interface for the calendar engine

PURPOSE:
  Defines the boundary between the business rules and storage. The engine is
  specified against this interface only; implementations exist for SQLite
  (production) and in-memory (tests/dev).

APPEND-ONLY CONTRACT:
  Versions and status changes are appended, never updated or deleted.
  AppendVersions is atomic: either every version in the batch becomes
  visible or none does. A rejected operation therefore leaves no trace.

PROJECTION CONTRACT:
  Projection(owner, date) must always equal the fields of the most recently
  appended version for that key. Implementations maintain it as a
  materialized view inside the same transaction that writes history.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store (WAL, materialized projections)
  - calendar/store: in-memory store for tests and dev servers
*/
package calendar

import "context"

// Store persists ledger versions, projections, validation status, the
// company holiday index and per-user notifications.
type Store interface {
	// AppendVersions appends a batch of versions atomically, updating the
	// projection of every touched (owner, date) key. The ONLY ledger write.
	AppendVersions(ctx context.Context, versions []EntryVersion) error

	// History returns all versions for (owner, date), most recent first.
	History(ctx context.Context, owner UserID, date Date) ([]EntryVersion, error)

	// Projection returns the current value of a day. ok is false when the
	// day has no history.
	Projection(ctx context.Context, owner UserID, date Date) (DayProjection, bool, error)

	// ProjectedDays returns every day of owner with history, in date order.
	ProjectedDays(ctx context.Context, owner UserID) ([]DayProjection, error)

	// CountFlagDays counts owner's days whose projected flag equals flag.
	CountFlagDays(ctx context.Context, owner UserID, flag Flag) (int, error)

	// Status returns the owner's validation status, lazily materializing
	// draft on first reference.
	Status(ctx context.Context, owner UserID) (Status, error)

	// SetStatus changes the owner's status and appends the change record.
	SetStatus(ctx context.Context, owner UserID, to Status, change StatusChange) error

	// StatusHistory returns the owner's status changes, most recent first.
	StatusHistory(ctx context.Context, owner UserID) ([]StatusChange, error)

	// RecordHoliday upserts a (date -> flag) entry in the holiday index.
	RecordHoliday(ctx context.Context, holiday CompanyHoliday) error

	// Holidays returns the holiday index sorted by date.
	Holidays(ctx context.Context) ([]CompanyHoliday, error)

	// PushNotification queues a message for owner.
	PushNotification(ctx context.Context, owner UserID, message string) error

	// Notifications returns owner's queued messages, oldest first.
	Notifications(ctx context.Context, owner UserID) ([]Notification, error)

	// ClearNotifications empties owner's queue.
	ClearNotifications(ctx context.Context, owner UserID) error
}
