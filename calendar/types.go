/*
Package calendar provides the core building blocks of the leave/attendance
calendar engine.

PURPOSE:
  This package contains the types and algorithms shared by every higher-level
  component: the append-only per-(user, date) entry ledger, the derived day
  projection, the calendar validation status, the company holiday index and
  per-user notifications.

KEY CONCEPTS IN THIS FILE (types.go):
  - EntryVersion: An immutable ledger record for one (owner, date) edit
  - DayProjection: The current derived value of a day (latest version)
  - Status / StatusChange: Per-user validation state and its audit trail
  - CompanyHoliday: Audit index of propagated holiday dates
  - Actor: The identity performing a write (id, name, role)

DESIGN PRINCIPLES:
  1. Immutability: Versions are appended, never edited or deleted
  2. Precision: Hours use decimal.Decimal to avoid floating-point errors
  3. Type Safety: Strong typing for user/project/division/region identifiers
  4. Auditability: Every version records actor, role and an action summary

SEE ALSO:
  - flags.go: The closed flag enum and the role capability table
  - ledger.go: Hours normalization, diff summaries, append pipeline
  - store.go: Persistence interface
*/
package calendar

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type ProjectID string
type DivisionID string
type Region string
type VersionID string

// Role is the closed set of actor roles.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleHR       Role = "hr"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleManager || r == RoleHR
}

// Actor identifies who performs a write. Resolved from the directory by the
// engine before any ledger operation.
type Actor struct {
	ID   UserID
	Name string
	Role Role
}

// =============================================================================
// ENTRY VERSION - Immutable ledger record
// =============================================================================

// EntryVersion is one element of the append-only history for (Owner, Date).
// Once written it is never modified; the projection of a day is always the
// most recently appended version.
type EntryVersion struct {
	ID        VersionID
	Owner     UserID
	Date      Date
	Timestamp time.Time

	Actor     UserID
	ActorName string
	ActorRole Role

	// Action is a human-readable summary of what changed relative to the
	// previous projection ("comment added, flag changed", "no changes", ...).
	Action string

	Comment string
	Flag    Flag
	Hours   decimal.Decimal

	// PropagatedBy carries the propagating actor's display name when this
	// version was written by a company/region/project-wide fan-out.
	PropagatedBy string
}

// =============================================================================
// DAY PROJECTION - Derived current value
// =============================================================================

// DayProjection is the current value of a day: the fields of the last version
// appended for (Owner, Date). Stores maintain it transactionally with every
// append; it must never diverge from the history.
type DayProjection struct {
	Owner   UserID
	Date    Date
	Comment string
	Flag    Flag
	Hours   decimal.Decimal
}

// Color returns the display color of the projected flag.
func (p DayProjection) Color() string { return p.Flag.Color() }

// IsEmpty reports whether the day carries no data worth exporting.
func (p DayProjection) IsEmpty() bool {
	return p.Comment == "" && p.Flag == FlagNone && !p.Hours.IsPositive()
}

// =============================================================================
// VALIDATION STATUS
// =============================================================================

// Status is the per-user calendar validation state.
type Status string

const (
	StatusDraft              Status = "draft"
	StatusPendingManager     Status = "pending_manager_validation"
	StatusValidatedByManager Status = "validated_by_manager"
	StatusValidated          Status = "validated"
)

// StatusChange is one element of the append-only status audit trail.
type StatusChange struct {
	ID        string
	Timestamp time.Time
	From      Status
	To        Status
	Actor     UserID
	ActorName string
	ActorRole Role
	Summary   string
}

// =============================================================================
// COMPANY HOLIDAYS & NOTIFICATIONS
// =============================================================================

// CompanyHoliday records that a holiday-family flag was propagated on a date.
// It is an audit index, not a source of truth: the ledger versions are.
type CompanyHoliday struct {
	Date Date
	Flag Flag
}

// Notification is a human-readable message queued for a user as a side effect
// of a propagated edit. Consumed and cleared by the owning user.
type Notification struct {
	Timestamp time.Time
	Message   string
}
