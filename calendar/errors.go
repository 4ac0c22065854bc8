/*
errors.go - Centralized error taxonomy for the calendar engine

PURPOSE:
  All engine error types in one place. Higher-level packages wrap these with
  additional context; the API layer maps them to HTTP status codes.

TAXONOMY:
  AccessDenied     role/scope/protected-date violations
  QuotaExhausted   employee write blocked by an exhausted allowance
  InvalidDate      weekend or out-of-year date
  InvalidTransition illegal validation status change
  ScopeViolation   manager acting outside their affiliated projects
  MalformedDocument import parse or structure failure
  NotFound         missing user/project reference

CONTRACT:
  Every rejection carries a specific, actionable message. A rejected
  operation performs zero ledger appends - there is no partial state to
  clean up at the call boundary.
*/
package calendar

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAccessDenied is returned for role, scope and protected-date violations.
	ErrAccessDenied = errors.New("access denied")

	// ErrQuotaExhausted is returned when an employee write exceeds a quota.
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrInvalidDate is returned for weekend or out-of-year dates.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidTransition is returned for illegal status changes.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrScopeViolation is returned when a manager acts outside their projects.
	ErrScopeViolation = errors.New("scope violation")

	// ErrMalformedDocument is returned on import parse/structure failures.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrNotFound is returned for missing users or projects.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID is returned when directory registration collides on id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrRegionRequired is returned when a regional propagation has no region.
	ErrRegionRequired = errors.New("region required")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// AccessDeniedError explains which rule rejected the edit.
type AccessDeniedError struct {
	Actor  UserID
	Role   Role
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied for %s (%s): %s", e.Actor, e.Role, e.Reason)
}

func (e *AccessDeniedError) Unwrap() error { return ErrAccessDenied }

// QuotaExhaustedError reports which allowance ran out.
type QuotaExhaustedError struct {
	Owner     UserID
	Flag      Flag
	Limit     int
	Remaining int
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("quota exhausted for %s: %q allows %d day(s), %d remaining",
		e.Owner, e.Flag, e.Limit, e.Remaining)
}

func (e *QuotaExhaustedError) Unwrap() error { return ErrQuotaExhausted }

// InvalidDateError reports why a date was rejected.
type InvalidDateError struct {
	Date   Date
	Reason string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %s: %s", e.Date, e.Reason)
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }

// InvalidTransitionError reports an illegal status change attempt.
type InvalidTransitionError struct {
	Owner UserID
	From  Status
	To    Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for %s: %s -> %s", e.Owner, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// ScopeViolationError reports a manager acting outside their projects.
type ScopeViolationError struct {
	Actor   UserID
	Project ProjectID
	Reason  string
}

func (e *ScopeViolationError) Error() string {
	if e.Project != "" {
		return fmt.Sprintf("scope violation for %s on project %s: %s", e.Actor, e.Project, e.Reason)
	}
	return fmt.Sprintf("scope violation for %s: %s", e.Actor, e.Reason)
}

func (e *ScopeViolationError) Unwrap() error { return ErrScopeViolation }

// MalformedDocumentError reports what was wrong with an imported document.
type MalformedDocumentError struct {
	Reason string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed document: %s", e.Reason)
}

func (e *MalformedDocumentError) Unwrap() error { return ErrMalformedDocument }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is caused by invalid caller input
// rather than an engine/storage failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrQuotaExhausted) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrScopeViolation) ||
		errors.Is(err, ErrMalformedDocument) ||
		errors.Is(err, ErrRegionRequired) ||
		errors.Is(err, ErrNotFound)
}
