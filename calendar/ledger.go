/*
ledger.go - Append-only entry ledger

PURPOSE:
  The Ledger is the single write path into a user's calendar. Every edit -
  direct, propagated, bulk or imported - becomes an EntryVersion built here:
  hours are normalized, the action summary is computed by diffing against
  the current projection, and the batch is committed atomically.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: versions are never edited or deleted
  2. WEEKDAYS ONLY: Saturday/Sunday writes are rejected with InvalidDate
  3. NO DEDUP: an edit that changes nothing still appends ("no changes")
  4. PROJECTION: after commit, Projection == fields of the last version

HOURS NORMALIZATION:
  - any non-blank flag except project worktime forces hours to 0
  - blank flag: clamp into [0, 12], round to the nearest quarter hour
  - project worktime: clamp into [5, 19], round to the nearest quarter hour

TWO-PHASE USE:
  Multi-target operations (propagation, bulk hours, import) Prepare all
  versions first - validating every date before anything is written - and
  Commit the whole batch in one atomic store call.
*/
package calendar

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS NORMALIZATION
// =============================================================================

var (
	hoursMinBlank    = decimal.Zero
	hoursMaxBlank    = decimal.NewFromInt(12)
	hoursMinWorktime = decimal.NewFromInt(5)
	hoursMaxWorktime = decimal.NewFromInt(19)
	quarterHour      = decimal.NewFromFloat(0.25)
)

// NormalizeHours applies the flag-specific clamping and quarter-hour rounding.
func NormalizeHours(flag Flag, hours decimal.Decimal) decimal.Decimal {
	switch {
	case flag == FlagProjectWorktime:
		return roundQuarter(clamp(hours, hoursMinWorktime, hoursMaxWorktime))
	case flag != FlagNone:
		return decimal.Zero
	default:
		return roundQuarter(clamp(hours, hoursMinBlank, hoursMaxBlank))
	}
}

func clamp(v, min, max decimal.Decimal) decimal.Decimal {
	if v.LessThan(min) {
		return min
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}

// roundQuarter rounds to the nearest 0.25, halves away from zero.
func roundQuarter(v decimal.Decimal) decimal.Decimal {
	return v.Div(quarterHour).Round(0).Mul(quarterHour)
}

// =============================================================================
// LEDGER
// =============================================================================

// Entry is the caller-supplied payload of one edit.
type Entry struct {
	Comment string
	Flag    Flag
	Hours   decimal.Decimal
}

// Ledger builds and commits entry versions against a Store.
type Ledger struct {
	store Store
	now   func() time.Time
	newID func() VersionID
}

func NewLedger(store Store) *Ledger {
	return &Ledger{
		store: store,
		now:   time.Now,
		newID: func() VersionID { return VersionID(uuid.NewString()) },
	}
}

// WithClock overrides the timestamp source. Used by tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Prepare validates the date, normalizes hours and builds a version whose
// Action summarizes the diff against the current projection. Nothing is
// written; pass the result to Commit.
func (l *Ledger) Prepare(ctx context.Context, owner UserID, date Date, e Entry, actor Actor) (EntryVersion, error) {
	if date.IsZero() {
		return EntryVersion{}, &InvalidDateError{Date: date, Reason: "missing date"}
	}
	if date.IsWeekend() {
		return EntryVersion{}, &InvalidDateError{Date: date, Reason: "entries are limited to weekdays (Monday-Friday)"}
	}

	prev, hasPrev, err := l.store.Projection(ctx, owner, date)
	if err != nil {
		return EntryVersion{}, err
	}

	hours := NormalizeHours(e.Flag, e.Hours)
	return EntryVersion{
		ID:        l.newID(),
		Owner:     owner,
		Date:      date,
		Timestamp: l.now(),
		Actor:     actor.ID,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Action:    summarize(prev, hasPrev, strings.TrimSpace(e.Comment), e.Flag, hours),
		Comment:   strings.TrimSpace(e.Comment),
		Flag:      e.Flag,
		Hours:     hours,
	}, nil
}

// Commit appends a prepared batch atomically.
func (l *Ledger) Commit(ctx context.Context, versions []EntryVersion) error {
	if len(versions) == 0 {
		return nil
	}
	return l.store.AppendVersions(ctx, versions)
}

// Append is the single-version convenience path.
func (l *Ledger) Append(ctx context.Context, owner UserID, date Date, e Entry, actor Actor) (VersionID, error) {
	v, err := l.Prepare(ctx, owner, date, e, actor)
	if err != nil {
		return "", err
	}
	if err := l.Commit(ctx, []EntryVersion{v}); err != nil {
		return "", err
	}
	return v.ID, nil
}

// History returns the version list for (owner, date), most recent first.
func (l *Ledger) History(ctx context.Context, owner UserID, date Date) ([]EntryVersion, error) {
	return l.store.History(ctx, owner, date)
}

// Projection returns the current value of a day.
func (l *Ledger) Projection(ctx context.Context, owner UserID, date Date) (DayProjection, bool, error) {
	return l.store.Projection(ctx, owner, date)
}

// summarize diffs the incoming values against the current projection.
func summarize(prev DayProjection, hasPrev bool, comment string, flag Flag, hours decimal.Decimal) string {
	var actions []string
	if comment != prev.Comment {
		if hasPrev && prev.Comment != "" {
			actions = append(actions, "comment modified")
		} else {
			actions = append(actions, "comment added")
		}
	}
	if flag != prev.Flag {
		actions = append(actions, "flag changed")
	}
	if !hours.Equal(prev.Hours) {
		actions = append(actions, "hours changed")
	}
	if len(actions) == 0 {
		return "no changes"
	}
	return strings.Join(actions, ", ")
}
