/*
Package engine implements the calendar business rules: scope-aware
permissions, the save-entry pipeline, the validation workflow, quotas,
company/region/project-wide propagation, the two-phase bulk hours scheduler
and import/export merge.

CONTROL FLOW:
  An incoming edit passes the permission policy first. Propagating flags are
  routed to the fan-out engine (which writes into many ledgers and queues
  notifications); everything else writes directly to the owner's ledger.
  Quotas gate employee-initiated writes of quota-bearing flags. Bulk hours
  and import are independent entry points writing through the same ledger.

ATOMICITY:
  Each operation prepares its full version batch before anything is
  committed; a rejected operation performs zero ledger appends. The engine
  performs no I/O beyond the store. Mutable engine state (pending bulk
  tokens, quota limits) is mutex-guarded so handlers may call in from
  concurrent goroutines.
*/
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/calendar-engine/calendar"
	"github.com/warp/calendar-engine/directory"
)

// Engine is the single entry point for all calendar operations.
type Engine struct {
	dir    *directory.Directory
	store  calendar.Store
	ledger *calendar.Ledger
	quotas *Quotas
	year   int

	now      func() time.Time
	newToken func() string

	mu      sync.Mutex // guards pending
	pending map[string]pendingBulk
}

// New builds an engine for one active calendar year.
func New(dir *directory.Directory, store calendar.Store, year int, quotas *Quotas) *Engine {
	if quotas == nil {
		quotas = NewQuotas(DefaultVacationDays, DefaultExtraDays)
	}
	return &Engine{
		dir:      dir,
		store:    store,
		ledger:   calendar.NewLedger(store),
		quotas:   quotas,
		year:     year,
		now:      time.Now,
		newToken: uuid.NewString,
		pending:  make(map[string]pendingBulk),
	}
}

// WithClock overrides the timestamp source. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	e.ledger.WithClock(now)
	return e
}

// Year returns the active calendar year.
func (e *Engine) Year() int { return e.year }

// Directory exposes the reference data registry.
func (e *Engine) Directory() *directory.Directory { return e.dir }

func (e *Engine) user(id calendar.UserID) (directory.User, error) {
	u, ok := e.dir.User(id)
	if !ok {
		return directory.User{}, fmt.Errorf("user %s: %w", id, calendar.ErrNotFound)
	}
	return u, nil
}

// =============================================================================
// SAVE ENTRY - the main edit pipeline
// =============================================================================

// SaveRequest is one edit of a single date or a date range.
type SaveRequest struct {
	Owner   calendar.UserID
	From    calendar.Date
	To      calendar.Date // zero means single-day edit of From
	Comment string
	Flag    calendar.Flag
	Hours   decimal.Decimal

	// Region scopes regional holiday propagation. Required for that flag.
	Region calendar.Region
	// Project is the project being viewed; required for worktime propagation.
	Project calendar.ProjectID
}

// SaveResult reports what happened, including success-with-caveats counts.
type SaveResult struct {
	Saved            int
	PropagatedUsers  int
	SkippedProtected int
	SkippedQuota     int
	SkippedOutOfYear int
	SkippedConflicts int
	Scope            string
}

// SaveEntry validates, routes and applies one edit. Propagating flags fan
// out to every user in scope; everything else writes to the owner only.
func (e *Engine) SaveEntry(ctx context.Context, actorID calendar.UserID, req SaveRequest) (*SaveResult, error) {
	actor, err := e.user(actorID)
	if err != nil {
		return nil, err
	}
	owner, err := e.user(req.Owner)
	if err != nil {
		return nil, err
	}

	if !e.CanEditCalendar(actor, owner) {
		return nil, &calendar.AccessDeniedError{
			Actor: actor.ID, Role: actor.Role,
			Reason: fmt.Sprintf("cannot edit %s's calendar", owner.Name),
		}
	}
	if !req.Flag.Known() {
		return nil, &calendar.AccessDeniedError{
			Actor: actor.ID, Role: actor.Role,
			Reason: fmt.Sprintf("unknown flag %q", req.Flag),
		}
	}
	if !req.Flag.SettableBy(actor.Role) && req.Flag != calendar.FlagProjectWorktime {
		return nil, &calendar.AccessDeniedError{
			Actor: actor.ID, Role: actor.Role,
			Reason: fmt.Sprintf("role %s cannot set flag %q", actor.Role, req.Flag),
		}
	}

	dates, single, err := e.resolveDates(req.From, req.To)
	if err != nil {
		return nil, err
	}

	// Propagating edits have their own target-set and skip semantics.
	if req.Flag.Kind() == calendar.KindHoliday {
		return e.propagateHoliday(ctx, actor, dates, req)
	}
	if req.Flag == calendar.FlagProjectWorktime && actor.Role == calendar.RoleManager {
		return e.propagateWorktime(ctx, actor, dates, req)
	}

	return e.saveDirect(ctx, actor, owner, dates, single, req)
}

// resolveDates expands [from, to] into in-order weekdays. Single-date edits
// fail hard on weekends; ranges simply have weekends filtered out.
func (e *Engine) resolveDates(from, to calendar.Date) ([]calendar.Date, bool, error) {
	if from.IsZero() {
		return nil, false, &calendar.InvalidDateError{Date: from, Reason: "missing date"}
	}
	if to.IsZero() {
		to = from
	}
	if to.Before(from) {
		return nil, false, &calendar.InvalidDateError{Date: to, Reason: "end date before start date"}
	}
	single := from.Equal(to)
	if single && from.IsWeekend() {
		return nil, false, &calendar.InvalidDateError{Date: from, Reason: "entries are limited to weekdays (Monday-Friday)"}
	}
	dates := calendar.WeekdaysBetween(from, to)
	if len(dates) == 0 {
		return nil, false, &calendar.InvalidDateError{Date: from, Reason: "no weekdays in selected range"}
	}
	return dates, single, nil
}

// saveDirect writes a non-propagating edit into the owner's ledger.
func (e *Engine) saveDirect(ctx context.Context, actor, owner directory.User, dates []calendar.Date, single bool, req SaveRequest) (*SaveResult, error) {
	res := &SaveResult{}

	var allowed []calendar.Date
	for _, d := range dates {
		if d.Year() != e.year {
			if single {
				return nil, &calendar.InvalidDateError{Date: d, Reason: fmt.Sprintf("outside the active calendar year %d", e.year)}
			}
			res.SkippedOutOfYear++
			continue
		}
		proj, _, err := e.store.Projection(ctx, owner.ID, d)
		if err != nil {
			return nil, err
		}
		if !calendar.CanEditProtected(actor.Role, proj.Flag) {
			res.SkippedProtected++
			continue
		}
		// Worktime is manager-only to create; other roles may only adjust
		// a date where it is already present.
		if req.Flag == calendar.FlagProjectWorktime && actor.Role != calendar.RoleManager && proj.Flag != calendar.FlagProjectWorktime {
			res.SkippedProtected++
			continue
		}
		allowed = append(allowed, d)
	}
	if len(allowed) == 0 {
		if res.SkippedProtected > 0 {
			return nil, &calendar.AccessDeniedError{
				Actor: actor.ID, Role: actor.Role,
				Reason: "all selected dates are protected by their current flag",
			}
		}
		return nil, &calendar.InvalidDateError{Date: dates[0], Reason: fmt.Sprintf("outside the active calendar year %d", e.year)}
	}

	allowed, skippedQuota, err := e.gateQuota(ctx, actor, owner, req.Flag, allowed)
	if err != nil {
		return nil, err
	}
	res.SkippedQuota = skippedQuota

	versions := make([]calendar.EntryVersion, 0, len(allowed))
	for _, d := range allowed {
		v, err := e.ledger.Prepare(ctx, owner.ID, d, calendar.Entry{
			Comment: req.Comment,
			Flag:    req.Flag,
			Hours:   req.Hours,
		}, actor.Actor())
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := e.ledger.Commit(ctx, versions); err != nil {
		return nil, err
	}
	res.Saved = len(versions)

	// HR edits of someone else's employee/manager calendar require re-review.
	if actor.Role == calendar.RoleHR {
		summary := fmt.Sprintf("HR modified %d date(s): %s", res.Saved, versions[len(versions)-1].Action)
		if err := e.regressForReview(ctx, actor, owner, summary); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// gateQuota caps an employee's quota-bearing write at the remaining
// allowance. Dates already projected with the same flag consume nothing.
func (e *Engine) gateQuota(ctx context.Context, actor, owner directory.User, flag calendar.Flag, dates []calendar.Date) ([]calendar.Date, int, error) {
	if flag.Quota() == calendar.QuotaNone || actor.Role != calendar.RoleEmployee {
		return dates, 0, nil
	}
	status, err := e.store.Status(ctx, owner.ID)
	if err != nil {
		return nil, 0, err
	}
	if status == calendar.StatusValidated {
		// Quotas are inert once the calendar is validated.
		return dates, 0, nil
	}

	remaining, limit, err := e.remainingFor(ctx, owner.ID, flag)
	if err != nil {
		return nil, 0, err
	}

	var kept []calendar.Date
	skipped := 0
	for _, d := range dates {
		proj, _, err := e.store.Projection(ctx, owner.ID, d)
		if err != nil {
			return nil, 0, err
		}
		if proj.Flag == flag {
			kept = append(kept, d)
			continue
		}
		if remaining == 0 {
			skipped++
			continue
		}
		remaining--
		kept = append(kept, d)
	}
	if len(kept) == 0 && skipped > 0 {
		return nil, 0, &calendar.QuotaExhaustedError{Owner: owner.ID, Flag: flag, Limit: limit}
	}
	return kept, skipped, nil
}

// =============================================================================
// READ QUERIES
// =============================================================================

// Projection returns the current value of one day.
func (e *Engine) Projection(ctx context.Context, owner calendar.UserID, date calendar.Date) (calendar.DayProjection, bool, error) {
	return e.store.Projection(ctx, owner, date)
}

// History returns the full edit history of one day, most recent first.
func (e *Engine) History(ctx context.Context, owner calendar.UserID, date calendar.Date) ([]calendar.EntryVersion, error) {
	return e.store.History(ctx, owner, date)
}

// VisibleUsers returns the users whose calendars actor may see.
func (e *Engine) VisibleUsers(ctx context.Context, actorID calendar.UserID) ([]directory.User, error) {
	actor, err := e.user(actorID)
	if err != nil {
		return nil, err
	}
	return e.dir.VisibleTo(actor), nil
}

// AllowedFlags returns the flags actor may set, blank first.
func (e *Engine) AllowedFlags(ctx context.Context, actorID calendar.UserID) ([]calendar.Flag, error) {
	actor, err := e.user(actorID)
	if err != nil {
		return nil, err
	}
	return calendar.SettableFlags(actor.Role), nil
}

// CompanyHolidays returns the propagated holiday index sorted by date.
func (e *Engine) CompanyHolidays(ctx context.Context) ([]calendar.CompanyHoliday, error) {
	return e.store.Holidays(ctx)
}

// Notifications returns owner's queued messages.
func (e *Engine) Notifications(ctx context.Context, owner calendar.UserID) ([]calendar.Notification, error) {
	return e.store.Notifications(ctx, owner)
}

// DismissNotifications clears the actor's own queue.
func (e *Engine) DismissNotifications(ctx context.Context, actorID calendar.UserID) error {
	if _, err := e.user(actorID); err != nil {
		return err
	}
	return e.store.ClearNotifications(ctx, actorID)
}
