/*
bulk.go - Two-phase bulk hours scheduler

PROTOCOL:
  1. PreviewBulkHours enumerates every weekday in scope for every visible
     user (read-only) and returns the affected-day count, the
     overwrite-conflict count and an opaque token.
  2. ApplyBulkHours takes the token plus an explicit skip/overwrite
     resolution and runs the mutating pass.

  The two calls keep the engine UI-agnostic: no mutable dialog state, and
  no silent data loss when conflicts exist - the caller must choose.

RULES:
  - dates carrying any non-blank flag are never touched
  - dates whose hours already equal the candidate are skipped (idempotent)
  - resolution "skip" leaves dates with pre-existing hours alone
  - HR-initiated writes into employee/manager calendars regress status
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/calendar-engine/calendar"
)

// Resolution decides what happens to dates that already carry hours.
type Resolution string

const (
	ResolutionSkip      Resolution = "skip"
	ResolutionOverwrite Resolution = "overwrite"
)

// BulkScope selects one month of the active year, or all of it.
type BulkScope struct {
	Month     time.Month
	AllMonths bool
}

// BulkRequest carries the hour values to mass-write.
type BulkRequest struct {
	Scope  BulkScope
	MonThu decimal.Decimal
	Fri    decimal.Decimal
}

// BulkPreview is the read-only first phase result.
type BulkPreview struct {
	Token              string
	AffectedDays       int
	OverwriteConflicts int
}

// BulkResult is the mutating second phase result.
type BulkResult struct {
	UpdatedDays      int
	SkippedConflicts int
	Users            int
}

type pendingBulk struct {
	actor calendar.UserID
	req   BulkRequest
}

// PreviewBulkHours runs the read-only enumeration and parks the operation
// behind an opaque token for the commit phase.
func (e *Engine) PreviewBulkHours(ctx context.Context, actorID calendar.UserID, req BulkRequest) (*BulkPreview, error) {
	actor, err := e.user(actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role == calendar.RoleEmployee {
		return nil, &calendar.AccessDeniedError{Actor: actor.ID, Role: actor.Role, Reason: "only managers and HR can bulk-set hours"}
	}
	if !req.Scope.AllMonths && (req.Scope.Month < time.January || req.Scope.Month > time.December) {
		return nil, &calendar.InvalidDateError{Reason: fmt.Sprintf("month %d out of range", req.Scope.Month)}
	}

	req.MonThu = calendar.NormalizeHours(calendar.FlagNone, req.MonThu)
	req.Fri = calendar.NormalizeHours(calendar.FlagNone, req.Fri)

	preview := &BulkPreview{Token: e.newToken()}
	err = e.enumerateBulk(ctx, actorID, req, func(owner calendar.UserID, date calendar.Date, prev calendar.DayProjection, candidate decimal.Decimal) error {
		preview.AffectedDays++
		if prev.Hours.IsPositive() {
			preview.OverwriteConflicts++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.pending[preview.Token] = pendingBulk{actor: actorID, req: req}
	e.mu.Unlock()
	return preview, nil
}

// ApplyBulkHours commits a previewed operation with an explicit resolution.
func (e *Engine) ApplyBulkHours(ctx context.Context, actorID calendar.UserID, token string, resolution Resolution) (*BulkResult, error) {
	actor, err := e.user(actorID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	p, ok := e.pending[token]
	if ok && p.actor == actorID && (resolution == ResolutionSkip || resolution == ResolutionOverwrite) {
		// Consumed under the lock so concurrent applies cannot replay it.
		delete(e.pending, token)
	}
	e.mu.Unlock()
	if !ok || p.actor != actorID {
		return nil, fmt.Errorf("bulk operation token %q: %w", token, calendar.ErrNotFound)
	}
	if resolution != ResolutionSkip && resolution != ResolutionOverwrite {
		return nil, fmt.Errorf("invalid conflict resolution %q", resolution)
	}

	var versions []calendar.EntryVersion
	touched := make(map[calendar.UserID]bool)
	users := make(map[calendar.UserID]bool)
	result := &BulkResult{}

	err = e.enumerateBulk(ctx, actorID, p.req, func(owner calendar.UserID, date calendar.Date, prev calendar.DayProjection, candidate decimal.Decimal) error {
		users[owner] = true
		if prev.Hours.IsPositive() && resolution == ResolutionSkip {
			result.SkippedConflicts++
			return nil
		}
		v, err := e.ledger.Prepare(ctx, owner, date, calendar.Entry{
			Comment: prev.Comment,
			Flag:    calendar.FlagNone,
			Hours:   candidate,
		}, actor.Actor())
		if err != nil {
			return err
		}
		if prev.Hours.IsPositive() {
			v.Action = "hours changed (bulk set)"
		} else {
			v.Action = "hours added (bulk set)"
		}
		versions = append(versions, v)
		touched[owner] = true
		result.UpdatedDays++
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.ledger.Commit(ctx, versions); err != nil {
		return nil, err
	}
	result.Users = len(users)

	if actor.Role == calendar.RoleHR {
		scope := "all months"
		if !p.req.Scope.AllMonths {
			scope = p.req.Scope.Month.String()
		}
		for ownerID := range touched {
			owner, err := e.user(ownerID)
			if err != nil {
				return nil, err
			}
			if err := e.regressForReview(ctx, actor, owner, fmt.Sprintf("HR bulk-set hours for %s", scope)); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// enumerateBulk visits every candidate (user, weekday) write in scope:
// flagged dates and dates already at the candidate value are not visited.
func (e *Engine) enumerateBulk(ctx context.Context, actorID calendar.UserID, req BulkRequest, visit func(owner calendar.UserID, date calendar.Date, prev calendar.DayProjection, candidate decimal.Decimal) error) error {
	targets, err := e.VisibleUsers(ctx, actorID)
	if err != nil {
		return err
	}

	months := []time.Month{req.Scope.Month}
	if req.Scope.AllMonths {
		months = months[:0]
		for m := time.January; m <= time.December; m++ {
			months = append(months, m)
		}
	}

	for _, month := range months {
		first, last := calendar.MonthBounds(e.year, month)
		for _, date := range calendar.WeekdaysBetween(first, last) {
			candidate := req.MonThu
			if date.Weekday() == time.Friday {
				candidate = req.Fri
			}
			for _, target := range targets {
				prev, _, err := e.store.Projection(ctx, target.ID, date)
				if err != nil {
					return err
				}
				if prev.Flag != calendar.FlagNone {
					continue
				}
				if prev.Hours.Equal(candidate) {
					continue
				}
				if err := visit(target.ID, date, prev, candidate); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
