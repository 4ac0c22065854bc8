/*
quota.go - Vacation / extra-day allowance engine

PURPOSE:
  Derives remaining balances from the ledger and configured limits:
  remaining = max(0, limit - count of days whose projected flag equals the
  quota flag). Vacation uses one company-wide limit; extra days use a
  per-user limit with a default.

INERTNESS:
  Once a calendar reaches validated status, its quotas are inert: remaining
  is reported as 0 and no write is gated any more. Quotas only apply
  pre-approval. Managers and HR are never blocked by quota.
*/
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/calendar-engine/calendar"
)

const (
	DefaultVacationDays = 25
	DefaultExtraDays    = 5
)

// Quotas holds the configured allowances. Mutable configuration, edited
// only by manager/HR actors through the engine; safe for concurrent use.
type Quotas struct {
	mu           sync.RWMutex
	vacation     int
	extraDefault int
	extra        map[calendar.UserID]int
}

func NewQuotas(vacation, extraDefault int) *Quotas {
	return &Quotas{
		vacation:     vacation,
		extraDefault: extraDefault,
		extra:        make(map[calendar.UserID]int),
	}
}

// VacationLimit returns the company-wide vacation allowance.
func (q *Quotas) VacationLimit() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.vacation
}

// ExtraLimit returns the owner's extra-day limit, falling back to the default.
func (q *Quotas) ExtraLimit(owner calendar.UserID) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if v, ok := q.extra[owner]; ok {
		return v
	}
	return q.extraDefault
}

// SetVacation replaces the company-wide vacation allowance.
func (q *Quotas) SetVacation(days int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.vacation = days
}

// SetExtra replaces one owner's extra-day allowance.
func (q *Quotas) SetExtra(owner calendar.UserID, days int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.extra[owner] = days
}

// QuotaSummary is the balance view exposed to callers.
type QuotaSummary struct {
	VacationLimit      int
	VacationRemaining  int
	ExtraDayLimit      int
	ExtraDaysRemaining int
}

// VacationRemaining reports the owner's remaining vacation days.
func (e *Engine) VacationRemaining(ctx context.Context, owner calendar.UserID) (int, error) {
	remaining, _, err := e.remainingFor(ctx, owner, calendar.FlagOnVacation)
	return remaining, err
}

// ExtraDaysRemaining reports the owner's remaining extra days off.
func (e *Engine) ExtraDaysRemaining(ctx context.Context, owner calendar.UserID) (int, error) {
	remaining, _, err := e.remainingFor(ctx, owner, calendar.FlagExtraDayOff)
	return remaining, err
}

// Quotas returns both balances for owner.
func (e *Engine) Quotas(ctx context.Context, owner calendar.UserID) (QuotaSummary, error) {
	s := QuotaSummary{
		VacationLimit: e.quotas.VacationLimit(),
		ExtraDayLimit: e.quotas.ExtraLimit(owner),
	}
	var err error
	if s.VacationRemaining, err = e.VacationRemaining(ctx, owner); err != nil {
		return s, err
	}
	if s.ExtraDaysRemaining, err = e.ExtraDaysRemaining(ctx, owner); err != nil {
		return s, err
	}
	return s, nil
}

// remainingFor computes remaining and limit for a quota flag. Reports 0
// once the owner's calendar is validated (quota inert).
func (e *Engine) remainingFor(ctx context.Context, owner calendar.UserID, flag calendar.Flag) (remaining, limit int, err error) {
	switch flag.Quota() {
	case calendar.QuotaVacation:
		limit = e.quotas.VacationLimit()
	case calendar.QuotaExtraDay:
		limit = e.quotas.ExtraLimit(owner)
	default:
		return 0, 0, fmt.Errorf("flag %q carries no quota", flag)
	}

	status, err := e.store.Status(ctx, owner)
	if err != nil {
		return 0, limit, err
	}
	if status == calendar.StatusValidated {
		return 0, limit, nil
	}

	used, err := e.store.CountFlagDays(ctx, owner, flag)
	if err != nil {
		return 0, limit, err
	}
	remaining = limit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, limit, nil
}

// CanUseFlag reports whether actor may write flag into owner's calendar as
// far as quotas are concerned. Only employee-initiated writes are gated.
func (e *Engine) CanUseFlag(ctx context.Context, actorID, owner calendar.UserID, flag calendar.Flag) (bool, error) {
	actor, err := e.user(actorID)
	if err != nil {
		return false, err
	}
	if flag.Quota() == calendar.QuotaNone || actor.Role != calendar.RoleEmployee {
		return true, nil
	}
	status, err := e.store.Status(ctx, owner)
	if err != nil {
		return false, err
	}
	if status == calendar.StatusValidated {
		return true, nil
	}
	remaining, _, err := e.remainingFor(ctx, owner, flag)
	if err != nil {
		return false, err
	}
	return remaining > 0, nil
}

// SetVacationLimit updates the company-wide vacation allowance.
func (e *Engine) SetVacationLimit(ctx context.Context, actorID calendar.UserID, days int) error {
	if err := e.requireQuotaEditor(actorID); err != nil {
		return err
	}
	if days < 0 {
		days = 0
	}
	e.quotas.SetVacation(days)
	return nil
}

// SetExtraDayLimit updates one user's extra-day allowance.
func (e *Engine) SetExtraDayLimit(ctx context.Context, actorID, owner calendar.UserID, days int) error {
	if err := e.requireQuotaEditor(actorID); err != nil {
		return err
	}
	if _, err := e.user(owner); err != nil {
		return err
	}
	if days < 0 {
		days = 0
	}
	e.quotas.SetExtra(owner, days)
	return nil
}

func (e *Engine) requireQuotaEditor(actorID calendar.UserID) error {
	actor, err := e.user(actorID)
	if err != nil {
		return err
	}
	if actor.Role == calendar.RoleEmployee {
		return &calendar.AccessDeniedError{
			Actor: actor.ID, Role: actor.Role,
			Reason: "only managers and HR can edit quotas",
		}
	}
	return nil
}
