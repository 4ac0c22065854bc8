/*
policy.go - Role/scope permission policy

PURPOSE:
  Pure decision functions mapping (role, flag, scope) to allowed/denied.
  Rules, in priority order:
  1. The blank flag is always permitted for everyone.
  2. The capability table maps each flag to the roles that may set it
     (calendar/flags.go); worktime is manager-only to create but any role
     may adjust an existing instance.
  3. A date bearing a non-blank flag is protected: only a role authorized
     to set that flag may further edit the date.
  4. Calendar-level rights: own calendar always; HR any calendar; a manager
     only calendars of non-HR users affiliated with the manager's projects.

  Quota gating for employee writes lives in quota.go; the save pipeline
  consults both before any append.
*/
package engine

import (
	"context"

	"github.com/warp/calendar-engine/calendar"
	"github.com/warp/calendar-engine/directory"
)

// CanModifyFlag reports whether role may set flag on a date.
func (e *Engine) CanModifyFlag(role calendar.Role, flag calendar.Flag) bool {
	return flag.SettableBy(role)
}

// CanEditCalendar applies the calendar-level edit rights.
func (e *Engine) CanEditCalendar(actor, owner directory.User) bool {
	if actor.ID == owner.ID {
		return true
	}
	switch actor.Role {
	case calendar.RoleHR:
		return true
	case calendar.RoleManager:
		if owner.Role == calendar.RoleHR {
			return false
		}
		return e.dir.CanSee(actor, owner.ID)
	default:
		return false
	}
}

// CanEditDate reports whether actorRole may edit owner's date given its
// current (possibly protecting) flag.
func (e *Engine) CanEditDate(ctx context.Context, actorRole calendar.Role, owner calendar.UserID, date calendar.Date) (bool, error) {
	proj, _, err := e.store.Projection(ctx, owner, date)
	if err != nil {
		return false, err
	}
	return calendar.CanEditProtected(actorRole, proj.Flag), nil
}
