/*
propagate.go - Company / region / project-wide fan-out

PURPOSE:
  One authorized edit of a propagating flag is applied across many users'
  ledgers in a single atomic batch:

  - HR + national/company holiday      -> every user
  - HR + regional holiday              -> every user of the supplied region
  - manager + any holiday flag         -> users of the manager's projects,
                                          regional further filtered by region
  - manager + project worktime         -> employees of the viewed project

  Comments are force-overwritten on every target (later-wins); each written
  version carries a propagated-by marker and every target user gets a
  notification. Dates outside the active calendar year are silently
  skipped. Worktime propagation skips (and counts) dates already carrying
  a different non-blank flag instead of overwriting them.
*/
package engine

import (
	"context"
	"fmt"

	"github.com/warp/calendar-engine/calendar"
	"github.com/warp/calendar-engine/directory"
)

func (e *Engine) propagateHoliday(ctx context.Context, actor directory.User, dates []calendar.Date, req SaveRequest) (*SaveResult, error) {
	regional := req.Flag == calendar.FlagRegionalDayOff
	if regional && req.Region == "" {
		return nil, fmt.Errorf("flag %q: %w", req.Flag, calendar.ErrRegionRequired)
	}

	// HR reaches the whole company; a manager only their own projects.
	var targets []directory.User
	if actor.Role == calendar.RoleHR {
		targets = e.dir.Users()
	} else {
		targets = e.dir.VisibleTo(actor)
	}
	if regional {
		var filtered []directory.User
		for _, u := range targets {
			if u.Region == req.Region {
				filtered = append(filtered, u)
			}
		}
		targets = filtered
	}

	scope := "company-wide"
	notifyScope := fmt.Sprintf("Company holiday %q", req.Flag)
	if regional {
		scope = fmt.Sprintf("region %s", req.Region)
		notifyScope = fmt.Sprintf("Regional holiday for %s - %q", req.Region, req.Flag)
	}

	res := &SaveResult{Scope: scope, PropagatedUsers: len(targets)}

	var versions []calendar.EntryVersion
	var holidays []calendar.CompanyHoliday
	type pendingNote struct {
		user calendar.UserID
		msg  string
	}
	var notes []pendingNote

	for _, d := range dates {
		if d.Year() != e.year {
			res.SkippedOutOfYear++
			continue
		}
		holidays = append(holidays, calendar.CompanyHoliday{Date: d, Flag: req.Flag})
		for _, target := range targets {
			v, err := e.ledger.Prepare(ctx, target.ID, d, calendar.Entry{
				Comment: req.Comment,
				Flag:    req.Flag,
			}, actor.Actor())
			if err != nil {
				return nil, err
			}
			if v.Action == "no changes" {
				v.Action = "holiday set"
			}
			if regional {
				v.Action += fmt.Sprintf(" (%s region)", req.Region)
			} else {
				v.Action += " (company-wide)"
			}
			v.PropagatedBy = actor.Name
			versions = append(versions, v)
			notes = append(notes, pendingNote{
				user: target.ID,
				msg:  fmt.Sprintf("%s added on %s by %s (%s).", notifyScope, d, actor.Name, actor.Role),
			})
		}
		res.Saved++
	}
	if res.Saved == 0 {
		return nil, &calendar.InvalidDateError{Date: dates[0], Reason: fmt.Sprintf("outside the active calendar year %d", e.year)}
	}

	if err := e.ledger.Commit(ctx, versions); err != nil {
		return nil, err
	}
	for _, h := range holidays {
		if err := e.store.RecordHoliday(ctx, h); err != nil {
			return nil, err
		}
	}
	for _, n := range notes {
		if err := e.store.PushNotification(ctx, n.user, n.msg); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (e *Engine) propagateWorktime(ctx context.Context, actor directory.User, dates []calendar.Date, req SaveRequest) (*SaveResult, error) {
	if req.Project == "" {
		return nil, &calendar.ScopeViolationError{Actor: actor.ID, Reason: "worktime propagation requires the viewed project"}
	}
	if !actor.HasProject(req.Project) {
		return nil, &calendar.ScopeViolationError{Actor: actor.ID, Project: req.Project, Reason: "project is outside your affiliations"}
	}
	project, ok := e.dir.Project(req.Project)
	if !ok {
		return nil, fmt.Errorf("project %s: %w", req.Project, calendar.ErrNotFound)
	}

	// Worktime reaches only the employees of the project, not managers/HR.
	var targets []directory.User
	for _, u := range e.dir.ProjectMembers(req.Project) {
		if u.Role == calendar.RoleEmployee {
			targets = append(targets, u)
		}
	}

	res := &SaveResult{
		Scope:           fmt.Sprintf("project %s", project.Name),
		PropagatedUsers: len(targets),
	}

	var versions []calendar.EntryVersion
	type pendingNote struct {
		user calendar.UserID
		msg  string
	}
	var notes []pendingNote

	for _, d := range dates {
		if d.Year() != e.year {
			res.SkippedOutOfYear++
			continue
		}
		wrote := false
		for _, target := range targets {
			proj, _, err := e.store.Projection(ctx, target.ID, d)
			if err != nil {
				return nil, err
			}
			// Never overwrite a date already claimed by another flag.
			if proj.Flag != calendar.FlagNone && proj.Flag != calendar.FlagProjectWorktime {
				res.SkippedConflicts++
				continue
			}
			v, err := e.ledger.Prepare(ctx, target.ID, d, calendar.Entry{
				Comment: req.Comment,
				Flag:    calendar.FlagProjectWorktime,
				Hours:   req.Hours,
			}, actor.Actor())
			if err != nil {
				return nil, err
			}
			if v.Action == "no changes" {
				v.Action = "worktime set"
			}
			v.Action += fmt.Sprintf(" (project %s)", project.Name)
			v.PropagatedBy = actor.Name
			versions = append(versions, v)
			notes = append(notes, pendingNote{
				user: target.ID,
				msg: fmt.Sprintf("Project worktime of %sh set on %s for project %s by %s (manager).",
					v.Hours, d, project.Name, actor.Name),
			})
			wrote = true
		}
		if wrote {
			res.Saved++
		}
	}
	if res.Saved == 0 && res.SkippedConflicts == 0 && res.SkippedOutOfYear > 0 {
		return nil, &calendar.InvalidDateError{Date: dates[0], Reason: fmt.Sprintf("outside the active calendar year %d", e.year)}
	}

	if err := e.ledger.Commit(ctx, versions); err != nil {
		return nil, err
	}
	for _, n := range notes {
		if err := e.store.PushNotification(ctx, n.user, n.msg); err != nil {
			return nil, err
		}
	}
	return res, nil
}
