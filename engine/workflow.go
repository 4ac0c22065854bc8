/*
workflow.go - Calendar validation state machine

STATES:
  draft -> pending_manager_validation -> validated_by_manager -> validated

TRANSITIONS:
  - HR self-validates their own calendar from any non-final state.
  - A manager validates any visible non-self calendar (any -> validated_by_manager).
  - HR finalizes a non-self calendar only from validated_by_manager.
  - Regression: an HR write into someone else's employee/manager calendar
    (direct edit, bulk hours or import merge) silently sends it back to
    pending_manager_validation, recorded in the status audit trail.

  Every transition appends a StatusChange; states are never deleted.
*/
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/warp/calendar-engine/calendar"
	"github.com/warp/calendar-engine/directory"
)

// CalendarStatus returns owner's validation status (draft when untouched).
func (e *Engine) CalendarStatus(ctx context.Context, owner calendar.UserID) (calendar.Status, error) {
	return e.store.Status(ctx, owner)
}

// StatusHistory returns owner's status audit trail, most recent first.
func (e *Engine) StatusHistory(ctx context.Context, owner calendar.UserID) ([]calendar.StatusChange, error) {
	return e.store.StatusHistory(ctx, owner)
}

// ValidateSelf lets an HR user validate their own calendar directly,
// skipping the manager step.
func (e *Engine) ValidateSelf(ctx context.Context, actorID calendar.UserID) error {
	actor, err := e.user(actorID)
	if err != nil {
		return err
	}
	if actor.Role != calendar.RoleHR {
		return &calendar.AccessDeniedError{Actor: actor.ID, Role: actor.Role, Reason: "only HR can self-validate a calendar"}
	}
	from, err := e.store.Status(ctx, actor.ID)
	if err != nil {
		return err
	}
	if from == calendar.StatusValidated {
		return &calendar.InvalidTransitionError{Owner: actor.ID, From: from, To: calendar.StatusValidated}
	}
	return e.transition(ctx, actor, actor.ID, from, calendar.StatusValidated, "HR self-validated calendar")
}

// ManagerValidate lets a manager validate a visible non-self calendar.
func (e *Engine) ManagerValidate(ctx context.Context, actorID, ownerID calendar.UserID) error {
	actor, err := e.user(actorID)
	if err != nil {
		return err
	}
	if actor.Role != calendar.RoleManager {
		return &calendar.AccessDeniedError{Actor: actor.ID, Role: actor.Role, Reason: "only managers can validate calendars"}
	}
	owner, err := e.user(ownerID)
	if err != nil {
		return err
	}
	if owner.ID == actor.ID {
		return &calendar.AccessDeniedError{Actor: actor.ID, Role: actor.Role, Reason: "cannot manager-validate your own calendar"}
	}
	if !e.dir.CanSee(actor, owner.ID) {
		return &calendar.ScopeViolationError{Actor: actor.ID, Project: owner.PrimaryProject(), Reason: "user is outside your projects"}
	}
	from, err := e.store.Status(ctx, owner.ID)
	if err != nil {
		return err
	}
	return e.transition(ctx, actor, owner.ID, from, calendar.StatusValidatedByManager,
		fmt.Sprintf("Manager validated calendar for %s", owner.Name))
}

// HRFinalize lets HR finalize a non-self calendar, but only after a manager
// has validated it.
func (e *Engine) HRFinalize(ctx context.Context, actorID, ownerID calendar.UserID) error {
	actor, err := e.user(actorID)
	if err != nil {
		return err
	}
	if actor.Role != calendar.RoleHR {
		return &calendar.AccessDeniedError{Actor: actor.ID, Role: actor.Role, Reason: "only HR can finalize validation"}
	}
	owner, err := e.user(ownerID)
	if err != nil {
		return err
	}
	if owner.ID == actor.ID {
		return &calendar.AccessDeniedError{Actor: actor.ID, Role: actor.Role, Reason: "use self-validation for your own calendar"}
	}
	from, err := e.store.Status(ctx, owner.ID)
	if err != nil {
		return err
	}
	if from != calendar.StatusValidatedByManager {
		return &calendar.InvalidTransitionError{Owner: owner.ID, From: from, To: calendar.StatusValidated}
	}
	return e.transition(ctx, actor, owner.ID, from, calendar.StatusValidated,
		fmt.Sprintf("HR finalized validation for %s", owner.Name))
}

// regressForReview applies the re-review rule after a write by actor into
// owner's calendar. No-op for self-writes, HR-owned calendars, or calendars
// already pending.
func (e *Engine) regressForReview(ctx context.Context, actor, owner directory.User, summary string) error {
	if actor.ID == owner.ID {
		return nil
	}
	if owner.Role != calendar.RoleEmployee && owner.Role != calendar.RoleManager {
		return nil
	}
	from, err := e.store.Status(ctx, owner.ID)
	if err != nil {
		return err
	}
	if from == calendar.StatusPendingManager {
		return nil
	}
	return e.transition(ctx, actor, owner.ID, from, calendar.StatusPendingManager, summary)
}

func (e *Engine) transition(ctx context.Context, actor directory.User, owner calendar.UserID, from, to calendar.Status, summary string) error {
	return e.store.SetStatus(ctx, owner, to, calendar.StatusChange{
		ID:        uuid.NewString(),
		Timestamp: e.now(),
		From:      from,
		To:        to,
		Actor:     actor.ID,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Summary:   summary,
	})
}
