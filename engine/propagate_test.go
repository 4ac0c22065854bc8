package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/calendar-engine/calendar"
)

// =============================================================================
// HOLIDAY PROPAGATION
// =============================================================================

func TestPropagateHoliday_CompanyWide(t *testing.T) {
	// GIVEN: HR sets a national day off
	// THEN: Every one of the 17 users gets the flag, zero hours, a
	//       propagation marker, and a notification

	eng, _ := newTestEngine(t)
	ctx := context.Background()
	holiday := d("2026-05-01")

	res, err := eng.SaveEntry(ctx, "hr001", save("hr001", "2026-05-01", "",
		calendar.Entry{Flag: calendar.FlagNationalDayOff, Comment: "Labor Day"}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, 17, res.PropagatedUsers)
	assert.Equal(t, "company-wide", res.Scope)

	for _, id := range []calendar.UserID{"emp001", "mgr002", "hr005"} {
		proj, ok, err := eng.Projection(ctx, id, holiday)
		require.NoError(t, err)
		require.True(t, ok, "user %s must carry the holiday", id)
		assert.Equal(t, calendar.FlagNationalDayOff, proj.Flag)
		assert.Equal(t, "Labor Day", proj.Comment)
		assert.True(t, proj.Hours.IsZero(), "holiday dates carry no hours")

		history, err := eng.History(ctx, id, holiday)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "Michael Scott", history[0].PropagatedBy)
		assert.Contains(t, history[0].Action, "(company-wide)")
	}

	notes, err := eng.Notifications(ctx, "emp009")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t,
		fmt.Sprintf("Company holiday %q added on 2026-05-01 by Michael Scott (hr).", calendar.FlagNationalDayOff),
		notes[0].Message)

	holidays, err := eng.CompanyHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.True(t, holidays[0].Date.Equal(holiday))
}

func TestPropagateHoliday_EmployeeDenied(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.SaveEntry(context.Background(), "emp001",
		save("emp001", "2026-05-01", "", calendar.Entry{Flag: calendar.FlagNationalDayOff}))

	assert.ErrorIs(t, err, calendar.ErrAccessDenied)
}

func TestPropagateHoliday_RegionalRequiresRegion(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.SaveEntry(context.Background(), "hr001",
		save("hr001", "2026-05-01", "", calendar.Entry{Flag: calendar.FlagRegionalDayOff}))

	assert.ErrorIs(t, err, calendar.ErrRegionRequired)
}

func TestPropagateHoliday_RegionalFiltersByRegion(t *testing.T) {
	// GIVEN: HR sets a regional day off for Madrid
	// THEN: Only Madrid users receive it

	eng, _ := newTestEngine(t)
	ctx := context.Background()

	req := save("hr001", "2026-05-01", "", calendar.Entry{Flag: calendar.FlagRegionalDayOff})
	req.Region = "Madrid"
	res, err := eng.SaveEntry(ctx, "hr001", req)
	require.NoError(t, err)
	assert.Equal(t, "region Madrid", res.Scope)
	assert.Greater(t, res.PropagatedUsers, 0)
	assert.Less(t, res.PropagatedUsers, 17)

	// Alice is in Madrid
	proj, ok, err := eng.Projection(ctx, "emp001", d("2026-05-01"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, calendar.FlagRegionalDayOff, proj.Flag)

	history, err := eng.History(ctx, "emp001", d("2026-05-01"))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].Action, "(Madrid region)")

	users, err := eng.VisibleUsers(ctx, "hr001")
	require.NoError(t, err)
	for _, u := range users {
		if u.Region == "Madrid" {
			continue
		}
		_, ok, err := eng.Projection(ctx, u.ID, d("2026-05-01"))
		require.NoError(t, err)
		assert.False(t, ok, "user %s outside Madrid must stay untouched", u.ID)
	}
}

func TestPropagateHoliday_ManagerReachesOwnProjectsOnly(t *testing.T) {
	// Kevin manages Atlas and Horizon but not Phoenix

	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.SaveEntry(ctx, "mgr001", save("mgr001", "2026-05-01", "",
		calendar.Entry{Flag: calendar.FlagNationalDayOff}))
	require.NoError(t, err)

	_, ok, err := eng.Projection(ctx, "emp001", d("2026-05-01"))
	require.NoError(t, err)
	assert.True(t, ok, "Atlas member receives the flag")

	_, ok, err = eng.Projection(ctx, "emp005", d("2026-05-01"))
	require.NoError(t, err)
	assert.False(t, ok, "Phoenix member stays untouched")
}

func TestPropagateHoliday_AllDatesOutOfYear(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.SaveEntry(context.Background(), "hr001",
		save("hr001", "2027-05-03", "", calendar.Entry{Flag: calendar.FlagNationalDayOff}))

	assert.ErrorIs(t, err, calendar.ErrInvalidDate)
}

// =============================================================================
// WORKTIME PROPAGATION
// =============================================================================

func TestPropagateWorktime_ProjectEmployeesOnly(t *testing.T) {
	// GIVEN: A manager sets project worktime on a Saturday-adjacent weekday
	// THEN: Only the employees of the viewed project are written

	eng, _ := newTestEngine(t)
	ctx := context.Background()

	req := save("mgr001", "2026-01-05", "", calendar.Entry{
		Flag:  calendar.FlagProjectWorktime,
		Hours: decimal.NewFromInt(10),
	})
	req.Project = "proj001"
	res, err := eng.SaveEntry(ctx, "mgr001", req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, "project Atlas", res.Scope)
	assert.Equal(t, 4, res.PropagatedUsers, "Atlas has four employees")

	proj, ok, err := eng.Projection(ctx, "emp001", d("2026-01-05"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, calendar.FlagProjectWorktime, proj.Flag)
	assert.True(t, proj.Hours.Equal(decimal.NewFromInt(10)))

	// Neither the manager, HR, nor other projects are touched
	for _, id := range []calendar.UserID{"mgr001", "hr001", "emp005"} {
		_, ok, err := eng.Projection(ctx, id, d("2026-01-05"))
		require.NoError(t, err)
		assert.False(t, ok, "user %s must stay untouched", id)
	}

	notes, err := eng.Notifications(ctx, "emp002")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t,
		"Project worktime of 10h set on 2026-01-05 for project Atlas by Kevin Anderson (manager).",
		notes[0].Message)
}

func TestPropagateWorktime_RequiresViewedProject(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.SaveEntry(context.Background(), "mgr001",
		save("mgr001", "2026-01-05", "", calendar.Entry{Flag: calendar.FlagProjectWorktime}))

	assert.ErrorIs(t, err, calendar.ErrScopeViolation)
}

func TestPropagateWorktime_ForeignProjectRejected(t *testing.T) {
	eng, _ := newTestEngine(t)

	req := save("mgr001", "2026-01-05", "", calendar.Entry{Flag: calendar.FlagProjectWorktime})
	req.Project = "proj002" // Phoenix, not one of Kevin's projects
	_, err := eng.SaveEntry(context.Background(), "mgr001", req)

	assert.ErrorIs(t, err, calendar.ErrScopeViolation)
}

func TestPropagateWorktime_SkipsClaimedDates(t *testing.T) {
	// GIVEN: One Atlas employee already flagged vacation on the date
	// THEN: Worktime skips them and writes the other three

	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.SaveEntry(ctx, "emp001", save("emp001", "2026-01-05", "",
		calendar.Entry{Flag: calendar.FlagOnVacation}))
	require.NoError(t, err)

	req := save("mgr001", "2026-01-05", "", calendar.Entry{
		Flag:  calendar.FlagProjectWorktime,
		Hours: decimal.NewFromInt(9),
	})
	req.Project = "proj001"
	res, err := eng.SaveEntry(ctx, "mgr001", req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, 1, res.SkippedConflicts)

	proj, _, err := eng.Projection(ctx, "emp001", d("2026-01-05"))
	require.NoError(t, err)
	assert.Equal(t, calendar.FlagOnVacation, proj.Flag, "vacation must survive")
}

func TestPropagateWorktime_HoursClamped(t *testing.T) {
	// Worktime hours are pulled into the 5-19 band before fan-out

	eng, _ := newTestEngine(t)
	ctx := context.Background()

	req := save("mgr001", "2026-01-05", "", calendar.Entry{
		Flag:  calendar.FlagProjectWorktime,
		Hours: decimal.NewFromInt(2),
	})
	req.Project = "proj003"
	_, err := eng.SaveEntry(ctx, "mgr001", req)
	require.NoError(t, err)

	proj, ok, err := eng.Projection(ctx, "emp009", d("2026-01-05"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, proj.Hours.Equal(decimal.NewFromInt(5)), "got %s", proj.Hours)
}

func TestPropagateWorktime_AllDatesOutOfYear(t *testing.T) {
	eng, _ := newTestEngine(t)

	req := save("mgr001", "2027-01-04", "", calendar.Entry{Flag: calendar.FlagProjectWorktime})
	req.Project = "proj001"
	_, err := eng.SaveEntry(context.Background(), "mgr001", req)

	assert.ErrorIs(t, err, calendar.ErrInvalidDate)
}
