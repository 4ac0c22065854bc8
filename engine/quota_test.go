package engine_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/calendar-engine/calendar"
	"github.com/warp/calendar-engine/engine"
)

func TestQuotas_Defaults(t *testing.T) {
	eng, _ := newTestEngine(t)

	summary, err := eng.Quotas(context.Background(), "emp001")
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultVacationDays, summary.VacationLimit)
	assert.Equal(t, engine.DefaultVacationDays, summary.VacationRemaining)
	assert.Equal(t, engine.DefaultExtraDays, summary.ExtraDayLimit)
	assert.Equal(t, engine.DefaultExtraDays, summary.ExtraDaysRemaining)
}

func TestQuotas_RemainingTracksProjectedDays(t *testing.T) {
	// GIVEN: Three vacation days and one extra day off on an employee
	// THEN: Each balance reflects its own flag count only

	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.SaveEntry(ctx, "emp001", save("emp001", "2026-01-05", "2026-01-07",
		calendar.Entry{Flag: calendar.FlagOnVacation}))
	require.NoError(t, err)
	_, err = eng.SaveEntry(ctx, "emp001", save("emp001", "2026-01-08", "",
		calendar.Entry{Flag: calendar.FlagExtraDayOff}))
	require.NoError(t, err)

	summary, err := eng.Quotas(ctx, "emp001")
	require.NoError(t, err)
	assert.Equal(t, 22, summary.VacationRemaining)
	assert.Equal(t, 4, summary.ExtraDaysRemaining)
}

func TestQuotas_ClearingAFlagRestoresBalance(t *testing.T) {
	// Overwriting a vacation day with a blank entry gives the day back

	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.SaveEntry(ctx, "emp001", save("emp001", "2026-01-05", "",
		calendar.Entry{Flag: calendar.FlagOnVacation}))
	require.NoError(t, err)

	remaining, err := eng.VacationRemaining(ctx, "emp001")
	require.NoError(t, err)
	require.Equal(t, 24, remaining)

	_, err = eng.SaveEntry(ctx, "emp001", save("emp001", "2026-01-05", "",
		calendar.Entry{Comment: "back to work"}))
	require.NoError(t, err)

	remaining, err = eng.VacationRemaining(ctx, "emp001")
	require.NoError(t, err)
	assert.Equal(t, 25, remaining)
}

func TestQuotas_InertOnceValidated(t *testing.T) {
	// GIVEN: A fully validated calendar
	// THEN: Remaining reads 0 and writes are no longer gated

	eng, mem := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, mem.SetStatus(ctx, "emp001", calendar.StatusValidated, calendar.StatusChange{
		From: calendar.StatusValidatedByManager, To: calendar.StatusValidated,
	}))

	remaining, err := eng.VacationRemaining(ctx, "emp001")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	// 26 weekdays, none skipped: the gate is off
	res, err := eng.SaveEntry(ctx, "emp001", save("emp001", "2026-01-05", "2026-02-09",
		calendar.Entry{Flag: calendar.FlagOnVacation}))
	require.NoError(t, err)
	assert.Equal(t, 26, res.Saved)
	assert.Equal(t, 0, res.SkippedQuota)
}

func TestCanUseFlag(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	// Non-quota flags and non-employee actors are always allowed
	ok, err := eng.CanUseFlag(ctx, "emp001", "emp001", calendar.FlagNone)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = eng.CanUseFlag(ctx, "hr001", "emp001", calendar.FlagOnVacation)
	require.NoError(t, err)
	assert.True(t, ok)

	// An employee with zero remaining is blocked
	require.NoError(t, eng.SetVacationLimit(ctx, "hr001", 0))
	ok, err = eng.CanUseFlag(ctx, "emp001", "emp001", calendar.FlagOnVacation)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetVacationLimit_Permissions(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	err := eng.SetVacationLimit(ctx, "emp001", 30)
	assert.ErrorIs(t, err, calendar.ErrAccessDenied)

	require.NoError(t, eng.SetVacationLimit(ctx, "mgr001", 30))

	summary, err := eng.Quotas(ctx, "emp001")
	require.NoError(t, err)
	assert.Equal(t, 30, summary.VacationLimit)
	assert.Equal(t, 30, summary.VacationRemaining)
}

func TestSetExtraDayLimit_PerUser(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.SetExtraDayLimit(ctx, "hr001", "emp001", 8))

	one, err := eng.Quotas(ctx, "emp001")
	require.NoError(t, err)
	assert.Equal(t, 8, one.ExtraDayLimit)

	// Everybody else keeps the default
	other, err := eng.Quotas(ctx, "emp002")
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultExtraDays, other.ExtraDayLimit)

	// Negative limits clamp to zero
	require.NoError(t, eng.SetExtraDayLimit(ctx, "hr001", "emp001", -3))
	clamped, err := eng.Quotas(ctx, "emp001")
	require.NoError(t, err)
	assert.Equal(t, 0, clamped.ExtraDayLimit)

	err = eng.SetExtraDayLimit(ctx, "hr001", "ghost", 8)
	assert.ErrorIs(t, err, calendar.ErrNotFound)
}

func TestQuotas_ConcurrentLimitEditsAreSafe(t *testing.T) {
	// GIVEN: HR sessions editing limits while balances are being read
	// WHEN: The calls interleave from several goroutines
	// THEN: Nothing fails and the final limits are one of the written values

	eng, _ := newTestEngine(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				assert.NoError(t, eng.SetVacationLimit(ctx, "hr001", 20+i%5))
				assert.NoError(t, eng.SetExtraDayLimit(ctx, "hr001", "emp001", i%7))
				_, err := eng.Quotas(ctx, "emp001")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	summary, err := eng.Quotas(ctx, "emp001")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.VacationLimit, 20)
	assert.Less(t, summary.VacationLimit, 25)
	assert.Less(t, summary.ExtraDayLimit, 7)
}
