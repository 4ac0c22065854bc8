/*
handlers_test.go - HTTP-level tests for the calendar API

Exercises the full router with an in-memory store: actor header handling,
entry saves, workflow endpoints, bulk hours and import/export, plus the
engine-error to status-code mapping.
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/calendar-engine/calendar/store"
	"github.com/warp/calendar-engine/directory"
	"github.com/warp/calendar-engine/engine"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	eng := engine.New(directory.Seed(), store.NewMemory(), 2026, nil)
	return NewRouter(NewHandler(eng))
}

func doJSON(t *testing.T, router http.Handler, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if actor != "" {
		req.Header.Set(actorHeader, actor)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func TestListUsers(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/users", "hr001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	users := decode[[]UserDTO](t, rec)
	assert.Len(t, users, 17)

	// An employee sees only themselves
	rec = doJSON(t, router, http.MethodGet, "/api/users", "emp001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]UserDTO](t, rec), 1)
}

func TestSaveEntry_EndToEnd(t *testing.T) {
	// GIVEN: A running router
	// WHEN: An employee posts an entry and reads the day back
	// THEN: Projection and history endpoints reflect the write

	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users/emp001/entries", "emp001", SaveEntryRequest{
		From:    "2026-01-05",
		Comment: "remote work",
		Hours:   7.5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[SaveResultDTO](t, rec)
	assert.Equal(t, 1, result.Saved)

	rec = doJSON(t, router, http.MethodGet, "/api/users/emp001/days/2026-01-05", "emp001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	day := decode[DayDTO](t, rec)
	assert.Equal(t, "remote work", day.Comment)
	assert.Equal(t, 7.5, day.Hours)

	rec = doJSON(t, router, http.MethodGet, "/api/users/emp001/days/2026-01-05/history", "emp001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]VersionDTO](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, "comment added, hours changed", history[0].Action)
}

func TestGetDay_UntouchedDayIsEmptyNot404(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/users/emp001/days/2026-01-05", "emp001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	day := decode[DayDTO](t, rec)
	assert.Empty(t, day.Comment)
	assert.Zero(t, day.Hours)
}

func TestSaveEntry_ErrorMapping(t *testing.T) {
	router := newTestRouter(t)

	// Weekend -> 400
	rec := doJSON(t, router, http.MethodPost, "/api/users/emp001/entries", "emp001",
		SaveEntryRequest{From: "2026-01-03"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Editing someone else's calendar -> 403
	rec = doJSON(t, router, http.MethodPost, "/api/users/emp002/entries", "emp001",
		SaveEntryRequest{From: "2026-01-05"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Unknown actor -> 404
	rec = doJSON(t, router, http.MethodPost, "/api/users/emp001/entries", "ghost",
		SaveEntryRequest{From: "2026-01-05"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Garbage date -> 400 with an error body
	rec = doJSON(t, router, http.MethodPost, "/api/users/emp001/entries", "emp001",
		SaveEntryRequest{From: "tomorrow"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
}

func TestWorkflowEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users/emp001/validate", "mgr001", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "validated_by_manager", decode[StatusDTO](t, rec).Status)

	rec = doJSON(t, router, http.MethodPost, "/api/users/emp001/finalize", "hr001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "validated", decode[StatusDTO](t, rec).Status)

	// Finalizing again is an invalid transition -> 400
	rec = doJSON(t, router, http.MethodPost, "/api/users/emp001/finalize", "hr001", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/validate/self", "hr001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/users/emp001/status/history", "hr001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]StatusChangeDTO](t, rec), 2)
}

func TestQuotaEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/quotas/vacation", "hr001", SetQuotaRequest{Days: 30})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/users/emp001/quotas/extra", "hr001", SetQuotaRequest{Days: 7})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/users/emp001/quotas", "emp001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quotas := decode[QuotaDTO](t, rec)
	assert.Equal(t, 30, quotas.VacationLimit)
	assert.Equal(t, 7, quotas.ExtraDayLimit)

	// Employees cannot edit quotas
	rec = doJSON(t, router, http.MethodPut, "/api/quotas/vacation", "emp001", SetQuotaRequest{Days: 99})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBulkHoursEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/bulk-hours/preview", "hr001", BulkPreviewRequest{
		Month:  1,
		MonThu: 8,
		Fri:    6,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode[BulkPreviewDTO](t, rec)
	require.NotEmpty(t, preview.Token)
	assert.Greater(t, preview.AffectedDays, 0)

	rec = doJSON(t, router, http.MethodPost, "/api/bulk-hours/apply", "hr001", BulkApplyRequest{
		Token:      preview.Token,
		Resolution: "skip",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[BulkResultDTO](t, rec)
	assert.Equal(t, preview.AffectedDays, result.UpdatedDays)

	// Spent token -> 404
	rec = doJSON(t, router, http.MethodPost, "/api/bulk-hours/apply", "hr001", BulkApplyRequest{
		Token:      preview.Token,
		Resolution: "skip",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportImportEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/users/emp001/entries", "emp001", SaveEntryRequest{
		From:    "2026-01-05",
		Comment: "exported day",
		Hours:   8,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/users/emp001/export", "emp001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[engine.Document](t, rec)
	require.Len(t, doc.Days, 1)

	rec = doJSON(t, router, http.MethodGet, "/api/export", "hr001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bulk := decode[engine.BulkDocument](t, rec)
	assert.Len(t, bulk.Calendars, 17)

	// Import the exported document as a brand-new user
	doc.Owner.ID = "emp777"
	doc.Owner.Name = "Imported Person"
	rec = doJSON(t, router, http.MethodPost, "/api/import", "hr001", doc)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	report := decode[ImportReportDTO](t, rec)
	assert.True(t, report.Created)
	assert.Equal(t, 1, report.ImportedDays)

	// Employees may not bulk-export
	rec = doJSON(t, router, http.MethodGet, "/api/export", "emp001", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNotificationEndpoints(t *testing.T) {
	router := newTestRouter(t)

	// Propagating a holiday queues a notification for everyone
	rec := doJSON(t, router, http.MethodPost, "/api/users/hr001/entries", "hr001", SaveEntryRequest{
		From: "2026-05-01",
		Flag: "national day off",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/notifications", "emp001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decode[[]NotificationDTO](t, rec)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "Company holiday")

	rec = doJSON(t, router, http.MethodDelete, "/api/notifications", "emp001", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/notifications", "emp001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]NotificationDTO](t, rec))
}

func TestListFlagsAndHolidays(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/flags", "emp001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	employeeFlags := decode[[]FlagDTO](t, rec)

	rec = doJSON(t, router, http.MethodGet, "/api/flags", "hr001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hrFlags := decode[[]FlagDTO](t, rec)
	assert.Greater(t, len(hrFlags), len(employeeFlags))

	doJSON(t, router, http.MethodPost, "/api/users/hr001/entries", "hr001", SaveEntryRequest{
		From: "2026-05-01",
		Flag: "national day off",
	})
	rec = doJSON(t, router, http.MethodGet, "/api/holidays", "emp001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	holidays := decode[[]HolidayDTO](t, rec)
	require.Len(t, holidays, 1)
	assert.Equal(t, "2026-05-01", holidays[0].Date)
}

func TestMissingActorHeader(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "an empty actor id matches no user")
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}
