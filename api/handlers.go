/*
handlers.go - HTTP API handlers for the calendar engine

PURPOSE:
  Exposes the calendar engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every decision to the engine.

ENDPOINTS:
  Queries:
    GET    /api/users                          Visible users
    GET    /api/users/{id}/days/{date}         Day projection
    GET    /api/users/{id}/days/{date}/history Day edit history
    GET    /api/users/{id}/quotas              Remaining allowances
    GET    /api/users/{id}/status              Validation status
    GET    /api/users/{id}/status/history      Workflow transitions
    GET    /api/flags                          Flags the actor may set
    GET    /api/holidays                       Company holiday index
    GET    /api/notifications                  Actor's queued messages

  Commands:
    POST   /api/users/{id}/entries             Save entry (single or range)
    POST   /api/validate/self                  HR self-validation
    POST   /api/users/{id}/validate            Manager validation
    POST   /api/users/{id}/finalize            HR finalization
    POST   /api/bulk-hours/preview             Bulk hours phase 1
    POST   /api/bulk-hours/apply               Bulk hours phase 2
    PUT    /api/quotas/vacation                Global vacation limit
    PUT    /api/users/{id}/quotas/extra        Per-user extra-day limit
    GET    /api/users/{id}/export              Export one calendar
    GET    /api/export                         Bulk export
    POST   /api/import                         Import a document
    DELETE /api/notifications                  Dismiss own messages

IDENTITY:
  The acting user is carried in the X-Actor-ID header; there is no
  authentication layer. The engine enforces what each actor may do.

ERROR HANDLING:
  Engine errors map to HTTP status by sentinel:
  - 400: invalid date, invalid transition, malformed document, region missing
  - 403: access denied, scope violation
  - 404: unknown user/resource
  - 409: quota exhausted, duplicate id
  - 500: storage failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/calendar-engine/calendar"
	"github.com/warp/calendar-engine/engine"
)

// actorHeader carries the acting user's id on every request.
const actorHeader = "X-Actor-ID"

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *engine.Engine
}

// NewHandler creates a handler backed by the given engine.
func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{Engine: eng}
}

func (h *Handler) actor(r *http.Request) calendar.UserID {
	return calendar.UserID(r.Header.Get(actorHeader))
}

// =============================================================================
// QUERY HANDLERS
// =============================================================================

// ListUsers returns the users whose calendars the actor may see.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Engine.VisibleUsers(r.Context(), h.actor(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetDay returns the current projection of one calendar day.
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	owner := calendar.UserID(chi.URLParam(r, "id"))
	date, err := calendar.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	proj, ok, err := h.Engine.Projection(r.Context(), owner, date)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !ok {
		// An untouched day is an empty day, not a 404.
		proj = calendar.DayProjection{Owner: owner, Date: date}
	}
	writeJSON(w, http.StatusOK, toDayDTO(proj))
}

// GetDayHistory returns the full edit history of one day, most recent first.
func (h *Handler) GetDayHistory(w http.ResponseWriter, r *http.Request) {
	owner := calendar.UserID(chi.URLParam(r, "id"))
	date, err := calendar.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	versions, err := h.Engine.History(r.Context(), owner, date)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]VersionDTO, len(versions))
	for i, v := range versions {
		dtos[i] = toVersionDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetQuotas returns an owner's remaining allowances.
func (h *Handler) GetQuotas(w http.ResponseWriter, r *http.Request) {
	owner := calendar.UserID(chi.URLParam(r, "id"))
	summary, err := h.Engine.Quotas(r.Context(), owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QuotaDTO{
		VacationLimit:      summary.VacationLimit,
		VacationRemaining:  summary.VacationRemaining,
		ExtraDayLimit:      summary.ExtraDayLimit,
		ExtraDaysRemaining: summary.ExtraDaysRemaining,
	})
}

// GetStatus returns an owner's validation status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	owner := calendar.UserID(chi.URLParam(r, "id"))
	status, err := h.Engine.CalendarStatus(r.Context(), owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusDTO{Owner: string(owner), Status: string(status)})
}

// GetStatusHistory returns an owner's workflow transitions, most recent first.
func (h *Handler) GetStatusHistory(w http.ResponseWriter, r *http.Request) {
	owner := calendar.UserID(chi.URLParam(r, "id"))
	changes, err := h.Engine.StatusHistory(r.Context(), owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]StatusChangeDTO, len(changes))
	for i, c := range changes {
		dtos[i] = toStatusChangeDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListFlags returns the flags the actor may set, with display colors.
func (h *Handler) ListFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := h.Engine.AllowedFlags(r.Context(), h.actor(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]FlagDTO, len(flags))
	for i, f := range flags {
		dtos[i] = FlagDTO{Flag: string(f), Color: f.Color()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListHolidays returns the company holiday index.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Engine.CompanyHolidays(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hd := range holidays {
		dtos[i] = HolidayDTO{Date: hd.Date.String(), Flag: string(hd.Flag)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListNotifications returns the actor's queued messages.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Engine.Notifications(r.Context(), h.actor(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]NotificationDTO, len(notes))
	for i, n := range notes {
		dtos[i] = NotificationDTO{
			Timestamp: n.Timestamp.Format(time.RFC3339),
			Message:   n.Message,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// DismissNotifications clears the actor's own queue.
func (h *Handler) DismissNotifications(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DismissNotifications(r.Context(), h.actor(r)); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// SaveEntry applies one edit, single-day or range, to the owner's calendar.
func (h *Handler) SaveEntry(w http.ResponseWriter, r *http.Request) {
	var body SaveEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	from, err := calendar.ParseDate(body.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	var to calendar.Date
	if body.To != "" {
		if to, err = calendar.ParseDate(body.To); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
			return
		}
	}

	result, err := h.Engine.SaveEntry(r.Context(), h.actor(r), engine.SaveRequest{
		Owner:   calendar.UserID(chi.URLParam(r, "id")),
		From:    from,
		To:      to,
		Comment: body.Comment,
		Flag:    calendar.Flag(body.Flag),
		Hours:   decimal.NewFromFloat(body.Hours),
		Region:  calendar.Region(body.Region),
		Project: calendar.ProjectID(body.Project),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaveResultDTO(result))
}

// ValidateSelf lets an HR user validate their own calendar.
func (h *Handler) ValidateSelf(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.ValidateSelf(r.Context(), h.actor(r)); err != nil {
		writeEngineError(w, err)
		return
	}
	h.writeStatus(w, r, h.actor(r))
}

// ManagerValidate lets a manager validate a visible user's calendar.
func (h *Handler) ManagerValidate(w http.ResponseWriter, r *http.Request) {
	owner := calendar.UserID(chi.URLParam(r, "id"))
	if err := h.Engine.ManagerValidate(r.Context(), h.actor(r), owner); err != nil {
		writeEngineError(w, err)
		return
	}
	h.writeStatus(w, r, owner)
}

// HRFinalize lets HR finalize a manager-validated calendar.
func (h *Handler) HRFinalize(w http.ResponseWriter, r *http.Request) {
	owner := calendar.UserID(chi.URLParam(r, "id"))
	if err := h.Engine.HRFinalize(r.Context(), h.actor(r), owner); err != nil {
		writeEngineError(w, err)
		return
	}
	h.writeStatus(w, r, owner)
}

func (h *Handler) writeStatus(w http.ResponseWriter, r *http.Request, owner calendar.UserID) {
	status, err := h.Engine.CalendarStatus(r.Context(), owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusDTO{Owner: string(owner), Status: string(status)})
}

// PreviewBulkHours runs the read-only phase of the bulk hours protocol.
func (h *Handler) PreviewBulkHours(w http.ResponseWriter, r *http.Request) {
	var body BulkPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	preview, err := h.Engine.PreviewBulkHours(r.Context(), h.actor(r), engine.BulkRequest{
		Scope:  engine.BulkScope{Month: time.Month(body.Month), AllMonths: body.AllMonths},
		MonThu: decimal.NewFromFloat(body.MonThu),
		Fri:    decimal.NewFromFloat(body.Fri),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BulkPreviewDTO{
		Token:              preview.Token,
		AffectedDays:       preview.AffectedDays,
		OverwriteConflicts: preview.OverwriteConflicts,
	})
}

// ApplyBulkHours commits a previewed bulk hours operation.
func (h *Handler) ApplyBulkHours(w http.ResponseWriter, r *http.Request) {
	var body BulkApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Engine.ApplyBulkHours(r.Context(), h.actor(r), body.Token, engine.Resolution(body.Resolution))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BulkResultDTO{
		UpdatedDays:      result.UpdatedDays,
		SkippedConflicts: result.SkippedConflicts,
		Users:            result.Users,
	})
}

// SetVacationLimit changes the global vacation quota.
func (h *Handler) SetVacationLimit(w http.ResponseWriter, r *http.Request) {
	var body SetQuotaRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Engine.SetVacationLimit(r.Context(), h.actor(r), body.Days); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetExtraDayLimit changes one user's extra-day quota.
func (h *Handler) SetExtraDayLimit(w http.ResponseWriter, r *http.Request) {
	var body SetQuotaRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	owner := calendar.UserID(chi.URLParam(r, "id"))
	if err := h.Engine.SetExtraDayLimit(r.Context(), h.actor(r), owner, body.Days); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// IMPORT / EXPORT HANDLERS
// =============================================================================

// ExportCalendar returns one user's portable calendar document.
func (h *Handler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	owner := calendar.UserID(chi.URLParam(r, "id"))
	doc, err := h.Engine.ExportCalendar(r.Context(), h.actor(r), owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ExportBulk returns a document per calendar the actor can see.
func (h *Handler) ExportBulk(w http.ResponseWriter, r *http.Request) {
	bulk, err := h.Engine.ExportBulk(r.Context(), h.actor(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bulk)
}

// ImportCalendar merges a posted document into the directory and ledger.
func (h *Handler) ImportCalendar(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}
	doc, err := engine.ParseDocument(data)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	report, err := h.Engine.ImportCalendar(r.Context(), h.actor(r), doc)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	status := http.StatusOK
	if report.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, ImportReportDTO{
		Owner:            string(report.Owner),
		Created:          report.Created,
		ImportedDays:     report.ImportedDays,
		InheritedDays:    report.InheritedDays,
		DroppedProtected: report.DroppedProtected,
		SkippedInvalid:   report.SkippedInvalid,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine errors onto HTTP status by sentinel.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, calendar.ErrAccessDenied),
		errors.Is(err, calendar.ErrScopeViolation):
		writeError(w, http.StatusForbidden, "Forbidden", err)
	case errors.Is(err, calendar.ErrQuotaExhausted),
		errors.Is(err, calendar.ErrDuplicateID):
		writeError(w, http.StatusConflict, "Conflict", err)
	case calendar.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
