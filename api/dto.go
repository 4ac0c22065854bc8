/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract; hours travel
  as plain JSON numbers while the engine keeps decimal precision.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - engine/exchange.go: the portable import/export document (serialized
    as-is, not re-wrapped in DTOs)
*/
package api

import (
	"time"

	"github.com/warp/calendar-engine/calendar"
	"github.com/warp/calendar-engine/directory"
	"github.com/warp/calendar-engine/engine"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// UserDTO represents a directory user in API responses.
type UserDTO struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Projects []string `json:"projects"`
	Division string   `json:"division"`
	Region   string   `json:"region"`
}

func toUserDTO(u directory.User) UserDTO {
	projects := make([]string, len(u.Projects))
	for i, p := range u.Projects {
		projects[i] = string(p)
	}
	return UserDTO{
		ID:       string(u.ID),
		Name:     u.Name,
		Role:     string(u.Role),
		Projects: projects,
		Division: string(u.Division),
		Region:   string(u.Region),
	}
}

// DayDTO represents the current value of one calendar day.
type DayDTO struct {
	Owner   string  `json:"owner"`
	Date    string  `json:"date"`
	Comment string  `json:"comment"`
	Flag    string  `json:"flag"`
	Hours   float64 `json:"hours"`
	Color   string  `json:"color,omitempty"`
}

func toDayDTO(p calendar.DayProjection) DayDTO {
	return DayDTO{
		Owner:   string(p.Owner),
		Date:    p.Date.String(),
		Comment: p.Comment,
		Flag:    string(p.Flag),
		Hours:   p.Hours.InexactFloat64(),
		Color:   p.Color(),
	}
}

// VersionDTO represents one ledger version in day history responses.
type VersionDTO struct {
	ID           string  `json:"id"`
	Timestamp    string  `json:"timestamp"`
	Actor        string  `json:"actor"`
	ActorName    string  `json:"actor_name"`
	ActorRole    string  `json:"actor_role"`
	Action       string  `json:"action"`
	Comment      string  `json:"comment"`
	Flag         string  `json:"flag"`
	Hours        float64 `json:"hours"`
	PropagatedBy string  `json:"propagated_by,omitempty"`
}

func toVersionDTO(v calendar.EntryVersion) VersionDTO {
	return VersionDTO{
		ID:           string(v.ID),
		Timestamp:    v.Timestamp.Format(time.RFC3339),
		Actor:        string(v.Actor),
		ActorName:    v.ActorName,
		ActorRole:    string(v.ActorRole),
		Action:       v.Action,
		Comment:      v.Comment,
		Flag:         string(v.Flag),
		Hours:        v.Hours.InexactFloat64(),
		PropagatedBy: v.PropagatedBy,
	}
}

// FlagDTO describes one settable flag plus its display color.
type FlagDTO struct {
	Flag  string `json:"flag"`
	Color string `json:"color"`
}

// QuotaDTO reports an owner's remaining allowances.
type QuotaDTO struct {
	VacationLimit      int `json:"vacation_limit"`
	VacationRemaining  int `json:"vacation_remaining"`
	ExtraDayLimit      int `json:"extra_day_limit"`
	ExtraDaysRemaining int `json:"extra_days_remaining"`
}

// StatusDTO reports a calendar's validation status.
type StatusDTO struct {
	Owner  string `json:"owner"`
	Status string `json:"status"`
}

// StatusChangeDTO is one workflow transition record.
type StatusChangeDTO struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Actor     string `json:"actor"`
	ActorName string `json:"actor_name"`
	ActorRole string `json:"actor_role"`
	Summary   string `json:"summary"`
}

func toStatusChangeDTO(c calendar.StatusChange) StatusChangeDTO {
	return StatusChangeDTO{
		ID:        c.ID,
		Timestamp: c.Timestamp.Format(time.RFC3339),
		From:      string(c.From),
		To:        string(c.To),
		Actor:     string(c.Actor),
		ActorName: c.ActorName,
		ActorRole: string(c.ActorRole),
		Summary:   c.Summary,
	}
}

// HolidayDTO is one company-holiday index entry.
type HolidayDTO struct {
	Date string `json:"date"`
	Flag string `json:"flag"`
}

// NotificationDTO is one queued message.
type NotificationDTO struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// SaveResultDTO reports what a save operation did.
type SaveResultDTO struct {
	Saved            int    `json:"saved"`
	PropagatedUsers  int    `json:"propagated_users,omitempty"`
	SkippedProtected int    `json:"skipped_protected,omitempty"`
	SkippedQuota     int    `json:"skipped_quota,omitempty"`
	SkippedOutOfYear int    `json:"skipped_out_of_year,omitempty"`
	SkippedConflicts int    `json:"skipped_conflicts,omitempty"`
	Scope            string `json:"scope,omitempty"`
}

func toSaveResultDTO(r *engine.SaveResult) SaveResultDTO {
	return SaveResultDTO{
		Saved:            r.Saved,
		PropagatedUsers:  r.PropagatedUsers,
		SkippedProtected: r.SkippedProtected,
		SkippedQuota:     r.SkippedQuota,
		SkippedOutOfYear: r.SkippedOutOfYear,
		SkippedConflicts: r.SkippedConflicts,
		Scope:            r.Scope,
	}
}

// BulkPreviewDTO is the first phase of the bulk hours protocol.
type BulkPreviewDTO struct {
	Token              string `json:"token"`
	AffectedDays       int    `json:"affected_days"`
	OverwriteConflicts int    `json:"overwrite_conflicts"`
}

// BulkResultDTO is the second phase of the bulk hours protocol.
type BulkResultDTO struct {
	UpdatedDays      int `json:"updated_days"`
	SkippedConflicts int `json:"skipped_conflicts"`
	Users            int `json:"users"`
}

// ImportReportDTO reports an import's outcome.
type ImportReportDTO struct {
	Owner            string `json:"owner"`
	Created          bool   `json:"created"`
	ImportedDays     int    `json:"imported_days"`
	InheritedDays    int    `json:"inherited_days"`
	DroppedProtected int    `json:"dropped_protected"`
	SkippedInvalid   int    `json:"skipped_invalid"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SaveEntryRequest is the body of a calendar edit.
type SaveEntryRequest struct {
	From    string  `json:"from"`
	To      string  `json:"to,omitempty"` // empty means single-day edit
	Comment string  `json:"comment"`
	Flag    string  `json:"flag"`
	Hours   float64 `json:"hours"`
	Region  string  `json:"region,omitempty"`
	Project string  `json:"project,omitempty"`
}

// BulkPreviewRequest starts a bulk hours operation.
type BulkPreviewRequest struct {
	Month     int     `json:"month"` // 1-12, ignored when all_months
	AllMonths bool    `json:"all_months"`
	MonThu    float64 `json:"mon_thu_hours"`
	Fri       float64 `json:"fri_hours"`
}

// BulkApplyRequest commits a previewed bulk hours operation.
type BulkApplyRequest struct {
	Token      string `json:"token"`
	Resolution string `json:"resolution"` // "skip" or "overwrite"
}

// SetQuotaRequest changes the global vacation or a per-user extra-day limit.
type SetQuotaRequest struct {
	Days int `json:"days"`
}
