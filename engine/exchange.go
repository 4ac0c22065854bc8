/*
exchange.go - Portable calendar documents (export / import merge)

DOCUMENT SHAPE:
  {calendar_owner:{id,name,role}, project:{id,name,description}, region,
   year, calendar_status, days:[{date, flag, comment, hours}]}
  Bulk export wraps an array of such documents under export_metadata.

IMPORT BRANCHES:
  - unknown owner id: the user (and, if needed, their project and region)
    is created, every day replays as an "imported" version, then holiday
    days are inherited from the first HR user of the same project
    ("inherited from project HR"); regional holidays only cross over when
    the regions match. The new calendar stays in draft.
  - known owner id: only non-holiday flags replay ("imported (merged)"),
    dropped holiday days are counted, and the calendar regresses to
    pending manager validation.

  Either branch commits exactly one atomic version batch - a failed
  import leaves no partial ledger state.
*/
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/calendar-engine/calendar"
	"github.com/warp/calendar-engine/directory"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// DocumentOwner identifies the calendar owner inside a portable document.
type DocumentOwner struct {
	ID   calendar.UserID `json:"id"`
	Name string          `json:"name"`
	Role calendar.Role   `json:"role"`
}

// DocumentProject carries the owner's primary project.
type DocumentProject struct {
	ID          calendar.ProjectID `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
}

// DocumentDay is one exported day. Empty days are omitted on export.
type DocumentDay struct {
	Date    string        `json:"date"`
	Flag    calendar.Flag `json:"flag"`
	Comment string        `json:"comment"`
	Hours   float64       `json:"hours"`
}

// Document is the import/export contract for a single calendar.
type Document struct {
	Owner   DocumentOwner   `json:"calendar_owner"`
	Project DocumentProject `json:"project"`
	Region  calendar.Region `json:"region"`
	Year    int             `json:"year"`
	Status  calendar.Status `json:"calendar_status"`
	Days    []DocumentDay   `json:"days"`
}

// ExportMetadata describes a bulk export.
type ExportMetadata struct {
	ExportDate    string          `json:"export_date"`
	ExportedBy    calendar.UserID `json:"exported_by"`
	ExporterName  string          `json:"exporter_name"`
	CalendarCount int             `json:"calendar_count"`
}

// BulkDocument wraps one document per visible user.
type BulkDocument struct {
	Metadata  ExportMetadata `json:"export_metadata"`
	Calendars []Document     `json:"calendars"`
}

// ImportReport tells the caller what an import did.
type ImportReport struct {
	Owner            calendar.UserID
	Created          bool // false means an existing calendar was merged
	ImportedDays     int
	InheritedDays    int
	DroppedProtected int
	SkippedInvalid   int
}

// ParseDocument decodes and validates a portable document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &calendar.MalformedDocumentError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	if d.Owner.ID == "" {
		return &calendar.MalformedDocumentError{Reason: "missing calendar_owner.id"}
	}
	if d.Year == 0 {
		return &calendar.MalformedDocumentError{Reason: "missing year"}
	}
	if d.Project.ID == "" {
		return &calendar.MalformedDocumentError{Reason: "missing project.id"}
	}
	for i, day := range d.Days {
		if _, err := calendar.ParseDate(day.Date); err != nil {
			return &calendar.MalformedDocumentError{Reason: fmt.Sprintf("days[%d]: bad date %q", i, day.Date)}
		}
		if !day.Flag.Known() {
			return &calendar.MalformedDocumentError{Reason: fmt.Sprintf("days[%d]: unknown flag %q", i, day.Flag)}
		}
	}
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportCalendar serializes one user's calendar. Employees may export only
// their own; managers are limited to their visibility scope.
func (e *Engine) ExportCalendar(ctx context.Context, actorID, ownerID calendar.UserID) (*Document, error) {
	actor, err := e.user(actorID)
	if err != nil {
		return nil, err
	}
	owner, err := e.user(ownerID)
	if err != nil {
		return nil, err
	}
	if actor.Role == calendar.RoleEmployee && actor.ID != owner.ID {
		return nil, &calendar.AccessDeniedError{Actor: actor.ID, Role: actor.Role, Reason: "employees can only export their own calendar"}
	}
	if !e.dir.CanSee(actor, owner.ID) {
		return nil, &calendar.AccessDeniedError{Actor: actor.ID, Role: actor.Role, Reason: fmt.Sprintf("cannot see %s's calendar", owner.Name)}
	}
	return e.exportOne(ctx, owner)
}

// ExportBulk serializes every calendar the actor can see. Managers and HR only.
func (e *Engine) ExportBulk(ctx context.Context, actorID calendar.UserID) (*BulkDocument, error) {
	actor, err := e.user(actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role == calendar.RoleEmployee {
		return nil, &calendar.AccessDeniedError{Actor: actor.ID, Role: actor.Role, Reason: "only managers and HR can bulk-export"}
	}

	targets := e.dir.VisibleTo(actor)
	bulk := &BulkDocument{
		Metadata: ExportMetadata{
			ExportDate:    calendar.DateOf(e.now()).String(),
			ExportedBy:    actor.ID,
			ExporterName:  actor.Name,
			CalendarCount: len(targets),
		},
		Calendars: make([]Document, 0, len(targets)),
	}
	for _, target := range targets {
		doc, err := e.exportOne(ctx, target)
		if err != nil {
			return nil, err
		}
		bulk.Calendars = append(bulk.Calendars, *doc)
	}
	return bulk, nil
}

func (e *Engine) exportOne(ctx context.Context, owner directory.User) (*Document, error) {
	status, err := e.store.Status(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		Owner:  DocumentOwner{ID: owner.ID, Name: owner.Name, Role: owner.Role},
		Region: owner.Region,
		Year:   e.year,
		Status: status,
	}
	if p, ok := e.dir.Project(owner.PrimaryProject()); ok {
		doc.Project = DocumentProject{ID: p.ID, Name: p.Name, Description: p.Description}
	}

	days, err := e.store.ProjectedDays(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	for _, day := range days {
		if day.IsEmpty() {
			continue
		}
		doc.Days = append(doc.Days, DocumentDay{
			Date:    day.Date.String(),
			Flag:    day.Flag,
			Comment: day.Comment,
			Hours:   day.Hours.InexactFloat64(),
		})
	}
	return doc, nil
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportCalendar merges a portable document into the directory and ledger.
// Managers and HR only; the new-vs-existing branch is chosen by owner id.
func (e *Engine) ImportCalendar(ctx context.Context, actorID calendar.UserID, doc *Document) (*ImportReport, error) {
	actor, err := e.user(actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role == calendar.RoleEmployee {
		return nil, &calendar.AccessDeniedError{Actor: actor.ID, Role: actor.Role, Reason: "only managers and HR can import calendars"}
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}

	if owner, ok := e.dir.User(doc.Owner.ID); ok {
		return e.importExisting(ctx, actor, owner, doc)
	}
	return e.importNew(ctx, actor, doc)
}

// importNew creates the owner (plus project and region as needed), replays
// the document and inherits project-wide holidays from HR. Everything lands
// in one version batch; the new calendar stays in draft.
func (e *Engine) importNew(ctx context.Context, actor directory.User, doc *Document) (*ImportReport, error) {
	role := doc.Owner.Role
	if !role.Valid() {
		role = calendar.RoleEmployee
	}

	if _, ok := e.dir.Project(doc.Project.ID); !ok {
		if err := e.dir.AddProject(directory.Project{
			ID:          doc.Project.ID,
			Name:        doc.Project.Name,
			Description: doc.Project.Description,
			Division:    actor.Division,
		}); err != nil {
			return nil, err
		}
	}
	owner := directory.User{
		ID:       doc.Owner.ID,
		Name:     doc.Owner.Name,
		Role:     role,
		Projects: []calendar.ProjectID{doc.Project.ID},
		Division: actor.Division,
		Region:   doc.Region,
	}
	if err := e.dir.AddUser(owner); err != nil {
		return nil, err
	}

	report := &ImportReport{Owner: owner.ID, Created: true}
	var versions []calendar.EntryVersion
	// Flags landed by the replay, so inheritance never overwrites them.
	imported := make(map[string]calendar.Flag)

	for _, day := range doc.Days {
		date, version, ok := e.replayDay(owner.ID, day, actor, "imported")
		if !ok {
			report.SkippedInvalid++
			continue
		}
		versions = append(versions, version)
		imported[date.String()] = day.Flag
		report.ImportedDays++
	}

	// Company/region-wide days already on the project's HR calendar apply to
	// the newcomer too; regional ones only within the same region.
	if hr, ok := e.dir.FirstHRInProject(doc.Project.ID, owner.ID); ok {
		hrDays, err := e.store.ProjectedDays(ctx, hr.ID)
		if err != nil {
			return nil, err
		}
		for _, day := range hrDays {
			if day.Flag.Kind() != calendar.KindHoliday {
				continue
			}
			if day.Flag == calendar.FlagRegionalDayOff && hr.Region != owner.Region {
				continue
			}
			if day.Date.Year() != e.year {
				continue
			}
			if f, ok := imported[day.Date.String()]; ok && f != calendar.FlagNone {
				continue
			}
			versions = append(versions, calendar.EntryVersion{
				ID:           calendar.VersionID(uuid.NewString()),
				Owner:        owner.ID,
				Date:         day.Date,
				Timestamp:    e.now(),
				Actor:        actor.ID,
				ActorName:    actor.Name,
				ActorRole:    actor.Role,
				Action:       "inherited from project HR",
				Comment:      day.Comment,
				Flag:         day.Flag,
				Hours:        decimal.Zero,
				PropagatedBy: hr.Name,
			})
			report.InheritedDays++
		}
	}

	if err := e.store.AppendVersions(ctx, versions); err != nil {
		return nil, err
	}
	return report, nil
}

// importExisting merges the document into a known calendar. Holiday-family
// flags never cross an import boundary for existing users.
func (e *Engine) importExisting(ctx context.Context, actor, owner directory.User, doc *Document) (*ImportReport, error) {
	if actor.Role == calendar.RoleManager && !e.dir.CanSee(actor, owner.ID) {
		return nil, &calendar.ScopeViolationError{
			Actor:   actor.ID,
			Project: owner.PrimaryProject(),
			Reason:  fmt.Sprintf("%s is outside your projects", owner.Name),
		}
	}

	report := &ImportReport{Owner: owner.ID}
	var versions []calendar.EntryVersion
	for _, day := range doc.Days {
		if day.Flag.Kind() == calendar.KindHoliday {
			report.DroppedProtected++
			continue
		}
		_, version, ok := e.replayDay(owner.ID, day, actor, "imported (merged)")
		if !ok {
			report.SkippedInvalid++
			continue
		}
		versions = append(versions, version)
		report.ImportedDays++
	}

	if err := e.store.AppendVersions(ctx, versions); err != nil {
		return nil, err
	}
	if report.ImportedDays > 0 {
		summary := fmt.Sprintf("Calendar imported: %d days updated", report.ImportedDays)
		if err := e.regressForReview(ctx, actor, owner, summary); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// replayDay turns one document day into a ledger version. Days outside the
// active year or on weekends are reported as invalid.
func (e *Engine) replayDay(owner calendar.UserID, day DocumentDay, actor directory.User, action string) (calendar.Date, calendar.EntryVersion, bool) {
	date, err := calendar.ParseDate(day.Date)
	if err != nil || date.Year() != e.year || date.IsWeekend() {
		return calendar.Date{}, calendar.EntryVersion{}, false
	}
	hours := calendar.NormalizeHours(day.Flag, decimal.NewFromFloat(day.Hours))
	return date, calendar.EntryVersion{
		ID:        calendar.VersionID(uuid.NewString()),
		Owner:     owner,
		Date:      date,
		Timestamp: e.now(),
		Actor:     actor.ID,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Action:    action,
		Comment:   day.Comment,
		Flag:      day.Flag,
		Hours:     hours,
	}, true
}
