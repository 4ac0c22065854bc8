/*
flags.go - The closed flag enum and the role capability table

PURPOSE:
  Every non-blank day marking ("on vacation", "national day off", ...) is a
  Flag. Flags carry three orthogonal pieces of metadata:
  - Kind: holiday family, vacation family, worktime, or blank
  - Capability: which roles may SET the flag
  - Quota: whether occurrences are gated by a configured allowance

WHY A CLOSED ENUM?
  The permission rules branch on flag membership. Encoding membership as a
  capability table over a closed enum (instead of string allow-lists) keeps
  the comparisons typo-proof and lets tests enumerate All() exhaustively.

PROTECTED DATES:
  A date whose projection carries a non-blank flag is "protected": only a
  role that may set that flag may further edit the date. The one exception
  is project worktime, which only managers create but anyone may adjust once
  present (an employee correcting their own propagated hours).
*/
package calendar

// Flag marks a calendar day. The empty string is the blank flag.
type Flag string

const (
	FlagNone Flag = ""

	// Holiday family: propagate company/region-wide when set by HR or a manager.
	FlagNationalDayOff Flag = "national day off"
	FlagCompanyDayOff  Flag = "company day off"
	FlagRegionalDayOff Flag = "regional day off"

	// Vacation family.
	FlagOnVacation            Flag = "on vacation"
	FlagVacationClientClosed  Flag = "on vacation client closed"
	FlagOfferedClientClosed   Flag = "offered vacation client closed"
	FlagExtraDayOff           Flag = "extra day off"

	// Project worktime: manager-only to create, propagates to the employees
	// of one project, keeps its hours instead of forcing them to zero.
	FlagProjectWorktime Flag = "project worktime"
)

// FlagKind groups flags by their editing and propagation behavior.
type FlagKind int

const (
	KindBlank FlagKind = iota
	KindHoliday
	KindVacation
	KindWorktime
)

// QuotaKind identifies which allowance, if any, gates a flag.
type QuotaKind int

const (
	QuotaNone QuotaKind = iota
	QuotaVacation
	QuotaExtraDay
)

// flagInfo is one row of the capability table.
type flagInfo struct {
	kind     FlagKind
	setBy    map[Role]bool
	quota    QuotaKind
	color    string
}

var flagTable = map[Flag]flagInfo{
	FlagNone: {kind: KindBlank, setBy: map[Role]bool{RoleEmployee: true, RoleManager: true, RoleHR: true}, color: ""},

	FlagNationalDayOff: {kind: KindHoliday, setBy: map[Role]bool{RoleManager: true, RoleHR: true}, color: "#dd6b20"},
	FlagCompanyDayOff:  {kind: KindHoliday, setBy: map[Role]bool{RoleManager: true, RoleHR: true}, color: "#3182ce"},
	FlagRegionalDayOff: {kind: KindHoliday, setBy: map[Role]bool{RoleManager: true, RoleHR: true}, color: "#d53f8c"},

	FlagOnVacation:           {kind: KindVacation, setBy: map[Role]bool{RoleEmployee: true, RoleManager: true, RoleHR: true}, quota: QuotaVacation, color: "#805ad5"},
	FlagVacationClientClosed: {kind: KindVacation, setBy: map[Role]bool{RoleManager: true, RoleHR: true}, color: "#2f855a"},
	FlagOfferedClientClosed:  {kind: KindVacation, setBy: map[Role]bool{RoleManager: true, RoleHR: true}, color: "#e53e3e"},
	FlagExtraDayOff:          {kind: KindVacation, setBy: map[Role]bool{RoleEmployee: true, RoleManager: true, RoleHR: true}, quota: QuotaExtraDay, color: "#718096"},

	FlagProjectWorktime: {kind: KindWorktime, setBy: map[Role]bool{RoleManager: true}, color: "#319795"},
}

// allFlags is the catalogue order used for UI listings: blank first.
var allFlags = []Flag{
	FlagNone,
	FlagOfferedClientClosed,
	FlagNationalDayOff,
	FlagCompanyDayOff,
	FlagOnVacation,
	FlagVacationClientClosed,
	FlagRegionalDayOff,
	FlagExtraDayOff,
	FlagProjectWorktime,
}

// AllFlags returns the full flag catalogue in display order.
func AllFlags() []Flag {
	out := make([]Flag, len(allFlags))
	copy(out, allFlags)
	return out
}

// Known reports whether f is part of the catalogue.
func (f Flag) Known() bool {
	_, ok := flagTable[f]
	return ok
}

// Kind returns the flag's behavioral family. Unknown flags act as blank.
func (f Flag) Kind() FlagKind {
	if info, ok := flagTable[f]; ok {
		return info.kind
	}
	return KindBlank
}

// SettableBy reports whether role may set f on a date.
func (f Flag) SettableBy(role Role) bool {
	info, ok := flagTable[f]
	if !ok {
		return false
	}
	return info.setBy[role]
}

// Quota returns which allowance gates f, if any.
func (f Flag) Quota() QuotaKind {
	if info, ok := flagTable[f]; ok {
		return info.quota
	}
	return QuotaNone
}

// Propagates reports whether setting f fans out beyond the single owner.
func (f Flag) Propagates() bool {
	k := f.Kind()
	return k == KindHoliday || k == KindWorktime
}

// Color returns the display color for f ("" for blank).
func (f Flag) Color() string {
	if info, ok := flagTable[f]; ok {
		return info.color
	}
	return ""
}

// CanEditProtected reports whether role may edit a date whose current
// projection carries the existing flag. Blank dates are open to everyone;
// worktime dates may be adjusted by any role once present.
func CanEditProtected(role Role, existing Flag) bool {
	if existing == FlagNone {
		return true
	}
	if existing == FlagProjectWorktime {
		return true
	}
	return existing.SettableBy(role)
}

// SettableFlags returns the flags role may set, in catalogue order.
func SettableFlags(role Role) []Flag {
	var out []Flag
	for _, f := range allFlags {
		if f.SettableBy(role) {
			out = append(out, f)
		}
	}
	return out
}
