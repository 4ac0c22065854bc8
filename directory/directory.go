/*
Package directory holds the organization reference data: divisions, projects,
regions and users, with the visibility rules the engine scopes every
operation by.

STRUCTURE:
  Division -> Project -> User, with Region as an orthogonal attribute of the
  user used for regional propagation scoping only.

OWNERSHIP MODEL:
  Every user carries a non-empty, sorted set of project affiliations.
  Employees and HR have exactly one; managers may have several. The primary
  project for display is the first affiliation in sorted order.

MUTABILITY:
  Seeded at startup; grows only through explicit Add operations (import of a
  new user may create a project and a region). Ids are unique; duplicate
  registration is rejected, never silently merged.
*/
package directory

import (
	"sort"
	"sync"

	"github.com/warp/calendar-engine/calendar"
)

// User is one directory entry.
type User struct {
	ID       calendar.UserID
	Name     string
	Role     calendar.Role
	Projects []calendar.ProjectID // non-empty, kept sorted
	Division calendar.DivisionID
	Region   calendar.Region
}

// PrimaryProject is the display project: first affiliation in sorted order.
func (u User) PrimaryProject() calendar.ProjectID {
	if len(u.Projects) == 0 {
		return ""
	}
	return u.Projects[0]
}

// HasProject reports whether u is affiliated with pid.
func (u User) HasProject(pid calendar.ProjectID) bool {
	for _, p := range u.Projects {
		if p == pid {
			return true
		}
	}
	return false
}

// Actor converts the user into the ledger actor identity.
func (u User) Actor() calendar.Actor {
	return calendar.Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}

// Project is a unit of work owned by a division.
type Project struct {
	ID          calendar.ProjectID
	Name        string
	Description string
	Division    calendar.DivisionID
}

// Division is the top of the organizational tree.
type Division struct {
	ID   calendar.DivisionID
	Name string
}

// Directory is the process-scoped registry.
type Directory struct {
	mu        sync.RWMutex
	users     map[calendar.UserID]User
	projects  map[calendar.ProjectID]Project
	divisions map[calendar.DivisionID]Division
	regions   map[calendar.Region]struct{}
}

func New() *Directory {
	return &Directory{
		users:     make(map[calendar.UserID]User),
		projects:  make(map[calendar.ProjectID]Project),
		divisions: make(map[calendar.DivisionID]Division),
		regions:   make(map[calendar.Region]struct{}),
	}
}

// =============================================================================
// REGISTRATION
// =============================================================================

func (d *Directory) AddDivision(div Division) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.divisions[div.ID]; exists {
		return calendar.ErrDuplicateID
	}
	d.divisions[div.ID] = div
	return nil
}

func (d *Directory) AddProject(p Project) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.projects[p.ID]; exists {
		return calendar.ErrDuplicateID
	}
	d.projects[p.ID] = p
	return nil
}

func (d *Directory) AddUser(u User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.users[u.ID]; exists {
		return calendar.ErrDuplicateID
	}
	sort.Slice(u.Projects, func(i, j int) bool { return u.Projects[i] < u.Projects[j] })
	d.users[u.ID] = u
	if u.Region != "" {
		d.regions[u.Region] = struct{}{}
	}
	return nil
}

// EnsureRegion registers a region if it is not known yet.
func (d *Directory) EnsureRegion(r calendar.Region) {
	if r == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regions[r] = struct{}{}
}

// =============================================================================
// LOOKUPS
// =============================================================================

// User returns the user with the given id. Missing users return ok=false,
// never an error.
func (d *Directory) User(id calendar.UserID) (User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	return u, ok
}

func (d *Directory) Project(id calendar.ProjectID) (Project, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.projects[id]
	return p, ok
}

func (d *Directory) Division(id calendar.DivisionID) (Division, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	div, ok := d.divisions[id]
	return div, ok
}

// ProjectsOf resolves the user's affiliations to project records, in the
// user's sorted affiliation order. Unknown ids are skipped.
func (d *Directory) ProjectsOf(u User) []Project {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Project
	for _, pid := range u.Projects {
		if p, ok := d.projects[pid]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Users returns every user sorted by id.
func (d *Directory) Users() []User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Regions returns the known regions sorted alphabetically.
func (d *Directory) Regions() []calendar.Region {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]calendar.Region, 0, len(d.regions))
	for r := range d.regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// =============================================================================
// VISIBILITY
// =============================================================================

// VisibleTo returns the users whose calendars actor may see:
// HR sees everyone, a manager sees users affiliated with any of the
// manager's projects, an employee sees only themself.
func (d *Directory) VisibleTo(actor User) []User {
	switch actor.Role {
	case calendar.RoleHR:
		return d.Users()
	case calendar.RoleManager:
		var out []User
		for _, u := range d.Users() {
			if d.sharesProject(actor, u) {
				out = append(out, u)
			}
		}
		return out
	default:
		if u, ok := d.User(actor.ID); ok {
			return []User{u}
		}
		return nil
	}
}

// CanSee reports whether actor may see owner's calendar.
func (d *Directory) CanSee(actor User, owner calendar.UserID) bool {
	for _, u := range d.VisibleTo(actor) {
		if u.ID == owner {
			return true
		}
	}
	return false
}

func (d *Directory) sharesProject(manager, u User) bool {
	for _, pid := range u.Projects {
		if manager.HasProject(pid) {
			return true
		}
	}
	return false
}

// ProjectMembers returns the users affiliated with pid, sorted by id.
func (d *Directory) ProjectMembers(pid calendar.ProjectID) []User {
	var out []User
	for _, u := range d.Users() {
		if u.HasProject(pid) {
			out = append(out, u)
		}
	}
	return out
}

// FirstHRInProject returns the first HR user (by id) affiliated with pid,
// excluding the given user id. Used by import inheritance.
func (d *Directory) FirstHRInProject(pid calendar.ProjectID, excluding calendar.UserID) (User, bool) {
	for _, u := range d.ProjectMembers(pid) {
		if u.Role == calendar.RoleHR && u.ID != excluding {
			return u, true
		}
	}
	return User{}, false
}
