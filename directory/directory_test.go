package directory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/calendar-engine/calendar"
	"github.com/warp/calendar-engine/directory"
)

// =============================================================================
// REGISTRATION TESTS
// =============================================================================

func TestDirectory_AddUser_DuplicateRejected(t *testing.T) {
	d := directory.New()
	require.NoError(t, d.AddDivision(directory.Division{ID: "div1", Name: "Eng"}))
	require.NoError(t, d.AddProject(directory.Project{ID: "p1", Name: "Atlas", Division: "div1"}))

	u := directory.User{ID: "emp1", Name: "Alice", Role: calendar.RoleEmployee,
		Projects: []calendar.ProjectID{"p1"}, Division: "div1", Region: "Madrid"}
	require.NoError(t, d.AddUser(u))

	err := d.AddUser(u)
	assert.ErrorIs(t, err, calendar.ErrDuplicateID)
}

func TestDirectory_AddProject_DuplicateRejected(t *testing.T) {
	d := directory.New()
	p := directory.Project{ID: "p1", Name: "Atlas"}
	require.NoError(t, d.AddProject(p))
	assert.ErrorIs(t, d.AddProject(p), calendar.ErrDuplicateID)
}

func TestDirectory_AddUser_SortsProjects(t *testing.T) {
	d := directory.New()
	require.NoError(t, d.AddUser(directory.User{
		ID: "mgr1", Name: "Kevin", Role: calendar.RoleManager,
		Projects: []calendar.ProjectID{"p3", "p1"}, Region: "Valencia",
	}))

	u, ok := d.User("mgr1")
	require.True(t, ok)
	assert.Equal(t, []calendar.ProjectID{"p1", "p3"}, u.Projects)
	assert.Equal(t, calendar.ProjectID("p1"), u.PrimaryProject(),
		"primary project is the first in sorted order")
}

func TestDirectory_RegionsGrowWithUsers(t *testing.T) {
	d := directory.New()
	require.NoError(t, d.AddUser(directory.User{ID: "a", Name: "A", Role: calendar.RoleEmployee, Region: "Madrid"}))
	require.NoError(t, d.AddUser(directory.User{ID: "b", Name: "B", Role: calendar.RoleEmployee, Region: "Valencia"}))
	require.NoError(t, d.AddUser(directory.User{ID: "c", Name: "C", Role: calendar.RoleEmployee, Region: "Madrid"}))

	regions := d.Regions()
	assert.ElementsMatch(t, []calendar.Region{"Madrid", "Valencia"}, regions)
}

// =============================================================================
// VISIBILITY TESTS
// =============================================================================

func TestDirectory_VisibleTo_Employee_SelfOnly(t *testing.T) {
	d := directory.Seed()
	alice, ok := d.User("emp001")
	require.True(t, ok)

	visible := d.VisibleTo(alice)
	require.Len(t, visible, 1)
	assert.Equal(t, calendar.UserID("emp001"), visible[0].ID)
}

func TestDirectory_VisibleTo_Manager_ProjectScoped(t *testing.T) {
	// GIVEN: Kevin manages Atlas (proj001) and Horizon (proj003)
	// THEN: He sees everyone in either project, nobody from Phoenix

	d := directory.Seed()
	kevin, ok := d.User("mgr001")
	require.True(t, ok)

	visible := d.VisibleTo(kevin)
	ids := make([]calendar.UserID, len(visible))
	for i, u := range visible {
		ids[i] = u.ID
	}

	assert.Contains(t, ids, calendar.UserID("emp001"), "Atlas employee")
	assert.Contains(t, ids, calendar.UserID("emp009"), "Horizon employee")
	assert.Contains(t, ids, calendar.UserID("mgr001"), "self")
	assert.NotContains(t, ids, calendar.UserID("emp005"), "Phoenix employee out of scope")
	assert.NotContains(t, ids, calendar.UserID("mgr002"), "Phoenix manager out of scope")
}

func TestDirectory_VisibleTo_HR_SeesEveryone(t *testing.T) {
	d := directory.Seed()
	hr, ok := d.User("hr001")
	require.True(t, ok)

	visible := d.VisibleTo(hr)
	assert.Len(t, visible, len(d.Users()))
}

func TestDirectory_CanSee(t *testing.T) {
	d := directory.Seed()
	kevin, _ := d.User("mgr001")
	alice, _ := d.User("emp001")

	assert.True(t, d.CanSee(kevin, "emp001"))
	assert.False(t, d.CanSee(kevin, "emp005"))
	assert.True(t, d.CanSee(alice, "emp001"))
	assert.False(t, d.CanSee(alice, "emp002"))
}

// =============================================================================
// PROJECT QUERIES
// =============================================================================

func TestDirectory_ProjectMembers(t *testing.T) {
	d := directory.Seed()

	members := d.ProjectMembers("proj003")
	ids := make([]calendar.UserID, len(members))
	for i, u := range members {
		ids[i] = u.ID
	}

	assert.Contains(t, ids, calendar.UserID("emp009"))
	assert.Contains(t, ids, calendar.UserID("emp010"))
	assert.Contains(t, ids, calendar.UserID("mgr001"), "multi-project manager belongs to Horizon too")
	assert.NotContains(t, ids, calendar.UserID("emp001"))
}

func TestDirectory_FirstHRInProject(t *testing.T) {
	d := directory.Seed()

	hr, ok := d.FirstHRInProject("proj003", "")
	require.True(t, ok)
	assert.Equal(t, calendar.UserID("hr004"), hr.ID, "first HR user in id order")

	// Excluding the first finds the next one
	hr, ok = d.FirstHRInProject("proj003", "hr004")
	require.True(t, ok)
	assert.Equal(t, calendar.UserID("hr005"), hr.ID)

	_, ok = d.FirstHRInProject("no-such-project", "")
	assert.False(t, ok)
}

func TestSeed_Shape(t *testing.T) {
	d := directory.Seed()

	assert.Len(t, d.Users(), 17)

	kevin, ok := d.User("mgr001")
	require.True(t, ok)
	assert.Len(t, kevin.Projects, 2, "Kevin manages two projects")

	_, ok = d.Project("proj002")
	assert.True(t, ok)
	_, ok = d.Division("div002")
	assert.True(t, ok)
}
