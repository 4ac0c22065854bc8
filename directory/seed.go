package directory

import "github.com/warp/calendar-engine/calendar"

// Seed builds the demo directory used by the dev server and the scenario
// tests: two divisions, three projects, six regions and seventeen users.
// Kevin Anderson manages both Atlas and Horizon (multi-project manager).
func Seed() *Directory {
	d := New()

	divisions := []Division{
		{ID: "div001", Name: "Engineering"},
		{ID: "div002", Name: "Innovation"},
	}
	projects := []Project{
		{ID: "proj001", Name: "Atlas", Description: "Global Infrastructure Project", Division: "div001"},
		{ID: "proj002", Name: "Phoenix", Description: "Digital Transformation Initiative", Division: "div001"},
		{ID: "proj003", Name: "Horizon", Description: "Future Innovation Lab", Division: "div002"},
	}
	users := []User{
		{ID: "emp001", Name: "Alice Johnson", Role: calendar.RoleEmployee, Projects: []calendar.ProjectID{"proj001"}, Division: "div001", Region: "Madrid"},
		{ID: "emp002", Name: "Bob Smith", Role: calendar.RoleEmployee, Projects: []calendar.ProjectID{"proj001"}, Division: "div001", Region: "Valencia"},
		{ID: "emp003", Name: "Charlie Brown", Role: calendar.RoleEmployee, Projects: []calendar.ProjectID{"proj001"}, Division: "div001", Region: "Andalousia"},
		{ID: "emp004", Name: "Diana Prince", Role: calendar.RoleEmployee, Projects: []calendar.ProjectID{"proj001"}, Division: "div001", Region: "Madrid"},
		{ID: "mgr001", Name: "Kevin Anderson", Role: calendar.RoleManager, Projects: []calendar.ProjectID{"proj001", "proj003"}, Division: "div001", Region: "Valencia"},
		{ID: "hr001", Name: "Michael Scott", Role: calendar.RoleHR, Projects: []calendar.ProjectID{"proj001"}, Division: "div001", Region: "Madrid"},

		{ID: "emp005", Name: "Ethan Hunt", Role: calendar.RoleEmployee, Projects: []calendar.ProjectID{"proj002"}, Division: "div001", Region: "Baleares"},
		{ID: "emp006", Name: "Fiona Green", Role: calendar.RoleEmployee, Projects: []calendar.ProjectID{"proj002"}, Division: "div001", Region: "Asturias"},
		{ID: "emp007", Name: "George Wilson", Role: calendar.RoleEmployee, Projects: []calendar.ProjectID{"proj002"}, Division: "div001", Region: "Cantabria"},
		{ID: "emp008", Name: "Hannah White", Role: calendar.RoleEmployee, Projects: []calendar.ProjectID{"proj002"}, Division: "div001", Region: "Baleares"},
		{ID: "mgr002", Name: "Laura Martinez", Role: calendar.RoleManager, Projects: []calendar.ProjectID{"proj002"}, Division: "div001", Region: "Valencia"},
		{ID: "hr002", Name: "Nancy Drew", Role: calendar.RoleHR, Projects: []calendar.ProjectID{"proj002"}, Division: "div001", Region: "Baleares"},
		{ID: "hr003", Name: "Oscar Wilde", Role: calendar.RoleHR, Projects: []calendar.ProjectID{"proj002"}, Division: "div001", Region: "Asturias"},

		{ID: "emp009", Name: "Ian Malcolm", Role: calendar.RoleEmployee, Projects: []calendar.ProjectID{"proj003"}, Division: "div002", Region: "Cantabria"},
		{ID: "emp010", Name: "Julia Roberts", Role: calendar.RoleEmployee, Projects: []calendar.ProjectID{"proj003"}, Division: "div002", Region: "Madrid"},
		{ID: "hr004", Name: "Patricia Hill", Role: calendar.RoleHR, Projects: []calendar.ProjectID{"proj003"}, Division: "div002", Region: "Cantabria"},
		{ID: "hr005", Name: "Quincy Adams", Role: calendar.RoleHR, Projects: []calendar.ProjectID{"proj003"}, Division: "div002", Region: "Madrid"},
	}

	for _, div := range divisions {
		if err := d.AddDivision(div); err != nil {
			panic(err)
		}
	}
	for _, p := range projects {
		if err := d.AddProject(p); err != nil {
			panic(err)
		}
	}
	for _, u := range users {
		if err := d.AddUser(u); err != nil {
			panic(err)
		}
	}
	return d
}
