// Package digest aggregates current-week report state into ready-to-render
// summaries for the notification pipeline. It does no I/O.
package digest

import (
	"sort"

	"github.com/amoylab/ragtrack/internal/apiserver/database"
)

// Row is a one-line dashboard entry for a submitted report.
type Row struct {
	ProjectID   uint   `json:"projectId"`
	ProjectName string `json:"projectName"`
	PMName      string `json:"pmName"`
	Note        string `json:"note"`
}

// Dashboard is the organization-wide weekly digest.
type Dashboard struct {
	WeekKey string   `json:"weekKey"`
	Red     []Row    `json:"red"`
	Amber   []Row    `json:"amber"`
	Green   []Row    `json:"green"`
	Pending []string `json:"pending"`
}

// Submitted returns the number of reports bucketed.
func (d *Dashboard) Submitted() int {
	return len(d.Red) + len(d.Amber) + len(d.Green)
}

// Reminder is one PM's list of projects still missing this week's report.
// PMs with nothing pending get no entry.
type Reminder struct {
	PMID         uint     `json:"pmId"`
	PMName       string   `json:"pmName"`
	PMEmail      string   `json:"pmEmail"`
	ProjectNames []string `json:"projectNames"`
}

// BuildDashboard buckets the week's reports by RAG and computes the pending
// set as the active projects without a report, by project id. Empty inputs
// yield an empty digest.
func BuildDashboard(weekKey string, reports []*database.WeeklyReport, projects []*database.Project, users []*database.User) *Dashboard {
	projectsByID := make(map[uint]*database.Project, len(projects))
	for _, p := range projects {
		projectsByID[p.ID] = p
	}
	usersByID := make(map[uint]*database.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	d := &Dashboard{
		WeekKey: weekKey,
		Red:     []Row{},
		Amber:   []Row{},
		Green:   []Row{},
		Pending: []string{},
	}

	submitted := make(map[uint]bool, len(reports))
	for _, r := range reports {
		submitted[r.ProjectID] = true

		row := Row{ProjectID: r.ProjectID, Note: "On track"}
		if p, ok := projectsByID[r.ProjectID]; ok {
			row.ProjectName = p.Name
		}
		if u, ok := usersByID[r.PMID]; ok {
			row.PMName = u.Name
		}
		if r.ReasonForRag != "" {
			row.Note = r.ReasonForRag
		}

		switch r.Rag {
		case database.RagRed:
			d.Red = append(d.Red, row)
		case database.RagAmber:
			d.Amber = append(d.Amber, row)
		case database.RagGreen:
			d.Green = append(d.Green, row)
		}
	}

	for _, p := range projects {
		if p.Status != database.ProjectStatusActive {
			continue
		}
		if !submitted[p.ID] {
			d.Pending = append(d.Pending, p.Name)
		}
	}
	sort.Strings(d.Pending)

	return d
}

// BuildReminders groups pending active projects by their assigned PM. Only
// projects with a PM produce work; PMs with zero pending projects yield no
// reminder at all.
func BuildReminders(reports []*database.WeeklyReport, projects []*database.Project, users []*database.User) []Reminder {
	usersByID := make(map[uint]*database.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	submitted := make(map[uint]bool, len(reports))
	for _, r := range reports {
		submitted[r.ProjectID] = true
	}

	byPM := make(map[uint][]string)
	for _, p := range projects {
		if p.Status != database.ProjectStatusActive || p.PMID == nil {
			continue
		}
		if submitted[p.ID] {
			continue
		}
		byPM[*p.PMID] = append(byPM[*p.PMID], p.Name)
	}

	reminders := make([]Reminder, 0, len(byPM))
	for pmID, names := range byPM {
		u, ok := usersByID[pmID]
		if !ok || !u.IsActive {
			continue
		}
		sort.Strings(names)
		reminders = append(reminders, Reminder{
			PMID:         pmID,
			PMName:       u.Name,
			PMEmail:      u.Email,
			ProjectNames: names,
		})
	}
	sort.Slice(reminders, func(i, j int) bool { return reminders[i].PMName < reminders[j].PMName })

	return reminders
}
