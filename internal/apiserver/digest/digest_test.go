package digest

import (
	"testing"

	"github.com/amoylab/ragtrack/internal/apiserver/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pmRef(id uint) *uint { return &id }

func testUsers() []*database.User {
	return []*database.User{
		{ID: 1, Name: "Alice", Email: "alice@example.com", Role: database.RolePM, IsActive: true},
		{ID: 2, Name: "Bob", Email: "bob@example.com", Role: database.RolePM, IsActive: true},
		{ID: 3, Name: "Carol", Email: "carol@example.com", Role: database.RolePM, IsActive: false},
	}
}

func testProjects() []*database.Project {
	return []*database.Project{
		{ID: 10, Name: "Apollo", Status: database.ProjectStatusActive, PMID: pmRef(1)},
		{ID: 11, Name: "Hermes", Status: database.ProjectStatusActive, PMID: pmRef(1)},
		{ID: 12, Name: "Zeus", Status: database.ProjectStatusActive, PMID: pmRef(2)},
		{ID: 13, Name: "Atlas", Status: database.ProjectStatusActive, PMID: nil},
		{ID: 14, Name: "Kronos", Status: database.ProjectStatusClosed, PMID: pmRef(2)},
	}
}

func TestBuildDashboardBuckets(t *testing.T) {
	reports := []*database.WeeklyReport{
		{ProjectID: 10, PMID: 1, Rag: database.RagRed, ReasonForRag: "client blocker"},
		{ProjectID: 12, PMID: 2, Rag: database.RagGreen},
	}

	d := BuildDashboard("2026-07", reports, testProjects(), testUsers())

	assert.Equal(t, "2026-07", d.WeekKey)
	require.Len(t, d.Red, 1)
	assert.Equal(t, "Apollo", d.Red[0].ProjectName)
	assert.Equal(t, "Alice", d.Red[0].PMName)
	assert.Equal(t, "client blocker", d.Red[0].Note)
	assert.Empty(t, d.Amber)
	require.Len(t, d.Green, 1)
	assert.Equal(t, "On track", d.Green[0].Note)
	assert.Equal(t, 2, d.Submitted())

	// Pending = active projects without a report: Hermes and Atlas. The
	// closed Kronos never counts.
	assert.Equal(t, []string{"Atlas", "Hermes"}, d.Pending)
}

func TestBuildDashboardGreenNoteShowsReason(t *testing.T) {
	// A submitted reason is shown whatever the RAG; "On track" is only the
	// fallback for an empty one.
	reports := []*database.WeeklyReport{
		{ProjectID: 10, PMID: 1, Rag: database.RagGreen, ReasonForRag: "launch went out clean"},
		{ProjectID: 12, PMID: 2, Rag: database.RagGreen},
	}

	d := BuildDashboard("2026-07", reports, testProjects(), testUsers())

	require.Len(t, d.Green, 2)
	assert.Equal(t, "launch went out clean", d.Green[0].Note)
	assert.Equal(t, "On track", d.Green[1].Note)
}

func TestBuildDashboardEmptyInputs(t *testing.T) {
	d := BuildDashboard("2026-07", nil, nil, nil)
	assert.Empty(t, d.Red)
	assert.Empty(t, d.Amber)
	assert.Empty(t, d.Green)
	assert.Empty(t, d.Pending)
	assert.Equal(t, 0, d.Submitted())
}

func TestBuildRemindersGroupsByPM(t *testing.T) {
	// Only Zeus has a report; Apollo and Hermes pend for Alice, Atlas has
	// no PM, Kronos is closed.
	reports := []*database.WeeklyReport{
		{ProjectID: 12, PMID: 2, Rag: database.RagGreen},
	}

	reminders := BuildReminders(reports, testProjects(), testUsers())

	require.Len(t, reminders, 1)
	assert.Equal(t, uint(1), reminders[0].PMID)
	assert.Equal(t, "alice@example.com", reminders[0].PMEmail)
	assert.Equal(t, []string{"Apollo", "Hermes"}, reminders[0].ProjectNames)
}

func TestBuildRemindersSkipsInactivePM(t *testing.T) {
	projects := []*database.Project{
		{ID: 20, Name: "Ghost", Status: database.ProjectStatusActive, PMID: pmRef(3)},
	}
	reminders := BuildReminders(nil, projects, testUsers())
	assert.Empty(t, reminders)
}

func TestBuildRemindersAllSubmitted(t *testing.T) {
	reports := []*database.WeeklyReport{
		{ProjectID: 10, PMID: 1, Rag: database.RagGreen},
		{ProjectID: 11, PMID: 1, Rag: database.RagGreen},
		{ProjectID: 12, PMID: 2, Rag: database.RagGreen},
	}
	reminders := BuildReminders(reports, testProjects(), testUsers())
	assert.Empty(t, reminders)
}
