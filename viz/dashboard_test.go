// ABOUTME: Tests for dashboard statistics and graph rendering
// ABOUTME: Builds snapshots in memory and checks totals, ordering and DOT output
package viz

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot(now time.Time) Snapshot {
	return Snapshot{
		Companies: []objects.Record{{"id": "co1", "name": "Acme"}},
		Contacts: []objects.Record{
			{"id": "c1", "name": "Ada", "status": "NEW", "companyId": "co1"},
			{"id": "c2", "name": "Bob", "status": "WON", "companyId": "co1"},
			{"id": "c3", "name": "Cy", "status": "NEW"},
		},
		DealStages: []objects.Record{
			{"id": "s1", "title": "NEW"},
			{"id": "s2", "title": "WON"},
		},
		Deals: []objects.Record{
			{"id": "d1", "title": "Rockets", "value": 1000.0, "stageId": "s1", "companyId": "co1"},
			{"id": "d2", "title": "Anvils", "value": 250.5, "stageId": "s1"},
			{"id": "d3", "title": "Magnets", "value": 99.0, "stageId": "s2"},
			{"id": "d4", "title": "Orphan", "value": 1.0, "stageId": nil},
		},
		Tasks: []objects.Record{
			{"id": "t1", "title": "Late", "dueDate": now.Add(-24 * time.Hour).Format(time.RFC3339)},
			{"id": "t2", "title": "Soon", "dueDate": now.Add(24 * time.Hour).Format(time.RFC3339)},
			{"id": "t3", "title": "Done", "completed": true, "dueDate": now.Add(-time.Hour).Format(time.RFC3339)},
			{"id": "t4", "title": "Someday"},
		},
	}
}

func TestGenerateDashboardStats(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	stats := GenerateDashboardStats(sampleSnapshot(now), now)

	assert.Equal(t, 3, stats.TotalContacts)
	assert.Equal(t, 1, stats.TotalCompanies)
	assert.Equal(t, 4, stats.TotalDeals)
	assert.Equal(t, 4, stats.TotalTasks)

	assert.Equal(t, []string{models.StageUnassigned, "NEW", "WON"}, stats.StageOrder)
	assert.Equal(t, 2, stats.PipelineByStage["NEW"].Count)
	assert.Equal(t, "1250.5", stats.PipelineByStage["NEW"].Amount.String())
	assert.Equal(t, 1, stats.PipelineByStage[models.StageUnassigned].Count)

	assert.Equal(t, 2, stats.ContactsByStatus[models.StatusNew])
	assert.Equal(t, 1, stats.ContactsByStatus[models.StatusWon])

	require.Len(t, stats.OverdueTasks, 1)
	assert.Equal(t, "Late", stats.OverdueTasks[0].Title)
	require.Len(t, stats.DueSoonTasks, 1)
	assert.Equal(t, "Soon", stats.DueSoonTasks[0].Title)
}

func TestRenderDashboard(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	out := RenderDashboard(GenerateDashboardStats(sampleSnapshot(now), now))

	assert.Contains(t, out, "CRM DASHBOARD")
	assert.Contains(t, out, "PIPELINE OVERVIEW")
	assert.Contains(t, out, "1,250.50")
	assert.Contains(t, out, "3 contacts")
	assert.Contains(t, out, "1 tasks overdue")
	assert.Contains(t, out, "CONTACTS BY STATUS")
}

func TestRenderDashboardEmpty(t *testing.T) {
	out := RenderDashboard(GenerateDashboardStats(Snapshot{}, time.Now()))
	assert.Contains(t, out, "no deals")
	assert.NotContains(t, out, "NEEDS ATTENTION")
}

func TestGeneratePipelineGraph(t *testing.T) {
	now := time.Now()
	g := NewGraphGenerator(sampleSnapshot(now), zerolog.Nop())

	dot, err := g.GeneratePipelineGraph(context.Background())
	require.NoError(t, err)
	assert.Contains(t, dot, "stage_s1")
	assert.Contains(t, dot, "deal_d3")
	assert.Contains(t, dot, "stage_"+models.Unassigned)
}

func TestGenerateCompanyGraph(t *testing.T) {
	g := NewGraphGenerator(sampleSnapshot(time.Now()), zerolog.Nop())

	dot, err := g.GenerateCompanyGraph(context.Background())
	require.NoError(t, err)
	assert.Contains(t, dot, "company_co1")
	assert.Contains(t, dot, "contact_c1")
	assert.Contains(t, dot, "deal_d1")
	assert.NotContains(t, dot, "contact_c3")
}
