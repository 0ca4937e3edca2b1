// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Provides an ASCII overview of the pipeline, contacts and tasks
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/crmlink/display"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
	"github.com/shopspring/decimal"
)

// Snapshot is the set of records the dashboard and graphs are built from.
type Snapshot struct {
	Companies  []objects.Record
	Contacts   []objects.Record
	Deals      []objects.Record
	DealStages []objects.Record
	Tasks      []objects.Record
}

type DashboardStats struct {
	// Pipeline overview, keyed by stage title
	PipelineByStage map[string]PipelineStageStats
	StageOrder      []string

	// Overall stats
	TotalContacts  int
	TotalCompanies int
	TotalDeals     int
	TotalTasks     int

	ContactsByStatus map[models.ContactStatus]int

	// Needs attention
	OverdueTasks []TaskDue
	DueSoonTasks []TaskDue
}

type PipelineStageStats struct {
	Stage  string
	Count  int
	Amount decimal.Decimal
}

type TaskDue struct {
	Title string
	Due   time.Time
}

// GenerateDashboardStats summarizes a snapshot as of now.
func GenerateDashboardStats(data Snapshot, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		PipelineByStage:  make(map[string]PipelineStageStats),
		ContactsByStatus: make(map[models.ContactStatus]int),
		TotalContacts:    len(data.Contacts),
		TotalCompanies:   len(data.Companies),
		TotalDeals:       len(data.Deals),
		TotalTasks:       len(data.Tasks),
	}

	titles := make(map[string]string, len(data.DealStages))
	for _, stage := range data.DealStages {
		titles[stage.ID()] = stage.String("title")
	}

	for _, deal := range data.Deals {
		stage, ok := titles[deal.String(objects.DealFieldStageID)]
		if !ok || stage == "" {
			stage = models.StageUnassigned
		}

		pstats, seen := stats.PipelineByStage[stage]
		if !seen {
			pstats.Stage = stage
			pstats.Amount = decimal.Zero
		}
		pstats.Count++
		pstats.Amount = pstats.Amount.Add(deal.Decimal(objects.DealFieldValue))
		stats.PipelineByStage[stage] = pstats
	}

	if _, ok := stats.PipelineByStage[models.StageUnassigned]; ok {
		stats.StageOrder = append(stats.StageOrder, models.StageUnassigned)
	}
	for _, stage := range data.DealStages {
		title := stage.String("title")
		if _, ok := stats.PipelineByStage[title]; ok && title != models.StageUnassigned {
			stats.StageOrder = append(stats.StageOrder, title)
		}
	}

	for _, contact := range data.Contacts {
		if status := contact.String("status"); models.ValidContactStatus(status) {
			stats.ContactsByStatus[models.ContactStatus(status)]++
		}
	}

	for _, task := range data.Tasks {
		if completed, _ := task[objects.TaskFieldCompleted].(bool); completed {
			continue
		}
		due := objects.DueDate(task)
		if due == nil {
			continue
		}
		item := TaskDue{Title: task.String(objects.TaskFieldTitle), Due: *due}
		switch display.DateColor(*due, now) {
		case display.ColorError:
			stats.OverdueTasks = append(stats.OverdueTasks, item)
		case display.ColorWarning:
			stats.DueSoonTasks = append(stats.DueSoonTasks, item)
		}
	}

	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	// Header
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  CRM DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE OVERVIEW\n")
	renderPipeline(&out, stats)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  📇 %d contacts  🏢 %d companies  💼 %d deals  ✅ %d tasks\n\n",
		stats.TotalContacts, stats.TotalCompanies, stats.TotalDeals, stats.TotalTasks))

	if len(stats.ContactsByStatus) > 0 {
		out.WriteString("CONTACTS BY STATUS\n")
		for _, status := range models.ContactStatuses() {
			if n := stats.ContactsByStatus[status]; n > 0 {
				out.WriteString(fmt.Sprintf("  %-13s %d\n", status, n))
			}
		}
		out.WriteString("\n")
	}

	if len(stats.OverdueTasks) > 0 || len(stats.DueSoonTasks) > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		if len(stats.OverdueTasks) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d tasks overdue\n", len(stats.OverdueTasks)))
		}
		if len(stats.DueSoonTasks) > 0 {
			out.WriteString(fmt.Sprintf("  ⏰ %d tasks due within 3 days\n", len(stats.DueSoonTasks)))
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, stats *DashboardStats) {
	if len(stats.StageOrder) == 0 {
		out.WriteString("  no deals\n")
		return
	}

	// Find max count for scaling
	maxCount := 1
	for _, pstats := range stats.PipelineByStage {
		if pstats.Count > maxCount {
			maxCount = pstats.Count
		}
	}

	for _, stage := range stats.StageOrder {
		pstats := stats.PipelineByStage[stage]

		barLength := (pstats.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-13s %s  %2d (%s)\n",
			stage, bar, pstats.Count, display.USD(pstats.Amount)))
	}
}
