// ABOUTME: MCP prompt handlers for reusable CRM workflow templates
// ABOUTME: Provides standardized prompts for contact, pipeline and task reviews
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/crmlink/coordinator"
	"github.com/harperreed/crmlink/display"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	co  *coordinator.Coordinator
	now func() time.Time
}

func NewPromptHandlers(co *coordinator.Coordinator) *PromptHandlers {
	return &PromptHandlers{co: co, now: time.Now}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "contact-summary":
		return h.getContactSummaryPrompt(ctx, arguments)
	case "deal-analysis":
		return h.getDealAnalysisPrompt(ctx)
	case "task-review":
		return h.getTaskReviewPrompt(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func (h *PromptHandlers) getContactSummaryPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	contactID, ok := args["contact_id"]
	if !ok || contactID == "" {
		return nil, fmt.Errorf("contact_id is required")
	}

	rec, err := h.co.Load(ctx, models.ResourceContacts, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	contact, err := models.DecodeRecord[models.Contact](rec)
	if err != nil {
		return nil, err
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Contact: %s (%s)\n", contact.Name, display.Initials(contact.Name)))
	if contact.Email != "" {
		promptText.WriteString(fmt.Sprintf("Email: %s\n", contact.Email))
	}
	if contact.JobTitle != "" {
		promptText.WriteString(fmt.Sprintf("Job Title: %s\n", contact.JobTitle))
	}
	if contact.Status != "" {
		promptText.WriteString(fmt.Sprintf("Status: %s\n", contact.Status))
	}
	if company := rec.Map("company"); company != nil {
		promptText.WriteString(fmt.Sprintf("Company: %s\n", company.String("name")))
	}

	promptText.WriteString("\nPlease analyze this contact and provide:")
	promptText.WriteString("\n1. A brief summary of their role and background")
	promptText.WriteString("\n2. Recommendations for next steps or follow-up actions")
	promptText.WriteString("\n3. Whether their status should change")

	return userPrompt(fmt.Sprintf("Summary for contact: %s", contact.Name), promptText.String()), nil
}

func (h *PromptHandlers) getDealAnalysisPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	snap, err := viz.LoadSnapshot(ctx, h.co)
	if err != nil {
		return nil, err
	}
	stats := viz.GenerateDashboardStats(snap, h.now())

	var promptText strings.Builder
	promptText.WriteString("Please analyze the current deal pipeline:\n\n")
	promptText.WriteString(fmt.Sprintf("Total Deals: %d\n\n", stats.TotalDeals))
	promptText.WriteString("Pipeline by Stage:\n")
	for _, stage := range stats.StageOrder {
		pstats := stats.PipelineByStage[stage]
		promptText.WriteString(fmt.Sprintf("  - %s: %d deals, %s\n", stage, pstats.Count, display.USD(pstats.Amount)))
	}

	points := viz.DealsChart(snap.DealStages)
	if len(points) > 0 {
		promptText.WriteString("\nClosed deals by month:\n")
		for _, p := range points {
			promptText.WriteString(fmt.Sprintf("  - %s %s: %s\n", p.TimeText, p.State, display.USD(p.Value)))
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Analysis of pipeline health and distribution")
	promptText.WriteString("\n2. Recommendations for deals that may need attention")
	promptText.WriteString("\n3. Suggestions for improving conversion rates")

	return userPrompt("Deal pipeline analysis", promptText.String()), nil
}

func (h *PromptHandlers) getTaskReviewPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	snap, err := viz.LoadSnapshot(ctx, h.co)
	if err != nil {
		return nil, err
	}
	stats := viz.GenerateDashboardStats(snap, h.now())

	var promptText strings.Builder
	promptText.WriteString("Tasks that need attention:\n\n")
	if len(stats.OverdueTasks) == 0 && len(stats.DueSoonTasks) == 0 {
		promptText.WriteString("No overdue or upcoming tasks.\n")
	}
	for _, task := range stats.OverdueTasks {
		promptText.WriteString(fmt.Sprintf("- %s (overdue since %s)\n", task.Title, display.DueLabel(task.Due)))
	}
	for _, task := range stats.DueSoonTasks {
		promptText.WriteString(fmt.Sprintf("- %s (due %s)\n", task.Title, display.DueLabel(task.Due)))
	}

	promptText.WriteString("\nPlease suggest an order to work through these and which to reschedule.")

	return userPrompt("Task review", promptText.String()), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
