// ABOUTME: Task board MCP tool handlers
// ABOUTME: Implements move_task for moving a card between stage columns
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/crmlink/coordinator"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type TaskHandlers struct {
	co *coordinator.Coordinator
}

func NewTaskHandlers(co *coordinator.Coordinator) *TaskHandlers {
	return &TaskHandlers{co: co}
}

type MoveTaskInput struct {
	ID      string `json:"id" jsonschema:"Task ID (required)"`
	StageID string `json:"stage_id,omitempty" jsonschema:"Target task stage ID; empty or unassigned clears the stage"`
}

type MoveTaskOutput struct {
	ID      string  `json:"id"`
	Title   string  `json:"title,omitempty"`
	StageID *string `json:"stage_id"`
}

func (h *TaskHandlers) MoveTask(ctx context.Context, request *mcp.CallToolRequest, input MoveTaskInput) (*mcp.CallToolResult, MoveTaskOutput, error) {
	if input.ID == "" {
		return nil, MoveTaskOutput{}, fmt.Errorf("id is required")
	}

	rec, err := h.co.Update(ctx, models.ResourceTasks, input.ID, objects.MoveTaskPatch(input.StageID))
	if err != nil {
		return nil, MoveTaskOutput{}, fmt.Errorf("failed to move task: %w", err)
	}

	out := MoveTaskOutput{ID: input.ID, Title: rec.String(objects.TaskFieldTitle)}
	if stage := objects.StageID(rec); stage != "" {
		out.StageID = &stage
	}
	return nil, out, nil
}
